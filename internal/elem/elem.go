// Package elem holds the EnSight Gold element-kind table: how many
// vertices each cell kind defines, and (for documentation and future
// extractors) how many triangles each kind tessellates into. The mesh-info
// scanner, geometry loader and shell extractor all share this table so
// they never disagree about a kind's footprint.
package elem

// Kind identifies an EnSight Gold element type, in the order the format
// documents them.
type Kind int

const (
	Unknown Kind = iota
	Point
	Bar2
	Bar3
	Tria3
	Tria6
	Quad4
	Quad8
	Tetra4
	Tetra10
	Pyramid5
	Pyramid13
	Penta6
	Penta15
	Hexa8
	Hexa20
	NSided
	NFaced
)

var names = map[string]Kind{
	"point":     Point,
	"bar2":      Bar2,
	"bar3":      Bar3,
	"tria3":     Tria3,
	"tria6":     Tria6,
	"quad4":     Quad4,
	"quad8":     Quad8,
	"tetra4":    Tetra4,
	"tetra10":   Tetra10,
	"pyramid5":  Pyramid5,
	"pyramid13": Pyramid13,
	"penta6":    Penta6,
	"penta15":   Penta15,
	"hexa8":     Hexa8,
	"hexa20":    Hexa20,
	"nsided":    NSided,
	"nfaced":    NFaced,
}

// Parse resolves an element-type token from a geometry file (with any
// "g_" ghost prefix already stripped by the caller) to a Kind. It returns
// Unknown for anything it doesn't recognize. The variable-length
// nsided/nfaced tokens resolve to NSided/NFaced, which this reader
// recognizes but does not support.
func Parse(token string) Kind {
	if k, ok := names[token]; ok {
		return k
	}
	return Unknown
}

// GhostPrefix is the marker EnSight Gold uses on a keyword to say "this
// block's elements are for display completeness only, not real geometry".
const GhostPrefix = "g_"

// vertsByKind is the number of vertex indices each element kind's
// connectivity record carries.
var vertsByKind = map[Kind]int{
	Point:     1,
	Bar2:      2,
	Bar3:      3,
	Tria3:     3,
	Tria6:     6,
	Quad4:     4,
	Quad8:     8,
	Tetra4:    4,
	Tetra10:   10,
	Pyramid5:  5,
	Pyramid13: 13,
	Penta6:    6,
	Penta15:   15,
	Hexa8:     8,
	Hexa20:    20,
	// nsided/nfaced are variable-length and unsupported; 0 signals "caller
	// must special-case before consulting this table".
	NSided: 0,
	NFaced: 0,
}

// VertexCount returns how many vertex indices one element of kind k
// carries in its connectivity record.
func VertexCount(k Kind) int {
	return vertsByKind[k]
}

// trianglesByKind is the number of triangles a fully-tessellated element
// of kind k would contribute to a shell. It is carried here for every kind
// the format defines, even though the shell extractor itself — following
// its grounding source exactly — only ever tessellates Tria3 and Tetra4;
// every other kind reports its count here for documentation and for any
// future extractor that wants to size a buffer for full coverage.
var trianglesByKind = map[Kind]int{
	Tria3:     1,
	Tria6:     4,
	Quad4:     2,
	Quad8:     6,
	Tetra4:    4,
	Tetra10:   16,
	Pyramid5:  6,
	Pyramid13: 22,
	Penta6:    8,
	Penta15:   26,
	Hexa8:     12,
	Hexa20:    36,
}

// TriangleCount returns how many triangles a fully-tessellated element of
// kind k would contribute. See the Triangulated doc comment: today only
// Tria3 and Tetra4 are actually triangulated by this reader.
func TriangleCount(k Kind) int {
	return trianglesByKind[k]
}

// Triangulated reports whether the shell extractor actually tessellates
// elements of kind k. Only Tria3 and Tetra4 do, matching the grounding
// source's triangulation switch exactly.
func Triangulated(k Kind) bool {
	return k == Tria3 || k == Tetra4
}
