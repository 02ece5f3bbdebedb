// Package ensgold reads EnSight Gold scientific-visualisation datasets: a
// case file describing one or more geometry and variable files, the
// binary geometry files themselves (a header plus per-part coordinate and
// connectivity blocks), and the binary variable (field) files that
// associate scalar or vector data with the geometry's nodes or elements.
//
// A typical caller parses a case file with ParseCase, scans and loads the
// geometry it references with ScanGeometry/LoadGeometry, extracts a
// drawable boundary shell with ExtractShell, projects variable data onto
// that shell with LoadVariable, and — when a single combined mesh is more
// convenient than per-part meshes — flattens everything with ToFlatMesh.
package ensgold

import (
	"github.com/ensightgold/ensgold/internal/elem"
	"github.com/ensightgold/ensgold/internal/maps"
)

// VariableType identifies how a variable's data associates with geometry.
type VariableType int

const (
	ScalarPerNode VariableType = iota
	VectorPerNode
	ScalarPerElement
	VectorPerElement
)

func (t VariableType) String() string {
	switch t {
	case ScalarPerNode:
		return "scalar per node"
	case VectorPerNode:
		return "vector per node"
	case ScalarPerElement:
		return "scalar per element"
	case VectorPerElement:
		return "vector per element"
	default:
		return "unknown"
	}
}

// IDMode records how a geometry file's part header declared its node or
// element ids: given explicitly, assigned sequentially, or ignored/off.
type IDMode int

const (
	IDOff IDMode = iota
	IDGiven
	IDIgnore
	IDAssign
)

// GeometryElem is one GEOMETRY-section entry: model, measured, match or
// boundary. Only model is required; the other three roles are stored and
// exposed (see DESIGN.md) even though no component here reads them
// further.
type GeometryElem struct {
	Filename            string
	TS                  int32
	TSSet               bool
	FS                  int32
	FSSet               bool
	ChangeCoordsOnly    bool
	ChangeCoordsOnlySet bool
}

// Geometry holds every GEOMETRY-section role a case file may declare.
type Geometry struct {
	Model    *GeometryElem
	Measured *GeometryElem
	Match    *GeometryElem
	Boundary *GeometryElem
}

// VariableDesc is one VARIABLE-section entry.
type VariableDesc struct {
	Type        VariableType
	TS          int32
	TSSet       bool
	FS          int32
	FSSet       bool
	Description string
	Filename    string
}

// TimeSet is one "time set" record from the TIME section.
type TimeSet struct {
	Number              int32
	Description         string
	NumberOfSteps       int32
	FilenameStartNumber int32
	FilenameIncrement   int32
	TimeValues          []float32
}

// Case is the parsed contents of an EnSight Gold case file: which
// geometry and variable files exist, and how their per-timestep file
// names are generated.
type Case struct {
	Dir      string
	Geometry Geometry
	Variable []VariableDesc
	Times    []TimeSet

	// NodeIDMode/ElementIDMode record the model geometry's id-handling
	// mode, captured once its first file is scanned.
	NodeIDMode    IDMode
	ElementIDMode IDMode
}

// TimeSetByNumber finds the time set with the given "time set number", as
// declared in a GEOMETRY/VARIABLE entry's optional ts field.
func (c *Case) TimeSetByNumber(n int32) (*TimeSet, bool) {
	for i := range c.Times {
		if c.Times[i].Number == n {
			return &c.Times[i], true
		}
	}
	return nil, false
}

// MeshInfoPart is the sizing information the scanner gathers for one part
// without materializing any vertex or connectivity data. Ghost element
// blocks (the "g_" prefix) are scanned for their footprint — their bytes
// are skipped correctly — but never appear in ElemKinds/ElemSizes, since
// nothing downstream materializes them.
type MeshInfoPart struct {
	PartNumber      int32
	Description     string
	NumOfCoords     int32
	ElemKinds       []elem.Kind
	ElemSizes       []int32 // number of elements of ElemKinds[i] in this part
	ElemVertMapSize int64   // total int32 connectivity entries across all non-ghost blocks
}

// MeshInfo is the result of scanning one geometry file: enough to
// allocate exact-sized buffers for a second, materializing pass.
type MeshInfo struct {
	Parts []MeshInfoPart

	// PartMapBuckets overrides the lazily-built lookup's bucket count; zero
	// selects internal/maps' own default. Set from Config.PartMapCapacityHint
	// by ScanGeometry.
	PartMapBuckets int

	lookup *maps.PartMap
}

// PartByNumber returns the dense index of the part with the given part
// number, and whether it was found. The lookup is backed by
// internal/maps.PartMap (a chained hash map), the same structure the
// grounding source's Encas_SearchHashTable/part_num_lookup uses to resolve
// part numbers while reading variable files, built lazily on first use.
func (mi *MeshInfo) PartByNumber(n int32) (int, bool) {
	if mi.lookup == nil {
		mi.lookup = maps.NewPartMapWithBuckets(mi.PartMapBuckets)
		for i := range mi.Parts {
			mi.lookup.Set(mi.Parts[i].PartNumber, i)
		}
	}
	return mi.lookup.Get(n)
}

// Vertices is a struct-of-arrays coordinate buffer: Vertices.X[i],
// Vertices.Y[i], Vertices.Z[i] together are one vertex's position.
type Vertices struct {
	X, Y, Z []float32
}

// Len returns the number of vertices.
func (v Vertices) Len() int { return len(v.X) }

// MeshPart is one part's materialized geometry.
type MeshPart struct {
	PartNumber  int32
	Description string
	Vertices    Vertices

	// ElemKinds/ElemCounts describe the element blocks in file order.
	ElemKinds  []elem.Kind
	ElemCounts []int32

	// ElemVertMap is the concatenation of every element block's
	// connectivity, zero-based (converted from the file's 1-based
	// indices), in file order.
	ElemVertMap []uint32
}

// Mesh is every part of one materialized geometry file.
type Mesh struct {
	Parts []MeshPart
}

// Shell is an extracted boundary surface: a compacted vertex buffer (with
// each vertex's original index into the concatenated part vertices, for
// projecting per-node variable data) and a triangle index buffer.
type Shell struct {
	Vertices  Vertices
	OrigIndex []uint32 // Vertices[i] came from concatenated-part vertex OrigIndex[i]
	Triangles []uint32 // 3 indices per triangle, into Vertices
}

// FlatMesh concatenates every part of a Mesh into one globalized mesh,
// suitable for a single GPU upload, plus every case variable projected
// onto it (see FlatVariable).
type FlatMesh struct {
	Vertices    Vertices
	ElemVertMap []uint64 // globalized connectivity, wide enough for any part offset
	Variables   []FlatVariable
}

// FlatVariable is one case variable's data flattened across every part, in
// the same per-entry-interleaved layout (x,y,z,x,y,z,... for a vector, one
// value per entry for a scalar) Encas_MeshArray_To_FlatMesh produces: entry
// count is len(FlatMesh.Vertices.X) for a per-node variable, or the total
// tetra4 cell count for a per-element one.
type FlatVariable struct {
	Description string
	Type        VariableType
	NumData     int // 1 for scalar, 3 for vector
	Data        []float32
}
