package ensgold

// geometry.go implements the two-pass binary geometry reader: ScanGeometry
// sizes every part's coordinate and connectivity footprint without
// materializing any of it, and LoadGeometry replays the exact same walk to
// copy vertex coordinates and zero-based connectivity into the returned
// Mesh. Both passes resolve element lines through the same parseElemLine
// helper and size blocks with the same elem.VertexCount table, so they
// never disagree about a kind's footprint, matching
// original_source/encas.h's Encas_ParseMeshInfo / Encas_ReadGeometry split.
//
// The struct-tagged, offset-seeking binary read style here is adapted from
// the teacher's load/iqm.go (bytes.NewReader + Seek + binary.Read over a
// fixed-layout header), generalized to EnSight Gold's 80-byte fixed binary
// "lines" instead of IQM's packed header struct.

import (
	"encoding/binary"
	"log/slog"
	"math"
	"strings"

	"github.com/ensightgold/ensgold/internal/elem"
	"github.com/ensightgold/ensgold/internal/rbuf"
	"golang.org/x/text/encoding/charmap"
)

const binaryLineLen = 80

// geoCursor wraps a rbuf.Reader with the EnSight Gold binary-geometry
// conventions: 80-byte fixed "lines", little-endian int32/float32 reads.
type geoCursor struct {
	r *rbuf.Reader
}

func (g geoCursor) line() (string, error) {
	b, err := g.r.Read(binaryLineLen)
	if err != nil {
		return "", wrapErr(KindIO, err, "reading 80-byte record")
	}
	return strings.TrimRight(string(b), "\x00 "), nil
}

// description decodes an 80-byte free-form record defensively as
// Windows-1252, since the format predates UTF-8 and files are produced on
// mixed platforms (see DESIGN.md's ambient-stack entry for text decoding).
func (g geoCursor) description() (string, error) {
	b, err := g.r.Read(binaryLineLen)
	if err != nil {
		return "", wrapErr(KindIO, err, "reading description record")
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		decoded = b
	}
	return strings.TrimRight(string(decoded), "\x00 "), nil
}

func (g geoCursor) int32() (int32, error) {
	b, err := g.r.Read(4)
	if err != nil {
		return 0, wrapErr(KindIO, err, "reading int32")
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (g geoCursor) float32s(n int) ([]float32, error) {
	b, err := g.r.Read(4 * n)
	if err != nil {
		return nil, wrapErr(KindIO, err, "reading %d float32s", n)
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : i*4+4]))
	}
	return out, nil
}

func (g geoCursor) int32s(n int) ([]int32, error) {
	b, err := g.r.Read(4 * n)
	if err != nil {
		return nil, wrapErr(KindIO, err, "reading %d int32s", n)
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(b[i*4 : i*4+4]))
	}
	return out, nil
}

type idModes struct {
	node, element IDMode
}

func parseIDMode(s string) (IDMode, bool) {
	switch {
	case strings.HasPrefix(s, "off"):
		return IDOff, true
	case strings.HasPrefix(s, "given"):
		return IDGiven, true
	case strings.HasPrefix(s, "assign"):
		return IDAssign, true
	case strings.HasPrefix(s, "ignore"):
		return IDIgnore, true
	default:
		return IDOff, false
	}
}

// openGeometryHeader reads and validates the "C Binary" marker, skips the
// two file-level description lines, and reads the node id / element id
// modes and optional extents record. It returns the cursor positioned at
// the first "part" line.
func openGeometryHeader(path string, disableMmap bool) (geoCursor, idModes, error) {
	r, err := rbuf.OpenWithOptions(path, disableMmap)
	if err != nil {
		return geoCursor{}, idModes{}, wrapErr(KindIO, err, "opening geometry file %s", path)
	}
	g := geoCursor{r: r}

	line, err := g.line()
	if err != nil {
		return g, idModes{}, err
	}
	if !strings.HasPrefix(line, "C Binary") {
		return g, idModes{}, newErr(KindFormat, "%s is not in C Binary form", path)
	}
	if err := r.Advance(2 * binaryLineLen); err != nil {
		return g, idModes{}, wrapErr(KindFormat, err, "%s missing description lines", path)
	}

	line, err = g.line()
	if err != nil {
		return g, idModes{}, err
	}
	if !strings.HasPrefix(line, "node id ") {
		return g, idModes{}, newErr(KindFormat, "%s missing 'node id' record", path)
	}
	nodeID, ok := parseIDMode(strings.TrimSpace(line[len("node id "):]))
	if !ok {
		return g, idModes{}, newErr(KindFormat, "%s has unknown node id mode", path)
	}

	line, err = g.line()
	if err != nil {
		return g, idModes{}, err
	}
	if !strings.HasPrefix(line, "element id ") {
		return g, idModes{}, newErr(KindFormat, "%s missing 'element id' record", path)
	}
	elementID, ok := parseIDMode(strings.TrimSpace(line[len("element id "):]))
	if !ok {
		return g, idModes{}, newErr(KindFormat, "%s has unknown element id mode", path)
	}

	pos := r.Pos()
	line, err = g.line()
	if err != nil {
		return g, idModes{}, err
	}
	if strings.HasPrefix(line, "extents") {
		if err := r.Advance(6 * 4); err != nil {
			return g, idModes{}, wrapErr(KindFormat, err, "%s truncated extents record", path)
		}
	} else {
		if err := r.Seek(pos); err != nil {
			return g, idModes{}, wrapErr(KindIO, err, "%s rewinding after header", path)
		}
	}

	return g, idModes{node: nodeID, element: elementID}, nil
}

// ScanGeometry sizes every part of the geometry file at path without
// materializing vertex or connectivity data, so a caller can allocate
// exact-sized buffers for a later LoadGeometry call. If c is non-nil, the
// file's node/element id modes are recorded onto it (see SPEC_FULL.md §3);
// pass the case's model geometry's first scanned file to populate
// c.NodeIDMode/c.ElementIDMode. cfg.DisableMmap selects the byte reader's
// heap-buffer fallback; cfg.PartMapCapacityHint sizes the returned
// MeshInfo's lazily-built part-number lookup.
func ScanGeometry(path string, c *Case, cfg Config, log *slog.Logger) (*MeshInfo, error) {
	cfg = cfg.withDefaults()
	g, modes, err := openGeometryHeader(path, cfg.DisableMmap)
	if err != nil {
		return nil, err
	}
	if c != nil {
		c.NodeIDMode = modes.node
		c.ElementIDMode = modes.element
	}

	info := &MeshInfo{PartMapBuckets: cfg.PartMapCapacityHint}
	for {
		pos := g.r.Pos()
		line, err := g.line()
		if err != nil {
			break
		}
		if !strings.HasPrefix(line, "part") {
			_ = g.r.Seek(pos)
			break
		}

		part, err := scanPart(&g, modes)
		if err != nil {
			return nil, err
		}
		info.Parts = append(info.Parts, part)
	}
	if len(info.Parts) == 0 {
		return nil, newErr(KindFormat, "geometry file %s has no parts", path)
	}
	logInfo(log, "scanned geometry file", "path", path, "parts", len(info.Parts))
	return info, nil
}

func scanPart(g *geoCursor, modes idModes) (MeshInfoPart, error) {
	partNumber, err := g.int32()
	if err != nil {
		return MeshInfoPart{}, err
	}
	desc, err := g.description()
	if err != nil {
		return MeshInfoPart{}, err
	}
	part := MeshInfoPart{PartNumber: partNumber, Description: desc}

	for {
		pos := g.r.Pos()
		line, err := g.line()
		if err != nil {
			break
		}

		switch {
		case strings.HasPrefix(line, "coordinates"):
			numNodes, err := g.int32()
			if err != nil {
				return part, err
			}
			if modes.node == IDGiven || modes.node == IDIgnore {
				if err := g.r.Advance(int64(numNodes) * 4); err != nil {
					return part, wrapErr(KindBounds, err, "skipping node ids")
				}
			}
			part.NumOfCoords = numNodes
			if err := g.r.Advance(3 * int64(numNodes) * 4); err != nil {
				return part, wrapErr(KindBounds, err, "skipping coordinates")
			}

		case strings.HasPrefix(line, "block"):
			return part, newErr(KindUnsupported, "structured (block) geometry is not implemented")

		default:
			kind, isGhost, ok := parseElemLine(line)
			if !ok {
				_ = g.r.Seek(pos)
				return part, nil
			}
			if kind == elem.NSided || kind == elem.NFaced {
				return part, newErr(KindUnsupported, "nsided/nfaced elements are not implemented")
			}
			numElems, err := g.int32()
			if err != nil {
				return part, err
			}
			if modes.element == IDGiven || modes.element == IDIgnore {
				if err := g.r.Advance(int64(numElems) * 4); err != nil {
					return part, wrapErr(KindBounds, err, "skipping element ids")
				}
			}
			vertCount := elem.VertexCount(kind)
			if !isGhost {
				part.ElemKinds = append(part.ElemKinds, kind)
				part.ElemSizes = append(part.ElemSizes, numElems)
				part.ElemVertMapSize += int64(numElems) * int64(vertCount)
			}
			if err := g.r.Advance(int64(numElems) * int64(vertCount) * 4); err != nil {
				return part, wrapErr(KindBounds, err, "skipping element connectivity")
			}
		}
	}
	return part, nil
}

// parseElemLine strips an optional "g_" ghost prefix and resolves the
// remaining token to an element Kind.
func parseElemLine(line string) (kind elem.Kind, isGhost bool, ok bool) {
	tok := line
	if strings.HasPrefix(tok, elem.GhostPrefix) {
		isGhost = true
		tok = tok[len(elem.GhostPrefix):]
	}
	k := elem.Parse(tok)
	if k == elem.Unknown {
		return elem.Unknown, false, false
	}
	return k, isGhost, true
}

// LoadGeometry replays ScanGeometry's walk over path, this time copying
// vertex coordinates and connectivity (converted from the file's 1-based
// indices to 0-based) into a Mesh. info must be the MeshInfo already
// scanned for path.
func LoadGeometry(path string, info *MeshInfo, cfg Config, log *slog.Logger) (*Mesh, error) {
	cfg = cfg.withDefaults()
	g, modes, err := openGeometryHeader(path, cfg.DisableMmap)
	if err != nil {
		return nil, err
	}

	mesh := &Mesh{Parts: make([]MeshPart, 0, len(info.Parts))}
	for partIdx := 0; ; partIdx++ {
		pos := g.r.Pos()
		line, err := g.line()
		if err != nil {
			break
		}
		if !strings.HasPrefix(line, "part") {
			_ = g.r.Seek(pos)
			break
		}
		if partIdx >= len(info.Parts) {
			return nil, newErr(KindConsistency, "geometry file %s has more parts than its scan found", path)
		}

		part, err := loadPart(&g, modes)
		if err != nil {
			return nil, err
		}
		mesh.Parts = append(mesh.Parts, part)
	}
	logInfo(log, "loaded geometry file", "path", path, "parts", len(mesh.Parts))
	return mesh, nil
}

func loadPart(g *geoCursor, modes idModes) (MeshPart, error) {
	partNumber, err := g.int32()
	if err != nil {
		return MeshPart{}, err
	}
	desc, err := g.description()
	if err != nil {
		return MeshPart{}, err
	}
	part := MeshPart{PartNumber: partNumber, Description: desc}

	for {
		pos := g.r.Pos()
		line, err := g.line()
		if err != nil {
			break
		}

		switch {
		case strings.HasPrefix(line, "coordinates"):
			numNodes, err := g.int32()
			if err != nil {
				return part, err
			}
			if modes.node == IDGiven || modes.node == IDIgnore {
				if err := g.r.Advance(int64(numNodes) * 4); err != nil {
					return part, wrapErr(KindBounds, err, "skipping node ids")
				}
			}
			x, err := g.float32s(int(numNodes))
			if err != nil {
				return part, err
			}
			y, err := g.float32s(int(numNodes))
			if err != nil {
				return part, err
			}
			z, err := g.float32s(int(numNodes))
			if err != nil {
				return part, err
			}
			part.Vertices = Vertices{X: x, Y: y, Z: z}

		case strings.HasPrefix(line, "block"):
			return part, newErr(KindUnsupported, "structured (block) geometry is not implemented")

		default:
			kind, isGhost, ok := parseElemLine(line)
			if !ok {
				_ = g.r.Seek(pos)
				return part, nil
			}
			numElems, err := g.int32()
			if err != nil {
				return part, err
			}
			if modes.element == IDGiven || modes.element == IDIgnore {
				if err := g.r.Advance(int64(numElems) * 4); err != nil {
					return part, wrapErr(KindBounds, err, "skipping element ids")
				}
			}
			vertCount := elem.VertexCount(kind)
			if isGhost {
				if err := g.r.Advance(int64(numElems) * int64(vertCount) * 4); err != nil {
					return part, wrapErr(KindBounds, err, "skipping ghost connectivity")
				}
				continue
			}
			raw, err := g.int32s(int(numElems) * vertCount)
			if err != nil {
				return part, err
			}
			conn := make([]uint32, len(raw))
			for i, v := range raw {
				conn[i] = uint32(v - 1) // 1-based -> 0-based
			}
			part.ElemKinds = append(part.ElemKinds, kind)
			part.ElemCounts = append(part.ElemCounts, numElems)
			part.ElemVertMap = append(part.ElemVertMap, conn...)
		}
	}
	return part, nil
}
