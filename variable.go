package ensgold

// variable.go reads EnSight Gold binary variable (field) files and
// projects their values onto a Shell's compacted vertex buffer.
//
// Per-node variable files store one block per part: for a scalar, a
// num_of_coords-length float32 run; for a vector, three such runs back to
// back (all X, then all Y, then all Z — struct-of-arrays, not
// interleaved). Per-element files store, per part, one block per element
// kind in file order; values are only ever known per-cell, so they are
// averaged onto incident vertices before projection.
//
// Grounded on original_source/encas.h's Encas_ReadVariableDataPerNodePart,
// Encas_ReadVariableDataPerElementPart and Encas_LoadVariableOnShell: the
// per-element averaging below mirrors Encas_LoadVariableOnShell's node_values
// accumulation, including indexing each cell's value block by the running
// cell offset across a part's element kinds (elemOffsets below), exactly as
// the grounding source does.

import (
	"encoding/binary"
	"log/slog"
	"math"

	"github.com/ensightgold/ensgold/internal/elem"
	"github.com/ensightgold/ensgold/internal/rbuf"
)

// elemOffsets returns, for part, the cumulative cell count preceding each
// element kind's block — the running offset Encas_LoadVariableOnShell
// calls mesh_part->elem_offsets.
func elemOffsets(part MeshInfoPart) []int32 {
	offsets := make([]int32, len(part.ElemSizes))
	var total int32
	for i, n := range part.ElemSizes {
		offsets[i] = total
		total += n
	}
	return offsets
}

// readFloatBlock reads count consecutive little-endian float32 values.
func readFloatBlock(r *rbuf.Reader, count int) ([]float32, error) {
	b, err := r.Read(4 * count)
	if err != nil {
		return nil, wrapErr(KindIO, err, "reading %d float32 values", count)
	}
	out := make([]float32, count)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : i*4+4]))
	}
	return out, nil
}

// readVariableFile walks a per-node or per-element variable file's "part"
// blocks, reading each part's coordinate or element data. It returns one
// flat slice per MeshInfo part, indexed in info.Parts order.
func readVariableFile(path string, info *MeshInfo, perNode bool, numData int, cfg Config, log *slog.Logger) ([][]float32, error) {
	r, err := rbuf.OpenWithOptions(path, cfg.DisableMmap)
	if err != nil {
		return nil, wrapErr(KindIO, err, "opening variable file %s", path)
	}
	if err := r.Advance(binaryLineLen); err != nil {
		return nil, wrapErr(KindFormat, err, "%s missing description line", path)
	}

	out := make([][]float32, len(info.Parts))

	for {
		pos := r.Pos()
		lineB, err := r.Read(binaryLineLen)
		if err != nil {
			break
		}
		line := trimBinaryLine(lineB)
		if !hasPrefix(line, "part") {
			_ = r.Seek(pos)
			break
		}

		partNumBytes, err := r.Read(4)
		if err != nil {
			return nil, wrapErr(KindIO, err, "%s: reading part number", path)
		}
		partNum := int32(binary.LittleEndian.Uint32(partNumBytes))
		partIdx, ok := info.PartByNumber(partNum)
		if !ok {
			return nil, newErr(KindConsistency, "%s: unknown part number %d", path, partNum)
		}
		part := info.Parts[partIdx]

		if perNode {
			blockLine, err := r.Read(binaryLineLen)
			if err != nil {
				return nil, wrapErr(KindIO, err, "%s: reading coordinates record", path)
			}
			bl := trimBinaryLine(blockLine)
			if !hasPrefix(bl, "coordinates") {
				return nil, newErr(KindUnsupported, "%s: structured (block) variable data is not implemented", path)
			}
			values, err := readFloatBlock(r, int(part.NumOfCoords)*numData)
			if err != nil {
				return nil, err
			}
			out[partIdx] = values
			continue
		}

		var blockVals []float32
		for {
			innerPos := r.Pos()
			elemLineB, err := r.Read(binaryLineLen)
			if err != nil {
				break
			}
			elemLine := trimBinaryLine(elemLineB)
			k, isGhost, ok := parseElemLine(elemLine)
			if !ok {
				_ = r.Seek(innerPos)
				break
			}
			if isGhost {
				return nil, newErr(KindConsistency, "%s: ghost element kind in per-element variable data", path)
			}
			elemPos := indexOfKind(part, k)
			if elemPos < 0 {
				return nil, newErr(KindConsistency, "%s: element kind not present in geometry's part %d", path, partNum)
			}
			n := int(part.ElemSizes[elemPos])
			vals, err := readFloatBlock(r, n*numData)
			if err != nil {
				return nil, err
			}
			blockVals = append(blockVals, vals...)
		}
		out[partIdx] = blockVals
	}

	logInfo(log, "read variable file", "path", path, "parts", len(info.Parts))
	return out, nil
}

func indexOfKind(part MeshInfoPart, k elem.Kind) int {
	for i, ek := range part.ElemKinds {
		if ek == k {
			return i
		}
	}
	return -1
}

func trimBinaryLine(b []byte) string {
	s := string(b)
	for len(s) > 0 && (s[len(s)-1] == 0 || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	return s
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// LoadVariable reads vd's variable file for the given time step index and
// projects it onto shell's compacted vertex buffer, returning one float32
// slice per component (length 1 for a scalar variable, 3 for a vector),
// each the same length as shell.Vertices.X.
func LoadVariable(c *Case, vd *VariableDesc, info *MeshInfo, mesh *Mesh, timeIdx int, shell *Shell, cfg Config, log *slog.Logger) ([][]float32, error) {
	cfg = cfg.withDefaults()
	files, err := c.ResolveVariableFiles(vd)
	if err != nil {
		return nil, err
	}
	idx := timeIdx
	if idx >= len(files) {
		idx = 0
	}
	if idx < 0 || idx >= len(files) {
		return nil, newErr(KindBounds, "time step %d out of range for variable %q", timeIdx, vd.Description)
	}
	path := files[idx]

	perNode := vd.Type == ScalarPerNode || vd.Type == VectorPerNode
	numData := 1
	if vd.Type == VectorPerNode || vd.Type == VectorPerElement {
		numData = 3
	}

	partData, err := readVariableFile(path, info, perNode, numData, cfg, log)
	if err != nil {
		return nil, err
	}

	var vertsTotal int
	for _, p := range info.Parts {
		vertsTotal += int(p.NumOfCoords)
	}

	components := make([][]float32, numData)
	for i := range components {
		components[i] = make([]float32, vertsTotal)
	}

	if perNode {
		offset := 0
		for partIdx, p := range info.Parts {
			data := partData[partIdx]
			n := int(p.NumOfCoords)
			for comp := 0; comp < numData; comp++ {
				copy(components[comp][offset:offset+n], data[comp*n:(comp+1)*n])
			}
			offset += n
		}
	} else { // per-element: average onto incident vertices
		counts := make([]int32, vertsTotal)
		offset := 0
		for partIdx, p := range info.Parts {
			data := partData[partIdx]
			offsets := elemOffsets(p)
			meshPart := mesh.Parts[partIdx]
			vmOffset := 0
			totalCells := 0
			for _, n := range p.ElemSizes {
				totalCells += int(n)
			}
			for ei, kind := range p.ElemKinds {
				vc := elem.VertexCount(kind)
				n := int(p.ElemSizes[ei])
				for cell := 0; cell < n; cell++ {
					valIdx := int(offsets[ei]) + cell
					base := vmOffset + cell*vc
					for node := 0; node < vc; node++ {
						vIdx := int(meshPart.ElemVertMap[base+node]) + offset
						counts[vIdx]++
						for comp := 0; comp < numData; comp++ {
							components[comp][vIdx] += data[valIdx+comp*totalCells]
						}
					}
				}
				vmOffset += n * vc
			}
			offset += int(p.NumOfCoords)
		}
		var unreferenced int
		for i, cnt := range counts {
			if cnt == 0 {
				unreferenced++
				continue
			}
			for comp := 0; comp < numData; comp++ {
				components[comp][i] /= float32(cnt)
			}
		}
		if unreferenced > 0 {
			logWarn(log, "variable has vertices touched by no cell, left at zero",
				"variable", vd.Description, "count", unreferenced)
		}
	}

	out := make([][]float32, numData)
	for comp := 0; comp < numData; comp++ {
		proj := make([]float32, len(shell.OrigIndex))
		for i, orig := range shell.OrigIndex {
			proj[i] = components[comp][orig]
		}
		out[comp] = proj
	}
	return out, nil
}
