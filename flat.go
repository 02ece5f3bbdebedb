package ensgold

// flat.go concatenates every part of a Mesh into one globalized mesh: a
// single vertex buffer and a single, part-offset-adjusted connectivity
// buffer, then projects every case variable onto it. Useful when a caller
// wants one combined draw call instead of one per part.
//
// Grounded on original_source/encas.h's Encas_MeshArray_To_FlatMesh. That
// function's per-element variable-data path sizes each part's block as
// elem_vert_map_array_size/4 — a literal tetra-only assumption, called out
// by its own "// TODO: split every type to tetrahedrons" comment. This port
// keeps the same assumption (see DESIGN.md) but turns the silent buffer
// misread a non-tetra part would cause in C into a checked, reported error.
// Its vector output layout is also preserved exactly: scalars are
// concatenated part by part, vectors are de-interleaved from each part's
// SoA (all-x, all-y, all-z) block into per-entry (x,y,z) triples.

import (
	"log/slog"

	"github.com/ensightgold/ensgold/internal/elem"
)

// ToFlatMesh concatenates every part of mesh into a single FlatMesh,
// globalizing each part's connectivity by its cumulative vertex offset.
func ToFlatMesh(mesh *Mesh) (*FlatMesh, error) {
	flat := &FlatMesh{}
	var vertOffset uint64

	for _, part := range mesh.Parts {
		flat.Vertices.X = append(flat.Vertices.X, part.Vertices.X...)
		flat.Vertices.Y = append(flat.Vertices.Y, part.Vertices.Y...)
		flat.Vertices.Z = append(flat.Vertices.Z, part.Vertices.Z...)

		for _, v := range part.ElemVertMap {
			flat.ElemVertMap = append(flat.ElemVertMap, uint64(v)+vertOffset)
		}
		vertOffset += uint64(part.Vertices.Len())
	}

	return flat, nil
}

// flattenVariableBlock concatenates one variable's per-part SoA blocks (as
// produced by readVariableFile) into the part-ordered layout
// Encas_MeshArray_To_FlatMesh's flat->data holds: a scalar's blocks are
// concatenated directly; a vector's blocks are de-interleaved from SoA
// into per-entry (x,y,z) triples.
func flattenVariableBlock(partData [][]float32, partCounts []int, numData int) []float32 {
	var total int
	for _, n := range partCounts {
		total += n
	}
	out := make([]float32, 0, total*numData)
	for partIdx, n := range partCounts {
		data := partData[partIdx]
		if numData == 1 {
			out = append(out, data[:n]...)
			continue
		}
		for i := 0; i < n; i++ {
			out = append(out, data[i], data[i+n], data[i+2*n])
		}
	}
	return out
}

// FlatPerNodeValues flattens a per-node variable's part-ordered SoA blocks
// (as produced by readVariableFile / LoadVariable's pre-projection stage)
// onto the full concatenated vertex list a FlatMesh carries.
func FlatPerNodeValues(info *MeshInfo, partData [][]float32, numData int) []float32 {
	counts := make([]int, len(info.Parts))
	for i, p := range info.Parts {
		counts[i] = int(p.NumOfCoords)
	}
	return flattenVariableBlock(partData, counts, numData)
}

// FlatPerElementValues flattens a per-element variable's part-ordered value
// blocks under the tetra-only assumption the grounding source makes: every
// part's connectivity must be a whole number of 4-vertex (tetra4) cells.
// Parts built from any other cell kind return KindUnsupported rather than
// silently misreading the data, unlike the original's unconditional
// elem_vert_map_array_size/4 division. Unlike LoadVariable's shell
// projection, per-element data here is not averaged onto vertices: it is
// passed through one value per cell, matching §4.8.
func FlatPerElementValues(mesh *Mesh, partValues [][]float32, numData int) ([]float32, error) {
	if len(partValues) != len(mesh.Parts) {
		return nil, newErr(KindConsistency, "expected %d parts of variable data, got %d", len(mesh.Parts), len(partValues))
	}

	counts := make([]int, len(mesh.Parts))
	for i, part := range mesh.Parts {
		for _, k := range part.ElemKinds {
			if k != elem.Tetra4 {
				return nil, newErr(KindUnsupported,
					"part %d has non-tetra4 cells; flat per-element export only supports tetra4 geometry",
					part.PartNumber)
			}
		}
		if len(part.ElemVertMap)%4 != 0 {
			return nil, newErr(KindUnsupported,
				"part %d's connectivity (%d entries) isn't a whole number of tetra4 cells; flat per-element export only supports tetra4 geometry",
				part.PartNumber, len(part.ElemVertMap))
		}
		numCells := len(part.ElemVertMap) / 4
		want := numCells * numData
		if len(partValues[i]) != want {
			return nil, newErr(KindConsistency,
				"part %d has %d cells but its variable block has %d values (want %d)",
				part.PartNumber, numCells, len(partValues[i]), want)
		}
		counts[i] = numCells
	}

	return flattenVariableBlock(partValues, counts, numData), nil
}

// ExportFlatMesh concatenates mesh into a FlatMesh and, per §4.8, projects
// every variable in c.Variable onto it for the given time step index:
// per-node variables cover the full concatenated vertex list, per-element
// variables are passed through per-cell verbatim (no averaging).
func ExportFlatMesh(c *Case, info *MeshInfo, mesh *Mesh, timeIdx int, cfg Config, log *slog.Logger) (*FlatMesh, error) {
	cfg = cfg.withDefaults()
	flat, err := ToFlatMesh(mesh)
	if err != nil {
		return nil, err
	}

	for i := range c.Variable {
		vd := &c.Variable[i]
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

		perNode := vd.Type == ScalarPerNode || vd.Type == VectorPerNode
		numData := 1
		if vd.Type == VectorPerNode || vd.Type == VectorPerElement {
			numData = 3
		}

		partData, err := readVariableFile(files[idx], info, perNode, numData, cfg, log)
		if err != nil {
			return nil, err
		}

		var data []float32
		if perNode {
			data = FlatPerNodeValues(info, partData, numData)
		} else {
			data, err = FlatPerElementValues(mesh, partData, numData)
			if err != nil {
				return nil, err
			}
		}

		flat.Variables = append(flat.Variables, FlatVariable{
			Description: vd.Description,
			Type:        vd.Type,
			NumData:     numData,
			Data:        data,
		})
	}

	logInfo(log, "exported flat mesh", "vertices", len(flat.Vertices.X), "variables", len(flat.Variables))
	return flat, nil
}
