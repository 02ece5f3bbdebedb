package ensgold

import (
	"path/filepath"
	"testing"

	"github.com/ensightgold/ensgold/internal/elem"
)

func twoPartMesh() *Mesh {
	return &Mesh{
		Parts: []MeshPart{
			{
				PartNumber:  1,
				Vertices:    Vertices{X: []float32{0, 1, 0, 0}, Y: []float32{0, 0, 1, 0}, Z: []float32{0, 0, 0, 1}},
				ElemKinds:   []elem.Kind{elem.Tetra4},
				ElemCounts:  []int32{1},
				ElemVertMap: []uint32{0, 1, 2, 3},
			},
			{
				PartNumber:  2,
				Vertices:    Vertices{X: []float32{2, 3}, Y: []float32{0, 0}, Z: []float32{0, 0}},
				ElemKinds:   []elem.Kind{elem.Tetra4},
				ElemCounts:  []int32{1},
				ElemVertMap: []uint32{0, 1, 0, 1},
			},
		},
	}
}

func TestToFlatMeshGlobalizesConnectivity(t *testing.T) {
	mesh := twoPartMesh()
	flat, err := ToFlatMesh(mesh)
	if err != nil {
		t.Fatalf("ToFlatMesh: %v", err)
	}
	if len(flat.Vertices.X) != 6 {
		t.Fatalf("want 6 concatenated vertices, got %d", len(flat.Vertices.X))
	}
	// Part 2's local indices 0,1 must be offset by part 1's 4 vertices.
	want := []uint64{0, 1, 2, 3, 4, 5, 4, 5}
	if len(flat.ElemVertMap) != len(want) {
		t.Fatalf("want %d connectivity entries, got %d", len(want), len(flat.ElemVertMap))
	}
	for i, v := range want {
		if flat.ElemVertMap[i] != v {
			t.Errorf("ElemVertMap[%d] = %d, want %d", i, flat.ElemVertMap[i], v)
		}
	}
}

func TestFlatPerElementValuesRejectsNonTetra(t *testing.T) {
	mesh := &Mesh{Parts: []MeshPart{{
		PartNumber:  1,
		ElemVertMap: make([]uint32, 6), // not a whole number of tetra4 cells
	}}}

	_, err := FlatPerElementValues(mesh, [][]float32{{1, 2, 3}}, 1)
	if err == nil {
		t.Fatal("want an error for connectivity that isn't a whole number of tetra4 cells")
	}
}

func TestFlatPerElementValuesConcatenatesInPartOrder(t *testing.T) {
	mesh := twoPartMesh()
	out, err := FlatPerElementValues(mesh, [][]float32{{10}, {20}}, 1)
	if err != nil {
		t.Fatalf("FlatPerElementValues: %v", err)
	}
	want := []float32{10, 20}
	for i, v := range want {
		if out[i] != v {
			t.Errorf("out[%d] = %v, want %v", i, out[i], v)
		}
	}
}

// TestFlatPerElementValuesDeinterleavesVectors mirrors
// Encas_MeshArray_To_FlatMesh's vector branch: a part's SoA block (all x,
// then all y, then all z) becomes per-cell (x,y,z) triples in the flat
// output, concatenated part by part.
func TestFlatPerElementValuesDeinterleavesVectors(t *testing.T) {
	mesh := &Mesh{Parts: []MeshPart{{
		PartNumber:  1,
		ElemVertMap: make([]uint32, 8), // 2 tetra4 cells
	}}}
	// 2 cells' worth of SoA vector data: x0,x1, y0,y1, z0,z1.
	out, err := FlatPerElementValues(mesh, [][]float32{{1, 2, 10, 20, 100, 200}}, 3)
	if err != nil {
		t.Fatalf("FlatPerElementValues: %v", err)
	}
	want := []float32{1, 10, 100, 2, 20, 200}
	if len(out) != len(want) {
		t.Fatalf("want %d values, got %d", len(want), len(out))
	}
	for i, v := range want {
		if out[i] != v {
			t.Errorf("out[%d] = %v, want %v", i, out[i], v)
		}
	}
}

func TestExportFlatMeshProjectsVariables(t *testing.T) {
	mesh := twoPartMesh()
	info := &MeshInfo{Parts: []MeshInfoPart{
		{PartNumber: 1, NumOfCoords: 4, ElemKinds: []elem.Kind{elem.Tetra4}, ElemSizes: []int32{1}, ElemVertMapSize: 4},
		{PartNumber: 2, NumOfCoords: 2, ElemKinds: []elem.Kind{elem.Tetra4}, ElemSizes: []int32{1}, ElemVertMapSize: 4},
	}}

	dir := t.TempDir()
	path := filepath.Join(dir, "pressure.scl")
	writeFloat32File(t, path, []string{"pressure"}, []struct {
		num    int32
		header string
		values []float32
	}{
		{num: 1, header: "coordinates", values: []float32{1, 2, 3, 4}},
		{num: 2, header: "coordinates", values: []float32{5, 6}},
	})

	c := &Case{Dir: dir, Variable: []VariableDesc{
		{Type: ScalarPerNode, Description: "pressure", Filename: "pressure.scl"},
	}}

	flat, err := ExportFlatMesh(c, info, mesh, 0, Config{}, nil)
	if err != nil {
		t.Fatalf("ExportFlatMesh: %v", err)
	}
	if len(flat.Variables) != 1 {
		t.Fatalf("want 1 flattened variable, got %d", len(flat.Variables))
	}
	want := []float32{1, 2, 3, 4, 5, 6}
	got := flat.Variables[0].Data
	if len(got) != len(want) {
		t.Fatalf("want %d values, got %d", len(want), len(got))
	}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("Data[%d] = %v, want %v", i, got[i], v)
		}
	}
}
