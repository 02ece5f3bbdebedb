package ensgold

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ensightgold/ensgold/internal/elem"
)

func writeFloat32File(t *testing.T, path string, pre80 []string, parts []struct {
	num    int32
	header string
	values []float32
}) {
	t.Helper()
	var buf []byte
	line80 := func(s string) {
		rec := make([]byte, binaryLineLen)
		copy(rec, s)
		buf = append(buf, rec...)
	}
	for _, s := range pre80 {
		line80(s)
	}
	for _, p := range parts {
		line80("part")
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(p.num))
		buf = append(buf, tmp[:]...)
		line80(p.header)
		for _, v := range p.values {
			var ftmp [4]byte
			binary.LittleEndian.PutUint32(ftmp[:], math.Float32bits(v))
			buf = append(buf, ftmp[:]...)
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
}

func singleTetraMeshAndShell(t *testing.T) (*MeshInfo, *Mesh, *Shell) {
	t.Helper()
	info := &MeshInfo{Parts: []MeshInfoPart{{
		PartNumber:      1,
		NumOfCoords:     4,
		ElemKinds:       []elem.Kind{elem.Tetra4},
		ElemSizes:       []int32{1},
		ElemVertMapSize: 4,
	}}}
	mesh := &Mesh{Parts: []MeshPart{{
		PartNumber: 1,
		Vertices: Vertices{
			X: []float32{0, 1, 0, 0},
			Y: []float32{0, 0, 1, 0},
			Z: []float32{0, 0, 0, 1},
		},
		ElemKinds:   []elem.Kind{elem.Tetra4},
		ElemCounts:  []int32{1},
		ElemVertMap: []uint32{0, 1, 2, 3},
	}}}
	shell, err := ExtractShell(mesh, Config{}, nil)
	if err != nil {
		t.Fatalf("ExtractShell: %v", err)
	}
	return info, mesh, shell
}

func TestLoadVariableScalarPerNode(t *testing.T) {
	info, mesh, shell := singleTetraMeshAndShell(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "pressure.scl")
	writeFloat32File(t, path, []string{"pressure"}, []struct {
		num    int32
		header string
		values []float32
	}{
		{num: 1, header: "coordinates", values: []float32{10, 20, 30, 40}},
	})

	c := &Case{Dir: dir}
	vd := &VariableDesc{Type: ScalarPerNode, Description: "pressure", Filename: "pressure.scl"}

	out, err := LoadVariable(c, vd, info, mesh, 0, shell, Config{}, nil)
	if err != nil {
		t.Fatalf("LoadVariable: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("want 1 component for a scalar, got %d", len(out))
	}
	if len(out[0]) != len(shell.OrigIndex) {
		t.Fatalf("want %d projected values, got %d", len(shell.OrigIndex), len(out[0]))
	}
	want := []float32{10, 20, 30, 40}
	for i, orig := range shell.OrigIndex {
		if out[0][i] != want[orig] {
			t.Errorf("projected[%d] = %v, want %v (orig vertex %d)", i, out[0][i], want[orig], orig)
		}
	}
}

// TestLoadVariableSeedScenario6 is spec.md §8 seed scenario 6: a vertex
// touched twice by each of two cells (values a, b) averages to
// (a+a+b+b)/4 = (a+b)/2; a vertex touched only by one cell keeps that
// cell's value unchanged.
func TestLoadVariableSeedScenario6(t *testing.T) {
	info := &MeshInfo{Parts: []MeshInfoPart{{
		PartNumber:      1,
		NumOfCoords:     5,
		ElemKinds:       []elem.Kind{elem.Tetra4},
		ElemSizes:       []int32{2},
		ElemVertMapSize: 8,
	}}}
	mesh := &Mesh{Parts: []MeshPart{{
		PartNumber: 1,
		Vertices: Vertices{
			X: make([]float32, 5), Y: make([]float32, 5), Z: make([]float32, 5),
		},
		ElemKinds:  []elem.Kind{elem.Tetra4},
		ElemCounts: []int32{2},
		ElemVertMap: []uint32{
			0, 0, 1, 2, // cell A (value a): touches vertex 0 twice
			0, 0, 3, 4, // cell B (value b): touches vertex 0 twice
		},
	}}}
	shell := &Shell{
		Vertices:  Vertices{X: make([]float32, 5), Y: make([]float32, 5), Z: make([]float32, 5)},
		OrigIndex: []uint32{0, 1, 2, 3, 4},
	}

	const a, b = float32(10), float32(20)
	dir := t.TempDir()
	path := filepath.Join(dir, "value.scl")
	writeFloat32File(t, path, []string{"value"}, []struct {
		num    int32
		header string
		values []float32
	}{
		{num: 1, header: "tetra4", values: []float32{a, b}},
	})

	c := &Case{Dir: dir}
	vd := &VariableDesc{Type: ScalarPerElement, Description: "value", Filename: "value.scl"}

	out, err := LoadVariable(c, vd, info, mesh, 0, shell, Config{}, nil)
	if err != nil {
		t.Fatalf("LoadVariable: %v", err)
	}
	want := (a + b) / 2
	if out[0][0] != want {
		t.Errorf("vertex 0 = %v, want %v", out[0][0], want)
	}
	if out[0][1] != a {
		t.Errorf("vertex 1 (only cell A) = %v, want %v", out[0][1], a)
	}
	if out[0][3] != b {
		t.Errorf("vertex 3 (only cell B) = %v, want %v", out[0][3], b)
	}
}

func TestLoadVariableScalarPerElementAverages(t *testing.T) {
	info, mesh, shell := singleTetraMeshAndShell(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "stress.scl")
	writeFloat32File(t, path, []string{"stress"}, []struct {
		num    int32
		header string
		values []float32
	}{
		{num: 1, header: "tetra4", values: []float32{100}},
	})

	c := &Case{Dir: dir}
	vd := &VariableDesc{Type: ScalarPerElement, Description: "stress", Filename: "stress.scl"}

	out, err := LoadVariable(c, vd, info, mesh, 0, shell, Config{}, nil)
	if err != nil {
		t.Fatalf("LoadVariable: %v", err)
	}
	// A single cell's value is assigned whole to every incident vertex: no
	// averaging across multiple cells happens here since there's only one.
	for i, v := range out[0] {
		if v != 100 {
			t.Errorf("projected[%d] = %v, want 100", i, v)
		}
	}
}
