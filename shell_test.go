package ensgold

import (
	"testing"

	"github.com/ensightgold/ensgold/internal/elem"
)

// twoTetraSharingFace builds two tetrahedra sharing the triangle (0,1,2):
// cell A = (0,1,2,3), cell B = (0,1,2,4). Their shared face should be
// excluded from the shell; every other face should survive.
func twoTetraSharingFace() *Mesh {
	return &Mesh{
		Parts: []MeshPart{
			{
				PartNumber: 1,
				Vertices: Vertices{
					X: []float32{0, 1, 0, 0, 0},
					Y: []float32{0, 0, 1, 0, 0},
					Z: []float32{0, 0, 0, 1, -1},
				},
				ElemKinds:  []elem.Kind{elem.Tetra4},
				ElemCounts: []int32{2},
				ElemVertMap: []uint32{
					0, 1, 2, 3,
					0, 1, 2, 4,
				},
			},
		},
	}
}

// TestExtractShellSeedScenario3 is spec.md §8 seed scenario 3: a single
// tetra4 cell with vertices {0,1,2,3} yields four boundary triangles (every
// face appears exactly once) and four vertices.
func TestExtractShellSeedScenario3(t *testing.T) {
	mesh := &Mesh{Parts: []MeshPart{{
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
	if got := len(shell.Triangles) / 3; got != 4 {
		t.Errorf("want 4 triangles, got %d", got)
	}
	if got := len(shell.Vertices.X); got != 4 {
		t.Errorf("want 4 vertices, got %d", got)
	}
}

func TestExtractShellDropsSharedFace(t *testing.T) {
	mesh := twoTetraSharingFace()
	shell, err := ExtractShell(mesh, Config{}, nil)
	if err != nil {
		t.Fatalf("ExtractShell: %v", err)
	}

	// Each tetra4 contributes 4 triangles; the (0,1,2) face appears in both
	// cells and must be excluded, leaving 3+3 = 6 triangles.
	if got := len(shell.Triangles) / 3; got != 6 {
		t.Errorf("want 6 boundary triangles, got %d", got)
	}

	// All 5 original vertices participate in at least one surviving face.
	if got := len(shell.Vertices.X); got != 5 {
		t.Errorf("want 5 compacted vertices, got %d", got)
	}
	for i, orig := range shell.OrigIndex {
		if shell.Vertices.X[i] != mesh.Parts[0].Vertices.X[orig] {
			t.Errorf("compacted vertex %d doesn't match OrigIndex %d", i, orig)
		}
	}
}

func TestExtractShellSkipsUntriangulatedKinds(t *testing.T) {
	mesh := &Mesh{
		Parts: []MeshPart{
			{
				Vertices: Vertices{
					X: make([]float32, 8),
					Y: make([]float32, 8),
					Z: make([]float32, 8),
				},
				ElemKinds:   []elem.Kind{elem.Hexa8},
				ElemCounts:  []int32{1},
				ElemVertMap: []uint32{0, 1, 2, 3, 4, 5, 6, 7},
			},
		},
	}
	shell, err := ExtractShell(mesh, Config{}, nil)
	if err != nil {
		t.Fatalf("ExtractShell: %v", err)
	}
	if len(shell.Triangles) != 0 {
		t.Errorf("want zero triangles from an untriangulated hexa8 cell, got %d", len(shell.Triangles)/3)
	}
}
