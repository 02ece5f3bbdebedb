package ensgold

// shell.go extracts a drawable boundary surface from a Mesh: every part's
// cells are triangulated (tria3 and tetra4 only, see internal/elem.Triangulated),
// each triangle's three vertex indices are folded into a canonical,
// order-independent key and counted in a FaceMap, and faces seen exactly once are boundary
// faces. Interior faces, shared by two cells, are counted twice and
// dropped. The surviving vertices are compacted into a dense buffer,
// remembering each one's original index so variable data can later be
// projected onto the shell by the same indices.
//
// Grounded on original_source/encas.h's Encas_LoadGeometryShell and its
// Encas_TriangulateTria3s/Encas_TriangulateTetra4s/sort3 helpers.

import (
	"log/slog"

	"github.com/ensightgold/ensgold/internal/elem"
	"github.com/ensightgold/ensgold/internal/maps"
)

// triTetra4 is the exact triangle/vertex-index emission order from
// Encas_TriangulateTetra4s: (0,1,2), (0,1,3), (1,2,3), (0,2,3).
var triTetra4 = [4][3]int{
	{0, 1, 2},
	{0, 1, 3},
	{1, 2, 3},
	{0, 2, 3},
}

// triTria3 is Encas_TriangulateTria3s: a single (0,1,2) triangle.
var triTria3 = [1][3]int{
	{0, 1, 2},
}

type shellTriangle struct {
	v   [3]uint32 // global (concatenated, not yet compacted) vertex indices
	key maps.FaceKey
}

// ExtractShell concatenates every part of mesh and triangulates its tria3
// and tetra4 cells (per spec.md §4.6's permissive allowance, matching the
// grounding source's own default: break for every other kind), then keeps
// only the faces that belong to exactly one triangle.
func ExtractShell(mesh *Mesh, cfg Config, log *slog.Logger) (*Shell, error) {
	cfg = cfg.withDefaults()
	var allX, allY, allZ []float32
	var tris []shellTriangle
	var vertOffset uint32

	for _, part := range mesh.Parts {
		allX = append(allX, part.Vertices.X...)
		allY = append(allY, part.Vertices.Y...)
		allZ = append(allZ, part.Vertices.Z...)

		vertMapOffset := 0
		for ki, kind := range part.ElemKinds {
			count := int(part.ElemCounts[ki])
			vc := elem.VertexCount(kind)
			if !elem.Triangulated(kind) {
				vertMapOffset += count * vc
				continue
			}

			var pattern [][3]int
			switch kind {
			case elem.Tetra4:
				pattern = triTetra4[:]
			case elem.Tria3:
				pattern = triTria3[:]
			}

			for c := 0; c < count; c++ {
				base := vertMapOffset + c*vc
				for _, p := range pattern {
					v0 := part.ElemVertMap[base+p[0]] + vertOffset
					v1 := part.ElemVertMap[base+p[1]] + vertOffset
					v2 := part.ElemVertMap[base+p[2]] + vertOffset
					tris = append(tris, shellTriangle{
						v:   [3]uint32{v0, v1, v2},
						key: maps.Canonical(v0, v1, v2),
					})
				}
			}
			vertMapOffset += count * vc
		}

		vertOffset += uint32(part.Vertices.Len())
	}

	faces := maps.NewFaceMapWithLoadFactor(maps.NextPowerOfTwo(len(tris)+1), cfg.FaceMapLoadFactor)
	for _, t := range tris {
		faces.Increment(t.key)
	}

	// Mark every vertex used by a surviving (count-1) face first, then
	// assign dense indices by walking old indices ascending, so
	// OrigIndex comes out strictly ascending: compaction is
	// order-preserving, matching Encas_LoadGeometryShell's two-pass
	// used_vertices/remap scan rather than assigning on first encounter.
	used := make([]bool, len(allX))
	for _, t := range tris {
		if faces.Count(t.key) != 1 {
			continue
		}
		used[t.v[0]] = true
		used[t.v[1]] = true
		used[t.v[2]] = true
	}

	shell := &Shell{}
	remap := make([]uint32, len(allX))
	for v, isUsed := range used {
		if !isUsed {
			continue
		}
		remap[v] = uint32(len(shell.OrigIndex))
		shell.OrigIndex = append(shell.OrigIndex, uint32(v))
		shell.Vertices.X = append(shell.Vertices.X, allX[v])
		shell.Vertices.Y = append(shell.Vertices.Y, allY[v])
		shell.Vertices.Z = append(shell.Vertices.Z, allZ[v])
	}

	for _, t := range tris {
		if faces.Count(t.key) != 1 {
			continue
		}
		shell.Triangles = append(shell.Triangles, remap[t.v[0]], remap[t.v[1]], remap[t.v[2]])
	}

	logInfo(log, "extracted shell", "triangles", len(shell.Triangles)/3, "vertices", len(shell.Vertices.X))
	return shell, nil
}
