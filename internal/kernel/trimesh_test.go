package kernel

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// tetrahedron returns a closed, outward-wound four-face mesh.
func tetrahedron() *TriMesh {
	return &TriMesh{
		Verts: []r3.Vec{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1},
		},
		Tris: [][3]int{
			{0, 2, 1},
			{0, 1, 3},
			{0, 3, 2},
			{1, 2, 3},
		},
	}
}

func TestJoinOffsetsIndices(t *testing.T) {
	a := tetrahedron()
	b := tetrahedron()
	b.Transform(func(p r3.Vec) r3.Vec { return r3.Add(p, r3.Vec{X: 5}) })

	j := Join(a, nil, b)
	if j.VertexCount() != 8 || j.TriangleCount() != 8 {
		t.Fatalf("join: %d verts, %d tris", j.VertexCount(), j.TriangleCount())
	}
	for _, tri := range j.Tris[4:] {
		for _, vi := range tri {
			if vi < 4 {
				t.Fatalf("second mesh references first mesh vertex %d", vi)
			}
		}
	}
}

func TestSubdivideCounts(t *testing.T) {
	m := tetrahedron()
	for levels := 1; levels <= 3; levels++ {
		out := Subdivide(m, levels)
		wantTris := 4
		for i := 0; i < levels; i++ {
			wantTris *= 4
		}
		if out.TriangleCount() != wantTris {
			t.Fatalf("levels=%d: %d tris, want %d", levels, out.TriangleCount(), wantTris)
		}
		if !out.IsManifold() {
			t.Fatalf("levels=%d: subdivision broke manifoldness", levels)
		}
	}
}

func TestSubdivideSharesMidpoints(t *testing.T) {
	m := tetrahedron()
	out := Subdivide(m, 1)
	// 4 original vertices + one midpoint per edge (6 edges).
	if out.VertexCount() != 10 {
		t.Fatalf("want 10 verts after one level, got %d", out.VertexCount())
	}
}

func TestSubdivideDeterministic(t *testing.T) {
	a := Subdivide(tetrahedron(), 2)
	b := Subdivide(tetrahedron(), 2)
	if a.VertexCount() != b.VertexCount() || a.TriangleCount() != b.TriangleCount() {
		t.Fatal("subdivision is not deterministic")
	}
	for i := range a.Verts {
		if a.Verts[i] != b.Verts[i] {
			t.Fatalf("vertex %d differs between runs", i)
		}
	}
	for i := range a.Tris {
		if a.Tris[i] != b.Tris[i] {
			t.Fatalf("triangle %d differs between runs", i)
		}
	}
}

func TestWeld(t *testing.T) {
	// Triangle soup: two faces sharing an edge, vertices duplicated.
	verts := []r3.Vec{
		{X: 0}, {X: 1}, {Y: 1},
		{X: 1}, {X: 1, Y: 1}, {Y: 1},
	}
	tris := [][3]int{{0, 1, 2}, {3, 4, 5}}

	m := Weld(verts, tris)
	if m.VertexCount() != 4 {
		t.Fatalf("want 4 unique verts, got %d", m.VertexCount())
	}
	if m.TriangleCount() != 2 {
		t.Fatalf("want 2 tris, got %d", m.TriangleCount())
	}
}

func TestWeldDropsDegenerates(t *testing.T) {
	verts := []r3.Vec{{X: 0}, {X: 1}, {X: 1}}
	m := Weld(verts, [][3]int{{0, 1, 2}})
	if m.TriangleCount() != 0 {
		t.Fatalf("degenerate triangle survived welding")
	}
}

func TestIsManifold(t *testing.T) {
	if !tetrahedron().IsManifold() {
		t.Fatal("closed tetrahedron must be manifold")
	}

	open := tetrahedron()
	open.Tris = open.Tris[:3]
	if open.IsManifold() {
		t.Fatal("open mesh must not be manifold")
	}

	flipped := tetrahedron()
	flipped.Tris[0][1], flipped.Tris[0][2] = flipped.Tris[0][2], flipped.Tris[0][1]
	if flipped.IsManifold() {
		t.Fatal("inconsistent winding must not be manifold")
	}
}

func TestFlipWinding(t *testing.T) {
	m := tetrahedron()
	m.FlipWinding()
	if m.Tris[0] != [3]int{0, 1, 2} {
		t.Fatalf("flip: got %v", m.Tris[0])
	}
	// Flipping every face keeps the mesh closed.
	if !m.IsManifold() {
		t.Fatal("flipped closed mesh must stay manifold")
	}
}

func TestBounds(t *testing.T) {
	min, max := tetrahedron().Bounds()
	if min != (r3.Vec{}) || max != (r3.Vec{X: 1, Y: 1, Z: 1}) {
		t.Fatalf("bounds = %v %v", min, max)
	}
}
