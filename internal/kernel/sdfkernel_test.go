package kernel

import (
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// Low resolution keeps the marching-cubes tests fast; surface positions are
// only accurate to about one cell, so bounds checks use a loose tolerance.
const (
	testCells = 16
	cellTol   = 0.3
)

func TestPrimitiveRejectsBadInput(t *testing.T) {
	k := NewSDF(testCells)
	if _, err := k.Primitive("torus", [3]float64{1, 1, 1}); err == nil {
		t.Fatal("unknown primitive kind must error")
	}
	if _, err := k.Primitive("box", [3]float64{1, 0, 1}); err == nil {
		t.Fatal("non-positive dimension must error")
	}
}

func TestPrimitiveBoxTriangulates(t *testing.T) {
	k := NewSDF(testCells)
	s, err := k.Primitive("box", [3]float64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	m, err := k.Triangulate(s)
	if err != nil {
		t.Fatal(err)
	}
	if m.IsEmpty() {
		t.Fatal("box triangulated to an empty mesh")
	}

	min, max := m.Bounds()
	wantMin := r3.Vec{X: -0.5, Y: -1, Z: -1.5}
	wantMax := r3.Vec{X: 0.5, Y: 1, Z: 1.5}
	if !boundsNear(min, wantMin, cellTol) || !boundsNear(max, wantMax, cellTol) {
		t.Fatalf("box bounds [%v, %v], want about [%v, %v]", min, max, wantMin, wantMax)
	}
}

func TestBooleanDifferenceCarves(t *testing.T) {
	k := NewSDF(testCells)
	block, err := k.Primitive("box", [3]float64{1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	// Cutter runs all the way through on Z.
	cutter, err := k.Primitive("box", [3]float64{0.5, 0.5, 2})
	if err != nil {
		t.Fatal(err)
	}

	solid, err := k.Boolean(OpDifference, block, cutter)
	if err != nil {
		t.Fatal(err)
	}
	carved, err := k.Triangulate(solid)
	if err != nil {
		t.Fatal(err)
	}
	if carved.IsEmpty() {
		t.Fatal("difference triangulated to an empty mesh")
	}

	full, err := k.Triangulate(block)
	if err != nil {
		t.Fatal(err)
	}
	if carved.TriangleCount() <= full.TriangleCount() {
		t.Fatalf("carved block has %d tris, plain block %d; the tunnel walls are missing",
			carved.TriangleCount(), full.TriangleCount())
	}

	// The outer extent is unchanged by the cut.
	min, max := carved.Bounds()
	if !boundsNear(min, r3.Vec{X: -0.5, Y: -0.5, Z: -0.5}, cellTol) ||
		!boundsNear(max, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, cellTol) {
		t.Fatalf("carved bounds [%v, %v] moved", min, max)
	}
}

func TestBooleanUnionMerges(t *testing.T) {
	k := NewSDF(testCells)
	// Sphere dims are radii: extent ±0.5 on every axis.
	a, err := k.Primitive("sphere", [3]float64{0.5, 0.5, 0.5})
	if err != nil {
		t.Fatal(err)
	}
	b := k.Transform(a, [3]float64{1, 1, 1}, [3]float64{}, r3.Vec{X: 0.4})

	solid, err := k.Boolean(OpUnion, a, b)
	if err != nil {
		t.Fatal(err)
	}
	m, err := k.Triangulate(solid)
	if err != nil {
		t.Fatal(err)
	}

	min, max := m.Bounds()
	if math.Abs(min.X+0.5) > cellTol || math.Abs(max.X-0.9) > cellTol {
		t.Fatalf("union X extent [%g, %g], want about [-0.5, 0.9]", min.X, max.X)
	}
}

func TestPrimitiveCylinderSectionRadius(t *testing.T) {
	// Tight tolerance so a radius-vs-diameter mixup cannot slip through:
	// at 32 cells over the 1.0 length the surface lands within ~0.03.
	k := NewSDF(32)
	const tol = 0.05

	s, err := k.Primitive("cylinder", [3]float64{0.2, 0.2, 1.0})
	if err != nil {
		t.Fatal(err)
	}
	m, err := k.Triangulate(s)
	if err != nil {
		t.Fatal(err)
	}
	min, max := m.Bounds()
	if !boundsNear(min, r3.Vec{X: -0.2, Y: -0.2, Z: -0.5}, tol) ||
		!boundsNear(max, r3.Vec{X: 0.2, Y: 0.2, Z: 0.5}, tol) {
		t.Fatalf("cylinder bounds [%v, %v], want radius 0.2 and length 1.0", min, max)
	}

	// Unequal X/Y radii give an elliptical section.
	s, err = k.Primitive("cylinder", [3]float64{0.2, 0.3, 1.0})
	if err != nil {
		t.Fatal(err)
	}
	m, err = k.Triangulate(s)
	if err != nil {
		t.Fatal(err)
	}
	min, max = m.Bounds()
	if math.Abs(min.Y+0.3) > tol || math.Abs(max.Y-0.3) > tol {
		t.Fatalf("elliptical cylinder Y extent [%g, %g], want ±0.3", min.Y, max.Y)
	}
}

func TestBooleanUnknownOp(t *testing.T) {
	k := NewSDF(testCells)
	s, err := k.Primitive("box", [3]float64{1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := k.Boolean(Op(99), s, s); err == nil {
		t.Fatal("unknown boolean op must error")
	}
}

func TestTransformTranslates(t *testing.T) {
	k := NewSDF(testCells)
	s, err := k.Primitive("box", [3]float64{1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	moved := k.Transform(s, [3]float64{1, 1, 1}, [3]float64{}, r3.Vec{X: 2})

	m, err := k.Triangulate(moved)
	if err != nil {
		t.Fatal(err)
	}
	min, max := m.Bounds()
	center := (min.X + max.X) / 2
	if math.Abs(center-2) > cellTol {
		t.Fatalf("translated box centered at X=%g, want 2", center)
	}
}

func TestTriangulateDeterministic(t *testing.T) {
	k := NewSDF(testCells)
	s, err := k.Primitive("capsule", [3]float64{0.4, 0.4, 1.2})
	if err != nil {
		t.Fatal(err)
	}

	a, err := k.Triangulate(s)
	if err != nil {
		t.Fatal(err)
	}
	b, err := k.Triangulate(s)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Verts, b.Verts) || !reflect.DeepEqual(a.Tris, b.Tris) {
		t.Fatal("triangulation differs between identical runs")
	}
}

func TestFromMeshRejectsEmpty(t *testing.T) {
	k := NewSDF(testCells)
	if _, err := k.FromMesh(&TriMesh{}); err == nil {
		t.Fatal("empty mesh must not become a solid")
	}
}

func boundsNear(got, want r3.Vec, tol float64) bool {
	return math.Abs(got.X-want.X) <= tol &&
		math.Abs(got.Y-want.Y) <= tol &&
		math.Abs(got.Z-want.Z) <= tol
}
