package compile

import (
	"errors"
	"math"
	"testing"

	"creature-mesh-gen/internal/diag"
	"creature-mesh-gen/internal/skeleton"
	"creature-mesh-gen/internal/spec"
)

const eps = 1e-9

func testBone(t *testing.T, head, tail [3]float64) *skeleton.Bone {
	t.Helper()
	sk, err := skeleton.Resolve(&spec.SkeletonSpec{Bones: []spec.BoneSpec{
		{Name: "b", Head: &head, Tail: &tail},
	}})
	if err != nil {
		t.Fatal(err)
	}
	return &sk.Bones[0]
}

func squareTube(steps []spec.ExtrusionStep) *spec.BoneMesh {
	return &spec.BoneMesh{Extrusion: &spec.Extrusion{
		Profile: spec.Profile{Kind: "circle", Segments: 4, Radius: 0.1},
		Steps:   steps,
	}}
}

func TestCompileExtrusionScaleAccumulates(t *testing.T) {
	// Bone along +Z so bone-local equals world coordinates.
	bone := testBone(t, [3]float64{0, 0, 0}, [3]float64{0, 0, 2})
	bm := squareTube([]spec.ExtrusionStep{
		{Extrude: 0.5, Scale: &spec.ScaleXY{X: 1.2, Y: 1.2}},
		{Extrude: 0.5, Scale: &spec.ScaleXY{X: 0.8, Y: 0.8}},
	})

	res, err := CompileExtrusion(&Context{}, bone, bm)
	if err != nil {
		t.Fatal(err)
	}

	// Vertex 0 of each 4-vertex ring sits at (radius*sx, 0, z).
	checks := []struct {
		vi   int
		x, z float64
	}{
		{0, 0.1, 0},
		{4, 0.12, 1.0},
		{8, 0.096, 2.0},
	}
	for _, c := range checks {
		v := res.Mesh.Verts[c.vi]
		if math.Abs(v.X-c.x) > eps || math.Abs(v.Y) > eps || math.Abs(v.Z-c.z) > eps {
			t.Fatalf("vert %d = %v, want (%g, 0, %g)", c.vi, v, c.x, c.z)
		}
	}
}

func TestCompileExtrusionZExtentMatchesBoneLength(t *testing.T) {
	tests := []struct {
		name  string
		steps []spec.ExtrusionStep
	}{
		{"one step", []spec.ExtrusionStep{{Extrude: 1}}},
		{"many steps", []spec.ExtrusionStep{
			{Extrude: 0.2}, {Extrude: 0.3}, {Extrude: 0.1}, {Extrude: 0.4},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bone := testBone(t, [3]float64{0, 0, 0}, [3]float64{0, 0, 1.7})
			res, err := CompileExtrusion(&Context{}, bone, squareTube(tt.steps))
			if err != nil {
				t.Fatal(err)
			}
			_, max := res.Mesh.Bounds()
			if math.Abs(max.Z-bone.Length) > eps {
				t.Fatalf("max Z = %g, want bone length %g", max.Z, bone.Length)
			}
		})
	}
}

func TestCompileExtrusionCapsAndLoops(t *testing.T) {
	bone := testBone(t, [3]float64{0, 0, 0}, [3]float64{0, 0, 1})

	// Both caps on: 2 rings + 2 centroids, sides + 2 fans.
	bm := squareTube([]spec.ExtrusionStep{{Extrude: 1}})
	res, err := CompileExtrusion(&Context{}, bone, bm)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Mesh.VertexCount(); got != 10 {
		t.Fatalf("capped tube: %d verts, want 10", got)
	}
	if got := res.Mesh.TriangleCount(); got != 16 {
		t.Fatalf("capped tube: %d tris, want 16", got)
	}
	if !res.Mesh.IsManifold() {
		t.Fatal("capped tube must be closed")
	}
	if len(res.StartLoop) != 4 || len(res.EndLoop) != 4 {
		t.Fatalf("loops: %d/%d, want 4/4", len(res.StartLoop), len(res.EndLoop))
	}
	if len(res.UVs) != res.Mesh.VertexCount() {
		t.Fatalf("UVs not aligned: %d vs %d verts", len(res.UVs), res.Mesh.VertexCount())
	}

	// A bridged end keeps its loop open even with caps defaulted on.
	bm = squareTube([]spec.ExtrusionStep{{Extrude: 1}})
	bm.ConnectEnd = spec.ConnectBridge
	res, err = CompileExtrusion(&Context{}, bone, bm)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Mesh.VertexCount(); got != 9 {
		t.Fatalf("bridged end: %d verts, want 9 (no end centroid)", got)
	}
	if !res.ConnectEnd || res.ConnectStart {
		t.Fatalf("connect flags: start=%v end=%v", res.ConnectStart, res.ConnectEnd)
	}
}

func TestCompileExtrusionTranslateOffsetsRing(t *testing.T) {
	bone := testBone(t, [3]float64{0, 0, 0}, [3]float64{0, 0, 1})
	bm := squareTube([]spec.ExtrusionStep{
		{Extrude: 1, Translate: &[2]float64{0.3, -0.2}},
	})
	res, err := CompileExtrusion(&Context{}, bone, bm)
	if err != nil {
		t.Fatal(err)
	}
	v := res.Mesh.Verts[4] // ring 1, vertex 0
	if math.Abs(v.X-0.4) > eps || math.Abs(v.Y+0.2) > eps || math.Abs(v.Z-1) > eps {
		t.Fatalf("translated ring vert = %v, want (0.4, -0.2, 1)", v)
	}
}

func TestCompileExtrusionDegenerateRadius(t *testing.T) {
	bone := testBone(t, [3]float64{0, 0, 0}, [3]float64{0, 0, 1})
	bm := squareTube([]spec.ExtrusionStep{
		{Extrude: 1, Scale: &spec.ScaleXY{X: 1e-10, Y: 1e-10}},
	})
	_, err := CompileExtrusion(&Context{}, bone, bm)
	var gerr *diag.GeometryError
	if !errors.As(err, &gerr) {
		t.Fatalf("want GeometryError, got %v", err)
	}
	if gerr.Bone != "b" {
		t.Fatalf("error names bone %q, want b", gerr.Bone)
	}
}

func TestCompileExtrusionWorldSpace(t *testing.T) {
	// Bone along +X: bone-local +Z maps to world +X.
	bone := testBone(t, [3]float64{1, 0, 0}, [3]float64{3, 0, 0})
	res, err := CompileExtrusion(&Context{}, bone, squareTube([]spec.ExtrusionStep{{Extrude: 1}}))
	if err != nil {
		t.Fatal(err)
	}
	min, max := res.Mesh.Bounds()
	if math.Abs(min.X-1) > eps || math.Abs(max.X-3) > eps {
		t.Fatalf("world X extent [%g, %g], want [1, 3]", min.X, max.X)
	}
}
