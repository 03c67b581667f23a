package compile

import (
	"math"
	"testing"

	"creature-mesh-gen/internal/diag"
	"creature-mesh-gen/internal/skeleton"
	"creature-mesh-gen/internal/spec"
)

func chain(t *testing.T) *skeleton.Skeleton {
	t.Helper()
	sk, err := skeleton.Resolve(&spec.SkeletonSpec{Bones: []spec.BoneSpec{
		{Name: "lower", Head: &[3]float64{0, 0, 0}, Tail: &[3]float64{0, 0, 1}},
		{Name: "upper", Parent: "lower", Head: &[3]float64{0, 0, 1.2}, Tail: &[3]float64{0, 0, 2.2}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	return sk
}

func compileChain(t *testing.T, sk *skeleton.Skeleton, parentSegs, childSegs int) []*Result {
	t.Helper()
	results := make([]*Result, 2)

	parent := &spec.BoneMesh{
		Extrusion: &spec.Extrusion{
			Profile: spec.Profile{Kind: "circle", Segments: parentSegs, Radius: 0.1},
			Steps:   []spec.ExtrusionStep{{Extrude: 1}},
		},
		ConnectEnd: spec.ConnectBridge,
	}
	child := &spec.BoneMesh{
		Extrusion: &spec.Extrusion{
			Profile: spec.Profile{Kind: "circle", Segments: childSegs, Radius: 0.1},
			Steps:   []spec.ExtrusionStep{{Extrude: 1}},
		},
		ConnectStart: spec.ConnectBridge,
	}

	var err error
	if results[0], err = CompileExtrusion(&Context{}, &sk.Bones[0], parent); err != nil {
		t.Fatal(err)
	}
	if results[1], err = CompileExtrusion(&Context{}, &sk.Bones[1], child); err != nil {
		t.Fatal(err)
	}
	return results
}

func TestConnectBridgesBuildsStrip(t *testing.T) {
	sk := chain(t)
	results := compileChain(t, sk, 6, 6)

	var diags diag.List
	strips := ConnectBridges(sk, results, &diags)
	if len(diags.Items) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Items)
	}
	if len(strips) != 1 {
		t.Fatalf("want 1 strip, got %d", len(strips))
	}

	strip := strips[0]
	if strip.BoneIndex != 1 {
		t.Fatalf("strip owned by bone %d, want the child (1)", strip.BoneIndex)
	}
	if strip.Mesh.VertexCount() != 12 || strip.Mesh.TriangleCount() != 12 {
		t.Fatalf("strip: %d verts, %d tris, want 12/12", strip.Mesh.VertexCount(), strip.Mesh.TriangleCount())
	}

	// First half of the strip sits on the parent's end loop, second half on
	// the child's start loop; the strip spans the gap between the bones.
	for _, v := range strip.Mesh.Verts[:6] {
		if math.Abs(v.Z-1.0) > eps {
			t.Fatalf("parent-side strip vert at Z=%g, want 1.0", v.Z)
		}
	}
	for _, v := range strip.Mesh.Verts[6:] {
		if math.Abs(v.Z-1.2) > eps {
			t.Fatalf("child-side strip vert at Z=%g, want 1.2", v.Z)
		}
	}
}

func TestConnectBridgesLoopSizeMismatch(t *testing.T) {
	sk := chain(t)
	results := compileChain(t, sk, 6, 8)

	var diags diag.List
	strips := ConnectBridges(sk, results, &diags)
	if len(strips) != 0 {
		t.Fatal("mismatched loops must not bridge")
	}
	if diags.HasErrors() {
		t.Fatalf("mismatch must stay a warning, got %v", diags.Errors())
	}
	found := false
	for _, d := range diags.Items {
		if d.Code == diag.CodeBridgeMismatch {
			found = true
		}
	}
	if !found {
		t.Fatalf("want bridge-mismatch warning, got %v", diags.Items)
	}
}

func TestConnectBridgesLostLoop(t *testing.T) {
	sk := chain(t)
	results := compileChain(t, sk, 6, 6)
	results[1].StartLoop = nil // as after a re-meshing modifier

	var diags diag.List
	strips := ConnectBridges(sk, results, &diags)
	if len(strips) != 0 || len(diags.Items) == 0 {
		t.Fatalf("lost loop: strips=%d diags=%v", len(strips), diags.Items)
	}
}

func TestConnectBridgesUnmatchedEnd(t *testing.T) {
	sk := chain(t)
	results := compileChain(t, sk, 6, 6)
	results[1].ConnectStart = false

	var diags diag.List
	strips := ConnectBridges(sk, results, &diags)
	if len(strips) != 0 {
		t.Fatal("no partner: must not bridge")
	}
	if len(diags.Items) != 1 || diags.Items[0].Code != diag.CodeBridgeMismatch {
		t.Fatalf("want one bridge-mismatch warning, got %v", diags.Items)
	}
}

func TestConnectBridgesSelfReferential(t *testing.T) {
	sk, err := skeleton.Resolve(&spec.SkeletonSpec{Bones: []spec.BoneSpec{
		{Name: "ring", Head: &[3]float64{0, 0, 0}, Tail: &[3]float64{0, 0, 1}},
	}})
	if err != nil {
		t.Fatal(err)
	}

	bm := &spec.BoneMesh{
		Extrusion: &spec.Extrusion{
			Profile: spec.Profile{Kind: "circle", Segments: 5, Radius: 0.1},
			Steps:   []spec.ExtrusionStep{{Extrude: 1}},
		},
		ConnectStart: spec.ConnectBridge,
		ConnectEnd:   spec.ConnectBridge,
	}
	res, err := CompileExtrusion(&Context{}, &sk.Bones[0], bm)
	if err != nil {
		t.Fatal(err)
	}

	var diags diag.List
	strips := ConnectBridges(sk, []*Result{res}, &diags)
	if len(strips) != 1 {
		t.Fatalf("self bridge: want 1 strip, got %d (%v)", len(strips), diags.Items)
	}
	if len(diags.Items) != 0 {
		t.Fatalf("self bridge: unexpected diagnostics %v", diags.Items)
	}
}
