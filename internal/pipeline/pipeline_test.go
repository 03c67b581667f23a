package pipeline

import (
	"errors"
	"reflect"
	"testing"

	"creature-mesh-gen/internal/assets"
	"creature-mesh-gen/internal/diag"
	"creature-mesh-gen/internal/kernel"
	"creature-mesh-gen/internal/spec"
)

func tubeDoc() *spec.Document {
	return &spec.Document{
		Name: "worm",
		Skeleton: spec.SkeletonSpec{Bones: []spec.BoneSpec{
			{Name: "lower", Head: &[3]float64{0, 0, 0}, Tail: &[3]float64{0, 0, 1}},
			{Name: "upper", Parent: "lower", Head: &[3]float64{0, 0, 1}, Tail: &[3]float64{0, 0, 2}},
		}},
		BoneMeshes: map[string]*spec.BoneMesh{
			"lower": {
				Extrusion: &spec.Extrusion{
					Profile: spec.Profile{Kind: "circle", Segments: 6, Radius: 0.15},
					Steps:   []spec.ExtrusionStep{{Extrude: 0.5}, {Extrude: 0.5, Scale: &spec.ScaleXY{X: 0.8, Y: 0.8}}},
				},
				ConnectEnd: spec.ConnectBridge,
			},
			"upper": {
				Extrusion: &spec.Extrusion{
					Profile: spec.Profile{Kind: "circle", Segments: 6, Radius: 0.12},
					Steps:   []spec.ExtrusionStep{{Extrude: 1}},
				},
				ConnectStart: spec.ConnectBridge,
			},
		},
		Skinning: spec.SkinningSpec{Mode: spec.SkinSmooth, MaxInfluences: 2},
	}
}

func testOptions() Options {
	return Options{
		Kernel:  kernel.NewSDF(16),
		Assets:  assets.NewLibrary(assets.BuildIndex("")),
		Workers: 4,
	}
}

func TestGenerateAssemblesAllBones(t *testing.T) {
	asset, diags, err := Generate(tubeDoc(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range diags {
		if d.Severity == diag.SeverityWarning {
			t.Fatalf("unexpected warning: %v", d)
		}
	}

	if asset.Name != "worm" {
		t.Fatalf("name = %q", asset.Name)
	}
	if len(asset.Bones) != 2 {
		t.Fatalf("want 2 bones, got %d", len(asset.Bones))
	}
	if asset.Mesh.VertexCount() == 0 || asset.Mesh.TriangleCount() == 0 {
		t.Fatal("empty assembled mesh")
	}
	if len(asset.Skin) != asset.Mesh.VertexCount() {
		t.Fatalf("skin table has %d rows for %d verts", len(asset.Skin), asset.Mesh.VertexCount())
	}
	if len(asset.Mesh.MaterialIdx) != asset.Mesh.VertexCount() || len(asset.Mesh.BoneIdx) != asset.Mesh.VertexCount() {
		t.Fatal("per-vertex attribute arrays misaligned")
	}
	if len(asset.Mesh.Normals) != asset.Mesh.VertexCount() {
		t.Fatal("normals not computed")
	}
	// No slots declared: the implicit default slot must appear.
	if len(asset.Materials) != 1 {
		t.Fatalf("want implicit default material, got %d slots", len(asset.Materials))
	}

	// Both bones generated geometry, plus the bridge strip owned by "upper".
	perBone := map[int]int{}
	for _, bi := range asset.Mesh.BoneIdx {
		perBone[bi]++
	}
	if perBone[0] == 0 || perBone[1] == 0 {
		t.Fatalf("vertices per bone: %v", perBone)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, _, err := Generate(tubeDoc(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := Generate(tubeDoc(), testOptions())
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(a.Mesh.Positions, b.Mesh.Positions) {
		t.Fatal("vertex data differs between identical runs")
	}
	if !reflect.DeepEqual(a.Mesh.Tris, b.Mesh.Tris) {
		t.Fatal("triangle data differs between identical runs")
	}
	if !reflect.DeepEqual(a.Skin, b.Skin) {
		t.Fatal("skin weights differ between identical runs")
	}
}

func TestGenerateValidationFailureCollectsFindings(t *testing.T) {
	doc := tubeDoc()
	// Two independent spec violations: both must be reported at once.
	doc.BoneMeshes["lower"].Extrusion.Steps[0].Extrude = 0.2
	doc.BoneMeshes["upper"].Material = 7

	_, diags, err := Generate(doc, testOptions())
	var verr *diag.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if len(verr.Diagnostics) < 2 {
		t.Fatalf("want both findings collected, got %v", verr.Diagnostics)
	}
	if len(diags) < 2 {
		t.Fatalf("diagnostics not returned alongside the error: %v", diags)
	}
}

func TestGenerateTriangleBudget(t *testing.T) {
	doc := tubeDoc()
	doc.Limits.MaxTriangles = 10

	_, _, err := Generate(doc, testOptions())
	var berr *diag.BudgetError
	if !errors.As(err, &berr) {
		t.Fatalf("want BudgetError, got %v", err)
	}
	if berr.Budget != "max_triangles" || berr.Limit != 10 {
		t.Fatalf("budget error = %+v", berr)
	}
}

func TestGenerateMirrorPair(t *testing.T) {
	doc := &spec.Document{
		Name: "pair",
		Skeleton: spec.SkeletonSpec{Bones: []spec.BoneSpec{
			{Name: "root", Head: &[3]float64{0, 0, 0}, Tail: &[3]float64{0, 1, 0}},
			{Name: "arm.l", Parent: "root", Head: &[3]float64{0.4, 1, 0}, Tail: &[3]float64{1, 1, 0}},
			{Name: "arm.r", Parent: "root", MirrorOf: "arm.l"},
		}},
		BoneMeshes: map[string]*spec.BoneMesh{
			"arm.l": {Extrusion: &spec.Extrusion{
				Profile: spec.Profile{Kind: "circle", Segments: 8, Radius: 0.1},
				Steps:   []spec.ExtrusionStep{{Extrude: 1}},
			}},
			"arm.r": {MirrorOf: "arm.l"},
		},
	}

	asset, _, err := Generate(doc, testOptions())
	if err != nil {
		t.Fatal(err)
	}

	perBone := map[int]int{}
	for _, bi := range asset.Mesh.BoneIdx {
		perBone[bi]++
	}
	if perBone[1] == 0 || perBone[1] != perBone[2] {
		t.Fatalf("mirror pair vertex counts: %v", perBone)
	}
}

func TestTriangleBudgetAccrual(t *testing.T) {
	b := newTriangleBudget(100)
	if err := b.add(60); err != nil {
		t.Fatal(err)
	}
	if err := b.add(40); err != nil {
		t.Fatal(err)
	}
	if err := b.add(1); err == nil {
		t.Fatal("want error past the limit")
	}

	unlimited := newTriangleBudget(0)
	if err := unlimited.add(1 << 30); err != nil {
		t.Fatal("zero limit means unlimited")
	}
}
