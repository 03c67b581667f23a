package skin

import (
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"creature-mesh-gen/internal/skeleton"
	"creature-mesh-gen/internal/spec"
)

func twoBones(t *testing.T) *skeleton.Skeleton {
	t.Helper()
	sk, err := skeleton.Resolve(&spec.SkeletonSpec{Bones: []spec.BoneSpec{
		{Name: "lower", Head: &[3]float64{0, 0, 0}, Tail: &[3]float64{0, 0, 1}},
		{Name: "upper", Parent: "lower", Head: &[3]float64{0, 0, 1}, Tail: &[3]float64{0, 0, 2}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	return sk
}

func TestBindRigid(t *testing.T) {
	sk := twoBones(t)
	positions := []r3.Vec{{Z: 0.5}, {Z: 1.5}, {X: 3, Z: 0.1}}
	owners := []int{0, 1, 0}

	got := Bind(sk, &spec.SkinningSpec{Mode: spec.SkinRigid}, positions, owners)
	for i, infs := range got {
		if len(infs) != 1 || infs[0].Bone != owners[i] || infs[0].Weight != 1 {
			t.Fatalf("vertex %d: %v, want single influence on bone %d", i, infs, owners[i])
		}
	}
}

func TestBindSmoothWeights(t *testing.T) {
	sk := twoBones(t)
	// Off-axis near the joint: both bones influence, the closer one more.
	positions := []r3.Vec{{X: 0.2, Z: 0.8}}

	got := Bind(sk, &spec.SkinningSpec{Mode: spec.SkinSmooth, MaxInfluences: 4}, positions, []int{0})
	infs := got[0]
	if len(infs) != 2 {
		t.Fatalf("want 2 influences, got %v", infs)
	}

	sum := 0.0
	byBone := map[int]float64{}
	for _, inf := range infs {
		sum += inf.Weight
		byBone[inf.Bone] = inf.Weight
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("weights sum to %g, want 1", sum)
	}
	if byBone[0] <= byBone[1] {
		t.Fatalf("closer bone must dominate: %v", byBone)
	}
	// Influences come out in bone order.
	if infs[0].Bone > infs[1].Bone {
		t.Fatalf("influences not in bone order: %v", infs)
	}
}

func TestBindSmoothOnBoneIsRigid(t *testing.T) {
	sk := twoBones(t)
	got := Bind(sk, &spec.SkinningSpec{Mode: spec.SkinSmooth}, []r3.Vec{{Z: 0.5}}, []int{0})
	if len(got[0]) != 1 || got[0][0].Bone != 0 || got[0][0].Weight != 1 {
		t.Fatalf("vertex on the bone: %v, want rigid binding", got[0])
	}
}

func TestBindSmoothMaxInfluences(t *testing.T) {
	sk, err := skeleton.Resolve(&spec.SkeletonSpec{Preset: "serpent"})
	if err != nil {
		t.Fatal(err)
	}
	got := Bind(sk, &spec.SkinningSpec{Mode: spec.SkinSmooth, MaxInfluences: 2},
		[]r3.Vec{{X: 0.4, Y: 0.3, Z: 0.9}}, []int{0})
	if len(got[0]) != 2 {
		t.Fatalf("want at most 2 influences, got %v", got[0])
	}
}

func TestBindSmoothDeterministic(t *testing.T) {
	sk := twoBones(t)
	positions := []r3.Vec{
		{X: 0.3, Y: -0.1, Z: 0.4},
		{X: -0.2, Y: 0.5, Z: 1.3},
		{X: 0.01, Y: 0.01, Z: 1.0},
	}
	owners := []int{0, 1, 1}
	skn := &spec.SkinningSpec{Mode: spec.SkinSmooth, MaxInfluences: 4}

	a := Bind(sk, skn, positions, owners)
	b := Bind(sk, skn, positions, owners)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("smooth binding differs between identical runs")
	}
}
