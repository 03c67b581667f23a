package compile

import (
	"math"
	"testing"

	"creature-mesh-gen/internal/skeleton"
	"creature-mesh-gen/internal/spec"
)

func limbPair(t *testing.T) *skeleton.Skeleton {
	t.Helper()
	sk, err := skeleton.Resolve(&spec.SkeletonSpec{Bones: []spec.BoneSpec{
		{Name: "root", Head: &[3]float64{0, 0, 0}, Tail: &[3]float64{0, 1, 0}},
		{Name: "leg.l", Parent: "root", Head: &[3]float64{0.5, 0, 0}, Tail: &[3]float64{0.5, 0, 1}},
		{Name: "leg.r", Parent: "root", MirrorOf: "leg.l"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	return sk
}

func TestMirrorResultReflectsVertices(t *testing.T) {
	sk := limbPair(t)
	src := &sk.Bones[1]
	mir := &sk.Bones[2]

	bm := squareTube([]spec.ExtrusionStep{{Extrude: 1}})
	res, err := CompileExtrusion(&Context{}, src, bm)
	if err != nil {
		t.Fatal(err)
	}

	mbm := &spec.BoneMesh{MirrorOf: "leg.l", Material: 1}
	mres := MirrorResult(res, src, mir, mbm)

	if mres.BoneIndex != 2 || mres.Material != 1 {
		t.Fatalf("bone=%d material=%d", mres.BoneIndex, mres.Material)
	}
	if mres.Mesh.VertexCount() != res.Mesh.VertexCount() {
		t.Fatalf("vertex counts differ: %d vs %d", mres.Mesh.VertexCount(), res.Mesh.VertexCount())
	}

	// The pair plane is x=0, so every vertex flips its X sign.
	for i, v := range res.Mesh.Verts {
		mv := mres.Mesh.Verts[i]
		if math.Abs(mv.X+v.X) > eps || math.Abs(mv.Y-v.Y) > eps || math.Abs(mv.Z-v.Z) > eps {
			t.Fatalf("vert %d: %v is not the reflection of %v", i, mv, v)
		}
	}
}

func TestMirrorResultFlipsWinding(t *testing.T) {
	sk := limbPair(t)
	src := &sk.Bones[1]
	mir := &sk.Bones[2]

	res, err := CompileExtrusion(&Context{}, src, squareTube([]spec.ExtrusionStep{{Extrude: 1}}))
	if err != nil {
		t.Fatal(err)
	}
	mres := MirrorResult(res, src, mir, &spec.BoneMesh{MirrorOf: "leg.l"})

	for i, tri := range res.Mesh.Tris {
		want := [3]int{tri[0], tri[2], tri[1]}
		if mres.Mesh.Tris[i] != want {
			t.Fatalf("tri %d = %v, want reversed %v", i, mres.Mesh.Tris[i], want)
		}
	}
	if !mres.Mesh.IsManifold() {
		t.Fatal("reflected closed mesh must stay manifold")
	}
}

func TestMirrorResultKeepsLoopsAndUVs(t *testing.T) {
	sk := limbPair(t)
	src := &sk.Bones[1]
	mir := &sk.Bones[2]

	bm := squareTube([]spec.ExtrusionStep{{Extrude: 1}})
	bm.ConnectStart = spec.ConnectBridge
	res, err := CompileExtrusion(&Context{}, src, bm)
	if err != nil {
		t.Fatal(err)
	}

	mbm := &spec.BoneMesh{MirrorOf: "leg.l", ConnectStart: spec.ConnectBridge}
	mres := MirrorResult(res, src, mir, mbm)

	if len(mres.StartLoop) != len(res.StartLoop) || len(mres.EndLoop) != len(res.EndLoop) {
		t.Fatal("ring loops lost in mirroring")
	}
	if len(mres.UVs) != len(res.UVs) {
		t.Fatal("UVs lost in mirroring")
	}
	if !mres.ConnectStart {
		t.Fatal("mirror uses its own connect flags")
	}

	// Mutating the copy must not touch the source.
	mres.StartLoop[0] = -1
	if res.StartLoop[0] == -1 {
		t.Fatal("mirror shares loop storage with source")
	}
}
