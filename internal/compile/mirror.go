package compile

import (
	"gonum.org/v1/gonum/spatial/r3"

	"creature-mesh-gen/internal/skeleton"
	"creature-mesh-gen/internal/spec"
)

// MirrorResult reflects a fully composed source bone mesh (post
// extrusion/part, pre-attachment) across the symmetry plane of the bone
// pair. The plane is derived from the two bones' own positions, so
// asymmetric skeletons still mirror correctly per limb. Triangle winding is
// reversed to keep normals outward.
func MirrorResult(src *Result, srcBone, mirBone *skeleton.Bone, bm *spec.BoneMesh) *Result {
	origin, normal := skeleton.MirrorPlane(srcBone, mirBone)

	m := src.Mesh.Clone()
	m.Transform(func(p r3.Vec) r3.Vec {
		return skeleton.ReflectPoint(p, origin, normal)
	})
	m.FlipWinding()

	uvs := make([][2]float64, len(src.UVs))
	copy(uvs, src.UVs)

	out := &Result{
		BoneIndex:    mirBone.Index,
		Material:     bm.Material,
		Mesh:         m,
		UVs:          uvs,
		ConnectStart: bm.ConnectStart == spec.ConnectBridge,
		ConnectEnd:   bm.ConnectEnd == spec.ConnectBridge,
	}

	// Ring indices survive reflection unchanged.
	if src.StartLoop != nil {
		out.StartLoop = append([]int(nil), src.StartLoop...)
	}
	if src.EndLoop != nil {
		out.EndLoop = append([]int(nil), src.EndLoop...)
	}
	return out
}
