// Package skin binds generated vertices to skeleton bones, producing the
// per-vertex influence table consumed by riggable exporters.
package skin

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"creature-mesh-gen/internal/mesh"
	"creature-mesh-gen/internal/skeleton"
	"creature-mesh-gen/internal/spec"
)

// Bind assigns influences to every vertex. positions and owners are parallel
// arrays: owners holds the index of the bone whose bone mesh generated each
// vertex. Rigid mode keeps exactly that bone at weight 1; smooth mode blends
// the closest bones by inverse distance to their segments.
func Bind(skel *skeleton.Skeleton, sk *spec.SkinningSpec, positions []r3.Vec, owners []int) [][]mesh.Influence {
	mode := sk.ModeOrDefault()
	maxInf := sk.Influences()

	out := make([][]mesh.Influence, len(positions))
	if mode == spec.SkinRigid {
		for i, owner := range owners {
			out[i] = []mesh.Influence{{Bone: owner, Weight: 1}}
		}
		return out
	}

	if maxInf > len(skel.Bones) {
		maxInf = len(skel.Bones)
	}
	for i, p := range positions {
		out[i] = smoothWeights(skel, p, maxInf)
	}
	return out
}

type candidate struct {
	bone int
	dist float64
}

// smoothWeights ranks bones by distance from the vertex to the bone segment
// and blends the closest maxInf by inverse distance. Ties and the sort order
// are broken by bone index so the result is stable.
func smoothWeights(skel *skeleton.Skeleton, p r3.Vec, maxInf int) []mesh.Influence {
	cands := make([]candidate, len(skel.Bones))
	for i := range skel.Bones {
		b := &skel.Bones[i]
		cands[i] = candidate{bone: i, dist: distToSegment(p, b.Head, b.Tail)}
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].dist != cands[b].dist {
			return cands[a].dist < cands[b].dist
		}
		return cands[a].bone < cands[b].bone
	})
	cands = cands[:maxInf]

	// A vertex sitting on a bone binds rigidly to it.
	const eps = 1e-9
	if cands[0].dist < eps {
		return []mesh.Influence{{Bone: cands[0].bone, Weight: 1}}
	}

	total := 0.0
	for _, c := range cands {
		total += 1 / c.dist
	}
	out := make([]mesh.Influence, len(cands))
	for i, c := range cands {
		out[i] = mesh.Influence{Bone: c.bone, Weight: (1 / c.dist) / total}
	}
	// Emit in bone order, not distance order, to keep output canonical.
	sort.Slice(out, func(a, b int) bool { return out[a].Bone < out[b].Bone })
	return out
}

// distToSegment returns the distance from p to the segment [a, b].
func distToSegment(p, a, b r3.Vec) float64 {
	ab := r3.Sub(b, a)
	l2 := r3.Norm2(ab)
	if l2 < 1e-24 {
		return r3.Norm(r3.Sub(p, a))
	}
	t := r3.Dot(r3.Sub(p, a), ab) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := r3.Add(a, r3.Scale(t, ab))
	return r3.Norm(r3.Sub(p, closest))
}
