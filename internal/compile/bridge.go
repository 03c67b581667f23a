package compile

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"creature-mesh-gen/internal/diag"
	"creature-mesh-gen/internal/kernel"
	"creature-mesh-gen/internal/skeleton"
)

// ConnectBridges resolves every requested bridge between adjacent bone
// meshes and returns the generated strips as additional results. A bone mesh
// with connect_start pairs with its parent's connect_end; a bone mesh
// declaring both bridges with no parent taker closes end-to-start on itself.
// Mismatches (missing partner, unequal ring sizes, loops destroyed by a
// re-meshing modifier) degrade to warnings and the bridge is skipped.
func ConnectBridges(skel *skeleton.Skeleton, results []*Result, diags *diag.List) []*Result {
	endTaken := make([]bool, len(results))
	var strips []*Result

	for i, res := range results {
		if res == nil || !res.ConnectStart {
			continue
		}
		bone := &skel.Bones[i]
		path := fmt.Sprintf("bone_meshes.%s.connect_start", bone.Name)

		var from *Result
		switch {
		case bone.Parent >= 0 && results[bone.Parent] != nil && results[bone.Parent].ConnectEnd && !endTaken[bone.Parent]:
			from = results[bone.Parent]
			endTaken[bone.Parent] = true
		case res.ConnectEnd && !endTaken[i]:
			from = res
			endTaken[i] = true
		default:
			diags.Warn(diag.CodeBridgeMismatch, path, "no adjacent bone mesh declares connect_end: bridge")
			continue
		}

		strip, ok := bridgeStrip(from, res, bone, path, diags)
		if ok {
			strips = append(strips, strip)
		}
	}

	for i, res := range results {
		if res != nil && res.ConnectEnd && !endTaken[i] {
			diags.Warn(diag.CodeBridgeMismatch, fmt.Sprintf("bone_meshes.%s.connect_end", skel.Bones[i].Name), "no adjacent bone mesh declares connect_start: bridge")
		}
	}
	return strips
}

// bridgeStrip builds the ruled quad strip from one mesh's end loop to
// another's start loop. The strip is its own sub-mesh owned by the
// destination bone; loop vertices are duplicated rather than shared so the
// per-result vertex numbering stays untouched.
func bridgeStrip(from, to *Result, bone *skeleton.Bone, path string, diags *diag.List) (*Result, bool) {
	if len(from.EndLoop) == 0 || len(to.StartLoop) == 0 {
		diags.Warn(diag.CodeBridgeMismatch, path, "edge loop no longer exists after a re-meshing modifier")
		return nil, false
	}
	n := len(from.EndLoop)
	if len(to.StartLoop) != n {
		diags.Warn(diag.CodeBridgeMismatch, path,
			"edge loops have %d and %d vertices; profile segment counts must match", n, len(to.StartLoop))
		return nil, false
	}

	a := make([]r3.Vec, n)
	b := make([]r3.Vec, n)
	for j := 0; j < n; j++ {
		a[j] = from.Mesh.Verts[from.EndLoop[j]]
		b[j] = to.Mesh.Verts[to.StartLoop[j]]
	}

	// Pick the loop correspondence that minimizes total gap length; ties go
	// to the lowest rotation so the result never depends on map order.
	bestK, bestD := 0, 0.0
	for k := 0; k < n; k++ {
		var d float64
		for j := 0; j < n; j++ {
			d += r3.Norm2(r3.Sub(a[j], b[(j+k)%n]))
		}
		if k == 0 || d < bestD {
			bestK, bestD = k, d
		}
	}

	m := &kernel.TriMesh{Verts: make([]r3.Vec, 0, 2*n)}
	uvs := make([][2]float64, 0, 2*n)
	for j := 0; j < n; j++ {
		m.Verts = append(m.Verts, a[j])
		uvs = append(uvs, [2]float64{float64(j) / float64(n), 0})
	}
	for j := 0; j < n; j++ {
		m.Verts = append(m.Verts, b[(j+bestK)%n])
		uvs = append(uvs, [2]float64{float64(j) / float64(n), 1})
	}

	// Same quad split as an extrusion side wall, so winding stays outward.
	for j := 0; j < n; j++ {
		p := j
		q := (j + 1) % n
		m.Tris = append(m.Tris,
			[3]int{p, q, n + q},
			[3]int{p, n + q, n + p},
		)
	}

	return &Result{
		BoneIndex: to.BoneIndex,
		Material:  to.Material,
		Mesh:      m,
		UVs:       uvs,
	}, true
}
