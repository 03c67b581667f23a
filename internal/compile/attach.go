package compile

import (
	"fmt"

	"creature-mesh-gen/internal/diag"
	"creature-mesh-gen/internal/kernel"
	"creature-mesh-gen/internal/skeleton"
	"creature-mesh-gen/internal/spec"
)

// ApplyAttachments joins each attachment shape onto the composed bone mesh.
// Attachments instantiate exactly like a part base shape (default scale
// rule) and are always joined, never subtracted. Ring loops stay valid:
// attachment geometry is appended after the existing vertices.
func ApplyAttachments(ctx *Context, bone *skeleton.Bone, bm *spec.BoneMesh, res *Result) error {
	for i := range bm.Attachments {
		factors := (*spec.ScaleRule)(nil).Factors(bone.Length)
		solid, err := instantiateShape(ctx, &bm.Attachments[i], factors, bone.Length)
		if err != nil {
			return &diag.GeometryError{Bone: bone.Name, Op: fmt.Sprintf("attachment %d", i), Err: err}
		}
		am, err := ctx.Kernel.Triangulate(solid)
		if err != nil {
			return &diag.GeometryError{Bone: bone.Name, Op: fmt.Sprintf("attachment %d", i), Err: err}
		}
		if am.IsEmpty() {
			return &diag.GeometryError{Bone: bone.Name, Op: fmt.Sprintf("attachment %d", i), Err: fmt.Errorf("attachment yielded an empty mesh")}
		}
		toWorld(am, bone)

		auvs := cylindricalUVs(am, bone)
		res.Mesh = kernel.Join(res.Mesh, am)
		res.UVs = append(res.UVs, auvs...)
	}
	return nil
}

// ApplyModifiers applies the declared modifiers in order. Bevel and boolean
// re-mesh the bone mesh, which invalidates ring loops and the sweep UV
// parameterization; both are rebuilt (loops cleared, UVs reprojected).
func ApplyModifiers(ctx *Context, bone *skeleton.Bone, bm *spec.BoneMesh, res *Result) error {
	for i := range bm.Modifiers {
		mod := &bm.Modifiers[i]
		opName := fmt.Sprintf("modifier %d", i)

		switch {
		case mod.Bevel != nil:
			out, err := ctx.Kernel.Bevel(res.Mesh, mod.Bevel.Width, mod.Bevel.Segments)
			if err != nil {
				return &diag.GeometryError{Bone: bone.Name, Op: opName + " (bevel)", Err: err}
			}
			if out.IsEmpty() {
				return &diag.GeometryError{Bone: bone.Name, Op: opName + " (bevel)", Err: fmt.Errorf("bevel erased the mesh; width %g too large", mod.Bevel.Width)}
			}
			res.Mesh = out
			res.StartLoop, res.EndLoop = nil, nil
			res.UVs = cylindricalUVs(out, bone)

		case mod.Subdivide != nil:
			res.Mesh = kernel.Subdivide(res.Mesh, mod.Subdivide.Levels)
			// Original vertices keep their indices, so loops survive.
			res.UVs = cylindricalUVs(res.Mesh, bone)

		case mod.Boolean != nil:
			cutter, ok := ctx.Cutters[mod.Boolean.Cutter]
			if !ok {
				return &diag.GeometryError{Bone: bone.Name, Op: opName, Err: fmt.Errorf("no cutter named %q", mod.Boolean.Cutter)}
			}
			op, err := kernel.ParseOp(mod.Boolean.Operator())
			if err != nil {
				return &diag.GeometryError{Bone: bone.Name, Op: opName, Err: err}
			}
			solid, err := ctx.Kernel.FromMesh(res.Mesh)
			if err != nil {
				return &diag.GeometryError{Bone: bone.Name, Op: opName, Err: err}
			}
			combined, err := ctx.Kernel.Boolean(op, solid, cutter)
			if err != nil {
				return &diag.GeometryError{Bone: bone.Name, Op: opName, Err: err}
			}
			out, err := ctx.Kernel.Triangulate(combined)
			if err != nil {
				return &diag.GeometryError{Bone: bone.Name, Op: opName, Err: err}
			}
			if out.IsEmpty() {
				return &diag.GeometryError{Bone: bone.Name, Op: opName, Err: fmt.Errorf("boolean %s against %q erased the mesh", mod.Boolean.Operator(), mod.Boolean.Cutter)}
			}
			if !out.IsManifold() {
				return &diag.GeometryError{Bone: bone.Name, Op: opName, Err: fmt.Errorf("boolean %s against %q yielded a non-manifold mesh", mod.Boolean.Operator(), mod.Boolean.Cutter)}
			}
			res.Mesh = out
			res.StartLoop, res.EndLoop = nil, nil
			res.UVs = cylindricalUVs(out, bone)
		}
	}
	return nil
}
