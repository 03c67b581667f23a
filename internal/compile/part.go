package compile

import (
	"fmt"

	"creature-mesh-gen/internal/diag"
	"creature-mesh-gen/internal/kernel"
	"creature-mesh-gen/internal/skeleton"
	"creature-mesh-gen/internal/spec"
)

// CompilePart instantiates the base shape, folds the boolean operations
// over it in declared order, and triangulates the composed solid. Parts are
// independent of bone length except through the scale rule, and may extend
// outside the nominal bone interval.
func CompilePart(ctx *Context, bone *skeleton.Bone, bm *spec.BoneMesh) (*Result, error) {
	part := bm.Part
	factors := part.Scale.Factors(bone.Length)

	solid, err := instantiateShape(ctx, &part.Base, factors, bone.Length)
	if err != nil {
		return nil, &diag.GeometryError{Bone: bone.Name, Op: "part base", Err: err}
	}

	for i, op := range part.Operations {
		kop, err := kernel.ParseOp(op.Op)
		if err != nil {
			return nil, &diag.GeometryError{Bone: bone.Name, Op: fmt.Sprintf("operation %d", i), Err: err}
		}
		// Targets use the same scale rule as the base, and are consumed.
		target, err := instantiateShape(ctx, &op.Shape, factors, bone.Length)
		if err != nil {
			return nil, &diag.GeometryError{Bone: bone.Name, Op: fmt.Sprintf("operation %d (%s)", i, op.Op), Err: err}
		}
		solid, err = ctx.Kernel.Boolean(kop, solid, target)
		if err != nil {
			return nil, &diag.GeometryError{Bone: bone.Name, Op: fmt.Sprintf("operation %d (%s)", i, op.Op), Err: err}
		}
	}

	m, err := ctx.Kernel.Triangulate(solid)
	if err != nil {
		return nil, &diag.GeometryError{Bone: bone.Name, Op: "triangulate", Err: err}
	}
	if m.IsEmpty() {
		return nil, &diag.GeometryError{Bone: bone.Name, Op: "triangulate", Err: fmt.Errorf("boolean composition yielded an empty mesh")}
	}
	if !m.IsManifold() {
		return nil, &diag.GeometryError{Bone: bone.Name, Op: "triangulate", Err: fmt.Errorf("boolean composition yielded a non-manifold mesh")}
	}

	toWorld(m, bone)

	return &Result{
		BoneIndex: bone.Index,
		Material:  bm.Material,
		Mesh:      m,
		UVs:       cylindricalUVs(m, bone),
		// Parts have no edge loops; bridge requests against them are
		// rejected by validation with a warning.
	}, nil
}
