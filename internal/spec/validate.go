package spec

import (
	"fmt"
	"math"
	"sort"

	"creature-mesh-gen/internal/diag"
)

var validOps = map[string]bool{"union": true, "difference": true, "intersect": true}

var validPrimitives = map[string]bool{"box": true, "cylinder": true, "sphere": true, "capsule": true}

// Validate performs every spec-level check and collects all findings so the
// author fixes them in one pass. boneNames is the resolved skeleton's bone
// name list (preset already expanded); pass nil to skip cross-references
// when skeleton resolution itself failed.
func Validate(doc *Document, boneNames []string) diag.List {
	var l diag.List

	validateSkeleton(doc, &l)
	validateMaterials(doc, &l)
	validateBoolShapes(doc, &l)
	validateSkinning(doc, &l)
	validateLimits(doc, boneNames, &l)

	known := make(map[string]bool, len(boneNames))
	for _, n := range boneNames {
		known[n] = true
	}

	// Deterministic iteration over the bone mesh map.
	names := make([]string, 0, len(doc.BoneMeshes))
	for name := range doc.BoneMeshes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		bm := doc.BoneMeshes[name]
		path := "bone_meshes." + name
		if bm == nil {
			l.Add(diag.CodeMutualExclusion, path, "bone mesh is empty")
			continue
		}
		if boneNames != nil && !known[name] {
			l.Add(diag.CodeUnresolvedRef, path, "no bone named %q in skeleton", name)
		}
		validateBoneMesh(doc, name, bm, &l)
	}

	return l
}

func validateSkeleton(doc *Document, l *diag.List) {
	sk := &doc.Skeleton
	if sk.Preset == "" && len(sk.Bones) == 0 {
		l.Add(diag.CodeMutualExclusion, "skeleton", "either preset or bones must be set")
		return
	}
	if sk.Preset != "" && len(sk.Bones) > 0 {
		l.Add(diag.CodeMutualExclusion, "skeleton", "preset and bones are mutually exclusive")
	}
	switch sk.MirrorAxis {
	case "", "x", "y", "z":
	default:
		l.Add(diag.CodeOutOfRange, "skeleton.mirror_axis", "want x, y or z, got %q", sk.MirrorAxis)
	}

	seen := make(map[string]int, len(sk.Bones))
	for i, b := range sk.Bones {
		path := fmt.Sprintf("skeleton.bones[%d]", i)
		if b.Name == "" {
			l.Add(diag.CodeUnresolvedRef, path, "bone has no name")
			continue
		}
		if _, dup := seen[b.Name]; dup {
			l.Add(diag.CodeUnresolvedRef, path, "duplicate bone name %q", b.Name)
		}

		explicit := b.Head != nil || b.Tail != nil
		switch {
		case b.MirrorOf != "" && explicit:
			l.Add(diag.CodeMutualExclusion, path, "bone %q sets both mirror_of and head/tail", b.Name)
		case b.MirrorOf == "" && (b.Head == nil || b.Tail == nil):
			l.Add(diag.CodeMutualExclusion, path, "bone %q needs head and tail (or mirror_of)", b.Name)
		case b.MirrorOf != "":
			if b.MirrorOf == b.Name {
				l.Add(diag.CodeCyclicHierarchy, path, "bone %q mirrors itself", b.Name)
			} else if _, ok := seen[b.MirrorOf]; !ok {
				// List order is topological order: the source must precede us.
				l.Add(diag.CodeUnresolvedRef, path, "mirror source %q not defined before %q", b.MirrorOf, b.Name)
			}
		default:
			if dist2(*b.Head, *b.Tail) < 1e-16 {
				l.Add(diag.CodeOutOfRange, path, "bone %q has zero length", b.Name)
			}
		}

		if b.Parent != "" {
			if b.Parent == b.Name {
				l.Add(diag.CodeCyclicHierarchy, path, "bone %q is its own parent", b.Name)
			} else if _, ok := seen[b.Parent]; !ok {
				l.Add(diag.CodeUnresolvedRef, path, "parent %q not defined before %q", b.Parent, b.Name)
			}
		}

		seen[b.Name] = i
	}
}

func validateBoneMesh(doc *Document, name string, bm *BoneMesh, l *diag.List) {
	path := "bone_meshes." + name

	switch n := bm.modeCount(); {
	case n == 0:
		l.Add(diag.CodeMutualExclusion, path, "one of extrusion, part or mirror_of must be set")
	case n > 1:
		l.Add(diag.CodeMutualExclusion, path, "extrusion, part and mirror_of are mutually exclusive")
	}

	if bm.Extrusion != nil {
		validateExtrusion(bm.Extrusion, path+".extrusion", l)
	}
	if bm.Part != nil {
		validatePart(doc, bm.Part, path+".part", l)
	}
	if bm.MirrorOf != "" {
		src, ok := doc.BoneMeshes[bm.MirrorOf]
		switch {
		case !ok:
			l.Add(diag.CodeUnresolvedRef, path+".mirror_of", "no bone mesh named %q", bm.MirrorOf)
		case bm.MirrorOf == name:
			l.Add(diag.CodeCyclicHierarchy, path+".mirror_of", "bone mesh %q mirrors itself", name)
		case src != nil && src.MirrorOf != "":
			// Mirrors resolve in a single second pass, so chains are rejected.
			l.Add(diag.CodeUnresolvedRef, path+".mirror_of", "mirror source %q is itself a mirror", bm.MirrorOf)
		}
	}

	if bm.Material < 0 || bm.Material >= effectiveMaterialCount(doc) {
		l.Add(diag.CodeOutOfRange, path+".material",
			"material index %d out of range (have %d slots)", bm.Material, effectiveMaterialCount(doc))
	}

	for i := range bm.Attachments {
		validateShape(&bm.Attachments[i], fmt.Sprintf("%s.attachments[%d]", path, i), l)
	}
	for i := range bm.Modifiers {
		validateModifier(doc, &bm.Modifiers[i], fmt.Sprintf("%s.modifiers[%d]", path, i), l)
	}

	for _, cp := range []struct {
		field string
		value string
	}{{"connect_start", bm.ConnectStart}, {"connect_end", bm.ConnectEnd}} {
		switch cp.value {
		case "", "none", ConnectBridge:
		default:
			l.Add(diag.CodeOutOfRange, path+"."+cp.field, "want %q or none, got %q", ConnectBridge, cp.value)
		}
		if cp.value == ConnectBridge && bm.Part != nil {
			// Parts have no edge loop to bridge to.
			l.Warn(diag.CodeBridgeToPart, path+"."+cp.field, "bridge requested on a part-mode mesh; skipped")
		}
	}
}

func validateExtrusion(ex *Extrusion, path string, l *diag.List) {
	p := &ex.Profile
	switch p.Kind {
	case "", "circle", "rect":
	default:
		l.Add(diag.CodeOutOfRange, path+".profile.kind", "want circle or rect, got %q", p.Kind)
	}
	if p.Kind != "rect" && p.Segments != 0 && p.Segments < 3 {
		l.Add(diag.CodeOutOfRange, path+".profile.segments", "circle profile needs >= 3 segments, got %d", p.Segments)
	}
	if p.RadiusX() <= 0 || p.RadiusY() <= 0 {
		l.Add(diag.CodeOutOfRange, path+".profile.radius", "profile radius must be positive")
	}

	if len(ex.Steps) == 0 {
		l.Add(diag.CodeExtrudeSum, path+".steps", "extrusion needs at least one step")
		return
	}

	sum := 0.0
	for i, st := range ex.Steps {
		sp := fmt.Sprintf("%s.steps[%d]", path, i)
		if st.Extrude <= 0 || st.Extrude > 1 {
			l.Add(diag.CodeOutOfRange, sp+".extrude", "extrude fraction must be in (0,1], got %g", st.Extrude)
		}
		sum += st.Extrude
		if st.Scale != nil && (st.Scale.X <= 0 || st.Scale.Y <= 0) {
			l.Add(diag.CodeOutOfRange, sp+".scale", "scale factors must be positive")
		}
		if st.Bulge <= -1 {
			l.Add(diag.CodeOutOfRange, sp+".bulge", "bulge must be > -1, got %g", st.Bulge)
		}
	}
	if math.Abs(sum-1.0) > SumTolerance {
		l.Add(diag.CodeExtrudeSum, path+".steps", "extrude fractions sum to %g, want 1.0 (tolerance %g)", sum, SumTolerance)
	}
}

func validatePart(doc *Document, part *Part, path string, l *diag.List) {
	validateShape(&part.Base, path+".base", l)
	for i := range part.Operations {
		op := &part.Operations[i]
		sp := fmt.Sprintf("%s.operations[%d]", path, i)
		if !validOps[op.Op] {
			l.Add(diag.CodeOutOfRange, sp+".op", "want union, difference or intersect, got %q", op.Op)
		}
		validateShape(&op.Shape, sp+".shape", l)
	}
	validateScaleRule(part.Scale, path+".scale", l)
}

func validateScaleRule(r *ScaleRule, path string, l *diag.List) {
	if r == nil {
		return
	}
	if r.Axes != nil {
		for i, a := range *r.Axes {
			switch a {
			case "x", "y", "z", "X", "Y", "Z":
			default:
				l.Add(diag.CodeOutOfRange, fmt.Sprintf("%s.axes[%d]", path, i), "want x, y or z, got %q", a)
			}
		}
	}
	for _, ax := range []struct {
		name string
		v    *float64
	}{{"x", r.Amount.X}, {"y", r.Amount.Y}, {"z", r.Amount.Z}} {
		if ax.v != nil && (*ax.v < 0 || *ax.v > 1) {
			l.Add(diag.CodeOutOfRange, path+".amount."+ax.name, "amount must be in [0,1], got %g", *ax.v)
		}
	}
}

func validateShape(s *Shape, path string, l *diag.List) {
	switch n := s.variantCount(); {
	case n == 0:
		l.Add(diag.CodeMutualExclusion, path, "one of primitive, asset or asset_ref must be set")
		return
	case n > 1:
		l.Add(diag.CodeMutualExclusion, path, "primitive, asset and asset_ref are mutually exclusive")
		return
	}

	switch {
	case s.Primitive != nil:
		p := s.Primitive
		if !validPrimitives[p.Kind] {
			l.Add(diag.CodeOutOfRange, path+".primitive.kind", "unknown primitive kind %q", p.Kind)
		}
		for i, d := range p.Dims {
			if d <= 0 {
				l.Add(diag.CodeOutOfRange, fmt.Sprintf("%s.primitive.dims[%d]", path, i), "dimension must be positive, got %g", d)
			}
		}
	case s.Asset != nil:
		if s.Asset.Source == "" {
			l.Add(diag.CodeUnresolvedRef, path+".asset.source", "asset source is empty")
		}
		if s.Asset.Scale < 0 {
			l.Add(diag.CodeOutOfRange, path+".asset.scale", "scale must be positive")
		}
	case s.AssetRef != nil:
		if s.AssetRef.Name == "" {
			l.Add(diag.CodeUnresolvedRef, path+".asset_ref.name", "asset_ref name is empty")
		}
		if s.AssetRef.Scale < 0 {
			l.Add(diag.CodeOutOfRange, path+".asset_ref.scale", "scale must be positive")
		}
	}
}

func validateModifier(doc *Document, m *Modifier, path string, l *diag.List) {
	switch n := m.variantCount(); {
	case n == 0:
		l.Add(diag.CodeMutualExclusion, path, "one of bevel, subdivide or boolean must be set")
		return
	case n > 1:
		l.Add(diag.CodeMutualExclusion, path, "bevel, subdivide and boolean are mutually exclusive")
		return
	}

	switch {
	case m.Bevel != nil:
		if m.Bevel.Width <= 0 {
			l.Add(diag.CodeOutOfRange, path+".bevel.width", "width must be positive, got %g", m.Bevel.Width)
		}
		if m.Bevel.Segments < 0 {
			l.Add(diag.CodeOutOfRange, path+".bevel.segments", "segments must be >= 0")
		}
	case m.Subdivide != nil:
		if m.Subdivide.Levels < 1 || m.Subdivide.Levels > 3 {
			l.Add(diag.CodeOutOfRange, path+".subdivide.levels", "levels must be in [1,3], got %d", m.Subdivide.Levels)
		}
	case m.Boolean != nil:
		if !validOps[m.Boolean.Operator()] {
			l.Add(diag.CodeOutOfRange, path+".boolean.op", "want union, difference or intersect, got %q", m.Boolean.Op)
		}
		if _, ok := doc.BoolShapes[m.Boolean.Cutter]; !ok {
			l.Add(diag.CodeUnresolvedRef, path+".boolean.cutter", "no bool_shape named %q", m.Boolean.Cutter)
		}
	}
}

func validateMaterials(doc *Document, l *diag.List) {
	for i := range doc.MaterialSlots {
		m := &doc.MaterialSlots[i]
		path := fmt.Sprintf("material_slots[%d]", i)
		for _, f := range []struct {
			name string
			v    float64
		}{{"roughness", m.Roughness}, {"metallic", m.Metallic}, {"alpha", m.Alpha}} {
			if f.v < 0 || f.v > 1 {
				l.Add(diag.CodeOutOfRange, path+"."+f.name, "must be in [0,1], got %g", f.v)
			}
		}
		for c, v := range m.Color {
			if v < 0 || v > 1 {
				l.Add(diag.CodeOutOfRange, fmt.Sprintf("%s.color[%d]", path, c), "must be in [0,1], got %g", v)
			}
		}
	}
}

func validateBoolShapes(doc *Document, l *diag.List) {
	names := make([]string, 0, len(doc.BoolShapes))
	for name := range doc.BoolShapes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := doc.BoolShapes[name]
		if s == nil {
			l.Add(diag.CodeMutualExclusion, "bool_shapes."+name, "shape is empty")
			continue
		}
		validateShape(s, "bool_shapes."+name, l)
	}
}

func validateSkinning(doc *Document, l *diag.List) {
	switch doc.Skinning.Mode {
	case "", SkinRigid, SkinSmooth:
	default:
		l.Add(diag.CodeOutOfRange, "skinning.mode", "want rigid or smooth, got %q", doc.Skinning.Mode)
	}
	if doc.Skinning.MaxInfluences < 0 || doc.Skinning.MaxInfluences > MaxInfluenceCap {
		l.Add(diag.CodeOutOfRange, "skinning.max_influences", "must be in [0,%d], got %d", MaxInfluenceCap, doc.Skinning.MaxInfluences)
	}
}

func validateLimits(doc *Document, boneNames []string, l *diag.List) {
	lim := doc.Limits
	if lim.MaxTriangles < 0 || lim.MaxBones < 0 || lim.MaxMaterials < 0 {
		l.Add(diag.CodeOutOfRange, "limits", "budgets must be >= 0")
	}
	if lim.MaxBones > 0 && boneNames != nil && len(boneNames) > lim.MaxBones {
		l.Add(diag.CodeBudgetExceeded, "limits.max_bones", "skeleton has %d bones, budget is %d", len(boneNames), lim.MaxBones)
	}
	if lim.MaxMaterials > 0 && effectiveMaterialCount(doc) > lim.MaxMaterials {
		l.Add(diag.CodeBudgetExceeded, "limits.max_materials", "%d material slots, budget is %d", effectiveMaterialCount(doc), lim.MaxMaterials)
	}
}

// effectiveMaterialCount accounts for the implicit default slot injected
// when a spec declares none.
func effectiveMaterialCount(doc *Document) int {
	if len(doc.MaterialSlots) == 0 {
		return 1
	}
	return len(doc.MaterialSlots)
}

func dist2(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dx*dx + dy*dy + dz*dz
}
