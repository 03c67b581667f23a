package spec

import "fmt"

// Document is the canonical parameter tree for one generated asset, as
// produced by the declarative front end. The engine consumes this tree
// directly; it never sees author-facing syntax.
type Document struct {
	Name          string               `yaml:"name" json:"name"`
	Skeleton      SkeletonSpec         `yaml:"skeleton" json:"skeleton"`
	BoneMeshes    map[string]*BoneMesh `yaml:"bone_meshes" json:"bone_meshes"`
	MaterialSlots []MaterialSlot       `yaml:"material_slots" json:"material_slots"`
	BoolShapes    map[string]*Shape    `yaml:"bool_shapes" json:"bool_shapes"`
	Skinning      SkinningSpec         `yaml:"skinning" json:"skinning"`
	Limits        Limits               `yaml:"limits" json:"limits"`
}

// SkeletonSpec is either a named preset or an explicit bone list.
// Explicit bones must appear in topological order (parents first).
type SkeletonSpec struct {
	Preset     string     `yaml:"preset" json:"preset"`
	Bones      []BoneSpec `yaml:"bones" json:"bones"`
	MirrorAxis string     `yaml:"mirror_axis" json:"mirror_axis"` // "x" (default), "y", "z"
}

// BoneSpec declares one bone. Either Head/Tail are set explicitly or
// MirrorOf names a previously declared bone to reflect.
type BoneSpec struct {
	Name     string      `yaml:"name" json:"name"`
	Parent   string      `yaml:"parent" json:"parent"`
	Head     *[3]float64 `yaml:"head" json:"head"`
	Tail     *[3]float64 `yaml:"tail" json:"tail"`
	MirrorOf string      `yaml:"mirror_of" json:"mirror_of"`
}

// Bridge connection markers for BoneMesh.ConnectStart / ConnectEnd.
const ConnectBridge = "bridge"

// BoneMesh carries the shape instructions for exactly one bone. Exactly one
// of Extrusion, Part, or MirrorOf must be set.
type BoneMesh struct {
	Extrusion *Extrusion `yaml:"extrusion" json:"extrusion"`
	Part      *Part      `yaml:"part" json:"part"`
	MirrorOf  string     `yaml:"mirror_of" json:"mirror_of"`

	Material     int        `yaml:"material" json:"material"`
	Attachments  []Shape    `yaml:"attachments" json:"attachments"`
	Modifiers    []Modifier `yaml:"modifiers" json:"modifiers"`
	ConnectStart string     `yaml:"connect_start" json:"connect_start"`
	ConnectEnd   string     `yaml:"connect_end" json:"connect_end"`

	// Caps apply to extrusion mode only; ignored for parts. Nil means on.
	CapStart *bool `yaml:"cap_start" json:"cap_start"`
	CapEnd   *bool `yaml:"cap_end" json:"cap_end"`
}

// Mode reports which construction mode is declared, for exhaustive dispatch.
type Mode int

const (
	ModeNone Mode = iota
	ModeExtrusion
	ModePart
	ModeMirror
)

func (bm *BoneMesh) Mode() Mode {
	switch {
	case bm.Extrusion != nil:
		return ModeExtrusion
	case bm.Part != nil:
		return ModePart
	case bm.MirrorOf != "":
		return ModeMirror
	}
	return ModeNone
}

// modeCount counts declared construction modes; validation requires exactly 1.
func (bm *BoneMesh) modeCount() int {
	n := 0
	if bm.Extrusion != nil {
		n++
	}
	if bm.Part != nil {
		n++
	}
	if bm.MirrorOf != "" {
		n++
	}
	return n
}

// Extrusion sweeps a profile polygon along the bone through ordered steps.
type Extrusion struct {
	Profile Profile         `yaml:"profile" json:"profile"`
	Steps   []ExtrusionStep `yaml:"steps" json:"steps"`
}

// Profile is the cross-section polygon: a regular N-gon or a rectangle.
type Profile struct {
	Kind     string      `yaml:"kind" json:"kind"` // "circle" (default) or "rect"
	Segments int         `yaml:"segments" json:"segments"`
	Radius   float64     `yaml:"radius" json:"radius"`
	RadiusXY *[2]float64 `yaml:"radius_xy" json:"radius_xy"` // two-axis override
}

// RadiusX and RadiusY resolve the per-axis base radii.
func (p *Profile) RadiusX() float64 {
	if p.RadiusXY != nil {
		return p.RadiusXY[0]
	}
	return p.Radius
}

func (p *Profile) RadiusY() float64 {
	if p.RadiusXY != nil {
		return p.RadiusXY[1]
	}
	return p.Radius
}

// ExtrusionStep is one accumulated transform while sweeping. Extrude is a
// fraction of the bone length in (0,1]; fractions across the step list must
// sum to 1.0 within SumTolerance.
type ExtrusionStep struct {
	Extrude   float64     `yaml:"extrude" json:"extrude"`
	Scale     *ScaleXY    `yaml:"scale" json:"scale"`
	Translate *[2]float64 `yaml:"translate" json:"translate"` // local X/Y offset
	Rotate    float64     `yaml:"rotate" json:"rotate"`       // degrees about local Z
	Tilt      *[2]float64 `yaml:"tilt" json:"tilt"`           // degrees about local X/Y
	Bulge     float64     `yaml:"bulge" json:"bulge"`         // ring-local radial swell
}

// SumTolerance is the documented tolerance for the extrude-fraction sum.
// Deviation beyond it is a validation error, never a silent renormalization.
const SumTolerance = 1e-4

// ScaleXY is a per-step scale factor, uniform (`scale: 0.8`) or two-axis
// (`scale: [0.8, 1.2]`).
type ScaleXY struct {
	X float64
	Y float64
}

// UnmarshalYAML accepts a scalar or a two-element sequence.
func (s *ScaleXY) UnmarshalYAML(unmarshal func(any) error) error {
	var uniform float64
	if err := unmarshal(&uniform); err == nil {
		s.X, s.Y = uniform, uniform
		return nil
	}
	var pair [2]float64
	if err := unmarshal(&pair); err != nil {
		return fmt.Errorf("scale: want number or [x, y]: %w", err)
	}
	s.X, s.Y = pair[0], pair[1]
	return nil
}

// Part composes a base shape with ordered boolean operations. The result is
// independent of bone length except through the Scale rule.
type Part struct {
	Base       Shape       `yaml:"base" json:"base"`
	Operations []Operation `yaml:"operations" json:"operations"`
	Scale      *ScaleRule  `yaml:"scale" json:"scale"`
}

// Operation applies one boolean operator against a target shape, consuming it.
type Operation struct {
	Op    string `yaml:"op" json:"op"` // "union", "difference", "intersect"
	Shape Shape  `yaml:"shape" json:"shape"`
}

// ScaleRule interpolates each enabled axis between fixed size (amount 0)
// and fully bone-length-following (amount 1, the default):
//
//	factor(axis) = 1                                if axis not in Axes
//	             = 1 + amount(axis)*(boneLength-1)  otherwise
type ScaleRule struct {
	Axes   *[]string  `yaml:"axes" json:"axes"` // nil means all of x,y,z
	Amount AxisAmount `yaml:"amount" json:"amount"`
}

// AxisAmount holds the per-axis interpolation amounts; nil means 1.0.
type AxisAmount struct {
	X *float64 `yaml:"x" json:"x"`
	Y *float64 `yaml:"y" json:"y"`
	Z *float64 `yaml:"z" json:"z"`
}

func amountOrDefault(v *float64) float64 {
	if v == nil {
		return 1.0
	}
	return *v
}

// Factors resolves the world scale factor per axis for a bone of the given
// length. A nil rule behaves exactly like the zero rule (all axes, amount 1).
func (r *ScaleRule) Factors(boneLength float64) [3]float64 {
	enabled := [3]bool{true, true, true}
	if r != nil && r.Axes != nil {
		enabled = [3]bool{}
		for _, a := range *r.Axes {
			switch a {
			case "x", "X":
				enabled[0] = true
			case "y", "Y":
				enabled[1] = true
			case "z", "Z":
				enabled[2] = true
			}
		}
	}
	amounts := [3]float64{1, 1, 1}
	if r != nil {
		amounts[0] = amountOrDefault(r.Amount.X)
		amounts[1] = amountOrDefault(r.Amount.Y)
		amounts[2] = amountOrDefault(r.Amount.Z)
	}
	var f [3]float64
	for i := 0; i < 3; i++ {
		if enabled[i] {
			f[i] = 1.0 + amounts[i]*(boneLength-1.0)
		} else {
			f[i] = 1.0
		}
	}
	return f
}

// Shape is a tagged union: exactly one of Primitive, Asset, AssetRef is set.
type Shape struct {
	Primitive *Primitive `yaml:"primitive" json:"primitive"`
	Asset     *Asset     `yaml:"asset" json:"asset"`
	AssetRef  *AssetRef  `yaml:"asset_ref" json:"asset_ref"`
}

func (s *Shape) variantCount() int {
	n := 0
	if s.Primitive != nil {
		n++
	}
	if s.Asset != nil {
		n++
	}
	if s.AssetRef != nil {
		n++
	}
	return n
}

// Primitive is a parametric solid in bone-local units.
type Primitive struct {
	Kind   string      `yaml:"kind" json:"kind"` // "box", "cylinder", "sphere", "capsule"
	Dims   [3]float64  `yaml:"dims" json:"dims"`
	Offset *[3]float64 `yaml:"offset" json:"offset"`
	Rotate *[3]float64 `yaml:"rotate" json:"rotate"` // Euler XYZ degrees
}

// Asset references an external mesh file (STL), with an optional uniform
// local scale applied before the Part scale rule.
type Asset struct {
	Source string  `yaml:"source" json:"source"`
	Scale  float64 `yaml:"scale" json:"scale"` // 0 means 1.0
}

func (a *Asset) LocalScale() float64 {
	if a.Scale == 0 {
		return 1.0
	}
	return a.Scale
}

// AssetRef references the mesh output of another generated asset in the
// same run. Same scale semantics as Asset.
type AssetRef struct {
	Name  string  `yaml:"name" json:"name"`
	Scale float64 `yaml:"scale" json:"scale"`
}

func (a *AssetRef) LocalScale() float64 {
	if a.Scale == 0 {
		return 1.0
	}
	return a.Scale
}

// Modifier is a post-composition mesh edit; exactly one field is set.
// Modifiers apply in declared order.
type Modifier struct {
	Bevel     *BevelMod     `yaml:"bevel" json:"bevel"`
	Subdivide *SubdivideMod `yaml:"subdivide" json:"subdivide"`
	Boolean   *BooleanMod   `yaml:"boolean" json:"boolean"`
}

func (m *Modifier) variantCount() int {
	n := 0
	if m.Bevel != nil {
		n++
	}
	if m.Subdivide != nil {
		n++
	}
	if m.Boolean != nil {
		n++
	}
	return n
}

// BevelMod rounds edges by Width; Segments controls the rounding resolution.
type BevelMod struct {
	Width    float64 `yaml:"width" json:"width"`
	Segments int     `yaml:"segments" json:"segments"`
}

// SubdivideMod splits every triangle 1:4, Levels times.
type SubdivideMod struct {
	Levels int `yaml:"levels" json:"levels"`
}

// BooleanMod cuts against a named globally declared shape from BoolShapes.
type BooleanMod struct {
	Op     string `yaml:"op" json:"op"` // defaults to "difference"
	Cutter string `yaml:"cutter" json:"cutter"`
}

func (b *BooleanMod) Operator() string {
	if b.Op == "" {
		return "difference"
	}
	return b.Op
}

// MaterialSlot holds PBR surface attributes, referenced by index.
type MaterialSlot struct {
	Name      string     `yaml:"name" json:"name"`
	Color     [3]float64 `yaml:"color" json:"color"` // linear RGB in [0,1]
	Alpha     float64    `yaml:"alpha" json:"alpha"` // 0 means opaque
	Roughness float64    `yaml:"roughness" json:"roughness"`
	Metallic  float64    `yaml:"metallic" json:"metallic"`
	Emissive  [3]float64 `yaml:"emissive" json:"emissive"`
}

func (m *MaterialSlot) AlphaOrOpaque() float64 {
	if m.Alpha == 0 {
		return 1.0
	}
	return m.Alpha
}

// Skinning modes.
const (
	SkinRigid  = "rigid"
	SkinSmooth = "smooth"
)

// MaxInfluenceCap bounds smooth skinning influences per vertex.
const MaxInfluenceCap = 8

// SkinningSpec selects the vertex-to-bone binding policy.
type SkinningSpec struct {
	Mode          string `yaml:"mode" json:"mode"` // default "rigid"
	MaxInfluences int    `yaml:"max_influences" json:"max_influences"`
}

func (s *SkinningSpec) ModeOrDefault() string {
	if s.Mode == "" {
		return SkinRigid
	}
	return s.Mode
}

func (s *SkinningSpec) Influences() int {
	if s.MaxInfluences <= 0 {
		return 4
	}
	if s.MaxInfluences > MaxInfluenceCap {
		return MaxInfluenceCap
	}
	return s.MaxInfluences
}

// Limits are the generation budgets, checked incrementally during assembly.
// Zero means unlimited.
type Limits struct {
	MaxTriangles int `yaml:"max_triangles" json:"max_triangles"`
	MaxBones     int `yaml:"max_bones" json:"max_bones"`
	MaxMaterials int `yaml:"max_materials" json:"max_materials"`
}
