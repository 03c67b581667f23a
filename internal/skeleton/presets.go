package skeleton

import "creature-mesh-gen/internal/spec"

// Preset returns the canonical bone list for a named skeleton preset.
// Presets are laid out with +Y up and the character facing +Z; limbs on the
// author's left carry a ".l" suffix and are mirrored to ".r" across X.
func Preset(name string) ([]spec.BoneSpec, bool) {
	bones, ok := presets[name]
	return bones, ok
}

// PresetNames lists the available presets.
func PresetNames() []string {
	return []string{"biped", "quadruped", "serpent"}
}

func v(x, y, z float64) *[3]float64 { return &[3]float64{x, y, z} }

var presets = map[string][]spec.BoneSpec{
	"biped": {
		{Name: "root", Head: v(0, 0, 0), Tail: v(0, 0.2, 0)},
		{Name: "spine", Parent: "root", Head: v(0, 0.2, 0), Tail: v(0, 0.6, 0)},
		{Name: "chest", Parent: "spine", Head: v(0, 0.6, 0), Tail: v(0, 0.9, 0)},
		{Name: "neck", Parent: "chest", Head: v(0, 0.9, 0), Tail: v(0, 1.0, 0)},
		{Name: "head", Parent: "neck", Head: v(0, 1.0, 0), Tail: v(0, 1.25, 0)},
		{Name: "arm.upper.l", Parent: "chest", Head: v(0.15, 0.85, 0), Tail: v(0.45, 0.85, 0)},
		{Name: "arm.lower.l", Parent: "arm.upper.l", Head: v(0.45, 0.85, 0), Tail: v(0.75, 0.85, 0)},
		{Name: "arm.upper.r", Parent: "chest", MirrorOf: "arm.upper.l"},
		{Name: "arm.lower.r", MirrorOf: "arm.lower.l"},
		{Name: "leg.upper.l", Parent: "root", Head: v(0.1, 0, 0), Tail: v(0.1, -0.45, 0)},
		{Name: "leg.lower.l", Parent: "leg.upper.l", Head: v(0.1, -0.45, 0), Tail: v(0.1, -0.9, 0)},
		{Name: "leg.upper.r", Parent: "root", MirrorOf: "leg.upper.l"},
		{Name: "leg.lower.r", MirrorOf: "leg.lower.l"},
	},
	"quadruped": {
		{Name: "root", Head: v(0, 0.5, 0), Tail: v(0, 0.5, 0.3)},
		{Name: "spine", Parent: "root", Head: v(0, 0.5, 0.3), Tail: v(0, 0.5, 0.8)},
		{Name: "neck", Parent: "spine", Head: v(0, 0.5, 0.8), Tail: v(0, 0.7, 1.0)},
		{Name: "head", Parent: "neck", Head: v(0, 0.7, 1.0), Tail: v(0, 0.7, 1.25)},
		{Name: "tail", Parent: "root", Head: v(0, 0.5, 0), Tail: v(0, 0.55, -0.4)},
		{Name: "leg.front.l", Parent: "spine", Head: v(0.15, 0.5, 0.75), Tail: v(0.15, 0, 0.75)},
		{Name: "leg.front.r", Parent: "spine", MirrorOf: "leg.front.l"},
		{Name: "leg.back.l", Parent: "root", Head: v(0.15, 0.5, 0.05), Tail: v(0.15, 0, 0.05)},
		{Name: "leg.back.r", Parent: "root", MirrorOf: "leg.back.l"},
	},
	"serpent": {
		{Name: "root", Head: v(0, 0.1, 0), Tail: v(0, 0.1, 0.4)},
		{Name: "body.1", Parent: "root", Head: v(0, 0.1, 0.4), Tail: v(0, 0.1, 0.8)},
		{Name: "body.2", Parent: "body.1", Head: v(0, 0.1, 0.8), Tail: v(0, 0.1, 1.2)},
		{Name: "body.3", Parent: "body.2", Head: v(0, 0.1, 1.2), Tail: v(0, 0.1, 1.6)},
		{Name: "head", Parent: "body.3", Head: v(0, 0.1, 1.6), Tail: v(0, 0.15, 1.85)},
	},
}
