package skeleton

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"creature-mesh-gen/internal/diag"
	"creature-mesh-gen/internal/spec"
)

// Bone is one fully resolved segment of the hierarchy. Immutable after
// Resolve.
type Bone struct {
	Name   string
	Index  int
	Parent int // -1 for roots
	Head   r3.Vec
	Tail   r3.Vec
	Length float64

	// Local orthonormal frame: Z is the normalized head→tail direction,
	// X and Y complete a right-handed basis.
	X, Y, Z r3.Vec

	// MirrorOf is the source bone index for reflected bones, -1 otherwise.
	MirrorOf int
}

// LocalToWorld maps a bone-local point (x, y across the section, z along
// the bone from the head) into skeleton space.
func (b *Bone) LocalToWorld(p r3.Vec) r3.Vec {
	out := b.Head
	out = r3.Add(out, r3.Scale(p.X, b.X))
	out = r3.Add(out, r3.Scale(p.Y, b.Y))
	out = r3.Add(out, r3.Scale(p.Z, b.Z))
	return out
}

// Skeleton is the resolved bone list in declaration order.
type Skeleton struct {
	Bones      []Bone
	MirrorAxis int // 0=x, 1=y, 2=z

	byName map[string]int
}

// Lookup returns the index of a bone by name.
func (s *Skeleton) Lookup(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// Names returns bone names in declaration order.
func (s *Skeleton) Names() []string {
	out := make([]string, len(s.Bones))
	for i := range s.Bones {
		out[i] = s.Bones[i].Name
	}
	return out
}

// Resolve expands a preset if named, then builds every bone's frame and
// length. Bone list order doubles as topological order: parents and mirror
// sources must already be resolved when referenced.
func Resolve(sk *spec.SkeletonSpec) (*Skeleton, error) {
	bones := sk.Bones
	if sk.Preset != "" {
		preset, ok := Preset(sk.Preset)
		if !ok {
			return nil, &diag.UnresolvedReferenceError{Kind: "preset", Name: sk.Preset, Path: "skeleton.preset"}
		}
		bones = preset
	}

	axis := 0
	switch sk.MirrorAxis {
	case "y":
		axis = 1
	case "z":
		axis = 2
	}

	out := &Skeleton{
		MirrorAxis: axis,
		byName:     make(map[string]int, len(bones)),
	}

	// Mirror plane passes through the root bone's head, perpendicular to
	// the mirror axis.
	var planeOrigin r3.Vec

	// Source bone index → its mirror's index, for mirrored-parent defaults.
	mirrored := make(map[int]int)

	for i, bs := range bones {
		b := Bone{Name: bs.Name, Index: i, Parent: -1, MirrorOf: -1}

		if bs.MirrorOf != "" {
			// Declaration order forbids forward references, so a self
			// reference is the only representable cycle.
			if bs.MirrorOf == bs.Name {
				return nil, &diag.CyclicHierarchyError{Bones: []string{bs.Name, bs.Name}}
			}
			src, ok := out.byName[bs.MirrorOf]
			if !ok {
				return nil, &diag.UnresolvedReferenceError{Kind: "mirror", Name: bs.MirrorOf, Path: "skeleton.bones." + bs.Name}
			}
			sb := out.Bones[src]
			b.MirrorOf = src
			b.Head = reflectAcross(sb.Head, planeOrigin, axis)
			b.Tail = reflectAcross(sb.Tail, planeOrigin, axis)

			// Parent defaults to the mirrored counterpart of the source's
			// parent when one exists, else the source's parent itself.
			if bs.Parent == "" && sb.Parent >= 0 {
				b.Parent = sb.Parent
				if m, ok := mirrored[sb.Parent]; ok {
					b.Parent = m
				}
			}
			mirrored[src] = i
		} else {
			if bs.Head == nil || bs.Tail == nil {
				return nil, &diag.UnresolvedReferenceError{Kind: "bone", Name: bs.Name, Path: "skeleton.bones." + bs.Name}
			}
			b.Head = r3.Vec{X: bs.Head[0], Y: bs.Head[1], Z: bs.Head[2]}
			b.Tail = r3.Vec{X: bs.Tail[0], Y: bs.Tail[1], Z: bs.Tail[2]}
		}

		if bs.Parent != "" {
			if bs.Parent == bs.Name {
				return nil, &diag.CyclicHierarchyError{Bones: []string{bs.Name, bs.Name}}
			}
			p, ok := out.byName[bs.Parent]
			if !ok {
				return nil, &diag.UnresolvedReferenceError{Kind: "parent", Name: bs.Parent, Path: "skeleton.bones." + bs.Name}
			}
			b.Parent = p
		}

		b.Length = r3.Norm(r3.Sub(b.Tail, b.Head))
		b.X, b.Y, b.Z = Frame(r3.Sub(b.Tail, b.Head))

		if i == 0 {
			planeOrigin = b.Head
		}
		out.byName[b.Name] = i
		out.Bones = append(out.Bones, b)
	}

	return out, nil
}

// Frame derives a stable orthonormal basis whose Z axis is the given
// direction. The basis is the smallest rotation carrying world +Z onto the
// direction, so it varies continuously and does not flip for near-vertical
// bones. For an exactly opposite direction the rotation axis degenerates;
// world +X is used there.
func Frame(dir r3.Vec) (x, y, z r3.Vec) {
	worldZ := r3.Vec{Z: 1}
	n := r3.Norm(dir)
	if n < 1e-12 {
		return r3.Vec{X: 1}, r3.Vec{Y: 1}, worldZ
	}
	z = r3.Scale(1/n, dir)

	axis := r3.Cross(worldZ, z)
	sin := r3.Norm(axis)
	cos := r3.Dot(worldZ, z)

	if sin < 1e-12 {
		if cos > 0 {
			return r3.Vec{X: 1}, r3.Vec{Y: 1}, z
		}
		// Antiparallel: rotate 180° about +X.
		return r3.Vec{X: 1}, r3.Vec{Y: -1}, z
	}

	rot := r3.NewRotation(math.Atan2(sin, cos), axis)
	x = rot.Rotate(r3.Vec{X: 1})
	y = rot.Rotate(r3.Vec{Y: 1})
	return x, y, z
}

// MirrorPlane returns the per-pair symmetry plane between a source bone and
// its mirror: origin at the midpoint of the heads, normal along the head
// separation (tails when the heads coincide).
func MirrorPlane(src, mir *Bone) (origin, normal r3.Vec) {
	origin = r3.Scale(0.5, r3.Add(src.Head, mir.Head))
	n := r3.Sub(mir.Head, src.Head)
	if r3.Norm(n) < 1e-12 {
		origin = r3.Scale(0.5, r3.Add(src.Tail, mir.Tail))
		n = r3.Sub(mir.Tail, src.Tail)
	}
	if r3.Norm(n) < 1e-12 {
		// Degenerate pair: fall back to the skeleton mirror axis.
		n = r3.Vec{X: 1}
	}
	return origin, r3.Unit(n)
}

// ReflectPoint reflects p across the plane (origin, unit normal).
func ReflectPoint(p, origin, normal r3.Vec) r3.Vec {
	d := r3.Dot(r3.Sub(p, origin), normal)
	return r3.Sub(p, r3.Scale(2*d, normal))
}

func reflectAcross(p, origin r3.Vec, axis int) r3.Vec {
	switch axis {
	case 1:
		p.Y = 2*origin.Y - p.Y
	case 2:
		p.Z = 2*origin.Z - p.Z
	default:
		p.X = 2*origin.X - p.X
	}
	return p
}
