package compile

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"creature-mesh-gen/internal/kernel"
	"creature-mesh-gen/internal/skeleton"
	"creature-mesh-gen/internal/spec"
)

// instantiateShape builds a Shape as a solid in bone-local space, the same
// way for part bases, operation targets and attachments. factors is the
// resolved per-axis scale rule; offsets scale with it so authored layouts
// stay aligned as the bone stretches. The shape's center sits at the bone
// segment midpoint.
func instantiateShape(ctx *Context, s *spec.Shape, factors [3]float64, boneLength float64) (kernel.Solid, error) {
	base := r3.Vec{Z: boneLength / 2}

	switch {
	case s.Primitive != nil:
		p := s.Primitive
		dims := [3]float64{
			p.Dims[0] * factors[0],
			p.Dims[1] * factors[1],
			p.Dims[2] * factors[2],
		}
		solid, err := ctx.Kernel.Primitive(p.Kind, dims)
		if err != nil {
			return nil, err
		}
		return ctx.Kernel.Transform(solid, [3]float64{1, 1, 1}, rotateOf(p.Rotate), shapeOffset(p.Offset, factors, base)), nil

	case s.Asset != nil:
		m, err := ctx.Assets.Load(s.Asset.Source)
		if err != nil {
			return nil, err
		}
		solid, err := ctx.Kernel.FromMesh(m)
		if err != nil {
			return nil, err
		}
		ls := s.Asset.LocalScale()
		scale := [3]float64{ls * factors[0], ls * factors[1], ls * factors[2]}
		return ctx.Kernel.Transform(solid, scale, [3]float64{}, base), nil

	case s.AssetRef != nil:
		m, err := ctx.Assets.Ref(s.AssetRef.Name)
		if err != nil {
			return nil, err
		}
		solid, err := ctx.Kernel.FromMesh(m)
		if err != nil {
			return nil, err
		}
		ls := s.AssetRef.LocalScale()
		scale := [3]float64{ls * factors[0], ls * factors[1], ls * factors[2]}
		return ctx.Kernel.Transform(solid, scale, [3]float64{}, base), nil
	}

	return nil, fmt.Errorf("compile: shape has no variant set")
}

func shapeOffset(off *[3]float64, factors [3]float64, base r3.Vec) r3.Vec {
	if off == nil {
		return base
	}
	return r3.Add(base, r3.Vec{
		X: off[0] * factors[0],
		Y: off[1] * factors[1],
		Z: off[2] * factors[2],
	})
}

func rotateOf(rot *[3]float64) [3]float64 {
	if rot == nil {
		return [3]float64{}
	}
	return *rot
}

// ResolveCutters instantiates every named bool_shape once, in world space
// with unit scale factors, for reuse across bone meshes.
func ResolveCutters(ctx *Context) (map[string]kernel.Solid, error) {
	if len(ctx.Doc.BoolShapes) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(ctx.Doc.BoolShapes))
	for name := range ctx.Doc.BoolShapes {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]kernel.Solid, len(names))
	for _, name := range names {
		solid, err := instantiateShape(ctx, ctx.Doc.BoolShapes[name], [3]float64{1, 1, 1}, 0)
		if err != nil {
			return nil, fmt.Errorf("bool_shapes.%s: %w", name, err)
		}
		out[name] = solid
	}
	return out, nil
}

// toWorld maps a bone-local mesh into skeleton space through the bone's
// frame, in place.
func toWorld(m *kernel.TriMesh, bone *skeleton.Bone) {
	m.Transform(bone.LocalToWorld)
}

// cylindricalUVs projects UVs around the bone-local Z axis: u from the
// angle, v from the Z extent. Used for part meshes and after re-meshing
// modifiers, where no sweep parameterization exists.
func cylindricalUVs(m *kernel.TriMesh, bone *skeleton.Bone) [][2]float64 {
	uvs := make([][2]float64, len(m.Verts))
	if len(m.Verts) == 0 {
		return uvs
	}

	minZ, maxZ := math.Inf(1), math.Inf(-1)
	locals := make([]r3.Vec, len(m.Verts))
	for i, v := range m.Verts {
		d := r3.Sub(v, bone.Head)
		l := r3.Vec{X: r3.Dot(d, bone.X), Y: r3.Dot(d, bone.Y), Z: r3.Dot(d, bone.Z)}
		locals[i] = l
		minZ = math.Min(minZ, l.Z)
		maxZ = math.Max(maxZ, l.Z)
	}

	span := maxZ - minZ
	if span < 1e-12 {
		span = 1
	}
	for i, l := range locals {
		u := math.Atan2(l.Y, l.X)/(2*math.Pi) + 0.5
		uvs[i] = [2]float64{u, (l.Z - minZ) / span}
	}
	return uvs
}
