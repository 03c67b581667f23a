package kernel

import (
	"fmt"
	"math"

	"github.com/soypat/sdf"
	"github.com/soypat/sdf/form3"
	"github.com/soypat/sdf/render"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultMeshCells is the marching-cubes resolution used when the caller
// does not configure one. Fixed resolution keeps triangulation
// deterministic across runs.
const DefaultMeshCells = 48

// sdfKernel implements Kernel on signed distance fields: primitives come
// from form3, booleans from sdf min/max combinators, and surfaces from the
// octree marching-cubes renderer.
type sdfKernel struct {
	cells int
}

// NewSDF returns the default SDF-backed kernel. cells is the
// marching-cubes resolution per solid; <= 0 selects DefaultMeshCells.
func NewSDF(cells int) Kernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &sdfKernel{cells: cells}
}

// sdfSolid adapts an sdf.SDF3 to the opaque Solid handle.
type sdfSolid struct {
	s sdf.SDF3
}

func (s *sdfSolid) Bounds() (min, max r3.Vec) {
	b := s.s.Bounds()
	return b.Min, b.Max
}

func (k *sdfKernel) Primitive(kind string, dims [3]float64) (Solid, error) {
	for _, d := range dims {
		if d <= 0 {
			return nil, fmt.Errorf("kernel: non-positive dimension %v for %s", dims, kind)
		}
	}

	switch kind {
	case "box":
		s, err := form3.Box(r3.Vec{X: dims[0], Y: dims[1], Z: dims[2]}, 0)
		if err != nil {
			return nil, fmt.Errorf("kernel: box: %w", err)
		}
		return &sdfSolid{s: s}, nil

	case "cylinder":
		// dims[0] is the section radius; elliptical sections stretch Y.
		s, err := form3.Cylinder(dims[2], dims[0], 0)
		if err != nil {
			return nil, fmt.Errorf("kernel: cylinder: %w", err)
		}
		return stretched(s, [3]float64{1, dims[1] / dims[0], 1}), nil

	case "capsule":
		h, r := dims[2], dims[0]
		round := r
		if h/2 < round {
			round = h / 2 * 0.999
		}
		s, err := form3.Cylinder(h, r, round)
		if err != nil {
			return nil, fmt.Errorf("kernel: capsule: %w", err)
		}
		return stretched(s, [3]float64{1, dims[1] / dims[0], 1}), nil

	case "sphere":
		s, err := form3.Sphere(dims[0])
		if err != nil {
			return nil, fmt.Errorf("kernel: sphere: %w", err)
		}
		return stretched(s, [3]float64{1, dims[1] / dims[0], dims[2] / dims[0]}), nil
	}
	return nil, fmt.Errorf("kernel: unknown primitive kind %q", kind)
}

func stretched(s sdf.SDF3, scale [3]float64) Solid {
	if scale == [3]float64{1, 1, 1} {
		return &sdfSolid{s: s}
	}
	return &sdfSolid{s: newTransformed(s, scale, [3]float64{}, r3.Vec{})}
}

func (k *sdfKernel) FromMesh(m *TriMesh) (Solid, error) {
	if m.IsEmpty() {
		return nil, fmt.Errorf("kernel: cannot build solid from empty mesh")
	}
	return &sdfSolid{s: newMeshSDF(m)}, nil
}

func (k *sdfKernel) Transform(s Solid, scale [3]float64, rotate [3]float64, offset r3.Vec) Solid {
	child := s.(*sdfSolid).s
	return &sdfSolid{s: newTransformed(child, scale, rotate, offset)}
}

func (k *sdfKernel) Boolean(op Op, a, b Solid) (Solid, error) {
	sa := a.(*sdfSolid).s
	sb := b.(*sdfSolid).s
	switch op {
	case OpUnion:
		return &sdfSolid{s: sdf.Union3D(sa, sb)}, nil
	case OpDifference:
		return &sdfSolid{s: sdf.Difference3D(sa, sb)}, nil
	case OpIntersect:
		return &sdfSolid{s: sdf.Intersect3D(sa, sb)}, nil
	}
	return nil, fmt.Errorf("kernel: unknown boolean op %d", op)
}

func (k *sdfKernel) Triangulate(s Solid) (*TriMesh, error) {
	return triangulate(s.(*sdfSolid).s, k.cells)
}

func triangulate(s sdf.SDF3, cells int) (*TriMesh, error) {
	tris, err := render.RenderAll(render.NewOctreeRenderer(s, cells))
	if err != nil {
		return nil, fmt.Errorf("kernel: triangulate: %w", err)
	}

	verts := make([]r3.Vec, 0, len(tris)*3)
	idx := make([][3]int, 0, len(tris))
	for _, t := range tris {
		n := len(verts)
		verts = append(verts, t[0], t[1], t[2])
		idx = append(idx, [3]int{n, n + 1, n + 2})
	}
	return Weld(verts, idx), nil
}

// Bevel rounds convex edges via a morphological opening: erode by width,
// then dilate back. Segments raises the re-triangulation resolution.
func (k *sdfKernel) Bevel(m *TriMesh, width float64, segments int) (*TriMesh, error) {
	if width <= 0 {
		return nil, fmt.Errorf("kernel: bevel width must be positive, got %g", width)
	}
	base := newMeshSDF(m)
	opened := &offsetSDF{s: &offsetSDF{s: base, d: -width}, d: width}
	cells := k.cells + segments*8
	return triangulate(opened, cells)
}

// offsetSDF dilates (d > 0) or erodes (d < 0) a solid.
type offsetSDF struct {
	s sdf.SDF3
	d float64
}

func (o *offsetSDF) Evaluate(p r3.Vec) float64 { return o.s.Evaluate(p) - o.d }

func (o *offsetSDF) Bounds() r3.Box {
	b := o.s.Bounds()
	pad := r3.Vec{X: o.d, Y: o.d, Z: o.d}
	return r3.Box{Min: r3.Sub(b.Min, pad), Max: r3.Add(b.Max, pad)}
}

// transformed evaluates a child SDF under scale → rotate (Euler XYZ,
// degrees) → translate. Distances under non-uniform scale are compressed by
// the smallest factor, which preserves sign and continuity.
type transformed struct {
	child    sdf.SDF3
	invRot   mat3
	invScale [3]float64
	offset   r3.Vec
	minScale float64
	bounds   r3.Box
}

func newTransformed(child sdf.SDF3, scale [3]float64, rotate [3]float64, offset r3.Vec) sdf.SDF3 {
	for i, f := range scale {
		if f == 0 {
			scale[i] = 1
		}
	}
	rot := eulerXYZ(rotate)

	t := &transformed{
		child:    child,
		invRot:   rot.transpose(),
		invScale: [3]float64{1 / scale[0], 1 / scale[1], 1 / scale[2]},
		offset:   offset,
		minScale: math.Min(scale[0], math.Min(scale[1], scale[2])),
	}

	// Forward-transform the child's corners for a conservative AABB.
	cb := child.Bounds()
	first := true
	for _, cx := range []float64{cb.Min.X, cb.Max.X} {
		for _, cy := range []float64{cb.Min.Y, cb.Max.Y} {
			for _, cz := range []float64{cb.Min.Z, cb.Max.Z} {
				q := r3.Vec{X: cx * scale[0], Y: cy * scale[1], Z: cz * scale[2]}
				p := r3.Add(rot.mulVec(q), offset)
				if first {
					t.bounds = r3.Box{Min: p, Max: p}
					first = false
					continue
				}
				t.bounds.Min.X = math.Min(t.bounds.Min.X, p.X)
				t.bounds.Min.Y = math.Min(t.bounds.Min.Y, p.Y)
				t.bounds.Min.Z = math.Min(t.bounds.Min.Z, p.Z)
				t.bounds.Max.X = math.Max(t.bounds.Max.X, p.X)
				t.bounds.Max.Y = math.Max(t.bounds.Max.Y, p.Y)
				t.bounds.Max.Z = math.Max(t.bounds.Max.Z, p.Z)
			}
		}
	}
	return t
}

func (t *transformed) Evaluate(p r3.Vec) float64 {
	q := t.invRot.mulVec(r3.Sub(p, t.offset))
	q.X *= t.invScale[0]
	q.Y *= t.invScale[1]
	q.Z *= t.invScale[2]
	return t.child.Evaluate(q) * t.minScale
}

func (t *transformed) Bounds() r3.Box { return t.bounds }

// mat3 is a row-major 3×3 rotation matrix.
type mat3 [9]float64

func (m mat3) transpose() mat3 {
	return mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

func (m mat3) mulVec(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		Z: m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

func (m mat3) mul(o mat3) mat3 {
	var out mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = m[r*3]*o[c] + m[r*3+1]*o[3+c] + m[r*3+2]*o[6+c]
		}
	}
	return out
}

// eulerXYZ builds the rotation applying X, then Y, then Z (degrees).
func eulerXYZ(deg [3]float64) mat3 {
	rx := deg[0] * math.Pi / 180
	ry := deg[1] * math.Pi / 180
	rz := deg[2] * math.Pi / 180

	cx, sx := math.Cos(rx), math.Sin(rx)
	cy, sy := math.Cos(ry), math.Sin(ry)
	cz, sz := math.Cos(rz), math.Sin(rz)

	mx := mat3{1, 0, 0, 0, cx, -sx, 0, sx, cx}
	my := mat3{cy, 0, sy, 0, 1, 0, -sy, 0, cy}
	mz := mat3{cz, -sz, 0, sz, cz, 0, 0, 0, 1}

	return mz.mul(my).mul(mx)
}
