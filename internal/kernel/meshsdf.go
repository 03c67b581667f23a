package kernel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// meshSDF is a pseudo signed distance field over a closed triangle mesh:
// magnitude is the exact distance to the closest triangle, sign comes from
// ray-crossing parity. It lets loaded asset meshes participate in booleans
// alongside parametric solids.
type meshSDF struct {
	verts  []r3.Vec
	tris   [][3]int
	bounds r3.Box
}

// rayDir is the fixed parity-ray direction. Deliberately skewed so it does
// not run parallel to axis-aligned faces of typical assets.
var rayDir = r3.Unit(r3.Vec{X: 0.5297, Y: 0.6211, Z: 0.5773})

func newMeshSDF(m *TriMesh) *meshSDF {
	min, max := m.Bounds()
	span := r3.Sub(max, min)
	pad := 0.01*math.Max(span.X, math.Max(span.Y, span.Z)) + 1e-3
	padVec := r3.Vec{X: pad, Y: pad, Z: pad}

	return &meshSDF{
		verts:  m.Verts,
		tris:   m.Tris,
		bounds: r3.Box{Min: r3.Sub(min, padVec), Max: r3.Add(max, padVec)},
	}
}

func (s *meshSDF) Bounds() r3.Box { return s.bounds }

func (s *meshSDF) Evaluate(p r3.Vec) float64 {
	best := math.Inf(1)
	for _, t := range s.tris {
		d2 := distToTriangle2(p, s.verts[t[0]], s.verts[t[1]], s.verts[t[2]])
		if d2 < best {
			best = d2
		}
	}
	dist := math.Sqrt(best)

	crossings := 0
	for _, t := range s.tris {
		if rayHitsTriangle(p, rayDir, s.verts[t[0]], s.verts[t[1]], s.verts[t[2]]) {
			crossings++
		}
	}
	if crossings%2 == 1 {
		return -dist
	}
	return dist
}

// distToTriangle2 returns the squared distance from p to triangle abc
// (closest-point decomposition over vertex/edge/face regions).
func distToTriangle2(p, a, b, c r3.Vec) float64 {
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	ap := r3.Sub(p, a)

	d1 := r3.Dot(ab, ap)
	d2 := r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return r3.Norm2(ap)
	}

	bp := r3.Sub(p, b)
	d3 := r3.Dot(ab, bp)
	d4 := r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return r3.Norm2(bp)
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		q := r3.Add(a, r3.Scale(v, ab))
		return r3.Norm2(r3.Sub(p, q))
	}

	cp := r3.Sub(p, c)
	d5 := r3.Dot(ab, cp)
	d6 := r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return r3.Norm2(cp)
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		q := r3.Add(a, r3.Scale(w, ac))
		return r3.Norm2(r3.Sub(p, q))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		q := r3.Add(b, r3.Scale(w, r3.Sub(c, b)))
		return r3.Norm2(r3.Sub(p, q))
	}

	denom := 1.0 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	q := r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac)))
	return r3.Norm2(r3.Sub(p, q))
}

// rayHitsTriangle is Möller–Trumbore restricted to t > 0.
func rayHitsTriangle(orig, dir, a, b, c r3.Vec) bool {
	const eps = 1e-12

	e1 := r3.Sub(b, a)
	e2 := r3.Sub(c, a)
	h := r3.Cross(dir, e2)
	det := r3.Dot(e1, h)
	if det > -eps && det < eps {
		return false
	}
	inv := 1.0 / det

	s := r3.Sub(orig, a)
	u := inv * r3.Dot(s, h)
	if u < 0 || u > 1 {
		return false
	}

	q := r3.Cross(s, e1)
	v := inv * r3.Dot(dir, q)
	if v < 0 || u+v > 1 {
		return false
	}

	return inv*r3.Dot(e2, q) > eps
}
