package compile

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"creature-mesh-gen/internal/diag"
	"creature-mesh-gen/internal/kernel"
	"creature-mesh-gen/internal/skeleton"
	"creature-mesh-gen/internal/spec"
)

// DefaultCircleSegments is the ring vertex count when a circle profile
// does not set one.
const DefaultCircleSegments = 8

// sweep is the accumulator threaded through the step fold: cursor position,
// orientation and scale all accumulate; nothing on it is shared.
type sweep struct {
	pos    r3.Vec // bone-local cursor, starts at the head (origin)
	ex, ey r3.Vec // current cross-section axes
	ez     r3.Vec // current sweep direction
	sx, sy float64
	zFrac  float64 // accumulated extrude fraction, drives the V coordinate
}

// CompileExtrusion sweeps the profile polygon along the bone through the
// ordered step list and returns the bone mesh in world space.
func CompileExtrusion(ctx *Context, bone *skeleton.Bone, bm *spec.BoneMesh) (*Result, error) {
	ex := bm.Extrusion
	profile := profilePoints(&ex.Profile)
	n := len(profile)

	st := sweep{
		ex: r3.Vec{X: 1},
		ey: r3.Vec{Y: 1},
		ez: r3.Vec{Z: 1},
		sx: 1, sy: 1,
	}

	m := &kernel.TriMesh{}
	var uvs [][2]float64

	emitRing := func(s *sweep, bulge float64) error {
		rx := s.sx * (1 + bulge)
		ry := s.sy * (1 + bulge)
		if rx*ex.Profile.RadiusX() < 1e-9 || ry*ex.Profile.RadiusY() < 1e-9 {
			return &diag.GeometryError{Bone: bone.Name, Op: "extrude", Err: errDegenerateRadius}
		}
		for j, p := range profile {
			v := s.pos
			v = r3.Add(v, r3.Scale(p[0]*rx, s.ex))
			v = r3.Add(v, r3.Scale(p[1]*ry, s.ey))
			m.Verts = append(m.Verts, v)
			uvs = append(uvs, [2]float64{float64(j) / float64(n), s.zFrac})
		}
		return nil
	}

	// Ring 0 at the bone head.
	if err := emitRing(&st, 0); err != nil {
		return nil, err
	}

	for _, step := range ex.Steps {
		// Advance along the current sweep direction.
		st.pos = r3.Add(st.pos, r3.Scale(step.Extrude*bone.Length, st.ez))
		st.zFrac += step.Extrude

		// This step's tilt and rotate adjust the accumulated orientation
		// before the new ring is emitted.
		if step.Tilt != nil {
			if a := step.Tilt[0] * math.Pi / 180; a != 0 {
				rot := r3.NewRotation(a, st.ex)
				st.ey = rot.Rotate(st.ey)
				st.ez = rot.Rotate(st.ez)
			}
			if a := step.Tilt[1] * math.Pi / 180; a != 0 {
				rot := r3.NewRotation(a, st.ey)
				st.ex = rot.Rotate(st.ex)
				st.ez = rot.Rotate(st.ez)
			}
		}
		if a := step.Rotate * math.Pi / 180; a != 0 {
			rot := r3.NewRotation(a, st.ez)
			st.ex = rot.Rotate(st.ex)
			st.ey = rot.Rotate(st.ey)
		}

		// Translate offsets the new cross-section center in the current frame.
		if step.Translate != nil {
			st.pos = r3.Add(st.pos, r3.Scale(step.Translate[0], st.ex))
			st.pos = r3.Add(st.pos, r3.Scale(step.Translate[1], st.ey))
		}

		// Scale is cumulative across steps.
		if step.Scale != nil {
			st.sx *= step.Scale.X
			st.sy *= step.Scale.Y
		}

		if err := emitRing(&st, step.Bulge); err != nil {
			return nil, err
		}
	}

	rings := len(ex.Steps) + 1
	for i := 0; i < rings-1; i++ {
		for j := 0; j < n; j++ {
			a := i*n + j
			b := i*n + (j+1)%n
			c := (i+1)*n + (j+1)%n
			d := (i+1)*n + j
			m.Tris = append(m.Tris, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}

	res := &Result{
		BoneIndex:    bone.Index,
		Material:     bm.Material,
		Mesh:         m,
		UVs:          uvs,
		ConnectStart: bm.ConnectStart == spec.ConnectBridge,
		ConnectEnd:   bm.ConnectEnd == spec.ConnectBridge,
	}

	res.StartLoop = ringIndices(0, n)
	res.EndLoop = ringIndices((rings-1)*n, n)

	// Caps default on; a bridged end keeps its loop open.
	if capOn(bm.CapStart) && !res.ConnectStart {
		capFan(m, &uvs, res.StartLoop, false)
	}
	if capOn(bm.CapEnd) && !res.ConnectEnd {
		capFan(m, &uvs, res.EndLoop, true)
	}
	res.UVs = uvs

	toWorld(m, bone)
	return res, nil
}

var errDegenerateRadius = degenerateRadiusError{}

type degenerateRadiusError struct{}

func (degenerateRadiusError) Error() string { return "cross-section radius collapsed to zero" }

func capOn(flag *bool) bool { return flag == nil || *flag }

func ringIndices(start, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// capFan closes a ring with a triangle fan around its centroid. outward
// selects the +Z (end) or -Z (start) facing.
func capFan(m *kernel.TriMesh, uvs *[][2]float64, loop []int, outward bool) {
	var center r3.Vec
	for _, vi := range loop {
		center = r3.Add(center, m.Verts[vi])
	}
	center = r3.Scale(1/float64(len(loop)), center)

	ci := len(m.Verts)
	m.Verts = append(m.Verts, center)
	*uvs = append(*uvs, [2]float64{0.5, 0.5})

	n := len(loop)
	for j := 0; j < n; j++ {
		a := loop[j]
		b := loop[(j+1)%n]
		if outward {
			m.Tris = append(m.Tris, [3]int{ci, a, b})
		} else {
			m.Tris = append(m.Tris, [3]int{ci, b, a})
		}
	}
}

// profilePoints returns the cross-section polygon, counter-clockwise seen
// from +Z, at unit scale (multiplied by the base radii).
func profilePoints(p *spec.Profile) [][2]float64 {
	rx, ry := p.RadiusX(), p.RadiusY()

	if p.Kind == "rect" {
		return [][2]float64{{rx, -ry}, {rx, ry}, {-rx, ry}, {-rx, -ry}}
	}

	segs := p.Segments
	if segs < 3 {
		segs = DefaultCircleSegments
	}
	out := make([][2]float64, segs)
	for i := 0; i < segs; i++ {
		a := 2 * math.Pi * float64(i) / float64(segs)
		out[i] = [2]float64{rx * math.Cos(a), ry * math.Sin(a)}
	}
	return out
}
