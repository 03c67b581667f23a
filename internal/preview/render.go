// Package preview renders a generated asset to a turntable still: flat-shaded
// software rasterizer with z-buffer, ACES tone mapping and supersampled
// antialiasing, encoded as WebP.
package preview

import (
	"image"
	"math"

	"creature-mesh-gen/internal/mesh"
	"creature-mesh-gen/internal/spec"
)

// Options control one preview frame.
type Options struct {
	Size        int
	Supersample int
	Yaw         float64 // degrees around the up axis
	Pitch       float64 // degrees, positive looks down
}

// Render projects the asset orthographically and rasterizes it. The world up
// axis (+Z) maps to screen up; the model is centered and scaled to fit.
func Render(a *mesh.Asset, opts Options) *image.NRGBA {
	size := opts.Size
	if size <= 0 {
		size = 512
	}
	ss := opts.Supersample
	if ss < 1 {
		ss = 1
	}
	renderSize := size * ss

	m := &a.Mesh
	if m.VertexCount() == 0 {
		return image.NewNRGBA(image.Rect(0, 0, renderSize, renderSize))
	}

	yaw := opts.Yaw * math.Pi / 180
	pitch := opts.Pitch * math.Pi / 180
	cy, sy := math.Cos(yaw), math.Sin(yaw)
	cp, sp := math.Cos(pitch), math.Sin(pitch)

	// View space: x right, y toward camera depth, z up. Rotate by yaw about
	// world Z, pitch about view X, then flatten to the screen plane.
	px := make([]float64, m.VertexCount())
	py := make([]float64, m.VertexCount())
	pz := make([]float64, m.VertexCount())

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, p := range m.Positions {
		x := float64(p[0])*cy - float64(p[1])*sy
		y := float64(p[0])*sy + float64(p[1])*cy
		z := float64(p[2])

		vy := y*cp - z*sp
		vz := y*sp + z*cp

		px[i] = x
		py[i] = vz // screen vertical, up positive for now
		pz[i] = -vy // larger is closer
		minX = math.Min(minX, x)
		maxX = math.Max(maxX, x)
		minY = math.Min(minY, vz)
		maxY = math.Max(maxY, vz)
	}

	span := math.Max(maxX-minX, maxY-minY)
	if span < 1e-3 {
		span = 1e-3
	}
	margin := float64(16 * ss)
	scale := (float64(renderSize) - 2*margin) / span
	cx := (minX + maxX) / 2
	cyMid := (minY + maxY) / 2
	half := float64(renderSize) / 2

	for i := range px {
		px[i] = (px[i]-cx)*scale + half
		// Flip: image rows grow downward.
		py[i] = half - (py[i]-cyMid)*scale
	}

	fb := NewFrameBuffer(renderSize, renderSize)
	lc := DefaultLightConfig()

	for _, t := range m.Tris {
		slot := materialOf(a, int(t[0]), m)
		rasterizeTriangle(fb, px, py, pz, [3]int{int(t[0]), int(t[1]), int(t[2])}, slot, &lc)
	}

	return fb.Image()
}

func materialOf(a *mesh.Asset, vi int, m *mesh.Mesh) *spec.MaterialSlot {
	if vi < len(m.MaterialIdx) {
		if mi := m.MaterialIdx[vi]; mi >= 0 && mi < len(a.Materials) {
			return &a.Materials[mi]
		}
	}
	if len(a.Materials) > 0 {
		return &a.Materials[0]
	}
	return &spec.MaterialSlot{Color: [3]float64{0.63, 0.63, 0.67}}
}

// rasterizeTriangle fills one flat-shaded triangle with z-buffering. Hot
// path, zero allocation in the inner loop.
func rasterizeTriangle(fb *FrameBuffer, px, py, pz []float64, vi [3]int, slot *spec.MaterialSlot, lc *LightConfig) {
	x0, y0, z0 := px[vi[0]], py[vi[0]], pz[vi[0]]
	x1, y1, z1 := px[vi[1]], py[vi[1]], pz[vi[1]]
	x2, y2, z2 := px[vi[2]], py[vi[2]], pz[vi[2]]

	// Face normal for flat shading.
	e1x, e1y, e1z := x1-x0, y1-y0, z1-z0
	e2x, e2y, e2z := x2-x0, y2-y0, z2-z0
	nx := e1y*e2z - e1z*e2y
	ny := e1z*e2x - e1x*e2z
	nz := e1x*e2y - e1y*e2x
	nl := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if nl < 1e-8 {
		return
	}
	nx, ny, nz = nx/nl, ny/nl, nz/nl

	shade := lc.shade(nx, ny, nz) * lc.Exposure

	// Linear material color through shade, ACES and gamma, once per face.
	base := [3]float64{
		slot.Color[0] + slot.Emissive[0],
		slot.Color[1] + slot.Emissive[1],
		slot.Color[2] + slot.Emissive[2],
	}
	var cr, cg, cb uint8
	{
		r := math.Pow(ACESTonemap(base[0]*shade), lc.InvGamma)
		g := math.Pow(ACESTonemap(base[1]*shade), lc.InvGamma)
		b := math.Pow(ACESTonemap(base[2]*shade), lc.InvGamma)
		cr, cg, cb = clamp255(r*255), clamp255(g*255), clamp255(b*255)
	}
	ca := clamp255(slot.AlphaOrOpaque() * 255)

	size := fb.Width
	minX := int(math.Min(math.Min(x0, x1), x2))
	maxX := int(math.Max(math.Max(x0, x1), x2)) + 1
	minY := int(math.Min(math.Min(y0, y1), y2))
	maxY := int(math.Max(math.Max(y0, y1), y2)) + 1
	if minX < 0 {
		minX = 0
	}
	if maxX >= size {
		maxX = size - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= size {
		maxY = size - 1
	}
	if minX >= maxX || minY >= maxY {
		return
	}

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - y2
		rowOff := sy * size
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}
			fb.ZBuf[zIdx] = z

			pxIdx := zIdx * 4
			fb.Color[pxIdx] = cr
			fb.Color[pxIdx+1] = cg
			fb.Color[pxIdx+2] = cb
			fb.Color[pxIdx+3] = ca
		}
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
