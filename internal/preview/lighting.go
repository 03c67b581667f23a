package preview

import "math"

// LightConfig holds precomputed lighting parameters for the flat shader.
type LightConfig struct {
	LightDir [3]float64
	RimDir   [3]float64
	HalfMain [3]float64 // precomputed half-vector for Blinn-Phong
	Ambient  float64
	Hemi     float64
	Direct   float64
	Rim      float64
	SpecInt  float64
	SpecPow  float64
	Exposure float64
	InvGamma float64
}

// DefaultLightConfig returns a three-light studio setup: key from the upper
// left, cool rim from behind, hemisphere fill.
func DefaultLightConfig() LightConfig {
	lightDir := normalize3([3]float64{180, 260, 140})
	rimDir := normalize3([3]float64{-160, 130, -210})
	viewDir := normalize3([3]float64{0, -110, -400})

	halfMain := normalize3([3]float64{
		lightDir[0] - viewDir[0],
		lightDir[1] - viewDir[1],
		lightDir[2] - viewDir[2],
	})

	return LightConfig{
		LightDir: lightDir,
		RimDir:   rimDir,
		HalfMain: halfMain,
		Ambient:  0.55,
		Hemi:     0.50,
		Direct:   1.50,
		Rim:      0.60,
		SpecInt:  0.45,
		SpecPow:  12.0,
		Exposure: 1.05,
		InvGamma: 1.0 / 2.2,
	}
}

// shade returns the combined lighting scalar for a face normal.
func (lc *LightConfig) shade(nx, ny, nz float64) float64 {
	// Lambertian (abs for double-sided)
	ndlMain := math.Abs(nx*lc.LightDir[0] + ny*lc.LightDir[1] + nz*lc.LightDir[2])
	ndlRim := math.Abs(nx*lc.RimDir[0] + ny*lc.RimDir[1] + nz*lc.RimDir[2])

	// Hemisphere fill
	hemi := (1.0-math.Abs(ny))*0.5 + 0.5

	// Blinn-Phong specular
	ndh := nx*lc.HalfMain[0] + ny*lc.HalfMain[1] + nz*lc.HalfMain[2]
	if ndh < 0 {
		ndh = 0
	}
	spec := math.Pow(ndh, lc.SpecPow) * lc.SpecInt

	return lc.Ambient + hemi*lc.Hemi + ndlMain*lc.Direct + ndlRim*lc.Rim + spec
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func normalize3(v [3]float64) [3]float64 {
	l := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if l < 1e-12 {
		return v
	}
	return [3]float64{v[0] / l, v[1] / l, v[2] / l}
}
