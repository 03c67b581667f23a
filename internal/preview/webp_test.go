package preview

import (
	"image"
	"image/color"
	"testing"
)

func TestDownsampleNonSquare(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 32, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 200, G: 40, B: 10, A: 255})
		}
	}

	got := Downsample(src, 8, 4)
	if got.Bounds().Dx() != 8 || got.Bounds().Dy() != 4 {
		t.Fatalf("bounds = %v, want 8x4", got.Bounds())
	}
	// A uniform opaque field survives the filter unchanged.
	c := got.NRGBAAt(4, 2)
	if c.R != 200 || c.G != 40 || c.B != 10 || c.A != 255 {
		t.Fatalf("center pixel = %v", c)
	}
}

func TestDownsamplePassthrough(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	if got := Downsample(src, 16, 16); got != src {
		t.Fatal("frames at or below the target must pass through untouched")
	}
}

func TestFrameBufferImage(t *testing.T) {
	fb := NewFrameBuffer(3, 2)
	fb.Color[0], fb.Color[1], fb.Color[2], fb.Color[3] = 10, 20, 30, 255

	img := fb.Image()
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Fatalf("bounds = %v, want 3x2", img.Bounds())
	}
	c := img.NRGBAAt(0, 0)
	if c.R != 10 || c.G != 20 || c.B != 30 || c.A != 255 {
		t.Fatalf("pixel (0,0) = %v", c)
	}
}
