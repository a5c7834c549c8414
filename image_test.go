package xstitch

import (
	"image"
	"image/color"
	"testing"
)

func makeTestImage(w, h int, fn func(x, y int) color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, fn(x, y))
		}
	}
	return img
}

func TestNewLabImageDimensions(t *testing.T) {
	img := makeTestImage(4, 3, func(x, y int) color.RGBA {
		return color.RGBA{R: 10, G: 20, B: 30, A: 255}
	})
	li := NewLabImage(img)
	if li.Width != 4 || li.Height != 3 {
		t.Fatalf("got %dx%d, want 4x3", li.Width, li.Height)
	}
	if len(li.Pixels) != 12 {
		t.Fatalf("got %d pixels, want 12", len(li.Pixels))
	}
}

func TestNewLabImagePreservesAlpha(t *testing.T) {
	img := makeTestImage(2, 1, func(x, y int) color.RGBA {
		if x == 0 {
			return color.RGBA{R: 0, G: 0, B: 0, A: 0}
		}
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	})
	li := NewLabImage(img)
	if li.Alpha[li.CoordToIdx(0, 0)] != 0 {
		t.Errorf("expected transparent pixel to carry alpha 0")
	}
	if li.Alpha[li.CoordToIdx(1, 0)] != 255 {
		t.Errorf("expected opaque pixel to carry alpha 255")
	}
}

func TestCoordToIdxRowMajor(t *testing.T) {
	li := &LabImage{Width: 5, Height: 5}
	if li.CoordToIdx(2, 1) != 2+5*1 {
		t.Errorf("CoordToIdx(2,1) = %d, want %d", li.CoordToIdx(2, 1), 2+5*1)
	}
}

func TestPCARejectsFlatImage(t *testing.T) {
	img := makeTestImage(4, 4, func(x, y int) color.RGBA {
		return color.RGBA{R: 128, G: 128, B: 128, A: 255}
	})
	li := NewLabImage(img)
	if _, err := li.PCA(); err == nil {
		t.Error("expected PCA to fail on a uniform-color input")
	}
}

func TestPCAFindsDominantAxis(t *testing.T) {
	// A strict left-to-right gradient should have its principal axis
	// roughly aligned with the change in lightness.
	img := makeTestImage(16, 16, func(x, y int) color.RGBA {
		v := uint8((x * 255) / 15)
		return color.RGBA{R: v, G: v, B: v, A: 255}
	})
	li := NewLabImage(img)
	res, err := li.PCA()
	if err != nil {
		t.Fatalf("PCA() error = %v", err)
	}
	if res.ExplainedVariance <= 0 {
		t.Errorf("expected positive explained variance, got %v", res.ExplainedVariance)
	}
	// Grayscale gradient varies almost entirely in L; a and b should stay
	// near zero, so the component should load heavily onto the first axis.
	if absF(res.Component[0]) < absF(res.Component[1]) || absF(res.Component[0]) < absF(res.Component[2]) {
		t.Errorf("expected principal component to load on L for a grayscale gradient, got %+v", res.Component)
	}
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestAverageColorOfUniformImage(t *testing.T) {
	img := makeTestImage(3, 3, func(x, y int) color.RGBA {
		return color.RGBA{R: 200, G: 100, B: 50, A: 255}
	})
	li := NewLabImage(img)
	avg := li.AverageColor()
	want := LabFromRGB(200, 100, 50)
	if !approxEqual(avg.L, want.L, 1e-9) || !approxEqual(avg.A, want.A, 1e-9) || !approxEqual(avg.B, want.B, 1e-9) {
		t.Errorf("AverageColor() = %+v, want %+v", avg, want)
	}
}
