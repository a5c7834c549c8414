package imageutil

import (
	"image"
	"image/color"
	"testing"
)

func TestNewRGBAImage(t *testing.T) {
	img := NewRGBAImage(4, 3)
	if img.Width() != 4 || img.Height() != 3 {
		t.Fatalf("got %dx%d, want 4x3", img.Width(), img.Height())
	}
}

func TestRGBAImageGetSetRGB(t *testing.T) {
	img := NewRGBAImage(2, 2)
	img.SetRGB(1, 0, RGB{R: 10, G: 20, B: 30})
	got := img.GetRGB(1, 0)
	want := RGB{R: 10, G: 20, B: 30}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestRGBAImageClone(t *testing.T) {
	img := NewRGBAImage(2, 2)
	img.SetRGB(0, 0, RGB{R: 1, G: 2, B: 3})
	clone := img.Clone()
	clone.SetRGB(0, 0, RGB{R: 9, G: 9, B: 9})
	if img.GetRGB(0, 0) == clone.GetRGB(0, 0) {
		t.Fatal("clone shares backing array with original")
	}
}

func TestRGBAImageFromImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(1, 1, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	img := RGBAImageFromImage(src)
	if img.GetRGB(1, 1) != (RGB{R: 255, G: 0, B: 0}) {
		t.Fatalf("conversion mismatch: %+v", img.GetRGB(1, 1))
	}
}

func TestResizeNearestPreservesSolidColor(t *testing.T) {
	src := NewRGBAImage(2, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.SetRGB(x, y, RGB{R: 100, G: 150, B: 200})
		}
	}
	dst := Resize(src, 8, 8, InterpolationNearest)
	if dst.Width() != 8 || dst.Height() != 8 {
		t.Fatalf("got %dx%d, want 8x8", dst.Width(), dst.Height())
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if dst.GetRGB(x, y) != (RGB{R: 100, G: 150, B: 200}) {
				t.Fatalf("pixel (%d,%d) = %+v, want solid color", x, y, dst.GetRGB(x, y))
			}
		}
	}
}

func TestResizeToWidthPreservesAspectRatio(t *testing.T) {
	src := NewRGBAImage(10, 20)
	dst := ResizeToWidth(src, 5, InterpolationNearest)
	if dst.Width() != 5 || dst.Height() != 10 {
		t.Fatalf("got %dx%d, want 5x10", dst.Width(), dst.Height())
	}
}
