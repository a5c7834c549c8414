package xstitch

import (
	"fmt"
	"image"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/needlethreading/xstitch/imageutil"
)

// LabImage is an immutable, row-major buffer of Lab pixels decoded from an
// input raster. It is the optimizer's only view of the source image.
type LabImage struct {
	Width, Height int
	Pixels        []Lab
	// Alpha mirrors the source image's alpha channel so the pattern
	// composer can recolor fully-transparent input pixels to opaque
	// white, per spec.
	Alpha []uint8
}

// NewLabImage converts a decoded raster image to Lab space under D65.
func NewLabImage(img image.Image) *LabImage {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	li := &LabImage{
		Width:  w,
		Height: h,
		Pixels: make([]Lab, w*h),
		Alpha:  make([]uint8, w*h),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := li.CoordToIdx(x, y)
			li.Pixels[idx] = LabFromRGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			li.Alpha[idx] = uint8(a >> 8)
		}
	}
	return li
}

// CoordToIdx converts a 2-D coordinate to a row-major index.
func (li *LabImage) CoordToIdx(x, y int) int {
	return x + li.Width*y
}

// At returns the Lab pixel at (x, y).
func (li *LabImage) At(x, y int) Lab {
	return li.Pixels[li.CoordToIdx(x, y)]
}

// AverageColor returns the mean Lab color over the whole image.
func (li *LabImage) AverageColor() Lab {
	return MeanLab(li.Pixels)
}

// PCAResult holds the first principal component and its explained variance
// over the image's (L, a, b) point cloud, centered at the mean.
type PCAResult struct {
	Component        [3]float64
	ExplainedVariance float64
}

// PCA computes the first principal component of the image's Lab point
// cloud. It fails on a degenerate input (e.g. a perfectly flat, single
// color image) where the covariance matrix has no meaningful leading
// eigenvector — the optimizer has no principled seed direction in that
// case, so this is reported rather than silently defaulted.
func (li *LabImage) PCA() (PCAResult, error) {
	n := len(li.Pixels)
	if n < 2 {
		return PCAResult{}, fmt.Errorf("xstitch: PCA requires at least 2 pixels, got %d", n)
	}

	data := mat.NewDense(n, 3, nil)
	for i, c := range li.Pixels {
		data.Set(i, 0, c.L)
		data.Set(i, 1, c.A)
		data.Set(i, 2, c.B)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)

	var eig mat.EigenSym
	if ok := eig.Factorize(&cov, true); !ok {
		return PCAResult{}, fmt.Errorf("xstitch: PCA eigendecomposition failed (degenerate input image)")
	}

	values := eig.Values(nil)
	// gonum orders eigenvalues ascending; the first principal component
	// is the eigenvector of the largest eigenvalue, the last column.
	bestIdx := 0
	bestVal := values[0]
	for i, v := range values {
		if v > bestVal {
			bestVal = v
			bestIdx = i
		}
	}
	if bestVal <= 0 {
		return PCAResult{}, fmt.Errorf("xstitch: PCA explained variance is non-positive (degenerate/flat input image)")
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)
	return PCAResult{
		Component:         [3]float64{vectors.At(0, bestIdx), vectors.At(1, bestIdx), vectors.At(2, bestIdx)},
		ExplainedVariance: bestVal,
	}, nil
}

// ToRGBAImage renders the Lab buffer back to an 8-bit sRGB raster, used
// for diagnostic preview output and as the composer's starting point.
func (li *LabImage) ToRGBAImage() *imageutil.RGBAImage {
	out := imageutil.NewRGBAImage(li.Width, li.Height)
	for y := 0; y < li.Height; y++ {
		for x := 0; x < li.Width; x++ {
			r, g, b := li.At(x, y).RGB()
			out.SetRGB(x, y, imageutil.RGB{R: r, G: g, B: b})
		}
	}
	return out
}
