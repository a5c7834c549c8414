package xstitch

import (
	"image"
	"image/color"
	"testing"

	"github.com/needlethreading/xstitch/imageutil"
)

func TestHistogramExcludesWhite(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 255, 255, 255})
	img.Set(1, 0, color.RGBA{10, 20, 30, 255})
	img.Set(0, 1, color.RGBA{10, 20, 30, 255})
	img.Set(1, 1, color.RGBA{40, 50, 60, 255})

	hist := Histogram(img)
	if len(hist) != 2 {
		t.Fatalf("histogram has %d distinct colors, want 2", len(hist))
	}
	if hist[color.RGBA{10, 20, 30, 255}] != 2 {
		t.Fatalf("count for (10,20,30) = %d, want 2", hist[color.RGBA{10, 20, 30, 255}])
	}
}

func TestBuildLegendAssignsAscendingGlyphsByFlossCode(t *testing.T) {
	entries, err := LoadDMCCatalog("")
	if err != nil {
		t.Fatalf("LoadDMCCatalog error = %v", err)
	}
	snapper, err := NewFlossSnapper(entries)
	if err != nil {
		t.Fatalf("NewFlossSnapper error = %v", err)
	}

	hist := map[color.RGBA]int{
		{0, 0, 0, 255}:       5,
		{255, 255, 255, 255}: 3, // should never appear via Histogram, but BuildLegend doesn't filter
	}
	legend := BuildLegend(hist, snapper)
	if len(legend) != len(hist) {
		t.Fatalf("legend length = %d, want %d", len(legend), len(hist))
	}
	for i := 1; i < len(legend); i++ {
		if legend[i-1].Floss.Floss > legend[i].Floss.Floss {
			t.Fatalf("legend not sorted by floss code at index %d", i)
		}
	}
	for i, use := range legend {
		if use.Glyph != Symbols[i] {
			t.Fatalf("legend[%d].Glyph = %q, want %q", i, use.Glyph, Symbols[i])
		}
	}
}

func TestBuildLegendSortsMultiDigitFlossCodesNumerically(t *testing.T) {
	// Codes chosen so lexicographic string order ("1024" < "205" < "9")
	// disagrees with the required numeric ascending order (9 < 205 < 1024).
	entries := []DMCEntry{
		{Floss: 1024, Name: "a", RGB: imageutil.RGB{R: 10, G: 10, B: 10}, Lab: LabFromRGB(10, 10, 10)},
		{Floss: 9, Name: "b", RGB: imageutil.RGB{R: 200, G: 10, B: 10}, Lab: LabFromRGB(200, 10, 10)},
		{Floss: 205, Name: "c", RGB: imageutil.RGB{R: 10, G: 200, B: 10}, Lab: LabFromRGB(10, 200, 10)},
	}
	snapper, err := NewFlossSnapper(entries)
	if err != nil {
		t.Fatalf("NewFlossSnapper error = %v", err)
	}

	hist := map[color.RGBA]int{
		{10, 10, 10, 255}:   1,
		{200, 10, 10, 255}:  1,
		{10, 200, 10, 255}:  1,
	}
	legend := BuildLegend(hist, snapper)
	if len(legend) != 3 {
		t.Fatalf("legend length = %d, want 3", len(legend))
	}
	want := []int{9, 205, 1024}
	for i, w := range want {
		if legend[i].Floss.Floss != w {
			t.Fatalf("legend[%d].Floss.Floss = %d, want %d (numeric ascending order)", i, legend[i].Floss.Floss, w)
		}
	}
}

func TestLegendPageCountMatchesPiecewiseFormula(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{0, 1},
		{69, 1},
		{70, 2},
		{144, 2},
		{145, 3},
		{146, 3},
	}
	for _, c := range cases {
		if got := LegendPageCount(c.n); got != c.want {
			t.Errorf("LegendPageCount(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestSubdivideImageCoversWholeImageWithPartialEdgeTiles(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 75))
	tiles := SubdivideImage(img)

	wantCols, wantRows := 3, 2 // ceil(120/50)=3, ceil(75/70)=2
	if len(tiles) != wantCols*wantRows {
		t.Fatalf("tile count = %d, want %d", len(tiles), wantCols*wantRows)
	}

	var totalPixels int
	for _, tl := range tiles {
		totalPixels += tl.Image.Bounds().Dx() * tl.Image.Bounds().Dy()
	}
	if totalPixels != 120*75 {
		t.Fatalf("sum of tile pixel counts = %d, want %d", totalPixels, 120*75)
	}

	last := tiles[len(tiles)-1]
	if last.Image.Bounds().Dx() != 20 || last.Image.Bounds().Dy() != 5 {
		t.Fatalf("last tile size = %dx%d, want 20x5", last.Image.Bounds().Dx(), last.Image.Bounds().Dy())
	}
}

func TestTotalPagesAddsCoverLegendAndTilePages(t *testing.T) {
	got := TotalPages(40, 6)
	if want := 3 + 1 + 6; got != want {
		t.Fatalf("TotalPages(40, 6) = %d, want %d", got, want)
	}
}

func TestInkForColorPicksBlackOnLightBackground(t *testing.T) {
	if ink := InkForColor(color.RGBA{255, 255, 255, 255}); ink != (color.RGBA{0, 0, 0, 255}) {
		t.Fatalf("InkForColor(white) = %v, want black", ink)
	}
	if ink := InkForColor(color.RGBA{0, 0, 0, 255}); ink != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("InkForColor(black) = %v, want white", ink)
	}
}
