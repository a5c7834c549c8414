package chart

import (
	"image"
	"io"
	"testing"

	"github.com/needlethreading/xstitch"
)

// fakeCanvas/fakePage record page creation and per-page call counts instead
// of rendering, so composer logic can be checked without a PDF backend.
type fakeCanvas struct {
	pages []*fakePage
}

func (c *fakeCanvas) NewPage(widthMM, heightMM float64, name string) Page {
	p := &fakePage{widthMM: widthMM, heightMM: heightMM, name: name}
	c.pages = append(c.pages, p)
	return p
}

func (c *fakeCanvas) Write(w io.Writer) error { return nil }

type fakePage struct {
	widthMM, heightMM float64
	name              string
	texts             int
	rects             int
	lines             int
	images            int
}

func (p *fakePage) DrawRect(x, y, w, h float64, fill, stroke *Color)    { p.rects++ }
func (p *fakePage) DrawPolyline(points []Point, closed bool)           { p.lines++ }
func (p *fakePage) PlaceText(text string, sizePt, x, y float64, f Font, rot float64) { p.texts++ }
func (p *fakePage) PlaceImage(img image.Image, x, y, dpi float64)      { p.images++ }
func (p *fakePage) SetOutline(thicknessMM float64, color Color)        {}
func (p *fakePage) SetTextColor(color Color)                          {}

// fakeFontService renders every glyph with the regular font and reports a
// fixed width per character, avoiding any dependency on real TTF bytes.
type fakeFontService struct{}

func (fakeFontService) ContainsGlyph(role xstitch.FontRole, r rune) bool {
	return role == xstitch.FontRegular
}

func (fakeFontService) TextWidth(role xstitch.FontRole, text string, sizePt float64) float64 {
	return float64(len(text)) * sizePt * 0.5
}

func testSnapper(t *testing.T) *xstitch.FlossSnapper {
	t.Helper()
	entries, err := xstitch.LoadDMCCatalog("")
	if err != nil {
		t.Fatalf("LoadDMCCatalog error = %v", err)
	}
	snapper, err := xstitch.NewFlossSnapper(entries)
	if err != nil {
		t.Fatalf("NewFlossSnapper error = %v", err)
	}
	return snapper
}

func TestComposeEmitsCoverPreviewOverlayLegendAndTilePages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 75))
	// two non-white colors so the legend is non-trivial
	img.Set(0, 0, image.Black.At(0, 0))

	canvas := &fakeCanvas{}
	composer, err := NewComposer(canvas, FontBundle{}, fakeFontService{}, "Sampler", "")
	if err != nil {
		t.Fatalf("NewComposer error = %v", err)
	}

	snapper := testSnapper(t)
	if err := composer.Compose(img, snapper); err != nil {
		t.Fatalf("Compose error = %v", err)
	}

	tiles := xstitch.SubdivideImage(img)
	hist := xstitch.Histogram(img)
	wantPages := xstitch.TotalPages(len(hist), len(tiles))

	if len(canvas.pages) != wantPages {
		t.Fatalf("page count = %d, want %d (tiles=%d, colors=%d)", len(canvas.pages), wantPages, len(tiles), len(hist))
	}

	for i, p := range canvas.pages {
		if p.texts == 0 {
			t.Errorf("page %d (%s) placed no text", i, p.name)
		}
	}

	cover := canvas.pages[0]
	if cover.images == 0 {
		t.Errorf("cover page placed no image")
	}
	if cover.lines == 0 {
		t.Errorf("cover page drew no border")
	}
}

func TestComposeSinglePageTileImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	canvas := &fakeCanvas{}
	composer, err := NewComposer(canvas, FontBundle{}, fakeFontService{}, "Small", "by me")
	if err != nil {
		t.Fatalf("NewComposer error = %v", err)
	}
	if err := composer.Compose(img, testSnapper(t)); err != nil {
		t.Fatalf("Compose error = %v", err)
	}
	// 10x10 image is one tile of transparent black (a single histogram
	// color), so total pages = 3 + 1 legend page + 1 tile page.
	if len(canvas.pages) != 5 {
		t.Fatalf("page count = %d, want 5", len(canvas.pages))
	}
}

func TestComposeUsesLandscapePagesOnlyForWiderThanTallImages(t *testing.T) {
	cases := []struct {
		name            string
		w, h            int
		wantLandscape bool
	}{
		{"portrait-shaped image gets portrait pages", 75, 120, false},
		{"landscape-shaped image gets landscape pages", 120, 75, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tc.w, tc.h))
			canvas := &fakeCanvas{}
			composer, err := NewComposer(canvas, FontBundle{}, fakeFontService{}, "Sampler", "")
			if err != nil {
				t.Fatalf("NewComposer error = %v", err)
			}
			if err := composer.Compose(img, testSnapper(t)); err != nil {
				t.Fatalf("Compose error = %v", err)
			}

			// pages[0] is the cover (always portrait); pages[1]/[2] are the
			// preview/overlay pages, which swap width/height in landscape.
			for _, i := range []int{1, 2} {
				p := canvas.pages[i]
				gotLandscape := p.widthMM > p.heightMM
				if gotLandscape != tc.wantLandscape {
					t.Errorf("page %d (%s) widthMM=%.1f heightMM=%.1f, landscape=%v, want landscape=%v",
						i, p.name, p.widthMM, p.heightMM, gotLandscape, tc.wantLandscape)
				}
			}
		})
	}
}

func TestFontBundleByRoleSelectsFamilyAndStyle(t *testing.T) {
	b := FontBundle{Regular: []byte("r"), Bold: []byte("b")}
	if _, family, style := b.byRole(xstitch.FontBold); family != "regular" || style != "B" {
		t.Fatalf("byRole(Bold) = (%q, %q), want (regular, B)", family, style)
	}
	if _, family, style := b.byRole(xstitch.FontSymbols); family != "symbols" || style != "" {
		t.Fatalf("byRole(Symbols) = (%q, %q), want (symbols, \"\")", family, style)
	}
}

func TestRectPointsFormsClosedRectangle(t *testing.T) {
	pts := rectPoints(1, 2, 10, 20)
	if len(pts) != 4 {
		t.Fatalf("rectPoints returned %d points, want 4", len(pts))
	}
	if pts[0] != (Point{1, 2}) || pts[2] != (Point{11, 22}) {
		t.Fatalf("rectPoints corners = %v, want opposite corners (1,2) and (11,22)", pts)
	}
}
