package xstitch

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
)

// FontRole names one of the composer's fixed font slots. The pattern
// composer always queries roles in this order when assigning a glyph to a
// symbol, matching pdfgen.rs's `fonts` array.
type FontRole int

const (
	FontRegular FontRole = iota
	FontBold
	FontItalic
	FontSymbols
	FontSymbols2
)

func (r FontRole) String() string {
	switch r {
	case FontRegular:
		return "regular"
	case FontBold:
		return "bold"
	case FontItalic:
		return "italic"
	case FontSymbols:
		return "symbols"
	case FontSymbols2:
		return "symbols2"
	default:
		return "unknown"
	}
}

// FontService answers whether a font in the fixed stack can render a given
// rune, and measures how wide a string renders at a point size — the two
// primitives the pattern composer and chart composer need, generalized
// from the teacher's font_bitmap.go glyph-rendering machinery (which
// answered a narrower "can this 8x8 cell render it" question).
type FontService interface {
	ContainsGlyph(role FontRole, r rune) bool
	TextWidth(role FontRole, text string, sizePt float64) float64
}

// sfntFontService is the default FontService, backed by
// golang.org/x/image/font/sfnt for glyph-coverage queries and
// github.com/golang/freetype/truetype for width measurement, mirroring
// the teacher's go.mod pairing of those two libraries.
type sfntFontService struct {
	mu     sync.Mutex
	byRole map[FontRole]*loadedFont
}

type loadedFont struct {
	sfnt   *sfnt.Font
	ttf    *truetype.Font
	buffer sfnt.Buffer
}

// NewFontService parses the TrueType data supplied for each role. A role
// with no data behaves as if it contains no glyphs (ContainsGlyph always
// false) rather than erroring — callers may legitimately run without the
// symbol fonts installed.
func NewFontService(data map[FontRole][]byte) (FontService, error) {
	svc := &sfntFontService{byRole: make(map[FontRole]*loadedFont, len(data))}
	for role, b := range data {
		if len(b) == 0 {
			continue
		}
		sf, err := sfnt.Parse(b)
		if err != nil {
			return nil, fmt.Errorf("xstitch: parsing font for role %s: %w", role, err)
		}
		ttf, err := freetype.ParseFont(b)
		if err != nil {
			return nil, fmt.Errorf("xstitch: parsing font for role %s (truetype): %w", role, err)
		}
		svc.byRole[role] = &loadedFont{sfnt: sf, ttf: ttf}
	}
	return svc, nil
}

// LoadFontServiceFromFiles reads TTF data from disk for each role path
// supplied, skipping roles whose path is empty.
func LoadFontServiceFromFiles(paths map[FontRole]string) (FontService, error) {
	data := make(map[FontRole][]byte, len(paths))
	for role, p := range paths {
		if p == "" {
			continue
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("xstitch: reading font file %q for role %s: %w", p, role, err)
		}
		data[role] = b
	}
	return NewFontService(data)
}

// ContainsGlyph reports whether the font loaded for role has a glyph for r.
func (s *sfntFontService) ContainsGlyph(role FontRole, r rune) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	lf, ok := s.byRole[role]
	if !ok {
		return false
	}
	idx, err := lf.sfnt.GlyphIndex(&lf.buffer, r)
	if err != nil {
		return false
	}
	return idx != 0
}

// TextWidth measures the advance width, in points, of text rendered at
// sizePt in the given role's font. Matches pdfgen.rs's
// render_centered_text width measurement via rusttype, using freetype's
// truetype face metrics as the Go equivalent.
func (s *sfntFontService) TextWidth(role FontRole, text string, sizePt float64) float64 {
	s.mu.Lock()
	lf, ok := s.byRole[role]
	s.mu.Unlock()
	if !ok {
		return 0
	}

	face := truetype.NewFace(lf.ttf, &truetype.Options{
		Size:    sizePt,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()

	var width fixedInt
	prev := rune(-1)
	for _, r := range text {
		if prev >= 0 {
			width += fixedInt(face.Kern(prev, r))
		}
		adv, ok := face.GlyphAdvance(r)
		if ok {
			width += fixedInt(adv)
		}
		prev = r
	}
	return width.toFloat()
}

// fixedInt accumulates font.Fixed (26.6 fixed point) advances without
// pulling in the golang.org/x/image/math/fixed package's full API surface
// for a single conversion.
type fixedInt int64

func (f fixedInt) toFloat() float64 {
	return float64(f) / 64.0
}
