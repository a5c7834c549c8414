package xstitch

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/needlethreading/xstitch/imageutil"
)

// Symbols is the fixed 200-code-point glyph alphabet the composer assigns
// to colors in ascending floss-id order, carried verbatim from
// original_source/src/bin/pdfgen.rs's SYMBOLS constant.
var Symbols = [200]rune{
	'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S',
	'T', 'U', 'V', 'W', 'X', 'Y', 'Z', 'a', 'b', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'm', 'n',
	'o', 'p', 'q', 'r', 't', 'u', 'v', 'w', 'y', '1', '2', '3', '4', '5', '6', '7', '8', '9', '0',
	'❶', '❷', '❸', '❹', '❺', '❻', '❼', '❽', '❾', '❿', '➀', '➁', '➂', '➃', '➄', '➅', '➆', '➇', '➈',
	'➉', '~', '!', '@', '#', '$', '%', '&', '*', '+', '=', '✇', '✈', '✉', '✎', '✒', '✓', '✖', '✜',
	'✢', '✥', '✦', '✩', '✲', '✵', '✹', '✺', '✼', '✾', '✿', '❀', '❁', '❄', '❈', '❍', '❑', '❖', '❢',
	'❤', '❦', '➔', '➘', '➢', '➥', '➲', '➳', '➺', '➾', '◒', '◐', '◍', '◌', '◉', '◈', '▤', '▧', '◆',
	'◇', '◔', '◗', '◘', '⌘', '⍾', '⏏', '␥', '◩', '☂', '☘', '⟰', '⟲', '⟴', '⤀', '⤄', '⤒', '⤙', '⤝',
	'⤡', '⤧', '⤴', '⤹', '⥋', '⥐', '⥽', '⦁', '⦂', '⦊', '⦔', '⦛', '⦵', '⦶', '⩁', '⦸', '⦹', '⩐', '⦻',
	'⦼', '⦾', '⧀', '⧄', '⧆', '⩆', '⩌', '⩎', '⧍', '⧑', '⧖', '⧜', '⧝', '⧞', '⧢', '⧥', '⧨', '⧫', '⧬',
	'⧮', '⧲', '⨀', '⨁', '⨇', '⨊', '⨎', '⨳', '⨷', '⨿',
}

// TileSize is the output-pixel footprint of a single pattern page,
// carried from pdfgen.rs's OUTPUT_STITCH_SIZE.
var TileSize = image.Point{X: 50, Y: 70}

var white = color.RGBA{255, 255, 255, 255}

// Whitened returns a copy of img with alpha-0 pixels recolored to opaque
// white, per the composer's pre-histogram normalization step.
func Whitened(img *imageutil.RGBAImage) *imageutil.RGBAImage {
	out := img.Clone()
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := out.At(x, y).RGBA()
			if a == 0 {
				out.Set(x, y, white)
			}
		}
	}
	return out
}

// Histogram counts non-white RGBA pixel frequencies in img. White is
// treated as background and never counted, per pdfgen.rs's colors map.
func Histogram(img image.Image) map[color.RGBA]int {
	hist := make(map[color.RGBA]int)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			c := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: uint8(a >> 8)}
			if c == white {
				continue
			}
			hist[c]++
		}
	}
	return hist
}

// ColorUse is one distinct stitched color: its sRGB value, pixel count,
// matched floss entry, and assigned glyph.
type ColorUse struct {
	Color color.RGBA
	Count int
	Floss DMCEntry
	Glyph rune
}

// BuildLegend snaps every histogram color to its nearest DMC floss
// (untilted — see DESIGN.md Open Questions), sorts by floss code, and
// assigns glyphs from the fixed Symbols alphabet in that order. Matches
// pdfgen.rs's colors.sort_by_key(floss) + color_symbol_map construction.
func BuildLegend(hist map[color.RGBA]int, snapper *FlossSnapper) []ColorUse {
	uses := make([]ColorUse, 0, len(hist))
	for c, n := range hist {
		floss := snapper.Snap(LabFromRGB(c.R, c.G, c.B))
		uses = append(uses, ColorUse{Color: c, Count: n, Floss: floss})
	}
	sort.Slice(uses, func(i, j int) bool { return uses[i].Floss.Floss < uses[j].Floss.Floss })
	for i := range uses {
		if i < len(Symbols) {
			uses[i].Glyph = Symbols[i]
		}
	}
	return uses
}

// LegendPageCount returns the number of legend pages needed for n colors,
// matching pdfgen.rs's `3 + if colors<=69 {1} else {ceil((colors-69)/75)+1}`
// minus the leading 3 cover/preview pages (callers add those separately).
func LegendPageCount(n int) int {
	if n <= 69 {
		return 1
	}
	return int(math.Ceil(float64(n-69)/75.0)) + 1
}

// Tile is one 50x70 (or smaller, at the right/bottom edge) sub-image of
// the final pattern, with its tile-grid offset.
type Tile struct {
	Image  image.Image
	Offset image.Point
}

// SubdivideImage splits img into row-major TileSize tiles, the last
// column/row being a partial tile when dimensions don't divide evenly.
// Matches pdfgen.rs's sub_divide_images.
func SubdivideImage(img image.Image) []Tile {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	cols := w / TileSize.X
	if w%TileSize.X != 0 {
		cols++
	}
	rows := h / TileSize.Y
	if h%TileSize.Y != 0 {
		rows++
	}

	tiles := make([]Tile, 0, cols*rows)
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			x0 := b.Min.X + i*TileSize.X
			y0 := b.Min.Y + j*TileSize.Y
			x1 := x0 + TileSize.X
			if x1 > b.Max.X {
				x1 = b.Max.X
			}
			y1 := y0 + TileSize.Y
			if y1 > b.Max.Y {
				y1 = b.Max.Y
			}
			sub := image.NewRGBA(image.Rect(0, 0, x1-x0, y1-y0))
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					sub.Set(x-x0, y-y0, img.At(x, y))
				}
			}
			tiles = append(tiles, Tile{Image: sub, Offset: image.Point{X: i, Y: j}})
		}
	}
	return tiles
}

// TotalPages computes the full pattern page count: 3 cover/preview pages,
// plus legend pages, plus one page per tile.
func TotalPages(colorCount, tileCount int) int {
	return 3 + LegendPageCount(colorCount) + tileCount
}

// InkForColor picks black or white overlay ink by relative luminance,
// matching pdfgen.rs's gamma-2.2 luminance threshold against 0.5^2.2.
func InkForColor(c color.RGBA) color.RGBA {
	y := 0.2126*math.Pow(float64(c.R)/255.0, 2.2) +
		0.7152*math.Pow(float64(c.G)/255.0, 2.2) +
		0.0722*math.Pow(float64(c.B)/255.0, 2.2)
	if y > math.Pow(0.5, 2.2) {
		return color.RGBA{0, 0, 0, 255}
	}
	return color.RGBA{255, 255, 255, 255}
}

// FontForGlyph returns the first role in the fixed font stack order that
// can render r, matching pdfgen.rs's symbol_font_map construction.
func FontForGlyph(svc FontService, r rune) (FontRole, bool) {
	for _, role := range []FontRole{FontRegular, FontBold, FontItalic, FontSymbols, FontSymbols2} {
		if svc.ContainsGlyph(role, r) {
			return role, true
		}
	}
	return 0, false
}
