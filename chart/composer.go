package chart

import (
	"fmt"
	"image"
	"image/color"

	"github.com/needlethreading/xstitch"
	"github.com/needlethreading/xstitch/imageutil"
)

const (
	portraitWidthMM  = 210.0
	portraitHeightMM = 297.0
	dpi              = 300.0
	dotsPerMM        = dpi / 25.4
	imagePaddingMM   = 5.0
	maxImageScale    = 58

	// Per-cell glyph offset from a cell's top-left corner, as a fraction
	// of cell width/height. Carried verbatim from pdfgen.rs:1287,1292.
	glyphOffsetX = 0.43211062
	glyphOffsetY = 0.720184367
)

// FontBundle names the TrueType data backing each of the composer's fixed
// font roles, matching pdfgen.rs's REGULAR/BOLD/ITALIC/FONT_SYMBOLS/
// FONT_SYMBOLS_2 constants.
type FontBundle struct {
	Regular, Bold, Italic, Symbols, Symbols2 []byte
}

func (b FontBundle) byRole(role xstitch.FontRole) (data []byte, family, style string) {
	switch role {
	case xstitch.FontBold:
		return b.Bold, "regular", "B"
	case xstitch.FontItalic:
		return b.Italic, "regular", "I"
	case xstitch.FontSymbols:
		return b.Symbols, "symbols", ""
	case xstitch.FontSymbols2:
		return b.Symbols2, "symbols2", ""
	default:
		return b.Regular, "regular", ""
	}
}

func (b FontBundle) font(role xstitch.FontRole) Font {
	_, family, style := b.byRole(role)
	return Font{Family: family, Style: style}
}

// Composer drives the full cover → preview → overlay → legend → tile page
// sequence over a Canvas, translated from pdfgen.rs's generate_pdf.
type Composer struct {
	Canvas  Canvas
	Fonts   FontBundle
	FontSvc xstitch.FontService
	Title   string
	By      string
}

// NewComposer registers the font bundle on canvas and returns a Composer
// ready to build a pattern document.
func NewComposer(canvas Canvas, fonts FontBundle, fontSvc xstitch.FontService, title, by string) (*Composer, error) {
	pdfCanvas, ok := canvas.(*PDFCanvas)
	if ok {
		for _, role := range []xstitch.FontRole{
			xstitch.FontRegular, xstitch.FontBold, xstitch.FontItalic,
			xstitch.FontSymbols, xstitch.FontSymbols2,
		} {
			data, family, style := fonts.byRole(role)
			if len(data) == 0 {
				continue
			}
			if err := pdfCanvas.RegisterFont(family, style, data); err != nil {
				return nil, fmt.Errorf("chart: %w", err)
			}
		}
	}
	return &Composer{Canvas: canvas, Fonts: fonts, FontSvc: fontSvc, Title: title, By: by}, nil
}

// Compose builds the entire document for img and writes all of its pages
// to the canvas. Fonts are registered earlier, by NewComposer.
func (c *Composer) Compose(img image.Image, snapper *xstitch.FlossSnapper) error {
	hist := xstitch.Histogram(img)
	legend := xstitch.BuildLegend(hist, snapper)
	glyphOf := make(map[color.RGBA]rune, len(legend))
	for _, use := range legend {
		glyphOf[use.Color] = use.Glyph
	}

	tiles := xstitch.SubdivideImage(img)
	totalPages := xstitch.TotalPages(len(legend), len(tiles))

	b := img.Bounds()
	landscape := b.Dx() > b.Dy() // matches pdfgen.rs's `if img.height() >= img.width() { Portrait } else { Landscape }`

	c.renderCover(img, 1, totalPages)
	c.renderPreview(img, 2, totalPages, landscape)
	c.renderOverlay(img, glyphOf, 3, totalPages, landscape)
	c.renderLegendPages(legend, 4, totalPages)
	c.renderTiles(tiles, glyphOf, totalPages)

	return nil
}

func (c *Composer) renderCover(img image.Image, pageNum, totalPages int) {
	page := c.Canvas.NewPage(portraitWidthMM, portraitHeightMM, "cover")

	const margin = 5.0
	page.DrawPolyline(rectPoints(margin, margin, portraitWidthMM-2*margin, portraitHeightMM-2*margin), true)

	centerX := portraitWidthMM / 2.0
	c.centeredText(page, c.Title, 30, centerX, portraitHeightMM-30, xstitch.FontBold)

	topOffset := 42.0
	if c.By != "" {
		topOffset = 45.0
		c.centeredText(page, c.By, 30, centerX, portraitHeightMM-45, xstitch.FontItalic)
	} else {
		c.centeredText(page, "Original Pattern", 24, centerX, portraitHeightMM-42, xstitch.FontItalic)
	}

	c.centeredText(page, "Cross-Stitch Pattern", 24, centerX, portraitHeightMM-250, xstitch.FontRegular)
	c.centeredText(page, "BY", 24, centerX, portraitHeightMM-260, xstitch.FontRegular)
	c.centeredText(page, "needlethreading", 24, centerX, portraitHeightMM-270, xstitch.FontRegular)
	c.centeredText(page, fmt.Sprintf("%d / %d", pageNum, totalPages), 18, centerX, portraitHeightMM-285, xstitch.FontBold)

	c.placeImageFitted(page, img, margin, portraitWidthMM-margin, topOffset, 245.0, portraitHeightMM)
}

func (c *Composer) renderPreview(img image.Image, pageNum, totalPages int, landscape bool) {
	w, h := portraitWidthMM, portraitHeightMM
	if landscape {
		w, h = h, w
	}
	page := c.Canvas.NewPage(w, h, "preview")

	c.leftText(page, c.Title, 16, 10, h-15)
	c.rightText(page, "needlethreading", 16, w-10, h-15)
	c.centeredText(page, fmt.Sprintf("%d / %d", pageNum, totalPages), 18, w/2.0, h-290)

	c.placeImageFitted(page, img, 0, w, 10, h-10, h-5)
}

func (c *Composer) renderOverlay(img image.Image, glyphOf map[color.RGBA]rune, pageNum, totalPages int, landscape bool) {
	w, h := portraitWidthMM, portraitHeightMM
	if landscape {
		w, h = h, w
	}
	page := c.Canvas.NewPage(w, h, "overlay")

	c.leftText(page, c.Title, 16, 10, h-15)
	c.rightText(page, "needlethreading", 16, w-10, h-15)
	c.centeredText(page, fmt.Sprintf("%d / %d", pageNum, totalPages), 18, w/2.0, h-290)

	left, right, top, bottom := 0.0, w, 20.0, h
	geo := c.placeImageFitted(page, img, left, right, top, bottom, h)
	c.drawOverlayGrid(page, img, image.Point{}, geo, glyphOf)
}

func (c *Composer) renderLegendPages(legend []xstitch.ColorUse, startPage, totalPages int) {
	page := c.Canvas.NewPage(portraitWidthMM, portraitHeightMM, "threads")
	c.leftText(page, c.Title, 16, 10, portraitHeightMM-15)
	c.rightText(page, "needlethreading", 16, portraitWidthMM-10, portraitHeightMM-15)
	c.centeredText(page, fmt.Sprintf("%d / %d", startPage, totalPages), 18, portraitWidthMM/2.0, portraitHeightMM-285)

	top := 50.0
	row, col := 0, 0
	pageIdx := startPage
	for _, use := range legend {
		if (portraitHeightMM-top)-10.0*float64(row)-3.5 < 20.0 {
			row = 0
			col++
		}
		if col > 2 {
			pageIdx++
			page = c.Canvas.NewPage(portraitWidthMM, portraitHeightMM, "threads")
			c.leftText(page, c.Title, 16, 10, portraitHeightMM-15)
			c.rightText(page, "needlethreading", 16, portraitWidthMM-10, portraitHeightMM-15)
			c.centeredText(page, fmt.Sprintf("%d / %d", pageIdx, totalPages), 18, portraitWidthMM/2.0, portraitHeightMM-285)
			top = 25.0
			row, col = 0, 0
		}

		swatch := Color{R: use.Color.R, G: use.Color.G, B: use.Color.B}
		x := 15.0 + 65.0*float64(col)
		y := portraitHeightMM - top - 10.0*float64(row)
		page.DrawRect(x, y-6, 10, 6, &swatch, &swatch)

		glyphFont := c.glyphFont(use.Glyph)
		page.SetTextColor(inkColor(use.Color))
		page.PlaceText(string(use.Glyph), 12, x+0.25, y-1.5, glyphFont, 0)
		page.SetTextColor(Color{0, 0, 0})

		label := fmt.Sprintf("%d (%d ct)", use.Floss.Floss, use.Count)
		page.PlaceText(label, 16, x+17, y-2, c.Fonts.font(xstitch.FontRegular), 0)

		row++
	}
}

func (c *Composer) renderTiles(tiles []xstitch.Tile, glyphOf map[color.RGBA]rune, totalPages int) {
	for i, tile := range tiles {
		page := c.Canvas.NewPage(portraitWidthMM, portraitHeightMM, "tile")
		c.leftText(page, c.Title, 16, 10, portraitHeightMM-15)
		c.rightText(page, "needlethreading", 16, portraitWidthMM-10, portraitHeightMM-15)
		pageNum := totalPages - len(tiles) + i + 1
		c.centeredText(page, fmt.Sprintf("%d / %d", pageNum, totalPages), 18, portraitWidthMM/2.0, portraitHeightMM-285)

		geo := c.placeImageFitted(page, tile.Image, 0, portraitWidthMM, 0, portraitHeightMM-40, portraitHeightMM-20)
		c.drawOverlayGrid(page, tile.Image, tile.Offset, geo, glyphOf)
	}
}

// imageGeometry is the page-space placement computed for a fitted image,
// reused by the overlay grid pass that draws on top of it.
type imageGeometry struct {
	scale      int
	translateX float64
	translateY float64
	widthMM    float64
	heightMM   float64
}

// placeImageFitted draws img nearest-neighbor-scaled to the largest
// integer factor (capped at 58, matching pdfgen.rs's render_image_centered)
// that fits within the region, centered within it.
func (c *Composer) placeImageFitted(page Page, img image.Image, left, right, top, bottom, height float64) imageGeometry {
	b := img.Bounds()
	size := [2]float64{float64(b.Dx()), float64(b.Dy())}
	screen := [2]float64{
		(right - (left + imagePaddingMM*2)) * dotsPerMM,
		(bottom - (top + imagePaddingMM*2)) * dotsPerMM,
	}

	scale := int(minF(screen[0]/size[0], screen[1]/size[1]))
	if scale > maxImageScale {
		scale = maxImageScale
	}
	if scale < 1 {
		scale = 1
	}

	scaled := imageutil.Resize(imageutil.RGBAImageFromImage(img), b.Dx()*scale, b.Dy()*scale, imageutil.InterpolationNearest)

	translateX := (screen[0] - size[0]*float64(scale)) / 2.0
	translateY := (screen[1] - size[1]*float64(scale)) / 2.0

	x := translateX/dotsPerMM + left + imagePaddingMM
	y := translateY/dotsPerMM + (height - bottom) + imagePaddingMM

	page.PlaceImage(scaled, x, y, dpi)

	return imageGeometry{
		scale:      scale,
		translateX: x,
		translateY: y,
		widthMM:    float64(b.Dx()*scale) / dotsPerMM,
		heightMM:   float64(b.Dy()*scale) / dotsPerMM,
	}
}

// drawOverlayGrid draws the 10-stitch grid lines, coordinate labels, and
// per-cell glyph markers over an already-placed image, matching pdfgen.rs's
// draw_image_overlay.
func (c *Composer) drawOverlayGrid(page Page, img image.Image, offset image.Point, geo imageGeometry, glyphOf map[color.RGBA]rune) {
	const grid = 10
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	stepMM := float64(grid*geo.scale) / dotsPerMM
	cellMM := stepMM / grid

	page.SetOutline(0.1, Color{99, 99, 99})
	for i := 0; i <= w; i++ {
		x := geo.translateX + cellMM*float64(i)
		page.DrawPolyline([]Point{{X: x, Y: geo.translateY}, {X: x, Y: geo.translateY + geo.heightMM}}, false)
	}
	for j := 0; j <= h; j++ {
		y := geo.translateY + cellMM*float64(j)
		page.DrawPolyline([]Point{{X: geo.translateX, Y: y}, {X: geo.translateX + geo.widthMM, Y: y}}, false)
	}

	page.SetOutline(1.0, Color{0, 0, 0})
	sectionsX, sectionsY := w/grid, h/grid
	for i := 1; i <= sectionsX; i++ {
		x := geo.translateX + stepMM*float64(i)
		page.DrawPolyline([]Point{{X: x, Y: geo.translateY}, {X: x, Y: geo.translateY + geo.heightMM}}, false)
		c.centeredText(page, fmt.Sprintf("%d", 10*i+offset.X*xstitch.TileSize.X), 8, x, geo.translateY+geo.heightMM+1)
	}
	for j := 0; j < sectionsY; j++ {
		y := geo.translateY + stepMM*float64(j)
		page.DrawPolyline([]Point{{X: geo.translateX, Y: y}, {X: geo.translateX + geo.widthMM, Y: y}}, false)
		c.centeredText(page, fmt.Sprintf("%d", 10*(sectionsY-j)+offset.Y*xstitch.TileSize.Y), 8, geo.translateX-1, y)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			c8 := color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(bl >> 8), uint8(a >> 8)}
			if c8 == (color.RGBA{255, 255, 255, 255}) {
				continue
			}
			glyph, ok := glyphOf[c8]
			if !ok {
				continue
			}
			cx := geo.translateX + cellMM*float64(x) + cellMM*glyphOffsetX
			cy := geo.translateY + cellMM*float64(y) + cellMM*glyphOffsetY
			page.SetTextColor(inkColor(c8))
			c.centeredText(page, string(glyph), cellMM*2, cx, cy, c.glyphRoleFor(glyph))
		}
	}
	page.SetTextColor(Color{0, 0, 0})
}

// inkColor converts xstitch's black/white overlay-ink choice for background
// c into a chart.Color.
func inkColor(c color.RGBA) Color {
	ink := xstitch.InkForColor(c)
	return Color{ink.R, ink.G, ink.B}
}

func (c *Composer) glyphRoleFor(r rune) xstitch.FontRole {
	role, ok := xstitch.FontForGlyph(c.FontSvc, r)
	if !ok {
		return xstitch.FontRegular
	}
	return role
}

func (c *Composer) glyphFont(r rune) Font {
	return c.Fonts.font(c.glyphRoleFor(r))
}

func (c *Composer) centeredText(page Page, text string, sizePt, x, y float64, role ...xstitch.FontRole) {
	f := c.Fonts.font(pick(role, xstitch.FontRegular))
	width := c.FontSvc.TextWidth(pick(role, xstitch.FontRegular), text, sizePt) / ptPerMM / 2.1
	page.PlaceText(text, sizePt, x-width/2.0, y, f, 0)
}

func (c *Composer) leftText(page Page, text string, sizePt, x, y float64) {
	page.PlaceText(text, sizePt, x, y, c.Fonts.font(xstitch.FontRegular), 0)
}

func (c *Composer) rightText(page Page, text string, sizePt, x, y float64) {
	width := c.FontSvc.TextWidth(xstitch.FontBold, text, sizePt) / ptPerMM / 2.1
	page.PlaceText(text, sizePt, x-width, y, c.Fonts.font(xstitch.FontBold), 0)
}

const ptPerMM = 72.0 / 25.4

func rectPoints(x, y, w, h float64) []Point {
	return []Point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func pick(roles []xstitch.FontRole, def xstitch.FontRole) xstitch.FontRole {
	if len(roles) > 0 {
		return roles[0]
	}
	return def
}
