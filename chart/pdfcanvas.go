package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/phpdave11/gofpdf"
)

// PDFCanvas implements Canvas over a gofpdf.Fpdf document, the concrete
// adapter matching pdfgen.rs's direct printpdf calls. Pages accumulate on
// a single Fpdf; NewPage adds and switches to a fresh one.
type PDFCanvas struct {
	pdf       *gofpdf.Fpdf
	fonts     map[string]bool
	imageSeq  int
}

// NewPDFCanvas creates an empty document with the given title.
func NewPDFCanvas(title string) *PDFCanvas {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	return &PDFCanvas{pdf: pdf, fonts: make(map[string]bool)}
}

// RegisterFont loads TrueType font data under the given family/style, a
// no-op if that family/style pair was already registered.
func (c *PDFCanvas) RegisterFont(family, style string, data []byte) error {
	key := family + "|" + style
	if c.fonts[key] {
		return nil
	}
	c.pdf.AddUTF8FontFromBytes(family, style, data)
	if err := c.pdf.Error(); err != nil {
		return fmt.Errorf("chart: registering font %s/%s: %w", family, style, err)
	}
	c.fonts[key] = true
	return nil
}

func (c *PDFCanvas) NewPage(widthMM, heightMM float64, name string) Page {
	orientation := "P"
	if widthMM > heightMM {
		orientation = "L"
	}
	c.pdf.AddPageFormat(orientation, gofpdf.SizeType{Wd: widthMM, Ht: heightMM})
	c.pdf.SetPageMark()
	_ = name
	return &pdfPage{canvas: c}
}

// Write emits the finished document.
func (c *PDFCanvas) Write(w io.Writer) error {
	return c.pdf.Output(w)
}

type pdfPage struct {
	canvas *PDFCanvas
}

func (p *pdfPage) DrawRect(x, y, w, h float64, fill, stroke *Color) {
	pdf := p.canvas.pdf
	style := ""
	if fill != nil {
		pdf.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
		style += "F"
	}
	if stroke != nil {
		pdf.SetDrawColor(int(stroke.R), int(stroke.G), int(stroke.B))
		style += "D"
	}
	if style == "" {
		style = "D"
	}
	pdf.Rect(x, y, w, h, style)
}

func (p *pdfPage) DrawPolyline(points []Point, closed bool) {
	if len(points) < 2 {
		return
	}
	pdf := p.canvas.pdf
	for i := 1; i < len(points); i++ {
		pdf.Line(points[i-1].X, points[i-1].Y, points[i].X, points[i].Y)
	}
	if closed {
		pdf.Line(points[len(points)-1].X, points[len(points)-1].Y, points[0].X, points[0].Y)
	}
}

func (p *pdfPage) PlaceText(text string, sizePt float64, x, y float64, font Font, rotationDeg float64) {
	pdf := p.canvas.pdf
	pdf.SetFont(font.Family, font.Style, sizePt)
	if rotationDeg == 0 {
		pdf.Text(x, y, text)
		return
	}
	pdf.TransformBegin()
	pdf.TransformRotate(rotationDeg, x, y)
	pdf.Text(x, y, text)
	pdf.TransformEnd()
}

func (p *pdfPage) PlaceImage(img image.Image, x, y, dpi float64) {
	pdf := p.canvas.pdf
	p.canvas.imageSeq++
	name := fmt.Sprintf("xstitch-img-%d", p.canvas.imageSeq)

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(name, opts, buf)

	b := img.Bounds()
	const mmPerInch = 25.4
	wMM := float64(b.Dx()) / dpi * mmPerInch
	hMM := float64(b.Dy()) / dpi * mmPerInch
	pdf.ImageOptions(name, x, y, wMM, hMM, false, opts, 0, "")
}

func (p *pdfPage) SetOutline(thicknessMM float64, color Color) {
	pdf := p.canvas.pdf
	pdf.SetLineWidth(thicknessMM)
	pdf.SetDrawColor(int(color.R), int(color.G), int(color.B))
}

// SetTextColor sets the fill color PlaceText's subsequent calls draw glyphs
// with, matching pdfgen.rs's set_fill_color-before-use_text sequencing.
func (p *pdfPage) SetTextColor(color Color) {
	p.canvas.pdf.SetTextColor(int(color.R), int(color.G), int(color.B))
}
