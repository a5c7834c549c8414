// Package chart composes a paginated cross-stitch pattern document over
// an abstract page canvas, concretely backed by a PDF writer.
package chart

import (
	"image"
	"io"
)

// Color is an 8-bit-per-channel sRGB color for shape fill/stroke.
type Color struct{ R, G, B uint8 }

// Point is a page-space coordinate, in millimeters.
type Point struct{ X, Y float64 }

// Font names one registered page font by family/style, independent of
// xstitch's FontRole so this package has no dependency on the optimizer
// package beyond what composer.go imports for pattern data.
type Font struct {
	Family string
	Style  string // "", "B", "I"
}

// Canvas is the external document-composition contract. The default
// implementation, PDFCanvas, adapts it to github.com/phpdave11/gofpdf.
type Canvas interface {
	NewPage(widthMM, heightMM float64, name string) Page
	Write(w io.Writer) error
}

// Page is a single page of the document, addressed in millimeters from
// the top-left corner.
type Page interface {
	DrawRect(x, y, w, h float64, fill, stroke *Color)
	DrawPolyline(points []Point, closed bool)
	PlaceText(text string, sizePt float64, x, y float64, font Font, rotationDeg float64)
	PlaceImage(img image.Image, x, y, dpi float64)
	SetOutline(thicknessMM float64, color Color)
	SetTextColor(color Color)
}
