package xstitch

import (
	"fmt"
	"image"
	"time"

	"github.com/needlethreading/xstitch/imageutil"
)

// Renderer encapsulates all state needed to turn a raster image into a
// DMC-floss-snapped pixelized pattern. Multiple independent renderers with
// different configurations can run concurrently, mirroring the teacher's
// own Renderer shape.
type Renderer struct {
	// Configuration options.
	MaxSide    uint16
	ColorCount uint8

	// Progress, if non-nil, is forwarded to the underlying Optimizer's
	// own Progress callback for every outer-loop iteration.
	Progress func(iteration int, totalChange, temperature float64, colorCount, varianceStreak int)

	// Palette state (private).
	catalogPath string
	snapper     *FlossSnapper

	// Stats (private).
	beginInitTime time.Time
	lastOutputW   int
	lastOutputH   int
	lastIteration int
}

// RendererOption is a functional option for configuring a Renderer.
type RendererOption func(*Renderer)

// NewRenderer creates a new Renderer with the given options applied over
// the defaults (MaxSide=100, ColorCount=24, the embedded DMC catalog).
func NewRenderer(opts ...RendererOption) (*Renderer, error) {
	r := &Renderer{
		MaxSide:       100,
		ColorCount:    24,
		beginInitTime: time.Now(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.snapper == nil {
		if err := r.loadCatalog(r.catalogPath); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// WithMaxSide sets the longer output-grid side, in stitches.
func WithMaxSide(side uint16) RendererOption {
	return func(r *Renderer) { r.MaxSide = side }
}

// WithColorCount sets the maximum palette size the optimizer may grow to.
func WithColorCount(count uint8) RendererOption {
	return func(r *Renderer) { r.ColorCount = count }
}

// WithProgress sets the per-iteration progress callback.
func WithProgress(fn func(iteration int, totalChange, temperature float64, colorCount, varianceStreak int)) RendererOption {
	return func(r *Renderer) { r.Progress = fn }
}

// WithFlossCatalog loads a DMC catalog from path instead of the embedded
// default (path is passed straight to LoadDMCCatalog, so "" also selects
// the embedded catalog).
func WithFlossCatalog(path string) RendererOption {
	return func(r *Renderer) { r.catalogPath = path }
}

func (r *Renderer) loadCatalog(path string) error {
	entries, err := LoadDMCCatalog(path)
	if err != nil {
		return fmt.Errorf("xstitch: loading floss catalog: %w", err)
	}
	snapper, err := NewFlossSnapper(entries)
	if err != nil {
		return fmt.Errorf("xstitch: building floss snapper: %w", err)
	}
	r.snapper = snapper
	return nil
}

// Snapper exposes the renderer's loaded floss catalog, for callers (e.g.
// the chart composer) that need to re-snap colors from an already-rendered
// pattern rather than render one themselves.
func (r *Renderer) Snapper() *FlossSnapper { return r.snapper }

// RenderFile decodes the image at path, runs the pixelization optimizer,
// and returns the floss-snapped output raster.
func (r *Renderer) RenderFile(path string) (*imageutil.RGBAImage, error) {
	img, err := imageutil.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("xstitch: loading input image: %w", err)
	}
	return r.Render(img)
}

// Render runs the pixelization optimizer over an already-decoded image and
// returns the floss-snapped output raster. Each output cell's alpha is the
// mean alpha of the input pixels the optimizer assigned to its superpixel,
// so a transparent input region stays transparent in the pattern output,
// for the composer's later Whitened pass to normalize.
func (r *Renderer) Render(img image.Image) (*imageutil.RGBAImage, error) {
	lab := NewLabImage(img)

	opt, err := NewOptimizer(lab, r.MaxSide, r.ColorCount)
	if err != nil {
		return nil, fmt.Errorf("xstitch: %w", err)
	}
	opt.Progress = r.Progress

	opt.Run()

	outW, outH := opt.OutputSize()
	r.lastOutputW, r.lastOutputH = outW, outH

	out := imageutil.NewRGBAImage(outW, outH)
	sps := opt.Superpixels()
	parallelFor(len(sps), func(i int) {
		sp := sps[i]
		x, y := i%outW, i/outW
		floss := r.snapper.SnapTilted(sp.AssignedColor)
		a := meanAlpha(lab, sp)
		c := floss.RGB.ToColor()
		c.A = a
		out.Set(x, y, c)
	})

	return out, nil
}

// meanAlpha averages the source alpha over a superpixel's owned input
// pixels, falling back to fully opaque when it owns nothing (can only
// happen for a degenerate, zero-sized input region).
func meanAlpha(lab *LabImage, sp *Superpixel) uint8 {
	owned := sp.owned
	if len(owned) == 0 {
		return 255
	}
	var sum int
	for _, c := range owned {
		sum += int(lab.Alpha[lab.CoordToIdx(c.X, c.Y)])
	}
	return uint8(sum / len(owned))
}

// Stats reports the most recently rendered output grid size.
func (r *Renderer) Stats() (outW, outH int) {
	return r.lastOutputW, r.lastOutputH
}
