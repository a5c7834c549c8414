package xstitch

import "math"

// coord is an integer 2-D coordinate, used for both input-pixel and
// output-grid positions.
type coord struct{ X, Y int }

// Superpixel is a single output-pixel's aggregate state: the region of
// input pixels it currently owns, the color that region averages to, and
// its distribution over the active palette. Grounded on
// original_source/src/main.rs's SuperPixel.
type Superpixel struct {
	// Center is this superpixel's position, in INPUT pixel space — not
	// output-grid space. It seeds to the output cell's input-space
	// footprint and is refined every pass by Laplacian smoothing.
	Center Center
	// AssignedColor is the current best palette entry for this
	// superpixel (the argmax of CondProb, set by normalizeProbs).
	AssignedColor Lab
	// Prior is p(s) = 1 / (Wout*Hout), constant for the superpixel's
	// lifetime.
	Prior float64
	// owned holds input-pixel coordinates assigned to this superpixel by
	// the most recent spRefine pass.
	owned []coord
	// CondProb is this superpixel's probability over the current
	// palette; resized and recomputed every associate pass.
	CondProb []float64
	// MeanColor is the mean Lab color of owned input pixels (sp_color in
	// the source), falling back to OriginalColor when owned is empty.
	MeanColor Lab

	OriginalCenter Center
	OriginalColor  Lab

	// n/m mirror the source's SuperPixel.n (output pixel count) and .m
	// (input pixel count), used by the spatial cost term's sqrt(n/m)
	// scale factor.
	n, m float64
}

// Center is an input-pixel-space position. A distinct type from coord
// keeps the "superpixel center" from being accidentally mixed with the
// plain coord values used for owned pixels and output-grid positions,
// even though both are plain (int,int) pairs.
type Center struct{ X, Y int }

func (c Center) toCoord() coord { return coord{c.X, c.Y} }

// newSuperpixel seeds a superpixel at the given input-space center with
// the palette's shared initial color.
func newSuperpixel(center Center, initColor Lab, outPixels, inPixels int) *Superpixel {
	return &Superpixel{
		Center:         center,
		AssignedColor:  initColor,
		Prior:          1.0 / float64(outPixels),
		CondProb:       []float64{0.5, 0.5},
		OriginalCenter: center,
		OriginalColor:  initColor,
		n:              float64(outPixels),
		m:              float64(inPixels),
	}
}

// cost is the assignment cost of claiming input pixel `px` (in input
// space) for this superpixel: a Lab color term plus a spatially-scaled
// Euclidean distance term, matching SuperPixel::cost in the source.
func (s *Superpixel) cost(img *LabImage, px coord) float64 {
	cDiff := img.At(px.X, px.Y).Distance(s.AssignedColor)
	dx := float64(s.Center.X - px.X)
	dy := float64(s.Center.Y - px.Y)
	spatialDiff := math.Sqrt(dx*dx + dy*dy)
	return cDiff + 45.0*math.Sqrt(s.n/s.m)*spatialDiff
}

// normalizeProbs normalizes CondProb to sum to 1 and sets AssignedColor
// to the palette entry whose pre-normalization probability was the
// (last-seen) maximum. It also performs the source's dead cluster-
// aggregate scan: a per-cluster mean color and probability are computed
// but never assigned anywhere, matching main.rs's commented-out
// `// self.palette_color = color;`. That scan is kept, not deleted,
// since removing it would silently change the reference's observed
// (if pointless) computation cost. See DESIGN.md Open Questions.
func (s *Superpixel) normalizeProbs(palette []PaletteEntry, clusters []Cluster, k int) {
	var denom float64
	hi := s.CondProb[0]
	for _, p := range s.CondProb {
		denom += p
		if p > hi {
			hi = p
		}
	}

	for i, p := range s.CondProb {
		if p == hi {
			s.AssignedColor = palette[i].Color
		}
		s.CondProb[i] = p / denom
	}

	hiProb := -1.0
	for i := 0; i < k; i++ {
		cl := clusters[i]
		var color Lab
		var prob float64
		for _, ci := range [2]int{cl.A, cl.B} {
			cur := palette[ci]
			color = color.Add(cur.Color)
			prob += cur.Pi
		}
		color = color.Scale(1.0 / 2.0)
		if prob > hiProb {
			hiProb = prob
			// Intentionally discarded: the source never assigns `color`
			// to anything here either.
			_ = color
		}
	}
}

// updatePosition recomputes Center as the mean of owned input-pixel
// coordinates, or falls back to OriginalCenter when this superpixel
// currently owns nothing.
func (s *Superpixel) updatePosition() {
	if len(s.owned) == 0 {
		s.Center = s.OriginalCenter
		return
	}
	var sx, sy int
	for _, c := range s.owned {
		sx += c.X
		sy += c.Y
	}
	s.Center = Center{X: sx / len(s.owned), Y: sy / len(s.owned)}
}

// updateMeanColor recomputes MeanColor as the mean Lab of owned input
// pixels, or falls back to OriginalColor when empty.
func (s *Superpixel) updateMeanColor(img *LabImage) {
	if len(s.owned) == 0 {
		s.MeanColor = s.OriginalColor
		return
	}
	colors := make([]Lab, len(s.owned))
	for i, c := range s.owned {
		colors[i] = img.At(c.X, c.Y)
	}
	s.MeanColor = MeanLab(colors)
}
