package xstitch

import (
	"fmt"
	"math"
	"os"
	"testing"
)

// debugAssertions is on under `go test` and off in release builds — the
// closest Go analog to the source's debug_assert!, with no custom assert
// macro or build tag needed.
var debugAssertions = testing.Testing()

const (
	alpha          = 0.7
	tFinal         = 1.0
	epsilonPalette = 1.0
	epsilonCluster = 0.25
	historyLen     = 100
)

// PaletteEntry is a single palette color and its marginal probability
// (pi), the (color, weight) pair the source threads through associate,
// palette_refine, and expand.
type PaletteEntry struct {
	Color Lab
	Pi    float64
}

// Cluster is a super-cluster that may split into two distinct palette
// entries as temperature falls. After the palette collapses at k_max, B is
// set to 0 and no longer names a sibling — that degeneracy is the source's
// own behavior, not reproduced as a separate type.
type Cluster struct{ A, B int }

// Optimizer runs the deterministic-annealing pixelization loop described
// in SPEC_FULL.md §4.3, grounded on original_source/src/main.rs's `main`
// loop body plus its SuperPixel/sp_refine/associate/palette_refine/expand
// free functions.
type Optimizer struct {
	img     *LabImage
	inSize  coord
	outSize coord

	superpixels []*Superpixel
	palette     []PaletteEntry
	clusters    []Cluster
	k           int
	t           float64
	maxColors   int

	delta [2]float64 // (a, b) perturbation step, from 1.5 * PCA component

	changeHistory  *ringBuffer
	varianceHist   *ringBuffer
	varianceStreak int

	// Progress, if non-nil, receives one call per outer-loop iteration —
	// the Go equivalent of the source's per-iteration println!.
	Progress func(iteration int, totalChange, temperature float64, colorCount, varianceStreak int)
}

// NewOptimizer seeds the optimizer exactly as main() does: one superpixel
// per output cell at its input-space footprint, an initial 2-entry
// palette split by 1.5x the image's first principal axis, and an initial
// temperature of 1.1x that axis's explained variance.
func NewOptimizer(img *LabImage, maxSide uint16, colorCount uint8) (*Optimizer, error) {
	outW, outH := outputSize(img.Width, img.Height, int(maxSide))

	pca, err := img.PCA()
	if err != nil {
		return nil, fmt.Errorf("xstitch: cannot seed optimizer: %w", err)
	}

	initColor := img.AverageColor()
	o := &Optimizer{
		img:           img,
		inSize:        coord{img.Width, img.Height},
		outSize:       coord{outW, outH},
		palette:       []PaletteEntry{{Color: initColor, Pi: 0.5}, {Color: initColor, Pi: 0.5}},
		clusters:      []Cluster{{A: 0, B: 1}},
		k:             1,
		t:             1.1 * pca.ExplainedVariance,
		maxColors:     int(colorCount),
		delta:         [2]float64{pca.Component[1] * 1.5, pca.Component[2] * 1.5},
		changeHistory: newRingBuffer(historyLen),
		varianceHist:  newRingBuffer(historyLen),
	}
	o.palette[1].Color = o.palette[1].Color.Perturb(o.delta[0], o.delta[1])

	o.superpixels = make([]*Superpixel, outW*outH)
	for oy := 0; oy < outH; oy++ {
		iy := (oy * img.Height) / outH
		for ox := 0; ox < outW; ox++ {
			ix := (ox * img.Width) / outW
			o.superpixels[ox+oy*outW] = newSuperpixel(Center{ix, iy}, initColor, outW*outH, img.Width*img.Height)
		}
	}

	return o, nil
}

// outputSize computes the output grid, preserving aspect ratio against
// maxSide on the longer side, matching main()'s out_size computation
// (ceil on the shorter side).
func outputSize(inW, inH, maxSide int) (w, h int) {
	if inW >= inH {
		w = maxSide
		h = int(math.Ceil((float64(maxSide) / float64(inW)) * float64(inH)))
	} else {
		w = int(math.Ceil((float64(maxSide) / float64(inH)) * float64(inW)))
		h = maxSide
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// Run drives the outer cooling loop until temperature reaches tFinal.
func (o *Optimizer) Run() {
	iteration := 0
	for o.t > tFinal {
		o.spRefine()
		o.associate()
		totalChange := o.paletteRefine()

		o.changeHistory.push(totalChange)
		mean := o.changeHistory.runningMean()
		variance := o.changeHistory.deviation(mean)

		o.varianceHist.push(variance)
		runningVarianceAvg := o.varianceHist.runningMean()

		if math.Abs(runningVarianceAvg-variance) < 0.001 {
			o.varianceStreak++
		} else {
			o.varianceStreak = 0
		}

		if totalChange < epsilonPalette || o.varianceStreak > historyLen {
			o.varianceStreak = 0
			o.t *= alpha
			if o.k < o.maxColors {
				o.expand()
			}
		}

		if o.Progress != nil {
			o.Progress(iteration, totalChange, o.t, len(o.palette), o.varianceStreak)
		}
		iteration++
	}
}

// Palette returns the final (color, weight) pairs.
func (o *Optimizer) Palette() []PaletteEntry { return o.palette }

// Superpixels returns the final superpixel state, in output-grid
// row-major order.
func (o *Optimizer) Superpixels() []*Superpixel { return o.superpixels }

// OutputSize returns the output grid dimensions (Wout, Hout).
func (o *Optimizer) OutputSize() (w, h int) { return o.outSize.X, o.outSize.Y }

var spWindow = [9]coord{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 0}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

var laplacianWindow = [4]coord{{0, 1}, {0, -1}, {-1, 0}, {1, 0}}

// spRefine reassigns every input pixel to its lowest-cost neighboring
// superpixel, then updates each superpixel's position/color and applies
// Laplacian position smoothing and bilateral color smoothing. Grounded on
// main.rs's sp_refine.
func (o *Optimizer) spRefine() {
	for _, sp := range o.superpixels {
		sp.owned = sp.owned[:0]
	}

	outW, outH := o.outSize.X, o.outSize.Y
	inW, inH := o.inSize.X, o.inSize.Y
	n := inW * inH

	owner := make([]int32, n)
	parallelFor(n, func(idx int) {
		px := coord{idx % inW, idx / inW}
		spX := (px.X * outW) / inW
		spY := (px.Y * outH) / inH

		bestCost := math.MaxFloat64
		bestIdx := int32(-1)
		for _, d := range spWindow {
			nx, ny := spX+d.X, spY+d.Y
			if nx < 0 || ny < 0 || nx >= outW || ny >= outH {
				continue
			}
			cand := ny*outW + nx
			c := o.superpixels[cand].cost(o.img, px)
			if c < bestCost {
				bestCost = c
				bestIdx = int32(cand)
			}
		}
		owner[idx] = bestIdx
	})

	for idx, spIdx := range owner {
		px := coord{idx % inW, idx / inW}
		o.superpixels[spIdx].owned = append(o.superpixels[spIdx].owned, px)
	}

	parallelFor(len(o.superpixels), func(i int) {
		o.superpixels[i].updatePosition()
		o.superpixels[i].updateMeanColor(o.img)
	})

	newCenters := make([]Center, outW*outH)
	parallelFor(outW*outH, func(i int) {
		x, y := i%outW, i/outW
		var n int
		var sumX, sumY float64
		for _, d := range laplacianWindow {
			nx, ny := x+d.X, y+d.Y
			if nx < 0 || ny < 0 || nx >= outW || ny >= outH {
				continue
			}
			c := o.superpixels[ny*outW+nx].Center
			sumX += float64(c.X)
			sumY += float64(c.Y)
			n++
		}
		own := o.superpixels[i].Center
		if n == 0 {
			newCenters[i] = own
			return
		}
		meanX := sumX / float64(n)
		meanY := sumY / float64(n)
		newCenters[i] = Center{
			X: int(0.4*meanX + 0.6*float64(own.X)),
			Y: int(0.4*meanY + 0.6*float64(own.Y)),
		}
	})

	newColors := make([]Lab, outW*outH)
	parallelFor(outW*outH, func(i int) {
		x, y := i%outW, i/outW
		own := o.superpixels[i].MeanColor
		var weightSum float64
		var avg Lab
		for _, d := range spWindow {
			nx, ny := x+d.X, y+d.Y
			if nx < 0 || ny < 0 || nx >= outW || ny >= outH {
				continue
			}
			next := o.superpixels[ny*outW+nx].MeanColor
			weight := math.Exp(-math.Abs(own.L - next.L))
			avg = avg.Add(next.Scale(weight))
			weightSum += weight
		}
		if weightSum > 0 {
			avg = avg.Scale(1.0 / weightSum)
		}
		newColors[i] = own.Scale(0.5).Add(avg.Scale(0.5))
	})

	for i, sp := range o.superpixels {
		sp.Center = newCenters[i]
		sp.MeanColor = newColors[i]
	}
}

// associate recomputes every superpixel's conditional probability over
// the current palette, then recomputes each palette entry's marginal
// probability as a sequential sum over all superpixels. The inner sum is
// sequential per palette entry; only the outer loop over palette entries
// runs under parallelFor, so that step's concurrency is bounded by the
// palette length (which only grows via expand, capped at maxColors).
// Grounded on main.rs's associate.
func (o *Optimizer) associate() {
	parallelFor(len(o.superpixels), func(i int) {
		sp := o.superpixels[i]
		if cap(sp.CondProb) < len(o.palette) {
			sp.CondProb = make([]float64, len(o.palette))
		} else {
			sp.CondProb = sp.CondProb[:len(o.palette)]
		}
		for j, entry := range o.palette {
			sp.CondProb[j] = CondProb(entry.Color, entry.Pi, sp.MeanColor, o.t)
		}
		sp.normalizeProbs(o.palette, o.clusters, o.k)
	})

	parallelFor(len(o.palette), func(i int) {
		var pi float64
		for _, sp := range o.superpixels {
			pi += sp.CondProb[i] * sp.Prior
		}
		o.palette[i].Pi = pi
	})
}

// paletteRefine recomputes every palette entry as the probability-
// weighted mean superpixel color, returning the total Lab distance moved
// (the convergence signal driving cooling). Grounded on main.rs's
// palette_refine.
func (o *Optimizer) paletteRefine() float64 {
	totalChange := make([]float64, len(o.palette))
	parallelFor(len(o.palette), func(i int) {
		var numerator Lab
		for _, sp := range o.superpixels {
			numerator = numerator.Add(sp.MeanColor.Scale(sp.CondProb[i] * sp.Prior))
		}
		var newColor Lab
		if o.palette[i].Pi != 0 {
			newColor = numerator.Scale(1.0 / o.palette[i].Pi)
		}
		totalChange[i] = o.palette[i].Color.Distance(newColor)
		o.palette[i].Color = newColor
	})

	var sum float64
	for _, c := range totalChange {
		sum += c
	}
	return sum
}

// expand grows the palette by splitting clusters whose two colors have
// drifted apart. If k is then still below maxColors, it perturbs the
// second color of every cluster by delta; once k reaches maxColors it
// instead collapses every cluster pair into a single entry. Grounded on
// main.rs's expand.
func (o *Optimizer) expand() {
	limit := o.k
	if o.maxColors < limit {
		limit = o.maxColors
	}
	for i := 0; i < limit; i++ {
		a, b := o.clusters[i].A, o.clusters[i].B
		c1, c2 := o.palette[a], o.palette[b]

		if c1.Color.Distance(c2.Color) > epsilonCluster {
			o.k++
			c1.Pi /= 2.0
			c2.Pi /= 2.0
			o.palette[a] = c1
			o.palette[b] = c2

			o.palette = append(o.palette, c1, c2)
			newB := len(o.palette) - 1
			newA := len(o.palette) - 2
			o.clusters = append(o.clusters, Cluster{A: o.clusters[i].B, B: newB})
			o.clusters[i] = Cluster{A: o.clusters[i].A, B: newA}

			if debugAssertions {
				if d := math.Abs(o.palette[o.clusters[i].A].Pi - o.palette[o.clusters[i].B].Pi); d >= epsilonCluster {
					panic(fmt.Sprintf("xstitch: sibling pi drift %.6f exceeds epsilonCluster after split", d))
				}
				last := o.clusters[len(o.clusters)-1]
				if d := math.Abs(o.palette[last.A].Pi - o.palette[last.B].Pi); d >= epsilonCluster {
					panic(fmt.Sprintf("xstitch: sibling pi drift %.6f exceeds epsilonCluster after split", d))
				}
			}
		}
	}

	if o.k >= o.maxColors {
		newPalette := make([]PaletteEntry, o.k)
		newClusters := make([]Cluster, o.k)
		for i := 0; i < o.k; i++ {
			c1 := o.palette[o.clusters[i].A]
			c2 := o.palette[o.clusters[i].B]
			newPalette[i] = PaletteEntry{Color: c1.Color.Add(c2.Color).Scale(0.5), Pi: c1.Pi + c2.Pi}
			newClusters[i] = Cluster{A: i, B: 0}
		}
		o.palette = newPalette
		o.clusters = newClusters
	} else {
		for i := 0; i < o.k; i++ {
			idx := o.clusters[i].B
			o.palette[idx].Color = o.palette[idx].Color.Perturb(o.delta[0], o.delta[1])
		}
	}
}

// LogProgress is the default Progress callback, writing one line per
// iteration to stderr in the source's own println! shape.
func LogProgress(iteration int, totalChange, temperature float64, colorCount, varianceStreak int) {
	fmt.Fprintf(os.Stderr, "%d: Total Change: %.3f, k: %d, t: %.3f, variance count: %d\n",
		iteration, totalChange, colorCount, temperature, varianceStreak)
}
