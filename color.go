package xstitch

import "math"

// Lab is a color in the CIE L*a*b* color space. Values are not clamped to
// the display gamut; intermediate optimizer state routinely drifts outside
// the range a real sRGB color could produce.
type Lab struct {
	L, A, B float64
}

var (
	sRGBToLinearLookup [256]float64
	linearToSRGBLookup [1024]uint8
)

func init() {
	for i := 0; i < 256; i++ {
		f := float64(i) / 255.0
		if f > 0.04045 {
			sRGBToLinearLookup[i] = math.Pow((f+0.055)/1.055, 2.4)
		} else {
			sRGBToLinearLookup[i] = f / 12.92
		}
	}

	for i := 0; i < 1024; i++ {
		f := float64(i) / 1023.0
		if f > 0.0031308 {
			linearToSRGBLookup[i] = uint8(math.Min(255, math.Round(255*(1.055*math.Pow(f, 1/2.4)-0.055))))
		} else {
			linearToSRGBLookup[i] = uint8(math.Min(255, math.Round(f*12.92*255)))
		}
	}
}

// LabFromRGB converts an 8-bit sRGB color to CIE L*a*b* under the D65
// white point.
func LabFromRGB(r, g, b uint8) Lab {
	rl := sRGBToLinearLookup[r]
	gl := sRGBToLinearLookup[g]
	bl := sRGBToLinearLookup[b]

	x := rl*0.4124564 + gl*0.3575761 + bl*0.1804375
	y := rl*0.2126729 + gl*0.7151522 + bl*0.0721750
	z := rl*0.0193339 + gl*0.1191920 + bl*0.9503041

	x /= 0.95047
	y /= 1.00000
	z /= 1.08883

	fx := labf(x)
	fy := labf(y)
	fz := labf(z)

	return Lab{
		L: 116.0*fy - 16.0,
		A: 500.0 * (fx - fy),
		B: 200.0 * (fy - fz),
	}
}

func labf(t float64) float64 {
	if t > 0.008856 {
		return math.Pow(t, 1.0/3.0)
	}
	return 7.787*t + 16.0/116.0
}

// RGB converts back to 8-bit sRGB, clamping out-of-gamut values.
func (c Lab) RGB() (r, g, b uint8) {
	y := (c.L + 16.0) / 116.0
	x := c.A/500.0 + y
	z := y - c.B/200.0

	x = labfInv(x) * 0.95047
	y = labfInv(y) * 1.00000
	z = labfInv(z) * 1.08883

	rl := x*3.2404542 - y*1.5371385 - z*0.4985314
	gl := -x*0.9692660 + y*1.8760108 + z*0.0415560
	bl := x*0.0556434 - y*0.2040259 + z*1.0572252

	return linearToSRGBLookup[clampLinearIdx(rl)],
		linearToSRGBLookup[clampLinearIdx(gl)],
		linearToSRGBLookup[clampLinearIdx(bl)]
}

func clampLinearIdx(f float64) int {
	return int(math.Min(math.Max(f, 0), 1) * 1023)
}

func labfInv(t float64) float64 {
	if t > 0.206893 {
		return t * t * t
	}
	return (t - 16.0/116.0) / 7.787
}

// Add returns the element-wise sum.
func (c Lab) Add(o Lab) Lab {
	return Lab{c.L + o.L, c.A + o.A, c.B + o.B}
}

// Sub returns the element-wise difference.
func (c Lab) Sub(o Lab) Lab {
	return Lab{c.L - o.L, c.A - o.A, c.B - o.B}
}

// Scale multiplies every channel by s.
func (c Lab) Scale(s float64) Lab {
	return Lab{c.L * s, c.A * s, c.B * s}
}

// ScaleVec multiplies each channel by the corresponding component of s,
// used for the asymmetric (1.0, 1.1, 1.1) tilt applied before floss
// snapping.
func (c Lab) ScaleVec(sl, sa, sb float64) Lab {
	return Lab{c.L * sl, c.A * sa, c.B * sb}
}

// Distance is the CIE76 Euclidean distance between two Lab colors.
func (c Lab) Distance(o Lab) float64 {
	dl := c.L - o.L
	da := c.A - o.A
	db := c.B - o.B
	return math.Sqrt(dl*dl + da*da + db*db)
}

// SquaredDistance avoids the square root for nearest-neighbor comparisons
// where only relative ordering matters.
func (c Lab) SquaredDistance(o Lab) float64 {
	dl := c.L - o.L
	da := c.A - o.A
	db := c.B - o.B
	return dl*dl + da*da + db*db
}

// Perturb adds dx to L and dy to BOTH a and b. This mirrors the source's
// Color::perturb(delta: DVec2), which assigns delta.y to both the second
// and third vector components; it is not a typo here, it is preserved
// exactly as observed. See DESIGN.md Open Questions.
func (c Lab) Perturb(dx, dy float64) Lab {
	return Lab{c.L + dx, c.A + dy, c.B + dy}
}

// MeanLab returns the element-wise mean of a non-empty slice of colors.
func MeanLab(colors []Lab) Lab {
	var sum Lab
	for _, c := range colors {
		sum = sum.Add(c)
	}
	n := float64(len(colors))
	return Lab{sum.L / n, sum.A / n, sum.B / n}
}

// CondProb computes the Gibbs-kernel conditional probability of a
// superpixel's mean color belonging to a palette entry: pi * exp(-d/T).
func CondProb(paletteColor Lab, pi float64, meanColor Lab, t float64) float64 {
	d := meanColor.Distance(paletteColor)
	return pi * math.Exp(-d/t)
}
