package ecolor

import(
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/abworrall/wowshot/pkg/emath"
)

// A SkinBand describes the flesh-tone region of HSV space. Hue is in
// degrees, and wraps: a band of [340, 50] covers the reds either side of 0.
type SkinBand struct {
	HueFrom, HueTo float64
	SatMin, SatMax float64
	ValMin         float64
}

var(
	DefaultSkinBand = SkinBand{
		HueFrom: 340, HueTo: 50,
		SatMin: 0.15, SatMax: 0.68,
		ValMin: 0.35,
	}
)

func (sb SkinBand)containsHue(h float64) bool {
	if sb.HueFrom <= sb.HueTo {
		return h >= sb.HueFrom && h <= sb.HueTo
	}
	return h >= sb.HueFrom || h <= sb.HueTo
}

// Contains reports whether an RGB triple (each in [0,1]) falls in the band.
func (sb SkinBand)Contains(r, g, b float64) bool {
	h, s, v := colorful.Color{R: r, G: g, B: b}.Hsv()
	return sb.containsHue(h) && s >= sb.SatMin && s <= sb.SatMax && v >= sb.ValMin
}

// SkinMask returns a [0,1] weight per pixel: 1 where the pixel looks like
// skin. `softness` runs that many passes of the 3-tap blur over the hard
// mask, so the guard fades out rather than leaving a seam.
func (g *RGBGrid)SkinMask(sb SkinBand, softness int) emath.FloatGrid {
	mask := g.R.NewFromThis()
	rs, gs, bs, ms := g.R.Values(), g.G.Values(), g.B.Values(), mask.Values()

	for i := range ms {
		if sb.Contains(rs[i], gs[i], bs[i]) {
			ms[i] = 1.0
		}
	}

	for i := 0; i < softness; i++ {
		mask = mask.GaussianBlur()
	}
	return mask
}

// go-colorful keeps a* and b* at 1/100 of the usual CIE scale.
const colorfulLabScale = 0.01

// ShiftLab nudges every pixel in CIE L*a*b*, leaving L* alone. The shifts
// are in the usual units, where ~10 is a clearly visible cast. Positive
// `db` pushes towards yellow (warmer), positive `da` towards magenta.
func (g *RGBGrid)ShiftLab(da, db float64) {
	rs, gs, bs := g.R.Values(), g.G.Values(), g.B.Values()
	da, db = da*colorfulLabScale, db*colorfulLabScale

	for i := range rs {
		l, a, b := colorful.Color{R: rs[i], G: gs[i], B: bs[i]}.Lab()
		c := colorful.Lab(l, a+da, b+db).Clamped()
		rs[i], gs[i], bs[i] = c.R, c.G, c.B
	}
}
