package ecolor

import(
	"fmt"
	"image"
	"math"

	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/wowshot/pkg/emath"
)

var(
	// BT.709 luma weights; the perceptual weighting used everywhere a stage
	// needs "brightness". Not the plain channel average.
	BT709 = emath.Vec3{0.2126, 0.7152, 0.0722}
)

// An RGBGrid is the working image buffer: three planes of floats, each
// nominally in [0.0, 1.0]. A grid is owned by one pipeline invocation.
type RGBGrid struct {
	R, G, B emath.FloatGrid
}

func NewRGBGrid(w, h int) RGBGrid {
	return RGBGrid{
		R: emath.NewFloatGrid(w, h),
		G: emath.NewFloatGrid(w, h),
		B: emath.NewFloatGrid(w, h),
	}
}

// NewRGBGridFromImage treats the input RGB channels as [0, 0xFFFF]. Alpha is dropped.
func NewRGBGridFromImage(img image.Image) RGBGrid {
	bounds := img.Bounds()
	g := NewRGBGrid(bounds.Dx(), bounds.Dy())

	for y:=0; y<bounds.Dy(); y++ {
		for x:=0; x<bounds.Dx(); x++ {
			r, gg, b, _ := img.At(x + bounds.Min.X, y + bounds.Min.Y).RGBA()
			g.SetRGB(x, y,
				float64(r)  / float64(0xFFFF),
				float64(gg) / float64(0xFFFF),
				float64(b)  / float64(0xFFFF))
		}
	}

	return g
}

func (g *RGBGrid)Dx() int { return g.R.Dx() }
func (g *RGBGrid)Dy() int { return g.R.Dy() }
func (g *RGBGrid)Len() int { return g.R.Len() }

func (g RGBGrid)String() string {
	return fmt.Sprintf("RGBGrid[%dx%d, meanY %.4f]", g.Dx(), g.Dy(), g.MeanLuminance())
}

func (g *RGBGrid)Planes() [3]*emath.FloatGrid {
	return [3]*emath.FloatGrid{&g.R, &g.G, &g.B}
}

func (g *RGBGrid)RGB(x, y int) (float64, float64, float64) {
	return g.R.Get(x,y), g.G.Get(x,y), g.B.Get(x,y)
}

func (g *RGBGrid)SetRGB(x, y int, r, gg, b float64) {
	g.R.Set(x, y, r)
	g.G.Set(x, y, gg)
	g.B.Set(x, y, b)
}

func (g *RGBGrid)Copy() RGBGrid {
	return RGBGrid{R: g.R.Copy(), G: g.G.Copy(), B: g.B.Copy()}
}

// SameShape panics on a size mismatch
func (g *RGBGrid)SameShape(o *RGBGrid) {
	g.R.SameShape(&o.R)
}

func (g *RGBGrid)Clamp() {
	for _, p := range g.Planes() {
		p.Clamp(0.0, 1.0)
	}
}

// Luminance computes the BT.709 luma of each pixel.
func (g *RGBGrid)Luminance() emath.FloatGrid {
	L := g.R.NewFromThis()
	rs, gs, bs, ls := g.R.Values(), g.G.Values(), g.B.Values(), L.Values()
	for i := range ls {
		ls[i] = BT709.Dot(emath.Vec3{rs[i], gs[i], bs[i]})
	}
	return L
}

func (g *RGBGrid)MeanLuminance() float64 {
	L := g.Luminance()
	return L.Mean()
}

// ScaleByRatio multiplies every channel of each pixel by the matching
// value in `ratio`, then clamps. Scaling all three channels together keeps
// hue and the chroma ratios intact.
func (g *RGBGrid)ScaleByRatio(ratio emath.FloatGrid) {
	g.R.SameShape(&ratio)
	rv := ratio.Values()
	for _, p := range g.Planes() {
		vals := p.Values()
		for i := range vals {
			vals[i] = emath.Clamp01(vals[i] * rv[i])
		}
	}
}

// Scale multiplies every channel by k, then clamps.
func (g *RGBGrid)Scale(k float64) {
	for _, p := range g.Planes() {
		vals := p.Values()
		for i := range vals {
			vals[i] = emath.Clamp01(vals[i] * k)
		}
	}
}

// MapChannels runs f over every channel value.
func (g *RGBGrid)MapChannels(f func(float64) float64) {
	for _, p := range g.Planes() {
		vals := p.Values()
		for i := range vals {
			vals[i] = f(vals[i])
		}
	}
}

// Lerp moves g towards `other` by t, everywhere.
func (g *RGBGrid)Lerp(other RGBGrid, t float64) {
	g.SameShape(&other)
	dst, src := g.Planes(), other.Planes()
	for c := 0; c < 3; c++ {
		d, s := dst[c].Values(), src[c].Values()
		for i := range d {
			d[i] = emath.Lerp(d[i], s[i], t)
		}
	}
}

// Blend returns base*(1-mask) + other*mask, per pixel. The mask weights
// the blend and is never written into the image itself.
func Blend(base, other RGBGrid, mask emath.FloatGrid) RGBGrid {
	base.SameShape(&other)
	base.R.SameShape(&mask)

	out := NewRGBGrid(base.Dx(), base.Dy())
	b, o, d := base.Planes(), other.Planes(), out.Planes()
	m := mask.Values()
	for c := 0; c < 3; c++ {
		bv, ov, dv := b[c].Values(), o[c].Values(), d[c].Values()
		for i := range dv {
			w := emath.Clamp01(m[i])
			dv[i] = bv[i]*(1.0-w) + ov[i]*w
		}
	}
	return out
}

// Screen is the photographic screen blend: 1 - (1-a)(1-b).
func Screen(a, b float64) float64 {
	return 1.0 - (1.0-a)*(1.0-b)
}

// HasNaN reports whether any channel holds NaN or Inf
func (g *RGBGrid)HasNaN() bool {
	for _, p := range g.Planes() {
		for _, v := range p.Values() {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
	}
	return false
}

// HDRAt exposes a pixel as a hdrcolor.RGB, so the grid can sit behind the
// hdr.Image interface.
func (g *RGBGrid)HDRAt(x, y int) hdrcolor.RGB {
	r, gg, b := g.RGB(x, y)
	return hdrcolor.RGB{R: r, G: gg, B: b}
}

// ToNRGBA quantizes to 8 bits per channel, rounding and clamping.
func (g *RGBGrid)ToNRGBA() *image.NRGBA {
	w, h := g.Dx(), g.Dy()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	rs, gs, bs := g.R.Values(), g.G.Values(), g.B.Values()

	for i := 0; i < w*h; i++ {
		off := i*4
		img.Pix[off+0] = Quantize8(rs[i])
		img.Pix[off+1] = Quantize8(gs[i])
		img.Pix[off+2] = Quantize8(bs[i])
		img.Pix[off+3] = 0xFF
	}
	return img
}

func Quantize8(f float64) uint8 {
	return uint8(math.Round(emath.Clamp01(f) * 255.0))
}
