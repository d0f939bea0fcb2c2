package enhance

import(
	"github.com/abworrall/wowshot/pkg/ecolor"
	"github.com/abworrall/wowshot/pkg/emath"
)

// How much the high-pass gets sharpened before it goes back in
const highpassSharpen = 0.5

func StageClarity(ws *Workspace) {
	Clarity(&ws.Current, ws.ClarityRadius, ws.ClarityAmount)
}

// Clarity is unsharp masking used for micro-contrast: the high-pass
// (image minus its blur at `radius`) is added back, scaled by `amount`.
// Small radii pick out texture, larger ones give broader "punch". A
// negative amount softens instead.
func Clarity(g *ecolor.RGBGrid, radius, amount float64) {
	if amount == 0 || radius <= 0 {
		return
	}

	for _, p := range g.Planes() {
		blurred := p.GaussianBlurSigma(radius)
		hp := highpass(p, &blurred)

		// Sharpen the high-pass itself a touch, with its own 3-tap blur
		hpBlur := hp.GaussianBlur()
		hv, hb := hp.Values(), hpBlur.Values()
		for i := range hv {
			hv[i] += highpassSharpen * (hv[i] - hb[i])
		}

		vals := p.Values()
		for i := range vals {
			vals[i] = emath.Clamp01(vals[i] + amount*hv[i])
		}
	}
}

// highpass is the signed difference between a grid and its blur
func highpass(g, blurred *emath.FloatGrid) emath.FloatGrid {
	g.SameShape(blurred)
	hp := g.NewFromThis()
	gv, bv, hv := g.Values(), blurred.Values(), hp.Values()
	for i := range hv {
		hv[i] = gv[i] - bv[i]
	}
	return hp
}
