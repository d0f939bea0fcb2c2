package enhance

import(
	"math"

	"github.com/abworrall/wowshot/pkg/ecolor"
	"github.com/abworrall/wowshot/pkg/emath"
)

const(
	bloomMinThreshold = 0.55 // never bloom anything darker than this
	bloomQuantile     = 0.85
	bloomKnee         = 0.2  // width of the soft edge above the threshold
)

func StageBloom(ws *Workspace) {
	Bloom(&ws.Current, ws.BloomAmount, ws.BloomRadius, ws.BloomGated)
}

// BloomThreshold picks the luminance where highlights start, adaptive to
// the frame: the 85th percentile, but never below 0.55, so dark photos
// don't get a glow on their midtones.
func BloomThreshold(L *emath.FloatGrid) float64 {
	return math.Max(bloomMinThreshold, L.Quantile(bloomQuantile))
}

// Bloom makes the highlights glow. A soft mask picks out pixels above the
// threshold; the masked image is blurred wide and screened back over the
// original. With `gated`, the result is only mixed in where the mask is
// set, so shadows and midtones come through untouched.
func Bloom(g *ecolor.RGBGrid, amount, radius float64, gated bool) {
	if amount <= 0 || radius <= 0 {
		return
	}

	L := g.Luminance()
	thr := BloomThreshold(&L)

	mask := L.NewFromThis()
	lv, mv := L.Values(), mask.Values()
	for i, lum := range lv {
		mv[i] = emath.Smoothstep(thr, thr+bloomKnee, lum)
	}
	mask = mask.GaussianBlur()

	// Nothing bright enough; don't spend the wide blur on it.
	if _, max := mask.MinMax(); max == 0 {
		return
	}

	mv = mask.Values()
	for _, p := range g.Planes() {
		highlights := p.Copy()
		hv := highlights.Values()
		for i := range hv {
			hv[i] *= mv[i]
		}
		glow := highlights.BlurWide(radius)
		gv := glow.Values()

		vals := p.Values()
		for i := range vals {
			t := amount
			if gated {
				t *= mv[i]
			}
			screened := ecolor.Screen(vals[i], emath.Clamp01(gv[i]))
			vals[i] = emath.Clamp01(emath.Lerp(vals[i], screened, t))
		}
	}
}
