package enhance

import(
	"github.com/abworrall/wowshot/pkg/ecolor"
	"github.com/abworrall/wowshot/pkg/emath"
)

// SCurve blends x with the smoothstep cubic 3x^2 - 2x^3; amount 0 is the
// identity, amount 1 is the full curve.
func SCurve(x, amount float64) float64 {
	y := x*x*(3.0 - 2.0*x)
	return emath.Clamp01(x*(1.0-amount) + y*amount)
}

func StageCurve(ws *Workspace) {
	switch ws.CurveMode {
	case CurveLuminance: CurveOnLuminance(&ws.Current, ws.CurveAmount)
	default:             CurveOnChannels(&ws.Current, ws.CurveAmount)
	}
}

// CurveOnChannels runs every channel through the curve. Pushes saturated
// colours a little further apart, which is sometimes the look we want.
func CurveOnChannels(g *ecolor.RGBGrid, amount float64) {
	g.MapChannels(func(v float64) float64 { return SCurve(v, amount) })
}

// CurveOnLuminance runs luminance through the curve, and scales the
// channels by the same ratio, as per Tonemap.
func CurveOnLuminance(g *ecolor.RGBGrid, amount float64) {
	L := g.Luminance()
	ratio := L.NewFromThis()
	lv, rv := L.Values(), ratio.Values()

	for i, lum := range lv {
		if lum < tonemapEpsilon {
			rv[i] = 1.0
			continue
		}
		rv[i] = SCurve(lum, amount) / lum
	}

	g.ScaleByRatio(ratio)
}
