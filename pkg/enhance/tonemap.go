package enhance

import(
	"fmt"
	"math"
	"sort"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/tmo"
	"github.com/rs/zerolog/log"

	"github.com/abworrall/wowshot/pkg/ecolor"
	"github.com/abworrall/wowshot/pkg/emath"
)

const(
	// Below this luminance a pixel is treated as black, and left alone.
	tonemapEpsilon = 1e-6

	// A boost that would push a pixel's brightest channel past the knee
	// rolls off towards white instead of clipping there.
	tonemapKnee = 0.8
)

// The tone-mapping operators a config can pick. "log" is ours; the others
// come from mdouchement/hdr and are tuned for photos that are already LDR.
var tonemappers = map[string]func(hdr.Image) tmo.ToneMappingOperator{
	"log": nil,

	"drago03": func(img hdr.Image) tmo.ToneMappingOperator {
		op := tmo.NewDefaultDrago03(img)
		op.Bias = 0.85           // Default bias crushes the midtones of a phone photo
		return op
	},

	"reinhard05": func(img hdr.Image) tmo.ToneMappingOperator {
		op := tmo.NewDefaultReinhard05(img)
		op.Chromatic  = 0.2
		op.Light      = 0.4
		return op
	},
}

func ListTonemappers() string {
	names := []string{}
	for name := range tonemappers {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%v", names)
}

// StageTonemap dispatches on the configured operator.
func StageTonemap(ws *Workspace) {
	newOp := tonemappers[ws.Tonemapper]
	if newOp == nil {
		Tonemap(&ws.Current, ws.TonemapA)
		return
	}

	log.Printf("Tonemapping: %s", ws.Tonemapper)
	out := ecolor.NewRGBGridFromImage(newOp(ws).Perform())

	// Operators from the hdr package have no strength knob, so strength
	// decides how much of their output we keep.
	ws.Current.Lerp(out, ws.Strength)
}

// Tonemap is a global, luminance-driven log curve:
//   Y' = ln(1 + a.L) / ln(1 + a)
// Each pixel's channels are multiplied by Y'/L rather than each channel
// going through the curve on its own; scaling all three by the same ratio
// compresses the range without shifting hue in saturated areas.
//
// A bright or saturated pixel can have a channel well above L, and the
// full ratio would clip it. Those boosts go through highlightRolloff, so
// texture in the highlights is compressed rather than flattened to white.
// A pixel is never made darker than it was.
func Tonemap(g *ecolor.RGBGrid, a float64) {
	if a <= 0 {
		return
	}

	norm := math.Log1p(a)
	L := g.Luminance()
	ratio := L.NewFromThis()
	lv, rv := L.Values(), ratio.Values()
	rs, gs, bs := g.R.Values(), g.G.Values(), g.B.Values()

	for i, lum := range lv {
		if lum < tonemapEpsilon {
			rv[i] = 1.0
			continue
		}
		y := math.Log1p(a*lum) / norm
		r := y / math.Max(lum, tonemapEpsilon)

		if m := math.Max(rs[i], math.Max(gs[i], bs[i])); m*r > tonemapKnee {
			r = math.Max(1.0, highlightRolloff(m*r)/m)
		}
		rv[i] = r
	}

	g.ScaleByRatio(ratio)
}

// highlightRolloff is the identity up to the knee, then eases towards 1
// without ever reaching it.
func highlightRolloff(v float64) float64 {
	if v <= tonemapKnee {
		return v
	}
	w := 1.0 - tonemapKnee
	return tonemapKnee + w*(1.0-math.Exp(-(v-tonemapKnee)/w))
}

// TonemapValue is the scalar form of the curve, handy for reasoning about presets.
func TonemapValue(L, a float64) float64 {
	if a <= 0 {
		return L
	}
	return emath.Clamp01(math.Log1p(a*L) / math.Log1p(a))
}
