package enhance

import(
	"math"

	"github.com/abworrall/wowshot/pkg/ecolor"
	"github.com/abworrall/wowshot/pkg/emath"
)

// How many 3-tap blur passes soften the skin mask
const skinMaskSoftness = 3

func StageVibrance(ws *Workspace) {
	Vibrance(&ws.Current, ws.Vibrance, ws.ProtectSkin)
}

// Vibrance is saturation weighted by how unsaturated each pixel already
// is: w = 1 - (max-min). Flat colours get most of the boost, vivid ones
// very little, so they don't clip or band.
//
// With protectSkin, pixels in the flesh-tone band keep their original
// colour, via the (softened) skin mask.
func Vibrance(g *ecolor.RGBGrid, gain float64, protectSkin bool) {
	if gain == 0 {
		return
	}

	var orig ecolor.RGBGrid
	if protectSkin {
		orig = g.Copy()
	}

	rs, gs, bs := g.R.Values(), g.G.Values(), g.B.Values()
	for i := range rs {
		r, gg, b := rs[i], gs[i], bs[i]
		sat  := math.Max(r, math.Max(gg, b)) - math.Min(r, math.Min(gg, b))
		w    := 1.0 - sat
		mean := (r + gg + b) / 3.0
		k    := 1.0 + gain*w

		rs[i] = emath.Clamp01(mean + (r -mean)*k)
		gs[i] = emath.Clamp01(mean + (gg-mean)*k)
		bs[i] = emath.Clamp01(mean + (b -mean)*k)
	}

	if protectSkin {
		mask := orig.SkinMask(ecolor.DefaultSkinBand, skinMaskSoftness)
		*g = ecolor.Blend(*g, orig, mask)
	}
}
