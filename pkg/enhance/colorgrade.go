package enhance

import(
	"math"

	"github.com/abworrall/wowshot/pkg/ecolor"
	"github.com/abworrall/wowshot/pkg/emath"
)

// StageWarmth shifts white balance along the Lab b* axis.
func StageWarmth(ws *Workspace) {
	ws.Current.ShiftLab(0, ws.Warmth)
}

// StageTint moves every pixel part of the way to the preset's channel mix.
func StageTint(ws *Workspace) {
	m := emath.LerpMat3(emath.Identity3(), ws.TintMatrix, ws.Tint)
	ApplyMatrix(&ws.Current, m)
}

func ApplyMatrix(g *ecolor.RGBGrid, m emath.Mat3) {
	rs, gs, bs := g.R.Values(), g.G.Values(), g.B.Values()
	for i := range rs {
		v := m.Apply(emath.Vec3{rs[i], gs[i], bs[i]})
		v.FloorAt(0.0)
		v.CeilingAt(1.0)
		rs[i], gs[i], bs[i] = v[0], v[1], v[2]
	}
}

func StageVignette(ws *Workspace) {
	Vignette(&ws.Current, ws.Vignette)
}

// Vignette darkens towards the corners. The falloff is a smoothstep on
// the normalised distance from the centre, so the middle half of the
// frame is untouched.
func Vignette(g *ecolor.RGBGrid, amount float64) {
	if amount <= 0 {
		return
	}

	w, h := g.Dx(), g.Dy()
	cx, cy := float64(w-1)/2.0, float64(h-1)/2.0
	maxd := math.Hypot(cx, cy)
	if maxd == 0 {
		return
	}

	ratio := g.R.NewFromThis()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy) / maxd
			ratio.Set(x, y, 1.0 - amount*emath.Smoothstep(0.5, 1.0, d))
		}
	}
	g.ScaleByRatio(ratio)
}

func StageTrim(ws *Workspace) {
	Trim(&ws.Current, ws.Brightness, ws.Contrast)
}

// Trim is the final brightness/contrast touch: contrast pivots around
// mid-grey, then brightness is added.
func Trim(g *ecolor.RGBGrid, brightness, contrast float64) {
	g.MapChannels(func(v float64) float64 {
		return emath.Clamp01((v-0.5)*contrast + 0.5 + brightness)
	})
}
