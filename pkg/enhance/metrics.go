package enhance

import(
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/abworrall/wowshot/pkg/ecolor"
)

// The blur sigma LocalContrast measures detail against
const localContrastSigma = 2.0

// LocalContrast is the RMS of the luminance high-pass: how much fine
// detail and texture there is. A crisper image scores higher.
func LocalContrast(g *ecolor.RGBGrid) float64 {
	L := g.Luminance()
	blurred := L.GaussianBlurSigma(localContrastSigma)
	hp := highpass(&L, &blurred)

	hv := hp.Values()
	if len(hv) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(hv, hv) / float64(len(hv)))
}
