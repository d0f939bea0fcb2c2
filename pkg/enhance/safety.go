package enhance

import(
	"fmt"
	"math"

	"github.com/abworrall/wowshot/pkg/ecolor"
)

// The gain exponent softens the brightness correction, so a big shortfall
// isn't fixed in one harsh step.
const safetyGainPow = 0.85

// The net aims half an 8-bit step above the bound, so quantising and
// encoding the result can't pull it back under.
const safetyHeadroom = 0.5 / 255.0

// A SafetyReport records what the anti-grey net saw, and what it did.
type SafetyReport struct {
	OrigMean   float64 // mean luminance of the input
	PreMean    float64 // ... of the enhanced image, before the net
	FinalMean  float64
	Gain       float64 // 1.0 means no gain was applied
	BlendBack  float64 // fraction blended back towards the original; 0 means none
}

func (sr SafetyReport)Triggered() bool { return sr.Gain != 1.0 || sr.BlendBack > 0 }

func (sr SafetyReport)String() string {
	return fmt.Sprintf("Safety[orig %.4f, pre %.4f, final %.4f, gain %.3f, blend %.3f]",
		sr.OrigMean, sr.PreMean, sr.FinalMean, sr.Gain, sr.BlendBack)
}

// SafetyNet guarantees that the enhanced image is never noticeably darker
// (greyer) than the original: on return, the mean luminance of `enh` is at
// least tol * the mean luminance of `orig`.
//
// First a global gain of (o/e)^0.85, capped, is applied. Clamping at white
// can eat some of that gain, so the mean is measured again; if it is still
// short, enh is blended towards the original by exactly the fraction that
// closes the gap. Mean luminance is linear in the blend, so that fraction
// can be computed rather than searched for. The target sits a little above
// tol * o (see safetyHeadroom), never above o itself.
func SafetyNet(orig, enh *ecolor.RGBGrid, tol, maxGain float64) SafetyReport {
	o := orig.MeanLuminance()
	e := enh.MeanLuminance()
	sr := SafetyReport{OrigMean: o, PreMean: e, FinalMean: e, Gain: 1.0}

	bound := safetyBound(o, tol)
	if e >= bound {
		return sr
	}

	sr.Gain = safetyGain(o, e, maxGain)
	enh.Scale(sr.Gain)
	e = enh.MeanLuminance()

	if e < bound {
		// A hair over the exact fraction, so rounding can't leave us short
		t := (bound - e) / (o - e) + 1e-9
		t = math.Min(1.0, math.Max(0.0, t))
		enh.Lerp(*orig, t)
		enh.Clamp()
		sr.BlendBack = t
		e = enh.MeanLuminance()
	}

	sr.FinalMean = e
	return sr
}

// safetyBound is the mean the net aims for: tol*o plus some headroom,
// limited to half the gap between tol*o and o.
func safetyBound(o, tol float64) float64 {
	return tol*o + math.Min(safetyHeadroom, (1.0-tol)*o/2.0)
}

// safetyGain is min(cap, max(1, (o/e)^0.85)); an enhanced mean near zero
// gets the cap.
func safetyGain(o, e, maxGain float64) float64 {
	if e < tonemapEpsilon {
		return maxGain
	}
	g := math.Pow(o/e, safetyGainPow)
	return math.Min(maxGain, math.Max(1.0, g))
}
