package enhance

import(
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/wowshot/pkg/ecolor"
)

const(
	tol = 0.98
	maxGain = 1.6
)

func TestSafetyNetLeavesBrighterImagesAlone(t *testing.T) {
	orig := solid(8, 8, 0.3, 0.3, 0.3)
	enh := solid(8, 8, 0.5, 0.5, 0.5)

	sr := SafetyNet(&orig, &enh, tol, maxGain)
	assert.False(t, sr.Triggered())
	assert.Equal(t, 1.0, sr.Gain)
	assert.Equal(t, 0.5, enh.R.Get(0, 0))
}

func TestSafetyNetGain(t *testing.T) {
	orig := solid(8, 8, 0.5, 0.5, 0.5)
	enh := solid(8, 8, 0.45, 0.45, 0.45)

	sr := SafetyNet(&orig, &enh, tol, maxGain)
	assert.True(t, sr.Triggered())
	assert.Greater(t, sr.Gain, 1.0)
	assert.Equal(t, 0.0, sr.BlendBack, "gain alone was enough")
	assert.GreaterOrEqual(t, enh.MeanLuminance(), tol*0.5)
}

func TestSafetyNetBlackOutput(t *testing.T) {
	orig := solid(8, 8, 0.5, 0.5, 0.5)
	enh := solid(8, 8, 0, 0, 0)

	sr := SafetyNet(&orig, &enh, tol, maxGain)
	assert.Equal(t, maxGain, sr.Gain)
	assert.Greater(t, sr.BlendBack, 0.0)
	assert.GreaterOrEqual(t, enh.MeanLuminance(), tol*0.5)
	assert.False(t, enh.HasNaN())
}

// Half the pixels are already at white, so gain can't help them
func TestSafetyNetWhenGainClips(t *testing.T) {
	orig := solid(8, 8, 0.8, 0.8, 0.8)
	enh := ecolor.NewRGBGrid(8, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 4; x++ {
			enh.SetRGB(x, y, 1, 1, 1)
		}
	}

	sr := SafetyNet(&orig, &enh, tol, maxGain)
	assert.Greater(t, sr.BlendBack, 0.0)
	assert.GreaterOrEqual(t, sr.FinalMean, tol*0.8)
	requireValid(t, &enh, "clipped")
}

func TestSafetyNetAlwaysHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		orig := ecolor.NewRGBGrid(12, 9)
		orig.MapChannels(func(float64) float64 { return rng.Float64() })

		// Darken and shuffle contrast, sometimes a lot
		k, lift := rng.Float64(), rng.Float64()*0.2
		enh := orig.Copy()
		enh.MapChannels(func(v float64) float64 { return v*v*k + lift*rng.Float64()*0.1 })

		o := orig.MeanLuminance()
		SafetyNet(&orig, &enh, tol, maxGain)
		assert.GreaterOrEqual(t, enh.MeanLuminance(), tol*o, "case %d", i)
		requireValid(t, &enh, "random")
	}
}

func TestSafetyNetIgnoresBlackOriginal(t *testing.T) {
	orig := solid(4, 4, 0, 0, 0)
	enh := solid(4, 4, 0, 0, 0)
	sr := SafetyNet(&orig, &enh, tol, maxGain)
	assert.False(t, sr.Triggered())
}

// Rounding to 8 bits after a blend-back must not drop the mean back under
// the bound.
func TestSafetyNetSurvivesQuantizing(t *testing.T) {
	orig := solid(16, 16, 0.8, 0.8, 0.8)
	enh := ecolor.NewRGBGrid(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if (x+y)%2 == 0 {
				enh.SetRGB(x, y, 1, 1, 1)
			} else {
				enh.SetRGB(x, y, 0.1, 0.12, 0.08)
			}
		}
	}

	sr := SafetyNet(&orig, &enh, tol, maxGain)
	require.Greater(t, sr.BlendBack, 0.0)
	assert.Greater(t, sr.FinalMean, tol*0.8)

	q := ecolor.NewRGBGridFromImage(enh.ToNRGBA())
	assert.GreaterOrEqual(t, q.MeanLuminance(), tol*0.8)
}

func TestSafetyBound(t *testing.T) {
	assert.InDelta(t, 0.98*0.5+0.5/255.0, safetyBound(0.5, 0.98), 1e-12)
	assert.LessOrEqual(t, safetyBound(0.001, 0.98), 0.001, "never past the original")
	assert.Equal(t, 0.0, safetyBound(0, 0.98))
}
