package emath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rampGrid(w, h int) FloatGrid {
	g := NewFloatGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Set(x, y, float64(x+y)/float64(w+h))
		}
	}
	return g
}

func TestGaussianKernelIsNormalized(t *testing.T) {
	for _, sigma := range []float64{0.3, 1, 2.5, 6} {
		k := GaussianKernel(sigma)
		sum := 0.0
		for _, v := range k {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-12, "sigma %f", sigma)
		assert.Equal(t, 1, len(k)%2)
	}
}

func TestBlursPreserveConstantGrid(t *testing.T) {
	g := NewFloatGrid(40, 30)
	g.Fill(0.42)

	for name, out := range map[string]FloatGrid{
		"3tap":  g.GaussianBlur(),
		"sigma": g.GaussianBlurSigma(2.5),
		"wide":  g.BlurWide(20),
	} {
		require.Equal(t, g.Dx(), out.Dx(), name)
		require.Equal(t, g.Dy(), out.Dy(), name)
		for _, v := range out.Values() {
			require.InDelta(t, 0.42, v, 1e-9, name)
		}
	}
}

func TestGaussianBlurSigmaSmoothsAnImpulse(t *testing.T) {
	g := NewFloatGrid(21, 21)
	g.Set(10, 10, 1.0)

	out := g.GaussianBlurSigma(2.0)

	assert.Less(t, out.Get(10, 10), 1.0)
	assert.Greater(t, out.Get(11, 10), 0.0)
	assert.InDelta(t, out.Get(9, 10), out.Get(11, 10), 1e-12)
	assert.InDelta(t, 1.0, out.Mean()*float64(out.Len()), 1e-9)
}

func TestDownSampleAndUpSample(t *testing.T) {
	g := rampGrid(8, 6)
	small := g.DownSample()
	require.Equal(t, 4, small.Dx())
	require.Equal(t, 3, small.Dy())
	assert.InDelta(t, (g.Get(0, 0)+g.Get(1, 0)+g.Get(0, 1)+g.Get(1, 1))/4, small.Get(0, 0), 1e-12)

	big := g.NewFromThis()
	small.UpSampleInto(&big)
	assert.Equal(t, small.Get(1, 1), big.Get(2, 3))
	assert.Equal(t, small.Get(1, 1), big.Get(3, 2))
}

func TestQuantileAndMinMax(t *testing.T) {
	g := NewFloatGrid(10, 1)
	for i := 0; i < 10; i++ {
		g.Set(i, 0, float64(i))
	}
	assert.Equal(t, 9.0, g.Quantile(1.0))
	assert.Equal(t, 0.0, g.Quantile(0.0))

	g.Set(3, 0, math.NaN())
	min, max := g.MinMax()
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 9.0, max)
}

func TestClampSwallowsNaN(t *testing.T) {
	g := NewFloatGrid(3, 1)
	g.Set(0, 0, math.NaN())
	g.Set(1, 0, -2)
	g.Set(2, 0, 7)
	g.Clamp(0, 1)
	assert.Equal(t, []float64{0, 0, 1}, g.Values())
}

func TestSameShapePanics(t *testing.T) {
	a := NewFloatGrid(3, 2)
	b := NewFloatGrid(2, 3)
	assert.Panics(t, func() { a.SameShape(&b) })
	assert.Panics(t, func() { NewFloatGrid(0, 3) })
}

func TestSmoothstep(t *testing.T) {
	assert.Equal(t, 0.0, Smoothstep(0.2, 0.4, 0.1))
	assert.Equal(t, 1.0, Smoothstep(0.2, 0.4, 0.5))
	assert.InDelta(t, 0.5, Smoothstep(0.2, 0.4, 0.3), 1e-12)
	// Degenerate edges behave like a hard step rather than dividing by zero.
	assert.Equal(t, 1.0, Smoothstep(1, 1, 1))
	assert.Equal(t, 0.0, Smoothstep(1, 1, 0.5))
}

func TestMat3(t *testing.T) {
	v := Vec3{0.1, 0.2, 0.3}
	assert.Equal(t, v, Identity3().Apply(v))

	swap := Mat3{0, 1, 0, 1, 0, 0, 0, 0, 1}
	assert.Equal(t, Vec3{0.2, 0.1, 0.3}, swap.Apply(v))
	assert.Equal(t, Identity3(), LerpMat3(Identity3(), swap, 0))
	assert.InDelta(t, 0.2*0.1+0.7152*0.2+0.3*0.3, Vec3{0.2, 0.7152, 0.3}.Dot(v), 1e-12)
}
