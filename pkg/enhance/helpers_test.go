package enhance

import(
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/wowshot/pkg/ecolor"
	"github.com/abworrall/wowshot/pkg/emath"
)

func solid(w, h int, r, g, b float64) ecolor.RGBGrid {
	grid := ecolor.NewRGBGrid(w, h)
	grid.R.Fill(r)
	grid.G.Fill(g)
	grid.B.Fill(b)
	return grid
}

// textured is a fine, slightly warm sinusoidal texture around `base`.
func textured(w, h int, base, amp float64) ecolor.RGBGrid {
	g := ecolor.NewRGBGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := amp * math.Sin(float64(x)*1.3) * math.Sin(float64(y)*0.9)
			g.SetRGB(x, y, base*1.05+t, base+t, base*0.9+0.8*t)
		}
	}
	return g
}

// colored is a flat colour with the same texture on every channel.
func colored(w, h int, r, gg, b, amp float64) ecolor.RGBGrid {
	g := ecolor.NewRGBGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := amp * math.Sin(float64(x)*1.3) * math.Sin(float64(y)*0.9)
			g.SetRGB(x, y, emath.Clamp01(r+t), emath.Clamp01(gg+t), emath.Clamp01(b+t))
		}
	}
	return g
}

// noisy is an image JPEG can't compress well.
func noisy(w, h int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// gridPNG encodes a working buffer as PNG input bytes.
func gridPNG(t *testing.T, g ecolor.RGBGrid) []byte {
	return pngBytes(t, g.ToNRGBA())
}

func requireValid(t *testing.T, g *ecolor.RGBGrid, msg string) {
	require.False(t, g.HasNaN(), msg)
	for _, p := range g.Planes() {
		min, max := p.MinMax()
		require.GreaterOrEqual(t, min, 0.0, msg)
		require.LessOrEqual(t, max, 1.0, msg)
	}
}

func saturation(g *ecolor.RGBGrid, x, y int) float64 {
	r, gg, b := g.RGB(x, y)
	return math.Max(r, math.Max(gg, b)) - math.Min(r, math.Min(gg, b))
}

// captureLog points the global logger at a buffer for the rest of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}
