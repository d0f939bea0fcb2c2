package emath

import(
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/fogleman/gg" // Move to https://pkg.go.dev/golang.org/x/image/font#Drawer sometime
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// A FloatGrid is a single channel grid of floats, stored row-major,
// with the handful of operations the enhancement stages need.
type FloatGrid struct {
	stride int
	values []float64
}

func NewFloatGrid(w, h int) FloatGrid {
	if w <= 0 || h <= 0 {
		panic(fmt.Sprintf("emath: bad grid size %dx%d", w, h))
	}
	return FloatGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

func (g1 *FloatGrid)NewFromThis() FloatGrid  { return NewFloatGrid(g1.Dx(), g1.Dy()) }
func (fg *FloatGrid)Set(x, y int, v float64) { fg.values[fg.stride*y + x] = v }
func (fg *FloatGrid)Get(x, y int) float64    { return fg.values[fg.stride*y + x] }
func (fg *FloatGrid)Dx() int                 { return fg.stride }
func (fg *FloatGrid)Dy() int                 { return len(fg.values) / fg.stride }
func (fg *FloatGrid)Len() int                { return len(fg.values) }

// Values exposes the backing slice, so stages can run flat loops over it.
func (fg *FloatGrid)Values() []float64       { return fg.values }

func (g1 *FloatGrid)Copy() FloatGrid {
	g2 := FloatGrid{stride: g1.stride, values:make([]float64, len(g1.values))}
	copy(g2.values, g1.values)
	return g2
}

// SameShape panics if the grids differ in size; mixing grids of different
// shapes is a programming error, not something to recover from.
func (g1 *FloatGrid)SameShape(g2 *FloatGrid) {
	if g1.stride != g2.stride || len(g1.values) != len(g2.values) {
		panic(fmt.Sprintf("emath: grid shape mismatch %dx%d vs %dx%d", g1.Dx(), g1.Dy(), g2.Dx(), g2.Dy()))
	}
}

func (fg *FloatGrid)Fill(v float64) {
	for i := range fg.values {
		fg.values[i] = v
	}
}

// Clamp pins every value into [min,max]. NaNs become min.
func (fg *FloatGrid)Clamp(min, max float64) {
	for i, v := range fg.values {
		fg.values[i] = Clamp(v, min, max)
	}
}

// GaussianBlur is the cheap [1 2 1]/4 kernel, run along X then Y.
func (g1 FloatGrid)GaussianBlur() FloatGrid {
	width := g1.Dx()
	height := g1.Dy()
	if width < 2 || height < 2 {
		return g1.Copy()
	}
	g2 := g1.NewFromThis()

	T  := g1.NewFromThis()

	//--- X blur, build up in T
	for y:=0; y<height; y++ {
		for x:=1; x<width-1; x++ {
			t := 2.0*g1.Get(x,y)
			t += g1.Get(x-1,y)
			t += g1.Get(x+1,y)
			T.Set(x, y, t/4.0)
		}
		T.Set(0, y,       (3.0*g1.Get(0,      y) + g1.Get(1,      y)) / 4.0)
		T.Set(width-1, y, (3.0*g1.Get(width-1,y) + g1.Get(width-2,y)) / 4.0)
	}

	//--- Y blur, read from T and generate output
	for x:=0; x<width; x++ {
		for y:=1; y<height-1; y++ {
			t := 2.0*T.Get(x,y)
			t += T.Get(x,y-1)
			t += T.Get(x,y+1)
			g2.Set(x, y, t/4.0)
		}
		g2.Set(x, 0,        (3.0*T.Get(x,       0) + T.Get(x,       1)) / 4.0)
		g2.Set(x, height-1, (3.0*T.Get(x,height-1) + T.Get(x,height-2)) / 4.0)
	}

	return g2
}

// GaussianKernel returns a normalized 1D kernel for sigma, truncated at 3 sigma.
func GaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3.0 * sigma))
	if radius < 1 { radius = 1 }

	k := make([]float64, 2*radius+1)
	for i := -radius; i <= radius; i++ {
		k[i+radius] = math.Exp(-float64(i*i) / (2.0 * sigma * sigma))
	}
	floats.Scale(1.0/floats.Sum(k), k)
	return k
}

// GaussianBlurSigma is a separable Gaussian blur; edges are clamped. Same
// X-then-Y structure as GaussianBlur, just with a wider kernel.
func (g1 FloatGrid)GaussianBlurSigma(sigma float64) FloatGrid {
	if sigma <= 0 {
		return g1.Copy()
	}

	width  := g1.Dx()
	height := g1.Dy()
	kernel := GaussianKernel(sigma)
	radius := len(kernel) / 2

	clampIdx := func(i, n int) int {
		if i < 0 { return 0 }
		if i >= n { return n-1 }
		return i
	}

	T  := g1.NewFromThis()
	g2 := g1.NewFromThis()

	//--- X blur, build up in T
	for y:=0; y<height; y++ {
		row := g1.values[y*width : (y+1)*width]
		for x:=0; x<width; x++ {
			t := 0.0
			for k, w := range kernel {
				t += w * row[clampIdx(x+k-radius, width)]
			}
			T.values[y*width + x] = t
		}
	}

	//--- Y blur, read from T and generate output
	for y:=0; y<height; y++ {
		for x:=0; x<width; x++ {
			t := 0.0
			for k, w := range kernel {
				t += w * T.values[clampIdx(y+k-radius, height)*width + x]
			}
			g2.values[y*width + x] = t
		}
	}

	return g2
}

// BlurWide approximates a large-sigma Gaussian by blurring on a coarser
// level of a pyramid and walking back up. The glow it produces is soft
// enough that the nearest-neighbour upsample disappears under the 3-tap
// blur run at each level.
func (g1 FloatGrid)BlurWide(sigma float64) FloatGrid {
	const maxDirectSigma = 6.0

	levels := []FloatGrid{g1}
	for sigma > maxDirectSigma {
		top := levels[len(levels)-1]
		if top.Dx() < 16 || top.Dy() < 16 {
			break
		}
		levels = append(levels, top.DownSample())
		sigma /= 2.0
	}

	cur := levels[len(levels)-1].GaussianBlurSigma(sigma)
	for k := len(levels)-2; k >= 0; k-- {
		up := levels[k].NewFromThis()
		cur.UpSampleInto(&up)
		cur = up.GaussianBlur()
	}

	return cur
}

// DownSample returns a grid that is 1/4 of the size, averaging the values from the
// original.
func (g1 *FloatGrid)DownSample() FloatGrid {
	width := g1.Dx() / 2
	height := g1.Dy() / 2
	g2 := NewFloatGrid(width, height)

	for y:=0; y<height; y++ {
		for x:=0; x<width; x++ {
			p := g1.Get(2*x,   2*y)
			p += g1.Get(2*x+1, 2*y)
			p += g1.Get(2*x,   2*y+1)
			p += g1.Get(2*x+1, 2*y+1)
			g2.Set(x, y, p/4.0)
		}
	}

	return g2
}

// UpSampleInto populates a grid `B`, which is assumed be 2x as big,
// by simply copying each value from `A` four times into a 2x2 block
// of values in `B`
func (A *FloatGrid)UpSampleInto(B *FloatGrid) {
	awidth  := A.Dx()
	aheight := A.Dy()
	width   := B.Dx()
	height  := B.Dy()

	for y:=0; y<height; y++ {
		for x:=0; x<width; x++ {
			ax := x/2
			ay := y/2
			if ax >= awidth  { ax = awidth-1 }
			if ay >= aheight { ay = aheight-1 }
			B.Set(x, y, A.Get(ax, ay))
		}
	}
}

func (fg *FloatGrid)Mean() float64 {
	return stat.Mean(fg.values, nil)
}

// Quantile returns the value at quantile q in [0,1], over all values.
func (fg *FloatGrid)Quantile(q float64) float64 {
	sorted := make([]float64, len(fg.values))
	copy(sorted, fg.values)
	sort.Float64s(sorted)
	return stat.Quantile(q, stat.Empirical, sorted, nil)
}

// MinMax ignores NaNs.
func (fg *FloatGrid)MinMax() (float64, float64) {
	min := math.MaxFloat64
	max := -1.0  * min

	for _, v := range fg.values {
		if math.IsNaN(v) { continue }
		if v > max { max = v }
		if v < min { min = v }
	}
	return min, max
}

func (fg *FloatGrid)Stats() string {
	min, max := fg.MinMax()
	return fmt.Sprintf("fg[%dx%d, vals{%f,%f}, mean %f]", fg.Dx(), fg.Dy(), min, max, fg.Mean())
}

// ToImg saves a simple grayscale, based on the range of values in the grid, and gamma scaling the
// gray to look normal for human vision
func (fg *FloatGrid)ToImg(title, filename string) error {
	min, max := fg.MinMax()
	if max <= min {
		max = min + 1.0
	}

	img := image.NewRGBA64(image.Rectangle{Max:image.Point{fg.Dx(), fg.Dy()}})
	for x:=0; x<fg.Dx(); x++ {
		for y:=0; y<fg.Dy(); y++ {
			lum := fg.Get(x,y)
			gray := GammaExpand_F64 ((lum - min) / (max - min))
			col := color.RGBA64{uint16(gray * 65535.0), uint16(gray * 65535.0), uint16(gray * 65535.0), 0xFFFF}
			img.Set(x, y, col)
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1,0.2,0.2)
	dc.DrawString(title, 20, 20)
	return dc.SavePNG(filename)
}
