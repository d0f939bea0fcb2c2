package emath

import "math"

// Some functions that only operate on basic types, that are useful

// https://www.sjbrown.co.uk/posts/gamma-correct-rendering/ - "linear RGB to sRGB"
// `f` is assumed to be in the range [0,1]
func GammaExpand_F64(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055 * math.Pow(f, 1.0/2.4) - 0.055
}

// Clamp pins f into [min,max]; NaN goes to min, so nothing downstream
// ever sees one.
func Clamp(f, min, max float64) float64 {
	switch {
	case math.IsNaN(f): return min
	case f < min:       return min
	case f > max:       return max
	}
	return f
}

func Clamp01(f float64) float64 { return Clamp(f, 0.0, 1.0) }

func Lerp(a, b, t float64) float64 { return a + (b-a)*t }

// Smoothstep is the cubic Hermite step between edge0 and edge1.
func Smoothstep(edge0, edge1, x float64) float64 {
	if edge1 <= edge0 {
		if x >= edge1 { return 1.0 }
		return 0.0
	}
	t := Clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3.0 - 2.0*t)
}
