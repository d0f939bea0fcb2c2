package enhance

import(
	"fmt"
	"math"
	"strings"

	"github.com/abworrall/wowshot/pkg/emath"
)

// A StrengthLevel is the user-facing strength choice. The zero value means
// "not chosen", and resolves to the preset default.
type StrengthLevel int

const(
	StrengthDefault StrengthLevel = iota
	Low
	Medium
	High
)

var(
	strengthScalars = map[StrengthLevel]float64{
		Low:    0.35,
		Medium: 0.65,
		High:   1.0,
	}
	strengthNames = map[StrengthLevel]string{
		StrengthDefault: "default",
		Low:             "low",
		Medium:          "medium",
		High:            "high",
	}
)

func (sl StrengthLevel)String() string {
	if n, exists := strengthNames[sl]; exists {
		return n
	}
	return fmt.Sprintf("strength(%d)", int(sl))
}

// Scalar maps the level into [0,1]. The default level is Medium.
func (sl StrengthLevel)Scalar() float64 {
	if s, exists := strengthScalars[sl]; exists {
		return s
	}
	return strengthScalars[Medium]
}

func ParseStrength(s string) (StrengthLevel, error) {
	for sl, name := range strengthNames {
		if strings.EqualFold(s, name) {
			return sl, nil
		}
	}
	return StrengthDefault, fmt.Errorf("no strength named '%s'", s)
}

// A Coef is one preset coefficient, as a function of strength:
//   value = Base + Gain * strength^Pow
// A zero Pow is treated as 1 (linear).
type Coef struct {
	Base, Gain, Pow float64
}

func Fixed(v float64) Coef         { return Coef{Base: v} }
func Linear(base, gain float64) Coef { return Coef{Base: base, Gain: gain} }

func (c Coef)At(strength float64) float64 {
	p := c.Pow
	if p == 0 { p = 1 }
	return c.Base + c.Gain*math.Pow(strength, p)
}

// CurveMode picks which flavour of filmic S-curve a preset uses.
type CurveMode int

const(
	CurvePerChannel CurveMode = iota // each channel through the curve; adds a little saturation
	CurveLuminance                   // luminance through the curve, channels follow by ratio
)

// Params is the fully resolved, immutable parameter record for one
// invocation. Every field is a pure function of the preset and strength,
// apart from Seed.
type Params struct {
	Preset         PresetID
	Strength       float64

	TonemapA       float64 // log steepness; 0 skips the stage
	CurveAmount    float64
	CurveMode      CurveMode
	Vibrance       float64
	ProtectSkin    bool
	ClarityRadius  float64 // gaussian sigma, in pixels
	ClarityAmount  float64 // negative softens
	BloomAmount    float64
	BloomRadius    float64
	BloomGated     bool
	GrainAmount    float64
	Warmth         float64 // Lab b* shift; negative cools
	Tint           float64 // how far towards the preset's channel mix
	TintMatrix     emath.Mat3
	Vignette       float64
	Brightness     float64 // added after the contrast trim
	Contrast       float64 // 1 is neutral

	Seed           int64   // for grain; 0 means pick one at random
}

func (p Params)String() string {
	return fmt.Sprintf("Params[%s s=%.2f tm=%.2f curve=%.2f vib=%.2f skin=%v clarity=%.2f@%.1f bloom=%.2f@%.1f grain=%.3f warm=%.1f tint=%.2f vig=%.2f b=%.3f c=%.3f]",
		p.Preset, p.Strength, p.TonemapA, p.CurveAmount, p.Vibrance, p.ProtectSkin,
		p.ClarityAmount, p.ClarityRadius, p.BloomAmount, p.BloomRadius, p.GrainAmount,
		p.Warmth, p.Tint, p.Vignette, p.Brightness, p.Contrast)
}

// Request is what a caller asks the engine to do.
type Request struct {
	Preset    PresetID
	Strength  StrengthLevel
	Seed      int64
	MaxBytes  int // 0 means use the config value
}
