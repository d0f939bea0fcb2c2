package enhance

import(
	"fmt"
	"sort"
	"strings"

	"github.com/abworrall/wowshot/pkg/emath"
)

type PresetID string

const(
	HdrOnly     PresetID = "hdr"
	WowEnhance  PresetID = "wow"
	VioletTouch PresetID = "violet"
	ProShotLens PresetID = "proshot"
	GoldenHour  PresetID = "golden"
	DreamyMist  PresetID = "dreamy"
)

// A Preset is a fixed table of coefficients. Presets are plain data; the
// engine only ever reads them, via Resolve.
//
// Strength mostly buys clarity. Tonemap, curve and vibrance flatten
// highlights as they grow, so their gains stay small enough that more
// strength never means less local contrast.
type Preset struct {
	ID            PresetID
	Name          string     // what the user sees on the button
	HasStrength   bool       // whether the user gets asked Low/Medium/High

	Tonemap       Coef
	Curve         Coef
	CurveMode     CurveMode
	Vibrance      Coef
	ProtectSkin   bool
	ClarityRadius Coef
	ClarityAmount Coef
	BloomAmount   Coef
	BloomRadius   Coef
	BloomGated    bool
	Grain         Coef
	Warmth        Coef
	Tint          Coef
	TintMatrix    emath.Mat3
	Vignette      Coef
	Brightness    Coef
	Contrast      Coef       // zero Coef means neutral (1.0)
}

var(
	// Pushes red and blue up against green, for the lilac cast.
	violetMix = emath.Mat3{
		1.04, -0.02,  0.02,
		0.00,  0.94,  0.04,
		0.04, -0.02,  1.02,
	}

	presets = map[PresetID]Preset{
		HdrOnly: {
			ID: HdrOnly, Name: "HDR", HasStrength: true,
			Tonemap:       Linear(4.0, 3.0),
			Curve:         Linear(0.15, 0.05),
			CurveMode:     CurveLuminance,
			ClarityRadius: Fixed(3.0),
			ClarityAmount: Linear(0.10, 0.75),
		},

		WowEnhance: {
			ID: WowEnhance, Name: "WOW Enhance", HasStrength: true,
			Tonemap:       Linear(3.0, 2.5),
			Curve:         Linear(0.25, 0.05),
			CurveMode:     CurvePerChannel,
			Vibrance:      Linear(0.35, 0.15),
			ClarityRadius: Fixed(2.5),
			ClarityAmount: Linear(0.15, 1.0),
			BloomAmount:   Linear(0.05, 0.10),
			BloomRadius:   Fixed(18),
			BloomGated:    true,
		},

		VioletTouch: {
			ID: VioletTouch, Name: "Violet Touch", HasStrength: true,
			Tonemap:       Linear(2.0, 1.5),
			Curve:         Linear(0.15, 0.03),
			CurveMode:     CurveLuminance,
			Vibrance:      Linear(0.45, 0.15),
			ProtectSkin:   true,
			ClarityRadius: Fixed(2.0),
			ClarityAmount: Linear(0.05, 0.60),
			BloomAmount:   Linear(0.05, 0.10),
			BloomRadius:   Fixed(14),
			BloomGated:    true,
			Tint:          Linear(0.20, 0.10),
			TintMatrix:    violetMix,
		},

		ProShotLens: {
			ID: ProShotLens, Name: "ProShot Lens", HasStrength: true,
			Tonemap:       Linear(2.0, 2.0),
			Curve:         Linear(0.25, 0.05),
			CurveMode:     CurvePerChannel,
			Vibrance:      Linear(0.15, 0.05),
			ClarityRadius: Fixed(1.5),
			ClarityAmount: Linear(0.20, 0.90),
			BloomAmount:   Linear(0.02, 0.06),
			BloomRadius:   Fixed(10),
			BloomGated:    true,
			Grain:         Coef{Gain: 0.012, Pow: 2},
			Vignette:      Fixed(0.20),
		},

		GoldenHour: {
			ID: GoldenHour, Name: "Golden Hour",
			Tonemap:       Fixed(4.0),
			Curve:         Fixed(0.20),
			CurveMode:     CurveLuminance,
			Vibrance:      Fixed(0.35),
			ClarityRadius: Fixed(3.0),
			ClarityAmount: Fixed(0.20),
			BloomAmount:   Fixed(0.18),
			BloomRadius:   Fixed(24),
			BloomGated:    true,
			Warmth:        Fixed(10.0),
			Vignette:      Fixed(0.15),
		},

		DreamyMist: {
			ID: DreamyMist, Name: "Dreamy Mist",
			Tonemap:       Fixed(3.0),
			Vibrance:      Fixed(0.15),
			ClarityRadius: Fixed(6.0),
			ClarityAmount: Fixed(-0.35),
			BloomAmount:   Fixed(0.35),
			BloomRadius:   Fixed(30),
			Grain:         Fixed(0.010),
			Warmth:        Fixed(3.0),
			Brightness:    Fixed(0.03),
			Contrast:      Fixed(0.90),
		},
	}

	presetAliases = map[string]PresetID{
		"hdronly":     HdrOnly,
		"hdr-only":    HdrOnly,
		"wowenhance":  WowEnhance,
		"violettouch": VioletTouch,
		"violin":      VioletTouch,
		"violintouch": VioletTouch,
		"proshotlens": ProShotLens,
		"goldenhour":  GoldenHour,
		"dreamymist":  DreamyMist,
	}
)

// LookupPreset finds a preset by id, or by one of its aliases.
func LookupPreset(id PresetID) (Preset, error) {
	if p, exists := presets[id]; exists {
		return p, nil
	}
	key := strings.ToLower(strings.ReplaceAll(string(id), " ", ""))
	if alias, exists := presetAliases[key]; exists {
		return presets[alias], nil
	}
	if p, exists := presets[PresetID(key)]; exists {
		return p, nil
	}
	return Preset{}, fmt.Errorf("preset '%s': %w", id, ErrUnknownPreset)
}

// PresetIDs lists the local presets, sorted.
func PresetIDs() []PresetID {
	ids := []PresetID{}
	for id := range presets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Resolve turns the preset into a concrete parameter record. Presets
// without a strength knob always run at Medium.
func (p Preset)Resolve(sl StrengthLevel, seed int64) Params {
	if !p.HasStrength {
		sl = Medium
	}
	return p.ResolveScalar(sl.Scalar(), seed)
}

// ResolveScalar is Resolve for a raw strength in [0,1]. Anything outside
// that range is a caller bug.
func (p Preset)ResolveScalar(s float64, seed int64) Params {
	if s < 0 || s > 1 {
		panic(fmt.Sprintf("enhance: strength %f outside [0,1]", s))
	}

	contrast := 1.0
	if p.Contrast != (Coef{}) {
		contrast = p.Contrast.At(s)
	}

	return Params{
		Preset:        p.ID,
		Strength:      s,
		TonemapA:      p.Tonemap.At(s),
		CurveAmount:   emath.Clamp01(p.Curve.At(s)),
		CurveMode:     p.CurveMode,
		Vibrance:      p.Vibrance.At(s),
		ProtectSkin:   p.ProtectSkin,
		ClarityRadius: p.ClarityRadius.At(s),
		ClarityAmount: p.ClarityAmount.At(s),
		BloomAmount:   emath.Clamp01(p.BloomAmount.At(s)),
		BloomRadius:   p.BloomRadius.At(s),
		BloomGated:    p.BloomGated,
		GrainAmount:   p.Grain.At(s),
		Warmth:        p.Warmth.At(s),
		Tint:          emath.Clamp01(p.Tint.At(s)),
		TintMatrix:    p.TintMatrix,
		Vignette:      emath.Clamp01(p.Vignette.At(s)),
		Brightness:    p.Brightness.At(s),
		Contrast:      contrast,
		Seed:          seed,
	}
}
