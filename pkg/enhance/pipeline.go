package enhance

import(
	"time"

	"github.com/rs/zerolog/log"
)

// Result is what one enhancement call hands back.
type Result struct {
	Bytes           []byte       // JPEG
	Width, Height   int
	Quality         int          // JPEG quality used; 0 if the input bytes were passed through
	BudgetExceeded  bool
	Degenerate      bool
	Safety          SafetyReport
}

// Enhance decodes the image, runs the preset's pipeline at the requested
// strength, and encodes the result within the byte budget. It is
// synchronous, and shares no state with other calls. Zero fields in cfg
// fall back to the defaults.
func Enhance(cfg Config, data []byte, req Request) (Result, error) {
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	preset, err := LookupPreset(req.Preset)
	if err != nil {
		return Result{}, err
	}

	g, err := Load(data)
	if err != nil {
		return Result{}, err
	}

	ws := NewWorkspace(cfg, preset.Resolve(req.Strength, req.Seed), g)
	ws.Run()

	budget := req.MaxBytes
	if budget <= 0 {
		budget = cfg.MaxOutputBytes
	}
	enc, err := EncodeWithBudget(ws.Current.ToNRGBA(), budget, cfg.Encoding)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Bytes:          enc.Bytes,
		Width:          ws.Current.Dx(),
		Height:         ws.Current.Dy(),
		Quality:        enc.Quality,
		BudgetExceeded: enc.BudgetExceeded,
		Degenerate:     ws.Degenerate,
		Safety:         ws.Safety,
	}

	log.Info().
		Str("preset", string(preset.ID)).
		Stringer("strength", req.Strength).
		Int("w", res.Width).Int("h", res.Height).
		Int("bytes", len(res.Bytes)).Int("q", res.Quality).
		Bool("safety", ws.Safety.Triggered()).
		Dur("took", time.Since(start)).
		Msg("enhanced")

	return res, nil
}

// Rebudget is for bytes that came from somewhere else (a remote model):
// it checks that they decode, and re-encodes only if they are over budget.
func Rebudget(cfg Config, data []byte, maxBytes int) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if maxBytes <= 0 {
		maxBytes = cfg.MaxOutputBytes
	}

	img, err := DecodeImage(data)
	if err != nil {
		return Result{}, err
	}
	b := img.Bounds()

	if len(data) <= maxBytes {
		return Result{Bytes: data, Width: b.Dx(), Height: b.Dy()}, nil
	}

	enc, err := EncodeWithBudget(img, maxBytes, cfg.Encoding)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Bytes:          enc.Bytes,
		Width:          b.Dx(),
		Height:         b.Dy(),
		Quality:        enc.Quality,
		BudgetExceeded: enc.BudgetExceeded,
	}, nil
}
