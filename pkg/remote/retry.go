package remote

import(
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ResourceExhausted is a model failing because the input was too big for
// it (GPU memory, max size). Shrinking the input and retrying may work.
type ResourceExhausted struct {
	Model  string
	Msg    string
}

func (e *ResourceExhausted)Error() string {
	return fmt.Sprintf("%s: resource exhausted: %s", e.Model, e.Msg)
}

// What the models say when they run out of room
var exhaustedPhrases = []string{"out of memory", "max size", "fits in gpu memory"}

func looksExhausted(msg string) bool {
	msg = strings.ToLower(msg)
	for _, p := range exhaustedPhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// classify turns a failed prediction into an error, typed if we can retry it.
func classify(m Model, id, status, msg string) error {
	if looksExhausted(msg) {
		return &ResourceExhausted{Model: m.Name, Msg: msg}
	}
	return errors.Errorf("%s: prediction %s %s: %s", m, id, status, msg)
}

// IsResourceExhausted reports whether err is, or wraps, a *ResourceExhausted
func IsResourceExhausted(err error) bool {
	var re *ResourceExhausted
	return errors.As(err, &re)
}

// A Runner runs one model over one image.
type Runner interface {
	Run(ctx context.Context, m Model, img []byte, extra map[string]interface{}) ([]byte, error)
}

// ShrinkPolicy is how we call the memory-hungry upscalers: start under a
// pixel budget, and each time the model runs out of memory, shrink the
// budget and try again. If that never works, or the model fails some
// other way, hand the original image to the fallback model.
type ShrinkPolicy struct {
	MaxPixels  int
	Factor     float64  // budget multiplier per retry
	MinSide    int      // never shrink a side below this
	Retries    int
	Fallback   *Model
}

func DefaultShrinkPolicy() ShrinkPolicy {
	fb := Swin2SR
	return ShrinkPolicy{
		MaxPixels: 1400000,
		Factor:    0.7,
		MinSide:   256,
		Retries:   3,
		Fallback:  &fb,
	}
}

// Run calls m via r, shrinking on *ResourceExhausted.
func (sp ShrinkPolicy)Run(ctx context.Context, r Runner, m Model, img image.Image, extra map[string]interface{}) ([]byte, error) {
	budget := sp.MaxPixels
	var lastErr error

	for attempt := 0; attempt <= sp.Retries; attempt++ {
		in, err := EncodeForUpload(ShrinkToPixels(img, budget, sp.MinSide))
		if err != nil {
			return nil, err
		}

		out, err := r.Run(ctx, m, in, extra)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, errors.Wrap(err, "giving up")
		}
		if !IsResourceExhausted(err) {
			break
		}

		budget = int(float64(budget) * sp.Factor)
		log.Warn().Str("model", m.Name).Int("attempt", attempt+1).Int("budget_px", budget).Msg("resource exhausted, shrinking")
	}

	if sp.Fallback == nil {
		return nil, lastErr
	}

	log.Warn().Err(lastErr).Str("model", m.Name).Str("fallback", sp.Fallback.Name).Msg("falling back")
	in, err := EncodeForUpload(img)
	if err != nil {
		return nil, err
	}
	out, err := r.Run(ctx, *sp.Fallback, in, nil)
	return out, errors.Wrapf(err, "fallback after %v", lastErr)
}

// ShrinkToPixels scales img down, keeping the aspect ratio, until it has
// at most maxPixels; but neither side goes below minSide.
func ShrinkToPixels(img image.Image, maxPixels, minSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxPixels <= 0 || w*h <= maxPixels {
		return img
	}

	k := math.Sqrt(float64(maxPixels) / float64(w*h))
	nw := max(minSide, int(float64(w)*k))
	nh := max(minSide, int(float64(h)*k))
	return resize.Resize(uint(nw), uint(nh), img, resize.Lanczos3)
}

// FitWithin scales img down so its longest side is at most maxSide.
func FitWithin(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxSide && b.Dy() <= maxSide {
		return img
	}
	return resize.Thumbnail(uint(maxSide), uint(maxSide), img, resize.Lanczos3)
}

// EncodeForUpload is a high quality JPEG, which is what the models expect.
func EncodeForUpload(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return nil, errors.Wrap(err, "encode for upload")
	}
	return buf.Bytes(), nil
}
