package enhance

import(
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

type EncodeOptions struct {
	StartQuality  int
	QualityStep   int
	MinQuality    int  // the floor; never encode below this
	MaxAttempts   int  // including the final one at MinQuality
}

func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		StartQuality: 92,
		QualityStep:  8,
		MinQuality:   40,
		MaxAttempts:  10,
	}
}

func (eo EncodeOptions)Validate() error {
	if eo.MinQuality < 1 || eo.StartQuality > 100 || eo.MinQuality > eo.StartQuality {
		return fmt.Errorf("encoding: need 1 <= minquality(%d) <= startquality(%d) <= 100", eo.MinQuality, eo.StartQuality)
	}
	if eo.QualityStep < 1 || eo.MaxAttempts < 2 {
		return fmt.Errorf("encoding: need qualitystep(%d) >= 1, maxattempts(%d) >= 2", eo.QualityStep, eo.MaxAttempts)
	}
	return nil
}

// Encoded is a JPEG, and how we got there.
type Encoded struct {
	Bytes           []byte
	Quality         int
	Attempts        int
	BudgetExceeded  bool   // even the floor quality was over budget; Bytes is the floor encoding
}

// EncodeWithBudget encodes at the start quality, and keeps stepping the
// quality down until the JPEG fits in maxBytes. If the floor quality still
// doesn't fit, the floor encoding is returned anyway, flagged. A maxBytes
// of zero or less means no budget.
func EncodeWithBudget(img image.Image, maxBytes int, eo EncodeOptions) (Encoded, error) {
	enc := Encoded{}
	q := eo.StartQuality

	for {
		b, err := encodeJPEG(img, q)
		if err != nil {
			return Encoded{}, err
		}
		enc.Bytes, enc.Quality = b, q
		enc.Attempts++

		if maxBytes <= 0 || len(b) <= maxBytes {
			return enc, nil
		}
		if q <= eo.MinQuality {
			break
		}

		q -= eo.QualityStep
		if q < eo.MinQuality || enc.Attempts >= eo.MaxAttempts-1 {
			q = eo.MinQuality // last go is always at the floor
		}
	}

	log.Warn().Int("bytes", len(enc.Bytes)).Int("budget", maxBytes).Int("quality", enc.Quality).
		Msg("floor quality still over budget, sending it anyway")
	enc.BudgetExceeded = true
	return enc, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode at q%d: %v: %w", quality, err, ErrEncode)
	}
	return buf.Bytes(), nil
}
