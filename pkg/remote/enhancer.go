package remote

import(
	"bytes"
	"context"
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// A Step is one model call in a chain.
type Step struct {
	Model   Model
	Extra   map[string]interface{}
	Shrink  *ShrinkPolicy   // nil means call the model once, as is
}

func (s Step)String() string { return s.Model.Name }

// Enhancer runs a chain of model steps over an image; each step gets the
// previous step's output.
type Enhancer struct {
	Runner        Runner
	InputMaxSide  int
}

func NewEnhancer(r Runner) *Enhancer {
	return &Enhancer{Runner: r, InputMaxSide: InputMaxSide}
}

func (e *Enhancer)Enhance(ctx context.Context, img []byte, steps []Step) ([]byte, error) {
	cur, err := decode(img)
	if err != nil {
		return nil, errors.Wrap(err, "remote input")
	}
	cur = FitWithin(cur, e.InputMaxSide)

	var out []byte
	for i, st := range steps {
		if st.Shrink != nil {
			out, err = st.Shrink.Run(ctx, e.Runner, st.Model, cur, st.Extra)
		} else {
			var in []byte
			if in, err = EncodeForUpload(cur); err == nil {
				out, err = e.Runner.Run(ctx, st.Model, in, st.Extra)
			}
		}
		if err != nil {
			return nil, errors.Wrapf(err, "step %d (%s)", i+1, st)
		}

		// Don't trust what came back until it decodes
		if cur, err = decode(out); err != nil {
			return nil, errors.Wrapf(err, "step %d (%s) output", i+1, st)
		}
	}

	if out == nil {
		return img, nil
	}
	return out, nil
}

func decode(b []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
}
