package remote

import(
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// A Result is whatever shape a model handed back. It is one of URL, URLs
// or Raw; callers switch on the concrete type.
type Result interface {
	isResult()
}

type URL  string    // one output file
type URLs []string  // several; the first is the one we want
type Raw  []byte    // the image itself, inline

func (URL)isResult()  {}
func (URLs)isResult() {}
func (Raw)isResult()  {}

// ErrEmptyOutput means the model succeeded but gave us nothing to fetch
var ErrEmptyOutput = errors.New("model returned no output")

// ParseOutput classifies a prediction's `output` field. A string is a URL,
// unless it is a data: URI, in which case it is decoded into Raw. An array
// of strings is URLs.
func ParseOutput(output json.RawMessage) (Result, error) {
	var s string
	if err := json.Unmarshal(output, &s); err == nil {
		if s == "" {
			return nil, ErrEmptyOutput
		}
		if strings.HasPrefix(s, "data:") {
			return decodeDataURI(s)
		}
		return URL(s), nil
	}

	var ss []string
	if err := json.Unmarshal(output, &ss); err == nil {
		if len(ss) == 0 {
			return nil, ErrEmptyOutput
		}
		return URLs(ss), nil
	}

	return nil, errors.Errorf("unrecognised model output: %.80s", string(output))
}

func decodeDataURI(s string) (Raw, error) {
	comma := strings.IndexByte(s, ',')
	if comma < 0 || !strings.Contains(s[:comma], ";base64") {
		return nil, errors.Errorf("data URI is not base64: %.40s", s)
	}
	b, err := base64.StdEncoding.DecodeString(s[comma+1:])
	if err != nil {
		return nil, errors.Wrap(err, "data URI")
	}
	return Raw(b), nil
}

// A Fetcher downloads the bytes behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Resolve turns a Result into image bytes.
func Resolve(ctx context.Context, r Result, f Fetcher) ([]byte, error) {
	switch v := r.(type) {
	case Raw:
		if len(v) == 0 {
			return nil, ErrEmptyOutput
		}
		return []byte(v), nil
	case URL:
		return f.Fetch(ctx, string(v))
	case URLs:
		for _, u := range v {
			if u != "" {
				return f.Fetch(ctx, u)
			}
		}
		return nil, ErrEmptyOutput
	case nil:
		return nil, ErrEmptyOutput
	default:
		return nil, errors.Errorf("unknown result type %T", r)
	}
}
