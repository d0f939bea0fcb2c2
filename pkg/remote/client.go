package remote

import(
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const(
	DefaultBaseURL      = "https://api.replicate.com"
	DefaultPollInterval = 2 * time.Second

	// Don't download anything bigger than this
	maxFetchBytes = 64 * 1024 * 1024
)

// Config is the remote part of the service config.
type Config struct {
	BaseURL       string
	PollInterval  time.Duration
	Token         string `yaml:"-"`   // from the environment, never the file
}

func (c *Config)Validate() {
	if c.BaseURL == ""      { c.BaseURL = DefaultBaseURL }
	if c.PollInterval <= 0  { c.PollInterval = DefaultPollInterval }
}

// A Client runs predictions against a Replicate-style HTTP API.
type Client struct {
	Config
	HTTP *http.Client
}

func NewClient(cfg Config) *Client {
	cfg.Validate()
	return &Client{Config: cfg, HTTP: &http.Client{Timeout: 60 * time.Second}}
}

// prediction is the subset of the API's prediction object we look at.
type prediction struct {
	ID      string           `json:"id"`
	Status  string           `json:"status"`
	Output  json.RawMessage  `json:"output"`
	Error   interface{}      `json:"error"`
}

func (p prediction)errorText() string {
	switch e := p.Error.(type) {
	case nil:    return ""
	case string: return e
	default:     return fmt.Sprintf("%v", e)
	}
}

// Run sends the image to the model, waits for it to finish, and returns
// the output image bytes. Any failure that smells of the model running
// out of memory comes back as a *ResourceExhausted.
func (c *Client)Run(ctx context.Context, m Model, img []byte, extra map[string]interface{}) ([]byte, error) {
	start := time.Now()

	inputs := m.Inputs(extra)
	inputs["image"] = dataURI(img)

	p, err := c.create(ctx, m, inputs)
	if err != nil {
		return nil, err
	}
	if p, err = c.wait(ctx, m, p); err != nil {
		return nil, err
	}

	res, err := ParseOutput(p.Output)
	if err != nil {
		return nil, errors.Wrapf(err, "%s prediction %s", m, p.ID)
	}
	out, err := Resolve(ctx, res, c)
	if err != nil {
		return nil, errors.Wrapf(err, "%s prediction %s", m, p.ID)
	}

	log.Info().Str("model", m.Name).Str("prediction", p.ID).Int("in", len(img)).Int("out", len(out)).
		Dur("took", time.Since(start)).Msg("remote model done")
	return out, nil
}

func dataURI(img []byte) string {
	return "data:" + mimetype.Detect(img).String() + ";base64," + base64.StdEncoding.EncodeToString(img)
}

func (c *Client)create(ctx context.Context, m Model, inputs map[string]interface{}) (prediction, error) {
	body, err := json.Marshal(map[string]interface{}{"version": m.Version(), "input": inputs})
	if err != nil {
		return prediction{}, errors.Wrap(err, "marshal prediction")
	}

	p := prediction{}
	err = c.do(ctx, http.MethodPost, c.BaseURL+"/v1/predictions", bytes.NewReader(body), &p)
	return p, errors.Wrapf(err, "%s: create prediction", m)
}

// wait polls until the prediction reaches a terminal state, or ctx is done.
func (c *Client)wait(ctx context.Context, m Model, p prediction) (prediction, error) {
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	for {
		switch p.Status {
		case "succeeded":
			return p, nil
		case "failed", "canceled":
			return p, classify(m, p.ID, p.Status, p.errorText())
		}

		select {
		case <-ctx.Done():
			return p, errors.Wrapf(ctx.Err(), "%s: waiting on prediction %s", m, p.ID)
		case <-ticker.C:
		}

		next := prediction{}
		if err := c.do(ctx, http.MethodGet, c.BaseURL+"/v1/predictions/"+p.ID, nil, &next); err != nil {
			return p, errors.Wrapf(err, "%s: poll prediction %s", m, p.ID)
		}
		p = next
	}
}

func (c *Client)do(ctx context.Context, method, url string, body io.Reader, into interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode/100 != 2 {
		// Some deployments report OOM as a plain HTTP error
		if looksExhausted(string(b)) {
			return &ResourceExhausted{Msg: strings.TrimSpace(string(b))}
		}
		return errors.Errorf("%s %s: HTTP %d: %.200s", method, url, resp.StatusCode, string(b))
	}
	return errors.Wrap(json.Unmarshal(b, into), "decode response")
}

// Fetch downloads an output file.
func (c *Client)Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "fetch")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", url)
	}
	if len(b) > maxFetchBytes {
		return nil, errors.Errorf("fetch %s: more than %d bytes", url, maxFetchBytes)
	}
	return b, nil
}
