package remote

import(
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a predictions API that needs `polls` polls before finishing.
type fakeAPI struct {
	sync.Mutex
	polls      int
	finalState string
	errText    string
	lastInput  map[string]interface{}
	lastVersion string
	srv        *httptest.Server
}

func newFakeAPI(t *testing.T, polls int, finalState, errText string) *fakeAPI {
	f := &fakeAPI{polls: polls, finalState: finalState, errText: errText}
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/predictions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		body := struct{
			Version string                 `json:"version"`
			Input   map[string]interface{} `json:"input"`
		}{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.Lock()
		f.lastInput, f.lastVersion = body.Input, body.Version
		f.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "p1", "status": "starting"})
	})

	mux.HandleFunc("/v1/predictions/p1", func(w http.ResponseWriter, r *http.Request) {
		f.Lock()
		defer f.Unlock()
		f.polls--
		resp := map[string]interface{}{"id": "p1", "status": "processing"}
		if f.polls <= 0 {
			resp["status"] = f.finalState
			if f.finalState == "succeeded" {
				resp["output"] = []string{f.srv.URL + "/files/out.png"}
			} else {
				resp["error"] = f.errText
			}
		}
		json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/files/out.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("enhanced-bytes"))
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI)client() *Client {
	return NewClient(Config{BaseURL: f.srv.URL, PollInterval: time.Millisecond, Token: "sekrit"})
}

func TestClientRunSucceeds(t *testing.T) {
	api := newFakeAPI(t, 3, "succeeded", "")

	out, err := api.client().Run(context.Background(), Refiner, jpegOf(t, 8, 8), map[string]interface{}{"seed": 7})
	require.NoError(t, err)
	assert.Equal(t, "enhanced-bytes", string(out))

	assert.Equal(t, Refiner.Version(), api.lastVersion)
	assert.Equal(t, RefinerPrompt, api.lastInput["prompt"])
	assert.Equal(t, 7.0, api.lastInput["seed"])
	assert.True(t, strings.HasPrefix(api.lastInput["image"].(string), "data:image/jpeg;base64,"))
}

func TestClientClassifiesOOM(t *testing.T) {
	api := newFakeAPI(t, 1, "failed", "CUDA out of memory. Tried to allocate 2.00 GiB")

	_, err := api.client().Run(context.Background(), ESRGAN, jpegOf(t, 8, 8), nil)
	require.Error(t, err)
	assert.True(t, IsResourceExhausted(err))
}

func TestClientOtherFailure(t *testing.T) {
	api := newFakeAPI(t, 1, "failed", "NSFW content detected")

	_, err := api.client().Run(context.Background(), Refiner, jpegOf(t, 8, 8), nil)
	require.Error(t, err)
	assert.False(t, IsResourceExhausted(err))
	assert.Contains(t, err.Error(), "NSFW")
}

func TestClientHonoursContext(t *testing.T) {
	api := newFakeAPI(t, 1000000, "succeeded", "")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := api.client().Run(ctx, Refiner, jpegOf(t, 8, 8), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "oom") {
			http.Error(w, "input exceeds max size for this GPU", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Run(context.Background(), Refiner, jpegOf(t, 8, 8), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	c = NewClient(Config{BaseURL: srv.URL + "/oom"})
	_, err = c.Run(context.Background(), Refiner, jpegOf(t, 8, 8), nil)
	assert.True(t, IsResourceExhausted(err))

	_, err = c.Fetch(context.Background(), srv.URL+"/files/x.png")
	assert.Error(t, err)
}

func TestModels(t *testing.T) {
	assert.Equal(t, "507ddf6f977a7e30e46c0daefd30de7d563c72322f9e4cf7cbac52ef0f667b13", Refiner.Version())
	assert.Equal(t, "nohash", Model{ID: "nohash"}.Version())

	m, ok := LookupModel("swin2sr")
	require.True(t, ok)
	assert.Equal(t, Swin2SR.ID, m.ID)

	in := ClarityUpscaler.Inputs(map[string]interface{}{"creativity": 0.5})
	assert.Equal(t, 0.5, in["creativity"])
	assert.Equal(t, 0.72, in["resemblance"])
	assert.Equal(t, 0.22, ClarityUpscaler.Defaults["creativity"], "defaults are not modified")
}
