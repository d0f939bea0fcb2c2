package remote

import(
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher map[string][]byte

func (f fakeFetcher)Fetch(ctx context.Context, url string) ([]byte, error) {
	if b, exists := f[url]; exists {
		return b, nil
	}
	return nil, assert.AnError
}

func TestParseOutput(t *testing.T) {
	png := []byte("\x89PNG fake")
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	tests := []struct{
		in   string
		want Result
	}{
		{`"https://x/out.png"`, URL("https://x/out.png")},
		{`["https://x/a.png", "https://x/b.png"]`, URLs{"https://x/a.png", "https://x/b.png"}},
		{mustJSON(t, dataURI), Raw(png)},
	}
	for _, test := range tests {
		got, err := ParseOutput(json.RawMessage(test.in))
		require.NoError(t, err, test.in)
		assert.Equal(t, test.want, got, test.in)
	}

	for _, bad := range []string{`""`, `[]`, `null`, `{"url": "x"}`, `42`, `"data:image/png,notbase64"`} {
		_, err := ParseOutput(json.RawMessage(bad))
		assert.Error(t, err, bad)
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	f := fakeFetcher{"https://x/a.png": []byte("A"), "https://x/b.png": []byte("B")}

	for name, test := range map[string]struct{
		r    Result
		want string
	}{
		"url":          {URL("https://x/b.png"), "B"},
		"urls":         {URLs{"https://x/a.png", "https://x/b.png"}, "A"},
		"urls, blanks": {URLs{"", "https://x/b.png"}, "B"},
		"raw":          {Raw("C"), "C"},
	} {
		b, err := Resolve(ctx, test.r, f)
		require.NoError(t, err, name)
		assert.Equal(t, test.want, string(b), name)
	}

	_, err := Resolve(ctx, URLs{}, f)
	assert.ErrorIs(t, err, ErrEmptyOutput)
	_, err = Resolve(ctx, nil, f)
	assert.ErrorIs(t, err, ErrEmptyOutput)
	_, err = Resolve(ctx, URL("https://x/missing"), f)
	assert.Error(t, err)
}

func mustJSON(t *testing.T, v interface{}) string {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
