package imagegen

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake-image")

type recorder struct {
	mu     sync.Mutex
	calls  map[string]int
	bodies map[string][]map[string]any
	auth   string
}

func newRecorder() *recorder {
	return &recorder{calls: map[string]int{}, bodies: map[string][]map[string]any{}}
}

func (r *recorder) record(req *http.Request) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, _ := io.ReadAll(req.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)
	r.calls[req.URL.Path]++
	r.bodies[req.URL.Path] = append(r.bodies[req.URL.Path], body)
	r.auth = req.Header.Get("Authorization")
	return r.calls[req.URL.Path]
}

func (r *recorder) count(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[path]
}

type sleeps struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleeps) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return nil
}

func singleTierPlan(t *testing.T, base string, providers ...Provider) Plan {
	t.Helper()
	for i := range providers {
		providers[i].Endpoint = base + "/" + providers[i].Name
	}
	plan, err := Plan{Tiers: []Tier{{Name: "primary", Providers: providers}}}.Normalize(base)
	require.NoError(t, err)
	return plan
}

func TestGenerate_LoadingModelThenNextModelSucceeds(t *testing.T) {
	rec := newRecorder()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		switch r.URL.Path {
		case "/m1":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Model m1 is currently loading","estimated_time":1}`))
		case "/m2":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngBytes)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer ts.Close()

	plan := singleTierPlan(t, ts.URL,
		Provider{Name: "m1"},
		Provider{Name: "m2"},
		Provider{Name: "m3"},
	)
	sl := &sleeps{}
	gen := NewGenerator(NewHuggingFace("hf_test"), plan).WithSleep(sl.sleep)

	img, err := gen.Generate(context.Background(), "req-1", "a cat")
	require.NoError(t, err)

	assert.Equal(t, pngBytes, img.Data)
	assert.Equal(t, "m2", img.Provider)
	assert.Equal(t, 2, rec.count("/m1"))
	assert.Equal(t, 1, rec.count("/m2"))
	assert.Equal(t, 0, rec.count("/m3"))
	assert.Equal(t, []time.Duration{time.Second}, sl.waits)
	assert.Equal(t, "Bearer hf_test", rec.auth)
}

func TestGenerate_NonLoadingFailureAdvancesImmediately(t *testing.T) {
	rec := newRecorder()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid inputs"}`))
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(pngBytes)
	}))
	defer ts.Close()

	plan := singleTierPlan(t, ts.URL, Provider{Name: "bad"}, Provider{Name: "good"})
	gen := NewGenerator(NewHuggingFace("hf_test"), plan).WithSleep((&sleeps{}).sleep)

	img, err := gen.Generate(context.Background(), "", "a dog")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.ContentType)
	assert.Equal(t, 1, rec.count("/bad"))
}

func TestGenerate_WaitIsCappedAndDefaulted(t *testing.T) {
	p := Provider{DefaultWait: 5 * time.Second, MaxWait: 20 * time.Second}

	assert.Equal(t, 5*time.Second, p.waitFor(0))
	assert.Equal(t, 20*time.Second, p.waitFor(90*time.Second))
	assert.Equal(t, 7*time.Second, p.waitFor(7*time.Second))
}

func TestGenerate_FallsThroughTiersToMinimalPayload(t *testing.T) {
	rec := newRecorder()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := rec.record(r)
		if r.URL.Path == "/flux" && n == 2 {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngBytes)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	plan, err := Plan{Tiers: []Tier{
		{Name: "primary", Providers: []Provider{{Name: "flux", Endpoint: ts.URL + "/flux"}}},
		{Name: "secondary", Providers: []Provider{{Name: "sd21", Endpoint: ts.URL + "/sd21"}}},
		{Name: "minimal", Providers: []Provider{{Name: "flux-min", Endpoint: ts.URL + "/flux", Payload: PayloadMinimal}}},
	}}.Normalize(ts.URL)
	require.NoError(t, err)

	img, err := NewGenerator(NewHuggingFace("hf_test"), plan).Generate(context.Background(), "", "a cat")
	require.NoError(t, err)
	assert.Equal(t, "flux-min", img.Provider)
	assert.Equal(t, 1, rec.count("/sd21"))

	bodies := rec.bodies["/flux"]
	require.Len(t, bodies, 2)
	assert.Contains(t, bodies[0], "parameters")
	assert.NotContains(t, bodies[1], "parameters")
	assert.Equal(t, "a cat", bodies[1]["inputs"])
}

func TestGenerate_AllTiersFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	defer ts.Close()

	plan := singleTierPlan(t, ts.URL, Provider{Name: "a"}, Provider{Name: "b"})
	_, err := NewGenerator(NewHuggingFace("hf_test"), plan).Generate(context.Background(), "", "x")

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestGenerate_WithoutTokenNeverCallsOut(t *testing.T) {
	rec := newRecorder()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
	}))
	defer ts.Close()

	plan := singleTierPlan(t, ts.URL, Provider{Name: "a"})
	_, err := NewGenerator(NewHuggingFace(""), plan).Generate(context.Background(), "", "x")

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, 0, rec.count("/a"))
}
