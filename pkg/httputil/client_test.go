package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/neonvariant/sitestats/pkg/cache"
	"github.com/neonvariant/sitestats/pkg/errors"
)

// newTestClient builds a client with a memory cache, no jitter, and a sleep
// function that records delays instead of waiting.
func newTestClient(t *testing.T) (*Client, *[]time.Duration) {
	t.Helper()
	var delays []time.Duration

	c := NewClient(Config{
		Cache:       cache.NewMemoryCache(),
		CachePrefix: "test:",
		Plan: RetryPlan{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			Multiplier:  2,
			MaxDelay:    60 * time.Second,
			Jitter:      0,
		},
	})
	c.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	return c, &delays
}

func TestRequestKey(t *testing.T) {
	a := Request{URL: "https://api.example.com/repos/foo", Query: url.Values{"b": {"2"}, "a": {"1"}}}
	b := Request{URL: "https://api.example.com/repos/foo?a=1&b=2"}

	if a.Key() != b.Key() {
		t.Errorf("structurally equal requests produced different keys:\n%s\n%s", a.Key(), b.Key())
	}

	c := Request{Method: http.MethodPost, URL: "https://api.example.com/repos/foo?a=1&b=2"}
	if a.Key() == c.Key() {
		t.Error("different methods should produce different keys")
	}

	d := Request{Method: http.MethodPost, URL: c.URL, Body: []byte(`{"metric":"views"}`)}
	e := Request{Method: http.MethodPost, URL: c.URL, Body: []byte(`{"metric":"pulls"}`)}
	if d.Key() == e.Key() {
		t.Error("different bodies should produce different keys")
	}
}

func TestDoSuccess(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"pulls": 42}`))
	}))
	defer server.Close()

	c, _ := newTestClient(t)

	var out struct {
		Pulls int `json:"pulls"`
	}
	if err := c.Do(context.Background(), Request{URL: server.URL + "/repo/foo"}, &out); err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if out.Pulls != 42 {
		t.Errorf("pulls = %d, want 42", out.Pulls)
	}
	if calls != 1 {
		t.Errorf("network calls = %d, want 1", calls)
	}
}

func TestDoCacheHitSkipsNetwork(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"pulls": 42}`))
	}))
	defer server.Close()

	c, _ := newTestClient(t)
	req := Request{URL: server.URL + "/repo/foo", Cacheable: true}

	var first, second struct {
		Pulls int `json:"pulls"`
	}
	if err := c.Do(context.Background(), req, &first); err != nil {
		t.Fatalf("first Do error: %v", err)
	}
	if err := c.Do(context.Background(), req, &second); err != nil {
		t.Fatalf("second Do error: %v", err)
	}

	if calls != 1 {
		t.Errorf("network calls = %d, want 1 (second request served from cache)", calls)
	}
	if second.Pulls != 42 {
		t.Errorf("cached pulls = %d, want 42", second.Pulls)
	}
}

func TestDoSuccessAfterRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	c, delays := newTestClient(t)

	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.Do(context.Background(), Request{URL: server.URL}, &out); err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if !out.OK {
		t.Error("payload not decoded")
	}
	if calls != 3 {
		t.Errorf("network calls = %d, want 3 (success on the third attempt)", calls)
	}
	if want := []time.Duration{time.Second, 2 * time.Second}; len(*delays) != len(want) {
		t.Fatalf("delays = %v, want %v", *delays, want)
	} else {
		for i := range want {
			if (*delays)[i] != want[i] {
				t.Errorf("delay %d = %v, want %v", i, (*delays)[i], want[i])
			}
		}
	}
}

func TestDoExhaustsRetriesOn503(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, delays := newTestClient(t)

	err := c.Do(context.Background(), Request{URL: server.URL}, nil)
	if !errors.Is(err, errors.ErrCodeTransientNetwork) {
		t.Errorf("error code = %v, want TRANSIENT_NETWORK", errors.GetCode(err))
	}
	if calls != 3 {
		t.Errorf("network calls = %d, want exactly MaxAttempts (3)", calls)
	}

	// Each retry is preceded by an increasing backoff delay.
	if len(*delays) != 2 {
		t.Fatalf("delays = %v, want 2 entries", *delays)
	}
	if (*delays)[0] >= (*delays)[1] {
		t.Errorf("delays not increasing: %v", *delays)
	}
}

func TestDoRateLimitedWithRetryAfterHint(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c, delays := newTestClient(t)
	c.plan.MaxAttempts = 4

	err := c.Do(context.Background(), Request{URL: server.URL}, nil)
	if !errors.Is(err, errors.ErrCodeRateLimitExhausted) {
		t.Errorf("error code = %v, want RATE_LIMIT_EXHAUSTED", errors.GetCode(err))
	}
	if calls != 4 {
		t.Errorf("network calls = %d, want 4", calls)
	}

	// The hint dominates the computed exponential delay for every retry.
	for i, d := range *delays {
		if d < 5*time.Second {
			t.Errorf("delay %d = %v, want at least 5s from Retry-After hint", i, d)
		}
	}
}

func TestDoNotFoundIsFatal(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c, delays := newTestClient(t)

	err := c.Do(context.Background(), Request{URL: server.URL}, nil)
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("error code = %v, want NOT_FOUND", errors.GetCode(err))
	}
	if calls != 1 {
		t.Errorf("network calls = %d, want exactly 1 (no retries on 4xx)", calls)
	}
	if len(*delays) != 0 {
		t.Errorf("delays = %v, want none", *delays)
	}
}

func TestDoClientErrorIsFatal(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c, _ := newTestClient(t)

	err := c.Do(context.Background(), Request{URL: server.URL}, nil)
	if !errors.Is(err, errors.ErrCodeClient) {
		t.Errorf("error code = %v, want CLIENT_ERROR", errors.GetCode(err))
	}
	if calls != 1 {
		t.Errorf("network calls = %d, want 1", calls)
	}
}

func TestDoMalformedResponseIsFatal(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"pulls": `)) // truncated JSON
	}))
	defer server.Close()

	c, _ := newTestClient(t)

	var out map[string]any
	err := c.Do(context.Background(), Request{URL: server.URL}, &out)
	if !errors.Is(err, errors.ErrCodeMalformedResponse) {
		t.Errorf("error code = %v, want MALFORMED_RESPONSE", errors.GetCode(err))
	}
	if calls != 1 {
		t.Errorf("network calls = %d, want 1 (schema mismatch is not retried)", calls)
	}
}

func TestDoConnectionErrorRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // immediately unreachable

	c, _ := newTestClient(t)

	err := c.Do(context.Background(), Request{URL: server.URL}, nil)
	if !errors.Is(err, errors.ErrCodeTransientNetwork) {
		t.Errorf("error code = %v, want TRANSIENT_NETWORK", errors.GetCode(err))
	}
}

func TestDoObservesRateHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "57")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c, _ := newTestClient(t)

	var out map[string]any
	if err := c.Do(context.Background(), Request{URL: server.URL}, &out); err != nil {
		t.Fatalf("Do error: %v", err)
	}

	remaining, known := c.Limiter().Remaining()
	if !known || remaining != 57 {
		t.Errorf("limiter state = (%d, %v), want (57, true)", remaining, known)
	}
}

func TestDoHonorsRateLimiterPause(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c, delays := newTestClient(t)
	c.limiter = NewRateLimiter(10, 500*time.Millisecond, 0)
	c.limiter.Observe(RateMeta{Remaining: 3, HasRemaining: true}, true)

	var out map[string]any
	if err := c.Do(context.Background(), Request{URL: server.URL}, &out); err != nil {
		t.Fatalf("Do error: %v", err)
	}

	if len(*delays) == 0 || (*delays)[0] != 500*time.Millisecond {
		t.Errorf("delays = %v, want leading 500ms low-water pause", *delays)
	}
}

func TestDoWithMetaExposesHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", `<https://api.example.com/page2>; rel="next"`)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c, _ := newTestClient(t)

	var out []any
	meta, err := c.DoWithMeta(context.Background(), Request{URL: server.URL}, &out)
	if err != nil {
		t.Fatalf("DoWithMeta error: %v", err)
	}
	if meta == nil {
		t.Fatal("meta should be non-nil for a network response")
	}
	if got := meta.Header.Get("Link"); got == "" {
		t.Error("Link header should be exposed through ResponseMeta")
	}
}

func TestDoCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, _ := newTestClient(t)
	err := c.Do(ctx, Request{URL: server.URL}, nil)
	if err == nil {
		t.Fatal("Do should fail when the context is already cancelled")
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"empty", "", 0},
		{"seconds", "5", 5 * time.Second},
		{"zero", "0", 0},
		{"negative", "-3", 0},
		{"garbage", "soon", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseRetryAfter(tt.value); got != tt.want {
				t.Errorf("ParseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}

	t.Run("http date", func(t *testing.T) {
		v := time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat)
		got := ParseRetryAfter(v)
		if got <= 0 || got > 10*time.Second {
			t.Errorf("ParseRetryAfter(date) = %v, want (0, 10s]", got)
		}
	})
}

func TestClassifyDefault(t *testing.T) {
	tests := []struct {
		status int
		want   Reason
	}{
		{200, ReasonNone},
		{201, ReasonNone},
		{404, ReasonNotFound},
		{429, ReasonRateLimited},
		{500, ReasonServerError},
		{502, ReasonServerError},
		{503, ReasonServerError},
		{400, ReasonClientError},
		{403, ReasonClientError},
	}

	var a DefaultAdapter
	for _, tt := range tests {
		if got := a.Classify(tt.status); got != tt.want {
			t.Errorf("Classify(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
