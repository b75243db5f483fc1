package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/neonvariant/sitestats/pkg/cache"
	"github.com/neonvariant/sitestats/pkg/errors"
	"github.com/neonvariant/sitestats/pkg/observability"
)

// httpTimeout bounds a single network attempt. The overall run budget is the
// caller's context deadline.
const httpTimeout = 30 * time.Second

// Request describes one logical request to a provider API.
type Request struct {
	Method    string     // defaults to GET
	URL       string     // absolute URL
	Query     url.Values // merged into the URL's own query parameters
	Body      []byte     // request body, e.g. a report query (nil for GET)
	Cacheable bool       // whether a successful response may be cached
}

// Key returns the cache key for the request: method plus the normalized URL
// with query parameters in sorted order, plus a body digest when a body is
// present. Structurally equal requests produce equal keys.
func (r Request) Key() string {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	key := method + " " + r.URL
	if u, err := url.Parse(r.URL); err == nil {
		q := u.Query()
		for k, vs := range r.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode() // Encode sorts keys
		u.Fragment = ""
		key = method + " " + u.String()
	}
	if len(r.Body) > 0 {
		key += " " + cache.Hash(r.Body)
	}
	return key
}

// ResponseMeta carries transport metadata for callers that need response
// headers, e.g. Link-header pagination. Cached responses have no headers, so
// pagination requests must be non-cacheable.
type ResponseMeta struct {
	StatusCode int
	Header     http.Header
}

// Config assembles a Client. Zero-value fields fall back to defaults.
type Config struct {
	Cache       cache.Cache       // nil disables caching entirely
	CachePrefix string            // key namespace, e.g. "github:"
	CacheTTL    time.Duration     // 0 means cache.DefaultTTL
	Plan        RetryPlan         // zero value means DefaultRetryPlan
	Limiter     *RateLimiter      // nil means a limiter with no thresholds
	Adapter     Adapter           // nil means DefaultAdapter
	Headers     map[string]string // applied to every request
	HTTPClient  *http.Client      // nil means a client with the default timeout
}

// Client orchestrates a single logical request: cache consultation, rate
// limiting, the network call, outcome classification, retries with backoff,
// and rate-state updates from response metadata.
//
// One Client serves one provider. Calls are issued sequentially by the
// enumerator, so the client keeps no cross-call synchronization beyond what
// the cache backend provides.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	prefix  string
	ttl     time.Duration
	plan    RetryPlan
	limiter *RateLimiter
	adapter Adapter
	headers map[string]string

	// sleep is the only suspension primitive; tests replace it to observe
	// delays without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client from cfg, applying defaults for unset fields.
func NewClient(cfg Config) *Client {
	c := &Client{
		http:    cfg.HTTPClient,
		cache:   cfg.Cache,
		prefix:  cfg.CachePrefix,
		ttl:     cfg.CacheTTL,
		plan:    cfg.Plan,
		limiter: cfg.Limiter,
		adapter: cfg.Adapter,
		headers: cfg.Headers,
		sleep:   sleepContext,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: httpTimeout}
	}
	if c.cache == nil {
		c.cache = cache.NewNullCache()
	}
	if c.ttl == 0 {
		c.ttl = cache.DefaultTTL
	}
	if c.plan.MaxAttempts == 0 {
		c.plan = DefaultRetryPlan()
	}
	if c.limiter == nil {
		c.limiter = NewRateLimiter(0, 0, 0)
	}
	if c.adapter == nil {
		c.adapter = DefaultAdapter{}
	}
	return c
}

// Limiter exposes the client's rate limiter, mainly for enumerators that
// want to log quota state.
func (c *Client) Limiter() *RateLimiter { return c.limiter }

// Prime stores v as the cached response for req without a network call.
// Enumerators use it to seed per-resource entries from a listing response,
// so later individual lookups within the run hit the cache.
func (c *Client) Prime(ctx context.Context, req Request, v any) error {
	if !req.Cacheable {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	key := c.prefix + req.Key()
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, c.prefix, len(data))
	return nil
}

// Do performs the request and JSON-decodes the response body into v.
// Cacheable requests are answered from the cache when possible, without any
// network call or rate-limiter interaction.
func (c *Client) Do(ctx context.Context, req Request, v any) error {
	_, err := c.DoWithMeta(ctx, req, v)
	return err
}

// DoWithMeta is Do for callers that also need response headers. Meta is nil
// when the response was served from the cache.
func (c *Client) DoWithMeta(ctx context.Context, req Request, v any) (*ResponseMeta, error) {
	key := c.prefix + req.Key()

	if req.Cacheable {
		if data, hit, _ := c.cache.Get(ctx, key); hit {
			if err := json.Unmarshal(data, v); err == nil {
				observability.Cache().OnCacheHit(ctx, c.prefix)
				return nil, nil
			}
			// Undecodable cache entries fall through to a fresh fetch.
		}
		observability.Cache().OnCacheMiss(ctx, c.prefix)
	}

	var (
		lastReason Reason
		lastDetail string
	)

	for attempt := 1; attempt <= c.plan.MaxAttempts; attempt++ {
		if pause := c.limiter.ShouldPause(); pause > 0 {
			if err := c.sleep(ctx, pause); err != nil {
				return nil, timeoutError(req, err)
			}
		}

		body, meta, reason, detail := c.attempt(ctx, req)

		if reason == ReasonNone {
			if v != nil {
				if err := json.Unmarshal(body, v); err != nil {
					return nil, errors.Wrap(errors.ErrCodeMalformedResponse, err, "decode %s", req.URL)
				}
			}
			if req.Cacheable {
				if err := c.cache.Set(ctx, key, body, c.ttl); err == nil {
					observability.Cache().OnCacheSet(ctx, c.prefix, len(body))
				}
			}
			return meta, nil
		}

		if !reason.Retryable() {
			return nil, fatalError(req, reason, detail)
		}

		// Caller cancellation ends the run immediately, even when the
		// failure itself would have been retryable.
		if ctx.Err() != nil {
			return nil, timeoutError(req, ctx.Err())
		}

		lastReason, lastDetail = reason, detail
		if attempt == c.plan.MaxAttempts {
			break
		}

		hint := time.Duration(0)
		if meta != nil {
			hint = c.adapter.RateMeta(meta.Header).RetryAfter
		}
		if err := c.sleep(ctx, c.plan.DelayFor(attempt, hint)); err != nil {
			return nil, timeoutError(req, err)
		}
	}

	if lastReason == ReasonRateLimited {
		return nil, errors.New(errors.ErrCodeRateLimitExhausted,
			"%s: %s after %d attempts", req.URL, lastDetail, c.plan.MaxAttempts)
	}
	return nil, errors.New(errors.ErrCodeTransientNetwork,
		"%s: %s after %d attempts", req.URL, lastDetail, c.plan.MaxAttempts)
}

// attempt performs one network call and classifies the result. The rate
// limiter observes every attempt, success or failure, with whatever metadata
// the response carried.
func (c *Client) attempt(ctx context.Context, req Request) (body []byte, meta *ResponseMeta, reason Reason, detail string) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, nil, ReasonClientError, err.Error()
	}

	observability.HTTP().OnRequest(ctx, httpReq.Method, httpReq.URL.Host, httpReq.URL.Path)
	start := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.limiter.Observe(RateMeta{}, false)
		observability.HTTP().OnError(ctx, httpReq.Method, httpReq.URL.Host, httpReq.URL.Path, err)
		if isTimeout(err) {
			return nil, nil, ReasonTimeout, err.Error()
		}
		return nil, nil, ReasonConnection, err.Error()
	}
	defer resp.Body.Close()

	rateMeta := c.adapter.RateMeta(resp.Header)
	reason = c.adapter.Classify(resp.StatusCode)
	observability.HTTP().OnResponse(ctx, httpReq.Method, httpReq.URL.Host, httpReq.URL.Path,
		resp.StatusCode, time.Since(start))

	meta = &ResponseMeta{StatusCode: resp.StatusCode, Header: resp.Header}

	if reason != ReasonNone {
		c.limiter.Observe(rateMeta, false)
		return nil, meta, reason, fmt.Sprintf("status %d", resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		c.limiter.Observe(rateMeta, false)
		return nil, meta, ReasonConnection, err.Error()
	}
	c.limiter.Observe(rateMeta, true)
	return body, meta, ReasonNone, ""
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

func fatalError(req Request, reason Reason, detail string) error {
	switch reason {
	case ReasonNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s: %s", req.URL, detail)
	default:
		return errors.New(errors.ErrCodeClient, "%s: %s", req.URL, detail)
	}
}

func timeoutError(req Request, cause error) error {
	return errors.Wrap(errors.ErrCodeTransientNetwork, cause, "%s: aborted", req.URL)
}

func isTimeout(err error) bool {
	var ne net.Error
	if stderrors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return stderrors.Is(err, context.DeadlineExceeded)
}

// sleepContext waits for d or until ctx is cancelled, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
