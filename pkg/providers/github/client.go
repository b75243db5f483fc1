package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/neonvariant/sitestats/pkg/cache"
	"github.com/neonvariant/sitestats/pkg/errors"
	"github.com/neonvariant/sitestats/pkg/httputil"
)

const (
	defaultBaseURL = "https://api.github.com"
	pageSize       = 100

	// GitHub publishes quota headers, so the client slows down proactively
	// once fewer than lowWater requests remain in the window.
	lowWater = 10
	spread   = 2 * time.Second
	minGap   = 500 * time.Millisecond
)

// Client fetches repository metrics (stars, forks, watchers, open issues)
// from the GitHub REST API. Individual repository lookups are cached;
// listings are always fetched fresh.
type Client struct {
	http    *httputil.Client
	baseURL string
	owner   string
}

// Config assembles a Client. Owner is required; everything else has
// defaults.
type Config struct {
	Owner      string
	Token      string        // empty means unauthenticated (60 req/hour)
	BaseURL    string        // override for tests
	Cache      cache.Cache   // nil disables caching
	CacheTTL   time.Duration // 0 means cache.DefaultTTL
	Plan       httputil.RetryPlan
	HTTPClient *http.Client
}

// NewClient creates a GitHub API client for one account's repositories.
func NewClient(cfg Config) (*Client, error) {
	if err := errors.ValidateResourceName(cfg.Owner); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "github owner")
	}

	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if cfg.Token != "" {
		headers["Authorization"] = "Bearer " + cfg.Token
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		http: httputil.NewClient(httputil.Config{
			Cache:       cfg.Cache,
			CachePrefix: "github:",
			CacheTTL:    cfg.CacheTTL,
			Plan:        cfg.Plan,
			Limiter:     httputil.NewRateLimiter(lowWater, spread, minGap),
			Adapter:     adapter{},
			Headers:     headers,
			HTTPClient:  cfg.HTTPClient,
		}),
		baseURL: baseURL,
		owner:   cfg.Owner,
	}, nil
}

// Repo holds the metrics tracked for one repository.
type Repo struct {
	Name        string     `json:"name"`
	FullName    string     `json:"full_name"`
	Description string     `json:"description"`
	Stars       int        `json:"stargazers_count"`
	Forks       int        `json:"forks_count"`
	Watchers    int        `json:"watchers_count"`
	OpenIssues  int        `json:"open_issues_count"`
	PushedAt    *time.Time `json:"pushed_at"`
}

// ListRepos enumerates all public repositories of the configured owner,
// following Link-header pagination. Each listed repository is primed into
// the cache so a subsequent GetRepo within the run needs no network call.
func (c *Client) ListRepos(ctx context.Context) ([]Repo, error) {
	listURL := fmt.Sprintf("%s/users/%s/repos", c.baseURL, url.PathEscape(c.owner))
	query := url.Values{"per_page": {strconv.Itoa(pageSize)}, "sort": {"full_name"}}

	var repos []Repo
	for listURL != "" {
		req := httputil.Request{URL: listURL, Query: query}

		var page []Repo
		meta, err := c.http.DoWithMeta(ctx, req, &page)
		if err != nil {
			return nil, err
		}
		repos = append(repos, page...)

		for _, r := range page {
			_ = c.http.Prime(ctx, c.repoRequest(r.Name), r)
		}

		listURL = ParseLinkNext(meta.Header)
		query = nil // the next URL already carries its parameters
	}
	return repos, nil
}

// GetRepo fetches metrics for one repository by name. Responses are cached.
func (c *Client) GetRepo(ctx context.Context, name string) (*Repo, error) {
	if err := errors.ValidateResourceName(name); err != nil {
		return nil, err
	}

	var repo Repo
	if err := c.http.Do(ctx, c.repoRequest(name), &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// RemainingQuota reports the last observed rate-limit headroom.
func (c *Client) RemainingQuota() (int, bool) {
	return c.http.Limiter().Remaining()
}

func (c *Client) repoRequest(name string) httputil.Request {
	return httputil.Request{
		URL:       fmt.Sprintf("%s/repos/%s/%s", c.baseURL, url.PathEscape(c.owner), url.PathEscape(name)),
		Cacheable: true,
	}
}

// adapter classifies GitHub responses. GitHub reports primary rate limits
// via X-RateLimit-* headers and signals both primary and secondary limits
// with 403 as well as 429, so 403 is treated as rate limiting rather than a
// permanent client error.
type adapter struct{}

func (adapter) RateMeta(h http.Header) httputil.RateMeta {
	meta := httputil.RateMeta{}
	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			meta.Remaining = n
			meta.HasRemaining = true
		}
	}
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			meta.ResetAt = time.Unix(sec, 0)
		}
	}
	meta.RetryAfter = httputil.ParseRetryAfter(h.Get("Retry-After"))
	return meta
}

func (adapter) Classify(status int) httputil.Reason {
	if status == http.StatusForbidden {
		return httputil.ReasonRateLimited
	}
	return httputil.DefaultAdapter{}.Classify(status)
}

var linkNextPattern = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="next"`)

// ParseLinkNext extracts the rel="next" URL from an RFC 8288 Link header.
// It returns "" when the header is absent or names no next page.
func ParseLinkNext(h http.Header) string {
	for _, link := range h.Values("Link") {
		if m := linkNextPattern.FindStringSubmatch(link); m != nil {
			return m[1]
		}
	}
	return ""
}
