package dockerhub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/neonvariant/sitestats/pkg/cache"
	"github.com/neonvariant/sitestats/pkg/errors"
	"github.com/neonvariant/sitestats/pkg/httputil"
)

const (
	defaultBaseURL = "https://hub.docker.com"
	pageSize       = 100

	// Docker Hub publishes no quota headers, so throttling is reactive: a
	// minimum gap between requests plus Retry-After on 429s.
	minGap = 500 * time.Millisecond
)

// Client fetches image pull and star counts from the Docker Hub v2 API.
// Individual repository lookups are cached; listings are always fetched
// fresh.
type Client struct {
	http      *httputil.Client
	baseURL   string
	namespace string
}

// Config assembles a Client. Namespace is required; everything else has
// defaults.
type Config struct {
	Namespace  string
	BaseURL    string        // override for tests
	Cache      cache.Cache   // nil disables caching
	CacheTTL   time.Duration // 0 means cache.DefaultTTL
	Plan       httputil.RetryPlan
	HTTPClient *http.Client
}

// NewClient creates a Docker Hub API client for one namespace's
// repositories. The v2 endpoints used here are public and need no
// authentication.
func NewClient(cfg Config) (*Client, error) {
	if err := errors.ValidateResourceName(cfg.Namespace); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "dockerhub namespace")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		http: httputil.NewClient(httputil.Config{
			Cache:       cfg.Cache,
			CachePrefix: "dockerhub:",
			CacheTTL:    cfg.CacheTTL,
			Plan:        cfg.Plan,
			Limiter:     httputil.NewRateLimiter(0, 0, minGap),
			HTTPClient:  cfg.HTTPClient,
		}),
		baseURL:   baseURL,
		namespace: cfg.Namespace,
	}, nil
}

// Repository holds the metrics tracked for one image repository.
type Repository struct {
	Name        string     `json:"name"`
	Namespace   string     `json:"namespace"`
	Description string     `json:"description"`
	PullCount   int64      `json:"pull_count"`
	StarCount   int        `json:"star_count"`
	LastUpdated *time.Time `json:"last_updated"`
}

// ListRepositories enumerates all repositories in the configured namespace,
// following the `next` URL the API returns until it is null. Each listed
// repository is primed into the cache so a subsequent GetRepository within
// the run needs no network call.
func (c *Client) ListRepositories(ctx context.Context) ([]Repository, error) {
	listURL := fmt.Sprintf("%s/v2/repositories/%s/", c.baseURL, url.PathEscape(c.namespace))
	query := url.Values{"page_size": {strconv.Itoa(pageSize)}}

	var repos []Repository
	for listURL != "" {
		var page listResponse
		if err := c.http.Do(ctx, httputil.Request{URL: listURL, Query: query}, &page); err != nil {
			return nil, err
		}
		repos = append(repos, page.Results...)

		for _, r := range page.Results {
			_ = c.http.Prime(ctx, c.repoRequest(r.Name), r)
		}

		listURL = page.Next
		query = nil // the next URL already carries its parameters
	}
	return repos, nil
}

// GetRepository fetches metrics for one repository by name. Responses are
// cached.
func (c *Client) GetRepository(ctx context.Context, name string) (*Repository, error) {
	if err := errors.ValidateResourceName(name); err != nil {
		return nil, err
	}

	var repo Repository
	if err := c.http.Do(ctx, c.repoRequest(name), &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

func (c *Client) repoRequest(name string) httputil.Request {
	return httputil.Request{
		URL:       fmt.Sprintf("%s/v2/repositories/%s/%s/", c.baseURL, url.PathEscape(c.namespace), url.PathEscape(name)),
		Cacheable: true,
	}
}

type listResponse struct {
	Count   int          `json:"count"`
	Next    string       `json:"next"`
	Results []Repository `json:"results"`
}
