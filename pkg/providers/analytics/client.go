package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/neonvariant/sitestats/pkg/cache"
	"github.com/neonvariant/sitestats/pkg/errors"
	"github.com/neonvariant/sitestats/pkg/httputil"
)

const (
	defaultBaseURL = "https://analyticsdata.googleapis.com/v1beta"

	// The earliest date with usable data; GA4 properties report nothing
	// before their creation anyway, so a fixed floor keeps reports stable.
	defaultStartDate = "2020-10-14"

	reportLimit = "10000"

	// The Data API quota is generous per-property, so a short gap between
	// requests is enough.
	minGap = 100 * time.Millisecond
)

// Client fetches page-view counts from the Google Analytics Data API (GA4).
// Reports are cached under a digest of the report query.
type Client struct {
	http       *httputil.Client
	baseURL    string
	propertyID string
	startDate  string
}

// Config assembles a Client. PropertyID and AccessToken are both required;
// the client fails fast with a configuration error before any network call
// when either is missing.
type Config struct {
	PropertyID  string
	AccessToken string        // OAuth2 bearer token with analytics.readonly scope
	StartDate   string        // YYYY-MM-DD, defaults to a fixed floor
	BaseURL     string        // override for tests
	Cache       cache.Cache   // nil disables caching
	CacheTTL    time.Duration // 0 means cache.DefaultTTL
	Plan        httputil.RetryPlan
	HTTPClient  *http.Client
}

// NewClient creates a Google Analytics Data API client for one property.
func NewClient(cfg Config) (*Client, error) {
	if cfg.PropertyID == "" {
		return nil, errors.New(errors.ErrCodeConfiguration, "analytics property ID is required")
	}
	if _, err := strconv.Atoi(cfg.PropertyID); err != nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "analytics property ID must be numeric, got %q", cfg.PropertyID)
	}
	if cfg.AccessToken == "" {
		return nil, errors.New(errors.ErrCodeConfiguration, "analytics access token is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	startDate := cfg.StartDate
	if startDate == "" {
		startDate = defaultStartDate
	}

	return &Client{
		http: httputil.NewClient(httputil.Config{
			Cache:       cfg.Cache,
			CachePrefix: "analytics:",
			CacheTTL:    cfg.CacheTTL,
			Plan:        cfg.Plan,
			Limiter:     httputil.NewRateLimiter(0, 0, minGap),
			Headers:     map[string]string{"Authorization": "Bearer " + cfg.AccessToken},
			HTTPClient:  cfg.HTTPClient,
		}),
		baseURL:    baseURL,
		propertyID: cfg.PropertyID,
		startDate:  startDate,
	}, nil
}

// PageViews runs a report of lifetime screen page views per page path.
func (c *Client) PageViews(ctx context.Context) (map[string]int64, error) {
	body, err := json.Marshal(reportRequest{
		DateRanges: []dateRange{{StartDate: c.startDate, EndDate: "today"}},
		Dimensions: []dimension{{Name: "pagePath"}},
		Metrics:    []metric{{Name: "screenPageViews"}},
		Limit:      reportLimit,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode report query")
	}

	var report reportResponse
	req := httputil.Request{
		Method:    http.MethodPost,
		URL:       fmt.Sprintf("%s/properties/%s:runReport", c.baseURL, c.propertyID),
		Body:      body,
		Cacheable: true,
	}
	if err := c.http.Do(ctx, req, &report); err != nil {
		return nil, err
	}

	views := make(map[string]int64, len(report.Rows))
	for _, row := range report.Rows {
		if len(row.DimensionValues) == 0 || len(row.MetricValues) == 0 {
			continue
		}
		path := row.DimensionValues[0].Value
		count, err := strconv.ParseInt(row.MetricValues[0].Value, 10, 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeMalformedResponse,
				"non-numeric page view count %q for %q", row.MetricValues[0].Value, path)
		}
		views[path] += count
	}
	return views, nil
}

// PageViewsWithPrefix runs the page-view report and keeps only paths under
// the given prefix, e.g. "/blog/".
func (c *Client) PageViewsWithPrefix(ctx context.Context, prefix string) (map[string]int64, error) {
	views, err := c.PageViews(ctx)
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		return views, nil
	}

	filtered := make(map[string]int64)
	for path, count := range views {
		if strings.HasPrefix(path, prefix) {
			filtered[path] += count
		}
	}
	return filtered, nil
}

type reportRequest struct {
	DateRanges []dateRange `json:"dateRanges"`
	Dimensions []dimension `json:"dimensions"`
	Metrics    []metric    `json:"metrics"`
	Limit      string      `json:"limit"`
}

type dateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type dimension struct {
	Name string `json:"name"`
}

type metric struct {
	Name string `json:"name"`
}

type reportResponse struct {
	Rows []struct {
		DimensionValues []struct {
			Value string `json:"value"`
		} `json:"dimensionValues"`
		MetricValues []struct {
			Value string `json:"value"`
		} `json:"metricValues"`
	} `json:"rows"`
	RowCount int `json:"rowCount"`
}
