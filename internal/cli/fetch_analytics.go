package cli

import (
	"context"
	"time"

	"github.com/neonvariant/sitestats/pkg/cache"
	"github.com/neonvariant/sitestats/pkg/observability"
	"github.com/neonvariant/sitestats/pkg/providers/analytics"
	"github.com/neonvariant/sitestats/pkg/snapshot"
)

func (c *CLI) fetchAnalytics(ctx context.Context, cfg *Config, httpCache cache.Cache, store *snapshot.Store) (resources, failures int, err error) {
	client, err := analytics.NewClient(analytics.Config{
		PropertyID:  cfg.Analytics.PropertyID,
		AccessToken: cfg.Analytics.AccessToken,
		Cache:       httpCache,
		CacheTTL:    cfg.CacheTTL(),
		Plan:        cfg.RetryPlan(),
	})
	if err != nil {
		return 0, 0, err
	}
	return collectAnalytics(ctx, client, store, cfg.Analytics.PropertyID, cfg.Analytics.BlogPathPrefix, time.Now())
}

// collectAnalytics runs the page-view report and writes the snapshot. The
// report is a single API call, so unlike the repository fetchers there are
// no per-resource error entries: the run succeeds or fails as a whole.
func collectAnalytics(ctx context.Context, client *analytics.Client, store *snapshot.Store, propertyID, blogPrefix string, now time.Time) (resources, failures int, err error) {
	logger := loggerFromContext(ctx)

	views, err := client.PageViews(ctx)
	if err != nil {
		return 0, 0, err
	}
	// Served from the report cached a moment ago.
	blog, err := client.PageViewsWithPrefix(ctx, blogPrefix)
	if err != nil {
		return 0, 0, err
	}

	observability.Fetch().OnResource(ctx, providerAnalytics, propertyID, nil)
	logger.Debug("report fetched", "paths", len(views), "blog_posts", len(blog))

	var prevDoc snapshot.AnalyticsSnapshot
	var prev *snapshot.AnalyticsSnapshot
	if found, err := store.Load(snapshot.AnalyticsFile, &prevDoc); err != nil {
		logger.Warn("previous snapshot unreadable, rebuilding", "err", err)
	} else if found {
		prev = &prevDoc
	}

	doc := snapshot.BuildAnalytics(prev, propertyID, blogPrefix, views, blog, now)
	if err := store.Write(snapshot.AnalyticsFile, doc); err != nil {
		return 0, 0, err
	}
	return len(views), 0, nil
}
