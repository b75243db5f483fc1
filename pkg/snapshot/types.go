package snapshot

import (
	"reflect"
	"time"
)

// historyLimit caps the analytics history ring. Roughly three months of
// daily runs.
const historyLimit = 100

// DockerHubSnapshot is the dockerhub-stats.json document.
type DockerHubSnapshot struct {
	LastUpdated  time.Time                 `json:"last_updated"`
	Namespace    string                    `json:"namespace"`
	Totals       DockerHubTotals           `json:"totals"`
	Repositories map[string]DockerHubEntry `json:"repositories"`
}

// DockerHubTotals aggregates all successfully fetched repositories.
type DockerHubTotals struct {
	TotalPulls int64 `json:"total_pulls"`
	TotalStars int   `json:"total_stars"`
}

// DockerHubEntry is one repository in the snapshot: either stats, inlined,
// or an error message for repositories whose fetch failed this run.
type DockerHubEntry struct {
	Error string `json:"error,omitempty"`
	*DockerHubRepoStats
}

// DockerHubRepoStats holds the tracked metrics for one image repository.
type DockerHubRepoStats struct {
	Description string     `json:"description"`
	PullCount   int64      `json:"pull_count"`
	StarCount   int        `json:"star_count"`
	LastPushed  *time.Time `json:"last_pushed,omitempty"`
}

// BuildDockerHub assembles a snapshot from this run's entries. Totals count
// only entries that fetched successfully. When nothing changed since prev,
// the previous last_updated is carried over so consumers can tell real
// updates from no-op runs.
func BuildDockerHub(prev *DockerHubSnapshot, namespace string, entries map[string]DockerHubEntry, now time.Time) DockerHubSnapshot {
	var totals DockerHubTotals
	for _, e := range entries {
		if e.Error != "" || e.DockerHubRepoStats == nil {
			continue
		}
		totals.TotalPulls += e.PullCount
		totals.TotalStars += e.StarCount
	}

	doc := DockerHubSnapshot{
		LastUpdated:  now,
		Namespace:    namespace,
		Totals:       totals,
		Repositories: entries,
	}
	if prev != nil && prev.Namespace == namespace &&
		prev.Totals == totals && reflect.DeepEqual(prev.Repositories, entries) {
		doc.LastUpdated = prev.LastUpdated
	}
	return doc
}

// GitHubSnapshot is the github-stats.json document.
type GitHubSnapshot struct {
	LastUpdated  time.Time              `json:"last_updated"`
	Owner        string                 `json:"owner"`
	Totals       GitHubTotals           `json:"totals"`
	Repositories map[string]GitHubEntry `json:"repositories"`
}

// GitHubTotals aggregates all successfully fetched repositories.
type GitHubTotals struct {
	Stars      int `json:"stars"`
	Forks      int `json:"forks"`
	Watchers   int `json:"watchers"`
	OpenIssues int `json:"open_issues"`
}

// GitHubEntry is one repository in the snapshot: either stats, inlined, or
// an error message for repositories whose fetch failed this run.
type GitHubEntry struct {
	Error string `json:"error,omitempty"`
	*GitHubRepoStats
}

// GitHubRepoStats holds the tracked metrics for one repository.
type GitHubRepoStats struct {
	Description string     `json:"description"`
	Stars       int        `json:"stargazers_count"`
	Forks       int        `json:"forks_count"`
	Watchers    int        `json:"watchers_count"`
	OpenIssues  int        `json:"open_issues_count"`
	PushedAt    *time.Time `json:"pushed_at,omitempty"`
}

// BuildGitHub assembles a snapshot from this run's entries, with the same
// totals and change-detection semantics as BuildDockerHub.
func BuildGitHub(prev *GitHubSnapshot, owner string, entries map[string]GitHubEntry, now time.Time) GitHubSnapshot {
	var totals GitHubTotals
	for _, e := range entries {
		if e.Error != "" || e.GitHubRepoStats == nil {
			continue
		}
		totals.Stars += e.Stars
		totals.Forks += e.Forks
		totals.Watchers += e.Watchers
		totals.OpenIssues += e.OpenIssues
	}

	doc := GitHubSnapshot{
		LastUpdated:  now,
		Owner:        owner,
		Totals:       totals,
		Repositories: entries,
	}
	if prev != nil && prev.Owner == owner &&
		prev.Totals == totals && reflect.DeepEqual(prev.Repositories, entries) {
		doc.LastUpdated = prev.LastUpdated
	}
	return doc
}

// AnalyticsSnapshot is the google-analytics-stats.json document.
type AnalyticsSnapshot struct {
	LastUpdated    time.Time        `json:"last_updated"`
	PropertyID     string           `json:"property_id"`
	BlogPathPrefix string           `json:"blog_path_prefix"`
	Totals         AnalyticsTotals  `json:"totals"`
	BlogPosts      map[string]int64 `json:"blog_posts"`
	History        []HistoryEntry   `json:"history"`
}

// AnalyticsTotals aggregates the page-view report.
type AnalyticsTotals struct {
	TotalViews int64 `json:"total_views"`
	BlogViews  int64 `json:"blog_views"`
}

// HistoryEntry is one day's total in the history ring.
type HistoryEntry struct {
	Date       string `json:"date"` // YYYY-MM-DD, UTC
	TotalViews int64  `json:"total_views"`
}

// BuildAnalytics assembles a snapshot from this run's report. The history
// ring gets one entry per UTC day: a second run on the same day replaces
// that day's entry, and the ring keeps the most recent entries up to its
// cap. last_updated carries over from prev when totals and blog posts are
// unchanged.
func BuildAnalytics(prev *AnalyticsSnapshot, propertyID, blogPrefix string, pageViews, blogViews map[string]int64, now time.Time) AnalyticsSnapshot {
	var totals AnalyticsTotals
	for _, v := range pageViews {
		totals.TotalViews += v
	}
	for _, v := range blogViews {
		totals.BlogViews += v
	}

	var history []HistoryEntry
	if prev != nil {
		history = append(history, prev.History...)
	}
	entry := HistoryEntry{Date: now.UTC().Format("2006-01-02"), TotalViews: totals.TotalViews}
	if n := len(history); n > 0 && history[n-1].Date == entry.Date {
		history[n-1] = entry
	} else {
		history = append(history, entry)
	}
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	doc := AnalyticsSnapshot{
		LastUpdated:    now,
		PropertyID:     propertyID,
		BlogPathPrefix: blogPrefix,
		Totals:         totals,
		BlogPosts:      blogViews,
		History:        history,
	}
	if prev != nil && prev.PropertyID == propertyID && prev.BlogPathPrefix == blogPrefix &&
		prev.Totals == totals && reflect.DeepEqual(prev.BlogPosts, blogViews) {
		doc.LastUpdated = prev.LastUpdated
	}
	return doc
}
