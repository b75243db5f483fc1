package cli

import (
	"context"
	"time"

	"github.com/neonvariant/sitestats/pkg/cache"
	"github.com/neonvariant/sitestats/pkg/errors"
	"github.com/neonvariant/sitestats/pkg/observability"
	"github.com/neonvariant/sitestats/pkg/providers/github"
	"github.com/neonvariant/sitestats/pkg/snapshot"
)

func (c *CLI) fetchGitHub(ctx context.Context, cfg *Config, httpCache cache.Cache, store *snapshot.Store) (resources, failures int, err error) {
	client, err := github.NewClient(github.Config{
		Owner:    cfg.GitHub.Owner,
		Token:    cfg.GitHub.Token,
		Cache:    httpCache,
		CacheTTL: cfg.CacheTTL(),
		Plan:     cfg.RetryPlan(),
	})
	if err != nil {
		return 0, 0, err
	}
	return collectGitHub(ctx, client, store, cfg.GitHub.Owner, time.Now())
}

// collectGitHub enumerates the owner's repositories and writes the snapshot.
// The listing primes the per-repo cache, so the GetRepo calls here are
// normally served without further network traffic.
func collectGitHub(ctx context.Context, client *github.Client, store *snapshot.Store, owner string, now time.Time) (resources, failures int, err error) {
	logger := loggerFromContext(ctx)

	repos, err := client.ListRepos(ctx)
	if err != nil {
		return 0, 0, err
	}
	if remaining, known := client.RemainingQuota(); known {
		logger.Debug("rate limit state", "remaining", remaining)
	}

	entries := make(map[string]snapshot.GitHubEntry, len(repos))
	for _, r := range repos {
		full := owner + "/" + r.Name

		repo, err := client.GetRepo(ctx, r.Name)
		if err != nil {
			if ctx.Err() != nil {
				return 0, 0, err
			}
			logger.Warn("repository fetch failed", "repository", full, "err", err)
			observability.Fetch().OnResource(ctx, providerGitHub, full, err)
			entries[full] = snapshot.GitHubEntry{Error: errors.UserMessage(err)}
			failures++
			continue
		}

		observability.Fetch().OnResource(ctx, providerGitHub, full, nil)
		logger.Debug("repository fetched", "repository", full, "stars", repo.Stars, "forks", repo.Forks)
		entries[full] = snapshot.GitHubEntry{GitHubRepoStats: &snapshot.GitHubRepoStats{
			Description: repo.Description,
			Stars:       repo.Stars,
			Forks:       repo.Forks,
			Watchers:    repo.Watchers,
			OpenIssues:  repo.OpenIssues,
			PushedAt:    repo.PushedAt,
		}}
	}

	var prevDoc snapshot.GitHubSnapshot
	var prev *snapshot.GitHubSnapshot
	if found, err := store.Load(snapshot.GitHubFile, &prevDoc); err != nil {
		logger.Warn("previous snapshot unreadable, rebuilding", "err", err)
	} else if found {
		prev = &prevDoc
	}

	doc := snapshot.BuildGitHub(prev, owner, entries, now)
	if err := store.Write(snapshot.GitHubFile, doc); err != nil {
		return 0, 0, err
	}
	return len(repos), failures, nil
}
