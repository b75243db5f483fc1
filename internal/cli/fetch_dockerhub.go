package cli

import (
	"context"
	"time"

	"github.com/neonvariant/sitestats/pkg/cache"
	"github.com/neonvariant/sitestats/pkg/errors"
	"github.com/neonvariant/sitestats/pkg/observability"
	"github.com/neonvariant/sitestats/pkg/providers/dockerhub"
	"github.com/neonvariant/sitestats/pkg/snapshot"
)

func (c *CLI) fetchDockerHub(ctx context.Context, cfg *Config, httpCache cache.Cache, store *snapshot.Store) (resources, failures int, err error) {
	client, err := dockerhub.NewClient(dockerhub.Config{
		Namespace: cfg.DockerHub.Namespace,
		Cache:     httpCache,
		CacheTTL:  cfg.CacheTTL(),
		Plan:      cfg.RetryPlan(),
	})
	if err != nil {
		return 0, 0, err
	}
	return collectDockerHub(ctx, client, store, cfg.DockerHub.Namespace, time.Now())
}

// collectDockerHub enumerates the namespace and writes the snapshot. A
// repository whose lookup fails is recorded inline as an error entry; only
// a failed enumeration or write aborts the run.
func collectDockerHub(ctx context.Context, client *dockerhub.Client, store *snapshot.Store, namespace string, now time.Time) (resources, failures int, err error) {
	logger := loggerFromContext(ctx)

	repos, err := client.ListRepositories(ctx)
	if err != nil {
		return 0, 0, err
	}

	entries := make(map[string]snapshot.DockerHubEntry, len(repos))
	for _, r := range repos {
		full := namespace + "/" + r.Name

		repo, err := client.GetRepository(ctx, r.Name)
		if err != nil {
			if ctx.Err() != nil {
				return 0, 0, err
			}
			logger.Warn("repository fetch failed", "repository", full, "err", err)
			observability.Fetch().OnResource(ctx, providerDockerHub, full, err)
			entries[full] = snapshot.DockerHubEntry{Error: errors.UserMessage(err)}
			failures++
			continue
		}

		observability.Fetch().OnResource(ctx, providerDockerHub, full, nil)
		logger.Debug("repository fetched", "repository", full, "pulls", repo.PullCount, "stars", repo.StarCount)
		entries[full] = snapshot.DockerHubEntry{DockerHubRepoStats: &snapshot.DockerHubRepoStats{
			Description: repo.Description,
			PullCount:   repo.PullCount,
			StarCount:   repo.StarCount,
			LastPushed:  repo.LastUpdated,
		}}
	}

	var prevDoc snapshot.DockerHubSnapshot
	var prev *snapshot.DockerHubSnapshot
	if found, err := store.Load(snapshot.DockerHubFile, &prevDoc); err != nil {
		logger.Warn("previous snapshot unreadable, rebuilding", "err", err)
	} else if found {
		prev = &prevDoc
	}

	doc := snapshot.BuildDockerHub(prev, namespace, entries, now)
	if err := store.Write(snapshot.DockerHubFile, doc); err != nil {
		return 0, 0, err
	}
	return len(repos), failures, nil
}
