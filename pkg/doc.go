// Package pkg provides the core libraries for sitestats metric collection.
//
// # Overview
//
// Sitestats fetches public metrics about a website's footprint (Docker Hub
// pulls, GitHub stars, Google Analytics page views) and publishes them as
// versioned JSON snapshots for a static site. The pkg directory is organized
// into five main areas:
//
//  1. [httputil] - The shared HTTP client core: caching, retries with
//     backoff, and rate-limit-aware dispatch
//  2. [cache] - Response cache backends (memory, file, redis, null)
//  3. [providers] - Thin per-API clients built on the core
//  4. [snapshot] - The published JSON documents and their atomic store
//  5. [errors], [observability], [buildinfo] - Cross-cutting support
//
// # Architecture
//
// The typical data flow through sitestats:
//
//	Provider API (Docker Hub, GitHub, GA4)
//	         ↓
//	    [providers] package (enumerate + typed lookups)
//	         ↓
//	    [httputil] package (cache, throttle, retry, classify)
//	         ↓
//	    [snapshot] package (totals, change detection, atomic write)
//	         ↓
//	    dockerhub-stats.json / github-stats.json / google-analytics-stats.json
//
// # Quick Start
//
// Fetch GitHub metrics and write the snapshot:
//
//	import (
//	    "context"
//	    "time"
//
//	    "github.com/neonvariant/sitestats/pkg/cache"
//	    "github.com/neonvariant/sitestats/pkg/providers/github"
//	    "github.com/neonvariant/sitestats/pkg/snapshot"
//	)
//
//	client, err := github.NewClient(github.Config{
//	    Owner: "acme",
//	    Cache: cache.NewMemoryCache(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	repos, err := client.ListRepos(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	entries := make(map[string]snapshot.GitHubEntry, len(repos))
//	for _, r := range repos {
//	    entries["acme/"+r.Name] = snapshot.GitHubEntry{GitHubRepoStats: &snapshot.GitHubRepoStats{
//	        Stars: r.Stars,
//	        Forks: r.Forks,
//	    }}
//	}
//
//	store := snapshot.NewStore("data")
//	doc := snapshot.BuildGitHub(nil, "acme", entries, time.Now())
//	if err := store.Write(snapshot.GitHubFile, doc); err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Handling
//
// All packages use [errors] codes to classify failures: configuration
// problems fail fast, transient network failures retry with backoff, and
// rate-limit exhaustion carries the provider's reset hints.
//
// [httputil]: github.com/neonvariant/sitestats/pkg/httputil
// [cache]: github.com/neonvariant/sitestats/pkg/cache
// [providers]: github.com/neonvariant/sitestats/pkg/providers
// [snapshot]: github.com/neonvariant/sitestats/pkg/snapshot
// [errors]: github.com/neonvariant/sitestats/pkg/errors
// [observability]: github.com/neonvariant/sitestats/pkg/observability
// [buildinfo]: github.com/neonvariant/sitestats/pkg/buildinfo
package pkg
