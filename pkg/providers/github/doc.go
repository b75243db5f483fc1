// Package github provides an HTTP client for the GitHub REST API.
//
// # Overview
//
// This package fetches star, fork, watcher, and open-issue counts for every
// repository of one account (https://api.github.com). It backs the
// github-stats snapshot.
//
// # Usage
//
//	client, err := github.NewClient(github.Config{Owner: "pallets", Token: token})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	repos, err := client.ListRepos(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Authentication
//
// A personal access token is optional but recommended. Without a token the
// API allows 60 requests/hour; with one, 5000 requests/hour.
//
// # Rate limiting
//
// GitHub publishes quota state in X-RateLimit-Remaining and
// X-RateLimit-Reset headers. The client observes them after every response,
// spreads requests out when fewer than ten remain, and sleeps until the
// reset time once the quota is exhausted. Secondary rate limits surface as
// 403 with a Retry-After header, which the client honors.
//
// # Caching
//
// Individual repository lookups are cached. [Client.ListRepos] primes the
// cache with every repository it returns, so enumerating and then reading
// each repository costs one request per page, not one per repository.
package github
