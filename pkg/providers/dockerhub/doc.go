// Package dockerhub provides an HTTP client for the Docker Hub v2 API.
//
// # Overview
//
// This package fetches pull and star counts for every image repository in
// one namespace (https://hub.docker.com). It backs the dockerhub-stats
// snapshot. The endpoints are public and need no authentication.
//
// # Usage
//
//	client, err := dockerhub.NewClient(dockerhub.Config{Namespace: "library"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	repos, err := client.ListRepositories(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Rate limiting
//
// Docker Hub publishes no quota headers, so the client throttles
// reactively: at least 500ms between requests, exponential backoff on
// failures, and Retry-After hints honored on 429 responses.
//
// # Pagination
//
// Listings return a `next` URL in the response body. [Client.ListRepositories]
// follows it until the API returns null.
package dockerhub
