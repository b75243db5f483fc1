// Package analytics provides an HTTP client for the Google Analytics Data
// API (GA4).
//
// # Overview
//
// This package runs a per-page-path report of screen page views against one
// GA4 property (https://analyticsdata.googleapis.com). It backs the
// google-analytics-stats snapshot.
//
// # Authentication
//
// The Data API requires an OAuth2 bearer token with the
// analytics.readonly scope. The client validates the property ID and token
// at construction time and fails with a configuration error before making
// any network call when either is missing.
//
// # Caching
//
// Report responses are cached under a digest of the report query, so
// repeated runs within the cache TTL reuse the same report.
package analytics
