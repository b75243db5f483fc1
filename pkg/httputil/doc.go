// Package httputil implements the shared HTTP client core used by every
// provider fetcher.
//
// # Overview
//
// The package provides the pieces with non-trivial failure handling and
// timing logic, shared by all three providers:
//
//   - [RetryPlan]: exponential backoff with jitter and retry-after hints
//   - [RateLimiter]: quota tracking and proactive pausing
//   - [Client]: the request loop tying cache, limiter, and backoff together
//
// # Request flow
//
// A call to [Client.Do] consults the response cache first (cacheable
// requests only), then loops over network attempts: pause if the rate
// limiter demands it, perform the call, classify the outcome, feed rate
// metadata back into the limiter, and either return, retry after a backoff
// delay, or surface a terminal error.
//
// # Providers
//
// Quota header names and retry-after conventions differ per provider, so
// classification is delegated to an [Adapter] supplied by each provider
// package. [DefaultAdapter] covers the common X-RateLimit-* and Retry-After
// conventions.
//
// # Errors
//
// Callers never see raw transport errors. Every failure is one of the
// structured codes in pkg/errors: CLIENT_ERROR (and NOT_FOUND),
// RATE_LIMIT_EXHAUSTED, TRANSIENT_NETWORK, or MALFORMED_RESPONSE.
package httputil
