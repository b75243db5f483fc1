// Package snapshot defines the versioned JSON documents the fetchers
// publish and the store that writes them.
//
// # Documents
//
// One document per provider, all under a single data directory:
//
//   - dockerhub-stats.json: pull and star counts per image repository
//   - github-stats.json: star, fork, watcher, and issue counts per repository
//   - google-analytics-stats.json: page views per blog post plus a daily
//     history ring
//
// Each document carries a last_updated timestamp that only advances when
// the metrics actually changed, so downstream consumers can distinguish a
// real update from a no-op run.
//
// # Error entries
//
// A repository whose fetch failed is recorded inline as {"error": "..."}
// instead of stats. The run as a whole still succeeds; only a failed
// enumeration aborts a snapshot.
//
// # Atomicity
//
// [Store.Write] marshals to a temp file in the data directory and renames
// it into place. A crashed or failed run leaves the previous snapshot
// untouched.
package snapshot
