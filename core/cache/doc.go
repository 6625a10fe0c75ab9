// Package cache implements the TTL-based response cache shared by all
// in-flight requests. Two drivers are provided: an in-memory store with
// bounded size and insertion-order eviction, and a Redis-backed store for
// multi-instance deployments.
//
// Get and Put are individually atomic. The dispatcher's check-then-write
// sequence around a handler call is not coalesced: concurrent misses for
// the same key may each run the handler, and the last write wins.
package cache
