// Package stream implements the streaming retrieval and deduplication
// engine.
//
// A retrieval splits the requested time range into API-legal windows, fans
// the (source x window) cross product out over concurrent fetches, and
// merges the newline-delimited JSON responses into a single lazy stream
// holding at most one version of each record id. An LRU cache bounds the
// merge memory: entries aging out of the cache are emitted immediately, so
// output interleaves with ingestion instead of buffering the result set.
//
// The stream promises "freshest version wins" per id, not global ordering.
// With a bounded cache an id may appear more than once when an entry is
// evicted before a newer version arrives; emitted versions per id never go
// backwards. An unbounded cache emits each id exactly once at the cost of
// memory proportional to the number of distinct ids.
//
// All merge state is mutated on the caller's goroutine inside Next; only
// the fetches themselves run concurrently.
package stream
