// Package cache implements the bounded deduplication cache used by the
// retrieval engine.
//
// The cache is an LRU keyed map with an eviction hook: when an insert pushes
// the cache over capacity, the least-recently-touched entry is removed and
// handed to the hook. The retrieval engine uses the hook to emit records
// as they age out, which is what keeps a retrieval memory-bounded.
//
// The cache is intentionally not safe for concurrent use. All mutation in
// the engine happens on the single consumer goroutine.
package cache
