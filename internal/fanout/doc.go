// Package fanout runs independent units of work concurrently and reports
// results in completion order.
//
// The retrieval engine uses it for the (source x time window) cross product
// of a query; the resource layer reuses the same executor for flat bulk
// calls such as hydrating objects by id group. Parallelism is bounded by a
// semaphore, and every completion drives the shared progress tracker.
package fanout
