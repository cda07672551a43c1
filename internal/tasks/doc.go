// Package tasks implements the bulk operations that run against the results
// grid: link reachability checks and chunked re-downloads.
//
// The two primitives are BoundedRunner, a cancellable worker pool with a
// concurrency ceiling, and RunChunked, a strictly sequential chunked fetch
// driver. Both convert every failure into a typed outcome at the smallest
// possible boundary; nothing propagates to a top-level panic or unhandled
// error path. Operations emit progress updates via channels for non-blocking
// status reporting to CLI/UI layers.
package tasks
