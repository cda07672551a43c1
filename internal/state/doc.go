// Package state implements the process-wide, path-addressable state
// container backing the results grid.
//
// The store is an explicit dependency-injected instance, constructed once at
// session start and handed to collaborators. Updates are immutable: every
// ancestor map on the updated path is copied, so previously returned slices
// never mutate underneath a reader. After every update a durable subset of
// the tree is persisted best-effort; a store update never fails because
// persistence failed.
package state
