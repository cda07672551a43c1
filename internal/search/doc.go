// Package search orchestrates catalog queries: it builds the request for the
// selected scope, normalizes the response into canonical order, applies the
// client-side case-sensitive refinement, and loads or appends the rows into
// the collection.
package search
