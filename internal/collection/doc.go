// Package collection implements the in-memory ordered collection engine
// behind the results grid.
//
// Rows are addressed by synthetic identities issued at ingestion time, never
// by their natural "annId-annSongId" key: merged catalogs produce duplicate
// natural keys, and every duplicate must remain independently selectable and
// removable. The engine owns the raw set, the visible subset, the removed
// identity set, and the active ordering mode, and confines all mutation to a
// single mutex-guarded owner.
package collection
