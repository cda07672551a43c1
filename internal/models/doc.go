// Package models defines the data model for AnisongDB rows and local playlists.
//
// Song is the ingestion-time-immutable record the collection engine holds.
// Field presence varies by ingestion source (API, JSON upload), so optional
// numerics are pointers and string fields default to empty.
package models
