// Package repositories implements SQLite persistence for the application.
//
// Two concerns live here: playlist storage with atomic sequence generation
// for human-readable ordering, and the durable slice store backing the state
// tree across sessions. Playlists support soft deletes via deleted_at
// timestamps and queries exclude deleted records by default.
package repositories
