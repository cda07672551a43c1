package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// AppStateRepository stores durable slices of the state tree as JSON values
// keyed by slice path. It implements state.Persister.
type AppStateRepository struct {
	db *sql.DB
}

// NewAppStateRepository creates a new AppStateRepository with the given database connection
func NewAppStateRepository(db *sql.DB) *AppStateRepository {
	return &AppStateRepository{db: db}
}

// SaveSlice upserts the JSON encoding of one slice value under its path.
func (r *AppStateRepository) SaveSlice(path string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode state slice %q: %w", path, err)
	}

	query := `
		INSERT INTO app_state (path, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, path, string(encoded), time.Now()); err != nil {
		return fmt.Errorf("failed to save state slice %q: %w", path, err)
	}
	return nil
}

// LoadSlice reads one slice value back. The second return reports whether the
// path had a stored value at all. Numbers decode as float64 and objects as
// map[string]any, matching the in-memory tree's shape.
func (r *AppStateRepository) LoadSlice(path string) (any, bool, error) {
	var encoded string
	err := r.db.QueryRow("SELECT value FROM app_state WHERE path = ?", path).Scan(&encoded)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load state slice %q: %w", path, err)
	}

	var value any
	if err := json.Unmarshal([]byte(encoded), &value); err != nil {
		return nil, false, fmt.Errorf("failed to decode state slice %q: %w", path, err)
	}
	return value, true, nil
}

// Clear drops every stored slice. Used by the settings reset flow.
func (r *AppStateRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM app_state"); err != nil {
		return fmt.Errorf("failed to clear app state: %w", err)
	}
	return nil
}
