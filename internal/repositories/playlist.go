package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/shared"
)

// PlaylistRepository persists playlists and their ordered song id membership.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist with a generated ID and sequence, then writes
// its song membership in order.
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	playlist.ID = shared.GenerateID()
	playlist.Sequence = sequence
	now := time.Now()
	playlist.CreatedAt = now
	playlist.UpdatedAt = now

	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO playlists (id, sequence, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.Exec(query, playlist.ID, playlist.Sequence, playlist.Name, playlist.Description, playlist.CreatedAt, playlist.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	if err := insertSongs(tx, playlist.ID, playlist.AnnSongIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlist: %w", err)
	}
	return nil
}

// Get retrieves a playlist by ID with its song ids in stored order, excluding
// soft-deleted playlists.
func (r *PlaylistRepository) Get(id string) (*models.Playlist, error) {
	query := `
		SELECT id, sequence, name, description, created_at, updated_at
		FROM playlists
		WHERE id = ? AND deleted_at IS NULL
	`
	playlist, err := scanPlaylist(r.db.QueryRow(query, id))
	if err != nil {
		return nil, err
	}

	songs, err := r.songIDs(playlist.ID)
	if err != nil {
		return nil, err
	}
	playlist.AnnSongIDs = songs
	return playlist, nil
}

// GetByName retrieves the most recently updated playlist with the given name.
func (r *PlaylistRepository) GetByName(name string) (*models.Playlist, error) {
	query := `
		SELECT id, sequence, name, description, created_at, updated_at
		FROM playlists
		WHERE name = ? AND deleted_at IS NULL
		ORDER BY updated_at DESC
		LIMIT 1
	`
	playlist, err := scanPlaylist(r.db.QueryRow(query, name))
	if err != nil {
		return nil, err
	}

	songs, err := r.songIDs(playlist.ID)
	if err != nil {
		return nil, err
	}
	playlist.AnnSongIDs = songs
	return playlist, nil
}

// List returns all playlists ordered by sequence, without song membership.
func (r *PlaylistRepository) List() ([]*models.Playlist, error) {
	query := `
		SELECT id, sequence, name, description, created_at, updated_at
		FROM playlists
		WHERE deleted_at IS NULL
		ORDER BY sequence
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		p := &models.Playlist{}
		if err := rows.Scan(&p.ID, &p.Sequence, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// Update rewrites a playlist's metadata and replaces its song membership.
func (r *PlaylistRepository) Update(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	playlist.UpdatedAt = time.Now()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE playlists
		SET name = ?, description = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := tx.Exec(query, playlist.Name, playlist.Description, playlist.UpdatedAt, playlist.ID)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlist.ID)
	}

	if _, err := tx.Exec("DELETE FROM playlist_songs WHERE playlist_id = ?", playlist.ID); err != nil {
		return fmt.Errorf("failed to clear playlist songs: %w", err)
	}
	if err := insertSongs(tx, playlist.ID, playlist.AnnSongIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlist: %w", err)
	}
	return nil
}

// Delete soft-deletes a playlist. Song membership rows stay in place for a
// potential restore.
func (r *PlaylistRepository) Delete(id string) error {
	result, err := r.db.Exec("UPDATE playlists SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return nil
}

func (r *PlaylistRepository) songIDs(playlistID string) ([]int, error) {
	rows, err := r.db.Query("SELECT ann_song_id FROM playlist_songs WHERE playlist_id = ? ORDER BY position", playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist songs: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan playlist song: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func insertSongs(tx *sql.Tx, playlistID string, annSongIDs []int) error {
	for position, annSongID := range annSongIDs {
		if _, err := tx.Exec(
			"INSERT INTO playlist_songs (playlist_id, position, ann_song_id) VALUES (?, ?, ?)",
			playlistID, position, annSongID,
		); err != nil {
			return fmt.Errorf("failed to insert playlist song: %w", err)
		}
	}
	return nil
}

func scanPlaylist(row *sql.Row) (*models.Playlist, error) {
	p := &models.Playlist{}
	err := row.Scan(&p.ID, &p.Sequence, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return p, nil
}
