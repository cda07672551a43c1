package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/adbx/internal/formatter"
	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/shared"
)

// PlaylistCreate stores a playlist from an exported file's song ids.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	input := cmd.String("input")
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	rows, err := formatter.ParseUpload(input, data)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s holds no rows", shared.ErrInvalidInput, input)
	}

	ids := make([]int, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.AnnSongID)
	}

	s, err := r.openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	playlist := &models.Playlist{
		Name:        name,
		Description: cmd.String("description"),
		AnnSongIDs:  ids,
	}
	if err := s.playlists.Create(playlist); err != nil {
		return err
	}
	return r.writePlainln("Created playlist %q with %d songs", name, len(ids))
}

// PlaylistList prints the stored playlists.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	playlists, err := s.playlists.List()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}
	for _, p := range playlists {
		if err := r.writePlain("#%-3d %-30s %s\n", p.Sequence, p.Name, p.Description); err != nil {
			return err
		}
	}
	return r.writePlainln("%d playlists", len(playlists))
}

// PlaylistShow fetches a playlist's rows from the catalog and prints them.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	s, err := r.openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	stored, err := s.playlists.GetByName(name)
	if err != nil {
		return err
	}
	if len(stored.AnnSongIDs) == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistEmpty, name)
	}
	if _, err := s.engine.LoadByIDs(ctx, stored.AnnSongIDs, nil); err != nil {
		return err
	}
	return r.emitRows(s, cmd)
}

// PlaylistDelete soft-deletes a stored playlist.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	s, err := r.openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	stored, err := s.playlists.GetByName(name)
	if err != nil {
		return err
	}
	if err := s.playlists.Delete(stored.ID); err != nil {
		return err
	}
	return r.writePlainln("Deleted playlist %q", name)
}

// Export writes a loaded row set to a CSV or JSON file.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := r.loadRows(ctx, s, cmd); err != nil {
		return err
	}
	return r.writeRowsFile(s.collection.Visible(), cmd.String("output"))
}
