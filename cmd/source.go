package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/adbx/internal/formatter"
	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/shared"
)

// loadRows fills the session's collection from the command's source flags:
// a stored playlist fetched in chunks, or an exported file parsed locally.
func (r *Runner) loadRows(ctx context.Context, s *Session, cmd *cli.Command) error {
	playlist := cmd.String("playlist")
	input := cmd.String("input")

	switch {
	case playlist != "" && input != "":
		return fmt.Errorf("%w: cannot specify both --playlist and --input", shared.ErrInvalidArgument)

	case playlist != "":
		if s.playlists == nil {
			return fmt.Errorf("%w: playlist storage unavailable", shared.ErrServiceUnavailable)
		}
		stored, err := s.playlists.GetByName(playlist)
		if err != nil {
			return err
		}
		if len(stored.AnnSongIDs) == 0 {
			return fmt.Errorf("%w: %s", shared.ErrPlaylistEmpty, playlist)
		}
		r.logger.Info("loading playlist", "name", stored.Name, "songs", len(stored.AnnSongIDs))
		if _, err := s.engine.LoadByIDs(ctx, stored.AnnSongIDs, nil); err != nil {
			return err
		}
		return nil

	case input != "":
		data, err := os.ReadFile(input)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		rows, err := formatter.ParseUpload(input, data)
		if err != nil {
			return err
		}
		s.collection.Load(rows)
		return nil

	default:
		return fmt.Errorf("%w: either --playlist or --input must be provided", shared.ErrMissingArgument)
	}
}

// emitRows renders the session's visible rows per the output flags: a file,
// raw JSON, or the plain text grid.
func (r *Runner) emitRows(s *Session, cmd *cli.Command) error {
	rows := s.collection.Visible()

	if output := cmd.String("output"); output != "" {
		return r.writeRowsFile(rows, output)
	}
	if cmd.Bool("json") {
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}
	return r.printGrid(rows)
}

func (r *Runner) writeRowsFile(rows []models.Song, path string) error {
	var data []byte
	var err error
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		data, err = formatter.ExportToCSV(rows)
	} else {
		data, err = formatter.ExportToJSON(rows)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return r.writePlainln("Wrote %d rows to %s", len(rows), path)
}

// printGrid writes the plain text rendering of the grid.
func (r *Runner) printGrid(rows []models.Song) error {
	romaji := r.config.Table.Language == "romaji"
	if err := r.writePlain("%-7s  %-36s  %-10s  %-28s  %-24s  %s\n",
		"ANN", "Anime", "Type", "Song", "Artist", "Vintage"); err != nil {
		return err
	}
	for _, row := range rows {
		if err := r.writePlain("%-7d  %-36s  %-10s  %-28s  %-24s  %s\n",
			row.AnnID,
			clip(row.AnimeTitle(romaji), 36),
			clip(row.SongType, 10),
			clip(row.SongName, 28),
			clip(row.SongArtist, 24),
			row.AnimeVintage,
		); err != nil {
			return err
		}
	}
	return r.writePlainln("%d rows", len(rows))
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
