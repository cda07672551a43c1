package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/search"
	"github.com/desertthunder/adbx/internal/services"
	"github.com/desertthunder/adbx/internal/shared"
)

// Search runs a catalog query and renders the result grid.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	opts, err := searchOptions(cmd)
	if err != nil {
		return err
	}

	advanced := search.AdvancedQuery{
		Anime:    cmd.String("anime"),
		Artist:   cmd.String("artist"),
		Song:     cmd.String("song"),
		Composer: cmd.String("composer"),
	}

	var result *search.Result
	if advanced != (search.AdvancedQuery{}) {
		opts.Toggles.AndLogic = cmd.Bool("and")
		result, err = s.search.RunAdvanced(ctx, advanced, opts)
	} else {
		opts.Query = cmd.StringArg("query")
		result, err = s.search.Run(ctx, opts)
	}
	if err != nil {
		return err
	}
	r.logger.Info("search finished", "endpoint", result.Endpoint, "rows", result.Rows)

	if name := cmd.String("save"); name != "" {
		if err := r.saveAsPlaylist(s, name); err != nil {
			return err
		}
	}
	return r.emitRows(s, cmd)
}

// searchOptions translates the command's flags into a search run config.
func searchOptions(cmd *cli.Command) (search.Options, error) {
	opts := search.DefaultOptions()
	opts.Scope = search.Scope(cmd.String("scope"))
	opts.MatchCase = cmd.Bool("match-case")
	opts.PartialMatch = !cmd.Bool("exact")
	opts.Arrangement = cmd.Bool("arrangement")
	if cmd.IsSet("group-granularity") {
		opts.GroupGranularity = cmd.Int("group-granularity")
	}
	if cmd.IsSet("max-other-artist") {
		opts.MaxOtherArtist = cmd.Int("max-other-artist")
	}

	toggles, err := parseToggles(cmd)
	if err != nil {
		return opts, err
	}
	opts.Toggles = toggles
	return opts, nil
}

// parseToggles builds the endpoint toggle set from the list-valued flags.
// An omitted list keeps its whole group enabled; a provided list narrows the
// group to exactly the named members.
func parseToggles(cmd *cli.Command) (services.Toggles, error) {
	t := services.DefaultToggles()
	t.IgnoreDuplicate = cmd.Bool("ignore-duplicate")

	if cmd.IsSet("types") {
		t.OpeningFilter, t.EndingFilter, t.InsertFilter = false, false, false
		for _, v := range splitList(cmd.String("types")) {
			switch v {
			case "op", "opening":
				t.OpeningFilter = true
			case "ed", "ending":
				t.EndingFilter = true
			case "in", "insert":
				t.InsertFilter = true
			default:
				return t, fmt.Errorf("%w: unknown song type %q", shared.ErrInvalidArgument, v)
			}
		}
	}
	if cmd.IsSet("broadcasts") {
		t.NormalBroadcast, t.Dub, t.Rebroadcast = false, false, false
		for _, v := range splitList(cmd.String("broadcasts")) {
			switch v {
			case "normal":
				t.NormalBroadcast = true
			case "dub":
				t.Dub = true
			case "rebroadcast":
				t.Rebroadcast = true
			default:
				return t, fmt.Errorf("%w: unknown broadcast %q", shared.ErrInvalidArgument, v)
			}
		}
	}
	if cmd.IsSet("categories") {
		t.Standard, t.Character, t.Chanting, t.Instrumental = false, false, false, false
		for _, v := range splitList(cmd.String("categories")) {
			switch v {
			case "standard":
				t.Standard = true
			case "character":
				t.Character = true
			case "chanting":
				t.Chanting = true
			case "instrumental":
				t.Instrumental = true
			default:
				return t, fmt.Errorf("%w: unknown category %q", shared.ErrInvalidArgument, v)
			}
		}
	}
	return t, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// saveAsPlaylist stores the visible rows' song ids as a new playlist.
func (r *Runner) saveAsPlaylist(s *Session, name string) error {
	if s.playlists == nil {
		return fmt.Errorf("%w: playlist storage unavailable", shared.ErrServiceUnavailable)
	}
	rows := s.collection.Visible()
	if len(rows) == 0 {
		return shared.ErrEmptySelection
	}
	ids := make([]int, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.AnnSongID)
	}
	playlist := &models.Playlist{Name: name, AnnSongIDs: ids}
	if err := s.playlists.Create(playlist); err != nil {
		return err
	}
	r.logger.Info("playlist saved", "name", name, "songs", len(ids))
	return nil
}
