package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/adbx/internal/search"
	"github.com/desertthunder/adbx/internal/shared"
	"github.com/desertthunder/adbx/internal/ui"
)

// TUI launches the interactive results grid, seeding it from a query,
// a stored playlist, or an exported file.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	query := cmd.StringArg("query")
	switch {
	case query != "":
		opts := search.DefaultOptions()
		opts.Scope = search.Scope(cmd.String("scope"))
		opts.Query = query
		if _, err := s.search.Run(ctx, opts); err != nil {
			return err
		}
	case cmd.String("playlist") != "" || cmd.String("input") != "":
		if err := r.loadRows(ctx, s, cmd); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: a query, --playlist, or --input is required", shared.ErrMissingArgument)
	}

	model := ui.NewModel(ctx, s.collection, s.engine, r.romaji(s.store))
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
