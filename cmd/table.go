package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/adbx/internal/collection"
	"github.com/desertthunder/adbx/internal/shared"
)

// TableSort loads a row set, sorts it by a grid column, and prints it.
func (r *Runner) TableSort(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := r.loadRows(ctx, s, cmd); err != nil {
		return err
	}

	dir := collection.Direction(cmd.String("dir"))
	if dir != collection.Ascending && dir != collection.Descending {
		return fmt.Errorf("%w: dir must be asc or desc", shared.ErrInvalidArgument)
	}
	if err := s.collection.Sort(cmd.String("column"), dir); err != nil {
		return err
	}
	return r.emitRows(s, cmd)
}

// TableShuffle loads a row set, shuffles it, and prints it.
func (r *Runner) TableShuffle(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := r.loadRows(ctx, s, cmd); err != nil {
		return err
	}
	s.collection.Shuffle()
	return r.emitRows(s, cmd)
}

// TableReverse loads a row set, reverses it, and prints it.
func (r *Runner) TableReverse(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := r.loadRows(ctx, s, cmd); err != nil {
		return err
	}
	s.collection.Reverse()
	return r.emitRows(s, cmd)
}

// TableFilter loads a row set, applies a keep/remove filter, and prints the
// surviving rows.
func (r *Runner) TableFilter(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := r.loadRows(ctx, s, cmd); err != nil {
		return err
	}

	action := collection.FilterAction(cmd.String("action"))
	if action != collection.FilterKeep && action != collection.FilterRemove {
		return fmt.Errorf("%w: action must be keep or remove", shared.ErrInvalidArgument)
	}

	spec := collection.FilterSpec{
		Field:         cmd.String("field"),
		Query:         cmd.String("query"),
		Partial:       !cmd.Bool("exact"),
		CaseSensitive: cmd.Bool("match-case"),
		Action:        action,
	}
	removed, err := s.collection.ApplyFilter(spec)
	if err != nil {
		return err
	}
	r.logger.Info("filter applied", "removed", removed, "remaining", s.collection.VisibleLen())
	return r.emitRows(s, cmd)
}

// TableStats prints row counts and duplicate natural key diagnostics.
func (r *Runner) TableStats(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := r.loadRows(ctx, s, cmd); err != nil {
		return err
	}

	mode, sortState := s.collection.Mode()
	stats := struct {
		Raw        int    `json:"raw"`
		Visible    int    `json:"visible"`
		Duplicates int    `json:"duplicateNaturalKeys"`
		Mode       string `json:"mode"`
		SortColumn string `json:"sortColumn,omitempty"`
		SortDir    string `json:"sortDir,omitempty"`
	}{
		Raw:        s.collection.RawLen(),
		Visible:    s.collection.VisibleLen(),
		Duplicates: s.collection.DuplicateNaturalKeys(),
		Mode:       mode.String(),
		SortColumn: sortState.Column,
		SortDir:    string(sortState.Dir),
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}
	return r.writePlain("Rows: %d visible of %d loaded\nDuplicate natural keys: %d\nOrdering: %s\n",
		stats.Visible, stats.Raw, stats.Duplicates, stats.Mode)
}
