package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/adbx/internal/tasks"
)

// LinksCheck probes every media link of the loaded rows and reports
// reachability per row.
func (r *Runner) LinksCheck(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := r.loadRows(ctx, s, cmd); err != nil {
		return err
	}
	if cmd.IsSet("workers") {
		s.engine.SetWorkers(cmd.Int("workers"))
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String())
		}
	}()

	result, err := s.engine.CheckLinks(ctx, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	deadOnly := cmd.Bool("dead-only")
	if cmd.Bool("json") {
		rows := result.Rows
		if deadOnly {
			rows = rows[:0:0]
			for _, row := range result.Rows {
				if row.Dead() {
					rows = append(rows, row)
				}
			}
		}
		return r.writeJSON(rows, true)
	}

	dead := 0
	for _, row := range result.Rows {
		if row.Dead() {
			dead++
			if err := r.writePlain("DEAD  %s\n", row.NaturalKey); err != nil {
				return err
			}
			continue
		}
		if deadOnly {
			continue
		}
		for _, link := range row.Links {
			status := "ok"
			if !link.Reachable {
				status = "unreachable"
			}
			if err := r.writePlain("%-12s %-4s %s\n", row.NaturalKey, link.Label, status); err != nil {
				return err
			}
		}
	}
	if result.StoppedEarly {
		return r.writePlainln("Stopped early: %d/%d rows checked, %d fully dead", result.Processed, result.Total, dead)
	}
	return r.writePlainln("Checked %d rows, %d fully dead", result.Total, dead)
}

// Rebuild re-downloads the loaded rows by song id and prints the fresh grid.
// A failed or cancelled run leaves the rows as loaded.
func (r *Runner) Rebuild(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := r.loadRows(ctx, s, cmd); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String())
		}
	}()

	result, err := s.engine.Rebuild(ctx, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if !result.Applied {
		return r.writePlainln("Rebuild did not apply: %d/%d chunks finished; rows left untouched",
			result.ProcessedChunks, result.TotalChunks)
	}
	r.logger.Info("rebuild applied", "rows", result.Rows, "chunks", result.TotalChunks)
	return r.emitRows(s, cmd)
}
