package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/adbx/internal/collection"
	"github.com/desertthunder/adbx/internal/events"
	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/shared"
)

// RebuildResult summarizes a re-download run.
type RebuildResult struct {
	Applied         bool
	Rows            int
	ProcessedChunks int
	TotalChunks     int
	StoppedEarly    bool
}

// Rebuild re-downloads every visible row by its catalog song id and swaps the
// fresh records in while keeping the pre-run row order. The run is all or
// nothing: a chunk failure or a cancellation discards the partial download
// and leaves the grid exactly as it was.
func (e *TableEngine) Rebuild(ctx context.Context, progress chan<- ProgressUpdate) (*RebuildResult, error) {
	if e.fetch == nil {
		return nil, fmt.Errorf("%w: fetch not initialized", shared.ErrServiceUnavailable)
	}
	if err := e.collection.BeginRun(); err != nil {
		return nil, err
	}
	defer e.collection.EndRun()

	// Snapshot order and ids before the first request. Rows sharing a song id
	// are fetched once and each receives the same fresh record.
	order := e.collection.VisibleHandles()
	if len(order) == 0 {
		return nil, shared.ErrEmptySelection
	}
	byID := make(map[int][]collection.Handle, len(order))
	ids := make([]int, 0, len(order))
	for _, h := range order {
		song, err := e.collection.Resolve(h)
		if err != nil {
			return nil, err
		}
		if _, seen := byID[song.AnnSongID]; !seen {
			ids = append(ids, song.AnnSongID)
		}
		byID[song.AnnSongID] = append(byID[song.AnnSongID], h)
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.setCurrent(nil, cancel)
	defer e.setCurrent(nil, nil)
	defer cancel()

	outcome := RunChunked(runCtx, ids, e.chunkSize, e.fetch, func(processed, total int, rows []models.Song) {
		e.sendProgress(progress, chunkUpdate(processed, total, len(rows)))
		e.emit(events.RebuildProgress, events.ProgressPayload{Processed: processed, Total: total})
	})

	result := &RebuildResult{
		ProcessedChunks: outcome.ProcessedChunks,
		TotalChunks:     outcome.TotalChunks,
		StoppedEarly:    outcome.Cancelled,
	}
	defer e.emit(events.RebuildDone, events.DonePayload{
		Processed:    result.ProcessedChunks,
		Total:        result.TotalChunks,
		StoppedEarly: result.StoppedEarly,
	})

	if outcome.Err != nil {
		return result, fmt.Errorf("%w: chunk %d of %d: %v",
			shared.ErrAPIRequest, outcome.ProcessedChunks+1, outcome.TotalChunks, outcome.Err)
	}
	if outcome.Cancelled {
		e.sendProgress(progress, stoppedUpdate(FetchChunks, outcome.ProcessedChunks, outcome.TotalChunks))
		return result, nil
	}

	e.sendProgress(progress, applyUpdate(len(outcome.Rows)))
	results := make(map[collection.Handle]models.Song, len(order))
	for _, song := range outcome.Rows {
		for _, h := range byID[song.AnnSongID] {
			results[h] = song
		}
	}
	e.collection.ReplaceVisible(order, results)

	result.Applied = true
	result.Rows = len(results)
	return result, nil
}

// LoadByIDs fetches rows for an explicit song id list in chunks and streams
// them into the grid: the first chunk replaces the collection, later chunks
// append. A failure or cancellation after the first chunk keeps what loaded
// so far rather than discarding it.
func (e *TableEngine) LoadByIDs(ctx context.Context, ids []int, progress chan<- ProgressUpdate) (*ChunkOutcome, error) {
	if e.fetch == nil {
		return nil, fmt.Errorf("%w: fetch not initialized", shared.ErrServiceUnavailable)
	}
	if len(ids) == 0 {
		return nil, shared.ErrEmptySelection
	}
	if err := e.collection.BeginRun(); err != nil {
		return nil, err
	}
	defer e.collection.EndRun()

	runCtx, cancel := context.WithCancel(ctx)
	e.setCurrent(nil, cancel)
	defer e.setCurrent(nil, nil)
	defer cancel()

	outcome := RunChunked(runCtx, ids, e.chunkSize, e.fetch, func(processed, total int, rows []models.Song) {
		if processed == 1 {
			e.collection.Load(rows)
		} else {
			e.collection.Append(rows)
		}
		e.sendProgress(progress, ProgressUpdate{
			Phase:   LoadPlaylist,
			Step:    processed,
			Total:   total,
			Message: fmt.Sprintf("Loaded chunk %d/%d (%d rows)...", processed, total, len(rows)),
		})
	})

	if outcome.Err != nil {
		return &outcome, fmt.Errorf("%w: chunk %d of %d: %v",
			shared.ErrAPIRequest, outcome.ProcessedChunks+1, outcome.TotalChunks, outcome.Err)
	}
	if outcome.Cancelled {
		e.sendProgress(progress, stoppedUpdate(LoadPlaylist, outcome.ProcessedChunks, outcome.TotalChunks))
	}
	return &outcome, nil
}
