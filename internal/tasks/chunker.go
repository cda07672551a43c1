package tasks

import (
	"context"

	"github.com/desertthunder/adbx/internal/models"
)

// DefaultChunkSize is how many ids a single remote fetch carries.
const DefaultChunkSize = 500

// FetchChunk fetches the rows for one chunk of ids. It is invoked strictly
// sequentially: chunk i+1 does not start until chunk i settles.
type FetchChunk func(ctx context.Context, ids []int) ([]models.Song, error)

// ChunkOutcome reports a chunked fetch: rows accumulated in chunk order, how
// many of the total chunks completed, and why the run ended. Cancellation is
// not an error; Err is nil and Cancelled is true.
type ChunkOutcome struct {
	Rows            []models.Song
	ProcessedChunks int
	TotalChunks     int
	Cancelled       bool
	Err             error
}

// Complete reports whether every chunk settled successfully.
func (o ChunkOutcome) Complete() bool { return o.ProcessedChunks == o.TotalChunks && o.Err == nil }

// SplitChunks splits ids into ordered fixed-size chunks. A chunkSize below
// one falls back to DefaultChunkSize.
func SplitChunks(ids []int, chunkSize int) [][]int {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	var chunks [][]int
	for i := 0; i < len(ids); i += chunkSize {
		end := i + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[i:end])
	}
	return chunks
}

// RunChunked drives fetch over the id list one chunk at a time, accumulating
// successful rows in chunk order. A cancellation request (ctx) stops before
// the next chunk starts and never interrupts an in-flight call. On a chunk's
// failure the remaining chunks are abandoned and the accumulated partial
// result is returned; the caller decides whether partial results are usable.
// onChunk, when non-nil, fires after every completed chunk.
func RunChunked(ctx context.Context, ids []int, chunkSize int, fetch FetchChunk, onChunk func(processed, total int, rows []models.Song)) ChunkOutcome {
	chunks := SplitChunks(ids, chunkSize)
	outcome := ChunkOutcome{TotalChunks: len(chunks)}

	for _, chunk := range chunks {
		select {
		case <-ctx.Done():
			outcome.Cancelled = true
			return outcome
		default:
		}

		rows, err := fetch(ctx, chunk)
		if err != nil {
			outcome.Err = err
			return outcome
		}
		outcome.Rows = append(outcome.Rows, rows...)
		outcome.ProcessedChunks++
		if onChunk != nil {
			onChunk(outcome.ProcessedChunks, outcome.TotalChunks, rows)
		}
	}

	return outcome
}
