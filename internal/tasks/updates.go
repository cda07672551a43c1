package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Units settled so far
	Total   int    // Declared total units
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ProbeLinks Phase = iota
	FetchChunks
	LoadPlaylist
	ApplyResults
)

func (p Phase) String() string {
	switch p {
	case ProbeLinks:
		return "probe_links"
	case FetchChunks:
		return "fetch_chunks"
	case LoadPlaylist:
		return "load_playlist"
	case ApplyResults:
		return "apply_results"
	default:
		return ""
	}
}

func probeUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProbeLinks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Checked %d/%d rows...", step, total),
	}
}

func chunkUpdate(step, total, rows int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchChunks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetched chunk %d/%d (%d rows)...", step, total, rows),
	}
}

func applyUpdate(rows int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ApplyResults,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Applying %d re-downloaded rows", rows),
	}
}

func stoppedUpdate(phase Phase, step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Stopped early: %d/%d", step, total),
	}
}
