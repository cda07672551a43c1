package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/adbx/internal/collection"
	"github.com/desertthunder/adbx/internal/events"
	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/shared"
)

// ProbeFunc reports whether a media URL is reachable. Implementations live
// in internal/services; a probe that errors internally reports false.
type ProbeFunc func(ctx context.Context, url string) bool

// BuildMediaURL resolves a catalog file path against the configured host.
type BuildMediaURL func(path string) string

// TableEngineOpts configures a TableEngine.
type TableEngineOpts struct {
	Collection *collection.Engine
	Bus        *events.Bus
	Logger     *log.Logger
	Probe      ProbeFunc
	Fetch      FetchChunk
	MediaURL   BuildMediaURL
	Workers    int     // concurrent probes (default 5, capped at 10)
	RateLimit  float64 // probe requests per second (default 5)
	ChunkSize  int     // ids per re-download request (default 500)
}

// TableEngine drives bulk operations over the visible rows of the grid.
// It snapshots the id order before each run and rejects overlapping runs.
type TableEngine struct {
	collection *collection.Engine
	bus        *events.Bus
	logger     *log.Logger
	probe      ProbeFunc
	fetch      FetchChunk
	mediaURL   BuildMediaURL
	workers    int
	rateLimit  float64
	chunkSize  int

	mu         sync.Mutex
	current    *BoundedRunner
	cancelRun  context.CancelFunc
}

// NewTableEngine creates a TableEngine with the provided collaborators.
func NewTableEngine(opts TableEngineOpts) *TableEngine {
	opts.Workers = clampWorkers(opts.Workers)
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return &TableEngine{
		collection: opts.Collection,
		bus:        opts.Bus,
		logger:     opts.Logger,
		probe:      opts.Probe,
		fetch:      opts.Fetch,
		mediaURL:   opts.MediaURL,
		workers:    opts.Workers,
		rateLimit:  opts.RateLimit,
		chunkSize:  opts.ChunkSize,
	}
}

func clampWorkers(n int) int {
	if n <= 0 {
		return 5
	}
	if n > 10 {
		return 10
	}
	return n
}

// SetWorkers overrides the concurrent probe ceiling for subsequent runs,
// clamped to the same range as NewTableEngine.
func (e *TableEngine) SetWorkers(n int) {
	e.mu.Lock()
	e.workers = clampWorkers(n)
	e.mu.Unlock()
}

// LinkStatus is the probe outcome for one media link of a row.
type LinkStatus struct {
	Label     string // "720", "480", "MP3"
	URL       string
	Reachable bool
}

// RowLinkResult collects the probe outcomes for one visible row.
type RowLinkResult struct {
	Handle     collection.Handle
	NaturalKey string
	Links      []LinkStatus
}

// Dead reports whether every probed link of the row was unreachable.
func (r RowLinkResult) Dead() bool {
	if len(r.Links) == 0 {
		return false
	}
	for _, l := range r.Links {
		if l.Reachable {
			return false
		}
	}
	return true
}

// LinkCheckResult summarizes a link-check run.
type LinkCheckResult struct {
	Rows         []RowLinkResult
	Processed    int
	Total        int
	StoppedEarly bool
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *TableEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// CheckLinks probes every media link of every visible row with at most the
// configured number of concurrent probes. A probe failure or timeout is
// recorded as unreachable for that row only; it never aborts the run. The
// final counts distinguish a full pass from a cancelled one.
func (e *TableEngine) CheckLinks(ctx context.Context, progress chan<- ProgressUpdate) (*LinkCheckResult, error) {
	if e.probe == nil {
		return nil, fmt.Errorf("%w: probe not initialized", shared.ErrServiceUnavailable)
	}
	if err := e.collection.BeginRun(); err != nil {
		return nil, err
	}
	defer e.collection.EndRun()

	// Snapshot before starting: no other mutation may interleave with this
	// run's view of the visible rows.
	handles := e.collection.VisibleHandles()
	if len(handles) == 0 {
		return nil, shared.ErrEmptySelection
	}

	rows := make([]RowLinkResult, len(handles))
	units := make([]Unit, 0, len(handles))
	limiter := rate.NewLimiter(rate.Limit(e.rateLimit), 1)

	for i, h := range handles {
		song, err := e.collection.Resolve(h)
		if err != nil {
			return nil, err
		}
		i, h, song := i, h, song
		units = append(units, func(ctx context.Context) error {
			result := RowLinkResult{Handle: h, NaturalKey: song.NaturalKey()}
			failures := 0
			for _, link := range mediaLinks(song, e.mediaURL) {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
				link.Reachable = e.probe(ctx, link.URL)
				if !link.Reachable {
					failures++
				}
				result.Links = append(result.Links, link)
			}
			rows[i] = result
			if failures > 0 {
				return fmt.Errorf("%d unreachable links", failures)
			}
			return nil
		})
	}

	e.mu.Lock()
	workers := e.workers
	e.mu.Unlock()
	runner := NewBoundedRunner(workers)
	e.setCurrent(runner, nil)
	defer e.setCurrent(nil, nil)

	outcome := runner.Run(ctx, units, func(processed, total int) {
		e.sendProgress(progress, probeUpdate(processed, total))
		e.emit(events.LinkCheckProgress, events.ProgressPayload{Processed: processed, Total: total})
	})

	result := &LinkCheckResult{
		Processed:    outcome.Processed,
		Total:        outcome.Total,
		StoppedEarly: !outcome.Complete(),
	}
	for _, r := range rows {
		if r.Handle != 0 {
			result.Rows = append(result.Rows, r)
		}
	}
	if result.StoppedEarly {
		e.sendProgress(progress, stoppedUpdate(ProbeLinks, outcome.Processed, outcome.Total))
	}
	e.emit(events.LinkCheckDone, events.DonePayload{
		Processed:    outcome.Processed,
		Total:        outcome.Total,
		Failed:       outcome.Failed,
		StoppedEarly: result.StoppedEarly,
	})
	return result, nil
}

// Cancel stops the in-flight bulk run, if any. Idempotent.
func (e *TableEngine) Cancel() {
	e.mu.Lock()
	runner := e.current
	cancel := e.cancelRun
	e.mu.Unlock()
	if runner != nil {
		runner.Cancel()
	}
	if cancel != nil {
		cancel()
	}
}

func (e *TableEngine) setCurrent(r *BoundedRunner, cancel context.CancelFunc) {
	e.mu.Lock()
	e.current = r
	e.cancelRun = cancel
	e.mu.Unlock()
}

func (e *TableEngine) emit(event string, payload any) {
	if e.bus != nil {
		e.bus.Emit(event, payload)
	}
}

// mediaLinks lists the probeable links of a song, skipping absent paths.
func mediaLinks(song models.Song, build BuildMediaURL) []LinkStatus {
	resolve := func(path string) string {
		if build == nil {
			return path
		}
		return build(path)
	}
	var links []LinkStatus
	if song.HQ != "" {
		links = append(links, LinkStatus{Label: "720", URL: resolve(song.HQ)})
	}
	if song.MQ != "" {
		links = append(links, LinkStatus{Label: "480", URL: resolve(song.MQ)})
	}
	if song.Audio != "" {
		links = append(links, LinkStatus{Label: "MP3", URL: resolve(song.Audio)})
	}
	return links
}
