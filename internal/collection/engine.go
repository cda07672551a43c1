package collection

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/adbx/internal/events"
	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/shared"
	"github.com/desertthunder/adbx/internal/state"
)

// OrderingMode identifies which ordering regime governs the visible rows.
// Exactly one regime is active at a time.
type OrderingMode int

const (
	// OrderInsertion preserves the order rows were ingested in.
	OrderInsertion OrderingMode = iota
	// OrderSorted derives the visible order from a column comparator.
	OrderSorted
	// OrderManual preserves a user-imposed order (drag, shuffle, reverse, append).
	OrderManual
)

func (m OrderingMode) String() string {
	switch m {
	case OrderSorted:
		return "sorted"
	case OrderManual:
		return "manual"
	default:
		return "insertion"
	}
}

// SortState is the active sort column and direction; zero when not sorted.
type SortState struct {
	Column string
	Dir    Direction
}

// EngineOpts configures a new Engine. Store and Bus are optional: a nil
// store skips slice publication, a nil bus skips event emission.
type EngineOpts struct {
	Store  *state.Store
	Bus    *events.Bus
	Logger *log.Logger
	Romaji bool
	// Rand overrides the shuffle source for deterministic tests.
	Rand *rand.Rand
}

// Engine owns the collection. All mutation funnels through its mutex so
// bulk operations running on worker goroutines observe consistent snapshots.
type Engine struct {
	mu      sync.Mutex
	arena   *Arena
	raw     []Handle
	visible []Handle
	removed map[Handle]struct{}
	mode    OrderingMode
	sort    SortState

	comparators map[string]comparator
	rng         *rand.Rand

	store  *state.Store
	bus    *events.Bus
	logger *log.Logger

	runActive bool
}

// NewEngine creates an empty collection engine.
func NewEngine(opts EngineOpts) *Engine {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Engine{
		arena:       NewArena(),
		removed:     make(map[Handle]struct{}),
		comparators: comparatorTable(newCollator(), opts.Romaji),
		rng:         rng,
		store:       opts.Store,
		bus:         opts.Bus,
		logger:      opts.Logger,
	}
}

// Load replaces the collection wholesale: every record receives a new
// identity, the removed set is cleared, and ordering resets to insertion.
// An empty slice is valid and empties the view.
func (e *Engine) Load(songs []models.Song) []Handle {
	e.mu.Lock()
	e.arena.Reset()
	e.raw = make([]Handle, 0, len(songs))
	for _, s := range songs {
		e.raw = append(e.raw, e.arena.Assign(s))
	}
	e.visible = append([]Handle(nil), e.raw...)
	e.removed = make(map[Handle]struct{})
	e.mode = OrderInsertion
	e.sort = SortState{}
	handles := append([]Handle(nil), e.raw...)
	e.mu.Unlock()

	e.publish()
	return handles
}

// Append assigns identities to the new records and concatenates them onto
// raw and visible. Appending forces manual ordering: newly appended rows
// must not be silently re-sorted away from where the user expects them.
func (e *Engine) Append(songs []models.Song) []Handle {
	e.mu.Lock()
	handles := make([]Handle, 0, len(songs))
	for _, s := range songs {
		handles = append(handles, e.arena.Assign(s))
	}
	e.raw = append(e.raw, handles...)
	e.visible = append(e.visible, handles...)
	e.mode = OrderManual
	e.sort = SortState{}
	e.mu.Unlock()

	e.publish()
	return handles
}

// Remove adds the identity to the removed set and drops it from visible.
// Raw is untouched. Removing an already-removed identity is a no-op.
func (e *Engine) Remove(h Handle) {
	e.mu.Lock()
	if _, gone := e.removed[h]; gone {
		e.mu.Unlock()
		return
	}
	e.removed[h] = struct{}{}
	e.visible = dropHandle(e.visible, h)
	e.mu.Unlock()

	e.publish()
	e.emit(events.SongRemove, uint64(h))
}

// Sort switches to the sorted ordering regime and re-derives the visible
// order via the column's comparator. Ties keep their prior relative order.
// Sorting always clears manual mode.
func (e *Engine) Sort(column string, dir Direction) error {
	e.mu.Lock()
	cmp, ok := e.comparators[column]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %q", shared.ErrUnknownColumn, column)
	}

	factor := 1
	if dir == Descending {
		factor = -1
	}
	songs := e.resolveAllLocked(e.visible)
	order := make([]int, len(e.visible))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return cmp(songs[order[i]], songs[order[j]])*factor < 0
	})
	sorted := make([]Handle, len(e.visible))
	for i, idx := range order {
		sorted[i] = e.visible[idx]
	}
	e.visible = sorted
	e.mode = OrderSorted
	e.sort = SortState{Column: column, Dir: dir}
	e.mu.Unlock()

	e.publish()
	e.emit(events.TableSort, events.SortPayload{Column: column})
	return nil
}

// ClearSort drops the active sort and returns to insertion order (raw order
// minus removed rows). Used when a sorted column is toggled off.
func (e *Engine) ClearSort() {
	e.mu.Lock()
	e.visible = e.insertionOrderLocked()
	e.mode = OrderInsertion
	e.sort = SortState{}
	e.mu.Unlock()

	e.publish()
}

// SetManualOrder switches to manual ordering and reorders visible to match
// the given identity sequence exactly. Identities not currently visible are
// ignored; identities omitted from the sequence are dropped from visible,
// which is a consistency bug in the caller and is logged as such.
func (e *Engine) SetManualOrder(order []Handle) {
	e.mu.Lock()
	current := make(map[Handle]struct{}, len(e.visible))
	for _, h := range e.visible {
		current[h] = struct{}{}
	}
	next := make([]Handle, 0, len(e.visible))
	for _, h := range order {
		if _, ok := current[h]; ok {
			next = append(next, h)
			delete(current, h)
		}
	}
	if len(current) > 0 && e.logger != nil {
		e.logger.Warn("manual order omitted visible rows; dropping them", "count", len(current))
	}
	e.visible = next
	e.mode = OrderManual
	e.sort = SortState{}
	e.mu.Unlock()

	e.publish()
	e.emitReordered()
}

// Shuffle randomizes the visible order and forces manual mode.
func (e *Engine) Shuffle() {
	e.mu.Lock()
	shuffled := append([]Handle(nil), e.visible...)
	e.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	e.visible = shuffled
	e.mode = OrderManual
	e.sort = SortState{}
	e.mu.Unlock()

	e.publish()
	e.emit(events.TableShuffle, nil)
	e.emitReordered()
}

// Reverse reverses the visible order and forces manual mode.
func (e *Engine) Reverse() {
	e.mu.Lock()
	reversed := make([]Handle, len(e.visible))
	for i, h := range e.visible {
		reversed[len(reversed)-1-i] = h
	}
	e.visible = reversed
	e.mode = OrderManual
	e.sort = SortState{}
	e.mu.Unlock()

	e.publish()
	e.emit(events.TableReverse, nil)
	e.emitReordered()
}

// Clear empties raw, visible, and the removed set, and resets ordering.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.arena.Reset()
	e.raw = nil
	e.visible = nil
	e.removed = make(map[Handle]struct{})
	e.mode = OrderInsertion
	e.sort = SortState{}
	e.mu.Unlock()

	e.publish()
	e.emit(events.TableClear, nil)
}

// ApplyFilter evaluates the spec against the current visible set and folds
// non-surviving identities into the removed set. Filtering is destructive
// for the session: hidden rows stay hidden until the next full Load.
// A filter that removes nothing is a true no-op.
func (e *Engine) ApplyFilter(spec FilterSpec) (int, error) {
	match, err := spec.matcher()
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	var toRemove []Handle
	for _, h := range e.visible {
		song, rerr := e.arena.Resolve(h)
		if rerr != nil {
			e.mu.Unlock()
			return 0, rerr
		}
		matched := match(song)
		if (spec.Action == FilterKeep && !matched) || (spec.Action == FilterRemove && matched) {
			toRemove = append(toRemove, h)
		}
	}
	if len(toRemove) == 0 {
		e.mu.Unlock()
		e.emit(events.TableFilterApply, filterPayload(spec))
		return 0, nil
	}
	for _, h := range toRemove {
		e.removed[h] = struct{}{}
	}
	drop := make(map[Handle]struct{}, len(toRemove))
	for _, h := range toRemove {
		drop[h] = struct{}{}
	}
	kept := e.visible[:0:0]
	for _, h := range e.visible {
		if _, gone := drop[h]; !gone {
			kept = append(kept, h)
		}
	}
	e.visible = kept
	e.mu.Unlock()

	e.publish()
	e.emit(events.TableFilterApply, filterPayload(spec))
	return len(toRemove), nil
}

func filterPayload(spec FilterSpec) events.FilterPayload {
	return events.FilterPayload{
		Action:    string(spec.Action),
		Field:     spec.Field,
		Query:     spec.Query,
		Partial:   spec.Partial,
		MatchCase: spec.CaseSensitive,
	}
}

// Visible returns the visible rows in order.
func (e *Engine) Visible() []models.Song {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolveAllLocked(e.visible)
}

// VisibleHandles returns a snapshot of the visible identity order.
func (e *Engine) VisibleHandles() []Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Handle(nil), e.visible...)
}

// RawLen reports how many rows have been ingested this session.
func (e *Engine) RawLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.raw)
}

// VisibleLen reports the current visible row count.
func (e *Engine) VisibleLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.visible)
}

// Resolve returns the record for a handle, failing loudly on unknown handles.
func (e *Engine) Resolve(h Handle) (models.Song, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.arena.Resolve(h)
}

// Mode returns the active ordering regime and sort state.
func (e *Engine) Mode() (OrderingMode, SortState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode, e.sort
}

// DuplicateNaturalKeys counts ingested rows whose natural key collides with
// an earlier row. A diagnostic, not an error: duplicates are representable.
func (e *Engine) DuplicateNaturalKeys() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	seen := make(map[string]struct{}, len(e.raw))
	dups := 0
	for _, h := range e.raw {
		song, err := e.arena.Resolve(h)
		if err != nil {
			continue
		}
		key := song.NaturalKey()
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

// BeginRun marks a bulk operation as active, rejecting overlapping runs.
// The UI disables mutating controls during a run; this is the defensive
// engine-level guard behind it.
func (e *Engine) BeginRun() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.runActive {
		return shared.ErrRunInProgress
	}
	e.runActive = true
	return nil
}

// EndRun releases the bulk-operation guard. Idempotent.
func (e *Engine) EndRun() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runActive = false
}

// ReplaceVisible applies a bulk re-fetch result: visible rows are swapped
// for their re-downloaded records while the pre-run identity order is kept.
// Records missing from results keep their previous data. The whole swap is
// one atomic step under the engine lock.
func (e *Engine) ReplaceVisible(order []Handle, results map[Handle]models.Song) {
	e.mu.Lock()
	for h, song := range results {
		if _, err := e.arena.Resolve(h); err != nil {
			if e.logger != nil {
				e.logger.Warn("bulk result for unknown identity; skipping", "handle", h)
			}
			continue
		}
		e.arena.records[h] = song
	}
	next := make([]Handle, 0, len(order))
	for _, h := range order {
		if _, gone := e.removed[h]; gone {
			continue
		}
		if _, err := e.arena.Resolve(h); err == nil {
			next = append(next, h)
		}
	}
	e.visible = next
	e.mu.Unlock()

	e.publish()
}

func (e *Engine) resolveAllLocked(handles []Handle) []models.Song {
	songs := make([]models.Song, 0, len(handles))
	for _, h := range handles {
		song, err := e.arena.Resolve(h)
		if err != nil {
			// Visible handles always come from the arena; log and skip.
			if e.logger != nil {
				e.logger.Warn("visible handle missing from arena", "handle", h)
			}
			continue
		}
		songs = append(songs, song)
	}
	return songs
}

func (e *Engine) insertionOrderLocked() []Handle {
	out := make([]Handle, 0, len(e.raw))
	for _, h := range e.raw {
		if _, gone := e.removed[h]; !gone {
			out = append(out, h)
		}
	}
	return out
}

func dropHandle(handles []Handle, h Handle) []Handle {
	out := handles[:0:0]
	for _, v := range handles {
		if v != h {
			out = append(out, v)
		}
	}
	return out
}

// publish writes the current collection slices into the state store.
func (e *Engine) publish() {
	if e.store == nil {
		return
	}
	e.mu.Lock()
	rawCount := len(e.raw)
	visibleCount := len(e.visible)
	order := make([]uint64, len(e.visible))
	for i, h := range e.visible {
		order[i] = uint64(h)
	}
	sortState := e.sort
	manual := e.mode == OrderManual
	e.mu.Unlock()

	e.store.Update(state.PathSongsRawCount, func(any) any { return rawCount })
	e.store.Update(state.PathSongsVisibleCount, func(any) any { return visibleCount })
	e.store.Update(state.PathSongsVisibleOrder, func(any) any { return order })
	e.store.Update(state.PathTableSortColumn, func(any) any { return sortState.Column })
	e.store.Update(state.PathTableSortDir, func(any) any { return string(sortState.Dir) })
	e.store.Update(state.PathTableManualOrder, func(any) any { return manual })
}

func (e *Engine) emit(event string, payload any) {
	if e.bus != nil {
		e.bus.Emit(event, payload)
	}
}

func (e *Engine) emitReordered() {
	if e.bus == nil {
		return
	}
	e.mu.Lock()
	order := make([]uint64, len(e.visible))
	for i, h := range e.visible {
		order[i] = uint64(h)
	}
	e.mu.Unlock()
	e.bus.Emit(events.TableReordered, events.ReorderPayload{Order: order})
}
