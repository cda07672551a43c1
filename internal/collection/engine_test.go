package collection

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/desertthunder/adbx/internal/events"
	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/shared"
	"github.com/desertthunder/adbx/internal/state"
)

func newTestEngine() *Engine {
	return NewEngine(EngineOpts{Rand: rand.New(rand.NewSource(1))})
}

func fixture() []models.Song {
	return []models.Song{
		{AnnID: 300, AnnSongID: 3000, SongName: "Cruel Angel", SongType: "Opening 1", AnimeENName: "Evangelion", AnimeVintage: "Fall 1995", SongDifficulty: fptr(30)},
		{AnnID: 100, AnnSongID: 1000, SongName: "Tank!", SongType: "Opening 1", AnimeENName: "Cowboy Bebop", AnimeVintage: "Spring 1998", SongDifficulty: fptr(60)},
		{AnnID: 100, AnnSongID: 1001, SongName: "The Real Folk Blues", SongType: "Ending 1", AnimeENName: "Cowboy Bebop", AnimeVintage: "Spring 1998"},
		{AnnID: 200, AnnSongID: 2000, SongName: "Sobakasu", SongType: "Opening 1", AnimeENName: "Rurouni Kenshin", AnimeVintage: "Winter 1996", SongDifficulty: fptr(45)},
	}
}

func visibleNames(e *Engine) []string {
	songs := e.Visible()
	names := make([]string, len(songs))
	for i, s := range songs {
		names[i] = s.SongName
	}
	return names
}

func TestEngineLoad(t *testing.T) {
	engine := newTestEngine()
	handles := engine.Load(fixture())

	if len(handles) != 4 {
		t.Fatalf("Load returned %d handles, want 4", len(handles))
	}
	if engine.RawLen() != 4 || engine.VisibleLen() != 4 {
		t.Errorf("raw=%d visible=%d, want 4/4", engine.RawLen(), engine.VisibleLen())
	}
	mode, sortState := engine.Mode()
	if mode != OrderInsertion {
		t.Errorf("mode = %v, want insertion", mode)
	}
	if sortState != (SortState{}) {
		t.Errorf("sort state = %+v, want zero", sortState)
	}

	want := []string{"Cruel Angel", "Tank!", "The Real Folk Blues", "Sobakasu"}
	if got := visibleNames(engine); !reflect.DeepEqual(got, want) {
		t.Errorf("visible order = %v, want %v", got, want)
	}
}

func TestEngineLoadReplacesEverything(t *testing.T) {
	engine := newTestEngine()
	first := engine.Load(fixture())
	engine.Remove(first[0])
	if err := engine.Sort(ColumnSong, Ascending); err != nil {
		t.Fatal(err)
	}

	second := engine.Load(fixture()[:2])

	if engine.RawLen() != 2 || engine.VisibleLen() != 2 {
		t.Errorf("raw=%d visible=%d after reload, want 2/2", engine.RawLen(), engine.VisibleLen())
	}
	mode, _ := engine.Mode()
	if mode != OrderInsertion {
		t.Errorf("mode = %v after reload, want insertion", mode)
	}
	// Identities are session-monotonic: a reload may never reuse handles.
	for _, h := range second {
		for _, old := range first {
			if h == old {
				t.Fatalf("reload reused handle %d", h)
			}
		}
	}
	if _, err := engine.Resolve(first[0]); err == nil {
		t.Error("pre-reload handle still resolves")
	}
}

func TestEngineLoadEmpty(t *testing.T) {
	engine := newTestEngine()
	engine.Load(fixture())
	engine.Load(nil)

	if engine.VisibleLen() != 0 || engine.RawLen() != 0 {
		t.Errorf("raw=%d visible=%d after empty load, want 0/0", engine.RawLen(), engine.VisibleLen())
	}
}

func TestEngineAppend(t *testing.T) {
	engine := newTestEngine()
	first := engine.Load(fixture()[:2])
	engine.Remove(first[0])
	if err := engine.Sort(ColumnSong, Ascending); err != nil {
		t.Fatal(err)
	}

	engine.Append(fixture()[2:])

	if engine.RawLen() != 4 {
		t.Errorf("raw = %d, want 4", engine.RawLen())
	}
	// Removed rows stay removed across an append.
	if engine.VisibleLen() != 3 {
		t.Errorf("visible = %d, want 3", engine.VisibleLen())
	}
	mode, sortState := engine.Mode()
	if mode != OrderManual {
		t.Errorf("mode = %v after append, want manual", mode)
	}
	if sortState != (SortState{}) {
		t.Errorf("sort state = %+v after append, want cleared", sortState)
	}
	// Appended rows land at the end of the current visible order.
	want := []string{"Tank!", "The Real Folk Blues", "Sobakasu"}
	if got := visibleNames(engine); !reflect.DeepEqual(got, want) {
		t.Errorf("visible = %v, want %v", got, want)
	}
}

func TestEngineRemove(t *testing.T) {
	engine := newTestEngine()
	handles := engine.Load(fixture())

	engine.Remove(handles[1])
	engine.Remove(handles[1])

	if engine.VisibleLen() != 3 {
		t.Errorf("visible = %d after double remove, want 3", engine.VisibleLen())
	}
	if engine.RawLen() != 4 {
		t.Errorf("raw = %d, want 4", engine.RawLen())
	}
	// The record itself survives removal.
	if _, err := engine.Resolve(handles[1]); err != nil {
		t.Errorf("removed handle no longer resolves: %v", err)
	}
}

func TestEngineVisibleIsSubsetOfRaw(t *testing.T) {
	engine := newTestEngine()
	handles := engine.Load(fixture())
	engine.Remove(handles[2])
	engine.Append(fixture()[:1])
	engine.Shuffle()
	if _, err := engine.ApplyFilter(FilterSpec{Field: FieldType, Query: "OP", Action: FilterKeep}); err != nil {
		t.Fatal(err)
	}

	seen := make(map[Handle]struct{})
	for _, h := range engine.VisibleHandles() {
		seen[h] = struct{}{}
	}
	if len(seen) != engine.VisibleLen() {
		t.Error("visible handles contain duplicates")
	}
	if engine.VisibleLen() > engine.RawLen() {
		t.Errorf("visible %d exceeds raw %d", engine.VisibleLen(), engine.RawLen())
	}
}

func TestEngineSort(t *testing.T) {
	t.Run("ascending text", func(t *testing.T) {
		engine := newTestEngine()
		engine.Load(fixture())
		if err := engine.Sort(ColumnSong, Ascending); err != nil {
			t.Fatal(err)
		}
		want := []string{"Cruel Angel", "Sobakasu", "Tank!", "The Real Folk Blues"}
		if got := visibleNames(engine); !reflect.DeepEqual(got, want) {
			t.Errorf("visible = %v, want %v", got, want)
		}
		mode, sortState := engine.Mode()
		if mode != OrderSorted || sortState.Column != ColumnSong || sortState.Dir != Ascending {
			t.Errorf("mode=%v sort=%+v", mode, sortState)
		}
	})

	t.Run("descending", func(t *testing.T) {
		engine := newTestEngine()
		engine.Load(fixture())
		if err := engine.Sort(ColumnAnnID, Descending); err != nil {
			t.Fatal(err)
		}
		want := []string{"Cruel Angel", "Sobakasu", "Tank!", "The Real Folk Blues"}
		if got := visibleNames(engine); !reflect.DeepEqual(got, want) {
			t.Errorf("visible = %v, want %v", got, want)
		}
	})

	t.Run("ties keep prior relative order", func(t *testing.T) {
		engine := newTestEngine()
		engine.Load(fixture())
		// All Cowboy Bebop rows share annId 100 and the prior order has
		// Tank! before The Real Folk Blues.
		if err := engine.Sort(ColumnAnnID, Ascending); err != nil {
			t.Fatal(err)
		}
		want := []string{"Tank!", "The Real Folk Blues", "Sobakasu", "Cruel Angel"}
		if got := visibleNames(engine); !reflect.DeepEqual(got, want) {
			t.Errorf("visible = %v, want %v", got, want)
		}
	})

	t.Run("missing difficulty sinks", func(t *testing.T) {
		engine := newTestEngine()
		engine.Load(fixture())
		if err := engine.Sort(ColumnDifficulty, Ascending); err != nil {
			t.Fatal(err)
		}
		got := visibleNames(engine)
		if got[len(got)-1] != "The Real Folk Blues" {
			t.Errorf("row without difficulty did not sink: %v", got)
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		engine := newTestEngine()
		engine.Load(fixture())
		if err := engine.Sort("bpm", Ascending); !errors.Is(err, shared.ErrUnknownColumn) {
			t.Errorf("error = %v, want ErrUnknownColumn", err)
		}
		mode, _ := engine.Mode()
		if mode != OrderInsertion {
			t.Errorf("failed sort changed mode to %v", mode)
		}
	})
}

func TestEngineClearSort(t *testing.T) {
	engine := newTestEngine()
	handles := engine.Load(fixture())
	engine.Remove(handles[3])
	if err := engine.Sort(ColumnSong, Ascending); err != nil {
		t.Fatal(err)
	}

	engine.ClearSort()

	mode, sortState := engine.Mode()
	if mode != OrderInsertion || sortState != (SortState{}) {
		t.Errorf("mode=%v sort=%+v after ClearSort", mode, sortState)
	}
	// Insertion order minus removed rows.
	want := []string{"Cruel Angel", "Tank!", "The Real Folk Blues"}
	if got := visibleNames(engine); !reflect.DeepEqual(got, want) {
		t.Errorf("visible = %v, want %v", got, want)
	}
}

func TestEngineShuffleAndReverse(t *testing.T) {
	t.Run("shuffle forces manual and keeps the set", func(t *testing.T) {
		engine := newTestEngine()
		engine.Load(fixture())
		before := engine.VisibleHandles()

		engine.Shuffle()

		mode, _ := engine.Mode()
		if mode != OrderManual {
			t.Errorf("mode = %v, want manual", mode)
		}
		after := engine.VisibleHandles()
		if len(after) != len(before) {
			t.Fatalf("shuffle changed row count: %d -> %d", len(before), len(after))
		}
		seen := make(map[Handle]struct{}, len(after))
		for _, h := range after {
			seen[h] = struct{}{}
		}
		for _, h := range before {
			if _, ok := seen[h]; !ok {
				t.Errorf("handle %d lost in shuffle", h)
			}
		}
	})

	t.Run("reverse", func(t *testing.T) {
		engine := newTestEngine()
		engine.Load(fixture())
		engine.Reverse()

		want := []string{"Sobakasu", "The Real Folk Blues", "Tank!", "Cruel Angel"}
		if got := visibleNames(engine); !reflect.DeepEqual(got, want) {
			t.Errorf("visible = %v, want %v", got, want)
		}
		mode, _ := engine.Mode()
		if mode != OrderManual {
			t.Errorf("mode = %v, want manual", mode)
		}
	})
}

func TestEngineSetManualOrder(t *testing.T) {
	engine := newTestEngine()
	handles := engine.Load(fixture())

	engine.SetManualOrder([]Handle{handles[2], handles[0], handles[3], handles[1], Handle(999)})

	want := []string{"The Real Folk Blues", "Cruel Angel", "Sobakasu", "Tank!"}
	if got := visibleNames(engine); !reflect.DeepEqual(got, want) {
		t.Errorf("visible = %v, want %v", got, want)
	}
	mode, _ := engine.Mode()
	if mode != OrderManual {
		t.Errorf("mode = %v, want manual", mode)
	}
}

func TestEngineApplyFilter(t *testing.T) {
	t.Run("keep", func(t *testing.T) {
		engine := newTestEngine()
		engine.Load(fixture())
		removed, err := engine.ApplyFilter(FilterSpec{Field: FieldType, Query: "OP", Action: FilterKeep})
		if err != nil {
			t.Fatal(err)
		}
		if removed != 1 {
			t.Errorf("removed = %d, want 1", removed)
		}
		want := []string{"Cruel Angel", "Tank!", "Sobakasu"}
		if got := visibleNames(engine); !reflect.DeepEqual(got, want) {
			t.Errorf("visible = %v, want %v", got, want)
		}
	})

	t.Run("remove", func(t *testing.T) {
		engine := newTestEngine()
		engine.Load(fixture())
		removed, err := engine.ApplyFilter(FilterSpec{Field: FieldArtist, Query: "nobody", Partial: true, Action: FilterRemove})
		if err != nil {
			t.Fatal(err)
		}
		if removed != 0 {
			t.Errorf("removed = %d, want 0 for no-op filter", removed)
		}
		if engine.VisibleLen() != 4 {
			t.Errorf("no-op filter changed visible count to %d", engine.VisibleLen())
		}
	})

	t.Run("filtered rows stay hidden after ClearSort", func(t *testing.T) {
		engine := newTestEngine()
		engine.Load(fixture())
		if _, err := engine.ApplyFilter(FilterSpec{Field: FieldType, Query: "OP", Action: FilterKeep}); err != nil {
			t.Fatal(err)
		}
		engine.ClearSort()
		if engine.VisibleLen() != 3 {
			t.Errorf("visible = %d, filtered row resurfaced", engine.VisibleLen())
		}
	})

	t.Run("compile error leaves view untouched", func(t *testing.T) {
		engine := newTestEngine()
		engine.Load(fixture())
		if _, err := engine.ApplyFilter(FilterSpec{Field: "bpm", Query: "x", Action: FilterKeep}); err == nil {
			t.Fatal("expected error")
		}
		if engine.VisibleLen() != 4 {
			t.Errorf("failed filter changed visible count to %d", engine.VisibleLen())
		}
	})
}

func TestEngineDuplicateNaturalKeys(t *testing.T) {
	engine := newTestEngine()
	songs := fixture()
	songs = append(songs, songs[0], songs[1])
	engine.Load(songs)

	if got := engine.DuplicateNaturalKeys(); got != 2 {
		t.Errorf("DuplicateNaturalKeys = %d, want 2", got)
	}
	// Both copies remain individually addressable.
	if engine.VisibleLen() != 6 {
		t.Errorf("visible = %d, want 6", engine.VisibleLen())
	}
}

func TestEngineRunGuard(t *testing.T) {
	engine := newTestEngine()

	if err := engine.BeginRun(); err != nil {
		t.Fatalf("first BeginRun failed: %v", err)
	}
	if err := engine.BeginRun(); !errors.Is(err, shared.ErrRunInProgress) {
		t.Errorf("overlapping BeginRun error = %v, want ErrRunInProgress", err)
	}
	engine.EndRun()
	engine.EndRun()
	if err := engine.BeginRun(); err != nil {
		t.Errorf("BeginRun after EndRun failed: %v", err)
	}
}

func TestEngineReplaceVisible(t *testing.T) {
	engine := newTestEngine()
	handles := engine.Load(fixture())
	if err := engine.Sort(ColumnSong, Descending); err != nil {
		t.Fatal(err)
	}
	order := engine.VisibleHandles()
	engine.Remove(handles[0])

	fresh := fixture()[1]
	fresh.SongName = "Tank! (2023 Remaster)"
	engine.ReplaceVisible(order, map[Handle]models.Song{
		handles[1]: fresh,
		Handle(999): {SongName: "ghost"},
	})

	got := visibleNames(engine)
	// Pre-run order minus the row removed mid-run, with the re-fetched
	// record swapped in place.
	want := []string{"The Real Folk Blues", "Tank! (2023 Remaster)", "Sobakasu"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("visible = %v, want %v", got, want)
	}
}

func TestEnginePublishesState(t *testing.T) {
	store := state.New(state.DefaultTree(), nil, nil, nil)
	engine := NewEngine(EngineOpts{Store: store, Rand: rand.New(rand.NewSource(1))})

	handles := engine.Load(fixture())
	engine.Remove(handles[0])

	if got := store.Get(state.PathSongsRawCount); got != 4 {
		t.Errorf("rawCount = %v, want 4", got)
	}
	if got := store.Get(state.PathSongsVisibleCount); got != 3 {
		t.Errorf("visibleCount = %v, want 3", got)
	}

	if err := engine.Sort(ColumnSong, Ascending); err != nil {
		t.Fatal(err)
	}
	if got := store.Get(state.PathTableSortColumn); got != ColumnSong {
		t.Errorf("sort column = %v, want %q", got, ColumnSong)
	}

	engine.Shuffle()
	if got := store.Get(state.PathTableManualOrder); got != true {
		t.Errorf("manualOrderActive = %v, want true", got)
	}
	if got := store.Get(state.PathTableSortColumn); got != "" {
		t.Errorf("sort column = %v after shuffle, want empty", got)
	}
}

func TestEngineEmitsEvents(t *testing.T) {
	bus := events.NewBus(nil)
	engine := NewEngine(EngineOpts{Bus: bus, Rand: rand.New(rand.NewSource(1))})
	handles := engine.Load(fixture())

	var names []string
	payloads := map[string]any{}
	for _, event := range []string{
		events.SongRemove, events.TableSort, events.TableShuffle,
		events.TableReverse, events.TableClear, events.TableFilterApply,
	} {
		event := event
		bus.On(event, func(payload any) {
			names = append(names, event)
			payloads[event] = payload
		})
	}

	engine.Remove(handles[2])
	if err := engine.Sort("song", Ascending); err != nil {
		t.Fatalf("Sort failed: %v", err)
	}
	engine.Shuffle()
	engine.Reverse()
	if _, err := engine.ApplyFilter(FilterSpec{
		Action: FilterKeep, Field: "anime", Query: "Cowboy", Partial: true,
	}); err != nil {
		t.Fatalf("ApplyFilter failed: %v", err)
	}
	engine.Clear()

	want := []string{
		events.SongRemove, events.TableSort, events.TableShuffle,
		events.TableReverse, events.TableFilterApply, events.TableClear,
	}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("emitted = %v, want %v", names, want)
	}

	if got := payloads[events.SongRemove]; got != uint64(handles[2]) {
		t.Errorf("remove payload = %v, want %d", got, handles[2])
	}
	if got := payloads[events.TableSort]; got != (events.SortPayload{Column: "song"}) {
		t.Errorf("sort payload = %+v", got)
	}
	filter, ok := payloads[events.TableFilterApply].(events.FilterPayload)
	if !ok {
		t.Fatalf("filter payload = %T", payloads[events.TableFilterApply])
	}
	if filter.Action != "keep" || filter.Field != "anime" || filter.Query != "Cowboy" || !filter.Partial || filter.MatchCase {
		t.Errorf("filter payload = %+v", filter)
	}
}

func TestEngineEmitsFilterApplyOnNoop(t *testing.T) {
	bus := events.NewBus(nil)
	engine := NewEngine(EngineOpts{Bus: bus, Rand: rand.New(rand.NewSource(1))})
	engine.Load(fixture())

	fired := 0
	bus.On(events.TableFilterApply, func(any) { fired++ })

	removed, err := engine.ApplyFilter(FilterSpec{
		Action: FilterKeep, Field: "anime", Query: "", Partial: true,
	})
	if err == nil {
		// Compile failures must not announce an applied filter.
		t.Fatal("expected validation error for empty query")
	}
	if fired != 0 {
		t.Fatalf("filter-apply fired %d times after a rejected filter", fired)
	}

	removed, err = engine.ApplyFilter(FilterSpec{
		Action: FilterRemove, Field: "anime", Query: "Nonexistent", Partial: true,
	})
	if err != nil {
		t.Fatalf("ApplyFilter failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
	if fired != 1 {
		t.Errorf("filter-apply fired %d times, want 1 for an applied no-op filter", fired)
	}
}
