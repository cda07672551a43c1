package tasks

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/adbx/internal/collection"
	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/shared"
)

func newTestCollection(songs []models.Song) *collection.Engine {
	engine := collection.NewEngine(collection.EngineOpts{Rand: rand.New(rand.NewSource(1))})
	engine.Load(songs)
	return engine
}

func mediaFixture() []models.Song {
	return []models.Song{
		{AnnID: 1, AnnSongID: 10, SongName: "Alpha", HQ: "a-720.webm", MQ: "a-480.webm", Audio: "a.mp3"},
		{AnnID: 2, AnnSongID: 20, SongName: "Beta", HQ: "b-720.webm"},
		{AnnID: 3, AnnSongID: 30, SongName: "Gamma"},
	}
}

func TestCheckLinks(t *testing.T) {
	coll := newTestCollection(mediaFixture())
	engine := NewTableEngine(TableEngineOpts{
		Collection: coll,
		Probe: func(ctx context.Context, url string) bool {
			return !strings.HasPrefix(url, "b-")
		},
		RateLimit: 1000,
	})

	result, err := engine.CheckLinks(context.Background(), nil)
	if err != nil {
		t.Fatalf("CheckLinks failed: %v", err)
	}

	if result.Total != 3 || result.Processed != 3 || result.StoppedEarly {
		t.Errorf("result = %+v, want full pass over 3 rows", result)
	}
	if len(result.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(result.Rows))
	}

	byKey := make(map[string]RowLinkResult, len(result.Rows))
	for _, row := range result.Rows {
		byKey[row.NaturalKey] = row
	}

	alpha := byKey["1-10"]
	if len(alpha.Links) != 3 || alpha.Dead() {
		t.Errorf("alpha = %+v, want 3 reachable links", alpha)
	}
	labels := []string{alpha.Links[0].Label, alpha.Links[1].Label, alpha.Links[2].Label}
	if !reflect.DeepEqual(labels, []string{"720", "480", "MP3"}) {
		t.Errorf("labels = %v", labels)
	}

	beta := byKey["2-20"]
	if !beta.Dead() {
		t.Errorf("beta = %+v, want dead (only link unreachable)", beta)
	}

	// A row with no media links is never "dead".
	gamma := byKey["3-30"]
	if len(gamma.Links) != 0 || gamma.Dead() {
		t.Errorf("gamma = %+v, want no links and not dead", gamma)
	}
}

func TestCheckLinksResolvesURLs(t *testing.T) {
	coll := newTestCollection(mediaFixture()[:1])

	var probed []string
	engine := NewTableEngine(TableEngineOpts{
		Collection: coll,
		Probe: func(ctx context.Context, url string) bool {
			probed = append(probed, url)
			return true
		},
		MediaURL:  func(path string) string { return "https://files.test/" + path },
		RateLimit: 1000,
		Workers:   1,
	})

	if _, err := engine.CheckLinks(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"https://files.test/a-720.webm",
		"https://files.test/a-480.webm",
		"https://files.test/a.mp3",
	}
	if !reflect.DeepEqual(probed, want) {
		t.Errorf("probed = %v, want %v", probed, want)
	}
}

func TestCheckLinksGuards(t *testing.T) {
	t.Run("empty selection", func(t *testing.T) {
		coll := newTestCollection(nil)
		engine := NewTableEngine(TableEngineOpts{
			Collection: coll,
			Probe:      func(ctx context.Context, url string) bool { return true },
		})
		if _, err := engine.CheckLinks(context.Background(), nil); !errors.Is(err, shared.ErrEmptySelection) {
			t.Errorf("error = %v, want ErrEmptySelection", err)
		}
	})

	t.Run("overlapping run", func(t *testing.T) {
		coll := newTestCollection(mediaFixture())
		if err := coll.BeginRun(); err != nil {
			t.Fatal(err)
		}
		engine := NewTableEngine(TableEngineOpts{
			Collection: coll,
			Probe:      func(ctx context.Context, url string) bool { return true },
		})
		if _, err := engine.CheckLinks(context.Background(), nil); !errors.Is(err, shared.ErrRunInProgress) {
			t.Errorf("error = %v, want ErrRunInProgress", err)
		}
	})

	t.Run("missing probe", func(t *testing.T) {
		engine := NewTableEngine(TableEngineOpts{Collection: newTestCollection(mediaFixture())})
		if _, err := engine.CheckLinks(context.Background(), nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("error = %v, want ErrServiceUnavailable", err)
		}
	})
}

func TestCheckLinksProgress(t *testing.T) {
	coll := newTestCollection(mediaFixture())
	engine := NewTableEngine(TableEngineOpts{
		Collection: coll,
		Probe:      func(ctx context.Context, url string) bool { return true },
		RateLimit:  1000,
	})

	progress := make(chan ProgressUpdate, 16)
	if _, err := engine.CheckLinks(context.Background(), progress); err != nil {
		t.Fatal(err)
	}
	close(progress)

	count := 0
	for update := range progress {
		if update.Phase != ProbeLinks {
			t.Errorf("phase = %v, want ProbeLinks", update.Phase)
		}
		count++
	}
	if count != 3 {
		t.Errorf("progress updates = %d, want 3", count)
	}
}

func TestRebuild(t *testing.T) {
	songs := []models.Song{
		{AnnID: 1, AnnSongID: 10, SongName: "Alpha"},
		{AnnID: 2, AnnSongID: 20, SongName: "Beta"},
		// Duplicate natural key: both rows must receive the fresh record.
		{AnnID: 1, AnnSongID: 10, SongName: "Alpha copy"},
	}
	coll := newTestCollection(songs)
	handles := coll.VisibleHandles()
	coll.SetManualOrder([]collection.Handle{handles[1], handles[0], handles[2]})

	var fetched [][]int
	engine := NewTableEngine(TableEngineOpts{
		Collection: coll,
		Fetch: func(ctx context.Context, ids []int) ([]models.Song, error) {
			fetched = append(fetched, ids)
			rows := make([]models.Song, len(ids))
			for i, id := range ids {
				rows[i] = models.Song{AnnSongID: id, SongName: "fresh"}
			}
			return rows, nil
		},
	})

	result, err := engine.Rebuild(context.Background(), nil)
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if !result.Applied || result.Rows != 3 {
		t.Errorf("result = %+v, want applied with 3 rows", result)
	}
	// Duplicate ids are fetched once.
	if len(fetched) != 1 || !reflect.DeepEqual(fetched[0], []int{20, 10}) {
		t.Errorf("fetched = %v, want one request with deduped ids in order", fetched)
	}

	visible := coll.Visible()
	if len(visible) != 3 {
		t.Fatalf("visible = %d rows, want 3", len(visible))
	}
	// The pre-run manual order survives the swap.
	if visible[0].AnnSongID != 20 || visible[1].AnnSongID != 10 || visible[2].AnnSongID != 10 {
		t.Errorf("order after rebuild = %d,%d,%d", visible[0].AnnSongID, visible[1].AnnSongID, visible[2].AnnSongID)
	}
	for _, s := range visible {
		if s.SongName != "fresh" {
			t.Errorf("row %d kept stale record %q", s.AnnSongID, s.SongName)
		}
	}
}

func TestRebuildDiscardsPartialOnFailure(t *testing.T) {
	ids := make([]int, 1200)
	songs := make([]models.Song, 1200)
	for i := range ids {
		ids[i] = i + 1
		songs[i] = models.Song{AnnID: i + 1, AnnSongID: i + 1, SongName: "stale"}
	}
	coll := newTestCollection(songs)

	call := 0
	engine := NewTableEngine(TableEngineOpts{
		Collection: coll,
		ChunkSize:  500,
		Fetch: func(ctx context.Context, ids []int) ([]models.Song, error) {
			call++
			if call == 2 {
				return nil, errors.New("server error")
			}
			rows := make([]models.Song, len(ids))
			for i, id := range ids {
				rows[i] = models.Song{AnnSongID: id, SongName: "fresh"}
			}
			return rows, nil
		},
	})

	result, err := engine.Rebuild(context.Background(), nil)
	if !errors.Is(err, shared.ErrAPIRequest) {
		t.Fatalf("error = %v, want ErrAPIRequest", err)
	}
	if result.Applied {
		t.Error("failed rebuild reported as applied")
	}
	if result.ProcessedChunks != 1 || result.TotalChunks != 3 {
		t.Errorf("chunks = %d/%d, want 1/3", result.ProcessedChunks, result.TotalChunks)
	}
	// All or nothing: the partial download never touches the grid.
	for _, s := range coll.Visible() {
		if s.SongName != "stale" {
			t.Fatal("partial rebuild leaked into the grid")
		}
	}
}

func TestRebuildCancelled(t *testing.T) {
	songs := make([]models.Song, 1000)
	for i := range songs {
		songs[i] = models.Song{AnnID: i + 1, AnnSongID: i + 1, SongName: "stale"}
	}
	coll := newTestCollection(songs)

	var engine *TableEngine
	engine = NewTableEngine(TableEngineOpts{
		Collection: coll,
		ChunkSize:  500,
		Fetch: func(ctx context.Context, ids []int) ([]models.Song, error) {
			engine.Cancel()
			return make([]models.Song, len(ids)), nil
		},
	})

	result, err := engine.Rebuild(context.Background(), nil)
	if err != nil {
		t.Fatalf("cancellation must not be an error: %v", err)
	}
	if result.Applied || !result.StoppedEarly {
		t.Errorf("result = %+v, want stopped early without applying", result)
	}
	if coll.Visible()[0].SongName != "stale" {
		t.Error("cancelled rebuild touched the grid")
	}
}

func TestLoadByIDs(t *testing.T) {
	t.Run("first chunk loads, later chunks append", func(t *testing.T) {
		coll := newTestCollection([]models.Song{{AnnID: 9, AnnSongID: 99, SongName: "leftover"}})

		engine := NewTableEngine(TableEngineOpts{
			Collection: coll,
			ChunkSize:  500,
			Fetch: func(ctx context.Context, ids []int) ([]models.Song, error) {
				rows := make([]models.Song, len(ids))
				for i, id := range ids {
					rows[i] = models.Song{AnnSongID: id}
				}
				return rows, nil
			},
		})

		ids := make([]int, 700)
		for i := range ids {
			ids[i] = i + 1
		}
		outcome, err := engine.LoadByIDs(context.Background(), ids, nil)
		if err != nil {
			t.Fatalf("LoadByIDs failed: %v", err)
		}
		if !outcome.Complete() {
			t.Errorf("outcome = %+v, want complete", outcome)
		}
		// The first chunk replaced the pre-existing rows.
		if coll.VisibleLen() != 700 || coll.RawLen() != 700 {
			t.Errorf("visible=%d raw=%d, want 700/700", coll.VisibleLen(), coll.RawLen())
		}
	})

	t.Run("keeps loaded chunks on failure", func(t *testing.T) {
		coll := newTestCollection(nil)
		call := 0
		engine := NewTableEngine(TableEngineOpts{
			Collection: coll,
			ChunkSize:  500,
			Fetch: func(ctx context.Context, ids []int) ([]models.Song, error) {
				call++
				if call == 2 {
					return nil, errors.New("server error")
				}
				return make([]models.Song, len(ids)), nil
			},
		})

		ids := make([]int, 1000)
		for i := range ids {
			ids[i] = i + 1
		}
		_, err := engine.LoadByIDs(context.Background(), ids, nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("error = %v, want ErrAPIRequest", err)
		}
		if coll.VisibleLen() != 500 {
			t.Errorf("visible = %d, want the successful first chunk kept", coll.VisibleLen())
		}
	})

	t.Run("empty id list", func(t *testing.T) {
		engine := NewTableEngine(TableEngineOpts{
			Collection: newTestCollection(nil),
			Fetch: func(ctx context.Context, ids []int) ([]models.Song, error) {
				return nil, nil
			},
		})
		if _, err := engine.LoadByIDs(context.Background(), nil, nil); !errors.Is(err, shared.ErrEmptySelection) {
			t.Errorf("error = %v, want ErrEmptySelection", err)
		}
	})
}

func TestSetWorkers(t *testing.T) {
	t.Run("clamped like construction", func(t *testing.T) {
		engine := NewTableEngine(TableEngineOpts{})
		tc := []struct {
			in, want int
		}{
			{0, 5},
			{-3, 5},
			{1, 1},
			{7, 7},
			{10, 10},
			{64, 10},
		}
		for _, tt := range tc {
			engine.SetWorkers(tt.in)
			if engine.workers != tt.want {
				t.Errorf("SetWorkers(%d) left workers = %d, want %d", tt.in, engine.workers, tt.want)
			}
		}
	})

	t.Run("bounds the next run", func(t *testing.T) {
		songs := make([]models.Song, 8)
		for i := range songs {
			songs[i] = models.Song{AnnID: i + 1, AnnSongID: (i + 1) * 10, HQ: "x-720.webm"}
		}
		coll := newTestCollection(songs)

		var inFlight, peak atomic.Int64
		engine := NewTableEngine(TableEngineOpts{
			Collection: coll,
			Probe: func(ctx context.Context, url string) bool {
				cur := inFlight.Add(1)
				for {
					old := peak.Load()
					if cur <= old || peak.CompareAndSwap(old, cur) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inFlight.Add(-1)
				return true
			},
			RateLimit: 1000,
			Workers:   8,
		})

		engine.SetWorkers(2)
		result, err := engine.CheckLinks(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.Processed != 8 {
			t.Fatalf("processed = %d, want 8", result.Processed)
		}
		if got := peak.Load(); got > 2 {
			t.Errorf("peak concurrent probes = %d, want at most 2", got)
		}
	})
}
