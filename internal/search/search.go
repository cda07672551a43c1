package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/adbx/internal/collection"
	"github.com/desertthunder/adbx/internal/events"
	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/services"
	"github.com/desertthunder/adbx/internal/shared"
)

// Scope selects which catalog endpoint and filter a simple search targets.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeAnime    Scope = "anime"
	ScopeArtist   Scope = "artist"
	ScopeSong     Scope = "song"
	ScopeComposer Scope = "composer"
	ScopeSeason   Scope = "season"
	ScopeAnnID    Scope = "ann"
	ScopeAnnSong  Scope = "ann-song"
	ScopeAmqSong  Scope = "amq-song"
	ScopeMalID    Scope = "mal"
)

// textScopes are the scopes whose query is free text; only these support the
// case-sensitive refinement.
var textScopes = map[Scope]bool{
	ScopeAll: true, ScopeAnime: true, ScopeArtist: true, ScopeSong: true, ScopeComposer: true,
}

// Catalog is the slice of the AnisongDB client the search layer needs.
type Catalog interface {
	Search(ctx context.Context, req services.SearchRequest) ([]models.Song, error)
	Season(ctx context.Context, season string, t services.Toggles) ([]models.Song, error)
	ByAnnIDs(ctx context.Context, ids []int, t services.Toggles) ([]models.Song, error)
	ByAnnSongIDs(ctx context.Context, ids []int, t services.Toggles) ([]models.Song, error)
	ByAmqSongIDs(ctx context.Context, ids []int, t services.Toggles) ([]models.Song, error)
	ByMalIDs(ctx context.Context, ids []int, t services.Toggles) ([]models.Song, error)
}

// Options configures one search run.
type Options struct {
	Scope     Scope
	Query     string
	Append    bool // append results instead of replacing the collection
	MatchCase bool // client-side case-sensitive refinement for text scopes

	Toggles          services.Toggles
	PartialMatch     bool
	GroupGranularity int
	MaxOtherArtist   int
	Arrangement      bool
}

// DefaultOptions returns a search run configuration matching a fresh session.
func DefaultOptions() Options {
	return Options{
		Scope:          ScopeAll,
		Toggles:        services.DefaultToggles(),
		PartialMatch:   true,
		MaxOtherArtist: 99,
	}
}

// AdvancedQuery carries per-field search terms. Empty fields are skipped.
type AdvancedQuery struct {
	Anime    string
	Artist   string
	Song     string
	Composer string
}

// Result summarizes a completed search run.
type Result struct {
	Rows     int
	Appended bool
	Endpoint string
}

// Manager runs searches end to end against the collection.
type Manager struct {
	client     Catalog
	collection *collection.Engine
	bus        *events.Bus
	logger     *log.Logger
}

// NewManager creates a search manager.
func NewManager(client Catalog, coll *collection.Engine, bus *events.Bus, logger *log.Logger) *Manager {
	return &Manager{client: client, collection: coll, bus: bus, logger: logger}
}

// Run performs a simple (single scope, single query) search.
func (m *Manager) Run(ctx context.Context, opts Options) (*Result, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return nil, shared.ErrEmptySearch
	}

	var (
		rows     []models.Song
		endpoint string
		err      error
	)
	switch opts.Scope {
	case ScopeSeason:
		var season string
		season, err = ParseSeason(query)
		if err != nil {
			return nil, err
		}
		endpoint = "/api/season_request"
		rows, err = m.client.Season(ctx, season, opts.Toggles)
	case ScopeAnnID:
		endpoint = "/api/ann_ids_request"
		rows, err = m.byIDList(ctx, query, m.client.ByAnnIDs, opts.Toggles)
	case ScopeAnnSong:
		endpoint = "/api/ann_song_ids_request"
		rows, err = m.byIDList(ctx, query, m.client.ByAnnSongIDs, opts.Toggles)
	case ScopeAmqSong:
		endpoint = "/api/amq_song_ids_request"
		rows, err = m.byIDList(ctx, query, m.client.ByAmqSongIDs, opts.Toggles)
	case ScopeMalID:
		endpoint = "/api/mal_ids_request"
		rows, err = m.byIDList(ctx, query, m.client.ByMalIDs, opts.Toggles)
	case ScopeAll, ScopeAnime, ScopeArtist, ScopeSong, ScopeComposer:
		endpoint = "/api/search_request"
		req := buildSearchRequest(opts.Scope, query, opts)
		rows, err = m.client.Search(ctx, req)
		if err == nil && opts.MatchCase {
			rows = RefineCaseSensitive(rows, extractTerms(req))
		}
	default:
		return nil, fmt.Errorf("%w: unknown search scope %q", shared.ErrInvalidArgument, opts.Scope)
	}
	if err != nil {
		return nil, err
	}

	return m.ingest(rows, opts.Append, endpoint), nil
}

// RunAdvanced performs a multi-field search against /api/search_request,
// constraining only the populated fields.
func (m *Manager) RunAdvanced(ctx context.Context, q AdvancedQuery, opts Options) (*Result, error) {
	req := buildAdvancedRequest(q, opts)
	if req.AnimeFilter == nil && req.ArtistFilter == nil && req.SongNameFilter == nil && req.ComposerFilter == nil {
		return nil, shared.ErrEmptySearch
	}

	rows, err := m.client.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if opts.MatchCase {
		rows = RefineCaseSensitive(rows, extractTerms(req))
	}
	return m.ingest(rows, opts.Append, "/api/search_request"), nil
}

// FetchByAnnSongIDs fetches rows for one id chunk. It satisfies the chunked
// fetch signature used by playlist loads and re-downloads.
func (m *Manager) FetchByAnnSongIDs(ctx context.Context, ids []int) ([]models.Song, error) {
	return m.client.ByAnnSongIDs(ctx, ids, services.DefaultToggles())
}

func (m *Manager) byIDList(ctx context.Context, query string, fetch func(context.Context, []int, services.Toggles) ([]models.Song, error), t services.Toggles) ([]models.Song, error) {
	ids, err := collection.ParseIDList(query)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, shared.ErrEmptySearch
	}
	return fetch(ctx, ids, t)
}

// ingest orders the rows canonically and loads or appends them.
func (m *Manager) ingest(rows []models.Song, appendRows bool, endpoint string) *Result {
	SortCanonical(rows)
	if appendRows {
		m.collection.Append(rows)
	} else {
		m.collection.Load(rows)
	}
	if m.bus != nil {
		m.bus.Emit(events.SearchSubmit, events.ProgressPayload{Processed: len(rows), Total: len(rows)})
	}
	if m.logger != nil {
		m.logger.Info("search complete", "endpoint", endpoint, "rows", len(rows), "append", appendRows)
	}
	return &Result{Rows: len(rows), Appended: appendRows, Endpoint: endpoint}
}

// buildSearchRequest builds the request body for a simple search: the active
// scope's filter only, or all four for the All scope.
func buildSearchRequest(scope Scope, query string, opts Options) services.SearchRequest {
	req := services.SearchRequest{Toggles: opts.Toggles}
	anime := &services.TextFilter{Search: query, PartialMatch: opts.PartialMatch}
	song := &services.TextFilter{Search: query, PartialMatch: opts.PartialMatch}
	artist := &services.ArtistFilter{
		Search:           query,
		PartialMatch:     opts.PartialMatch,
		GroupGranularity: opts.GroupGranularity,
		MaxOtherArtist:   opts.MaxOtherArtist,
	}
	composer := &services.ComposerFilter{
		Search:       query,
		PartialMatch: opts.PartialMatch,
		Arrangement:  opts.Arrangement,
	}

	switch scope {
	case ScopeAnime:
		req.AnimeFilter = anime
	case ScopeSong:
		req.SongNameFilter = song
	case ScopeArtist:
		req.ArtistFilter = artist
	case ScopeComposer:
		req.ComposerFilter = composer
	default:
		req.AnimeFilter = anime
		req.SongNameFilter = song
		req.ArtistFilter = artist
		req.ComposerFilter = composer
	}
	return req
}

func buildAdvancedRequest(q AdvancedQuery, opts Options) services.SearchRequest {
	req := services.SearchRequest{Toggles: opts.Toggles}
	if s := strings.TrimSpace(q.Anime); s != "" {
		req.AnimeFilter = &services.TextFilter{Search: s, PartialMatch: opts.PartialMatch}
	}
	if s := strings.TrimSpace(q.Artist); s != "" {
		req.ArtistFilter = &services.ArtistFilter{
			Search:           s,
			PartialMatch:     opts.PartialMatch,
			GroupGranularity: opts.GroupGranularity,
			MaxOtherArtist:   opts.MaxOtherArtist,
		}
	}
	if s := strings.TrimSpace(q.Song); s != "" {
		req.SongNameFilter = &services.TextFilter{Search: s, PartialMatch: opts.PartialMatch}
	}
	if s := strings.TrimSpace(q.Composer); s != "" {
		req.ComposerFilter = &services.ComposerFilter{Search: s, PartialMatch: opts.PartialMatch, Arrangement: opts.Arrangement}
	}
	return req
}
