// AnisongDB API client
//
// Request and response shapes based on https://anisongdb.com/api endpoints.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/shared"
)

const defaultBaseURL = "https://anisongdb.com"

// Toggles are the common request options shared by every catalog endpoint:
// song type selection, broadcast variants, and song category selection.
type Toggles struct {
	AndLogic        bool `json:"and_logic"`
	IgnoreDuplicate bool `json:"ignore_duplicate"`
	OpeningFilter   bool `json:"opening_filter"`
	EndingFilter    bool `json:"ending_filter"`
	InsertFilter    bool `json:"insert_filter"`
	NormalBroadcast bool `json:"normal_broadcast"`
	Dub             bool `json:"dub"`
	Rebroadcast     bool `json:"rebroadcast"`
	Standard        bool `json:"standard"`
	Character       bool `json:"character"`
	Chanting        bool `json:"chanting"`
	Instrumental    bool `json:"instrumental"`
}

// DefaultToggles returns the toggle set a fresh search uses: every song type,
// broadcast, and category included; intersection logic and deduplication off.
func DefaultToggles() Toggles {
	return Toggles{
		OpeningFilter:   true,
		EndingFilter:    true,
		InsertFilter:    true,
		NormalBroadcast: true,
		Dub:             true,
		Rebroadcast:     true,
		Standard:        true,
		Character:       true,
		Chanting:        true,
		Instrumental:    true,
	}
}

// TextFilter matches a free-text field (anime or song name).
type TextFilter struct {
	Search       string `json:"search"`
	PartialMatch bool   `json:"partial_match"`
}

// ArtistFilter matches the artist field with group expansion controls.
type ArtistFilter struct {
	Search           string `json:"search"`
	PartialMatch     bool   `json:"partial_match"`
	GroupGranularity int    `json:"group_granularity"`
	MaxOtherArtist   int    `json:"max_other_artist"`
}

// ComposerFilter matches the composer field, optionally including arrangers.
type ComposerFilter struct {
	Search       string `json:"search"`
	PartialMatch bool   `json:"partial_match"`
	Arrangement  bool   `json:"arrangement"`
}

// SearchRequest is the body for /api/search_request. Absent filters are
// omitted entirely so the endpoint only constrains the populated fields.
type SearchRequest struct {
	Toggles
	AnimeFilter    *TextFilter     `json:"anime_search_filter,omitempty"`
	SongNameFilter *TextFilter     `json:"song_name_search_filter,omitempty"`
	ArtistFilter   *ArtistFilter   `json:"artist_search_filter,omitempty"`
	ComposerFilter *ComposerFilter `json:"composer_search_filter,omitempty"`
}

type seasonRequest struct {
	Toggles
	Season string `json:"season"`
}

type annIDsRequest struct {
	Toggles
	AnnIDs []int `json:"ann_ids"`
}

type annSongIDsRequest struct {
	Toggles
	AnnSongIDs []int `json:"ann_song_ids"`
}

type amqSongIDsRequest struct {
	Toggles
	AmqSongIDs []int `json:"amq_song_ids"`
}

type malIDsRequest struct {
	Toggles
	MalIDs []int `json:"mal_ids"`
}

// Client talks to the AnisongDB catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a catalog client from the application config.
func NewClient(cfg *shared.Config, logger *log.Logger) *Client {
	baseURL := defaultBaseURL
	timeout := 30 * time.Second
	if cfg != nil {
		if cfg.API.BaseURL != "" {
			baseURL = cfg.API.BaseURL
		}
		if cfg.API.TimeoutSeconds > 0 {
			timeout = time.Duration(cfg.API.TimeoutSeconds) * time.Second
		}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Search queries /api/search_request with the given filters.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]models.Song, error) {
	var songs []models.Song
	if err := c.doPost(ctx, "/api/search_request", req, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// Season queries /api/season_request for one broadcast season, formatted as
// "Winter 2024".
func (c *Client) Season(ctx context.Context, season string, t Toggles) ([]models.Song, error) {
	var songs []models.Song
	if err := c.doPost(ctx, "/api/season_request", seasonRequest{Toggles: t, Season: season}, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// ByAnnIDs queries /api/ann_ids_request for whole shows by ANN id.
func (c *Client) ByAnnIDs(ctx context.Context, ids []int, t Toggles) ([]models.Song, error) {
	var songs []models.Song
	if err := c.doPost(ctx, "/api/ann_ids_request", annIDsRequest{Toggles: t, AnnIDs: ids}, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// ByAnnSongIDs queries /api/ann_song_ids_request for individual songs.
func (c *Client) ByAnnSongIDs(ctx context.Context, ids []int, t Toggles) ([]models.Song, error) {
	var songs []models.Song
	if err := c.doPost(ctx, "/api/ann_song_ids_request", annSongIDsRequest{Toggles: t, AnnSongIDs: ids}, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// ByAmqSongIDs queries /api/amq_song_ids_request for individual songs.
func (c *Client) ByAmqSongIDs(ctx context.Context, ids []int, t Toggles) ([]models.Song, error) {
	var songs []models.Song
	if err := c.doPost(ctx, "/api/amq_song_ids_request", amqSongIDsRequest{Toggles: t, AmqSongIDs: ids}, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// ByMalIDs queries /api/mal_ids_request for whole shows by MyAnimeList id.
func (c *Client) ByMalIDs(ctx context.Context, ids []int, t Toggles) ([]models.Song, error) {
	var songs []models.Song
	if err := c.doPost(ctx, "/api/mal_ids_request", malIDsRequest{Toggles: t, MalIDs: ids}, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// doPost performs a JSON POST to the API and decodes the response into result.
func (c *Client) doPost(ctx context.Context, endpoint string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", shared.ErrTimeout, endpoint)
		}
		return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, endpoint, err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: reading response: %v", shared.ErrAPIRequest, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s: status %d: %s", shared.ErrAPIRequest, endpoint, resp.StatusCode, errorDetail(text, resp.Status))
	}

	if result != nil {
		if err := json.Unmarshal(text, result); err != nil {
			return fmt.Errorf("%w: %s: decoding response: %v", shared.ErrAPIRequest, endpoint, err)
		}
	}
	return nil
}

// errorDetail pulls the API-provided detail or message out of an error body,
// falling back to the HTTP status line.
func errorDetail(body []byte, status string) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Detail) > 0 {
			var detail string
			if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
				return detail
			}
			return string(envelope.Detail)
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return status
}
