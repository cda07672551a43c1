// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/services"
)

// MockCatalog is a test double for the AnisongDB client. Each endpoint
// returns the configured rows and error; Calls records every invocation.
type MockCatalog struct {
	Rows  []models.Song
	Err   error
	Calls []string

	// FetchFn, when set, overrides the id-list endpoints per call.
	FetchFn func(ids []int) ([]models.Song, error)
}

func (m *MockCatalog) Search(ctx context.Context, req services.SearchRequest) ([]models.Song, error) {
	m.Calls = append(m.Calls, "search")
	return m.Rows, m.Err
}

func (m *MockCatalog) Season(ctx context.Context, season string, t services.Toggles) ([]models.Song, error) {
	m.Calls = append(m.Calls, "season "+season)
	return m.Rows, m.Err
}

func (m *MockCatalog) ByAnnIDs(ctx context.Context, ids []int, t services.Toggles) ([]models.Song, error) {
	m.Calls = append(m.Calls, "ann_ids")
	return m.fetch(ids)
}

func (m *MockCatalog) ByAnnSongIDs(ctx context.Context, ids []int, t services.Toggles) ([]models.Song, error) {
	m.Calls = append(m.Calls, "ann_song_ids")
	return m.fetch(ids)
}

func (m *MockCatalog) ByAmqSongIDs(ctx context.Context, ids []int, t services.Toggles) ([]models.Song, error) {
	m.Calls = append(m.Calls, "amq_song_ids")
	return m.fetch(ids)
}

func (m *MockCatalog) ByMalIDs(ctx context.Context, ids []int, t services.Toggles) ([]models.Song, error) {
	m.Calls = append(m.Calls, "mal_ids")
	return m.fetch(ids)
}

func (m *MockCatalog) fetch(ids []int) ([]models.Song, error) {
	if m.FetchFn != nil {
		return m.FetchFn(ids)
	}
	return m.Rows, m.Err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// Songs builds a deterministic result set of n rows spanning distinct shows
// and song types for ordering tests.
func Songs(n int) []models.Song {
	types := []string{"Opening 1", "Ending 1", "Insert Song"}
	rows := make([]models.Song, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, models.Song{
			AnnID:       1000 + i/3,
			AnnSongID:   20000 + i,
			SongType:    types[i%3],
			SongName:    "Song " + string(rune('A'+i%26)),
			SongArtist:  "Artist " + string(rune('A'+i%26)),
			AnimeENName: "Anime " + string(rune('A'+i/3%26)),
		})
	}
	return rows
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
