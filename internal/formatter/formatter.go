// package formatter provides functions to export grid rows to CSV and JSON
// and to parse uploaded files back into rows
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/adbx/internal/models"
)

// csvHeaders is the export column order. Import maps the same headers back.
var csvHeaders = []string{
	"ANN ID", "Anime English", "Anime Romaji", "Anime Type", "Anime Category",
	"Type", "Song", "Artist", "Vintage", "Difficulty", "Song Category",
	"Broadcast", "Length", "Composer", "Arranger", "ANN Song ID", "AMQ Song ID",
	"Anilist ID", "MAL ID", "Kitsu ID", "AniDB ID", "720p", "480p", "MP3",
}

// ExportToCSV converts rows to CSV in the visible order with one header line.
func ExportToCSV(rows []models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.AnnID),
			row.AnimeENName,
			row.AnimeJPName,
			row.AnimeType,
			row.AnimeCategory,
			row.SongType,
			row.SongName,
			row.SongArtist,
			row.AnimeVintage,
			optFloat(row.SongDifficulty),
			row.SongCategory,
			row.BroadcastText(),
			FormatLength(row.SongLength),
			row.SongComposer,
			row.SongArranger,
			strconv.Itoa(row.AnnSongID),
			optInt(row.AmqSongID),
			linkedID(row, func(l *models.LinkedIDs) *int { return l.Anilist }),
			linkedID(row, func(l *models.LinkedIDs) *int { return l.MyAnimeList }),
			linkedID(row, func(l *models.LinkedIDs) *int { return l.Kitsu }),
			linkedID(row, func(l *models.LinkedIDs) *int { return l.AniDB }),
			row.HQ,
			row.MQ,
			row.Audio,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts rows to indented JSON in the visible order.
func ExportToJSON(rows []models.Song) ([]byte, error) {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return data, nil
}

// FormatLength renders a song length in seconds as m:ss, empty when absent.
func FormatLength(seconds *float64) string {
	if seconds == nil || math.IsNaN(*seconds) || *seconds <= 0 {
		return ""
	}
	total := int(math.Round(*seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

var filenamePattern = regexp.MustCompile(`(?i)[^a-z0-9 _.-]+`)

// MakeFilename builds a sanitized download filename from the search query.
func MakeFilename(query, extension string) string {
	safe := filenamePattern.ReplaceAllString(strings.TrimSpace(query), "")
	safe = strings.TrimSpace(safe)
	if safe == "" {
		safe = "download"
	}
	return safe + "." + extension
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func linkedID(row models.Song, pick func(*models.LinkedIDs) *int) string {
	if row.LinkedIDs == nil {
		return ""
	}
	return optInt(pick(row.LinkedIDs))
}
