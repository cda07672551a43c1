package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/shared"
)

// ParseUpload parses an exported file back into rows. CSV files must carry
// the export header line; JSON files may be a bare row array, an AMQ-format
// object with a songs array, or an Answer Stats songHistory object.
func ParseUpload(filename string, data []byte) ([]models.Song, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return parseCSV(data)
	}
	return parseJSON(data)
}

func parseJSON(data []byte) ([]models.Song, error) {
	var rows []models.Song
	if err := json.Unmarshal(data, &rows); err == nil {
		return rows, nil
	}

	var envelope struct {
		Songs       []models.Song          `json:"songs"`
		SongHistory map[string]models.Song `json:"songHistory"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: JSON must be an array of rows or an object with a songs array", shared.ErrInvalidInput)
	}
	if envelope.Songs != nil {
		return envelope.Songs, nil
	}
	if envelope.SongHistory != nil {
		rows = make([]models.Song, 0, len(envelope.SongHistory))
		for _, row := range envelope.SongHistory {
			rows = append(rows, row)
		}
		SortCanonicalKeys(rows)
		return rows, nil
	}
	return nil, fmt.Errorf("%w: JSON must be an array of rows or an object with a songs array", shared.ErrInvalidInput)
}

// SortCanonicalKeys orders rows by natural key. Map-shaped uploads carry no
// order of their own, so the import falls back to a deterministic one.
func SortCanonicalKeys(rows []models.Song) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && lessByKey(rows[j], rows[j-1]); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

func lessByKey(a, b models.Song) bool {
	if a.AnnID != b.AnnID {
		return a.AnnID < b.AnnID
	}
	return a.AnnSongID < b.AnnSongID
}

func parseCSV(data []byte) ([]models.Song, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed CSV: %v", shared.ErrInvalidInput, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(records[0]))
	for i, header := range records[0] {
		index[strings.TrimSpace(header)] = i
	}

	field := func(record []string, header string) string {
		i, ok := index[header]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	rows := make([]models.Song, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		broadcast := strings.TrimSpace(field(record, "Broadcast"))
		row := models.Song{
			AnnID:          parseInt(field(record, "ANN ID")),
			AnimeENName:    field(record, "Anime English"),
			AnimeJPName:    field(record, "Anime Romaji"),
			AnimeType:      field(record, "Anime Type"),
			AnimeCategory:  field(record, "Anime Category"),
			SongType:       field(record, "Type"),
			SongName:       field(record, "Song"),
			SongArtist:     field(record, "Artist"),
			AnimeVintage:   field(record, "Vintage"),
			SongDifficulty: parseOptFloat(field(record, "Difficulty")),
			SongCategory:   field(record, "Song Category"),
			IsDub:          broadcast == "Dub" || broadcast == "Dub/Rebroadcast",
			IsRebroadcast:  broadcast == "Rebroadcast" || broadcast == "Dub/Rebroadcast",
			SongLength:     ParseLength(field(record, "Length")),
			SongComposer:   field(record, "Composer"),
			SongArranger:   field(record, "Arranger"),
			AnnSongID:      parseInt(field(record, "ANN Song ID")),
			AmqSongID:      parseOptInt(field(record, "AMQ Song ID")),
			HQ:             field(record, "720p"),
			MQ:             field(record, "480p"),
			Audio:          field(record, "MP3"),
		}

		linked := &models.LinkedIDs{
			Anilist:     parseOptInt(field(record, "Anilist ID")),
			MyAnimeList: parseOptInt(field(record, "MAL ID")),
			Kitsu:       parseOptInt(field(record, "Kitsu ID")),
			AniDB:       parseOptInt(field(record, "AniDB ID")),
		}
		if linked.Anilist != nil || linked.MyAnimeList != nil || linked.Kitsu != nil || linked.AniDB != nil {
			row.LinkedIDs = linked
		}

		rows = append(rows, row)
	}
	return rows, nil
}

var lengthPattern = regexp.MustCompile(`^(\d+):(\d{2})$`)

// ParseLength parses the m:ss length column back into seconds.
func ParseLength(s string) *float64 {
	match := lengthPattern.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return nil
	}
	minutes, _ := strconv.Atoi(match[1])
	seconds, _ := strconv.Atoi(match[2])
	total := float64(minutes*60 + seconds)
	return &total
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseOptInt(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

func parseOptFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}
