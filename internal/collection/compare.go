package collection

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/desertthunder/adbx/internal/models"
)

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Sortable columns of the results grid.
const (
	ColumnAnnID      = "annid"
	ColumnAnime      = "anime"
	ColumnType       = "type"
	ColumnSong       = "song"
	ColumnArtist     = "artist"
	ColumnVintage    = "vintage"
	ColumnDifficulty = "difficulty"
	ColumnCategory   = "category"
	ColumnBroadcast  = "broadcast"
	ColumnLength     = "length"
	ColumnComposer   = "composer"
	ColumnArranger   = "arranger"
	ColumnAnnSongID  = "annSongId"
	ColumnAmqSongID  = "amqSongId"
	ColumnAnilistID  = "anilistId"
	ColumnMalID      = "malId"
	ColumnKitsuID    = "kitsuId"
	ColumnAnidbID    = "anidbId"
)

// seasonOrder positions a vintage season within its year.
var seasonOrder = map[string]int{"Winter": 0, "Spring": 1, "Summer": 2, "Fall": 3}

var (
	vintagePattern    = regexp.MustCompile(`^(Winter|Spring|Summer|Fall)\s+(\d{4})$`)
	typeNumberPattern = regexp.MustCompile(`\d+`)
)

// comparator orders two songs for one column; negative means a before b.
type comparator func(a, b models.Song) int

// comparatorTable builds the per-column comparator map. Text columns use a
// case- and diacritic-insensitive collator, numeric columns treat missing
// values as +Inf so unsortable rows sink to the bottom, and categorical
// columns use domain ordinal maps.
func comparatorTable(coll *collate.Collator, romaji bool) map[string]comparator {
	text := func(get func(models.Song) string) comparator {
		return func(a, b models.Song) int {
			return coll.CompareString(get(a), get(b))
		}
	}
	numeric := func(get func(models.Song) float64) comparator {
		return func(a, b models.Song) int {
			return compareFloat(get(a), get(b))
		}
	}
	linked := func(get func(*models.LinkedIDs) *int) comparator {
		return numeric(func(s models.Song) float64 {
			if s.LinkedIDs == nil {
				return math.Inf(1)
			}
			return optInt(get(s.LinkedIDs))
		})
	}

	return map[string]comparator{
		ColumnAnnID:      numeric(func(s models.Song) float64 { return float64(s.AnnID) }),
		ColumnAnime:      text(func(s models.Song) string { return s.AnimeTitle(romaji) }),
		ColumnSong:       text(func(s models.Song) string { return s.SongName }),
		ColumnArtist:     text(func(s models.Song) string { return s.SongArtist }),
		ColumnComposer:   text(func(s models.Song) string { return s.SongComposer }),
		ColumnArranger:   text(func(s models.Song) string { return s.SongArranger }),
		ColumnCategory:   text(func(s models.Song) string { return s.SongCategory }),
		ColumnBroadcast:  text(func(s models.Song) string { return s.BroadcastText() }),
		ColumnType:       numeric(func(s models.Song) float64 { return float64(TypeOrder(s.SongType)) }),
		ColumnVintage:    numeric(func(s models.Song) float64 { return vintageOrder(s.AnimeVintage) }),
		ColumnDifficulty: numeric(models.Song.Difficulty),
		ColumnLength:     numeric(models.Song.Length),
		ColumnAnnSongID:  numeric(func(s models.Song) float64 { return float64(s.AnnSongID) }),
		ColumnAmqSongID:  numeric(func(s models.Song) float64 { return optInt(s.AmqSongID) }),
		ColumnAnilistID:  linked(func(l *models.LinkedIDs) *int { return l.Anilist }),
		ColumnMalID:      linked(func(l *models.LinkedIDs) *int { return l.MyAnimeList }),
		ColumnKitsuID:    linked(func(l *models.LinkedIDs) *int { return l.Kitsu }),
		ColumnAnidbID:    linked(func(l *models.LinkedIDs) *int { return l.AniDB }),
	}
}

// newCollator builds the shared text collator. Loose comparison matches the
// grid's case-insensitive ordering of titles and names.
func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.Loose)
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func optInt(v *int) float64 {
	if v == nil {
		return math.Inf(1)
	}
	return float64(*v)
}

// CanonicalType normalizes a song type to OP, ED, or IN; unknown types pass
// through upper-cased.
func CanonicalType(t string) string {
	s := strings.ToUpper(strings.TrimSpace(t))
	switch {
	case strings.HasPrefix(s, "OPENING"), strings.HasPrefix(s, "OP"):
		return "OP"
	case strings.HasPrefix(s, "ENDING"), strings.HasPrefix(s, "ED"):
		return "ED"
	case strings.HasPrefix(s, "INSERT"), strings.HasPrefix(s, "IN"):
		return "IN"
	default:
		return s
	}
}

// TypeOrder ranks song types for sorting: OP=1, ED=2, IN=3, others last.
func TypeOrder(t string) int {
	switch CanonicalType(t) {
	case "OP":
		return 1
	case "ED":
		return 2
	case "IN":
		return 3
	default:
		return 99
	}
}

// TypeNumber extracts the numeric suffix of a song type ("Opening 2" -> 2).
func TypeNumber(t string) int {
	m := typeNumberPattern.FindString(t)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// vintageOrder maps "Season YYYY" onto a sortable ordinal (year*10 + season
// index); malformed or empty vintages sort last.
func vintageOrder(v string) float64 {
	m := vintagePattern.FindStringSubmatch(v)
	if m == nil {
		return 9999999
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return 9999999
	}
	return float64(year*10 + seasonOrder[m[1]])
}
