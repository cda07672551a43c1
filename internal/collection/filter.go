package collection

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/shared"
)

// FilterAction decides which side of a match is removed.
type FilterAction string

const (
	// FilterKeep removes rows that do NOT match.
	FilterKeep FilterAction = "keep"
	// FilterRemove removes rows that DO match.
	FilterRemove FilterAction = "remove"
)

// Filterable fields of the results grid.
const (
	FieldAnime      = "anime"
	FieldArtist     = "artist"
	FieldSong       = "song"
	FieldComposer   = "composer"
	FieldArranger   = "arranger"
	FieldVintage    = "vintage"
	FieldType       = "type"
	FieldBroadcast  = "broadcast"
	FieldCategory   = "category"
	FieldDifficulty = "difficulty"
	FieldLength     = "length"
	FieldAnnID      = "annid"
)

// FilterSpec is the client-side filter payload: which field to test, how to
// match, and whether matching rows are kept or removed.
type FilterSpec struct {
	Field         string
	Query         string
	Partial       bool
	CaseSensitive bool
	Action        FilterAction
}

var (
	yearPattern      = regexp.MustCompile(`^\d{4}$`)
	yearRangePattern = regexp.MustCompile(`^(\d{4})\s*-\s*(\d{4})$`)
	numRangePattern  = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)$`)
)

// matcher compiles the spec into a per-row predicate. Compilation errors are
// input validation errors: the operation is reported and never started.
func (f FilterSpec) matcher() (func(models.Song) bool, error) {
	if f.Action != FilterKeep && f.Action != FilterRemove {
		return nil, fmt.Errorf("%w: filter action %q", shared.ErrInvalidArgument, f.Action)
	}
	query := strings.TrimSpace(f.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: filter query", shared.ErrEmptySearch)
	}

	switch f.Field {
	case FieldAnime:
		return f.textMatcher(query, func(s models.Song) string {
			if s.AnimeENName != "" {
				return s.AnimeENName
			}
			return s.AnimeJPName
		}), nil
	case FieldArtist:
		return f.textMatcher(query, func(s models.Song) string { return s.SongArtist }), nil
	case FieldSong:
		return f.textMatcher(query, func(s models.Song) string { return s.SongName }), nil
	case FieldComposer:
		return f.textMatcher(query, func(s models.Song) string { return s.SongComposer }), nil
	case FieldArranger:
		return f.textMatcher(query, func(s models.Song) string { return s.SongArranger }), nil
	case FieldVintage:
		return vintageMatcher(query), nil
	case FieldType:
		return enumMatcher(query, func(s models.Song) string { return CanonicalType(s.SongType) }, CanonicalType), nil
	case FieldBroadcast:
		return enumMatcher(query, func(s models.Song) string { return s.BroadcastText() }, nil), nil
	case FieldCategory:
		return enumMatcher(query, func(s models.Song) string { return s.SongCategory }, nil), nil
	case FieldDifficulty:
		return numericRangeMatcher(query, models.Song.Difficulty)
	case FieldLength:
		return numericRangeMatcher(query, models.Song.Length)
	case FieldAnnID:
		ids, err := ParseIDList(query)
		if err != nil {
			return nil, err
		}
		set := make(map[int]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		return func(s models.Song) bool {
			_, ok := set[s.AnnID]
			return ok
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownField, f.Field)
	}
}

// textMatcher matches text fields: substring containment when partial,
// exact equality otherwise, case-normalized unless CaseSensitive.
func (f FilterSpec) textMatcher(query string, get func(models.Song) string) func(models.Song) bool {
	q := query
	if !f.CaseSensitive {
		q = strings.ToLower(q)
	}
	return func(s models.Song) bool {
		v := get(s)
		if !f.CaseSensitive {
			v = strings.ToLower(v)
		}
		if f.Partial {
			return strings.Contains(v, q)
		}
		return v == q
	}
}

// vintageMatcher supports a bare 4-digit year, a YYYY-YYYY inclusive range,
// or a case-insensitive substring fallback against the vintage text.
func vintageMatcher(query string) func(models.Song) bool {
	if m := yearRangePattern.FindStringSubmatch(query); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		return func(s models.Song) bool {
			year, ok := vintageYear(s.AnimeVintage)
			return ok && year >= lo && year <= hi
		}
	}
	if yearPattern.MatchString(query) {
		want, _ := strconv.Atoi(query)
		return func(s models.Song) bool {
			year, ok := vintageYear(s.AnimeVintage)
			return ok && year == want
		}
	}
	q := strings.ToLower(query)
	return func(s models.Song) bool {
		return strings.Contains(strings.ToLower(s.AnimeVintage), q)
	}
}

func vintageYear(v string) (int, bool) {
	m := vintagePattern.FindStringSubmatch(v)
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	return year, true
}

// enumMatcher matches enumerated fields case-insensitively against a
// canonicalized form. canon also applies to the query when provided, so
// "Opening" and "OP1" both hit songs whose canonical type is OP.
func enumMatcher(query string, get func(models.Song) string, canon func(string) string) func(models.Song) bool {
	q := query
	if canon != nil {
		q = canon(q)
	}
	q = strings.ToLower(q)
	return func(s models.Song) bool {
		return strings.ToLower(get(s)) == q
	}
}

// numericRangeMatcher parses "min-max" or a single number (min=max); a row
// matches iff its value is finite and within the inclusive range.
func numericRangeMatcher(query string, get func(models.Song) float64) (func(models.Song) bool, error) {
	var lo, hi float64
	if m := numRangePattern.FindStringSubmatch(query); m != nil {
		lo, _ = strconv.ParseFloat(m[1], 64)
		hi, _ = strconv.ParseFloat(m[2], 64)
	} else {
		n, err := strconv.ParseFloat(query, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number or range", shared.ErrInvalidInput, query)
		}
		lo, hi = n, n
	}
	if lo > hi {
		return nil, fmt.Errorf("%w: range %q must be ascending", shared.ErrInvalidInput, query)
	}
	return func(s models.Song) bool {
		v := get(s)
		return !math.IsInf(v, 0) && !math.IsNaN(v) && v >= lo && v <= hi
	}, nil
}
