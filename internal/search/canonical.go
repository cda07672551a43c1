package search

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/desertthunder/adbx/internal/collection"
	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/services"
	"github.com/desertthunder/adbx/internal/shared"
)

var seasonPattern = regexp.MustCompile(`(?i)^(Winter|Spring|Summer|Fall)\s+(\d{4})$`)

// ParseSeason validates and canonicalizes a season query like "spring 2024"
// into the "Spring 2024" form the season endpoint expects.
func ParseSeason(query string) (string, error) {
	match := seasonPattern.FindStringSubmatch(strings.TrimSpace(query))
	if match == nil {
		return "", fmt.Errorf("%w: season must look like %q", shared.ErrInvalidArgument, "Spring 2024")
	}
	season := strings.ToUpper(match[1][:1]) + strings.ToLower(match[1][1:])
	return season + " " + match[2], nil
}

// SortCanonical orders rows into the catalog's canonical presentation order:
// by show, then song type group with ascending number (OP, ED, IN), then
// broadcast variant (normal, dub, rebroadcast, both). The sort is in place
// and stable, so equal rows keep the response order.
func SortCanonical(rows []models.Song) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.AnnID != b.AnnID {
			return a.AnnID < b.AnnID
		}
		if ga, gb := collection.TypeOrder(a.SongType), collection.TypeOrder(b.SongType); ga != gb {
			return ga < gb
		}
		if na, nb := collection.TypeNumber(a.SongType), collection.TypeNumber(b.SongType); na != nb {
			return na < nb
		}
		return a.BroadcastWeight() < b.BroadcastWeight()
	})
}

// Term is one text search term paired with the field it targeted.
type Term struct {
	Field Scope
	Term  string
}

// extractTerms pulls the text terms out of a request body for the
// case-sensitive refinement.
func extractTerms(req services.SearchRequest) []Term {
	var terms []Term
	if req.AnimeFilter != nil && req.AnimeFilter.Search != "" {
		terms = append(terms, Term{Field: ScopeAnime, Term: req.AnimeFilter.Search})
	}
	if req.ArtistFilter != nil && req.ArtistFilter.Search != "" {
		terms = append(terms, Term{Field: ScopeArtist, Term: req.ArtistFilter.Search})
	}
	if req.SongNameFilter != nil && req.SongNameFilter.Search != "" {
		terms = append(terms, Term{Field: ScopeSong, Term: req.SongNameFilter.Search})
	}
	if req.ComposerFilter != nil && req.ComposerFilter.Search != "" {
		terms = append(terms, Term{Field: ScopeComposer, Term: req.ComposerFilter.Search})
	}
	return terms
}

// RefineCaseSensitive drops rows whose fields do not contain the search terms
// with exact case. The server matches case-insensitively, so this runs as a
// client-side second pass. Multiple terms from an All-scope search are
// alternatives (any may match); terms from distinct advanced fields must all
// match.
func RefineCaseSensitive(rows []models.Song, terms []Term) []models.Song {
	if len(terms) == 0 {
		return rows
	}

	matches := func(row models.Song, t Term) bool {
		var value string
		switch t.Field {
		case ScopeAnime:
			value = row.AnimeENName
			if value == "" {
				value = row.AnimeJPName
			}
		case ScopeArtist:
			value = row.SongArtist
		case ScopeSong:
			value = row.SongName
		case ScopeComposer:
			value = row.SongComposer
		default:
			return false
		}
		return strings.Contains(value, t.Term)
	}

	// Identical terms across every field means one query fanned out over the
	// All scope rather than distinct per-field constraints.
	anyMode := len(terms) > 1 && allSameTerm(terms)

	out := rows[:0:0]
	for _, row := range rows {
		keep := !anyMode
		for _, t := range terms {
			ok := matches(row, t)
			if anyMode && ok {
				keep = true
				break
			}
			if !anyMode && !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}

func allSameTerm(terms []Term) bool {
	for _, t := range terms[1:] {
		if t.Term != terms[0].Term {
			return false
		}
	}
	return true
}
