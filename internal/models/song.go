package models

import (
	"fmt"
	"math"
)

// LinkedIDs holds cross-catalog identifiers for a song's anime.
type LinkedIDs struct {
	Anilist     *int `json:"anilist,omitempty"`
	MyAnimeList *int `json:"myanimelist,omitempty"`
	Kitsu       *int `json:"kitsu,omitempty"`
	AniDB       *int `json:"anidb,omitempty"`
}

// Song is a single result row from AnisongDB.
//
// The pair (AnnID, AnnSongID) forms the row's natural key. Natural keys are
// not unique: merged catalogs and JSON imports can produce duplicate entries,
// which is why selection and removal run on synthetic identities instead.
type Song struct {
	AnnID          int        `json:"annId"`
	AnnSongID      int        `json:"annSongId"`
	AmqSongID      *int       `json:"amqSongId,omitempty"`
	AnimeENName    string     `json:"animeENName,omitempty"`
	AnimeJPName    string     `json:"animeJPName,omitempty"`
	AnimeType      string     `json:"animeType,omitempty"`
	AnimeCategory  string     `json:"animeCategory,omitempty"`
	AnimeVintage   string     `json:"animeVintage,omitempty"`
	SongType       string     `json:"songType,omitempty"`
	SongName       string     `json:"songName,omitempty"`
	SongArtist     string     `json:"songArtist,omitempty"`
	SongComposer   string     `json:"songComposer,omitempty"`
	SongArranger   string     `json:"songArranger,omitempty"`
	SongCategory   string     `json:"songCategory,omitempty"`
	SongDifficulty *float64   `json:"songDifficulty,omitempty"`
	SongLength     *float64   `json:"songLength,omitempty"`
	IsDub          bool       `json:"isDub,omitempty"`
	IsRebroadcast  bool       `json:"isRebroadcast,omitempty"`
	HQ             string     `json:"HQ,omitempty"`
	MQ             string     `json:"MQ,omitempty"`
	Audio          string     `json:"audio,omitempty"`
	LinkedIDs      *LinkedIDs `json:"linked_ids,omitempty"`
}

// NaturalKey returns the source-provided "annId-annSongId" pair as a display key.
// Not usable as a primary key; see package doc.
func (s Song) NaturalKey() string {
	return fmt.Sprintf("%d-%d", s.AnnID, s.AnnSongID)
}

// AnimeTitle returns the anime title for the given language preference,
// falling back to the other language when the preferred one is missing.
func (s Song) AnimeTitle(romaji bool) string {
	if romaji {
		if s.AnimeJPName != "" {
			return s.AnimeJPName
		}
		return s.AnimeENName
	}
	if s.AnimeENName != "" {
		return s.AnimeENName
	}
	return s.AnimeJPName
}

// Difficulty returns the song difficulty, or +Inf when missing so unsortable
// rows sink to the bottom of an ascending sort.
func (s Song) Difficulty() float64 {
	if s.SongDifficulty == nil {
		return math.Inf(1)
	}
	return *s.SongDifficulty
}

// Length returns the song length in seconds, or +Inf when missing.
func (s Song) Length() float64 {
	if s.SongLength == nil {
		return math.Inf(1)
	}
	return *s.SongLength
}

// BroadcastText renders the broadcast flags the way the results grid shows them.
func (s Song) BroadcastText() string {
	switch {
	case s.IsDub && s.IsRebroadcast:
		return "Dub/Rebroadcast"
	case s.IsDub:
		return "Dub"
	case s.IsRebroadcast:
		return "Rebroadcast"
	default:
		return "Normal"
	}
}

// BroadcastWeight orders broadcasts for canonical result sorting:
// Normal (0), Dub only (1), Rebroadcast only (2), both (3).
func (s Song) BroadcastWeight() int {
	w := 0
	if s.IsDub {
		w += 1
	}
	if s.IsRebroadcast {
		w += 2
	}
	return w
}
