package models

import (
	"math"
	"testing"
)

func TestSongNaturalKey(t *testing.T) {
	s := Song{AnnID: 100, AnnSongID: 1000}
	if got := s.NaturalKey(); got != "100-1000" {
		t.Errorf("NaturalKey = %q, want 100-1000", got)
	}
}

func TestSongAnimeTitle(t *testing.T) {
	tc := []struct {
		name   string
		song   Song
		romaji bool
		want   string
	}{
		{"english preferred", Song{AnimeENName: "Attack on Titan", AnimeJPName: "Shingeki no Kyojin"}, false, "Attack on Titan"},
		{"romaji preferred", Song{AnimeENName: "Attack on Titan", AnimeJPName: "Shingeki no Kyojin"}, true, "Shingeki no Kyojin"},
		{"english fallback", Song{AnimeENName: "Attack on Titan"}, true, "Attack on Titan"},
		{"romaji fallback", Song{AnimeJPName: "Shingeki no Kyojin"}, false, "Shingeki no Kyojin"},
		{"both missing", Song{}, false, ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.song.AnimeTitle(tt.romaji); got != tt.want {
				t.Errorf("AnimeTitle(%v) = %q, want %q", tt.romaji, got, tt.want)
			}
		})
	}
}

func TestSongMissingNumericsSink(t *testing.T) {
	var s Song
	if !math.IsInf(s.Difficulty(), 1) {
		t.Errorf("Difficulty = %v, want +Inf", s.Difficulty())
	}
	if !math.IsInf(s.Length(), 1) {
		t.Errorf("Length = %v, want +Inf", s.Length())
	}

	d, l := 55.0, 90.0
	s = Song{SongDifficulty: &d, SongLength: &l}
	if s.Difficulty() != 55 || s.Length() != 90 {
		t.Errorf("Difficulty/Length = %v/%v", s.Difficulty(), s.Length())
	}
}

func TestSongBroadcast(t *testing.T) {
	tc := []struct {
		name       string
		dub, rebro bool
		wantText   string
		wantWeight int
	}{
		{"normal", false, false, "Normal", 0},
		{"dub", true, false, "Dub", 1},
		{"rebroadcast", false, true, "Rebroadcast", 2},
		{"both", true, true, "Dub/Rebroadcast", 3},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			s := Song{IsDub: tt.dub, IsRebroadcast: tt.rebro}
			if got := s.BroadcastText(); got != tt.wantText {
				t.Errorf("BroadcastText = %q, want %q", got, tt.wantText)
			}
			if got := s.BroadcastWeight(); got != tt.wantWeight {
				t.Errorf("BroadcastWeight = %d, want %d", got, tt.wantWeight)
			}
		})
	}
}
