package collection

import (
	"errors"
	"testing"

	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/shared"
)

func fptr(v float64) *float64 { return &v }

func TestFilterTextMatcher(t *testing.T) {
	song := models.Song{AnimeENName: "Cowboy Bebop", SongArtist: "The Seatbelts"}

	tc := []struct {
		name string
		spec FilterSpec
		want bool
	}{
		{"partial case-insensitive hit", FilterSpec{Field: FieldAnime, Query: "bebop", Partial: true, Action: FilterKeep}, true},
		{"partial case-sensitive miss", FilterSpec{Field: FieldAnime, Query: "bebop", Partial: true, CaseSensitive: true, Action: FilterKeep}, false},
		{"partial case-sensitive hit", FilterSpec{Field: FieldAnime, Query: "Bebop", Partial: true, CaseSensitive: true, Action: FilterKeep}, true},
		{"exact miss on substring", FilterSpec{Field: FieldAnime, Query: "Bebop", Action: FilterKeep}, false},
		{"exact hit", FilterSpec{Field: FieldAnime, Query: "cowboy bebop", Action: FilterKeep}, true},
		{"artist field", FilterSpec{Field: FieldArtist, Query: "seatbelts", Partial: true, Action: FilterKeep}, true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			match, err := tt.spec.matcher()
			if err != nil {
				t.Fatalf("matcher failed: %v", err)
			}
			if got := match(song); got != tt.want {
				t.Errorf("match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterAnimeFallsBackToJapanese(t *testing.T) {
	spec := FilterSpec{Field: FieldAnime, Query: "shingeki", Partial: true, Action: FilterKeep}
	match, err := spec.matcher()
	if err != nil {
		t.Fatal(err)
	}
	if !match(models.Song{AnimeJPName: "Shingeki no Kyojin"}) {
		t.Error("JP title not matched when EN title is empty")
	}
	if match(models.Song{AnimeENName: "Attack on Titan", AnimeJPName: "Shingeki no Kyojin"}) {
		t.Error("JP title matched although EN title is present")
	}
}

func TestFilterVintageMatcher(t *testing.T) {
	tc := []struct {
		name    string
		query   string
		vintage string
		want    bool
	}{
		{"bare year hit", "1998", "Spring 1998", true},
		{"bare year miss", "1998", "Fall 1999", false},
		{"bare year malformed vintage", "1998", "unknown", false},
		{"range hit low edge", "1995-1998", "Winter 1995", true},
		{"range hit high edge", "1995-1998", "Fall 1998", true},
		{"range miss", "1995-1998", "Spring 2001", false},
		{"substring fallback", "spri", "Spring 2004", true},
		{"substring fallback miss", "winter", "Spring 2004", false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			spec := FilterSpec{Field: FieldVintage, Query: tt.query, Action: FilterKeep}
			match, err := spec.matcher()
			if err != nil {
				t.Fatalf("matcher failed: %v", err)
			}
			if got := match(models.Song{AnimeVintage: tt.vintage}); got != tt.want {
				t.Errorf("match(%q against %q) = %v, want %v", tt.query, tt.vintage, got, tt.want)
			}
		})
	}
}

func TestFilterTypeMatcherCanonicalizes(t *testing.T) {
	spec := FilterSpec{Field: FieldType, Query: "Opening", Action: FilterKeep}
	match, err := spec.matcher()
	if err != nil {
		t.Fatal(err)
	}
	if !match(models.Song{SongType: "Opening 3"}) {
		t.Error("Opening 3 should canonicalize to OP")
	}
	if !match(models.Song{SongType: "OP1"}) {
		t.Error("OP1 should canonicalize to OP")
	}
	if match(models.Song{SongType: "Ending 1"}) {
		t.Error("Ending 1 should not match OP")
	}
}

func TestFilterNumericRangeMatcher(t *testing.T) {
	tc := []struct {
		name       string
		query      string
		difficulty *float64
		want       bool
		wantErr    bool
	}{
		{"single value hit", "42.5", fptr(42.5), true, false},
		{"single value miss", "42.5", fptr(50), false, false},
		{"range hit", "20-60", fptr(42.5), true, false},
		{"range inclusive edges", "42.5-42.5", fptr(42.5), true, false},
		{"range miss", "20-40", fptr(42.5), false, false},
		{"missing value never matches", "0-100", nil, false, false},
		{"descending range", "60-20", nil, false, true},
		{"non numeric", "hard", nil, false, true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			spec := FilterSpec{Field: FieldDifficulty, Query: tt.query, Action: FilterKeep}
			match, err := spec.matcher()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected compile error")
				}
				return
			}
			if err != nil {
				t.Fatalf("matcher failed: %v", err)
			}
			got := match(models.Song{SongDifficulty: tt.difficulty})
			if got != tt.want {
				t.Errorf("match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterAnnIDMatcher(t *testing.T) {
	spec := FilterSpec{Field: FieldAnnID, Query: "100,200-202", Action: FilterKeep}
	match, err := spec.matcher()
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []int{100, 200, 201, 202} {
		if !match(models.Song{AnnID: id}) {
			t.Errorf("id %d should match", id)
		}
	}
	if match(models.Song{AnnID: 199}) {
		t.Error("id 199 should not match")
	}
}

func TestFilterSpecValidation(t *testing.T) {
	tc := []struct {
		name string
		spec FilterSpec
		want error
	}{
		{"bad action", FilterSpec{Field: FieldSong, Query: "x", Action: "purge"}, shared.ErrInvalidArgument},
		{"empty query", FilterSpec{Field: FieldSong, Query: "  ", Action: FilterKeep}, shared.ErrEmptySearch},
		{"unknown field", FilterSpec{Field: "bpm", Query: "120", Action: FilterKeep}, shared.ErrUnknownField},
		{"bad id list", FilterSpec{Field: FieldAnnID, Query: "9-1", Action: FilterKeep}, shared.ErrInvalidIDList},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.spec.matcher(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}
