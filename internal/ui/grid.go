package ui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/table"

	"github.com/desertthunder/adbx/internal/collection"
	"github.com/desertthunder/adbx/internal/formatter"
	"github.com/desertthunder/adbx/internal/models"
)

// sortKeys maps the number row onto sortable grid columns.
var sortKeys = map[string]string{
	"1": collection.ColumnAnnID,
	"2": collection.ColumnAnime,
	"3": collection.ColumnType,
	"4": collection.ColumnSong,
	"5": collection.ColumnArtist,
	"6": collection.ColumnVintage,
	"7": collection.ColumnDifficulty,
}

func gridColumns(width int) []table.Column {
	// Fixed widths for the narrow columns; the three text columns share the rest.
	fixed := 6 + 10 + 9 + 5 + 4
	text := width - fixed
	if text < 30 {
		text = 30
	}
	return []table.Column{
		{Title: "ANN", Width: 6},
		{Title: "Anime", Width: text * 2 / 5},
		{Title: "Type", Width: 10},
		{Title: "Song", Width: text * 3 / 10},
		{Title: "Artist", Width: text * 3 / 10},
		{Title: "Vintage", Width: 9},
		{Title: "Diff", Width: 5},
	}
}

func gridRows(songs []models.Song, romaji bool) []table.Row {
	rows := make([]table.Row, 0, len(songs))
	for _, s := range songs {
		diff := ""
		if s.SongDifficulty != nil {
			diff = strconv.FormatFloat(*s.SongDifficulty, 'f', 1, 64)
		}
		rows = append(rows, table.Row{
			strconv.Itoa(s.AnnID),
			s.AnimeTitle(romaji),
			s.SongType,
			s.SongName,
			s.SongArtist,
			s.AnimeVintage,
			diff,
		})
	}
	return rows
}

// detailLines renders one row's full record for the detail view.
func detailLines(s models.Song, romaji bool) [][2]string {
	lines := [][2]string{
		{"Anime", s.AnimeTitle(romaji)},
		{"Type", s.SongType},
		{"Song", s.SongName},
		{"Artist", s.SongArtist},
		{"Composer", s.SongComposer},
		{"Arranger", s.SongArranger},
		{"Vintage", s.AnimeVintage},
		{"Category", s.SongCategory},
		{"Broadcast", s.BroadcastText()},
		{"Length", formatter.FormatLength(s.SongLength)},
		{"ANN ID", strconv.Itoa(s.AnnID)},
		{"ANN Song ID", strconv.Itoa(s.AnnSongID)},
	}
	if s.AmqSongID != nil {
		lines = append(lines, [2]string{"AMQ Song ID", strconv.Itoa(*s.AmqSongID)})
	}
	if ids := s.LinkedIDs; ids != nil {
		if ids.Anilist != nil {
			lines = append(lines, [2]string{"AniList", strconv.Itoa(*ids.Anilist)})
		}
		if ids.MyAnimeList != nil {
			lines = append(lines, [2]string{"MAL", strconv.Itoa(*ids.MyAnimeList)})
		}
		if ids.Kitsu != nil {
			lines = append(lines, [2]string{"Kitsu", strconv.Itoa(*ids.Kitsu)})
		}
		if ids.AniDB != nil {
			lines = append(lines, [2]string{"AniDB", strconv.Itoa(*ids.AniDB)})
		}
	}
	return lines
}
