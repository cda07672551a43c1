package state

// Slice paths used across the application.
const (
	PathSettings          = "settings"
	PathSettingsTheme     = "settings.theme"
	PathSettingsLanguage  = "settings.language"
	PathSettingsFileHost  = "settings.fileHost"
	PathSettingsSearch    = "settings.searchMode"
	PathAudioVolume       = "audio.volume"
	PathUICurrentView     = "ui.currentView"
	PathUIResultMode      = "ui.resultMode"
	PathTableSortColumn   = "table.sort.column"
	PathTableSortDir      = "table.sort.dir"
	PathTableManualOrder  = "table.manualOrderActive"
	PathSongsVisibleCount = "songs.visibleCount"
	PathSongsRawCount     = "songs.rawCount"
	PathSongsVisibleOrder = "songs.visibleOrder"
)

// DurablePaths is the subset of the tree persisted after every update:
// settings, audio volume, UI view/result mode, and sort/manual-order state.
var DurablePaths = []string{
	PathSettings,
	PathAudioVolume,
	PathUICurrentView,
	PathUIResultMode,
	PathTableSortColumn,
	PathTableSortDir,
	PathTableManualOrder,
}

// DefaultTree returns the initial state tree for a fresh session.
func DefaultTree() map[string]any {
	return map[string]any{
		"songs": map[string]any{
			"rawCount":     0,
			"visibleCount": 0,
			"visibleOrder": []uint64(nil),
		},
		"table": map[string]any{
			"sort": map[string]any{
				"column": "",
				"dir":    "",
			},
			"manualOrderActive": false,
		},
		"ui": map[string]any{
			"currentView": "table",
			"resultMode":  "new",
		},
		"audio": map[string]any{
			"volume": 1.0,
		},
		"settings": map[string]any{
			"theme":      "dark",
			"fileHost":   "nawdist",
			"language":   "english",
			"searchMode": "simple",
		},
	}
}
