package events

// Event names published across the application.
const (
	SongRemove        = "song:remove"
	TableSort         = "table:sort"
	TableShuffle      = "table:shuffle"
	TableReverse      = "table:reverse"
	TableClear        = "table:clear"
	TableReordered    = "table:reordered"
	TableFilterApply  = "table:client-filter-apply"
	SearchSubmit      = "search:submit"
	LinkCheckProgress = "linkcheck:progress"
	LinkCheckDone     = "linkcheck:done"
	RebuildProgress   = "rebuild:progress"
	RebuildDone       = "rebuild:done"
)

// ReorderPayload carries the full identity order after a manual reorder.
type ReorderPayload struct {
	Order []uint64
}

// SortPayload carries the column a sort was requested for.
type SortPayload struct {
	Column string
}

// FilterPayload mirrors the client-filter controls.
type FilterPayload struct {
	Action    string `json:"action"` // "keep" | "remove"
	Field     string `json:"field"`
	Query     string `json:"query"`
	Partial   bool   `json:"partial"`
	MatchCase bool   `json:"match_case"`
}

// ProgressPayload reports bulk-operation progress.
type ProgressPayload struct {
	Processed int
	Total     int
}

// DonePayload reports a bulk operation's final counts.
type DonePayload struct {
	Processed    int
	Total        int
	Failed       int
	StoppedEarly bool
}
