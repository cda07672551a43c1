package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidIDList   = fmt.Errorf("invalid id list")
	ErrEmptySearch     = fmt.Errorf("empty search term")

	// API and transport errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Collection errors
	ErrUnknownRecord  = fmt.Errorf("record was never ingested")
	ErrUnknownColumn  = fmt.Errorf("unknown sort column")
	ErrUnknownField   = fmt.Errorf("unknown filter field")
	ErrRunInProgress  = fmt.Errorf("a bulk operation is already running")
	ErrEmptySelection = fmt.Errorf("no rows selected")

	// Playlist errors
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrPlaylistEmpty    = fmt.Errorf("playlist is empty")
)
