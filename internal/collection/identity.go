package collection

import (
	"fmt"

	"github.com/desertthunder/adbx/internal/models"
	"github.com/desertthunder/adbx/internal/shared"
)

// Handle is the synthetic identity assigned to a record at ingestion time.
// Handles increase monotonically within a session; re-ingesting an
// equal-looking record yields a new Handle.
type Handle uint64

// Arena associates handles with their records without mutating caller data.
// It is the only place a Handle can be minted, so a Handle that resolves is
// guaranteed to have gone through Assign.
type Arena struct {
	next    Handle
	records map[Handle]models.Song
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{records: make(map[Handle]models.Song)}
}

// Assign issues the next identity for a record and stores the association.
// The record itself is copied; the arena never aliases caller memory.
func (a *Arena) Assign(s models.Song) Handle {
	a.next++
	h := a.next
	a.records[h] = s
	return h
}

// Resolve returns the record previously assigned to h. Calling Resolve with
// a handle that was never assigned (or was dropped by Reset) is a
// consistency bug and fails loudly rather than returning a stale record.
func (a *Arena) Resolve(h Handle) (models.Song, error) {
	s, ok := a.records[h]
	if !ok {
		return models.Song{}, fmt.Errorf("%w: handle %d", shared.ErrUnknownRecord, h)
	}
	return s, nil
}

// Reset drops every association. The monotonic counter is deliberately not
// rewound, so handles from before the reset can never collide with new ones.
func (a *Arena) Reset() {
	a.records = make(map[Handle]models.Song)
}

// Len reports how many records the arena currently holds.
func (a *Arena) Len() int {
	return len(a.records)
}
