package models

import "time"

// Playlist is a locally stored, named list of ANN song ids.
type Playlist struct {
	ID          string
	Sequence    int
	Name        string
	Description string
	AnnSongIDs  []int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks required fields before persistence.
func (p *Playlist) Validate() error {
	if p.ID == "" {
		return errEmptyField("id")
	}
	if p.Name == "" {
		return errEmptyField("name")
	}
	return nil
}

type errEmptyField string

func (e errEmptyField) Error() string { return "playlist " + string(e) + " must not be empty" }
