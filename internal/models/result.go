package models

import "time"

// ResultEntry is one announced winner position for an event.
type ResultEntry struct {
	ID             string    `db:"id" json:"id"`
	EventID        string    `db:"event_id" json:"event_id"`
	Position       int       `db:"position" json:"position"`
	RegistrationID string    `db:"registration_id" json:"registration_id"`
	Title          string    `db:"title" json:"title"`
	AnnouncedBy    string    `db:"announced_by" json:"announced_by"`
	AnnouncedAt    time.Time `db:"announced_at" json:"announced_at"`
}

// ResultDetail extends a result entry with registrant metadata.
type ResultDetail struct {
	ResultEntry
	UserName   string `db:"user_name" json:"user_name"`
	Department string `db:"department" json:"department"`
}
