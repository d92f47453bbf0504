package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RegistrationStatus is the lifecycle of a ledger row. Rows move only
// from pending to confirmed and are never deleted outside an admin
// event-delete cascade.
type RegistrationStatus string

const (
	RegistrationStatusPending   RegistrationStatus = "PENDING"
	RegistrationStatusConfirmed RegistrationStatus = "CONFIRMED"
)

// TeamMember is one roster slot of a team registration.
type TeamMember struct {
	Name  string `json:"name"`
	RegNo string `json:"regNo"`
}

// TeamData is the embedded roster of a team registration. The first
// member is the captain, who is also the registering user.
type TeamData struct {
	Department string       `json:"department"`
	Semester   string       `json:"semester,omitempty"`
	Members    []TeamMember `json:"members"`
}

// Value marshals team data to JSON for JSONB persistence.
func (t TeamData) Value() (driver.Value, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal team data: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload into team data.
func (t *TeamData) Scan(value interface{}) error {
	if value == nil {
		*t = TeamData{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for TeamData", value)
	}
	if len(data) == 0 {
		*t = TeamData{}
		return nil
	}
	if err := json.Unmarshal(data, t); err != nil {
		return fmt.Errorf("unmarshal team data: %w", err)
	}
	return nil
}

// Registration is one row of the append-only registration ledger: a
// single signup for individual events, or one team with its embedded
// roster for team events.
type Registration struct {
	ID                string             `db:"id" json:"id"`
	EventID           string             `db:"event_id" json:"event_id"`
	UserID            string             `db:"user_id" json:"user_id"`
	UserName          string             `db:"user_name" json:"user_name"`
	UserEmail         string             `db:"user_email" json:"user_email"`
	Department        string             `db:"department" json:"department"`
	ParticipationType ParticipationType  `db:"participation_type" json:"participation_type"`
	Team              *TeamData          `db:"team_data" json:"team_data,omitempty"`
	Status            RegistrationStatus `db:"status" json:"status"`
	RegisteredAt      time.Time          `db:"registered_at" json:"registered_at"`
}

// RegistrationDetail extends a ledger row with event metadata.
type RegistrationDetail struct {
	Registration
	EventTitle string    `db:"event_title" json:"event_title"`
	EventDate  time.Time `db:"event_date" json:"event_date"`
}
