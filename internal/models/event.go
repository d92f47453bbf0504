package models

import "time"

// ParticipationType discriminates individual and team events. Each type
// carries only its relevant limit fields; the other fields stay nil.
type ParticipationType string

const (
	ParticipationIndividual ParticipationType = "individual"
	ParticipationTeam       ParticipationType = "team"
)

// Valid returns true when the participation type is supported.
func (p ParticipationType) Valid() bool {
	return p == ParticipationIndividual || p == ParticipationTeam
}

// EventStatus represents the approval workflow state of an event.
type EventStatus string

const (
	EventStatusPending  EventStatus = "PENDING"
	EventStatusApproved EventStatus = "APPROVED"
)

// Event represents a single registerable event within a program.
//
// Limit fields are nullable: nil means unlimited. MembersPerTeam is the
// fixed roster size for team events and is zero for individual events.
type Event struct {
	ID          string    `db:"id" json:"id"`
	ProgramID   string    `db:"program_id" json:"program_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Date        time.Time `db:"date" json:"date"`

	VenueName string   `db:"venue_name" json:"venue_name"`
	VenueLat  *float64 `db:"venue_lat" json:"venue_lat,omitempty"`
	VenueLng  *float64 `db:"venue_lng" json:"venue_lng,omitempty"`

	ParticipationType         ParticipationType `db:"participation_type" json:"participation_type"`
	OverallIndividualLimit    *int              `db:"overall_individual_limit" json:"overall_individual_limit,omitempty"`
	DepartmentIndividualLimit *int              `db:"department_individual_limit" json:"department_individual_limit,omitempty"`
	TeamsPerDepartment        *int              `db:"teams_per_department" json:"teams_per_department,omitempty"`
	MembersPerTeam            int               `db:"members_per_team" json:"members_per_team,omitempty"`

	Status    EventStatus `db:"status" json:"status"`
	CreatedBy string      `db:"created_by" json:"created_by"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`

	InchargeIDs []string `db:"-" json:"incharge_ids,omitempty"`
}

// HasVenueCoordinates reports whether geofenced attendance is possible.
func (e *Event) HasVenueCoordinates() bool {
	return e.VenueLat != nil && e.VenueLng != nil
}

// EventFilter scopes event listing queries.
type EventFilter struct {
	ProgramID         string
	Status            EventStatus
	ParticipationType ParticipationType
	UpcomingOnly      bool
	Search            string
	Page              int
	PageSize          int
	SortBy            string
	SortOrder         string
}

// EventDetail extends the event row with program metadata.
type EventDetail struct {
	Event
	ProgramName       string `db:"program_name" json:"program_name"`
	RegistrationCount int    `db:"registration_count" json:"registration_count"`
}
