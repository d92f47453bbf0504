package models

import "time"

// AttendanceStatus represents the review state of an attendance record.
type AttendanceStatus string

const (
	AttendanceStatusPending  AttendanceStatus = "PENDING"
	AttendanceStatusApproved AttendanceStatus = "APPROVED"
	AttendanceStatusRejected AttendanceStatus = "REJECTED"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPending, AttendanceStatusApproved, AttendanceStatusRejected:
		return true
	default:
		return false
	}
}

// AttendanceRecord is created when a user marks geofenced attendance at
// an event. Status is mutated only by the event's incharge teacher.
type AttendanceRecord struct {
	ID          string           `db:"id" json:"id"`
	EventID     string           `db:"event_id" json:"event_id"`
	UserID      string           `db:"user_id" json:"user_id"`
	Status      AttendanceStatus `db:"status" json:"status"`
	Latitude    float64          `db:"latitude" json:"latitude"`
	Longitude   float64          `db:"longitude" json:"longitude"`
	SubmittedAt time.Time        `db:"submitted_at" json:"submitted_at"`
	ReviewedBy  *string          `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

// AttendanceDetail extends the record with user metadata for review lists.
type AttendanceDetail struct {
	AttendanceRecord
	UserName       string `db:"user_name" json:"user_name"`
	RegisterNumber string `db:"register_number" json:"register_number"`
	Department     string `db:"department" json:"department"`
}

// AttendanceFilter scopes attendance listing queries.
type AttendanceFilter struct {
	EventID  string
	UserID   string
	Status   *AttendanceStatus
	Page     int
	PageSize int
}
