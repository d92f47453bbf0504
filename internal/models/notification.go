package models

import "time"

// NotificationAudience defines who receives a notification.
type NotificationAudience string

const (
	NotificationAudienceAll        NotificationAudience = "ALL"
	NotificationAudienceDepartment NotificationAudience = "DEPARTMENT"
	NotificationAudienceUsers      NotificationAudience = "USERS"
)

// Valid returns true when the audience is a supported value.
func (a NotificationAudience) Valid() bool {
	switch a {
	case NotificationAudienceAll, NotificationAudienceDepartment, NotificationAudienceUsers:
		return true
	default:
		return false
	}
}

// Notification is a broadcast or targeted mailbox message.
type Notification struct {
	ID               string               `db:"id" json:"id"`
	Title            string               `db:"title" json:"title"`
	Content          string               `db:"content" json:"content"`
	Audience         NotificationAudience `db:"audience" json:"audience"`
	TargetDepartment *string              `db:"target_department" json:"target_department,omitempty"`
	EventID          *string              `db:"event_id" json:"event_id,omitempty"`
	CreatedBy        string               `db:"created_by" json:"created_by"`
	CreatedAt        time.Time            `db:"created_at" json:"created_at"`
}

// NotificationDetail extends a notification with sender metadata.
type NotificationDetail struct {
	Notification
	SenderName string `db:"sender_name" json:"sender_name"`
	ReplyCount int    `db:"reply_count" json:"reply_count"`
}

// NotificationReply is one threaded reply under a notification.
type NotificationReply struct {
	ID             string    `db:"id" json:"id"`
	NotificationID string    `db:"notification_id" json:"notification_id"`
	UserID         string    `db:"user_id" json:"user_id"`
	UserName       string    `db:"user_name" json:"user_name"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// NotificationFilter scopes inbox queries for one user.
type NotificationFilter struct {
	UserID     string
	Department string
	Page       int
	PageSize   int
}
