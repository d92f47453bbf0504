package models

// DashboardSummary aggregates campus-wide counters for the admin view.
type DashboardSummary struct {
	TotalPrograms       int `json:"total_programs"`
	TotalEvents         int `json:"total_events"`
	PendingEvents       int `json:"pending_events"`
	UpcomingEvents      int `json:"upcoming_events"`
	TotalRegistrations  int `json:"total_registrations"`
	TotalUsers          int `json:"total_users"`
	TotalStudents       int `json:"total_students"`
	TotalTeachers       int `json:"total_teachers"`
	PendingAttendance   int `json:"pending_attendance"`
	ApprovedAttendance  int `json:"approved_attendance"`
	AnnouncedResultSets int `json:"announced_result_sets"`
	ActiveNotifications int `json:"active_notifications"`
}
