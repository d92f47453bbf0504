package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/stjcampus/events-api/internal/models"
)

const eventColumns = `e.id, e.program_id, e.title, e.description, e.date, e.venue_name, e.venue_lat, e.venue_lng,
e.participation_type, e.overall_individual_limit, e.department_individual_limit, e.teams_per_department, e.members_per_team,
e.status, e.created_by, e.created_at, e.updated_at`

// EventRepository handles persistence of the event catalog.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns events with program metadata and registration counts.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, int, error) {
	base := `FROM events e
LEFT JOIN programs p ON p.id = e.program_id`
	var conditions []string
	var args []interface{}

	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("e.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.ParticipationType != "" {
		conditions = append(conditions, fmt.Sprintf("e.participation_type = $%d", len(args)+1))
		args = append(args, filter.ParticipationType)
	}
	if filter.UpcomingOnly {
		conditions = append(conditions, "e.date >= CURRENT_DATE")
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(e.title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"date":       "e.date",
		"title":      "e.title",
		"created_at": "e.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s, p.name AS program_name,
        (SELECT COUNT(*) FROM registrations reg WHERE reg.event_id = e.id) AS registration_count
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, eventColumns, base+clause, orderBy, order, size, offset)

	var events []models.EventDetail
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// FindByID returns an event by its identifier.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events e WHERE e.id = $1`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find event by id: %w", err)
	}
	incharges, err := r.ListIncharges(ctx, id)
	if err != nil {
		return nil, err
	}
	event.InchargeIDs = incharges
	return &event, nil
}

// Create inserts a new event row and its incharge assignments.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create event: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO events (id, program_id, title, description, date, venue_name, venue_lat, venue_lng,
participation_type, overall_individual_limit, department_individual_limit, teams_per_department, members_per_team,
status, created_by, created_at, updated_at)
VALUES (:id, :program_id, :title, :description, :date, :venue_name, :venue_lat, :venue_lng,
:participation_type, :overall_individual_limit, :department_individual_limit, :teams_per_department, :members_per_team,
:status, :created_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	for _, inchargeID := range event.InchargeIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO event_incharges (event_id, user_id) VALUES ($1, $2)`, event.ID, inchargeID); err != nil {
			return fmt.Errorf("assign event incharge: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create event: %w", err)
	}
	return nil
}

// Update updates mutable fields of an event and replaces its incharges.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update event: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE events SET title = :title, description = :description, date = :date, venue_name = :venue_name,
venue_lat = :venue_lat, venue_lng = :venue_lng, participation_type = :participation_type,
overall_individual_limit = :overall_individual_limit, department_individual_limit = :department_individual_limit,
teams_per_department = :teams_per_department, members_per_team = :members_per_team,
status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM event_incharges WHERE event_id = $1`, event.ID); err != nil {
		return fmt.Errorf("clear event incharges: %w", err)
	}
	for _, inchargeID := range event.InchargeIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO event_incharges (event_id, user_id) VALUES ($1, $2)`, event.ID, inchargeID); err != nil {
			return fmt.Errorf("assign event incharge: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update event: %w", err)
	}
	return nil
}

// UpdateStatus transitions the event approval state.
func (r *EventRepository) UpdateStatus(ctx context.Context, id string, status models.EventStatus) error {
	const query = `UPDATE events SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	return nil
}

// Delete removes an event; registrations, attendance, and results
// cascade at the database level.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM events WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// ListIncharges returns the teacher ids assigned to an event.
func (r *EventRepository) ListIncharges(ctx context.Context, eventID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM event_incharges WHERE event_id = $1 ORDER BY user_id`, eventID); err != nil {
		return nil, fmt.Errorf("list event incharges: %w", err)
	}
	return ids, nil
}

// IsIncharge reports whether the user is assigned to the event.
func (r *EventRepository) IsIncharge(ctx context.Context, eventID, userID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM event_incharges WHERE event_id = $1 AND user_id = $2 LIMIT 1`, eventID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check event incharge: %w", err)
	}
	return true, nil
}

// CountByStatus aggregates event totals per status for the dashboard.
func (r *EventRepository) CountByStatus(ctx context.Context) (map[models.EventStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS count FROM events GROUP BY status`
	rows := []struct {
		Status models.EventStatus `db:"status"`
		Count  int                `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count events by status: %w", err)
	}
	counts := make(map[models.EventStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountUpcoming returns approved events dated today or later.
func (r *EventRepository) CountUpcoming(ctx context.Context) (int, error) {
	var total int
	const query = `SELECT COUNT(*) FROM events WHERE status = $1 AND date >= CURRENT_DATE`
	if err := r.db.GetContext(ctx, &total, query, models.EventStatusApproved); err != nil {
		return 0, fmt.Errorf("count upcoming events: %w", err)
	}
	return total, nil
}
