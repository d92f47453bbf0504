package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/stjcampus/events-api/internal/models"
)

// ResultRepository persists announced event results.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs the repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Replace atomically swaps the announced result set for an event.
func (r *ResultRepository) Replace(ctx context.Context, eventID string, entries []models.ResultEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace results: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM event_results WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("clear event results: %w", err)
	}

	const insert = `INSERT INTO event_results (id, event_id, position, registration_id, title, announced_by, announced_at)
VALUES (:id, :event_id, :position, :registration_id, :title, :announced_by, :announced_at)`
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		entries[i].EventID = eventID
		if entries[i].AnnouncedAt.IsZero() {
			entries[i].AnnouncedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, insert, entries[i]); err != nil {
			return fmt.Errorf("insert event result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace results: %w", err)
	}
	return nil
}

// ListByEvent returns announced results with registrant metadata.
func (r *ResultRepository) ListByEvent(ctx context.Context, eventID string) ([]models.ResultDetail, error) {
	const query = `SELECT res.id, res.event_id, res.position, res.registration_id, res.title, res.announced_by, res.announced_at,
reg.user_name, reg.department
FROM event_results res
JOIN registrations reg ON reg.id = res.registration_id
WHERE res.event_id = $1 ORDER BY res.position`
	var results []models.ResultDetail
	if err := r.db.SelectContext(ctx, &results, query, eventID); err != nil {
		return nil, fmt.Errorf("list event results: %w", err)
	}
	return results, nil
}

// HasResults reports whether an event already has an announced set.
func (r *ResultRepository) HasResults(ctx context.Context, eventID string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM event_results WHERE event_id = $1`, eventID); err != nil {
		return false, fmt.Errorf("check event results: %w", err)
	}
	return count > 0, nil
}

// CountAnnouncedEvents returns how many events have announced results.
func (r *ResultRepository) CountAnnouncedEvents(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(DISTINCT event_id) FROM event_results`); err != nil {
		return 0, fmt.Errorf("count announced events: %w", err)
	}
	return total, nil
}
