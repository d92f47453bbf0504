package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/stjcampus/events-api/internal/models"
)

const registrationColumns = `id, event_id, user_id, user_name, user_email, department, participation_type, team_data, status, registered_at`

// RegistrationRepository is the append-only registration ledger. Rows
// are only ever inserted, confirmed, or removed by an event-delete
// cascade.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// ListByEvent returns the full ledger snapshot for one event.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations WHERE event_id = $1 ORDER BY registered_at`, registrationColumns)
	var regs []models.Registration
	if err := r.db.SelectContext(ctx, &regs, query, eventID); err != nil {
		return nil, fmt.Errorf("list registrations for event: %w", err)
	}
	return regs, nil
}

// ListByUser returns a user's registrations with event metadata.
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID string) ([]models.RegistrationDetail, error) {
	const query = `SELECT r.id, r.event_id, r.user_id, r.user_name, r.user_email, r.department, r.participation_type, r.team_data, r.status, r.registered_at,
e.title AS event_title, e.date AS event_date
FROM registrations r
JOIN events e ON e.id = r.event_id
WHERE r.user_id = $1 ORDER BY r.registered_at DESC`
	var regs []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &regs, query, userID); err != nil {
		return nil, fmt.Errorf("list registrations for user: %w", err)
	}
	return regs, nil
}

// FindByID returns a single ledger row.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations WHERE id = $1`, registrationColumns)
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find registration by id: %w", err)
	}
	return &reg, nil
}

// CreateWithGuard appends a ledger row inside a transaction that holds
// a per-event advisory lock. The guard re-evaluates eligibility against
// the locked snapshot so that two concurrent requests at a capacity
// boundary cannot both be admitted. A guard error aborts the insert and
// is returned unchanged.
func (r *RegistrationRepository) CreateWithGuard(ctx context.Context, reg *models.Registration, guard func(existing []models.Registration) error) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now().UTC()
	}
	if reg.Status == "" {
		reg.Status = models.RegistrationStatusPending
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, reg.EventID); err != nil {
		return fmt.Errorf("lock event ledger: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM registrations WHERE event_id = $1 ORDER BY registered_at`, registrationColumns)
	var existing []models.Registration
	if err := tx.SelectContext(ctx, &existing, query, reg.EventID); err != nil {
		return fmt.Errorf("snapshot event ledger: %w", err)
	}

	if err := guard(existing); err != nil {
		return err
	}

	const insert = `INSERT INTO registrations (id, event_id, user_id, user_name, user_email, department, participation_type, team_data, status, registered_at)
VALUES (:id, :event_id, :user_id, :user_name, :user_email, :department, :participation_type, :team_data, :status, :registered_at)`
	if _, err := tx.NamedExecContext(ctx, insert, reg); err != nil {
		return fmt.Errorf("append registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}
	return nil
}

// UpdateStatus moves a row from pending to confirmed. No other status
// transition is permitted by the ledger.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error {
	const query = `UPDATE registrations SET status = $2 WHERE id = $1 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, id, status, models.RegistrationStatusPending)
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByEvent returns the number of ledger rows for one event.
func (r *RegistrationRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID); err != nil {
		return 0, fmt.Errorf("count registrations for event: %w", err)
	}
	return total, nil
}

// Count returns the total number of ledger rows.
func (r *RegistrationRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM registrations`); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return total, nil
}
