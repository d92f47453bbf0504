package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stjcampus/events-api/internal/models"
	appErrors "github.com/stjcampus/events-api/pkg/errors"
)

func newLedgerMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func ledgerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "event_id", "user_id", "user_name", "user_email", "department", "participation_type", "team_data", "status", "registered_at"})
}

func TestRegistrationRepositoryListByEvent(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	rows := ledgerRows().
		AddRow("reg-1", "event-1", "user-1", "Asha", "asha@college.edu", "CS", models.ParticipationIndividual, nil, models.RegistrationStatusPending, time.Now())
	mock.ExpectQuery(`SELECT .+ FROM registrations WHERE event_id = \$1 ORDER BY registered_at`).
		WithArgs("event-1").
		WillReturnRows(rows)

	regs, err := repo.ListByEvent(context.Background(), "event-1")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "user-1", regs[0].UserID)
	assert.Nil(t, regs[0].Team)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreateWithGuardAdmits(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs("event-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM registrations WHERE event_id = \$1 ORDER BY registered_at`).
		WithArgs("event-1").
		WillReturnRows(ledgerRows())
	mock.ExpectExec(`INSERT INTO registrations`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	var guarded []models.Registration
	reg := &models.Registration{
		EventID:           "event-1",
		UserID:            "user-1",
		UserName:          "Asha",
		UserEmail:         "asha@college.edu",
		Department:        "CS",
		ParticipationType: models.ParticipationIndividual,
	}
	err := repo.CreateWithGuard(context.Background(), reg, func(existing []models.Registration) error {
		guarded = existing
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, guarded)
	assert.NotEmpty(t, reg.ID)
	assert.Equal(t, models.RegistrationStatusPending, reg.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreateWithGuardRejects(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs("event-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM registrations WHERE event_id = \$1 ORDER BY registered_at`).
		WithArgs("event-1").
		WillReturnRows(ledgerRows().
			AddRow("reg-1", "event-1", "user-1", "Asha", "asha@college.edu", "CS", models.ParticipationIndividual, nil, models.RegistrationStatusPending, time.Now()))
	mock.ExpectRollback()

	reg := &models.Registration{EventID: "event-1", UserID: "user-1", ParticipationType: models.ParticipationIndividual}
	err := repo.CreateWithGuard(context.Background(), reg, func(existing []models.Registration) error {
		require.Len(t, existing, 1)
		return appErrors.ErrAlreadyRegistered
	})
	require.ErrorIs(t, err, appErrors.ErrAlreadyRegistered)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryUpdateStatusOnlyPending(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(`UPDATE registrations SET status = \$2 WHERE id = \$1 AND status = \$3`).
		WithArgs("reg-1", models.RegistrationStatusConfirmed, models.RegistrationStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "reg-1", models.RegistrationStatusConfirmed)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
