package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stjcampus/events-api/internal/models"
	appErrors "github.com/stjcampus/events-api/pkg/errors"
)

type mockEventRepo struct {
	events    map[string]*models.Event
	incharges map[string]bool // eventID+userID
	created   []*models.Event
	updated   []*models.Event
	statuses  map[string]models.EventStatus
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{
		events:    make(map[string]*models.Event),
		incharges: make(map[string]bool),
		statuses:  make(map[string]models.EventStatus),
	}
}

func (m *mockEventRepo) List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, int, error) {
	return nil, 0, nil
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if event, ok := m.events[id]; ok {
		copied := *event
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEventRepo) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = "event-1"
	}
	m.created = append(m.created, event)
	stored := *event
	m.events[event.ID] = &stored
	return nil
}

func (m *mockEventRepo) Update(ctx context.Context, event *models.Event) error {
	m.updated = append(m.updated, event)
	stored := *event
	m.events[event.ID] = &stored
	return nil
}

func (m *mockEventRepo) UpdateStatus(ctx context.Context, id string, status models.EventStatus) error {
	event, ok := m.events[id]
	if !ok {
		return sql.ErrNoRows
	}
	event.Status = status
	m.statuses[id] = status
	return nil
}

func (m *mockEventRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.events[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.events, id)
	return nil
}

func (m *mockEventRepo) IsIncharge(ctx context.Context, eventID, userID string) (bool, error) {
	return m.incharges[eventID+userID], nil
}

type mockProgramReader struct {
	programs map[string]*models.Program
}

func (m *mockProgramReader) FindByID(ctx context.Context, id string) (*models.Program, error) {
	if program, ok := m.programs[id]; ok {
		return program, nil
	}
	return nil, sql.ErrNoRows
}

type mockRegistrationCounter struct {
	counts map[string]int
}

func (m *mockRegistrationCounter) CountByEvent(ctx context.Context, eventID string) (int, error) {
	return m.counts[eventID], nil
}

type mockAuditSink struct {
	logs []*models.AuditLog
}

func (m *mockAuditSink) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func validEventRequest() SaveEventRequest {
	return SaveEventRequest{
		ProgramID:         "program-1",
		Title:             "Paper Presentation",
		Date:              time.Now().AddDate(0, 0, 14),
		ParticipationType: models.ParticipationIndividual,
	}
}

func newTestEventService(repo *mockEventRepo, counter *mockRegistrationCounter) (*EventService, *mockAuditSink) {
	programs := &mockProgramReader{programs: map[string]*models.Program{
		"program-1": {ID: "program-1", Name: "Tech Fest", Active: true},
	}}
	if counter == nil {
		counter = &mockRegistrationCounter{counts: map[string]int{}}
	}
	audit := &mockAuditSink{}
	return NewEventService(repo, programs, counter, audit, nil, nil), audit
}

func TestCreateEventStatusByRole(t *testing.T) {
	cases := []struct {
		name string
		role models.UserRole
		want models.EventStatus
	}{
		{"teacher events await approval", models.RoleTeacher, models.EventStatusPending},
		{"admin events are approved immediately", models.RoleAdmin, models.EventStatusApproved},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMockEventRepo()
			svc, _ := newTestEventService(repo, nil)

			event, err := svc.Create(context.Background(), validEventRequest(), "actor-1", tc.role)

			require.NoError(t, err)
			assert.Equal(t, tc.want, event.Status)
			assert.Equal(t, "actor-1", event.CreatedBy)
		})
	}
}

func TestCreateEventRejectsMixedLimits(t *testing.T) {
	repo := newMockEventRepo()
	svc, _ := newTestEventService(repo, nil)

	req := validEventRequest()
	req.ParticipationType = models.ParticipationTeam
	req.OverallIndividualLimit = intPtr(10)
	req.MembersPerTeam = 3

	_, err := svc.Create(context.Background(), req, "actor-1", models.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestCreateTeamEventRequiresRosterSize(t *testing.T) {
	repo := newMockEventRepo()
	svc, _ := newTestEventService(repo, nil)

	req := validEventRequest()
	req.ParticipationType = models.ParticipationTeam

	_, err := svc.Create(context.Background(), req, "actor-1", models.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateEventFreezesParticipationType(t *testing.T) {
	repo := newMockEventRepo()
	counter := &mockRegistrationCounter{counts: map[string]int{"event-1": 3}}
	svc, _ := newTestEventService(repo, counter)

	_, err := svc.Create(context.Background(), validEventRequest(), "admin-1", models.RoleAdmin)
	require.NoError(t, err)

	req := validEventRequest()
	req.ParticipationType = models.ParticipationTeam
	req.MembersPerTeam = 2

	_, err = svc.Update(context.Background(), "event-1", req, "admin-1", models.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUpdateEventForbiddenForUnrelatedTeacher(t *testing.T) {
	repo := newMockEventRepo()
	svc, _ := newTestEventService(repo, nil)

	_, err := svc.Create(context.Background(), validEventRequest(), "teacher-1", models.RoleTeacher)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "event-1", validEventRequest(), "teacher-2", models.RoleTeacher)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// The incharge may update even without having created the event.
	repo.incharges["event-1"+"teacher-3"] = true
	_, err = svc.Update(context.Background(), "event-1", validEventRequest(), "teacher-3", models.RoleTeacher)
	require.NoError(t, err)
}

func TestApproveEventIsIdempotent(t *testing.T) {
	repo := newMockEventRepo()
	svc, _ := newTestEventService(repo, nil)

	_, err := svc.Create(context.Background(), validEventRequest(), "teacher-1", models.RoleTeacher)
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), "event-1")
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusApproved, approved.Status)

	again, err := svc.Approve(context.Background(), "event-1")
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusApproved, again.Status)
}

func TestDeleteEventWritesAudit(t *testing.T) {
	repo := newMockEventRepo()
	svc, audit := newTestEventService(repo, nil)

	_, err := svc.Create(context.Background(), validEventRequest(), "admin-1", models.RoleAdmin)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "event-1", "admin-1", models.LoginRequest{IP: "10.0.0.1"})
	require.NoError(t, err)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionEventDelete, audit.logs[0].Action)
}
