package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stjcampus/events-api/internal/models"
	appErrors "github.com/stjcampus/events-api/pkg/errors"
)

// mockLedger serializes CreateWithGuard the way the database advisory
// lock does, so concurrent registrations see a consistent snapshot.
type mockLedger struct {
	mu        sync.Mutex
	rows      map[string][]models.Registration
	byID      map[string]models.Registration
	confirmed []string
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		rows: make(map[string][]models.Registration),
		byID: make(map[string]models.Registration),
	}
}

func (m *mockLedger) ListByEvent(ctx context.Context, eventID string) ([]models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Registration(nil), m.rows[eventID]...), nil
}

func (m *mockLedger) ListByUser(ctx context.Context, userID string) ([]models.RegistrationDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var details []models.RegistrationDetail
	for _, regs := range m.rows {
		for _, reg := range regs {
			if reg.UserID == userID {
				details = append(details, models.RegistrationDetail{Registration: reg})
			}
		}
	}
	return details, nil
}

func (m *mockLedger) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reg, ok := m.byID[id]; ok {
		return &reg, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLedger) CreateWithGuard(ctx context.Context, reg *models.Registration, guard func(existing []models.Registration) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := guard(append([]models.Registration(nil), m.rows[reg.EventID]...)); err != nil {
		return err
	}
	if reg.ID == "" {
		reg.ID = fmt.Sprintf("reg-%d", len(m.byID)+1)
	}
	if reg.Status == "" {
		reg.Status = models.RegistrationStatusPending
	}
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now().UTC()
	}
	m.rows[reg.EventID] = append(m.rows[reg.EventID], *reg)
	m.byID[reg.ID] = *reg
	return nil
}

func (m *mockLedger) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.byID[id]
	if !ok || reg.Status != models.RegistrationStatusPending {
		return sql.ErrNoRows
	}
	reg.Status = status
	m.byID[id] = reg
	m.confirmed = append(m.confirmed, id)
	return nil
}

type mockEventReader struct {
	events    map[string]*models.Event
	incharges map[string]bool // eventID+userID
}

func (m *mockEventReader) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if event, ok := m.events[id]; ok {
		copied := *event
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEventReader) IsIncharge(ctx context.Context, eventID, userID string) (bool, error) {
	return m.incharges[eventID+userID], nil
}

type mockUserReader struct {
	users map[string]*models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func approvedEvent(id string, limit *int) *models.Event {
	return &models.Event{
		ID:                     id,
		Title:                  "Debate",
		ParticipationType:      models.ParticipationIndividual,
		Date:                   time.Now().AddDate(0, 0, 7),
		Status:                 models.EventStatusApproved,
		OverallIndividualLimit: limit,
	}
}

func student(id, department string) *models.User {
	return &models.User{
		ID:         id,
		FullName:   "Student " + id,
		Email:      id + "@college.edu",
		Department: department,
		Role:       models.RoleStudent,
		Active:     true,
	}
}

func newTestRegistrationService(ledger *mockLedger, events *mockEventReader, users *mockUserReader) *RegistrationService {
	return NewRegistrationService(ledger, events, users, nil, nil, nil)
}

func TestRegisterAdmitsAndCopiesIdentity(t *testing.T) {
	ledger := newMockLedger()
	events := &mockEventReader{events: map[string]*models.Event{"event-1": approvedEvent("event-1", nil)}}
	users := &mockUserReader{users: map[string]*models.User{"user-1": student("user-1", "CS")}}
	svc := newTestRegistrationService(ledger, events, users)

	reg, err := svc.Register(context.Background(), "user-1", RegisterRequest{EventID: "event-1"})

	require.NoError(t, err)
	assert.Equal(t, "Student user-1", reg.UserName)
	assert.Equal(t, "CS", reg.Department)
	assert.Equal(t, models.RegistrationStatusPending, reg.Status)
	assert.NotEmpty(t, reg.ID)
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	ledger := newMockLedger()
	events := &mockEventReader{events: map[string]*models.Event{"event-1": approvedEvent("event-1", nil)}}
	users := &mockUserReader{users: map[string]*models.User{"user-1": student("user-1", "CS")}}
	svc := newTestRegistrationService(ledger, events, users)

	_, err := svc.Register(context.Background(), "user-1", RegisterRequest{EventID: "event-1"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "user-1", RegisterRequest{EventID: "event-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyRegistered.Code, appErr.Code)
}

func TestRegisterRequiresApprovedEvent(t *testing.T) {
	pending := approvedEvent("event-1", nil)
	pending.Status = models.EventStatusPending
	ledger := newMockLedger()
	events := &mockEventReader{events: map[string]*models.Event{"event-1": pending}}
	users := &mockUserReader{users: map[string]*models.User{"user-1": student("user-1", "CS")}}
	svc := newTestRegistrationService(ledger, events, users)

	_, err := svc.Register(context.Background(), "user-1", RegisterRequest{EventID: "event-1"})

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestRegisterRejectsRosterOnIndividualEvent(t *testing.T) {
	ledger := newMockLedger()
	events := &mockEventReader{events: map[string]*models.Event{"event-1": approvedEvent("event-1", nil)}}
	users := &mockUserReader{users: map[string]*models.User{"user-1": student("user-1", "CS")}}
	svc := newTestRegistrationService(ledger, events, users)

	_, err := svc.Register(context.Background(), "user-1", RegisterRequest{
		EventID: "event-1",
		Team:    completeRoster("CS", 2),
	})

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRegisterConcurrentRequestsNeverExceedLimit(t *testing.T) {
	const limit = 5
	const contenders = 40

	ledger := newMockLedger()
	users := &mockUserReader{users: make(map[string]*models.User, contenders)}
	for i := 0; i < contenders; i++ {
		id := fmt.Sprintf("user-%d", i)
		users.users[id] = student(id, fmt.Sprintf("dept-%d", i%4))
	}
	events := &mockEventReader{events: map[string]*models.Event{"event-1": approvedEvent("event-1", intPtr(limit))}}
	svc := newTestRegistrationService(ledger, events, users)

	var wg sync.WaitGroup
	var admitted int64
	var adMu sync.Mutex
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			if _, err := svc.Register(context.Background(), userID, RegisterRequest{EventID: "event-1"}); err == nil {
				adMu.Lock()
				admitted++
				adMu.Unlock()
			}
		}(fmt.Sprintf("user-%d", i))
	}
	wg.Wait()

	assert.EqualValues(t, limit, admitted)
	rows, err := ledger.ListByEvent(context.Background(), "event-1")
	require.NoError(t, err)
	assert.Len(t, rows, limit)
}

func TestConfirmRequiresInchargeOrAdmin(t *testing.T) {
	ledger := newMockLedger()
	events := &mockEventReader{
		events:    map[string]*models.Event{"event-1": approvedEvent("event-1", nil)},
		incharges: map[string]bool{"event-1" + "teacher-1": true},
	}
	users := &mockUserReader{users: map[string]*models.User{"user-1": student("user-1", "CS")}}
	svc := newTestRegistrationService(ledger, events, users)

	reg, err := svc.Register(context.Background(), "user-1", RegisterRequest{EventID: "event-1"})
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), reg.ID, "teacher-2", models.RoleTeacher)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	confirmed, err := svc.Confirm(context.Background(), reg.ID, "teacher-1", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusConfirmed, confirmed.Status)

	// Confirming twice is a conflict: the row is no longer pending.
	_, err = svc.Confirm(context.Background(), reg.ID, "teacher-1", models.RoleTeacher)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
