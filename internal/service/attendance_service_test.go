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

type mockAttendanceRepo struct {
	records map[string]models.AttendanceRecord
	marked  map[string]bool // eventID+userID
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{
		records: make(map[string]models.AttendanceRecord),
		marked:  make(map[string]bool),
	}
}

func (m *mockAttendanceRepo) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = "att-1"
	}
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = time.Now().UTC()
	}
	m.records[record.ID] = *record
	m.marked[record.EventID+record.UserID] = true
	return nil
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	if record, ok := m.records[id]; ok {
		return &record, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) Exists(ctx context.Context, eventID, userID string) (bool, error) {
	return m.marked[eventID+userID], nil
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error) {
	return nil, 0, nil
}

func (m *mockAttendanceRepo) UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus, reviewerID string, reviewedAt time.Time) error {
	record, ok := m.records[id]
	if !ok {
		return sql.ErrNoRows
	}
	record.Status = status
	record.ReviewedBy = &reviewerID
	record.ReviewedAt = &reviewedAt
	m.records[id] = record
	return nil
}

func float64Ptr(v float64) *float64 { return &v }

// Venue at the Gateway of India; ~210m north of it lies outside a 100m fence.
const (
	venueLat = 18.9220
	venueLng = 72.8347
	nearLat  = 18.9221
	farLat   = 18.9239
)

func geofencedEvent() *models.Event {
	return &models.Event{
		ID:                "event-1",
		Title:             "Tech Fest Keynote",
		ParticipationType: models.ParticipationIndividual,
		Date:              time.Now(),
		Status:            models.EventStatusApproved,
		VenueLat:          float64Ptr(venueLat),
		VenueLng:          float64Ptr(venueLng),
	}
}

func newTestAttendanceService(records *mockAttendanceRepo, events *mockEventReader) *AttendanceService {
	return NewAttendanceService(records, events, nil, nil, 100)
}

func TestMarkAttendanceInsideFence(t *testing.T) {
	records := newMockAttendanceRepo()
	events := &mockEventReader{events: map[string]*models.Event{"event-1": geofencedEvent()}}
	svc := newTestAttendanceService(records, events)

	record, err := svc.Mark(context.Background(), "user-1", MarkAttendanceRequest{
		EventID:   "event-1",
		Latitude:  nearLat,
		Longitude: venueLng,
	})

	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusPending, record.Status)
	assert.Equal(t, nearLat, record.Latitude)
}

func TestMarkAttendanceOutsideFence(t *testing.T) {
	records := newMockAttendanceRepo()
	events := &mockEventReader{events: map[string]*models.Event{"event-1": geofencedEvent()}}
	svc := newTestAttendanceService(records, events)

	_, err := svc.Mark(context.Background(), "user-1", MarkAttendanceRequest{
		EventID:   "event-1",
		Latitude:  farLat,
		Longitude: venueLng,
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOutsideGeofence.Code, appErrors.FromError(err).Code)
	assert.Empty(t, records.records)
}

func TestMarkAttendanceRejectsMalformedCoordinates(t *testing.T) {
	records := newMockAttendanceRepo()
	events := &mockEventReader{events: map[string]*models.Event{"event-1": geofencedEvent()}}
	svc := newTestAttendanceService(records, events)

	cases := []struct {
		name     string
		lat, lng float64
	}{
		{"nan latitude", nan(), venueLng},
		{"infinite longitude", venueLat, inf()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Mark(context.Background(), "user-1", MarkAttendanceRequest{
				EventID:   "event-1",
				Latitude:  tc.lat,
				Longitude: tc.lng,
			})
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrOutsideGeofence.Code, appErrors.FromError(err).Code)
		})
	}
	assert.Empty(t, records.records)
}

func TestMarkAttendanceRequiresVenueCoordinates(t *testing.T) {
	event := geofencedEvent()
	event.VenueLat = nil
	event.VenueLng = nil
	records := newMockAttendanceRepo()
	events := &mockEventReader{events: map[string]*models.Event{"event-1": event}}
	svc := newTestAttendanceService(records, events)

	_, err := svc.Mark(context.Background(), "user-1", MarkAttendanceRequest{
		EventID:   "event-1",
		Latitude:  venueLat,
		Longitude: venueLng,
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestMarkAttendanceRejectsDuplicate(t *testing.T) {
	records := newMockAttendanceRepo()
	events := &mockEventReader{events: map[string]*models.Event{"event-1": geofencedEvent()}}
	svc := newTestAttendanceService(records, events)

	_, err := svc.Mark(context.Background(), "user-1", MarkAttendanceRequest{
		EventID:   "event-1",
		Latitude:  venueLat,
		Longitude: venueLng,
	})
	require.NoError(t, err)

	_, err = svc.Mark(context.Background(), "user-1", MarkAttendanceRequest{
		EventID:   "event-1",
		Latitude:  venueLat,
		Longitude: venueLng,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestReviewAttendanceRequiresIncharge(t *testing.T) {
	records := newMockAttendanceRepo()
	events := &mockEventReader{
		events:    map[string]*models.Event{"event-1": geofencedEvent()},
		incharges: map[string]bool{"event-1" + "teacher-1": true},
	}
	svc := newTestAttendanceService(records, events)

	record, err := svc.Mark(context.Background(), "user-1", MarkAttendanceRequest{
		EventID:   "event-1",
		Latitude:  venueLat,
		Longitude: venueLng,
	})
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), record.ID, ReviewAttendanceRequest{Status: models.AttendanceStatusApproved}, "teacher-2", models.RoleTeacher)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	reviewed, err := svc.Review(context.Background(), record.ID, ReviewAttendanceRequest{Status: models.AttendanceStatusApproved}, "teacher-1", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "teacher-1", *reviewed.ReviewedBy)
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func inf() float64 {
	var zero float64
	return 1 / zero
}
