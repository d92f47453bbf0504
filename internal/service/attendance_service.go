package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/stjcampus/events-api/internal/models"
	appErrors "github.com/stjcampus/events-api/pkg/errors"
	"github.com/stjcampus/events-api/pkg/geo"
)

type attendanceRepository interface {
	Create(ctx context.Context, record *models.AttendanceRecord) error
	FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	Exists(ctx context.Context, eventID, userID string) (bool, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error)
	UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus, reviewerID string, reviewedAt time.Time) error
}

type attendanceEventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	IsIncharge(ctx context.Context, eventID, userID string) (bool, error)
}

// MarkAttendanceRequest carries the device coordinates at submission
// time. Coordinates are validated server side against the venue fence.
type MarkAttendanceRequest struct {
	EventID   string  `json:"event_id" validate:"required"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ReviewAttendanceRequest is the incharge review payload.
type ReviewAttendanceRequest struct {
	Status models.AttendanceStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
}

// AttendanceService handles geofenced attendance submission and review.
type AttendanceService struct {
	records      attendanceRepository
	events       attendanceEventRepository
	validator    *validator.Validate
	logger       *zap.Logger
	radiusMeters float64
	now          func() time.Time
}

// NewAttendanceService constructs an AttendanceService. A non-positive
// radius falls back to the default fence.
func NewAttendanceService(records attendanceRepository, events attendanceEventRepository, validate *validator.Validate, logger *zap.Logger, radiusMeters float64) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if radiusMeters <= 0 {
		radiusMeters = geo.DefaultRadiusMeters
	}
	return &AttendanceService{
		records:      records,
		events:       events,
		validator:    validate,
		logger:       logger,
		radiusMeters: radiusMeters,
		now:          time.Now,
	}
}

// Mark records attendance for the user when the submitted coordinates
// fall inside the event venue fence. Submissions from outside the fence
// or with malformed coordinates are rejected, never stored.
func (s *AttendanceService) Mark(ctx context.Context, userID string, req MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	event, err := s.events.FindByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	if !event.HasVenueCoordinates() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "event venue has no coordinates configured")
	}

	if !geo.WithinRange(req.Latitude, req.Longitude, *event.VenueLat, *event.VenueLng, s.radiusMeters) {
		return nil, appErrors.Clone(appErrors.ErrOutsideGeofence, "")
	}

	exists, err := s.records.Exists(ctx, event.ID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance already marked for this event")
	}

	record := &models.AttendanceRecord{
		EventID:   event.ID,
		UserID:    userID,
		Status:    models.AttendanceStatusPending,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}

	if err := s.records.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}

	s.logger.Info("attendance marked",
		zap.String("event_id", event.ID),
		zap.String("user_id", userID))

	return record, nil
}

// List returns attendance records scoped by the filter.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, *models.Pagination, error) {
	records, total, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return records, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Review approves or rejects a pending record. Only admins and the
// event incharges may review.
func (s *AttendanceService) Review(ctx context.Context, recordID string, req ReviewAttendanceRequest, actorID string, actorRole models.UserRole) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}

	if actorRole != models.RoleAdmin {
		incharge, err := s.events.IsIncharge(ctx, record.EventID, actorID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check event incharge")
		}
		if !incharge {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to review this record")
		}
	}

	reviewedAt := s.now().UTC()
	if err := s.records.UpdateStatus(ctx, recordID, req.Status, actorID, reviewedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review attendance")
	}

	record.Status = req.Status
	record.ReviewedBy = &actorID
	record.ReviewedAt = &reviewedAt
	return record, nil
}
