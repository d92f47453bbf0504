package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/stjcampus/events-api/internal/models"
	appErrors "github.com/stjcampus/events-api/pkg/errors"
)

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	UpdateStatus(ctx context.Context, id string, status models.EventStatus) error
	Delete(ctx context.Context, id string) error
	IsIncharge(ctx context.Context, eventID, userID string) (bool, error)
}

type eventProgramRepository interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

type eventRegistrationCounter interface {
	CountByEvent(ctx context.Context, eventID string) (int, error)
}

type eventAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// SaveEventRequest is the create/update payload for events.
type SaveEventRequest struct {
	ProgramID   string    `json:"program_id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" validate:"required"`

	VenueName string   `json:"venue_name"`
	VenueLat  *float64 `json:"venue_lat"`
	VenueLng  *float64 `json:"venue_lng"`

	ParticipationType         models.ParticipationType `json:"participation_type" validate:"required,oneof=individual team"`
	OverallIndividualLimit    *int                     `json:"overall_individual_limit" validate:"omitempty,min=1"`
	DepartmentIndividualLimit *int                     `json:"department_individual_limit" validate:"omitempty,min=1"`
	TeamsPerDepartment        *int                     `json:"teams_per_department" validate:"omitempty,min=1"`
	MembersPerTeam            int                      `json:"members_per_team" validate:"omitempty,min=1"`

	InchargeIDs []string `json:"incharge_ids"`
}

// EventService manages the event catalog and its approval workflow.
type EventService struct {
	events        eventRepository
	programs      eventProgramRepository
	registrations eventRegistrationCounter
	audit         eventAuditRepository
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewEventService constructs an EventService.
func NewEventService(events eventRepository, programs eventProgramRepository, registrations eventRegistrationCounter, audit eventAuditRepository, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EventService{
		events:        events,
		programs:      programs,
		registrations: registrations,
		audit:         audit,
		validator:     validate,
		logger:        logger,
	}
}

// List returns paginated events with program metadata.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.EventDetail, *models.Pagination, error) {
	events, total, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return events, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns an event by ID.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// Create adds a new event. Events created by teachers enter the
// approval queue; events created by admins are approved immediately.
func (s *EventService) Create(ctx context.Context, req SaveEventRequest, actorID string, actorRole models.UserRole) (*models.Event, error) {
	if err := s.validateEventPayload(req); err != nil {
		return nil, err
	}

	if _, err := s.programs.FindByID(ctx, req.ProgramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	status := models.EventStatusPending
	if actorRole == models.RoleAdmin {
		status = models.EventStatusApproved
	}

	event := &models.Event{
		ProgramID:                 req.ProgramID,
		Title:                     req.Title,
		Description:               req.Description,
		Date:                      req.Date,
		VenueName:                 req.VenueName,
		VenueLat:                  req.VenueLat,
		VenueLng:                  req.VenueLng,
		ParticipationType:         req.ParticipationType,
		OverallIndividualLimit:    req.OverallIndividualLimit,
		DepartmentIndividualLimit: req.DepartmentIndividualLimit,
		TeamsPerDepartment:        req.TeamsPerDepartment,
		MembersPerTeam:            req.MembersPerTeam,
		Status:                    status,
		CreatedBy:                 actorID,
		InchargeIDs:               req.InchargeIDs,
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	return event, nil
}

// Update modifies an event. The participation type is frozen once the
// event has registrations, since existing ledger rows were admitted
// under its rules.
func (s *EventService) Update(ctx context.Context, id string, req SaveEventRequest, actorID string, actorRole models.UserRole) (*models.Event, error) {
	if err := s.validateEventPayload(req); err != nil {
		return nil, err
	}

	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.ensureCanManage(ctx, event, actorID, actorRole); err != nil {
		return nil, err
	}

	if req.ParticipationType != event.ParticipationType {
		count, err := s.registrations.CountByEvent(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
		}
		if count > 0 {
			return nil, appErrors.Clone(appErrors.ErrConflict, "participation type cannot change once registrations exist")
		}
	}

	event.Title = req.Title
	event.Description = req.Description
	event.Date = req.Date
	event.VenueName = req.VenueName
	event.VenueLat = req.VenueLat
	event.VenueLng = req.VenueLng
	event.ParticipationType = req.ParticipationType
	event.OverallIndividualLimit = req.OverallIndividualLimit
	event.DepartmentIndividualLimit = req.DepartmentIndividualLimit
	event.TeamsPerDepartment = req.TeamsPerDepartment
	event.MembersPerTeam = req.MembersPerTeam
	event.InchargeIDs = req.InchargeIDs

	if err := s.events.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	return event, nil
}

// Approve transitions a pending event to the approved state.
func (s *EventService) Approve(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if event.Status == models.EventStatusApproved {
		return event, nil
	}

	if err := s.events.UpdateStatus(ctx, id, models.EventStatusApproved); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve event")
	}
	event.Status = models.EventStatusApproved
	return event, nil
}

// Delete removes an event along with its registrations and attendance.
func (s *EventService) Delete(ctx context.Context, id string, actorID string, meta models.LoginRequest) error {
	event, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.events.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"title": event.Title, "status": event.Status})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionEventDelete,
		Resource:   "events",
		ResourceID: &event.ID,
		OldValues:  oldPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record event delete audit log", zap.Error(err))
	}

	return nil
}

// CanManage reports whether the actor may manage the event: admins
// always, teachers when they created it or are assigned as incharge.
func (s *EventService) CanManage(ctx context.Context, event *models.Event, actorID string, actorRole models.UserRole) (bool, error) {
	if actorRole == models.RoleAdmin {
		return true, nil
	}
	if actorRole != models.RoleTeacher {
		return false, nil
	}
	if event.CreatedBy == actorID {
		return true, nil
	}
	incharge, err := s.events.IsIncharge(ctx, event.ID, actorID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check event incharge")
	}
	return incharge, nil
}

func (s *EventService) ensureCanManage(ctx context.Context, event *models.Event, actorID string, actorRole models.UserRole) error {
	ok, err := s.CanManage(ctx, event, actorID, actorRole)
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "not allowed to manage this event")
	}
	return nil
}

func (s *EventService) validateEventPayload(req SaveEventRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	switch req.ParticipationType {
	case models.ParticipationIndividual:
		if req.TeamsPerDepartment != nil || req.MembersPerTeam != 0 {
			return appErrors.Clone(appErrors.ErrValidation, "team limits are not valid for individual events")
		}
	case models.ParticipationTeam:
		if req.OverallIndividualLimit != nil || req.DepartmentIndividualLimit != nil {
			return appErrors.Clone(appErrors.ErrValidation, "individual limits are not valid for team events")
		}
		if req.MembersPerTeam < 1 {
			return appErrors.Clone(appErrors.ErrValidation, "team events require a members per team size")
		}
	}

	// Venue coordinates come in pairs or not at all.
	if (req.VenueLat == nil) != (req.VenueLng == nil) {
		return appErrors.Clone(appErrors.ErrValidation, "venue latitude and longitude must be provided together")
	}

	return nil
}
