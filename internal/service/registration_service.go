package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/stjcampus/events-api/internal/models"
	appErrors "github.com/stjcampus/events-api/pkg/errors"
)

type registrationRepository interface {
	ListByEvent(ctx context.Context, eventID string) ([]models.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]models.RegistrationDetail, error)
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	CreateWithGuard(ctx context.Context, reg *models.Registration, guard func(existing []models.Registration) error) error
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error
}

type registrationEventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	IsIncharge(ctx context.Context, eventID, userID string) (bool, error)
}

type registrationUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type registrationOutcomeRecorder interface {
	RecordRegistrationOutcome(outcome string)
}

// RegisterRequest is the signup payload. Team carries the full roster
// for team events and must be absent for individual events.
type RegisterRequest struct {
	EventID string           `json:"event_id" validate:"required"`
	Team    *models.TeamData `json:"team"`
}

// RegistrationService applies the eligibility rules and appends
// admitted candidates to the ledger. Per-event serialization happens at
// two levels: an in-process mutex keyed by event ID and a database
// advisory lock inside CreateWithGuard, so the decision is always made
// against the committed ledger state.
type RegistrationService struct {
	ledger    registrationRepository
	events    registrationEventRepository
	users     registrationUserRepository
	metrics   registrationOutcomeRecorder
	validator *validator.Validate
	logger    *zap.Logger

	eventLocks sync.Map // event ID -> *sync.Mutex
	now        func() time.Time
}

// NewRegistrationService constructs a RegistrationService. Metrics may
// be nil; outcomes are then not counted.
func NewRegistrationService(ledger registrationRepository, events registrationEventRepository, users registrationUserRepository, metrics registrationOutcomeRecorder, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RegistrationService{
		ledger:    ledger,
		events:    events,
		users:     users,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Register evaluates the candidate against the event rules and appends
// a ledger row on admit. Rejections surface as typed errors carrying
// the violated rule.
func (s *RegistrationService) Register(ctx context.Context, userID string, req RegisterRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	event, err := s.events.FindByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	if event.Status != models.EventStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "event is not open for registration")
	}

	if event.ParticipationType == models.ParticipationIndividual && req.Team != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "individual events do not accept a team roster")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	candidate := Candidate{
		UserID:     user.ID,
		Department: user.Department,
		Team:       req.Team,
	}
	if candidate.Team != nil && candidate.Team.Department == "" {
		candidate.Team.Department = user.Department
	}

	reg := &models.Registration{
		EventID:           event.ID,
		UserID:            user.ID,
		UserName:          user.FullName,
		UserEmail:         user.Email,
		Department:        user.Department,
		ParticipationType: event.ParticipationType,
		Team:              candidate.Team,
	}

	lock := s.lockFor(event.ID)
	lock.Lock()
	defer lock.Unlock()

	err = s.ledger.CreateWithGuard(ctx, reg, func(existing []models.Registration) error {
		decision := EvaluateRegistration(event, candidate, existing, s.now())
		if !decision.Admitted {
			s.recordOutcome(string(decision.Reason))
			return rejectionError(decision.Reason)
		}
		return nil
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append registration")
	}

	s.recordOutcome("ADMITTED")
	s.logger.Info("registration admitted",
		zap.String("event_id", event.ID),
		zap.String("user_id", user.ID),
		zap.String("participation_type", string(event.ParticipationType)))

	return reg, nil
}

func (s *RegistrationService) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordRegistrationOutcome(outcome)
	}
}

// ListByEvent returns the ledger for an event. Students only see their
// own rows through ListByUser; this listing is for organizers.
func (s *RegistrationService) ListByEvent(ctx context.Context, eventID string) ([]models.Registration, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	regs, err := s.ledger.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return regs, nil
}

// ListByUser returns a user's own registrations with event metadata.
func (s *RegistrationService) ListByUser(ctx context.Context, userID string) ([]models.RegistrationDetail, error) {
	regs, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return regs, nil
}

// Confirm moves a pending ledger row to confirmed. Only admins and the
// event incharges may confirm.
func (s *RegistrationService) Confirm(ctx context.Context, registrationID string, actorID string, actorRole models.UserRole) (*models.Registration, error) {
	reg, err := s.ledger.FindByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}

	if actorRole != models.RoleAdmin {
		incharge, err := s.events.IsIncharge(ctx, reg.EventID, actorID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check event incharge")
		}
		if !incharge {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to confirm this registration")
		}
	}

	if err := s.ledger.UpdateStatus(ctx, registrationID, models.RegistrationStatusConfirmed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration is not pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm registration")
	}

	reg.Status = models.RegistrationStatusConfirmed
	return reg, nil
}

func (s *RegistrationService) lockFor(eventID string) *sync.Mutex {
	lock, _ := s.eventLocks.LoadOrStore(eventID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// rejectionError maps an eligibility rejection to its API error.
func rejectionError(reason RejectReason) *appErrors.Error {
	switch reason {
	case ReasonEventClosed:
		return appErrors.ErrEventClosed
	case ReasonAlreadyRegistered:
		return appErrors.ErrAlreadyRegistered
	case ReasonIncompleteRoster:
		return appErrors.ErrIncompleteRoster
	case ReasonOverallLimitReached:
		return appErrors.ErrOverallLimitReached
	case ReasonDepartmentLimitReached:
		return appErrors.ErrDepartmentLimitReached
	case ReasonTeamLimitReached:
		return appErrors.ErrTeamLimitReached
	default:
		return appErrors.ErrInternal
	}
}
