package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/stjcampus/events-api/internal/models"
	appErrors "github.com/stjcampus/events-api/pkg/errors"
)

type resultRepository interface {
	Replace(ctx context.Context, eventID string, entries []models.ResultEntry) error
	ListByEvent(ctx context.Context, eventID string) ([]models.ResultDetail, error)
}

type resultEventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	IsIncharge(ctx context.Context, eventID, userID string) (bool, error)
}

type resultLedgerRepository interface {
	FindByID(ctx context.Context, id string) (*models.Registration, error)
}

type resultNotifier interface {
	Send(ctx context.Context, req SendNotificationRequest, senderID string) (*models.Notification, error)
}

type resultAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AnnounceResultEntry is one winner position in an announcement.
type AnnounceResultEntry struct {
	Position       int    `json:"position" validate:"required,min=1"`
	RegistrationID string `json:"registration_id" validate:"required"`
	Title          string `json:"title"`
}

// AnnounceResultsRequest replaces an event's announced result set.
type AnnounceResultsRequest struct {
	Entries []AnnounceResultEntry `json:"entries" validate:"required,min=1,dive"`
}

// ResultService announces and serves event results. Re-announcing an
// event replaces the previous result set atomically.
type ResultService struct {
	results   resultRepository
	events    resultEventRepository
	ledger    resultLedgerRepository
	notifier  resultNotifier
	audit     resultAuditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResultService constructs a ResultService. The notifier may be nil;
// announcements then skip the broadcast.
func NewResultService(results resultRepository, events resultEventRepository, ledger resultLedgerRepository, notifier resultNotifier, audit resultAuditRepository, validate *validator.Validate, logger *zap.Logger) *ResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ResultService{
		results:   results,
		events:    events,
		ledger:    ledger,
		notifier:  notifier,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
}

// Announce replaces the announced results for an event and broadcasts a
// notification to all users.
func (s *ResultService) Announce(ctx context.Context, eventID string, req AnnounceResultsRequest, actorID string, actorRole models.UserRole) ([]models.ResultDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid results payload")
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	if actorRole != models.RoleAdmin {
		incharge, err := s.events.IsIncharge(ctx, eventID, actorID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check event incharge")
		}
		if !incharge {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to announce results for this event")
		}
	}

	seen := make(map[int]bool, len(req.Entries))
	entries := make([]models.ResultEntry, 0, len(req.Entries))
	for _, entry := range req.Entries {
		if seen[entry.Position] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate position %d", entry.Position))
		}
		seen[entry.Position] = true

		reg, err := s.ledger.FindByID(ctx, entry.RegistrationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "result references an unknown registration")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
		}
		if reg.EventID != eventID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "result references a registration from another event")
		}

		entries = append(entries, models.ResultEntry{
			Position:       entry.Position,
			RegistrationID: entry.RegistrationID,
			Title:          entry.Title,
			AnnouncedBy:    actorID,
		})
	}

	if err := s.results.Replace(ctx, eventID, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to announce results")
	}

	if s.notifier != nil {
		if _, err := s.notifier.Send(ctx, SendNotificationRequest{
			Title:    fmt.Sprintf("Results announced: %s", event.Title),
			Content:  fmt.Sprintf("Results for %s are out. Check the event page for positions.", event.Title),
			Audience: models.NotificationAudienceAll,
			EventID:  &event.ID,
		}, actorID); err != nil {
			s.logger.Warn("failed to broadcast result announcement", zap.Error(err))
		}
	}

	payload, _ := json.Marshal(map[string]interface{}{"positions": len(entries)})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionResultAnnounce,
		Resource:   "results",
		ResourceID: &event.ID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record result announce audit log", zap.Error(err))
	}

	return s.ListByEvent(ctx, eventID)
}

// ListByEvent returns the announced results for an event.
func (s *ResultService) ListByEvent(ctx context.Context, eventID string) ([]models.ResultDetail, error) {
	results, err := s.results.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	return results, nil
}
