package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/stjcampus/events-api/internal/models"
	appErrors "github.com/stjcampus/events-api/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, notification *models.Notification, recipientIDs []string) error
	ListInbox(ctx context.Context, filter models.NotificationFilter) ([]models.NotificationDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.NotificationDetail, error)
	IsVisibleTo(ctx context.Context, notificationID, userID, department string) (bool, error)
	CreateReply(ctx context.Context, reply *models.NotificationReply) error
	ListReplies(ctx context.Context, notificationID string) ([]models.NotificationReply, error)
}

// SendNotificationRequest is the payload for sending a notification.
type SendNotificationRequest struct {
	Title            string                      `json:"title" validate:"required"`
	Content          string                      `json:"content" validate:"required"`
	Audience         models.NotificationAudience `json:"audience" validate:"required,oneof=ALL DEPARTMENT USERS"`
	TargetDepartment string                      `json:"target_department"`
	EventID          *string                     `json:"event_id"`
	RecipientIDs     []string                    `json:"recipient_ids"`
}

// ReplyRequest appends a threaded reply to a notification.
type ReplyRequest struct {
	Content string `json:"content" validate:"required"`
}

// NotificationService handles the campus mailbox.
type NotificationService struct {
	repo      notificationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationRepository, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &NotificationService{repo: repo, validator: validate, logger: logger}
}

// Send creates a notification for the requested audience.
func (s *NotificationService) Send(ctx context.Context, req SendNotificationRequest, senderID string) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}

	var targetDepartment *string
	var recipients []string
	switch req.Audience {
	case models.NotificationAudienceDepartment:
		if req.TargetDepartment == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "department audience requires a target department")
		}
		targetDepartment = &req.TargetDepartment
	case models.NotificationAudienceUsers:
		if len(req.RecipientIDs) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "users audience requires at least one recipient")
		}
		recipients = req.RecipientIDs
	}

	notification := &models.Notification{
		Title:            req.Title,
		Content:          req.Content,
		Audience:         req.Audience,
		TargetDepartment: targetDepartment,
		EventID:          req.EventID,
		CreatedBy:        senderID,
	}

	if err := s.repo.Create(ctx, notification, recipients); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send notification")
	}

	s.logger.Info("notification sent",
		zap.String("notification_id", notification.ID),
		zap.String("audience", string(notification.Audience)))

	return notification, nil
}

// Inbox returns the notifications visible to a user.
func (s *NotificationService) Inbox(ctx context.Context, filter models.NotificationFilter) ([]models.NotificationDetail, *models.Pagination, error) {
	notifications, total, err := s.repo.ListInbox(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list inbox")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return notifications, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one notification with its reply thread, provided the
// requesting user may see it.
func (s *NotificationService) Get(ctx context.Context, id, userID, department string) (*models.NotificationDetail, []models.NotificationReply, error) {
	visible, err := s.repo.IsVisibleTo(ctx, id, userID, department)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check notification visibility")
	}
	if !visible {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}

	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}

	replies, err := s.repo.ListReplies(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list replies")
	}

	return notification, replies, nil
}

// Reply appends a reply to a notification the user can see.
func (s *NotificationService) Reply(ctx context.Context, notificationID, userID, department string, req ReplyRequest) (*models.NotificationReply, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reply payload")
	}

	visible, err := s.repo.IsVisibleTo(ctx, notificationID, userID, department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check notification visibility")
	}
	if !visible {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}

	reply := &models.NotificationReply{
		NotificationID: notificationID,
		UserID:         userID,
		Content:        req.Content,
	}
	if err := s.repo.CreateReply(ctx, reply); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save reply")
	}
	return reply, nil
}
