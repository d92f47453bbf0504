package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stjcampus/events-api/internal/models"
	"github.com/stjcampus/events-api/internal/service"
	appErrors "github.com/stjcampus/events-api/pkg/errors"
	"github.com/stjcampus/events-api/pkg/response"
)

// NotificationHandler exposes announcement and inbox endpoints.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Send godoc
// @Summary Send a notification
// @Tags Notifications
// @Accept json
// @Produce json
// @Param request body service.SendNotificationRequest true "Notification payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications [post]
func (h *NotificationHandler) Send(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload"))
		return
	}

	notification, err := h.notifications.Send(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notification)
}

// Inbox godoc
// @Summary List notifications visible to the current user
// @Tags Notifications
// @Produce json
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) Inbox(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	notifications, pagination, err := h.notifications.Inbox(c.Request.Context(), models.NotificationFilter{
		UserID:     claims.UserID,
		Department: claims.Department,
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "pageSize", 20),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, pagination)
}

// Get godoc
// @Summary Read a notification with its replies
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications/{id} [get]
func (h *NotificationHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	notification, replies, err := h.notifications.Get(c.Request.Context(), c.Param("id"), claims.UserID, claims.Department)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"notification": notification,
		"replies":      replies,
	}, nil)
}

// Reply godoc
// @Summary Reply to a notification
// @Tags Notifications
// @Accept json
// @Produce json
// @Param id path string true "Notification ID"
// @Param request body service.ReplyRequest true "Reply payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications/{id}/replies [post]
func (h *NotificationHandler) Reply(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reply payload"))
		return
	}

	reply, err := h.notifications.Reply(c.Request.Context(), c.Param("id"), claims.UserID, claims.Department, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reply)
}
