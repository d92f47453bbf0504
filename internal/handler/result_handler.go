package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stjcampus/events-api/internal/service"
	appErrors "github.com/stjcampus/events-api/pkg/errors"
	"github.com/stjcampus/events-api/pkg/response"
)

// ResultHandler exposes result announcement endpoints.
type ResultHandler struct {
	results *service.ResultService
}

// NewResultHandler constructs the handler.
func NewResultHandler(results *service.ResultService) *ResultHandler {
	return &ResultHandler{results: results}
}

// Announce godoc
// @Summary Announce results for an event
// @Description Replaces any previously announced positions for the event.
// @Tags Results
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body service.AnnounceResultsRequest true "Positions"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id}/results [post]
func (h *ResultHandler) Announce(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.AnnounceResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid results payload"))
		return
	}

	results, err := h.results.Announce(c.Request.Context(), c.Param("id"), req, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// ListByEvent godoc
// @Summary List announced results for an event
// @Tags Results
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/results [get]
func (h *ResultHandler) ListByEvent(c *gin.Context) {
	results, err := h.results.ListByEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}
