package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stjcampus/events-api/internal/models"
	"github.com/stjcampus/events-api/internal/service"
	appErrors "github.com/stjcampus/events-api/pkg/errors"
)

type attendanceServiceMock struct {
	markResp   *models.AttendanceRecord
	markErr    error
	reviewResp *models.AttendanceRecord
	reviewErr  error
	lastMark   service.MarkAttendanceRequest
	markCalled bool
}

func (m *attendanceServiceMock) Mark(ctx context.Context, userID string, req service.MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	m.markCalled = true
	m.lastMark = req
	return m.markResp, m.markErr
}

func (m *attendanceServiceMock) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, *models.Pagination, error) {
	return nil, nil, nil
}

func (m *attendanceServiceMock) Review(ctx context.Context, recordID string, req service.ReviewAttendanceRequest, actorID string, actorRole models.UserRole) (*models.AttendanceRecord, error) {
	return m.reviewResp, m.reviewErr
}

func TestAttendanceHandlerMark(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attendanceServiceMock{
		markResp: &models.AttendanceRecord{ID: "att-1", Status: models.AttendanceStatusPending},
	}
	handler := NewAttendanceHandler(mockSvc)

	payload, _ := json.Marshal(service.MarkAttendanceRequest{EventID: "event-1", Latitude: 18.922, Longitude: 72.8347})
	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/attendance", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Mark(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.markCalled)
	assert.Equal(t, "event-1", mockSvc.lastMark.EventID)
}

func TestAttendanceHandlerMarkOutsideFence(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(&attendanceServiceMock{markErr: appErrors.ErrOutsideGeofence})

	payload, _ := json.Marshal(service.MarkAttendanceRequest{EventID: "event-1", Latitude: 0, Longitude: 0})
	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/attendance", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Mark(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAttendanceHandlerReviewServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(&attendanceServiceMock{reviewErr: appErrors.ErrForbidden})

	payload, _ := json.Marshal(service.ReviewAttendanceRequest{Status: models.AttendanceStatusApproved})
	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/attendance/att-1/review", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "att-1"}}

	handler.Review(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}
