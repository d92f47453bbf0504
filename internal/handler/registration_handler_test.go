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

	"github.com/stjcampus/events-api/internal/middleware"
	"github.com/stjcampus/events-api/internal/models"
	"github.com/stjcampus/events-api/internal/service"
	appErrors "github.com/stjcampus/events-api/pkg/errors"
)

type registrationServiceMock struct {
	registerResp   *models.Registration
	registerErr    error
	confirmResp    *models.Registration
	confirmErr     error
	lastUserID     string
	lastRequest    service.RegisterRequest
	registerCalled bool
	confirmCalled  bool
}

func (m *registrationServiceMock) Register(ctx context.Context, userID string, req service.RegisterRequest) (*models.Registration, error) {
	m.registerCalled = true
	m.lastUserID = userID
	m.lastRequest = req
	return m.registerResp, m.registerErr
}

func (m *registrationServiceMock) ListByEvent(ctx context.Context, eventID string) ([]models.Registration, error) {
	return nil, nil
}

func (m *registrationServiceMock) ListByUser(ctx context.Context, userID string) ([]models.RegistrationDetail, error) {
	return nil, nil
}

func (m *registrationServiceMock) Confirm(ctx context.Context, registrationID, actorID string, actorRole models.UserRole) (*models.Registration, error) {
	m.confirmCalled = true
	return m.confirmResp, m.confirmErr
}

func studentContext(w *httptest.ResponseRecorder) (*gin.Context, *models.JWTClaims) {
	c, _ := gin.CreateTestContext(w)
	claims := &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent, Department: "CS"}
	c.Set(middleware.ContextUserKey, claims)
	return c, claims
}

func TestRegistrationHandlerRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &registrationServiceMock{
		registerResp: &models.Registration{ID: "reg-1", EventID: "event-1", UserID: "user-1"},
	}
	handler := NewRegistrationHandler(mockSvc)

	payload, _ := json.Marshal(service.RegisterRequest{EventID: "event-1"})
	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/registrations", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Register(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.registerCalled)
	assert.Equal(t, "user-1", mockSvc.lastUserID)
	assert.Equal(t, "event-1", mockSvc.lastRequest.EventID)
}

func TestRegistrationHandlerRegisterInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRegistrationHandler(&registrationServiceMock{})

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/registrations", bytes.NewBufferString(`{"event_id":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Register(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrationHandlerRegisterRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRegistrationHandler(&registrationServiceMock{})

	payload, _ := json.Marshal(service.RegisterRequest{EventID: "event-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/registrations", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Register(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegistrationHandlerRegisterMapsRejection(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"event closed", appErrors.ErrEventClosed, http.StatusConflict},
		{"already registered", appErrors.ErrAlreadyRegistered, http.StatusConflict},
		{"overall limit", appErrors.ErrOverallLimitReached, http.StatusConflict},
		{"incomplete roster", appErrors.ErrIncompleteRoster, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewRegistrationHandler(&registrationServiceMock{registerErr: tc.err})

			payload, _ := json.Marshal(service.RegisterRequest{EventID: "event-1"})
			w := httptest.NewRecorder()
			c, _ := studentContext(w)
			req, _ := http.NewRequest(http.MethodPost, "/registrations", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			c.Request = req

			handler.Register(c)
			require.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestRegistrationHandlerConfirmServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &registrationServiceMock{confirmErr: appErrors.ErrForbidden}
	handler := NewRegistrationHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/registrations/reg-1/confirm", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "reg-1"}}

	handler.Confirm(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, mockSvc.confirmCalled)
}
