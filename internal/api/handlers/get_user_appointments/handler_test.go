package get_user_appointments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type stubService struct {
	got *models.GetUserAppointmentsRequest
}

func (s *stubService) GetUserAppointments(_ context.Context, req *models.GetUserAppointmentsRequest) (*models.AppointmentListResponse, error) {
	s.got = req
	return &models.AppointmentListResponse{Appointments: []models.AppointmentResponse{{ID: 1}}, Total: 1}, nil
}

func TestHandle_ParsesQuery(t *testing.T) {
	svc := &stubService{}
	h := NewHandler(svc, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/appointments?email=ann@example.com&formId=3&from=2025-03-01&to=2025-03-31&includeInactive=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.got)
	assert.Equal(t, "ann@example.com", svc.got.Email)
	require.NotNil(t, svc.got.FormID)
	assert.Equal(t, int64(3), *svc.got.FormID)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), *svc.got.StartDate)
	assert.Equal(t, time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), *svc.got.EndDate)
	assert.True(t, svc.got.IncludeInactive)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

func TestHandle_DefaultsToActiveOnly(t *testing.T) {
	svc := &stubService{}
	rec := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/appointments?email=ann@example.com", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, svc.got.IncludeInactive)
	assert.Nil(t, svc.got.FormID)
	assert.Nil(t, svc.got.StartDate)
}

func TestHandle_InvalidQuery(t *testing.T) {
	queries := []string{
		"",
		"?email=not-an-email",
		"?email=ann@example.com&formId=abc",
		"?email=ann@example.com&from=01.03.2025",
		"?email=ann@example.com&includeInactive=maybe",
	}

	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			svc := &stubService{}
			rec := httptest.NewRecorder()
			NewHandler(svc, logger.NewNop()).Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/appointments"+q, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, svc.got)
		})
	}
}
