package update_appointment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	createAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type stubService struct {
	gotID  int64
	gotReq *models.UpdateAppointmentRequest
	err    error
}

func (s *stubService) Update(_ context.Context, id int64, req *models.UpdateAppointmentRequest) (*models.AppointmentResponse, error) {
	s.gotID = id
	s.gotReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.AppointmentResponse{ID: id + 100}, nil
}

func doRequest(h *Handler, id, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/appointments/"+id, strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": id})
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle_MovesToInterval(t *testing.T) {
	svc := &stubService{}
	rec := doRequest(NewHandler(svc, logger.NewNop()), "7",
		`{"startingDateTime":"2025-03-04T10:00","endingDateTime":"2025-03-04T10:30","nbSeats":3}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), svc.gotID)
	require.NotNil(t, svc.gotReq.StartingDateTime)
	assert.Equal(t, time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC), *svc.gotReq.StartingDateTime)
	assert.Equal(t, 3, svc.gotReq.NbSeats)
	assert.Nil(t, svc.gotReq.User)
	assert.Contains(t, rec.Body.String(), `"id":107`)
}

func TestHandle_RejectsHalfInterval(t *testing.T) {
	svc := &stubService{}
	rec := doRequest(NewHandler(svc, logger.NewNop()), "7", `{"startingDateTime":"2025-03-04T10:00"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.gotReq)
}

func TestHandle_InvalidID(t *testing.T) {
	svc := &stubService{}
	rec := doRequest(NewHandler(svc, logger.NewNop()), "x", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.gotReq)
}

func TestHandle_MapsErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not found", err: appointments.ErrAppointmentNotFound, status: http.StatusNotFound},
		{name: "cancelled", err: appointments.ErrAlreadyCancelled, status: http.StatusConflict},
		{name: "invalid", err: appointments.ErrInvalidInput, status: http.StatusBadRequest},
		{name: "target slot missing", err: createAppointment.ErrSlotNotFound, status: http.StatusNotFound},
		{name: "capacity", err: &domain.CapacityError{SlotID: 1, Requested: 4, Remaining: 2}, status: http.StatusConflict},
		{name: "internal", err: appointments.ErrInternal, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(NewHandler(&stubService{err: tt.err}, logger.NewNop()), "7", `{"slotId":3}`)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
