package cancel_appointment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type stubService struct {
	calls int
	err   error
}

func (s *stubService) Cancel(_ context.Context, _ int64) error {
	s.calls++
	return s.err
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		err    error
		status int
		calls  int
	}{
		{name: "cancelled", id: "5", status: http.StatusOK, calls: 1},
		{name: "invalid id", id: "abc", status: http.StatusBadRequest, calls: 0},
		{name: "not found", id: "5", err: appointments.ErrAppointmentNotFound, status: http.StatusNotFound, calls: 1},
		{name: "already cancelled", id: "5", err: appointments.ErrAlreadyCancelled, status: http.StatusConflict, calls: 1},
		{name: "internal", id: "5", err: appointments.ErrInternal, status: http.StatusInternalServerError, calls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{err: tt.err}
			req := httptest.NewRequest(http.MethodPatch, "/api/v1/appointments/"+tt.id+"/cancel", nil)
			req = mux.SetURLVars(req, map[string]string{"id": tt.id})
			rec := httptest.NewRecorder()

			NewHandler(svc, logger.NewNop()).Handle(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.calls, svc.calls)
		})
	}
}
