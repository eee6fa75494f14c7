package create_appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	createAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type stubUseCase struct {
	got  *createAppointment.Request
	resp *createAppointment.Response
	err  error
}

func (s *stubUseCase) Execute(_ context.Context, req *createAppointment.Request) (*createAppointment.Response, error) {
	s.got = req
	return s.resp, s.err
}

func doRequest(h *Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body)))
	return rec
}

func TestHandle_CreatesByInterval(t *testing.T) {
	start := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	uc := &stubUseCase{resp: &createAppointment.Response{
		ID:                11,
		Reference:         "ref-11",
		SlotID:            5,
		FormID:            1,
		StartingDateTime:  start,
		EndingDateTime:    start.Add(30 * time.Minute),
		User:              domain.UserInfo{Email: "ann@example.com"},
		NbBookedSeats:     2,
		NbRemainingPlaces: 1,
		CreatedAt:         start.Add(-time.Hour),
	}}
	h := NewHandler(uc, logger.NewNop())

	rec := doRequest(h, `{"formId":1,"startingDateTime":"2025-03-03T09:00","endingDateTime":"2025-03-03T09:30",
		"user":{"email":"ann@example.com","firstName":"Ann"},"nbSeats":2}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, uc.got)
	assert.Equal(t, int64(0), uc.got.SlotID)
	assert.Equal(t, start, uc.got.StartingDateTime)
	assert.Equal(t, 2, uc.got.NbSeats)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, float64(11), body["id"])
	assert.Equal(t, "2025-03-03T09:00", body["startingDateTime"])
	assert.Equal(t, float64(1), body["nbRemainingPlaces"])
}

func TestHandle_RejectsBeforeUseCase(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"slotId":`},
		{name: "unknown field", body: `{"slotId":1,"seats":2,"user":{"email":"a@b.co"},"nbSeats":1}`},
		{name: "no slot and no interval", body: `{"user":{"email":"a@b.co"},"nbSeats":1}`},
		{name: "bad email", body: `{"slotId":1,"user":{"email":"nope"},"nbSeats":1}`},
		{name: "zero seats", body: `{"slotId":1,"user":{"email":"a@b.co"},"nbSeats":0}`},
		{name: "bad datetime", body: `{"formId":1,"startingDateTime":"03/03/2025","endingDateTime":"2025-03-03T09:30","user":{"email":"a@b.co"},"nbSeats":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &stubUseCase{}
			rec := doRequest(NewHandler(uc, logger.NewNop()), tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, uc.got)
		})
	}
}

func TestHandle_MapsErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "slot not found", err: fmt.Errorf("%w: id=5", createAppointment.ErrSlotNotFound), status: http.StatusNotFound},
		{name: "form not found", err: createAppointment.ErrFormNotFound, status: http.StatusNotFound},
		{name: "invalid input", err: createAppointment.ErrInvalidInput, status: http.StatusBadRequest},
		{name: "capacity", err: &domain.CapacityError{SlotID: 5, Requested: 2, Remaining: 0}, status: http.StatusConflict},
		{name: "closed", err: domain.ErrSlotClosed, status: http.StatusConflict},
		{name: "business rule", err: domain.NewBusinessRuleError(domain.ReasonTooManyAppointments, ""), status: http.StatusUnprocessableEntity},
		{name: "internal", err: createAppointment.ErrInternal, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &stubUseCase{err: tt.err}
			rec := doRequest(NewHandler(uc, logger.NewNop()), `{"slotId":5,"user":{"email":"a@b.co"},"nbSeats":2}`)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
