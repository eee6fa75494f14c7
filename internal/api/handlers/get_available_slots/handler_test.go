package get_available_slots

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type stubUseCase struct {
	got *getAvailableSlots.Request
	err error
}

func (s *stubUseCase) Execute(_ context.Context, req *getAvailableSlots.Request) (*getAvailableSlots.Response, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	start := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	return &getAvailableSlots.Response{
		FormID:    req.FormID,
		StartDate: req.StartDate,
		EndDate:   req.StartDate.AddDate(0, 0, 6),
		Slots: []getAvailableSlots.Slot{
			{StartingDateTime: start, EndingDateTime: start.Add(30 * time.Minute), MaxCapacity: 3, NbRemainingPlaces: 3, NbPotentialRemainingPlaces: 3},
			{ID: 8, StartingDateTime: start.Add(30 * time.Minute), EndingDateTime: start.Add(time.Hour), MaxCapacity: 3, NbRemainingPlaces: 1, NbPotentialRemainingPlaces: 1},
		},
	}, nil
}

func doRequest(h *Handler, formID, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/forms/"+formID+"/available-slots"+query, nil)
	req = mux.SetURLVars(req, map[string]string{"formId": formID})
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle_ListsSlots(t *testing.T) {
	uc := &stubUseCase{}
	rec := doRequest(NewHandler(uc, logger.NewNop()), "2", "?from=2025-03-03&seats=2")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), uc.got.FormID)
	assert.Equal(t, 2, uc.got.MinSeats)
	assert.True(t, uc.got.EndDate.IsZero())

	var body AvailableSlotsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "2025-03-09", body.EndDate)
	require.Len(t, body.Slots, 2)
	assert.Nil(t, body.Slots[0].ID)
	require.NotNil(t, body.Slots[1].ID)
	assert.Equal(t, int64(8), *body.Slots[1].ID)
	assert.Equal(t, "2025-03-03T09:30", body.Slots[1].StartingDateTime)
}

func TestHandle_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		formID string
		query  string
	}{
		{name: "missing from", formID: "2", query: ""},
		{name: "bad from", formID: "2", query: "?from=2025/03/03"},
		{name: "bad seats", formID: "2", query: "?from=2025-03-03&seats=two"},
		{name: "bad form id", formID: "0", query: "?from=2025-03-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &stubUseCase{}
			rec := doRequest(NewHandler(uc, logger.NewNop()), tt.formID, tt.query)

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
		{name: "form not found", err: getAvailableSlots.ErrFormNotFound, status: http.StatusNotFound},
		{name: "range too large", err: getAvailableSlots.ErrRangeTooLarge, status: http.StatusBadRequest},
		{name: "internal", err: getAvailableSlots.ErrInternal, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(NewHandler(&stubUseCase{err: tt.err}, logger.NewNop()), "2", "?from=2025-03-03")
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
