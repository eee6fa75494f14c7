package remove_closing_day

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
)

const (
	msgInvalidFormID = "некорректный ID формы"
	msgInvalidDate   = "некорректная дата, ожидается YYYY-MM-DD"
	msgNotFound      = "дата не закрыта"
)

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle DELETE /api/v1/forms/{formId}/closing-days/{date}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	formID, err := handlers.PathInt64(r, "formId")
	if err != nil {
		h.logger.Warn("DELETE /forms/{id}/closing-days/{date} - Invalid form ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFormID)
		return
	}

	dateStr := mux.Vars(r)["date"]
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		h.logger.Warn("DELETE /forms/{id}/closing-days/{date} - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	if err := h.service.RemoveClosingDay(r.Context(), formID, date); err != nil {
		switch {
		case errors.Is(err, schedule.ErrClosingDayNotFound):
			h.logger.Warn("DELETE /forms/{id}/closing-days/{date} - Not closed: form_id=%d, date=%s", formID, dateStr)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("DELETE /forms/{id}/closing-days/{date} - Failed to reopen day: form_id=%d, error=%v", formID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /forms/{id}/closing-days/{date} - Day reopened successfully: form_id=%d, date=%s", formID, dateStr)
	w.WriteHeader(http.StatusNoContent)
}
