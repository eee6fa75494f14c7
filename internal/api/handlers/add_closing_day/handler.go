package add_closing_day

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
)

const (
	msgInvalidFormID      = "некорректный ID формы"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректная дата, ожидается YYYY-MM-DD"
	msgFormNotFound       = "форма не найдена"
	msgAlreadyClosed      = "дата уже закрыта"
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

// Handle POST /api/v1/forms/{formId}/closing-days
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	formID, err := handlers.PathInt64(r, "formId")
	if err != nil {
		h.logger.Warn("POST /forms/{id}/closing-days - Invalid form ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFormID)
		return
	}

	var req AddClosingDayRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /forms/{id}/closing-days - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if err := handlers.Validate(&req); err != nil {
		h.logger.Warn("POST /forms/{id}/closing-days - Validation failed: %v", err)
		handlers.RespondValidationError(w, err)
		return
	}

	date, err := time.Parse(domain.DateFormat, req.Date)
	if err != nil {
		h.logger.Warn("POST /forms/{id}/closing-days - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	closed, err := h.service.AddClosingDay(r.Context(), formID, date)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrFormNotFound):
			h.logger.Warn("POST /forms/{id}/closing-days - Form not found: form_id=%d", formID)
			handlers.RespondNotFound(w, msgFormNotFound)

		case errors.Is(err, schedule.ErrAlreadyExists):
			h.logger.Warn("POST /forms/{id}/closing-days - Already closed: form_id=%d, date=%s", formID, req.Date)
			handlers.RespondConflict(w, msgAlreadyClosed)

		default:
			if handlers.RespondDomainError(w, err) {
				h.logger.Warn("POST /forms/{id}/closing-days - Closing rejected: form_id=%d, error=%v", formID, err)
				return
			}
			h.logger.Error("POST /forms/{id}/closing-days - Failed to close day: form_id=%d, error=%v", formID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /forms/{id}/closing-days - Day closed successfully: form_id=%d, date=%s", formID, req.Date)
	handlers.RespondJSON(w, http.StatusCreated, FromDomain(closed))
}
