package add_reservation_rule

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
)

const (
	msgInvalidFormID      = "некорректный ID формы"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidData        = "некорректные данные правила"
	msgFormNotFound       = "форма не найдена"
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

// Handle POST /api/v1/forms/{formId}/reservation-rules
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	formID, err := handlers.PathInt64(r, "formId")
	if err != nil {
		h.logger.Warn("POST /forms/{id}/reservation-rules - Invalid form ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFormID)
		return
	}

	var req AddReservationRuleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /forms/{id}/reservation-rules - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if err := handlers.Validate(&req); err != nil {
		h.logger.Warn("POST /forms/{id}/reservation-rules - Validation failed: %v", err)
		handlers.RespondValidationError(w, err)
		return
	}

	serviceReq, err := req.ToServiceRequest(formID)
	if err != nil {
		h.logger.Warn("POST /forms/{id}/reservation-rules - Failed to parse date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidData)
		return
	}

	rule, err := h.service.AddReservationRule(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrFormNotFound):
			h.logger.Warn("POST /forms/{id}/reservation-rules - Form not found: form_id=%d", formID)
			handlers.RespondNotFound(w, msgFormNotFound)

		case errors.Is(err, schedule.ErrInvalidInput):
			h.logger.Warn("POST /forms/{id}/reservation-rules - Invalid data: %v", err)
			handlers.RespondBadRequest(w, msgInvalidData)

		default:
			if handlers.RespondDomainError(w, err) {
				h.logger.Warn("POST /forms/{id}/reservation-rules - Rule rejected: form_id=%d, error=%v", formID, err)
				return
			}
			h.logger.Error("POST /forms/{id}/reservation-rules - Failed to add rule: form_id=%d, error=%v", formID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /forms/{id}/reservation-rules - Rule created successfully: form_id=%d, rule_id=%d", formID, rule.ID)
	handlers.RespondJSON(w, http.StatusCreated, FromDomain(rule))
}
