package add_week_definition

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
)

const (
	msgInvalidFormID      = "некорректный ID формы"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidData        = "некорректные данные недельного шаблона"
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

// Handle POST /api/v1/forms/{formId}/week-definitions
// Шаблон, из-за которого пропали бы слоты с записями, отклоняется с 409
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	formID, err := handlers.PathInt64(r, "formId")
	if err != nil {
		h.logger.Warn("POST /forms/{id}/week-definitions - Invalid form ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFormID)
		return
	}

	var req AddWeekDefinitionRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /forms/{id}/week-definitions - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if err := handlers.Validate(&req); err != nil {
		h.logger.Warn("POST /forms/{id}/week-definitions - Validation failed: %v", err)
		handlers.RespondValidationError(w, err)
		return
	}

	serviceReq, err := req.ToServiceRequest(formID)
	if err != nil {
		h.logger.Warn("POST /forms/{id}/week-definitions - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidData)
		return
	}

	created, err := h.service.AddWeekDefinition(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrFormNotFound):
			h.logger.Warn("POST /forms/{id}/week-definitions - Form not found: form_id=%d", formID)
			handlers.RespondNotFound(w, msgFormNotFound)

		case errors.Is(err, schedule.ErrInvalidInput):
			h.logger.Warn("POST /forms/{id}/week-definitions - Invalid data: %v", err)
			handlers.RespondBadRequest(w, msgInvalidData)

		default:
			if handlers.RespondDomainError(w, err) {
				h.logger.Warn("POST /forms/{id}/week-definitions - Week definition rejected: form_id=%d, error=%v", formID, err)
				return
			}
			h.logger.Error("POST /forms/{id}/week-definitions - Failed to add week definition: form_id=%d, error=%v", formID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /forms/{id}/week-definitions - Week definition created successfully: form_id=%d, week_id=%d",
		formID, created.Week.ID)
	handlers.RespondJSON(w, http.StatusCreated, FromServiceResponse(created))
}
