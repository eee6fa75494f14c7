package override_slot

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
)

const (
	msgInvalidFormID      = "некорректный ID формы"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidData        = "некорректные данные слота"
	msgFormNotFound       = "форма не найдена"
	msgCapacityBelowTaken = "емкость меньше уже занятых мест"
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

// Handle PUT /api/v1/forms/{formId}/slots
// Открывает, закрывает или меняет емкость слота с точным интервалом
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	formID, err := handlers.PathInt64(r, "formId")
	if err != nil {
		h.logger.Warn("PUT /forms/{id}/slots - Invalid form ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFormID)
		return
	}

	var req OverrideSlotRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /forms/{id}/slots - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if err := handlers.Validate(&req); err != nil {
		h.logger.Warn("PUT /forms/{id}/slots - Validation failed: %v", err)
		handlers.RespondValidationError(w, err)
		return
	}

	serviceReq, err := req.ToServiceRequest(formID)
	if err != nil {
		h.logger.Warn("PUT /forms/{id}/slots - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidData)
		return
	}

	slot, err := h.service.OverrideSlot(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrFormNotFound):
			h.logger.Warn("PUT /forms/{id}/slots - Form not found: form_id=%d", formID)
			handlers.RespondNotFound(w, msgFormNotFound)

		case errors.Is(err, schedule.ErrCapacityBelowTaken):
			h.logger.Warn("PUT /forms/{id}/slots - Capacity below taken: form_id=%d, error=%v", formID, err)
			handlers.RespondConflict(w, msgCapacityBelowTaken)

		case errors.Is(err, schedule.ErrInvalidInput):
			h.logger.Warn("PUT /forms/{id}/slots - Invalid data: %v", err)
			handlers.RespondBadRequest(w, msgInvalidData)

		default:
			if handlers.RespondDomainError(w, err) {
				h.logger.Warn("PUT /forms/{id}/slots - Override rejected: form_id=%d, error=%v", formID, err)
				return
			}
			h.logger.Error("PUT /forms/{id}/slots - Failed to override slot: form_id=%d, error=%v", formID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /forms/{id}/slots - Slot overridden successfully: form_id=%d, slot_id=%d", formID, slot.ID)
	handlers.RespondJSON(w, http.StatusOK, FromDomain(slot))
}
