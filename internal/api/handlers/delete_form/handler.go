package delete_form

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
)

const (
	msgInvalidFormID = "некорректный ID формы"
	msgNotFound      = "форма не найдена"
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

// Handle DELETE /api/v1/forms/{formId}
// Удаляет форму вместе с правилами, слотами и записями
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	formID, err := handlers.PathInt64(r, "formId")
	if err != nil {
		h.logger.Warn("DELETE /forms/{id} - Invalid form ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFormID)
		return
	}

	if err := h.service.DeleteForm(r.Context(), formID); err != nil {
		switch {
		case errors.Is(err, schedule.ErrFormNotFound):
			h.logger.Warn("DELETE /forms/{id} - Form not found: form_id=%d", formID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("DELETE /forms/{id} - Failed to delete form: form_id=%d, error=%v", formID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /forms/{id} - Form deleted successfully: form_id=%d", formID)
	w.WriteHeader(http.StatusNoContent)
}
