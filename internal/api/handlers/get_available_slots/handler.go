package get_available_slots

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

const (
	msgInvalidFormID = "некорректный ID формы"
	msgInvalidDate   = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidInput  = "некорректные параметры запроса"
	msgRangeTooLarge = "слишком большой диапазон дат"
	msgFormNotFound  = "форма не найдена"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/forms/{formId}/available-slots
// Query params: from (required, YYYY-MM-DD), to (YYYY-MM-DD), seats
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	formID, err := handlers.PathInt64(r, "formId")
	if err != nil {
		h.logger.Warn("GET /forms/{id}/available-slots - Invalid form ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFormID)
		return
	}

	query := r.URL.Query()
	params := QueryParams{
		From:  query.Get("from"),
		To:    query.Get("to"),
		Seats: query.Get("seats"),
	}
	if err := handlers.Validate(&params); err != nil {
		h.logger.Warn("GET /forms/{id}/available-slots - Invalid query: %v", err)
		handlers.RespondValidationError(w, err)
		return
	}

	useCaseReq, err := params.ToUseCaseRequest(formID)
	if err != nil {
		h.logger.Warn("GET /forms/{id}/available-slots - Invalid date format: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrFormNotFound):
			h.logger.Warn("GET /forms/{id}/available-slots - Form not found: form_id=%d", formID)
			handlers.RespondNotFound(w, msgFormNotFound)

		case errors.Is(err, getAvailableSlots.ErrRangeTooLarge):
			h.logger.Warn("GET /forms/{id}/available-slots - Range too large: form_id=%d", formID)
			handlers.RespondBadRequest(w, msgRangeTooLarge)

		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /forms/{id}/available-slots - Invalid input: form_id=%d, error=%v", formID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			if handlers.RespondDomainError(w, err) {
				h.logger.Warn("GET /forms/{id}/available-slots - Schedule error: form_id=%d, error=%v", formID, err)
				return
			}
			h.logger.Error("GET /forms/{id}/available-slots - Failed to get slots: form_id=%d, error=%v", formID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /forms/{id}/available-slots - Slots retrieved successfully: form_id=%d, slots_count=%d",
		formID, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
