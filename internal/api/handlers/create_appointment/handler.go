package create_appointment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	createAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateTime    = "некорректный формат времени слота, ожидается YYYY-MM-DDTHH:MM"
	msgInvalidInput       = "некорректные данные записи"
	msgFormNotFound       = "форма не найдена"
	msgSlotNotFound       = "слот не найден"
)

type Handler struct {
	useCase CreateAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase CreateAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if err := handlers.Validate(&req); err != nil {
		h.logger.Warn("POST /appointments - Validation failed: %v", err)
		handlers.RespondValidationError(w, err)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /appointments - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createAppointment.ErrFormNotFound):
			h.logger.Warn("POST /appointments - Form not found: form_id=%d", req.FormID)
			handlers.RespondNotFound(w, msgFormNotFound)

		case errors.Is(err, createAppointment.ErrSlotNotFound):
			h.logger.Warn("POST /appointments - Slot not found: slot_id=%d", req.SlotID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, createAppointment.ErrInvalidInput):
			h.logger.Warn("POST /appointments - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			if handlers.RespondDomainError(w, err) {
				h.logger.Warn("POST /appointments - Booking rejected: slot_id=%d, form_id=%d, error=%v",
					req.SlotID, req.FormID, err)
				return
			}
			h.logger.Error("POST /appointments - Failed to create appointment: slot_id=%d, form_id=%d, error=%v",
				req.SlotID, req.FormID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /appointments - Appointment created successfully: appointment_id=%d, slot_id=%d",
		result.ID, result.SlotID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
