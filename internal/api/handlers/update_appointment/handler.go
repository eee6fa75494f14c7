package update_appointment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	createAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
)

const (
	msgInvalidAppointmentID = "некорректный ID записи"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidDateTime      = "некорректный формат времени слота, ожидается YYYY-MM-DDTHH:MM"
	msgInvalidInput         = "некорректные данные записи"
	msgNotFound             = "запись не найдена"
	msgSlotNotFound         = "слот не найден"
	msgAlreadyCancelled     = "запись отменена и не может быть изменена"
)

type Handler struct {
	service AppointmentService
	logger  Logger
}

func NewHandler(service AppointmentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PUT /api/v1/appointments/{id}
// Перенос выполняется как отмена и новая запись: в ответе новая запись
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := handlers.PathInt64(r, "id")
	if err != nil {
		h.logger.Warn("PUT /appointments/{id} - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	var req UpdateAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /appointments/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if err := handlers.Validate(&req); err != nil {
		h.logger.Warn("PUT /appointments/{id} - Validation failed: %v", err)
		handlers.RespondValidationError(w, err)
		return
	}

	serviceReq, err := req.ToServiceRequest()
	if err != nil {
		h.logger.Warn("PUT /appointments/{id} - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateTime)
		return
	}

	updated, err := h.service.Update(r.Context(), appointmentID, serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			h.logger.Warn("PUT /appointments/{id} - Appointment not found: appointment_id=%d", appointmentID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, appointments.ErrAlreadyCancelled):
			h.logger.Warn("PUT /appointments/{id} - Appointment cancelled: appointment_id=%d", appointmentID)
			handlers.RespondConflict(w, msgAlreadyCancelled)

		case errors.Is(err, createAppointment.ErrSlotNotFound), errors.Is(err, createAppointment.ErrFormNotFound):
			h.logger.Warn("PUT /appointments/{id} - Target slot not found: appointment_id=%d", appointmentID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, appointments.ErrInvalidInput), errors.Is(err, createAppointment.ErrInvalidInput):
			h.logger.Warn("PUT /appointments/{id} - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			if handlers.RespondDomainError(w, err) {
				h.logger.Warn("PUT /appointments/{id} - Rebooking rejected: appointment_id=%d, error=%v", appointmentID, err)
				return
			}
			h.logger.Error("PUT /appointments/{id} - Failed to update appointment: appointment_id=%d, error=%v",
				appointmentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /appointments/{id} - Appointment updated successfully: old_id=%d, new_id=%d",
		appointmentID, updated.ID)
	handlers.RespondJSON(w, http.StatusOK, updated)
}
