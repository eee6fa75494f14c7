package get_user_appointments

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
)

const (
	msgInvalidQuery = "некорректные параметры запроса"
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

// Handle GET /api/v1/appointments
// Query params: email (required), formId, from, to (YYYY-MM-DD), includeInactive
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := QueryParams{
		Email:           query.Get("email"),
		FormID:          query.Get("formId"),
		From:            query.Get("from"),
		To:              query.Get("to"),
		IncludeInactive: query.Get("includeInactive"),
	}
	if err := handlers.Validate(&params); err != nil {
		h.logger.Warn("GET /appointments - Invalid query: %v", err)
		handlers.RespondValidationError(w, err)
		return
	}

	serviceReq, err := params.ToServiceRequest()
	if err != nil {
		h.logger.Warn("GET /appointments - Failed to parse query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.service.GetUserAppointments(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrInvalidInput):
			h.logger.Warn("GET /appointments - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidQuery)

		default:
			h.logger.Error("GET /appointments - Failed to get appointments: error=%v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /appointments - Appointments retrieved successfully: count=%d", result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
