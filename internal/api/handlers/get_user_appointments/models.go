package get_user_appointments

import (
	"fmt"
	"strconv"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// QueryParams параметры запроса
type QueryParams struct {
	Email           string `json:"email" validate:"required,email"`
	FormID          string `json:"formId" validate:"omitempty,number"`
	From            string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To              string `json:"to" validate:"omitempty,datetime=2006-01-02"`
	IncludeInactive string `json:"includeInactive" validate:"omitempty,boolean"`
}

// ToServiceRequest формирует запрос к сервису из query параметров
func (q *QueryParams) ToServiceRequest() (*models.GetUserAppointmentsRequest, error) {
	req := &models.GetUserAppointmentsRequest{
		Email:           q.Email,
		IncludeInactive: false, // По умолчанию только активные
	}

	if q.FormID != "" {
		formID, err := strconv.ParseInt(q.FormID, 10, 64)
		if err != nil {
			return nil, err
		}
		req.FormID = &formID
	}

	if q.From != "" {
		from, err := time.Parse(domain.DateFormat, q.From)
		if err != nil {
			return nil, err
		}
		req.StartDate = &from
	}

	if q.To != "" {
		to, err := time.Parse(domain.DateFormat, q.To)
		if err != nil {
			return nil, err
		}
		req.EndDate = &to
	}

	if q.IncludeInactive != "" {
		includeInactive, err := strconv.ParseBool(q.IncludeInactive)
		if err != nil {
			return nil, fmt.Errorf("invalid includeInactive value: %w", err)
		}
		req.IncludeInactive = includeInactive
	}

	return req, nil
}
