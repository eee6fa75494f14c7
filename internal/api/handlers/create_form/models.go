package create_form

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

// CreateFormRequest HTTP request model
type CreateFormRequest struct {
	Title                           string `json:"title" validate:"required,max=255"`
	Description                     string `json:"description" validate:"max=2000"`
	StartDate                       string `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate                         string `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsActive                        *bool  `json:"isActive,omitempty"`
	NbMaxAppointmentsPerUser        int    `json:"nbMaxAppointmentsPerUser" validate:"min=0"`
	NbDaysForMaxAppointmentsPerUser int    `json:"nbDaysForMaxAppointmentsPerUser" validate:"min=0"`
	NbDaysBeforeNewAppointment      int    `json:"nbDaysBeforeNewAppointment" validate:"min=0"`
	MinTimeBeforeAppointmentMinutes int    `json:"minTimeBeforeAppointmentMinutes" validate:"min=0"`
}

// FormResponse HTTP response model
type FormResponse struct {
	ID                              int64   `json:"id"`
	Title                           string  `json:"title"`
	Description                     string  `json:"description"`
	StartDate                       *string `json:"startDate,omitempty"`
	EndDate                         *string `json:"endDate,omitempty"`
	IsActive                        bool    `json:"isActive"`
	NbMaxAppointmentsPerUser        int     `json:"nbMaxAppointmentsPerUser"`
	NbDaysForMaxAppointmentsPerUser int     `json:"nbDaysForMaxAppointmentsPerUser"`
	NbDaysBeforeNewAppointment      int     `json:"nbDaysBeforeNewAppointment"`
	MinTimeBeforeAppointmentMinutes int     `json:"minTimeBeforeAppointmentMinutes"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *CreateFormRequest) ToServiceRequest() (*models.CreateFormRequest, error) {
	req := &models.CreateFormRequest{
		Title:                           r.Title,
		Description:                     r.Description,
		IsActive:                        true, // по умолчанию форма сразу принимает записи
		NbMaxAppointmentsPerUser:        r.NbMaxAppointmentsPerUser,
		NbDaysForMaxAppointmentsPerUser: r.NbDaysForMaxAppointmentsPerUser,
		NbDaysBeforeNewAppointment:      r.NbDaysBeforeNewAppointment,
		MinTimeBeforeAppointmentMinutes: r.MinTimeBeforeAppointmentMinutes,
	}
	if r.IsActive != nil {
		req.IsActive = ptr.Value(r.IsActive)
	}

	if r.StartDate != "" {
		start, err := time.Parse(domain.DateFormat, r.StartDate)
		if err != nil {
			return nil, err
		}
		req.StartDate = &start
	}
	if r.EndDate != "" {
		end, err := time.Parse(domain.DateFormat, r.EndDate)
		if err != nil {
			return nil, err
		}
		req.EndDate = &end
	}

	return req, nil
}

// FromDomain конвертирует форму в HTTP ответ
func FromDomain(f *domain.Form) *FormResponse {
	resp := &FormResponse{
		ID:                              f.ID,
		Title:                           f.Title,
		Description:                     f.Description,
		IsActive:                        f.IsActive,
		NbMaxAppointmentsPerUser:        f.NbMaxAppointmentsPerUser,
		NbDaysForMaxAppointmentsPerUser: f.NbDaysForMaxAppointmentsPerUser,
		NbDaysBeforeNewAppointment:      f.NbDaysBeforeNewAppointment,
		MinTimeBeforeAppointmentMinutes: f.MinTimeBeforeAppointmentMinutes,
	}
	if f.StartDate != nil {
		resp.StartDate = ptr.Ptr(f.StartDate.Format(domain.DateFormat))
	}
	if f.EndDate != nil {
		resp.EndDate = ptr.Ptr(f.EndDate.Format(domain.DateFormat))
	}
	return resp
}
