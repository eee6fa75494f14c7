package create_appointment

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	createAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
)

// UserRequest данные пользователя
type UserRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	FirstName string  `json:"firstName" validate:"max=100"`
	LastName  string  `json:"lastName" validate:"max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// ToDomain конвертирует в domain.UserInfo
func (u UserRequest) ToDomain() domain.UserInfo {
	return domain.UserInfo{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

// CreateAppointmentRequest HTTP request model
// Слот задается либо slotId, либо formId и точным интервалом из списка доступных слотов
type CreateAppointmentRequest struct {
	SlotID           int64       `json:"slotId,omitempty" validate:"omitempty,gt=0"`
	FormID           int64       `json:"formId,omitempty" validate:"required_without=SlotID,omitempty,gt=0"`
	StartingDateTime string      `json:"startingDateTime,omitempty" validate:"required_without=SlotID,omitempty,datetime=2006-01-02T15:04"`
	EndingDateTime   string      `json:"endingDateTime,omitempty" validate:"required_without=SlotID,omitempty,datetime=2006-01-02T15:04"`
	User             UserRequest `json:"user" validate:"required"`
	NbSeats          int         `json:"nbSeats" validate:"required,min=1,max=100"`
}

// AppointmentResponse HTTP response model
type AppointmentResponse struct {
	models.AppointmentResponse
	NbRemainingPlaces int `json:"nbRemainingPlaces"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateAppointmentRequest) ToUseCaseRequest() (*createAppointment.Request, error) {
	req := &createAppointment.Request{
		SlotID:  r.SlotID,
		FormID:  r.FormID,
		User:    r.User.ToDomain(),
		NbSeats: r.NbSeats,
	}

	if r.StartingDateTime != "" {
		start, err := time.Parse(domain.DateTimeFormat, r.StartingDateTime)
		if err != nil {
			return nil, err
		}
		req.StartingDateTime = start
	}

	if r.EndingDateTime != "" {
		end, err := time.Parse(domain.DateTimeFormat, r.EndingDateTime)
		if err != nil {
			return nil, err
		}
		req.EndingDateTime = end
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP модель
func FromUseCaseResponse(resp *createAppointment.Response) *AppointmentResponse {
	appointment := models.FromDomainAppointment(&domain.Appointment{
		ID:               resp.ID,
		Reference:        resp.Reference,
		SlotID:           resp.SlotID,
		FormID:           resp.FormID,
		StartingDateTime: resp.StartingDateTime,
		EndingDateTime:   resp.EndingDateTime,
		User:             resp.User,
		NbBookedSeats:    resp.NbBookedSeats,
		CreatedAt:        resp.CreatedAt,
		UpdatedAt:        resp.CreatedAt,
	})
	return &AppointmentResponse{
		AppointmentResponse: *appointment,
		NbRemainingPlaces:   resp.NbRemainingPlaces,
	}
}
