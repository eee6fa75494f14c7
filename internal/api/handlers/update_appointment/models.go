package update_appointment

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// UserRequest новые данные пользователя
type UserRequest struct {
	Email     string  `json:"email" validate:"omitempty,email"`
	FirstName string  `json:"firstName" validate:"max=100"`
	LastName  string  `json:"lastName" validate:"max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// UpdateAppointmentRequest HTTP request model
// Незаданные поля берутся из текущей записи
type UpdateAppointmentRequest struct {
	SlotID           int64        `json:"slotId,omitempty" validate:"omitempty,gt=0"`
	StartingDateTime string       `json:"startingDateTime,omitempty" validate:"required_with=EndingDateTime,omitempty,datetime=2006-01-02T15:04"`
	EndingDateTime   string       `json:"endingDateTime,omitempty" validate:"required_with=StartingDateTime,omitempty,datetime=2006-01-02T15:04"`
	NbSeats          int          `json:"nbSeats,omitempty" validate:"omitempty,min=1,max=100"`
	User             *UserRequest `json:"user,omitempty"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *UpdateAppointmentRequest) ToServiceRequest() (*models.UpdateAppointmentRequest, error) {
	req := &models.UpdateAppointmentRequest{
		SlotID:  r.SlotID,
		NbSeats: r.NbSeats,
	}

	if r.StartingDateTime != "" && r.EndingDateTime != "" {
		start, err := time.Parse(domain.DateTimeFormat, r.StartingDateTime)
		if err != nil {
			return nil, err
		}
		end, err := time.Parse(domain.DateTimeFormat, r.EndingDateTime)
		if err != nil {
			return nil, err
		}
		req.StartingDateTime = &start
		req.EndingDateTime = &end
	}

	if r.User != nil {
		req.User = &domain.UserInfo{
			Email:     r.User.Email,
			FirstName: r.User.FirstName,
			LastName:  r.User.LastName,
			Phone:     r.User.Phone,
		}
	}

	return req, nil
}
