package override_slot

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
)

// OverrideSlotRequest HTTP request model
// Незаданные isOpen и maxCapacity не меняются
type OverrideSlotRequest struct {
	StartingDateTime string `json:"startingDateTime" validate:"required,datetime=2006-01-02T15:04"`
	EndingDateTime   string `json:"endingDateTime" validate:"required,datetime=2006-01-02T15:04"`
	IsOpen           *bool  `json:"isOpen,omitempty"`
	MaxCapacity      *int   `json:"maxCapacity,omitempty" validate:"omitempty,min=0,max=1000"`
}

// SlotResponse HTTP response model
type SlotResponse struct {
	ID                int64  `json:"id"`
	FormID            int64  `json:"formId"`
	StartingDateTime  string `json:"startingDateTime"`
	EndingDateTime    string `json:"endingDateTime"`
	IsOpen            bool   `json:"isOpen"`
	IsSpecific        bool   `json:"isSpecific"`
	MaxCapacity       int    `json:"maxCapacity"`
	NbPlacesTaken     int    `json:"nbPlacesTaken"`
	NbRemainingPlaces int    `json:"nbRemainingPlaces"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *OverrideSlotRequest) ToServiceRequest(formID int64) (*models.OverrideSlotRequest, error) {
	start, err := time.Parse(domain.DateTimeFormat, r.StartingDateTime)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(domain.DateTimeFormat, r.EndingDateTime)
	if err != nil {
		return nil, err
	}

	return &models.OverrideSlotRequest{
		FormID:           formID,
		StartingDateTime: start,
		EndingDateTime:   end,
		IsOpen:           r.IsOpen,
		MaxCapacity:      r.MaxCapacity,
	}, nil
}

// FromDomain конвертирует слот в HTTP ответ
func FromDomain(s *domain.Slot) *SlotResponse {
	return &SlotResponse{
		ID:                s.ID,
		FormID:            s.FormID,
		StartingDateTime:  s.StartingDateTime.Format(domain.DateTimeFormat),
		EndingDateTime:    s.EndingDateTime.Format(domain.DateTimeFormat),
		IsOpen:            s.IsOpen,
		IsSpecific:        s.IsSpecific,
		MaxCapacity:       s.MaxCapacity,
		NbPlacesTaken:     s.NbPlacesTaken,
		NbRemainingPlaces: s.NbRemainingPlaces,
	}
}
