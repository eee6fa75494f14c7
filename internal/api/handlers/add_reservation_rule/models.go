package add_reservation_rule

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
)

// AddReservationRuleRequest HTTP request model
type AddReservationRuleRequest struct {
	Name                    string `json:"name" validate:"max=255"`
	DateOfApply             string `json:"dateOfApply" validate:"required,datetime=2006-01-02"`
	MaxCapacityPerSlot      int    `json:"maxCapacityPerSlot" validate:"min=0,max=1000"`
	MaxPeoplePerAppointment int    `json:"maxPeoplePerAppointment" validate:"min=0,max=100"`
}

// ReservationRuleResponse HTTP response model
type ReservationRuleResponse struct {
	ID                      int64  `json:"id"`
	FormID                  int64  `json:"formId"`
	Name                    string `json:"name"`
	DateOfApply             string `json:"dateOfApply"`
	MaxCapacityPerSlot      int    `json:"maxCapacityPerSlot"`
	MaxPeoplePerAppointment int    `json:"maxPeoplePerAppointment"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *AddReservationRuleRequest) ToServiceRequest(formID int64) (*models.AddReservationRuleRequest, error) {
	dateOfApply, err := time.Parse(domain.DateFormat, r.DateOfApply)
	if err != nil {
		return nil, err
	}

	return &models.AddReservationRuleRequest{
		FormID:                  formID,
		Name:                    r.Name,
		DateOfApply:             dateOfApply,
		MaxCapacityPerSlot:      r.MaxCapacityPerSlot,
		MaxPeoplePerAppointment: r.MaxPeoplePerAppointment,
	}, nil
}

// FromDomain конвертирует правило в HTTP ответ
func FromDomain(rule *domain.ReservationRule) *ReservationRuleResponse {
	return &ReservationRuleResponse{
		ID:                      rule.ID,
		FormID:                  rule.FormID,
		Name:                    rule.Name,
		DateOfApply:             rule.DateOfApply.Format(domain.DateFormat),
		MaxCapacityPerSlot:      rule.MaxCapacityPerSlot,
		MaxPeoplePerAppointment: rule.MaxPeoplePerAppointment,
	}
}
