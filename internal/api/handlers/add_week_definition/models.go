package add_week_definition

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// TimeSlotRequest сегмент рабочего дня
type TimeSlotRequest struct {
	StartingTime string `json:"startingTime" validate:"required,datetime=15:04"`
	EndingTime   string `json:"endingTime" validate:"required,datetime=15:04"`
	IsOpen       *bool  `json:"isOpen,omitempty"`
	MaxCapacity  int    `json:"maxCapacity" validate:"min=1,max=1000"`
}

// WorkingDayRequest рабочий день недели
type WorkingDayRequest struct {
	DayOfWeek int               `json:"dayOfWeek" validate:"min=1,max=7"`
	TimeSlots []TimeSlotRequest `json:"timeSlots" validate:"dive"`
}

// AddWeekDefinitionRequest HTTP request model
type AddWeekDefinitionRequest struct {
	ReservationRuleID *int64              `json:"reservationRuleId,omitempty" validate:"omitempty,gt=0"`
	DateOfApply       string              `json:"dateOfApply" validate:"required,datetime=2006-01-02"`
	EndingDateOfApply string              `json:"endingDateOfApply,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Days              []WorkingDayRequest `json:"days" validate:"max=7,dive"`
}

// TimeSlotResponse сохраненный сегмент
type TimeSlotResponse struct {
	ID           int64  `json:"id"`
	WorkingDayID int64  `json:"workingDayId"`
	StartingTime string `json:"startingTime"`
	EndingTime   string `json:"endingTime"`
	IsOpen       bool   `json:"isOpen"`
	MaxCapacity  int    `json:"maxCapacity"`
}

// WorkingDayResponse сохраненный рабочий день
type WorkingDayResponse struct {
	ID        int64              `json:"id"`
	DayOfWeek int                `json:"dayOfWeek"`
	TimeSlots []TimeSlotResponse `json:"timeSlots"`
}

// WeekDefinitionResponse HTTP response model
type WeekDefinitionResponse struct {
	ID                int64                `json:"id"`
	FormID            int64                `json:"formId"`
	ReservationRuleID *int64               `json:"reservationRuleId,omitempty"`
	DateOfApply       string               `json:"dateOfApply"`
	EndingDateOfApply *string              `json:"endingDateOfApply,omitempty"`
	Days              []WorkingDayResponse `json:"days"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *AddWeekDefinitionRequest) ToServiceRequest(formID int64) (*models.AddWeekDefinitionRequest, error) {
	dateOfApply, err := time.Parse(domain.DateFormat, r.DateOfApply)
	if err != nil {
		return nil, err
	}

	req := &models.AddWeekDefinitionRequest{
		FormID:            formID,
		ReservationRuleID: r.ReservationRuleID,
		DateOfApply:       dateOfApply,
		Days:              make([]models.WorkingDayRequest, 0, len(r.Days)),
	}

	if r.EndingDateOfApply != "" {
		ending, err := time.Parse(domain.DateFormat, r.EndingDateOfApply)
		if err != nil {
			return nil, err
		}
		req.EndingDateOfApply = &ending
	}

	for _, day := range r.Days {
		dayReq := models.WorkingDayRequest{
			DayOfWeek: day.DayOfWeek,
			TimeSlots: make([]models.TimeSlotRequest, 0, len(day.TimeSlots)),
		}
		for _, ts := range day.TimeSlots {
			start, err := types.NewTimeStringFromString(ts.StartingTime)
			if err != nil {
				return nil, err
			}
			end, err := types.NewTimeStringFromString(ts.EndingTime)
			if err != nil {
				return nil, err
			}
			isOpen := true // сегмент открыт, если не указано иное
			if ts.IsOpen != nil {
				isOpen = *ts.IsOpen
			}
			dayReq.TimeSlots = append(dayReq.TimeSlots, models.TimeSlotRequest{
				StartingTime: start,
				EndingTime:   end,
				IsOpen:       isOpen,
				MaxCapacity:  ts.MaxCapacity,
			})
		}
		req.Days = append(req.Days, dayReq)
	}

	return req, nil
}

// FromServiceResponse собирает ответ: сегменты группируются по рабочим дням
func FromServiceResponse(resp *models.WeekDefinitionResponse) *WeekDefinitionResponse {
	week := resp.Week
	result := &WeekDefinitionResponse{
		ID:                week.ID,
		FormID:            week.FormID,
		ReservationRuleID: week.ReservationRuleID,
		DateOfApply:       week.DateOfApply.Format(domain.DateFormat),
		Days:              make([]WorkingDayResponse, 0, len(resp.WorkingDays)),
	}
	if week.EndingDateOfApply != nil {
		result.EndingDateOfApply = ptr.Ptr(week.EndingDateOfApply.Format(domain.DateFormat))
	}

	for _, day := range resp.WorkingDays {
		dayResp := WorkingDayResponse{
			ID:        day.ID,
			DayOfWeek: day.DayOfWeek,
			TimeSlots: []TimeSlotResponse{},
		}
		for _, ts := range resp.TimeSlots {
			if ts.WorkingDayID != day.ID {
				continue
			}
			dayResp.TimeSlots = append(dayResp.TimeSlots, TimeSlotResponse{
				ID:           ts.ID,
				WorkingDayID: ts.WorkingDayID,
				StartingTime: ts.StartingTime.String(),
				EndingTime:   ts.EndingTime.String(),
				IsOpen:       ts.IsOpen,
				MaxCapacity:  ts.MaxCapacity,
			})
		}
		result.Days = append(result.Days, dayResp)
	}

	return result
}
