package models

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// CreateFormRequest запрос на создание формы
type CreateFormRequest struct {
	Title                           string
	Description                     string
	StartDate                       *time.Time
	EndDate                         *time.Time
	IsActive                        bool
	NbMaxAppointmentsPerUser        int
	NbDaysForMaxAppointmentsPerUser int
	NbDaysBeforeNewAppointment      int
	MinTimeBeforeAppointmentMinutes int
}

// ToDomainForm конвертирует запрос в domain.Form
func (r *CreateFormRequest) ToDomainForm() *domain.Form {
	form := &domain.Form{
		Title:                           r.Title,
		Description:                     r.Description,
		IsActive:                        r.IsActive,
		NbMaxAppointmentsPerUser:        r.NbMaxAppointmentsPerUser,
		NbDaysForMaxAppointmentsPerUser: r.NbDaysForMaxAppointmentsPerUser,
		NbDaysBeforeNewAppointment:      r.NbDaysBeforeNewAppointment,
		MinTimeBeforeAppointmentMinutes: r.MinTimeBeforeAppointmentMinutes,
	}
	if r.StartDate != nil {
		start := domain.DateOnly(*r.StartDate)
		form.StartDate = &start
	}
	if r.EndDate != nil {
		end := domain.DateOnly(*r.EndDate)
		form.EndDate = &end
	}
	return form
}

// AddReservationRuleRequest запрос на добавление правила бронирования
type AddReservationRuleRequest struct {
	FormID                  int64
	Name                    string
	DateOfApply             time.Time
	MaxCapacityPerSlot      int // 0 - емкость берется из сегмента
	MaxPeoplePerAppointment int // 0 - без ограничения
}

// TimeSlotRequest сегмент рабочего дня
type TimeSlotRequest struct {
	StartingTime types.TimeString
	EndingTime   types.TimeString
	IsOpen       bool
	MaxCapacity  int
}

// WorkingDayRequest рабочий день недели со своими сегментами
type WorkingDayRequest struct {
	DayOfWeek int // 1 - понедельник ... 7 - воскресенье
	TimeSlots []TimeSlotRequest
}

// AddWeekDefinitionRequest запрос на добавление недельного шаблона
type AddWeekDefinitionRequest struct {
	FormID            int64
	ReservationRuleID *int64
	DateOfApply       time.Time
	EndingDateOfApply *time.Time
	Days              []WorkingDayRequest
}

// OverrideSlotRequest запрос на ручное изменение слота
// Нулевые поля не меняются
type OverrideSlotRequest struct {
	FormID           int64
	StartingDateTime time.Time
	EndingDateTime   time.Time
	IsOpen           *bool
	MaxCapacity      *int
}

// WeekDefinitionResponse созданный недельный шаблон
type WeekDefinitionResponse struct {
	Week        *domain.WeekDefinition
	WorkingDays []*domain.WorkingDay
	TimeSlots   []*domain.TimeSlot
}
