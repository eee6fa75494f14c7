package schedule

import (
	"fmt"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
)

// validateForm валидирует параметры формы
func validateForm(req *models.CreateFormRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidInput)
	}

	if req.NbMaxAppointmentsPerUser < 0 || req.NbDaysForMaxAppointmentsPerUser < 0 ||
		req.NbDaysBeforeNewAppointment < 0 || req.MinTimeBeforeAppointmentMinutes < 0 {
		return fmt.Errorf("%w: booking policy values must not be negative", ErrInvalidInput)
	}

	// Лимит записей имеет смысл только вместе с окном
	if (req.NbMaxAppointmentsPerUser > 0) != (req.NbDaysForMaxAppointmentsPerUser > 0) {
		return fmt.Errorf("%w: max appointments and its window must be set together", ErrInvalidInput)
	}

	return nil
}

// validateReservationRule валидирует правило бронирования
func validateReservationRule(req *models.AddReservationRuleRequest) error {
	if req.DateOfApply.IsZero() {
		return fmt.Errorf("%w: dateOfApply is required", ErrInvalidInput)
	}

	if req.MaxCapacityPerSlot < 0 || req.MaxCapacityPerSlot > domain.MaxSlotCapacity {
		return fmt.Errorf("%w: maxCapacityPerSlot must be between 0 and %d", ErrInvalidInput, domain.MaxSlotCapacity)
	}

	if req.MaxPeoplePerAppointment < 0 || req.MaxPeoplePerAppointment > domain.MaxSeatsPerAppointment {
		return fmt.Errorf("%w: maxPeoplePerAppointment must be between 0 and %d", ErrInvalidInput, domain.MaxSeatsPerAppointment)
	}

	return nil
}

// validateWeekDefinition валидирует недельный шаблон: дни недели, интервалы и пересечения сегментов
func validateWeekDefinition(req *models.AddWeekDefinitionRequest) error {
	if req.DateOfApply.IsZero() {
		return fmt.Errorf("%w: dateOfApply is required", ErrInvalidInput)
	}

	if req.EndingDateOfApply != nil && domain.DateOnly(*req.EndingDateOfApply).Before(domain.DateOnly(req.DateOfApply)) {
		return fmt.Errorf("%w: ending date before dateOfApply", domain.ErrInvalidTimeRange)
	}

	seen := make(map[int]struct{}, len(req.Days))
	for _, day := range req.Days {
		if day.DayOfWeek < domain.MinDayOfWeek || day.DayOfWeek > domain.MaxDayOfWeek {
			return fmt.Errorf("%w: dayOfWeek must be between %d and %d, got %d",
				ErrInvalidInput, domain.MinDayOfWeek, domain.MaxDayOfWeek, day.DayOfWeek)
		}
		if _, ok := seen[day.DayOfWeek]; ok {
			return fmt.Errorf("%w: dayOfWeek %d listed twice", ErrInvalidInput, day.DayOfWeek)
		}
		seen[day.DayOfWeek] = struct{}{}

		segments := make([]*domain.TimeSlot, 0, len(day.TimeSlots))
		for _, tsReq := range day.TimeSlots {
			ts := &domain.TimeSlot{
				StartingTime: tsReq.StartingTime,
				EndingTime:   tsReq.EndingTime,
				IsOpen:       tsReq.IsOpen,
				MaxCapacity:  tsReq.MaxCapacity,
			}
			if !ts.HasValidRange() {
				return fmt.Errorf("%w: day %d segment %s-%s", domain.ErrInvalidTimeRange,
					day.DayOfWeek, tsReq.StartingTime, tsReq.EndingTime)
			}
			if ts.MaxCapacity < domain.MinSlotCapacity || ts.MaxCapacity > domain.MaxSlotCapacity {
				return fmt.Errorf("%w: segment capacity must be between %d and %d",
					ErrInvalidInput, domain.MinSlotCapacity, domain.MaxSlotCapacity)
			}
			for _, other := range segments {
				if ts.Overlaps(other) {
					return fmt.Errorf("%w: day %d segments %s-%s and %s-%s overlap", domain.ErrInvalidTimeRange,
						day.DayOfWeek, ts.StartingTime, ts.EndingTime, other.StartingTime, other.EndingTime)
				}
			}
			segments = append(segments, ts)
		}
	}

	return nil
}

// validateOverride валидирует ручное изменение слота
func validateOverride(req *models.OverrideSlotRequest) error {
	if req.FormID <= 0 {
		return fmt.Errorf("%w: formID must be positive", ErrInvalidInput)
	}

	if !req.EndingDateTime.After(req.StartingDateTime) {
		return fmt.Errorf("%w: slot end must be after start", domain.ErrInvalidTimeRange)
	}

	if !domain.DateOnly(req.StartingDateTime).Equal(domain.DateOnly(req.EndingDateTime.Add(-1))) {
		return fmt.Errorf("%w: slot must not span several days", domain.ErrInvalidTimeRange)
	}

	if req.MaxCapacity != nil && (*req.MaxCapacity < 0 || *req.MaxCapacity > domain.MaxSlotCapacity) {
		return fmt.Errorf("%w: capacity must be between 0 and %d", ErrInvalidInput, domain.MaxSlotCapacity)
	}

	return nil
}
