package create_appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.NbSeats < 1 {
		return fmt.Errorf("%w: nbSeats must be positive", ErrInvalidInput)
	}

	if req.NbSeats > domain.MaxSeatsPerAppointment {
		return fmt.Errorf("%w: nbSeats must not exceed %d", ErrInvalidInput, domain.MaxSeatsPerAppointment)
	}

	if strings.TrimSpace(req.User.Email) == "" {
		return fmt.Errorf("%w: user email is required", ErrInvalidInput)
	}

	if req.SlotID > 0 {
		return nil
	}

	// Слот еще не сохранен - нужны форма и интервал
	if req.FormID <= 0 {
		return fmt.Errorf("%w: slotID or formID must be set", ErrInvalidInput)
	}

	if req.StartingDateTime.IsZero() || req.EndingDateTime.IsZero() {
		return fmt.Errorf("%w: slot start and end are required", ErrInvalidInput)
	}

	if !req.EndingDateTime.After(req.StartingDateTime) {
		return fmt.Errorf("%w: slot end must be after start", domain.ErrInvalidTimeRange)
	}

	return nil
}

// validateBookingTime проверяет, что до начала слота осталось не меньше minTimeBeforeAppointment
func validateBookingTime(slot *domain.Slot, now time.Time, minutesBefore int) error {
	deadline := now.Add(time.Duration(minutesBefore) * time.Minute)
	if slot.StartingDateTime.Before(deadline) {
		return domain.NewBusinessRuleError(domain.ReasonTooLateToBook,
			"slot starts at %s, booking closes %d minutes before", slot.StartingDateTime.Format(domain.DateTimeFormat), minutesBefore)
	}
	return nil
}

// validateSeats проверяет ограничение мест на одну запись из правила бронирования
func validateSeats(rule *domain.ReservationRule, seats int) error {
	if rule == nil || rule.MaxPeoplePerAppointment == 0 {
		return nil
	}
	if seats > rule.MaxPeoplePerAppointment {
		return domain.NewBusinessRuleError(domain.ReasonTooManySeatsRequested,
			"%d seats requested, at most %d per appointment", seats, rule.MaxPeoplePerAppointment)
	}
	return nil
}

// validateMaxAppointments проверяет лимит активных записей пользователя
// во всех окнах из nbDaysForMaxAppointmentsPerUser дней, содержащих дату слота
// Новая запись учитывается в каждом окне вместе с существующими
func validateMaxAppointments(form *domain.Form, slotDate time.Time, appointments []*domain.Appointment) error {
	if !form.HasMaxAppointmentsRule() {
		return nil
	}

	date := domain.DateOnly(slotDate)
	span := form.NbDaysForMaxAppointmentsPerUser - 1

	for shift := 0; shift <= span; shift++ {
		windowEnd := date.AddDate(0, 0, shift)
		windowStart := windowEnd.AddDate(0, 0, -span)

		count := 1
		for _, a := range appointments {
			if !a.IsActive() {
				continue
			}
			day := a.Date()
			if !day.Before(windowStart) && !day.After(windowEnd) {
				count++
			}
		}

		if count > form.NbMaxAppointmentsPerUser {
			return domain.NewBusinessRuleError(domain.ReasonTooManyAppointments,
				"%d appointments between %s and %s with the new one, limit %d", count,
				windowStart.Format(domain.DateFormat), windowEnd.Format(domain.DateFormat), form.NbMaxAppointmentsPerUser)
		}
	}
	return nil
}

// validateDelayBetweenAppointments проверяет минимальный интервал в днях
// до ближайшей активной записи пользователя с любой стороны
func validateDelayBetweenAppointments(form *domain.Form, slotDate time.Time, appointments []*domain.Appointment) error {
	if !form.HasDelayBetweenAppointmentsRule() {
		return nil
	}

	nearest := -1
	var nearestDate time.Time
	for _, a := range appointments {
		if !a.IsActive() {
			continue
		}
		diff := domain.DaysBetween(a.Date(), slotDate)
		if diff < 0 {
			diff = -diff
		}
		if nearest == -1 || diff < nearest {
			nearest = diff
			nearestDate = a.Date()
		}
	}

	if nearest != -1 && nearest < form.NbDaysBeforeNewAppointment {
		return domain.NewBusinessRuleError(domain.ReasonTooSoonAfterPrevious,
			"nearest appointment on %s is %d days away, %d required",
			nearestDate.Format(domain.DateFormat), nearest, form.NbDaysBeforeNewAppointment)
	}
	return nil
}
