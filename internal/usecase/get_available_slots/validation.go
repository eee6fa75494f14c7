package get_available_slots

import (
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest валидирует входные данные запроса и заполняет значения по умолчанию
func validateRequest(req *Request, maxRangeDays int) error {
	if req.FormID <= 0 {
		return fmt.Errorf("%w: formID must be positive", ErrInvalidInput)
	}

	// Проверяем, что дата не является нулевой
	if req.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}
	req.StartDate = domain.DateOnly(req.StartDate)

	if req.EndDate.IsZero() {
		req.EndDate = req.StartDate.AddDate(0, 0, domain.DefaultQueryRangeDays-1)
	}
	req.EndDate = domain.DateOnly(req.EndDate)

	if req.EndDate.Before(req.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidInput)
	}

	if days := domain.DaysBetween(req.StartDate, req.EndDate) + 1; days > maxRangeDays {
		return fmt.Errorf("%w: %d days requested, at most %d allowed", ErrRangeTooLarge, days, maxRangeDays)
	}

	if req.MinSeats < 0 {
		return fmt.Errorf("%w: minSeats must not be negative", ErrInvalidInput)
	}
	if req.MinSeats == 0 {
		req.MinSeats = domain.DefaultMinRemainingSeat
	}

	return nil
}
