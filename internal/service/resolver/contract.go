package resolver

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// CatalogRepository чтение слоев правил формы
type CatalogRepository interface {
	GetFormByID(ctx context.Context, id int64) (*domain.Form, error)
	GetReservationRulesByForm(ctx context.Context, formID int64) ([]*domain.ReservationRule, error)
	GetWeekDefinitionsByForm(ctx context.Context, formID int64) ([]*domain.WeekDefinition, error)
	GetWorkingDaysByForm(ctx context.Context, formID int64) ([]*domain.WorkingDay, error)
	GetTimeSlotsByForm(ctx context.Context, formID int64) ([]*domain.TimeSlot, error)
}
