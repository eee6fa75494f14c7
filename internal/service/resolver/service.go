package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Resolver загружает слои правил формы и определяет правила для даты
type Resolver struct {
	catalog CatalogRepository
}

// NewResolver создает новый resolver
func NewResolver(catalog CatalogRepository) *Resolver {
	return &Resolver{catalog: catalog}
}

// Load читает все слои правил формы одним снимком
func (r *Resolver) Load(ctx context.Context, formID int64) (*Schedule, error) {
	form, err := r.catalog.GetFormByID(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("Load - get form: %w", err)
	}

	rules, err := r.catalog.GetReservationRulesByForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("Load - get reservation rules: %w", err)
	}

	weeks, err := r.catalog.GetWeekDefinitionsByForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("Load - get week definitions: %w", err)
	}

	workingDays, err := r.catalog.GetWorkingDaysByForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("Load - get working days: %w", err)
	}

	timeSlots, err := r.catalog.GetTimeSlotsByForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("Load - get time slots: %w", err)
	}

	return NewSchedule(form, rules, weeks, workingDays, timeSlots), nil
}

// Resolve возвращает правило, недельный шаблон и сегменты для даты
func (r *Resolver) Resolve(ctx context.Context, formID int64, date time.Time) (*Resolution, error) {
	schedule, err := r.Load(ctx, formID)
	if err != nil {
		return nil, err
	}
	return schedule.Resolve(date)
}

// ResolveSlotRule возвращает правило бронирования для даты слота
func (r *Resolver) ResolveSlotRule(ctx context.Context, slot *domain.Slot) (*domain.ReservationRule, error) {
	schedule, err := r.Load(ctx, slot.FormID)
	if err != nil {
		return nil, err
	}
	return schedule.resolveRule(slot.Date())
}
