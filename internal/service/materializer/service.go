package materializer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/pkg/keylock"
)

// Service строит конкретные слоты из слоев правил и сохраненных слотов
type Service struct {
	schedules   ScheduleLoader
	closingDays ClosingDayRepository
	slots       SlotRepository
	locks       *keylock.KeyedMutex
	metrics     Metrics
	logger      Logger
}

// NewService создает новый экземпляр materializer
func NewService(
	schedules ScheduleLoader,
	closingDays ClosingDayRepository,
	slots SlotRepository,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		schedules:   schedules,
		closingDays: closingDays,
		slots:       slots,
		locks:       keylock.New(),
		metrics:     metrics,
		logger:      logger,
	}
}

// BuildSlots возвращает слоты формы на даты [startDate, endDate] по времени начала
//
// Сгенерированные слоты (ID == 0) не сохраняются. Слот, измененный администратором
// или с занятыми местами, вытесняет пересекающиеся сгенерированные. Сохраненный
// слот без мест и ручных изменений остается в выдаче, только пока совпадает с
// интервалом текущего расписания. Закрытый день и границы формы сильнее любого слота.
// Повторный вызов без записей между ними возвращает ту же последовательность.
func (s *Service) BuildSlots(ctx context.Context, formID int64, startDate, endDate time.Time) ([]*domain.Slot, error) {
	firstDay, lastDay := domain.DateOnly(startDate), domain.DateOnly(endDate)
	if firstDay.After(lastDay) {
		return nil, fmt.Errorf("%w: BuildSlots - start %s after end %s", domain.ErrInvalidTimeRange,
			firstDay.Format(domain.DateFormat), lastDay.Format(domain.DateFormat))
	}

	schedule, err := s.schedules.Load(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("BuildSlots - load schedule: %w", err)
	}
	form := schedule.Form

	if !form.IsActive {
		s.logger.Info("BuildSlots: form id=%d is inactive, no slots", formID)
		return []*domain.Slot{}, nil
	}

	closing, err := s.closingDays.GetClosingDaysByForm(ctx, formID, firstDay, lastDay)
	if err != nil {
		return nil, fmt.Errorf("BuildSlots - get closing days: %w", err)
	}
	closed := make(map[string]struct{}, len(closing))
	for _, day := range closing {
		closed[day.Date.Format(domain.DateFormat)] = struct{}{}
	}
	isClosed := func(day time.Time) bool {
		_, ok := closed[day.Format(domain.DateFormat)]
		return ok
	}

	persisted, err := s.slots.GetByFormAndRange(ctx, formID, firstDay, lastDay.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("BuildSlots - get persisted slots: %w", err)
	}

	overrides := make([]*domain.Slot, 0, len(persisted))
	touched := make(map[slotRange]*domain.Slot)
	for _, p := range persisted {
		if !p.HasValidRange() {
			return nil, fmt.Errorf("%w: BuildSlots - persisted slot id=%d", domain.ErrInvalidTimeRange, p.ID)
		}
		if s.touchesUnavailableDay(form, p, isClosed) {
			continue
		}
		if isOverride(p) {
			overrides = append(overrides, p)
			continue
		}
		touched[rangeOf(p.StartingDateTime, p.EndingDateTime)] = p
	}

	result := make([]*domain.Slot, 0)
	for day := firstDay; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		if !form.IsValidOn(day) || isClosed(day) {
			continue
		}

		resolution, err := schedule.Resolve(day)
		if errors.Is(err, domain.ErrNoRuleForDate) {
			s.logger.Info("BuildSlots: form id=%d, %s skipped: %v", formID, day.Format(domain.DateFormat), err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("BuildSlots - resolve %s: %w", day.Format(domain.DateFormat), err)
		}

		for _, ts := range resolution.TimeSlots() {
			if !ts.HasValidRange() {
				return nil, fmt.Errorf("%w: BuildSlots - time slot id=%d %s-%s",
					domain.ErrInvalidTimeRange, ts.ID, ts.StartingTime, ts.EndingTime)
			}
			if !ts.IsOpen {
				continue
			}

			candidate := domain.NewGeneratedSlot(formID, ts.StartingTime.OnDate(day), ts.EndingTime.OnDate(day), resolution.SlotCapacity(ts))
			if overlapsAny(candidate, overrides) {
				continue
			}
			if stored, ok := touched[rangeOf(candidate.StartingDateTime, candidate.EndingDateTime)]; ok {
				result = append(result, stored)
				continue
			}
			result = append(result, candidate)
		}
	}

	result = append(result, overrides...)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].StartingDateTime.Equal(result[j].StartingDateTime) {
			return result[i].EndingDateTime.Before(result[j].EndingDateTime)
		}
		return result[i].StartingDateTime.Before(result[j].StartingDateTime)
	})

	return result, nil
}

// Lookup возвращает слот формы с точным интервалом по текущему расписанию, ничего не сохраняя
// Слот может быть сохраненным или сгенерированным (ID == 0); если его нет, ErrSlotClosed
func (s *Service) Lookup(ctx context.Context, formID int64, start, end time.Time) (*domain.Slot, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("%w: Lookup - %s..%s", domain.ErrInvalidTimeRange,
			start.Format(domain.DateTimeFormat), end.Format(domain.DateTimeFormat))
	}

	slots, err := s.BuildSlots(ctx, formID, start, end)
	if err != nil {
		return nil, fmt.Errorf("Lookup - build slots: %w", err)
	}
	for _, sl := range slots {
		if sl.SameRange(start, end) {
			return sl, nil
		}
	}
	return nil, fmt.Errorf("%w: Lookup - form id=%d has no open slot %s..%s", domain.ErrSlotClosed,
		formID, start.Format(domain.DateTimeFormat), end.Format(domain.DateTimeFormat))
}

// Materialize возвращает сохраненный слот формы с точным интервалом,
// при первом обращении сохраняя сгенерированный слот
// created == true, если слот сохранен этим вызовом
func (s *Service) Materialize(ctx context.Context, formID int64, start, end time.Time) (*domain.Slot, bool, error) {
	if !end.After(start) {
		return nil, false, fmt.Errorf("%w: Materialize - %s..%s", domain.ErrInvalidTimeRange,
			start.Format(domain.DateTimeFormat), end.Format(domain.DateTimeFormat))
	}

	unlock := s.locks.Lock(fmt.Sprintf("%d:%d:%d", formID, start.UnixNano(), end.UnixNano()))
	defer unlock()

	existing, err := s.slots.GetByFormAndTime(ctx, formID, start, end)
	if err == nil && isOverride(existing) {
		return existing, false, nil
	}
	if err != nil && !errors.Is(err, slot.ErrSlotNotFound) {
		return nil, false, fmt.Errorf("Materialize - get slot: %w", err)
	}

	// сохраненный слот без мест годится, только если совпадает с текущим расписанием
	candidate, err := s.Lookup(ctx, formID, start, end)
	if err != nil {
		return nil, false, fmt.Errorf("Materialize - %w", err)
	}
	if candidate.IsPersisted() {
		return candidate, false, nil
	}

	created, err := s.slots.Create(ctx, candidate)
	if errors.Is(err, slot.ErrSlotAlreadyExists) {
		// слот создан параллельно другим процессом
		stored, err := s.slots.GetByFormAndTime(ctx, formID, start, end)
		if err != nil {
			return nil, false, fmt.Errorf("Materialize - reread slot: %w", err)
		}
		return stored, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("Materialize - create slot: %w", err)
	}

	s.metrics.SlotMaterialized()
	s.logger.Info("Materialize: slot id=%d created for form id=%d (%s, capacity=%d)",
		created.ID, formID, start.Format(domain.DateTimeFormat), created.MaxCapacity)

	return created, true, nil
}

// touchesUnavailableDay returns true if any day covered by the slot is closed or outside the form window
func (s *Service) touchesUnavailableDay(form *domain.Form, sl *domain.Slot, isClosed func(time.Time) bool) bool {
	last := domain.DateOnly(sl.EndingDateTime.Add(-time.Nanosecond))
	for day := sl.Date(); !day.After(last); day = day.AddDate(0, 0, 1) {
		if isClosed(day) || !form.IsValidOn(day) {
			return true
		}
	}
	return false
}

type slotRange struct {
	start int64
	end   int64
}

func rangeOf(start, end time.Time) slotRange {
	return slotRange{start: start.UnixNano(), end: end.UnixNano()}
}

// isOverride returns true for slots that take precedence over the generated schedule
func isOverride(sl *domain.Slot) bool {
	return sl.IsSpecific || sl.NbPlacesTaken > 0
}

func overlapsAny(candidate *domain.Slot, overrides []*domain.Slot) bool {
	for _, o := range overrides {
		if candidate.Overlaps(o) {
			return true
		}
	}
	return false
}
