package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
)

// CatalogRepository формы и слои правил в памяти
type CatalogRepository struct {
	store *Store
}

// NewCatalogRepository создает репозиторий поверх общего хранилища
func NewCatalogRepository(store *Store) *CatalogRepository {
	return &CatalogRepository{store: store}
}

// CreateForm сохраняет форму
func (r *CatalogRepository) CreateForm(ctx context.Context, form *domain.Form) (*domain.Form, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	created := *form
	created.ID = r.store.nextID()
	created.CreatedAt = r.store.now()
	created.UpdatedAt = created.CreatedAt
	r.store.forms[created.ID] = &created

	out := created
	return &out, nil
}

// GetFormByID получает форму по ID
func (r *CatalogRepository) GetFormByID(ctx context.Context, id int64) (*domain.Form, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	form, ok := r.store.forms[id]
	if !ok {
		return nil, catalog.ErrFormNotFound
	}
	out := *form
	return &out, nil
}

// DeleteForm удаляет форму
func (r *CatalogRepository) DeleteForm(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.forms[id]; !ok {
		return catalog.ErrFormNotFound
	}
	delete(r.store.forms, id)
	return nil
}

// CreateReservationRule сохраняет правило бронирования
func (r *CatalogRepository) CreateReservationRule(ctx context.Context, rule *domain.ReservationRule) (*domain.ReservationRule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.forms[rule.FormID]; !ok {
		return nil, fmt.Errorf("%w: CreateReservationRule - form id=%d", catalog.ErrFormNotFound, rule.FormID)
	}
	created := *rule
	created.ID = r.store.nextID()
	r.store.rules[created.ID] = &created

	out := created
	return &out, nil
}

// GetReservationRulesByForm возвращает правила формы по возрастанию даты применения
func (r *CatalogRepository) GetReservationRulesByForm(ctx context.Context, formID int64) ([]*domain.ReservationRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*domain.ReservationRule, 0)
	for _, rule := range r.store.rules {
		if rule.FormID == formID {
			out := *rule
			result = append(result, &out)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DateOfApply.Equal(result[j].DateOfApply) {
			return result[i].ID < result[j].ID
		}
		return result[i].DateOfApply.Before(result[j].DateOfApply)
	})
	return result, nil
}

// DeleteReservationRulesByForm удаляет правила формы
func (r *CatalogRepository) DeleteReservationRulesByForm(ctx context.Context, formID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, rule := range r.store.rules {
		if rule.FormID == formID {
			delete(r.store.rules, id)
		}
	}
	return nil
}

// CreateWeekDefinition сохраняет недельный шаблон вместе с рабочими днями и сегментами
func (r *CatalogRepository) CreateWeekDefinition(ctx context.Context, week *domain.WeekDefinition) (*domain.WeekDefinition, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.forms[week.FormID]; !ok {
		return nil, fmt.Errorf("%w: CreateWeekDefinition - form id=%d", catalog.ErrFormNotFound, week.FormID)
	}
	created := *week
	created.ID = r.store.nextID()
	r.store.weeks[created.ID] = &created

	out := created
	return &out, nil
}

// GetWeekDefinitionsByForm возвращает шаблоны формы по возрастанию даты применения
func (r *CatalogRepository) GetWeekDefinitionsByForm(ctx context.Context, formID int64) ([]*domain.WeekDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*domain.WeekDefinition, 0)
	for _, week := range r.store.weeks {
		if week.FormID == formID {
			out := *week
			result = append(result, &out)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DateOfApply.Equal(result[j].DateOfApply) {
			return result[i].ID < result[j].ID
		}
		return result[i].DateOfApply.Before(result[j].DateOfApply)
	})
	return result, nil
}

// DeleteWeekDefinitionsByForm удаляет шаблоны формы
func (r *CatalogRepository) DeleteWeekDefinitionsByForm(ctx context.Context, formID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, week := range r.store.weeks {
		if week.FormID == formID {
			delete(r.store.weeks, id)
		}
	}
	return nil
}

// CreateWorkingDay сохраняет рабочий день шаблона
func (r *CatalogRepository) CreateWorkingDay(ctx context.Context, day *domain.WorkingDay) (*domain.WorkingDay, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	created := *day
	created.ID = r.store.nextID()
	r.store.workingDays[created.ID] = &created

	out := created
	return &out, nil
}

// GetWorkingDaysByForm возвращает рабочие дни всех шаблонов формы
func (r *CatalogRepository) GetWorkingDaysByForm(ctx context.Context, formID int64) ([]*domain.WorkingDay, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*domain.WorkingDay, 0)
	for _, day := range r.store.workingDays {
		week, ok := r.store.weeks[day.WeekDefinitionID]
		if !ok || week.FormID != formID {
			continue
		}
		out := *day
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// DeleteWorkingDaysByForm удаляет рабочие дни шаблонов формы
func (r *CatalogRepository) DeleteWorkingDaysByForm(ctx context.Context, formID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, day := range r.store.workingDays {
		if week, ok := r.store.weeks[day.WeekDefinitionID]; ok && week.FormID == formID {
			delete(r.store.workingDays, id)
		}
	}
	return nil
}

// CreateTimeSlot сохраняет сегмент рабочего дня
func (r *CatalogRepository) CreateTimeSlot(ctx context.Context, ts *domain.TimeSlot) (*domain.TimeSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	created := *ts
	created.ID = r.store.nextID()
	r.store.timeSlots[created.ID] = &created

	out := created
	return &out, nil
}

// GetTimeSlotsByForm возвращает сегменты всех рабочих дней формы по времени начала
func (r *CatalogRepository) GetTimeSlotsByForm(ctx context.Context, formID int64) ([]*domain.TimeSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*domain.TimeSlot, 0)
	for _, ts := range r.store.timeSlots {
		if r.timeSlotFormID(ts) != formID {
			continue
		}
		out := *ts
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartingTime == result[j].StartingTime {
			return result[i].ID < result[j].ID
		}
		return result[i].StartingTime.IsBefore(result[j].StartingTime)
	})
	return result, nil
}

// DeleteTimeSlotsByForm удаляет сегменты формы
func (r *CatalogRepository) DeleteTimeSlotsByForm(ctx context.Context, formID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, ts := range r.store.timeSlots {
		if r.timeSlotFormID(ts) == formID {
			delete(r.store.timeSlots, id)
		}
	}
	return nil
}

func (r *CatalogRepository) timeSlotFormID(ts *domain.TimeSlot) int64 {
	day, ok := r.store.workingDays[ts.WorkingDayID]
	if !ok {
		return 0
	}
	week, ok := r.store.weeks[day.WeekDefinitionID]
	if !ok {
		return 0
	}
	return week.FormID
}

// CreateClosingDay закрывает дату для формы
func (r *CatalogRepository) CreateClosingDay(ctx context.Context, day *domain.ClosingDay) (*domain.ClosingDay, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := closingKey{formID: day.FormID, date: day.Date.Format(domain.DateFormat)}
	if _, ok := r.store.closingIndex[key]; ok {
		return nil, catalog.ErrClosingDayExists
	}

	created := *day
	created.ID = r.store.nextID()
	created.Date = domain.DateOnly(day.Date)
	r.store.closingDays[created.ID] = &created
	r.store.closingIndex[key] = created.ID

	out := created
	return &out, nil
}

// GetClosingDaysByForm возвращает закрытые дни формы в диапазоне [from, to] включительно
func (r *CatalogRepository) GetClosingDaysByForm(ctx context.Context, formID int64, from, to time.Time) ([]*domain.ClosingDay, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	fromDay, toDay := domain.DateOnly(from), domain.DateOnly(to)
	result := make([]*domain.ClosingDay, 0)
	for _, day := range r.store.closingDays {
		if day.FormID != formID {
			continue
		}
		if day.Date.Before(fromDay) || day.Date.After(toDay) {
			continue
		}
		out := *day
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// DeleteClosingDay снимает закрытие даты
func (r *CatalogRepository) DeleteClosingDay(ctx context.Context, formID int64, date time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := closingKey{formID: formID, date: date.Format(domain.DateFormat)}
	id, ok := r.store.closingIndex[key]
	if !ok {
		return catalog.ErrClosingDayNotFound
	}
	delete(r.store.closingIndex, key)
	delete(r.store.closingDays, id)
	return nil
}

// DeleteClosingDaysByForm удаляет все закрытые дни формы
func (r *CatalogRepository) DeleteClosingDaysByForm(ctx context.Context, formID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for key, id := range r.store.closingIndex {
		if key.formID == formID {
			delete(r.store.closingIndex, key)
			delete(r.store.closingDays, id)
		}
	}
	return nil
}
