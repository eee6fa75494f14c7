package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
)

// SlotRepository сохраненные слоты в памяти
type SlotRepository struct {
	store *Store
}

// NewSlotRepository создает репозиторий поверх общего хранилища
func NewSlotRepository(store *Store) *SlotRepository {
	return &SlotRepository{store: store}
}

// Create сохраняет слот; слот с тем же интервалом формы уже может существовать
func (r *SlotRepository) Create(ctx context.Context, s *domain.Slot) (*domain.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := newSlotKey(s.FormID, s.StartingDateTime, s.EndingDateTime)
	if _, ok := r.store.slotIndex[key]; ok {
		return nil, slot.ErrSlotAlreadyExists
	}

	created := *s
	created.ID = r.store.nextID()
	created.CreatedAt = r.store.now()
	created.UpdatedAt = created.CreatedAt
	r.store.slots[created.ID] = &created
	r.store.slotIndex[key] = created.ID

	out := created
	return &out, nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, ok := r.store.slots[id]
	if !ok {
		return nil, slot.ErrSlotNotFound
	}
	out := *s
	return &out, nil
}

// GetByIDForUpdate то же, что GetByID: сериализацию обеспечивает вызывающий
func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Slot, error) {
	return r.GetByID(ctx, id)
}

// GetByFormAndTime получает слот формы с точным интервалом
func (r *SlotRepository) GetByFormAndTime(ctx context.Context, formID int64, start, end time.Time) (*domain.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.slotIndex[newSlotKey(formID, start, end)]
	if !ok {
		return nil, slot.ErrSlotNotFound
	}
	out := *r.store.slots[id]
	return &out, nil
}

// GetByFormAndRange возвращает слоты формы, пересекающие [start, end), по времени начала
func (r *SlotRepository) GetByFormAndRange(ctx context.Context, formID int64, start, end time.Time) ([]*domain.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*domain.Slot, 0)
	for _, s := range r.store.slots {
		if s.FormID != formID {
			continue
		}
		if !s.StartingDateTime.Before(end) || !s.EndingDateTime.After(start) {
			continue
		}
		out := *s
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartingDateTime.Before(result[j].StartingDateTime)
	})
	return result, nil
}

// UpdateSeats сохраняет счетчики мест
func (r *SlotRepository) UpdateSeats(ctx context.Context, s *domain.Slot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.slots[s.ID]
	if !ok {
		return slot.ErrSlotNotFound
	}
	stored.NbPlacesTaken = s.NbPlacesTaken
	stored.NbRemainingPlaces = s.NbRemainingPlaces
	stored.NbPotentialRemainingPlaces = s.NbPotentialRemainingPlaces
	stored.UpdatedAt = r.store.now()
	return nil
}

// Update сохраняет все изменяемые поля слота
func (r *SlotRepository) Update(ctx context.Context, s *domain.Slot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.slots[s.ID]
	if !ok {
		return slot.ErrSlotNotFound
	}
	stored.IsOpen = s.IsOpen
	stored.IsSpecific = s.IsSpecific
	stored.MaxCapacity = s.MaxCapacity
	stored.NbPlacesTaken = s.NbPlacesTaken
	stored.NbRemainingPlaces = s.NbRemainingPlaces
	stored.NbPotentialRemainingPlaces = s.NbPotentialRemainingPlaces
	stored.UpdatedAt = r.store.now()
	return nil
}

// DeleteUnused удаляет сгенерированный слот без занятых мест и записей
func (r *SlotRepository) DeleteUnused(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, ok := r.store.slots[id]
	if !ok || s.IsSpecific || s.NbPlacesTaken > 0 {
		return false, nil
	}
	for _, a := range r.store.appointments {
		if a.SlotID == id {
			return false, nil
		}
	}

	delete(r.store.slotIndex, newSlotKey(s.FormID, s.StartingDateTime, s.EndingDateTime))
	delete(r.store.slots, id)
	return true, nil
}

// DeleteByForm удаляет слоты формы
func (r *SlotRepository) DeleteByForm(ctx context.Context, formID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, s := range r.store.slots {
		if s.FormID == formID {
			delete(r.store.slotIndex, newSlotKey(s.FormID, s.StartingDateTime, s.EndingDateTime))
			delete(r.store.slots, id)
		}
	}
	return nil
}
