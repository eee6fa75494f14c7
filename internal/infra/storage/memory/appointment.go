package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
)

// AppointmentRepository записи пользователей в памяти
type AppointmentRepository struct {
	store *Store
}

// NewAppointmentRepository создает репозиторий поверх общего хранилища
func NewAppointmentRepository(store *Store) *AppointmentRepository {
	return &AppointmentRepository{store: store}
}

// Create сохраняет запись
func (r *AppointmentRepository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	created := *a
	created.ID = r.store.nextID()
	created.CreatedAt = r.store.now()
	created.UpdatedAt = created.CreatedAt
	r.store.appointments[created.ID] = &created

	out := created
	return &out, nil
}

// GetByID получает запись по ID
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	out := *a
	return &out, nil
}

// GetByFilter возвращает записи пользователя по фильтру, по времени начала.
// Даты фильтра сравниваются с календарной датой записи включительно.
func (r *AppointmentRepository) GetByFilter(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*domain.Appointment, 0)
	for _, a := range r.store.appointments {
		if filter.Email != "" && a.User.Email != filter.Email {
			continue
		}
		if filter.FormID != nil && a.FormID != *filter.FormID {
			continue
		}
		if !filter.IncludeInactive && a.IsCancelled {
			continue
		}
		day := a.Date()
		if filter.StartDate != nil && day.Before(domain.DateOnly(*filter.StartDate)) {
			continue
		}
		if filter.EndDate != nil && day.After(domain.DateOnly(*filter.EndDate)) {
			continue
		}
		out := *a
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartingDateTime.Equal(result[j].StartingDateTime) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartingDateTime.Before(result[j].StartingDateTime)
	})
	return result, nil
}

// Cancel помечает запись отмененной
func (r *AppointmentRepository) Cancel(ctx context.Context, id int64, cancelledAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.appointments[id]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	if a.IsCancelled {
		return appointment.ErrAlreadyCancelled
	}
	at := cancelledAt
	a.IsCancelled = true
	a.CancelledAt = &at
	a.UpdatedAt = r.store.now()
	return nil
}

// Reinstate снимает отметку об отмене
func (r *AppointmentRepository) Reinstate(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.appointments[id]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	a.IsCancelled = false
	a.CancelledAt = nil
	a.UpdatedAt = r.store.now()
	return nil
}

// DeleteByForm удаляет записи формы
func (r *AppointmentRepository) DeleteByForm(ctx context.Context, formID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, a := range r.store.appointments {
		if a.FormID == formID {
			delete(r.store.appointments, id)
		}
	}
	return nil
}
