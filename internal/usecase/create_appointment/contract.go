package create_appointment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/ledger"
)

// SlotRepository чтение сохраненных слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
}

// SlotMaterializer находит слот по расписанию и сохраняет сгенерированный при бронировании
type SlotMaterializer interface {
	Lookup(ctx context.Context, formID int64, start, end time.Time) (*domain.Slot, error)
	Materialize(ctx context.Context, formID int64, start, end time.Time) (*domain.Slot, bool, error)
}

// CatalogRepository чтение формы и закрытых дней
type CatalogRepository interface {
	GetFormByID(ctx context.Context, id int64) (*domain.Form, error)
	GetClosingDaysByForm(ctx context.Context, formID int64, from, to time.Time) ([]*domain.ClosingDay, error)
}

// RuleResolver определяет правило бронирования для слота
type RuleResolver interface {
	ResolveSlotRule(ctx context.Context, slot *domain.Slot) (*domain.ReservationRule, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *domain.Appointment) (*domain.Appointment, error)
	GetByFilter(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error)
}

// Ledger учет мест слота
type Ledger interface {
	Reserve(ctx context.Context, slotID int64, seats int) (ledger.Reservation, error)
	Confirm(ctx context.Context, reservation ledger.Reservation) error
	Rollback(ctx context.Context, reservation ledger.Reservation) error
	Discard(ctx context.Context, slotID int64) (bool, error)
}

// Metrics счетчики бронирования
type Metrics interface {
	AppointmentEvent(event string)
	PersistenceRetry()
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
