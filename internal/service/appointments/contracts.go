package appointments

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/ledger"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	GetByFilter(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error)
	Cancel(ctx context.Context, id int64, cancelledAt time.Time) error
	Reinstate(ctx context.Context, id int64) error
}

// Ledger учет мест слота
type Ledger interface {
	Reserve(ctx context.Context, slotID int64, seats int) (ledger.Reservation, error)
	Confirm(ctx context.Context, reservation ledger.Reservation) error
	Rollback(ctx context.Context, reservation ledger.Reservation) error
	Release(ctx context.Context, slotID int64, seats int) error
	Snapshot(ctx context.Context, slotID int64) (domain.SlotSnapshot, error)
}

// Booker создает новую запись со всеми проверками правил
type Booker interface {
	Execute(ctx context.Context, req *create_appointment.Request) (*create_appointment.Response, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счетчики событий записей
type Metrics interface {
	AppointmentEvent(event string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
