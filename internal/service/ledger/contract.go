package ledger

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// SlotRepository чтение и запись счетчиков мест слота
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Slot, error)
	UpdateSeats(ctx context.Context, slot *domain.Slot) error
	Update(ctx context.Context, slot *domain.Slot) error
	DeleteUnused(ctx context.Context, id int64) (bool, error)
}

// TxManager выполняет функцию в транзакции
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счетчики операций с местами
type Metrics interface {
	LedgerOperation(operation, result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
