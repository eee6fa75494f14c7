package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// SlotBuilder строит слоты формы на диапазон дат
type SlotBuilder interface {
	BuildSlots(ctx context.Context, formID int64, startDate, endDate time.Time) ([]*domain.Slot, error)
}

// Ledger актуальные счетчики мест сохраненных слотов
type Ledger interface {
	Snapshot(ctx context.Context, slotID int64) (domain.SlotSnapshot, error)
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
