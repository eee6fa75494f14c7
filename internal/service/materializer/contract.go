package materializer

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/resolver"
)

// ScheduleLoader загружает снимок правил формы
type ScheduleLoader interface {
	Load(ctx context.Context, formID int64) (*resolver.Schedule, error)
}

// ClosingDayRepository чтение закрытых дней
type ClosingDayRepository interface {
	GetClosingDaysByForm(ctx context.Context, formID int64, from, to time.Time) ([]*domain.ClosingDay, error)
}

// SlotRepository чтение и создание сохраненных слотов
type SlotRepository interface {
	Create(ctx context.Context, slot *domain.Slot) (*domain.Slot, error)
	GetByFormAndTime(ctx context.Context, formID int64, start, end time.Time) (*domain.Slot, error)
	GetByFormAndRange(ctx context.Context, formID int64, start, end time.Time) ([]*domain.Slot, error)
}

// Metrics счетчики материализации
type Metrics interface {
	SlotMaterialized()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
