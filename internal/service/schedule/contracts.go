package schedule

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// CatalogRepository интерфейс репозитория правил формы
type CatalogRepository interface {
	CreateForm(ctx context.Context, form *domain.Form) (*domain.Form, error)
	GetFormByID(ctx context.Context, id int64) (*domain.Form, error)
	DeleteForm(ctx context.Context, id int64) error

	CreateReservationRule(ctx context.Context, rule *domain.ReservationRule) (*domain.ReservationRule, error)
	GetReservationRulesByForm(ctx context.Context, formID int64) ([]*domain.ReservationRule, error)
	DeleteReservationRulesByForm(ctx context.Context, formID int64) error

	CreateWeekDefinition(ctx context.Context, week *domain.WeekDefinition) (*domain.WeekDefinition, error)
	GetWeekDefinitionsByForm(ctx context.Context, formID int64) ([]*domain.WeekDefinition, error)
	DeleteWeekDefinitionsByForm(ctx context.Context, formID int64) error

	CreateWorkingDay(ctx context.Context, day *domain.WorkingDay) (*domain.WorkingDay, error)
	GetWorkingDaysByForm(ctx context.Context, formID int64) ([]*domain.WorkingDay, error)
	DeleteWorkingDaysByForm(ctx context.Context, formID int64) error

	CreateTimeSlot(ctx context.Context, ts *domain.TimeSlot) (*domain.TimeSlot, error)
	GetTimeSlotsByForm(ctx context.Context, formID int64) ([]*domain.TimeSlot, error)
	DeleteTimeSlotsByForm(ctx context.Context, formID int64) error

	CreateClosingDay(ctx context.Context, day *domain.ClosingDay) (*domain.ClosingDay, error)
	DeleteClosingDay(ctx context.Context, formID int64, date time.Time) error
	DeleteClosingDaysByForm(ctx context.Context, formID int64) error
}

// SlotRepository интерфейс репозитория сохраненных слотов
type SlotRepository interface {
	Create(ctx context.Context, slot *domain.Slot) (*domain.Slot, error)
	GetByFormAndTime(ctx context.Context, formID int64, start, end time.Time) (*domain.Slot, error)
	GetByFormAndRange(ctx context.Context, formID int64, start, end time.Time) ([]*domain.Slot, error)
	DeleteByForm(ctx context.Context, formID int64) error
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	DeleteByForm(ctx context.Context, formID int64) error
}

// Ledger изменяет параметры слота под его блокировкой
type Ledger interface {
	Adjust(ctx context.Context, slotID int64, mutate func(slot *domain.Slot) error) (*domain.Slot, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
