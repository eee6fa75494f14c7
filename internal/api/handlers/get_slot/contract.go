package get_slot

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type SlotService interface {
	GetSlotSnapshot(ctx context.Context, slotID int64) (domain.SlotSnapshot, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
