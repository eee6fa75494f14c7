package remove_closing_day

import (
	"context"
	"time"
)

type ScheduleService interface {
	RemoveClosingDay(ctx context.Context, formID int64, date time.Time) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
