package delete_form

import "context"

type ScheduleService interface {
	DeleteForm(ctx context.Context, formID int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
