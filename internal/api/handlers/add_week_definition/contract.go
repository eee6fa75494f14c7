package add_week_definition

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
)

type ScheduleService interface {
	AddWeekDefinition(ctx context.Context, req *models.AddWeekDefinitionRequest) (*models.WeekDefinitionResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
