package appointment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

var appointmentColumns = []string{
	"id",
	"reference",
	"slot_id",
	"form_id",
	"starting_date_time",
	"ending_date_time",
	"email",
	"first_name",
	"last_name",
	"phone",
	"nb_booked_seats",
	"is_cancelled",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с записями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую запись
// Места на слоте к этому моменту уже зарезервированы через ledger
func (r *Repository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("appointments").
		Columns(
			"reference",
			"slot_id",
			"form_id",
			"starting_date_time",
			"ending_date_time",
			"email",
			"first_name",
			"last_name",
			"phone",
			"nb_booked_seats",
		).
		Values(
			a.Reference,
			a.SlotID,
			a.FormID,
			a.StartingDateTime,
			a.EndingDateTime,
			a.User.Email,
			a.User.FirstName,
			a.User.LastName,
			a.User.Phone,
			a.NbBookedSeats,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	created := *a
	err = executor.QueryRowContext(ctx, query, args...).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return &created, nil
}

// GetByID получает запись по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	a, err := scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan appointment: %v", ErrScanRow, err)
	}
	return a, nil
}

// GetByFilter получает записи пользователя с фильтрацией
// Поддерживает фильтрацию по:
// - форме (FormID) - опционально
// - периоду (StartDate, EndDate) по календарной дате начала, включительно
// - включению отмененных записей (IncludeInactive)
func (r *Repository) GetByFilter(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(appointmentColumns...).
		From("appointments").
		OrderBy("starting_date_time ASC, id ASC")

	if filter.Email != "" {
		builder = builder.Where(squirrel.Eq{"email": filter.Email})
	}
	if filter.FormID != nil {
		builder = builder.Where(squirrel.Eq{"form_id": *filter.FormID})
	}
	if !filter.IncludeInactive {
		builder = builder.Where(squirrel.Eq{"is_cancelled": false})
	}
	if filter.StartDate != nil {
		builder = builder.Where(squirrel.GtOrEq{"starting_date_time": domain.DateOnly(*filter.StartDate)})
	}
	if filter.EndDate != nil {
		builder = builder.Where(squirrel.Lt{"starting_date_time": domain.DateOnly(*filter.EndDate).AddDate(0, 0, 1)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetByFilter - scan appointment: %v", ErrScanRow, err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetByFilter - rows iteration: %v", ErrScanRow, err)
	}

	return appointments, nil
}

// Cancel помечает запись отмененной
// Повторная отмена возвращает ErrAlreadyCancelled
func (r *Repository) Cancel(ctx context.Context, id int64, cancelledAt time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		Set("is_cancelled", true).
		Set("cancelled_at", cancelledAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "is_cancelled": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Cancel - execute update: %v", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Cancel - rows affected: %v", ErrExecQuery, err)
	}
	if affected == 0 {
		// Различаем "нет записи" и "уже отменена"
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyCancelled
	}
	return nil
}

// Reinstate снимает отметку об отмене
func (r *Repository) Reinstate(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		Set("is_cancelled", false).
		Set("cancelled_at", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Reinstate - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Reinstate - execute update: %v", ErrExecQuery, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Reinstate - rows affected: %v", ErrExecQuery, err)
	}
	if affected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// DeleteByForm удаляет записи формы
func (r *Repository) DeleteByForm(ctx context.Context, formID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("appointments").
		Where(squirrel.Eq{"form_id": formID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: DeleteByForm - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: DeleteByForm - execute delete: %v", ErrExecQuery, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var (
		a           domain.Appointment
		phone       sql.NullString
		cancelledAt sql.NullTime
	)
	err := row.Scan(
		&a.ID,
		&a.Reference,
		&a.SlotID,
		&a.FormID,
		&a.StartingDateTime,
		&a.EndingDateTime,
		&a.User.Email,
		&a.User.FirstName,
		&a.User.LastName,
		&phone,
		&a.NbBookedSeats,
		&a.IsCancelled,
		&cancelledAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		a.User.Phone = &phone.String
	}
	if cancelledAt.Valid {
		a.CancelledAt = &cancelledAt.Time
	}
	return &a, nil
}
