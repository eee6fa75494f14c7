package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

const uniqueViolation = "23505"

// Repository репозиторий форм и слоев правил расписания
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория каталога
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// CreateForm сохраняет форму вместе с политикой бронирования
func (r *Repository) CreateForm(ctx context.Context, form *domain.Form) (*domain.Form, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("forms").
		Columns(
			"title",
			"description",
			"start_date",
			"end_date",
			"is_active",
			"nb_max_appointments_per_user",
			"nb_days_for_max_appointments_per_user",
			"nb_days_before_new_appointment",
			"min_time_before_appointment_minutes",
		).
		Values(
			form.Title,
			form.Description,
			form.StartDate,
			form.EndDate,
			form.IsActive,
			form.NbMaxAppointmentsPerUser,
			form.NbDaysForMaxAppointmentsPerUser,
			form.NbDaysBeforeNewAppointment,
			form.MinTimeBeforeAppointmentMinutes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateForm - build insert query: %v", ErrBuildQuery, err)
	}

	created := *form
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%w: CreateForm - execute insert: %v", ErrExecQuery, err)
	}
	return &created, nil
}

// GetFormByID получает форму по ID
func (r *Repository) GetFormByID(ctx context.Context, id int64) (*domain.Form, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"title",
		"description",
		"start_date",
		"end_date",
		"is_active",
		"nb_max_appointments_per_user",
		"nb_days_for_max_appointments_per_user",
		"nb_days_before_new_appointment",
		"min_time_before_appointment_minutes",
		"created_at",
		"updated_at",
	).
		From("forms").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetFormByID - build select query: %v", ErrBuildQuery, err)
	}

	var (
		form               domain.Form
		startDate, endDate sql.NullTime
	)
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&form.ID,
		&form.Title,
		&form.Description,
		&startDate,
		&endDate,
		&form.IsActive,
		&form.NbMaxAppointmentsPerUser,
		&form.NbDaysForMaxAppointmentsPerUser,
		&form.NbDaysBeforeNewAppointment,
		&form.MinTimeBeforeAppointmentMinutes,
		&form.CreatedAt,
		&form.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrFormNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetFormByID - scan form: %v", ErrScanRow, err)
	}

	if startDate.Valid {
		form.StartDate = &startDate.Time
	}
	if endDate.Valid {
		form.EndDate = &endDate.Time
	}
	return &form, nil
}

// DeleteForm удаляет форму; зависимые сущности удаляются раньше в той же транзакции
func (r *Repository) DeleteForm(ctx context.Context, id int64) error {
	affected, err := r.deleteWhere(ctx, "DeleteForm", "forms", squirrel.Eq{"id": id})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrFormNotFound
	}
	return nil
}

// CreateReservationRule сохраняет правило бронирования
func (r *Repository) CreateReservationRule(ctx context.Context, rule *domain.ReservationRule) (*domain.ReservationRule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reservation_rules").
		Columns("form_id", "name", "date_of_apply", "max_capacity_per_slot", "max_people_per_appointment").
		Values(rule.FormID, rule.Name, rule.DateOfApply, rule.MaxCapacityPerSlot, rule.MaxPeoplePerAppointment).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateReservationRule - build insert query: %v", ErrBuildQuery, err)
	}

	created := *rule
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&created.ID); err != nil {
		return nil, fmt.Errorf("%w: CreateReservationRule - execute insert: %v", ErrExecQuery, err)
	}
	return &created, nil
}

// GetReservationRulesByForm возвращает правила формы по возрастанию даты применения
func (r *Repository) GetReservationRulesByForm(ctx context.Context, formID int64) ([]*domain.ReservationRule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "form_id", "name", "date_of_apply", "max_capacity_per_slot", "max_people_per_appointment").
		From("reservation_rules").
		Where(squirrel.Eq{"form_id": formID}).
		OrderBy("date_of_apply ASC, id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetReservationRulesByForm - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetReservationRulesByForm - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	rules := make([]*domain.ReservationRule, 0)
	for rows.Next() {
		var rule domain.ReservationRule
		if err := rows.Scan(&rule.ID, &rule.FormID, &rule.Name, &rule.DateOfApply, &rule.MaxCapacityPerSlot, &rule.MaxPeoplePerAppointment); err != nil {
			return nil, fmt.Errorf("%w: GetReservationRulesByForm - scan rule: %v", ErrScanRow, err)
		}
		rules = append(rules, &rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetReservationRulesByForm - rows iteration: %v", ErrScanRow, err)
	}
	return rules, nil
}

// DeleteReservationRulesByForm удаляет правила формы
func (r *Repository) DeleteReservationRulesByForm(ctx context.Context, formID int64) error {
	_, err := r.deleteWhere(ctx, "DeleteReservationRulesByForm", "reservation_rules", squirrel.Eq{"form_id": formID})
	return err
}

// CreateWeekDefinition сохраняет недельный шаблон
func (r *Repository) CreateWeekDefinition(ctx context.Context, week *domain.WeekDefinition) (*domain.WeekDefinition, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("week_definitions").
		Columns("form_id", "reservation_rule_id", "date_of_apply", "ending_date_of_apply").
		Values(week.FormID, week.ReservationRuleID, week.DateOfApply, week.EndingDateOfApply).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateWeekDefinition - build insert query: %v", ErrBuildQuery, err)
	}

	created := *week
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&created.ID); err != nil {
		return nil, fmt.Errorf("%w: CreateWeekDefinition - execute insert: %v", ErrExecQuery, err)
	}
	return &created, nil
}

// GetWeekDefinitionsByForm возвращает шаблоны формы по возрастанию даты применения
func (r *Repository) GetWeekDefinitionsByForm(ctx context.Context, formID int64) ([]*domain.WeekDefinition, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "form_id", "reservation_rule_id", "date_of_apply", "ending_date_of_apply").
		From("week_definitions").
		Where(squirrel.Eq{"form_id": formID}).
		OrderBy("date_of_apply ASC, id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetWeekDefinitionsByForm - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetWeekDefinitionsByForm - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	weeks := make([]*domain.WeekDefinition, 0)
	for rows.Next() {
		var (
			week   domain.WeekDefinition
			ruleID sql.NullInt64
			ending sql.NullTime
		)
		if err := rows.Scan(&week.ID, &week.FormID, &ruleID, &week.DateOfApply, &ending); err != nil {
			return nil, fmt.Errorf("%w: GetWeekDefinitionsByForm - scan week definition: %v", ErrScanRow, err)
		}
		if ruleID.Valid {
			week.ReservationRuleID = &ruleID.Int64
		}
		if ending.Valid {
			week.EndingDateOfApply = &ending.Time
		}
		weeks = append(weeks, &week)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetWeekDefinitionsByForm - rows iteration: %v", ErrScanRow, err)
	}
	return weeks, nil
}

// DeleteWeekDefinitionsByForm удаляет шаблоны формы
func (r *Repository) DeleteWeekDefinitionsByForm(ctx context.Context, formID int64) error {
	_, err := r.deleteWhere(ctx, "DeleteWeekDefinitionsByForm", "week_definitions", squirrel.Eq{"form_id": formID})
	return err
}

// CreateWorkingDay сохраняет рабочий день шаблона
func (r *Repository) CreateWorkingDay(ctx context.Context, day *domain.WorkingDay) (*domain.WorkingDay, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("working_days").
		Columns("week_definition_id", "day_of_week").
		Values(day.WeekDefinitionID, day.DayOfWeek).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateWorkingDay - build insert query: %v", ErrBuildQuery, err)
	}

	created := *day
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&created.ID); err != nil {
		return nil, fmt.Errorf("%w: CreateWorkingDay - execute insert: %v", ErrExecQuery, err)
	}
	return &created, nil
}

// GetWorkingDaysByForm возвращает рабочие дни всех шаблонов формы
func (r *Repository) GetWorkingDaysByForm(ctx context.Context, formID int64) ([]*domain.WorkingDay, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("wd.id", "wd.week_definition_id", "wd.day_of_week").
		From("working_days wd").
		Join("week_definitions w ON w.id = wd.week_definition_id").
		Where(squirrel.Eq{"w.form_id": formID}).
		OrderBy("wd.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetWorkingDaysByForm - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetWorkingDaysByForm - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	days := make([]*domain.WorkingDay, 0)
	for rows.Next() {
		var day domain.WorkingDay
		if err := rows.Scan(&day.ID, &day.WeekDefinitionID, &day.DayOfWeek); err != nil {
			return nil, fmt.Errorf("%w: GetWorkingDaysByForm - scan working day: %v", ErrScanRow, err)
		}
		days = append(days, &day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetWorkingDaysByForm - rows iteration: %v", ErrScanRow, err)
	}
	return days, nil
}

// DeleteWorkingDaysByForm удаляет рабочие дни шаблонов формы
func (r *Repository) DeleteWorkingDaysByForm(ctx context.Context, formID int64) error {
	sub := psqlbuilder.Select("id").From("week_definitions").Where(squirrel.Eq{"form_id": formID})
	where, err := inSubquery("week_definition_id", sub)
	if err != nil {
		return fmt.Errorf("%w: DeleteWorkingDaysByForm - build subquery: %v", ErrBuildQuery, err)
	}
	_, err = r.deleteWhere(ctx, "DeleteWorkingDaysByForm", "working_days", where)
	return err
}

// CreateTimeSlot сохраняет сегмент рабочего дня
func (r *Repository) CreateTimeSlot(ctx context.Context, ts *domain.TimeSlot) (*domain.TimeSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("time_slots").
		Columns("working_day_id", "starting_time", "ending_time", "is_open", "max_capacity").
		Values(ts.WorkingDayID, ts.StartingTime, ts.EndingTime, ts.IsOpen, ts.MaxCapacity).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateTimeSlot - build insert query: %v", ErrBuildQuery, err)
	}

	created := *ts
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&created.ID); err != nil {
		return nil, fmt.Errorf("%w: CreateTimeSlot - execute insert: %v", ErrExecQuery, err)
	}
	return &created, nil
}

// GetTimeSlotsByForm возвращает сегменты всех рабочих дней формы по времени начала
func (r *Repository) GetTimeSlotsByForm(ctx context.Context, formID int64) ([]*domain.TimeSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("ts.id", "ts.working_day_id", "ts.starting_time", "ts.ending_time", "ts.is_open", "ts.max_capacity").
		From("time_slots ts").
		Join("working_days wd ON wd.id = ts.working_day_id").
		Join("week_definitions w ON w.id = wd.week_definition_id").
		Where(squirrel.Eq{"w.form_id": formID}).
		OrderBy("ts.starting_time ASC, ts.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetTimeSlotsByForm - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetTimeSlotsByForm - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	timeSlots := make([]*domain.TimeSlot, 0)
	for rows.Next() {
		var ts domain.TimeSlot
		if err := rows.Scan(&ts.ID, &ts.WorkingDayID, &ts.StartingTime, &ts.EndingTime, &ts.IsOpen, &ts.MaxCapacity); err != nil {
			return nil, fmt.Errorf("%w: GetTimeSlotsByForm - scan time slot: %v", ErrScanRow, err)
		}
		timeSlots = append(timeSlots, &ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetTimeSlotsByForm - rows iteration: %v", ErrScanRow, err)
	}
	return timeSlots, nil
}

// DeleteTimeSlotsByForm удаляет сегменты формы
func (r *Repository) DeleteTimeSlotsByForm(ctx context.Context, formID int64) error {
	sub := psqlbuilder.Select("wd.id").
		From("working_days wd").
		Join("week_definitions w ON w.id = wd.week_definition_id").
		Where(squirrel.Eq{"w.form_id": formID})
	where, err := inSubquery("working_day_id", sub)
	if err != nil {
		return fmt.Errorf("%w: DeleteTimeSlotsByForm - build subquery: %v", ErrBuildQuery, err)
	}
	_, err = r.deleteWhere(ctx, "DeleteTimeSlotsByForm", "time_slots", where)
	return err
}

// CreateClosingDay закрывает дату для формы
func (r *Repository) CreateClosingDay(ctx context.Context, day *domain.ClosingDay) (*domain.ClosingDay, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	created := *day
	created.Date = domain.DateOnly(day.Date)

	query, args, err := psqlbuilder.Insert("closing_days").
		Columns("form_id", "date").
		Values(created.FormID, created.Date).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateClosingDay - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&created.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrClosingDayExists
		}
		return nil, fmt.Errorf("%w: CreateClosingDay - execute insert: %v", ErrExecQuery, err)
	}
	return &created, nil
}

// GetClosingDaysByForm возвращает закрытые дни формы в диапазоне [from, to] включительно
func (r *Repository) GetClosingDaysByForm(ctx context.Context, formID int64, from, to time.Time) ([]*domain.ClosingDay, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "form_id", "date").
		From("closing_days").
		Where(squirrel.Eq{"form_id": formID}).
		Where(squirrel.GtOrEq{"date": domain.DateOnly(from)}).
		Where(squirrel.LtOrEq{"date": domain.DateOnly(to)}).
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetClosingDaysByForm - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetClosingDaysByForm - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	days := make([]*domain.ClosingDay, 0)
	for rows.Next() {
		var day domain.ClosingDay
		if err := rows.Scan(&day.ID, &day.FormID, &day.Date); err != nil {
			return nil, fmt.Errorf("%w: GetClosingDaysByForm - scan closing day: %v", ErrScanRow, err)
		}
		days = append(days, &day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetClosingDaysByForm - rows iteration: %v", ErrScanRow, err)
	}
	return days, nil
}

// DeleteClosingDay снимает закрытие даты
func (r *Repository) DeleteClosingDay(ctx context.Context, formID int64, date time.Time) error {
	affected, err := r.deleteWhere(ctx, "DeleteClosingDay", "closing_days", squirrel.Eq{
		"form_id": formID,
		"date":    domain.DateOnly(date),
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrClosingDayNotFound
	}
	return nil
}

// DeleteClosingDaysByForm удаляет все закрытые дни формы
func (r *Repository) DeleteClosingDaysByForm(ctx context.Context, formID int64) error {
	_, err := r.deleteWhere(ctx, "DeleteClosingDaysByForm", "closing_days", squirrel.Eq{"form_id": formID})
	return err
}

func (r *Repository) deleteWhere(ctx context.Context, op, table string, where squirrel.Sqlizer) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete(table).Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %s - build delete query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: %s - execute delete: %v", ErrExecQuery, op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %s - rows affected: %v", ErrExecQuery, op, err)
	}
	return affected, nil
}

// inSubquery собирает условие "column IN (subquery)"
// Подзапрос строится с "?" плейсхолдерами, нумерацию $N проставляет внешний запрос
func inSubquery(column string, sub squirrel.SelectBuilder) (squirrel.Sqlizer, error) {
	subQuery, args, err := sub.PlaceholderFormat(squirrel.Question).ToSql()
	if err != nil {
		return nil, err
	}
	return squirrel.Expr(column+" IN ("+subQuery+")", args...), nil
}
