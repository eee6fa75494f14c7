package slot

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

var slotColumns = []string{
	"id",
	"form_id",
	"starting_date_time",
	"ending_date_time",
	"is_open",
	"is_specific",
	"max_capacity",
	"nb_places_taken",
	"nb_remaining_places",
	"nb_potential_remaining_places",
	"created_at",
	"updated_at",
}

// Repository репозиторий сохраненных слотов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет слот
// Уникальность (form_id, starting_date_time, ending_date_time) гарантирует БД,
// при конфликте возвращается ErrSlotAlreadyExists и вызывающий перечитывает слот.
func (r *Repository) Create(ctx context.Context, s *domain.Slot) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("slots").
		Columns(
			"form_id",
			"starting_date_time",
			"ending_date_time",
			"is_open",
			"is_specific",
			"max_capacity",
			"nb_places_taken",
			"nb_remaining_places",
			"nb_potential_remaining_places",
		).
		Values(
			s.FormID,
			s.StartingDateTime,
			s.EndingDateTime,
			s.IsOpen,
			s.IsSpecific,
			s.MaxCapacity,
			s.NbPlacesTaken,
			s.NbRemainingPlaces,
			s.NbPotentialRemainingPlaces,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	created := *s
	err = executor.QueryRowContext(ctx, query, args...).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrSlotAlreadyExists
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return &created, nil
}

// GetByID получает слот по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	return r.getOne(ctx, "GetByID", squirrel.Eq{"id": id}, false)
}

// GetByIDForUpdate получает слот по ID и блокирует строку до конца транзакции
// Вне транзакции работает как GetByID
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Slot, error) {
	return r.getOne(ctx, "GetByIDForUpdate", squirrel.Eq{"id": id}, dbmetrics.IsInTransaction(ctx))
}

// GetByFormAndTime получает слот формы с точным интервалом
func (r *Repository) GetByFormAndTime(ctx context.Context, formID int64, start, end time.Time) (*domain.Slot, error) {
	return r.getOne(ctx, "GetByFormAndTime", squirrel.Eq{
		"form_id":            formID,
		"starting_date_time": start,
		"ending_date_time":   end,
	}, false)
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Sqlizer, forUpdate bool) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(where)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	s, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan slot: %v", ErrScanRow, op, err)
	}
	return s, nil
}

// GetByFormAndRange возвращает слоты формы, пересекающие [start, end)
func (r *Repository) GetByFormAndRange(ctx context.Context, formID int64, start, end time.Time) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"form_id": formID}).
		Where(squirrel.Lt{"starting_date_time": end}).
		Where(squirrel.Gt{"ending_date_time": start}).
		OrderBy("starting_date_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByFormAndRange - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByFormAndRange - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	slots := make([]*domain.Slot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetByFormAndRange - scan slot: %v", ErrScanRow, err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetByFormAndRange - rows iteration: %v", ErrScanRow, err)
	}

	return slots, nil
}

// UpdateSeats сохраняет счетчики мест
func (r *Repository) UpdateSeats(ctx context.Context, s *domain.Slot) error {
	return r.update(ctx, "UpdateSeats", s.ID, map[string]interface{}{
		"nb_places_taken":               s.NbPlacesTaken,
		"nb_remaining_places":           s.NbRemainingPlaces,
		"nb_potential_remaining_places": s.NbPotentialRemainingPlaces,
	})
}

// Update сохраняет все изменяемые поля слота
func (r *Repository) Update(ctx context.Context, s *domain.Slot) error {
	return r.update(ctx, "Update", s.ID, map[string]interface{}{
		"is_open":                       s.IsOpen,
		"is_specific":                   s.IsSpecific,
		"max_capacity":                  s.MaxCapacity,
		"nb_places_taken":               s.NbPlacesTaken,
		"nb_remaining_places":           s.NbRemainingPlaces,
		"nb_potential_remaining_places": s.NbPotentialRemainingPlaces,
	})
}

func (r *Repository) update(ctx context.Context, op string, id int64, fields map[string]interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slots").
		SetMap(fields).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - rows affected: %v", ErrExecQuery, op, err)
	}
	if affected == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// DeleteUnused удаляет сгенерированный слот, если на него нет ни занятых мест, ни записей
// Возвращает false, если слот остался
func (r *Repository) DeleteUnused(ctx context.Context, id int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("slots").
		Where(squirrel.Eq{"id": id, "is_specific": false, "nb_places_taken": 0}).
		Where("NOT EXISTS (SELECT 1 FROM appointments a WHERE a.slot_id = slots.id)").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: DeleteUnused - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: DeleteUnused - execute delete: %v", ErrExecQuery, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: DeleteUnused - rows affected: %v", ErrExecQuery, err)
	}
	return affected > 0, nil
}

// DeleteByForm удаляет слоты формы
func (r *Repository) DeleteByForm(ctx context.Context, formID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("slots").
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

func scanSlot(row rowScanner) (*domain.Slot, error) {
	var s domain.Slot
	err := row.Scan(
		&s.ID,
		&s.FormID,
		&s.StartingDateTime,
		&s.EndingDateTime,
		&s.IsOpen,
		&s.IsSpecific,
		&s.MaxCapacity,
		&s.NbPlacesTaken,
		&s.NbRemainingPlaces,
		&s.NbPotentialRemainingPlaces,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
