package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
)

// Service сервис для работы с существующими записями
type Service struct {
	appointmentRepo AppointmentRepository
	ledger          Ledger
	booker          Booker
	txManager       TransactionManager
	metrics         Metrics
	logger          Logger
	now             func() time.Time
}

// NewService создает новый экземпляр сервиса записей
func NewService(
	appointmentRepo AppointmentRepository,
	ledger Ledger,
	booker Booker,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		ledger:          ledger,
		booker:          booker,
		txManager:       txManager,
		metrics:         metrics,
		logger:          logger,
		now:             time.Now,
	}
}

// GetByID получает запись по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.AppointmentResponse, error) {
	appointment, err := s.getAppointment(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}
	return models.FromDomainAppointment(appointment), nil
}

// GetUserAppointments получает записи пользователя по email
// Отмененные записи возвращаются только с IncludeInactive
func (s *Service) GetUserAppointments(ctx context.Context, req *models.GetUserAppointmentsRequest) (*models.AppointmentListResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, fmt.Errorf("%w: end date before start date", ErrInvalidInput)
	}

	s.logger.Info("GetUserAppointments: fetching appointments for email=%s, includeInactive=%t", req.Email, req.IncludeInactive)

	list, err := s.appointmentRepo.GetByFilter(ctx, req.ToDomainFilter())
	if err != nil {
		s.logger.Error("GetUserAppointments: repository error for email=%s: %v", req.Email, err)
		return nil, fmt.Errorf("%w: GetUserAppointments - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserAppointments: fetched %d appointments for email=%s", len(list), req.Email)
	return models.FromDomainAppointmentList(list), nil
}

// GetSlotSnapshot возвращает состояние мест сохраненного слота
func (s *Service) GetSlotSnapshot(ctx context.Context, slotID int64) (domain.SlotSnapshot, error) {
	snapshot, err := s.ledger.Snapshot(ctx, slotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			s.logger.Warn("GetSlotSnapshot: slot id=%d not found", slotID)
			return domain.SlotSnapshot{}, ErrSlotNotFound
		}
		s.logger.Error("GetSlotSnapshot: failed to read slot id=%d: %v", slotID, err)
		return domain.SlotSnapshot{}, fmt.Errorf("%w: GetSlotSnapshot - ledger error: %v", ErrInternal, err)
	}
	return snapshot, nil
}

// Cancel отменяет запись и возвращает ее места в слот
//
// Запись не удаляется: она остается в истории с IsCancelled=true.
// Повторная отмена возвращает ErrAlreadyCancelled и места не трогает.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	s.logger.Info("Cancel: cancelling appointment id=%d", id)

	appointment, err := s.getAppointment(ctx, "Cancel", id)
	if err != nil {
		return err
	}
	if appointment.IsCancelled {
		s.logger.Warn("Cancel: appointment id=%d already cancelled", id)
		return ErrAlreadyCancelled
	}

	if err := s.cancel(ctx, appointment); err != nil {
		return err
	}

	s.metrics.AppointmentEvent("cancelled")
	s.logger.Info("Cancel: appointment id=%d cancelled, %d seats released on slot id=%d",
		id, appointment.NbBookedSeats, appointment.SlotID)
	return nil
}

// Update переносит запись: старая запись отменяется, новая создается с полными проверками
//
// Если новая запись не создана, старая восстанавливается вместе с ее местами.
func (s *Service) Update(ctx context.Context, id int64, req *models.UpdateAppointmentRequest) (*models.AppointmentResponse, error) {
	s.logger.Info("Update: updating appointment id=%d", id)

	old, err := s.getAppointment(ctx, "Update", id)
	if err != nil {
		return nil, err
	}
	if old.IsCancelled {
		s.logger.Warn("Update: appointment id=%d is cancelled", id)
		return nil, ErrAlreadyCancelled
	}

	bookReq := buildRebookRequest(old, req)
	if bookReq.NbSeats < 1 {
		return nil, fmt.Errorf("%w: seats must be positive", ErrInvalidInput)
	}

	if err := s.cancel(ctx, old); err != nil {
		return nil, err
	}

	created, err := s.booker.Execute(ctx, bookReq)
	if err != nil {
		s.logger.Warn("Update: rebooking for appointment id=%d failed: %v", id, err)
		if restoreErr := s.restore(context.WithoutCancel(ctx), old); restoreErr != nil {
			s.logger.Error("Update: failed to restore appointment id=%d: %v", id, restoreErr)
			return nil, fmt.Errorf("%w: Update - restore failed after %v: %v", ErrInternal, err, restoreErr)
		}
		return nil, err
	}

	s.metrics.AppointmentEvent("updated")
	s.logger.Info("Update: appointment id=%d replaced by id=%d on slot id=%d", id, created.ID, created.SlotID)

	return models.FromDomainAppointment(&domain.Appointment{
		ID:               created.ID,
		Reference:        created.Reference,
		SlotID:           created.SlotID,
		FormID:           created.FormID,
		StartingDateTime: created.StartingDateTime,
		EndingDateTime:   created.EndingDateTime,
		User:             created.User,
		NbBookedSeats:    created.NbBookedSeats,
		CreatedAt:        created.CreatedAt,
		UpdatedAt:        created.CreatedAt,
	}), nil
}

// cancel помечает запись отмененной и освобождает места в одной транзакции
func (s *Service) cancel(ctx context.Context, appointment *domain.Appointment) error {
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.appointmentRepo.Cancel(ctx, appointment.ID, s.now()); err != nil {
			return err
		}
		if err := s.ledger.Release(ctx, appointment.SlotID, appointment.NbBookedSeats); err != nil {
			// хранилище без транзакций: отмену откатываем сами
			if rbErr := s.appointmentRepo.Reinstate(context.WithoutCancel(ctx), appointment.ID); rbErr != nil {
				s.logger.Error("Cancel: failed to reinstate appointment id=%d: %v", appointment.ID, rbErr)
			}
			return fmt.Errorf("release seats: %w", err)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, appointmentRepo.ErrAppointmentNotFound):
			s.logger.Warn("Cancel: appointment id=%d not found", appointment.ID)
			return ErrAppointmentNotFound
		case errors.Is(err, appointmentRepo.ErrAlreadyCancelled):
			s.logger.Warn("Cancel: appointment id=%d already cancelled", appointment.ID)
			return ErrAlreadyCancelled
		}
		s.logger.Error("Cancel: failed to cancel appointment id=%d: %v", appointment.ID, err)
		return fmt.Errorf("%w: Cancel - %v", ErrInternal, err)
	}
	return nil
}

// restore возвращает отмененную запись и ее места
func (s *Service) restore(ctx context.Context, appointment *domain.Appointment) error {
	reservation, err := s.ledger.Reserve(ctx, appointment.SlotID, appointment.NbBookedSeats)
	if err != nil {
		return fmt.Errorf("reserve seats: %w", err)
	}
	if err := s.appointmentRepo.Reinstate(ctx, appointment.ID); err != nil {
		if rbErr := s.ledger.Rollback(ctx, reservation); rbErr != nil {
			s.logger.Error("Update: rollback of reservation %s failed: %v", reservation.ID, rbErr)
		}
		return fmt.Errorf("reinstate: %w", err)
	}
	return s.ledger.Confirm(ctx, reservation)
}

func (s *Service) getAppointment(ctx context.Context, op string, id int64) (*domain.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("%s: appointment id=%d not found", op, id)
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("%s: repository error for appointment id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return appointment, nil
}

// buildRebookRequest собирает запрос на новую запись из текущей и изменений
func buildRebookRequest(old *domain.Appointment, req *models.UpdateAppointmentRequest) *create_appointment.Request {
	bookReq := &create_appointment.Request{
		SlotID:           old.SlotID,
		FormID:           old.FormID,
		StartingDateTime: old.StartingDateTime,
		EndingDateTime:   old.EndingDateTime,
		User:             old.User,
		NbSeats:          old.NbBookedSeats,
	}

	if req.StartingDateTime != nil && req.EndingDateTime != nil {
		bookReq.SlotID = 0
		bookReq.StartingDateTime = *req.StartingDateTime
		bookReq.EndingDateTime = *req.EndingDateTime
	}
	if req.SlotID > 0 {
		bookReq.SlotID = req.SlotID
	}
	if req.NbSeats != 0 {
		bookReq.NbSeats = req.NbSeats
	}
	if req.User != nil {
		user := *req.User
		if user.Email == "" {
			user.Email = old.User.Email
		}
		bookReq.User = user
	}
	return bookReq
}
