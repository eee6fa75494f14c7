package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/keylock"
)

// Service учет мест слота
//
// Все изменения одного слота выполняются под его блокировкой и в транзакции
// (строка слота читается FOR UPDATE), разные слоты изменяются параллельно.
// Места резервирования сразу входят в NbPlacesTaken. NbPotentialRemainingPlaces
// дополнительно уменьшается на места чужих неподтвержденных резервирований,
// собственные места пишущего учитываются один раз.
type Service struct {
	slots     SlotRepository
	txManager TxManager
	locks     *keylock.KeyedMutex
	metrics   Metrics
	logger    Logger

	mu           sync.Mutex
	held         map[int64]int
	reservations map[string]Reservation
}

// NewService создает новый экземпляр ledger
func NewService(slots SlotRepository, txManager TxManager, metrics Metrics, logger Logger) *Service {
	return &Service{
		slots:        slots,
		txManager:    txManager,
		locks:        keylock.New(),
		metrics:      metrics,
		logger:       logger,
		held:         make(map[int64]int),
		reservations: make(map[string]Reservation),
	}
}

// Reserve списывает места со слота
// Ошибка проверки мест не меняет состояние слота
func (s *Service) Reserve(ctx context.Context, slotID int64, seats int) (Reservation, error) {
	if seats < 1 {
		return Reservation{}, fmt.Errorf("%w: Reserve - seats=%d", ErrInvalidSeatCount, seats)
	}

	unlock := s.lockSlot(slotID)
	defer unlock()

	var reservation Reservation
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		slot, err := s.slots.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return fmt.Errorf("Reserve - get slot: %w", err)
		}

		if !slot.IsOpen {
			return fmt.Errorf("%w: Reserve - slot id=%d", domain.ErrSlotClosed, slotID)
		}

		remaining := slot.MaxCapacity - slot.NbPlacesTaken
		if seats > remaining {
			return &domain.CapacityError{SlotID: slotID, Requested: seats, Remaining: remaining}
		}

		slot.NbPlacesTaken += seats
		slot.RecomputeSeats(s.heldFor(slotID))
		if err := slot.CheckInvariant(); err != nil {
			return err
		}

		if err := s.slots.UpdateSeats(ctx, slot); err != nil {
			return fmt.Errorf("Reserve - update seats: %w", err)
		}

		reservation = Reservation{
			ID:             uuid.NewString(),
			SlotID:         slotID,
			Seats:          seats,
			RemainingAfter: slot.NbRemainingPlaces,
		}
		return nil
	})
	if err != nil {
		s.metrics.LedgerOperation(opReserve, resultOf(err))
		return Reservation{}, err
	}

	s.mu.Lock()
	s.held[slotID] += seats
	s.reservations[reservation.ID] = reservation
	s.mu.Unlock()

	s.metrics.LedgerOperation(opReserve, resultOK)
	return reservation, nil
}

// Confirm закрепляет резервирование после сохранения записи
func (s *Service) Confirm(ctx context.Context, reservation Reservation) error {
	unlock := s.lockSlot(reservation.SlotID)
	defer unlock()

	if !s.dropReservation(reservation) {
		s.metrics.LedgerOperation(opConfirm, resultError)
		return fmt.Errorf("%w: Confirm - id=%s", ErrUnknownReservation, reservation.ID)
	}

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		slot, err := s.slots.GetByIDForUpdate(ctx, reservation.SlotID)
		if err != nil {
			return fmt.Errorf("Confirm - get slot: %w", err)
		}
		slot.RecomputeSeats(s.heldFor(reservation.SlotID))
		if err := s.slots.UpdateSeats(ctx, slot); err != nil {
			return fmt.Errorf("Confirm - update seats: %w", err)
		}
		return nil
	})
	if err != nil {
		// места уже засчитаны, расходится только потенциальный остаток
		s.logger.Warn("Confirm: slot id=%d potential seats not refreshed: %v", reservation.SlotID, err)
	}

	s.metrics.LedgerOperation(opConfirm, resultOK)
	return nil
}

// Rollback возвращает места незакрепленного резервирования
func (s *Service) Rollback(ctx context.Context, reservation Reservation) error {
	unlock := s.lockSlot(reservation.SlotID)
	defer unlock()

	if !s.dropReservation(reservation) {
		s.metrics.LedgerOperation(opRollback, resultError)
		return fmt.Errorf("%w: Rollback - id=%s", ErrUnknownReservation, reservation.ID)
	}

	err := s.release(ctx, reservation.SlotID, reservation.Seats)
	if err != nil {
		// возвращаем удержание, чтобы места не потерялись из учета
		s.mu.Lock()
		s.held[reservation.SlotID] += reservation.Seats
		s.reservations[reservation.ID] = reservation
		s.mu.Unlock()

		s.metrics.LedgerOperation(opRollback, resultOf(err))
		s.logger.Error("Rollback: slot id=%d, %d seats not returned: %v", reservation.SlotID, reservation.Seats, err)
		return err
	}

	s.metrics.LedgerOperation(opRollback, resultOK)
	return nil
}

// Release возвращает места отмененной записи
func (s *Service) Release(ctx context.Context, slotID int64, seats int) error {
	if seats < 1 {
		return fmt.Errorf("%w: Release - seats=%d", ErrInvalidSeatCount, seats)
	}

	unlock := s.lockSlot(slotID)
	defer unlock()

	if err := s.release(ctx, slotID, seats); err != nil {
		s.metrics.LedgerOperation(opRelease, resultOf(err))
		if errors.Is(err, domain.ErrInvariantViolation) {
			s.logger.Error("Release: %v", err)
		}
		return err
	}

	s.metrics.LedgerOperation(opRelease, resultOK)
	return nil
}

// Adjust изменяет параметры слота (открытие, емкость) под блокировкой слота
// mutate не должен менять NbPlacesTaken
func (s *Service) Adjust(ctx context.Context, slotID int64, mutate func(slot *domain.Slot) error) (*domain.Slot, error) {
	unlock := s.lockSlot(slotID)
	defer unlock()

	var updated *domain.Slot
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		slot, err := s.slots.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return fmt.Errorf("Adjust - get slot: %w", err)
		}

		taken := slot.NbPlacesTaken
		if err := mutate(slot); err != nil {
			return err
		}
		if slot.NbPlacesTaken != taken {
			return fmt.Errorf("%w: Adjust - slot id=%d taken seats changed", domain.ErrInvariantViolation, slotID)
		}

		slot.RecomputeSeats(s.heldFor(slotID))
		if err := slot.CheckInvariant(); err != nil {
			return err
		}
		if err := s.slots.Update(ctx, slot); err != nil {
			return fmt.Errorf("Adjust - update slot: %w", err)
		}
		updated = slot
		return nil
	})
	if err != nil {
		s.metrics.LedgerOperation(opAdjust, resultOf(err))
		return nil, err
	}

	s.metrics.LedgerOperation(opAdjust, resultOK)
	return updated, nil
}

// Discard удаляет слот, сохраненный для неудавшегося бронирования
// Слот с занятыми местами, записями или ручными изменениями остается
func (s *Service) Discard(ctx context.Context, slotID int64) (bool, error) {
	unlock := s.lockSlot(slotID)
	defer unlock()

	if s.heldFor(slotID) > 0 {
		return false, nil
	}

	var deleted bool
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.slots.DeleteUnused(ctx, slotID)
		return err
	})
	if err != nil {
		s.metrics.LedgerOperation(opDiscard, resultError)
		return false, fmt.Errorf("Discard - delete slot: %w", err)
	}

	s.metrics.LedgerOperation(opDiscard, resultOK)
	return deleted, nil
}

// Snapshot возвращает согласованное состояние мест слота
func (s *Service) Snapshot(ctx context.Context, slotID int64) (domain.SlotSnapshot, error) {
	unlock := s.lockSlot(slotID)
	defer unlock()

	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return domain.SlotSnapshot{}, fmt.Errorf("Snapshot - get slot: %w", err)
	}
	return slot.Snapshot(s.heldFor(slotID)), nil
}

// release уменьшает число занятых мест; вызывается под блокировкой слота
func (s *Service) release(ctx context.Context, slotID int64, seats int) error {
	return s.txManager.Do(ctx, func(ctx context.Context) error {
		slot, err := s.slots.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return fmt.Errorf("release - get slot: %w", err)
		}

		if seats > slot.NbPlacesTaken {
			return fmt.Errorf("%w: release %d seats from slot id=%d with %d taken",
				domain.ErrInvariantViolation, seats, slotID, slot.NbPlacesTaken)
		}

		slot.NbPlacesTaken -= seats
		slot.RecomputeSeats(s.heldFor(slotID))
		if err := slot.CheckInvariant(); err != nil {
			return err
		}

		if err := s.slots.UpdateSeats(ctx, slot); err != nil {
			return fmt.Errorf("release - update seats: %w", err)
		}
		return nil
	})
}

func (s *Service) lockSlot(slotID int64) func() {
	return s.locks.Lock(strconv.FormatInt(slotID, 10))
}

func (s *Service) heldFor(slotID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held[slotID]
}

func (s *Service) dropReservation(reservation Reservation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[reservation.ID]; !ok {
		return false
	}
	delete(s.reservations, reservation.ID)

	s.held[reservation.SlotID] -= reservation.Seats
	if s.held[reservation.SlotID] <= 0 {
		delete(s.held, reservation.SlotID)
	}
	return true
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrSlotClosed):
		return resultSlotClosed
	case errors.Is(err, domain.ErrCapacityExceeded):
		return resultCapacityExceeded
	case errors.Is(err, domain.ErrInvariantViolation):
		return resultInvariant
	default:
		return resultError
	}
}
