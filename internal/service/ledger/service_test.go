package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
)

func newLedger(t *testing.T, capacity int) (*Service, *memory.SlotRepository, *metrics.Metrics, int64) {
	t.Helper()
	repo := memory.NewSlotRepository(memory.NewStore())
	start := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	slot, err := repo.Create(context.Background(), domain.NewGeneratedSlot(1, start, start.Add(30*time.Minute), capacity))
	require.NoError(t, err)

	m := metrics.NewWithRegisterer("test", prometheus.NewRegistry())
	return NewService(repo, memory.NewTxManager(), m, logger.NewNop()), repo, m, slot.ID
}

func reserveAndConfirm(t *testing.T, l *Service, slotID int64, seats int) Reservation {
	t.Helper()
	r, err := l.Reserve(context.Background(), slotID, seats)
	require.NoError(t, err)
	require.NoError(t, l.Confirm(context.Background(), r))
	return r
}

func assertLedger(t *testing.T, repo *memory.SlotRepository, slotID int64, taken, remaining int) {
	t.Helper()
	slot, err := repo.GetByID(context.Background(), slotID)
	require.NoError(t, err)
	assert.Equal(t, taken, slot.NbPlacesTaken, "taken")
	assert.Equal(t, remaining, slot.NbRemainingPlaces, "remaining")
	assert.Equal(t, slot.MaxCapacity, slot.NbPlacesTaken+slot.NbRemainingPlaces)
	assert.LessOrEqual(t, slot.NbPotentialRemainingPlaces, slot.NbRemainingPlaces)
	assert.NoError(t, slot.CheckInvariant())
}

func TestReserve_ExactCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		bookings []int
	}{
		{name: "capacity 1, one seat", capacity: 1, bookings: []int{1}},
		{name: "capacity 2, two seats at once", capacity: 2, bookings: []int{2}},
		{name: "capacity 3, two and one", capacity: 3, bookings: []int{2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, repo, _, slotID := newLedger(t, tt.capacity)
			for _, seats := range tt.bookings {
				reserveAndConfirm(t, l, slotID, seats)
			}
			assertLedger(t, repo, slotID, tt.capacity, 0)
		})
	}
}

func TestRelease_RestoresSeats(t *testing.T) {
	ctx := context.Background()

	t.Run("single appointment", func(t *testing.T) {
		l, repo, _, slotID := newLedger(t, 2)
		reserveAndConfirm(t, l, slotID, 1)
		assertLedger(t, repo, slotID, 1, 1)

		require.NoError(t, l.Release(ctx, slotID, 1))
		assertLedger(t, repo, slotID, 0, 2)
	})

	t.Run("two appointments, cancel the larger", func(t *testing.T) {
		l, repo, _, slotID := newLedger(t, 3)
		reserveAndConfirm(t, l, slotID, 2)
		reserveAndConfirm(t, l, slotID, 1)
		assertLedger(t, repo, slotID, 3, 0)

		require.NoError(t, l.Release(ctx, slotID, 2))
		assertLedger(t, repo, slotID, 1, 2)
	})

	t.Run("more than taken", func(t *testing.T) {
		l, repo, m, slotID := newLedger(t, 3)
		reserveAndConfirm(t, l, slotID, 1)

		err := l.Release(ctx, slotID, 2)
		assert.ErrorIs(t, err, domain.ErrInvariantViolation)
		assertLedger(t, repo, slotID, 1, 2)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperationsTotal.WithLabelValues(opRelease, resultInvariant)))
	})
}

func TestReserve_OverbookingLeavesLedgerUnchanged(t *testing.T) {
	l, repo, m, slotID := newLedger(t, 2)
	reserveAndConfirm(t, l, slotID, 1)

	_, err := l.Reserve(context.Background(), slotID, 2)
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)

	var capErr *domain.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 1, capErr.Remaining)
	assert.Equal(t, 2, capErr.Requested)

	assertLedger(t, repo, slotID, 1, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperationsTotal.WithLabelValues(opReserve, resultCapacityExceeded)))
}

func TestReserve_ClosedSlotAndBadInput(t *testing.T) {
	ctx := context.Background()
	l, repo, _, slotID := newLedger(t, 2)

	_, err := l.Reserve(ctx, slotID, 0)
	assert.ErrorIs(t, err, ErrInvalidSeatCount)

	_, err = l.Adjust(ctx, slotID, func(slot *domain.Slot) error {
		slot.IsOpen = false
		return nil
	})
	require.NoError(t, err)

	_, err = l.Reserve(ctx, slotID, 1)
	assert.ErrorIs(t, err, domain.ErrSlotClosed)
	assertLedger(t, repo, slotID, 0, 2)
}

func TestReserve_OtherHoldsLowerPotentialUntilConfirmed(t *testing.T) {
	ctx := context.Background()
	l, repo, _, slotID := newLedger(t, 5)

	first, err := l.Reserve(ctx, slotID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, first.RemainingAfter)

	// собственные места резервирования учитываются один раз
	snap, err := l.Snapshot(ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.NbPlacesTaken)
	assert.Equal(t, 3, snap.NbRemainingPlaces)
	assert.Equal(t, 3, snap.NbPotentialRemainingPlaces)
	assert.Equal(t, 2, snap.HeldInFlight)

	// пока первое резервирование не подтверждено, второе видит его места как удержанные
	second, err := l.Reserve(ctx, slotID, 1)
	require.NoError(t, err)
	snap, err = l.Snapshot(ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.NbRemainingPlaces)
	assert.Equal(t, 0, snap.NbPotentialRemainingPlaces)
	assert.Equal(t, 3, snap.HeldInFlight)

	require.NoError(t, l.Confirm(ctx, first))
	snap, err = l.Snapshot(ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.NbPotentialRemainingPlaces)
	assert.Equal(t, 1, snap.HeldInFlight)

	require.NoError(t, l.Confirm(ctx, second))
	snap, err = l.Snapshot(ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.NbPotentialRemainingPlaces)
	assert.Equal(t, 0, snap.HeldInFlight)

	assert.ErrorIs(t, l.Confirm(ctx, first), ErrUnknownReservation)
	assertLedger(t, repo, slotID, 3, 2)
}

func TestDiscard_RemovesOnlyUnusedSlot(t *testing.T) {
	ctx := context.Background()
	l, repo, m, slotID := newLedger(t, 3)

	r, err := l.Reserve(ctx, slotID, 1)
	require.NoError(t, err)

	// слот с удержанными местами не удаляется
	deleted, err := l.Discard(ctx, slotID)
	require.NoError(t, err)
	assert.False(t, deleted)

	require.NoError(t, l.Rollback(ctx, r))
	deleted, err = l.Discard(ctx, slotID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.GetByID(ctx, slotID)
	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperationsTotal.WithLabelValues(opDiscard, resultOK)))
}

func TestRollback_ReturnsUnconfirmedSeats(t *testing.T) {
	ctx := context.Background()
	l, repo, _, slotID := newLedger(t, 4)

	r, err := l.Reserve(ctx, slotID, 3)
	require.NoError(t, err)
	require.NoError(t, l.Rollback(ctx, r))
	assertLedger(t, repo, slotID, 0, 4)

	assert.ErrorIs(t, l.Rollback(ctx, r), ErrUnknownReservation)
}

func TestAdjust_RejectsTakenChange(t *testing.T) {
	ctx := context.Background()
	l, repo, _, slotID := newLedger(t, 4)
	reserveAndConfirm(t, l, slotID, 1)

	_, err := l.Adjust(ctx, slotID, func(slot *domain.Slot) error {
		slot.NbPlacesTaken = 0
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)

	updated, err := l.Adjust(ctx, slotID, func(slot *domain.Slot) error {
		slot.MaxCapacity = 6
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.NbRemainingPlaces)
	assertLedger(t, repo, slotID, 1, 5)
}

func TestReserve_ConcurrentNeverOverbooks(t *testing.T) {
	const (
		capacity = 10
		workers  = 64
	)
	l, repo, _, slotID := newLedger(t, capacity)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := l.Reserve(context.Background(), slotID, 1)
			switch {
			case err == nil:
				succeeded.Add(1)
				assert.NoError(t, l.Confirm(context.Background(), r))
			case errors.Is(err, domain.ErrCapacityExceeded):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(capacity), succeeded.Load())
	assert.Equal(t, int32(workers-capacity), rejected.Load())
	assertLedger(t, repo, slotID, capacity, 0)
}
