package appointments

import (
	"context"
	"errors"
	"fmt"
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
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	"github.com/m04kA/SMC-AppointmentService/internal/service/ledger"
	"github.com/m04kA/SMC-AppointmentService/internal/service/materializer"
	"github.com/m04kA/SMC-AppointmentService/internal/service/resolver"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
	"github.com/m04kA/SMC-AppointmentService/pkg/retry"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type fixture struct {
	svc     *Service
	booker  *create_appointment.UseCase
	metrics *metrics.Metrics
	form    *domain.Form
}

func at(d, hour int) time.Time {
	return time.Date(2025, time.March, d, hour, 0, 0, 0, time.UTC)
}

// newFixture форма пн-пт 09:00-12:00, часовые сегменты на capacity мест
func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	catalog := memory.NewCatalogRepository(store)
	slots := memory.NewSlotRepository(store)
	appointments := memory.NewAppointmentRepository(store)

	form, err := catalog.CreateForm(ctx, &domain.Form{Title: "Town hall", IsActive: true})
	require.NoError(t, err)

	_, err = catalog.CreateReservationRule(ctx, &domain.ReservationRule{FormID: form.ID, DateOfApply: at(1, 0)})
	require.NoError(t, err)

	week, err := catalog.CreateWeekDefinition(ctx, &domain.WeekDefinition{FormID: form.ID, DateOfApply: at(1, 0)})
	require.NoError(t, err)
	for dow := 1; dow <= 5; dow++ {
		wd, err := catalog.CreateWorkingDay(ctx, &domain.WorkingDay{WeekDefinitionID: week.ID, DayOfWeek: dow})
		require.NoError(t, err)
		for hour := 9; hour < 12; hour++ {
			_, err := catalog.CreateTimeSlot(ctx, &domain.TimeSlot{
				WorkingDayID: wd.ID,
				StartingTime: types.MustTimeString(fmt.Sprintf("%02d:00", hour)),
				EndingTime:   types.MustTimeString(fmt.Sprintf("%02d:00", hour+1)),
				IsOpen:       true,
				MaxCapacity:  capacity,
			})
			require.NoError(t, err)
		}
	}

	log := logger.NewNop()
	m := metrics.NewWithRegisterer("test", prometheus.NewRegistry())
	txManager := memory.NewTxManager()
	res := resolver.NewResolver(catalog)
	mat := materializer.NewService(res, catalog, slots, m, log)
	led := ledger.NewService(slots, txManager, m, log)

	retryCfg := retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
	booker := create_appointment.NewUseCase(slots, mat, catalog, res, appointments, led, retryCfg, m, log).
		WithTimeProvider(fixedTime{now: at(1, 8)})

	return &fixture{
		svc:     NewService(appointments, led, booker, txManager, m, log),
		booker:  booker,
		metrics: m,
		form:    form,
	}
}

func (f *fixture) book(t *testing.T, email string, d, hour, seats int) *create_appointment.Response {
	t.Helper()
	resp, err := f.booker.Execute(context.Background(), &create_appointment.Request{
		FormID:           f.form.ID,
		StartingDateTime: at(d, hour),
		EndingDateTime:   at(d, hour+1),
		User:             domain.UserInfo{Email: email, FirstName: "Test"},
		NbSeats:          seats,
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) snapshot(t *testing.T, slotID int64) domain.SlotSnapshot {
	t.Helper()
	snap, err := f.svc.GetSlotSnapshot(context.Background(), slotID)
	require.NoError(t, err)
	return snap
}

func TestCancel_RestoresSeats(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	booked := f.book(t, "a@example.com", 3, 9, 1)
	assert.Equal(t, 1, f.snapshot(t, booked.SlotID).NbRemainingPlaces)

	require.NoError(t, f.svc.Cancel(ctx, booked.ID))

	snap := f.snapshot(t, booked.SlotID)
	assert.Equal(t, 0, snap.NbPlacesTaken)
	assert.Equal(t, 2, snap.NbRemainingPlaces)
	assert.Equal(t, 2, snap.NbPotentialRemainingPlaces)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.AppointmentsTotal.WithLabelValues("cancelled")))
}

func TestCancel_IndependentAppointmentsSum(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	two := f.book(t, "a@example.com", 3, 10, 2)
	one := f.book(t, "b@example.com", 3, 10, 1)
	require.Equal(t, two.SlotID, one.SlotID)

	snap := f.snapshot(t, two.SlotID)
	assert.Equal(t, 3, snap.NbPlacesTaken)
	assert.Equal(t, 0, snap.NbRemainingPlaces)

	require.NoError(t, f.svc.Cancel(ctx, two.ID))

	snap = f.snapshot(t, two.SlotID)
	assert.Equal(t, 1, snap.NbPlacesTaken)
	assert.Equal(t, 2, snap.NbRemainingPlaces)
}

func TestCancel_KeepsHistoryAndRejectsSecondCancel(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	booked := f.book(t, "a@example.com", 4, 9, 1)
	require.NoError(t, f.svc.Cancel(ctx, booked.ID))

	err := f.svc.Cancel(ctx, booked.ID)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Equal(t, 0, f.snapshot(t, booked.SlotID).NbPlacesTaken)

	got, err := f.svc.GetByID(ctx, booked.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCancelled)
	assert.NotNil(t, got.CancelledAt)

	active, err := f.svc.GetUserAppointments(ctx, &models.GetUserAppointmentsRequest{Email: "A@example.com "})
	require.NoError(t, err)
	assert.Equal(t, 0, active.Total)

	all, err := f.svc.GetUserAppointments(ctx, &models.GetUserAppointmentsRequest{
		Email:           "a@example.com",
		FormID:          ptr.Ptr(f.form.ID),
		IncludeInactive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, all.Total)
}

func TestCancel_NotFound(t *testing.T) {
	f := newFixture(t, 2)

	assert.ErrorIs(t, f.svc.Cancel(context.Background(), 999), ErrAppointmentNotFound)

	_, err := f.svc.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestCancel_ConcurrentCancelsReleaseOnce(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	booked := f.book(t, "a@example.com", 5, 9, 2)
	f.book(t, "b@example.com", 5, 9, 1)

	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.svc.Cancel(ctx, booked.ID); err == nil {
				succeeded.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrAlreadyCancelled)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, 1, f.snapshot(t, booked.SlotID).NbPlacesTaken)
}

func TestUpdate_MovesToAnotherSlot(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	booked := f.book(t, "a@example.com", 3, 9, 2)

	updated, err := f.svc.Update(ctx, booked.ID, &models.UpdateAppointmentRequest{
		StartingDateTime: ptr.Ptr(at(3, 11)),
		EndingDateTime:   ptr.Ptr(at(3, 12)),
	})
	require.NoError(t, err)
	assert.NotEqual(t, booked.ID, updated.ID)
	assert.NotEqual(t, booked.SlotID, updated.SlotID)
	assert.Equal(t, 2, updated.NbBookedSeats)
	assert.Equal(t, "a@example.com", updated.User.Email)

	assert.Equal(t, 0, f.snapshot(t, booked.SlotID).NbPlacesTaken)
	assert.Equal(t, 2, f.snapshot(t, updated.SlotID).NbPlacesTaken)

	old, err := f.svc.GetByID(ctx, booked.ID)
	require.NoError(t, err)
	assert.True(t, old.IsCancelled)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.AppointmentsTotal.WithLabelValues("updated")))
}

func TestUpdate_ChangesSeatsOnSameSlot(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	booked := f.book(t, "a@example.com", 6, 9, 1)
	f.book(t, "b@example.com", 6, 9, 1)

	updated, err := f.svc.Update(ctx, booked.ID, &models.UpdateAppointmentRequest{NbSeats: 2})
	require.NoError(t, err)
	assert.Equal(t, booked.SlotID, updated.SlotID)

	snap := f.snapshot(t, booked.SlotID)
	assert.Equal(t, 3, snap.NbPlacesTaken)
	assert.Equal(t, 0, snap.NbRemainingPlaces)
}

func TestUpdate_RestoresOldAppointmentOnFailure(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	booked := f.book(t, "a@example.com", 3, 9, 1)
	full := f.book(t, "b@example.com", 3, 10, 2)

	_, err := f.svc.Update(ctx, booked.ID, &models.UpdateAppointmentRequest{
		StartingDateTime: ptr.Ptr(at(3, 10)),
		EndingDateTime:   ptr.Ptr(at(3, 11)),
	})
	var capErr *domain.CapacityError
	require.True(t, errors.As(err, &capErr))

	old, err := f.svc.GetByID(ctx, booked.ID)
	require.NoError(t, err)
	assert.False(t, old.IsCancelled)

	snap := f.snapshot(t, booked.SlotID)
	assert.Equal(t, 1, snap.NbPlacesTaken)
	assert.Equal(t, snap.NbRemainingPlaces, snap.NbPotentialRemainingPlaces)
	assert.Equal(t, 2, f.snapshot(t, full.SlotID).NbPlacesTaken)
}

func TestUpdate_RejectsCancelledAndInvalid(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	booked := f.book(t, "a@example.com", 7, 9, 1)

	_, err := f.svc.Update(ctx, booked.ID, &models.UpdateAppointmentRequest{NbSeats: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 1, f.snapshot(t, booked.SlotID).NbPlacesTaken)

	require.NoError(t, f.svc.Cancel(ctx, booked.ID))
	_, err = f.svc.Update(ctx, booked.ID, &models.UpdateAppointmentRequest{NbSeats: 2})
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestGetSlotSnapshot_NotFound(t *testing.T) {
	f := newFixture(t, 2)

	_, err := f.svc.GetSlotSnapshot(context.Background(), 42)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestGetUserAppointments_RequiresEmail(t *testing.T) {
	f := newFixture(t, 2)

	_, err := f.svc.GetUserAppointments(context.Background(), &models.GetUserAppointmentsRequest{Email: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
