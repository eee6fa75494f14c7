package schedule

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-AppointmentService/internal/service/ledger"
	"github.com/m04kA/SMC-AppointmentService/internal/service/materializer"
	"github.com/m04kA/SMC-AppointmentService/internal/service/resolver"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type fixture struct {
	svc          *Service
	catalog      *memory.CatalogRepository
	slots        *memory.SlotRepository
	appointments *memory.AppointmentRepository
	materializer *materializer.Service
	ledger       *ledger.Service
	form         *domain.Form
}

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

func at(d, hour, minute int) time.Time {
	return time.Date(2025, time.March, d, hour, minute, 0, 0, time.UTC)
}

// halfHours сегменты по 30 минут с from до to часов
func halfHours(from, to, capacity int) []models.TimeSlotRequest {
	var result []models.TimeSlotRequest
	for m := from * 60; m < to*60; m += 30 {
		result = append(result, models.TimeSlotRequest{
			StartingTime: types.MustTimeString(fmt.Sprintf("%02d:%02d", m/60, m%60)),
			EndingTime:   types.MustTimeString(fmt.Sprintf("%02d:%02d", (m+30)/60, (m+30)%60)),
			IsOpen:       true,
			MaxCapacity:  capacity,
		})
	}
	return result
}

func weekdays(days ...int) []models.WorkingDayRequest {
	result := make([]models.WorkingDayRequest, 0, len(days))
	for _, d := range days {
		result = append(result, models.WorkingDayRequest{DayOfWeek: d, TimeSlots: halfHours(9, 18, 2)})
	}
	return result
}

// newFixture форма пн-пт 09:00-18:00, сегменты по 30 минут на 2 места с 1 марта
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	catalog := memory.NewCatalogRepository(store)
	slots := memory.NewSlotRepository(store)
	appointments := memory.NewAppointmentRepository(store)
	txManager := memory.NewTxManager()

	log := logger.NewNop()
	m := metrics.NewWithRegisterer("test", prometheus.NewRegistry())
	led := ledger.NewService(slots, txManager, m, log)
	mat := materializer.NewService(resolver.NewResolver(catalog), catalog, slots, m, log)
	svc := NewService(catalog, slots, appointments, led, txManager, log)

	form, err := svc.CreateForm(ctx, &models.CreateFormRequest{Title: "Consulate", IsActive: true})
	require.NoError(t, err)

	_, err = svc.AddReservationRule(ctx, &models.AddReservationRuleRequest{FormID: form.ID, Name: "default", DateOfApply: day(1)})
	require.NoError(t, err)

	_, err = svc.AddWeekDefinition(ctx, &models.AddWeekDefinitionRequest{
		FormID:      form.ID,
		DateOfApply: day(1),
		Days:        weekdays(1, 2, 3, 4, 5),
	})
	require.NoError(t, err)

	return &fixture{
		svc:          svc,
		catalog:      catalog,
		slots:        slots,
		appointments: appointments,
		materializer: mat,
		ledger:       led,
		form:         form,
	}
}

// take занимает места на сгенерированном слоте
func (f *fixture) take(t *testing.T, start, end time.Time, seats int) *domain.Slot {
	t.Helper()
	ctx := context.Background()
	slot, _, err := f.materializer.Materialize(ctx, f.form.ID, start, end)
	require.NoError(t, err)
	reservation, err := f.ledger.Reserve(ctx, slot.ID, seats)
	require.NoError(t, err)
	require.NoError(t, f.ledger.Confirm(ctx, reservation))
	return slot
}

func (f *fixture) countSlots(t *testing.T, from, to time.Time) int {
	t.Helper()
	slots, err := f.materializer.BuildSlots(context.Background(), f.form.ID, from, to)
	require.NoError(t, err)
	return len(slots)
}

func TestService_BuildsScheduleAndOverrides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 12 дней, из них 10 рабочих, по 18 сегментов
	assert.Equal(t, 180, f.countSlots(t, day(3), day(14)))

	override, err := f.svc.OverrideSlot(ctx, &models.OverrideSlotRequest{
		FormID:           f.form.ID,
		StartingDateTime: at(3, 10, 0),
		EndingDateTime:   at(3, 11, 30),
		MaxCapacity:      ptr.Ptr(5),
	})
	require.NoError(t, err)
	assert.True(t, override.IsSpecific)
	assert.True(t, override.IsOpen)
	assert.Equal(t, 5, override.NbRemainingPlaces)

	// три сегмента вытеснены, один слот добавлен
	assert.Equal(t, 178, f.countSlots(t, day(3), day(14)))
}

func TestService_RejectsDuplicateDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddReservationRule(ctx, &models.AddReservationRuleRequest{FormID: f.form.ID, DateOfApply: at(1, 12, 0)})
	assert.ErrorIs(t, err, domain.ErrAmbiguousRule)

	_, err = f.svc.AddWeekDefinition(ctx, &models.AddWeekDefinitionRequest{FormID: f.form.ID, DateOfApply: day(1), Days: weekdays(1)})
	assert.ErrorIs(t, err, domain.ErrAmbiguousRule)
}

func TestService_ValidatesWeekDefinition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	overlapping := []models.WorkingDayRequest{{
		DayOfWeek: 1,
		TimeSlots: []models.TimeSlotRequest{
			{StartingTime: types.MustTimeString("09:00"), EndingTime: types.MustTimeString("10:00"), IsOpen: true, MaxCapacity: 1},
			{StartingTime: types.MustTimeString("09:30"), EndingTime: types.MustTimeString("10:30"), IsOpen: true, MaxCapacity: 1},
		},
	}}
	inverted := []models.WorkingDayRequest{{
		DayOfWeek: 2,
		TimeSlots: []models.TimeSlotRequest{
			{StartingTime: types.MustTimeString("11:00"), EndingTime: types.MustTimeString("10:00"), IsOpen: true, MaxCapacity: 1},
		},
	}}

	tests := []struct {
		name    string
		req     models.AddWeekDefinitionRequest
		wantErr error
	}{
		{"bad day of week", models.AddWeekDefinitionRequest{FormID: f.form.ID, DateOfApply: day(20), Days: []models.WorkingDayRequest{{DayOfWeek: 8}}}, ErrInvalidInput},
		{"day twice", models.AddWeekDefinitionRequest{FormID: f.form.ID, DateOfApply: day(20), Days: weekdays(1, 1)}, ErrInvalidInput},
		{"overlapping segments", models.AddWeekDefinitionRequest{FormID: f.form.ID, DateOfApply: day(20), Days: overlapping}, domain.ErrInvalidTimeRange},
		{"inverted segment", models.AddWeekDefinitionRequest{FormID: f.form.ID, DateOfApply: day(20), Days: inverted}, domain.ErrInvalidTimeRange},
		{"ending before start", models.AddWeekDefinitionRequest{FormID: f.form.ID, DateOfApply: day(20), EndingDateOfApply: ptr.Ptr(day(19))}, domain.ErrInvalidTimeRange},
		{"foreign rule", models.AddWeekDefinitionRequest{FormID: f.form.ID, DateOfApply: day(20), ReservationRuleID: ptr.Ptr(int64(999))}, ErrInvalidInput},
		{"unknown form", models.AddWeekDefinitionRequest{FormID: 999, DateOfApply: day(20)}, ErrFormNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.svc.AddWeekDefinition(ctx, &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_RejectsPatternChangeOrphaningAppointments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// среда 12 марта
	booked := f.take(t, at(12, 9, 0), at(12, 9, 30), 1)

	_, err := f.svc.AddWeekDefinition(ctx, &models.AddWeekDefinitionRequest{
		FormID:      f.form.ID,
		DateOfApply: day(10),
		Days:        weekdays(1, 2, 4, 5),
	})
	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []int64{booked.ID}, conflict.SlotIDs)
	assert.ErrorIs(t, err, domain.ErrConflictingAppointments)

	// слоты без изменений не мешают новому шаблону
	resp, err := f.svc.AddWeekDefinition(ctx, &models.AddWeekDefinitionRequest{
		FormID:      f.form.ID,
		DateOfApply: day(10),
		Days: append(weekdays(1, 2, 3, 4), models.WorkingDayRequest{
			DayOfWeek: 5,
			TimeSlots: halfHours(9, 12, 2),
		}),
	})
	require.NoError(t, err)
	assert.Len(t, resp.WorkingDays, 5)
	assert.Len(t, resp.TimeSlots, 4*18+6)

	// закрытие среды после забронированной даты
	_, err = f.svc.AddWeekDefinition(ctx, &models.AddWeekDefinitionRequest{
		FormID:      f.form.ID,
		DateOfApply: day(13),
		Days:        weekdays(1, 2, 4, 5),
	})
	require.NoError(t, err)

	assert.Equal(t, 18, f.countSlots(t, day(12), day(12)))
	assert.Equal(t, 0, f.countSlots(t, day(19), day(19)))
}

func TestService_ClosingDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.take(t, at(4, 9, 0), at(4, 9, 30), 2)

	_, err := f.svc.AddClosingDay(ctx, f.form.ID, day(4))
	assert.ErrorIs(t, err, domain.ErrConflictingAppointments)

	closing, err := f.svc.AddClosingDay(ctx, f.form.ID, at(5, 15, 0))
	require.NoError(t, err)
	assert.Equal(t, day(5), closing.Date)
	assert.Equal(t, 0, f.countSlots(t, day(5), day(5)))

	_, err = f.svc.AddClosingDay(ctx, f.form.ID, day(5))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	require.NoError(t, f.svc.RemoveClosingDay(ctx, f.form.ID, day(5)))
	assert.Equal(t, 18, f.countSlots(t, day(5), day(5)))
	assert.ErrorIs(t, f.svc.RemoveClosingDay(ctx, f.form.ID, day(5)), ErrClosingDayNotFound)
}

func TestService_OverrideExistingSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slot := f.take(t, at(6, 14, 0), at(6, 14, 30), 1)

	_, err := f.svc.OverrideSlot(ctx, &models.OverrideSlotRequest{
		FormID:           f.form.ID,
		StartingDateTime: slot.StartingDateTime,
		EndingDateTime:   slot.EndingDateTime,
		MaxCapacity:      ptr.Ptr(0),
	})
	assert.ErrorIs(t, err, ErrCapacityBelowTaken)

	updated, err := f.svc.OverrideSlot(ctx, &models.OverrideSlotRequest{
		FormID:           f.form.ID,
		StartingDateTime: slot.StartingDateTime,
		EndingDateTime:   slot.EndingDateTime,
		MaxCapacity:      ptr.Ptr(3),
	})
	require.NoError(t, err)
	assert.Equal(t, slot.ID, updated.ID)
	assert.Equal(t, 1, updated.NbPlacesTaken)
	assert.Equal(t, 2, updated.NbRemainingPlaces)

	closed, err := f.svc.OverrideSlot(ctx, &models.OverrideSlotRequest{
		FormID:           f.form.ID,
		StartingDateTime: slot.StartingDateTime,
		EndingDateTime:   slot.EndingDateTime,
		IsOpen:           ptr.Ptr(false),
	})
	require.NoError(t, err)
	assert.False(t, closed.IsOpen)
	assert.Equal(t, 3, closed.MaxCapacity)
}

func TestService_OverrideRejectsSpanOverBookedSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.take(t, at(7, 10, 0), at(7, 10, 30), 1)

	_, err := f.svc.OverrideSlot(ctx, &models.OverrideSlotRequest{
		FormID:           f.form.ID,
		StartingDateTime: at(7, 9, 30),
		EndingDateTime:   at(7, 11, 0),
		MaxCapacity:      ptr.Ptr(4),
	})
	assert.ErrorIs(t, err, domain.ErrConflictingAppointments)

	_, err = f.svc.OverrideSlot(ctx, &models.OverrideSlotRequest{
		FormID:           f.form.ID,
		StartingDateTime: at(7, 12, 0),
		EndingDateTime:   at(7, 13, 0),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.OverrideSlot(ctx, &models.OverrideSlotRequest{
		FormID:           f.form.ID,
		StartingDateTime: at(7, 13, 0),
		EndingDateTime:   at(7, 12, 0),
		MaxCapacity:      ptr.Ptr(4),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}

func TestService_DeleteFormCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slot := f.take(t, at(3, 9, 0), at(3, 9, 30), 1)
	_, err := f.appointments.Create(ctx, &domain.Appointment{
		Reference:        "ref",
		SlotID:           slot.ID,
		FormID:           f.form.ID,
		StartingDateTime: slot.StartingDateTime,
		EndingDateTime:   slot.EndingDateTime,
		User:             domain.UserInfo{Email: "a@example.com"},
		NbBookedSeats:    1,
	})
	require.NoError(t, err)
	_, err = f.svc.AddClosingDay(ctx, f.form.ID, day(10))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteForm(ctx, f.form.ID))

	_, err = f.catalog.GetFormByID(ctx, f.form.ID)
	assert.Error(t, err)

	slots, err := f.slots.GetByFormAndRange(ctx, f.form.ID, day(1), day(31))
	require.NoError(t, err)
	assert.Empty(t, slots)

	list, err := f.appointments.GetByFilter(ctx, domain.AppointmentsFilter{FormID: ptr.Ptr(f.form.ID), IncludeInactive: true})
	require.NoError(t, err)
	assert.Empty(t, list)

	timeSlots, err := f.catalog.GetTimeSlotsByForm(ctx, f.form.ID)
	require.NoError(t, err)
	assert.Empty(t, timeSlots)

	assert.ErrorIs(t, f.svc.DeleteForm(ctx, f.form.ID), ErrFormNotFound)
}

func TestService_CreateFormValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateForm(ctx, &models.CreateFormRequest{Title: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateForm(ctx, &models.CreateFormRequest{Title: "x", NbMaxAppointmentsPerUser: 2})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreateForm(ctx, &models.CreateFormRequest{Title: "x", StartDate: ptr.Ptr(day(10)), EndDate: ptr.Ptr(day(9))})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
