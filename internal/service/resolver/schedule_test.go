package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

func date(month time.Month, day int) time.Time {
	return time.Date(2025, month, day, 0, 0, 0, 0, time.UTC)
}

func newSchedule(rules []*domain.ReservationRule, weeks []*domain.WeekDefinition, days []*domain.WorkingDay, slots []*domain.TimeSlot) *Schedule {
	return NewSchedule(&domain.Form{ID: 1}, rules, weeks, days, slots)
}

func TestSchedule_ResolveRule(t *testing.T) {
	rules := []*domain.ReservationRule{
		{ID: 10, DateOfApply: date(time.March, 1), MaxCapacityPerSlot: 4},
		{ID: 11, DateOfApply: date(time.March, 15), MaxCapacityPerSlot: 8},
	}
	weeks := []*domain.WeekDefinition{{ID: 20, DateOfApply: date(time.January, 1)}}

	tests := []struct {
		name     string
		date     time.Time
		expected int64
	}{
		{name: "before first rule falls back to closest future", date: date(time.February, 10), expected: 10},
		{name: "on first rule date", date: date(time.March, 1), expected: 10},
		{name: "between rules", date: date(time.March, 14), expected: 10},
		{name: "on second rule date", date: date(time.March, 15), expected: 11},
		{name: "after last rule", date: date(time.December, 31), expected: 11},
	}

	s := newSchedule(rules, weeks, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Resolve(tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res.Rule.ID)
		})
	}
}

func TestSchedule_ResolveRule_Errors(t *testing.T) {
	weeks := []*domain.WeekDefinition{{ID: 20, DateOfApply: date(time.January, 1)}}

	t.Run("no rules", func(t *testing.T) {
		_, err := newSchedule(nil, weeks, nil, nil).Resolve(date(time.March, 3))
		assert.ErrorIs(t, err, domain.ErrNoRuleForDate)
	})

	t.Run("tie on selected date", func(t *testing.T) {
		rules := []*domain.ReservationRule{
			{ID: 10, DateOfApply: date(time.March, 1)},
			{ID: 11, DateOfApply: date(time.March, 1)},
		}
		_, err := newSchedule(rules, weeks, nil, nil).Resolve(date(time.March, 3))
		assert.ErrorIs(t, err, domain.ErrAmbiguousRule)
	})

	t.Run("tie on an older date is irrelevant", func(t *testing.T) {
		rules := []*domain.ReservationRule{
			{ID: 10, DateOfApply: date(time.February, 1)},
			{ID: 11, DateOfApply: date(time.February, 1)},
			{ID: 12, DateOfApply: date(time.March, 1)},
		}
		res, err := newSchedule(rules, weeks, nil, nil).Resolve(date(time.March, 3))
		require.NoError(t, err)
		assert.Equal(t, int64(12), res.Rule.ID)
	})
}

func TestSchedule_ResolveWeek(t *testing.T) {
	rules := []*domain.ReservationRule{{ID: 10, DateOfApply: date(time.January, 1)}}
	weeks := []*domain.WeekDefinition{
		{ID: 20, DateOfApply: date(time.January, 1), EndingDateOfApply: ptr.Ptr(date(time.January, 31))},
		{ID: 21, DateOfApply: date(time.March, 1)},
	}
	days := []*domain.WorkingDay{
		{ID: 30, WeekDefinitionID: 20, DayOfWeek: 1},
		{ID: 31, WeekDefinitionID: 21, DayOfWeek: 2},
	}
	slots := []*domain.TimeSlot{
		{ID: 40, WorkingDayID: 30, StartingTime: types.MustTimeString("09:00"), EndingTime: types.MustTimeString("10:00"), IsOpen: true, MaxCapacity: 2},
		{ID: 41, WorkingDayID: 31, StartingTime: types.MustTimeString("14:00"), EndingTime: types.MustTimeString("15:00"), IsOpen: true, MaxCapacity: 3},
	}
	s := newSchedule(rules, weeks, days, slots)

	// 2025-01-06 понедельник
	res, err := s.Resolve(date(time.January, 6))
	require.NoError(t, err)
	assert.Equal(t, int64(20), res.WeekDefinition.ID)
	require.True(t, res.IsWorkingDay())
	require.Len(t, res.TimeSlots(), 1)
	assert.Equal(t, int64(40), res.TimeSlots()[0].ID)

	// вторник в первом шаблоне не рабочий
	res, err = s.Resolve(date(time.January, 7))
	require.NoError(t, err)
	assert.False(t, res.IsWorkingDay())
	assert.Empty(t, res.TimeSlots())

	// февраль: первый шаблон закончился, второй еще не начался
	_, err = s.Resolve(date(time.February, 10))
	assert.ErrorIs(t, err, domain.ErrNoRuleForDate)

	// 2025-03-04 вторник
	res, err = s.Resolve(date(time.March, 4))
	require.NoError(t, err)
	assert.Equal(t, int64(21), res.WeekDefinition.ID)
	require.Len(t, res.TimeSlots(), 1)
	assert.Equal(t, int64(41), res.TimeSlots()[0].ID)

	// до первого шаблона откат в будущее не делается
	_, err = s.Resolve(date(time.January, 1).AddDate(-1, 0, 0))
	assert.ErrorIs(t, err, domain.ErrNoRuleForDate)
}

func TestResolution_SlotCapacity(t *testing.T) {
	ts := &domain.TimeSlot{MaxCapacity: 3}

	res := &Resolution{Rule: &domain.ReservationRule{MaxCapacityPerSlot: 0}}
	assert.Equal(t, 3, res.SlotCapacity(ts))

	res.Rule.MaxCapacityPerSlot = 7
	assert.Equal(t, 7, res.SlotCapacity(ts))
}

func TestResolver_LoadFromStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	catalog := memory.NewCatalogRepository(store)

	form, err := catalog.CreateForm(ctx, &domain.Form{Title: "Visa desk", IsActive: true})
	require.NoError(t, err)
	_, err = catalog.CreateReservationRule(ctx, &domain.ReservationRule{FormID: form.ID, DateOfApply: date(time.January, 1), MaxPeoplePerAppointment: 2})
	require.NoError(t, err)
	week, err := catalog.CreateWeekDefinition(ctx, &domain.WeekDefinition{FormID: form.ID, DateOfApply: date(time.January, 1)})
	require.NoError(t, err)
	day, err := catalog.CreateWorkingDay(ctx, &domain.WorkingDay{WeekDefinitionID: week.ID, DayOfWeek: 3})
	require.NoError(t, err)
	_, err = catalog.CreateTimeSlot(ctx, &domain.TimeSlot{
		WorkingDayID: day.ID,
		StartingTime: types.MustTimeString("10:00"),
		EndingTime:   types.MustTimeString("11:00"),
		IsOpen:       true,
		MaxCapacity:  5,
	})
	require.NoError(t, err)

	r := NewResolver(catalog)

	// 2025-03-05 среда
	res, err := r.Resolve(ctx, form.ID, date(time.March, 5))
	require.NoError(t, err)
	assert.Equal(t, 2, res.MaxPeoplePerAppointment())
	require.Len(t, res.TimeSlots(), 1)
	assert.Equal(t, 5, res.SlotCapacity(res.TimeSlots()[0]))

	_, err = r.Resolve(ctx, form.ID+100, date(time.March, 5))
	assert.Error(t, err)
}
