package resolver

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Schedule is an immutable snapshot of all rule layers of a form.
// It is safe for concurrent use once loaded.
type Schedule struct {
	Form  *domain.Form
	rules []*domain.ReservationRule // ordered by DateOfApply
	weeks []*domain.WeekDefinition  // ordered by DateOfApply

	workingDaysByWeek map[int64][]*domain.WorkingDay
	timeSlotsByDay    map[int64][]*domain.TimeSlot
}

// NewSchedule builds a snapshot from already loaded layers.
// Inputs must be ordered the way the catalog returns them.
func NewSchedule(
	form *domain.Form,
	rules []*domain.ReservationRule,
	weeks []*domain.WeekDefinition,
	workingDays []*domain.WorkingDay,
	timeSlots []*domain.TimeSlot,
) *Schedule {
	s := &Schedule{
		Form:              form,
		rules:             rules,
		weeks:             weeks,
		workingDaysByWeek: make(map[int64][]*domain.WorkingDay),
		timeSlotsByDay:    make(map[int64][]*domain.TimeSlot),
	}
	for _, day := range workingDays {
		s.workingDaysByWeek[day.WeekDefinitionID] = append(s.workingDaysByWeek[day.WeekDefinitionID], day)
	}
	for _, ts := range timeSlots {
		s.timeSlotsByDay[ts.WorkingDayID] = append(s.timeSlotsByDay[ts.WorkingDayID], ts)
	}
	return s
}

// Resolve returns the reservation rule, week definition and segments governing the date
func (s *Schedule) Resolve(date time.Time) (*Resolution, error) {
	day := domain.DateOnly(date)

	rule, err := s.resolveRule(day)
	if err != nil {
		return nil, err
	}

	week, err := s.resolveWeek(day)
	if err != nil {
		return nil, err
	}

	res := &Resolution{
		Date:           day,
		Rule:           rule,
		WeekDefinition: week,
		WorkingDays:    s.workingDaysByWeek[week.ID],
		TimeSlotsByDay: make(map[int][]*domain.TimeSlot),
	}
	for _, wd := range res.WorkingDays {
		// рабочий день без сегментов тоже рабочий: слотов просто нет
		res.TimeSlotsByDay[wd.DayOfWeek] = append(res.TimeSlotsByDay[wd.DayOfWeek], s.timeSlotsByDay[wd.ID]...)
	}
	return res, nil
}

// resolveRule picks the rule with the greatest DateOfApply not after the date.
// When every rule starts later, the closest future rule is used.
func (s *Schedule) resolveRule(day time.Time) (*domain.ReservationRule, error) {
	if len(s.rules) == 0 {
		return nil, fmt.Errorf("%w: form id=%d has no reservation rule", domain.ErrNoRuleForDate, s.Form.ID)
	}

	var past, future []*domain.ReservationRule
	for _, rule := range s.rules {
		apply := domain.DateOnly(rule.DateOfApply)
		if !apply.After(day) {
			past = appendBest(past, rule, apply, func(a, b time.Time) bool { return a.After(b) })
		} else {
			future = appendBest(future, rule, apply, func(a, b time.Time) bool { return a.Before(b) })
		}
	}

	candidates := past
	if len(candidates) == 0 {
		candidates = future
	}
	if len(candidates) > 1 {
		return nil, fmt.Errorf("%w: %d reservation rules of form id=%d apply from %s",
			domain.ErrAmbiguousRule, len(candidates), s.Form.ID, candidates[0].DateOfApply.Format(domain.DateFormat))
	}
	return candidates[0], nil
}

// resolveWeek picks the week definition with the greatest DateOfApply not after the date.
// An explicit ending date before the date means no pattern applies.
func (s *Schedule) resolveWeek(day time.Time) (*domain.WeekDefinition, error) {
	var best []*domain.WeekDefinition
	var bestApply time.Time
	for _, week := range s.weeks {
		apply := domain.DateOnly(week.DateOfApply)
		if apply.After(day) {
			continue
		}
		switch {
		case len(best) == 0 || apply.After(bestApply):
			best = []*domain.WeekDefinition{week}
			bestApply = apply
		case apply.Equal(bestApply):
			best = append(best, week)
		}
	}

	if len(best) == 0 {
		return nil, fmt.Errorf("%w: no week definition of form id=%d starts on or before %s",
			domain.ErrNoRuleForDate, s.Form.ID, day.Format(domain.DateFormat))
	}
	if len(best) > 1 {
		return nil, fmt.Errorf("%w: %d week definitions of form id=%d apply from %s",
			domain.ErrAmbiguousRule, len(best), s.Form.ID, bestApply.Format(domain.DateFormat))
	}

	week := best[0]
	if !week.CoversDate(day) {
		return nil, fmt.Errorf("%w: week definition id=%d ended on %s",
			domain.ErrNoRuleForDate, week.ID, week.EndingDateOfApply.Format(domain.DateFormat))
	}
	return week, nil
}

// appendBest keeps every rule sharing the best date according to better
func appendBest(best []*domain.ReservationRule, rule *domain.ReservationRule, apply time.Time, better func(a, b time.Time) bool) []*domain.ReservationRule {
	if len(best) == 0 {
		return []*domain.ReservationRule{rule}
	}
	current := domain.DateOnly(best[0].DateOfApply)
	switch {
	case better(apply, current):
		return []*domain.ReservationRule{rule}
	case apply.Equal(current):
		return append(best, rule)
	default:
		return best
	}
}
