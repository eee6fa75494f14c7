package resolver

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Resolution is the rule set governing one calendar date
type Resolution struct {
	Date           time.Time
	Rule           *domain.ReservationRule
	WeekDefinition *domain.WeekDefinition
	WorkingDays    []*domain.WorkingDay
	TimeSlotsByDay map[int][]*domain.TimeSlot // ISO day of week -> segments ordered by start
}

// IsWorkingDay returns true if the resolved week pattern opens the date's day of week
func (r *Resolution) IsWorkingDay() bool {
	_, ok := r.TimeSlotsByDay[domain.ISODayOfWeek(r.Date)]
	return ok
}

// TimeSlots returns the segments for the resolved date
func (r *Resolution) TimeSlots() []*domain.TimeSlot {
	return r.TimeSlotsByDay[domain.ISODayOfWeek(r.Date)]
}

// SlotCapacity returns the effective capacity of a segment:
// the rule's per-slot capacity when set, the segment's own capacity otherwise
func (r *Resolution) SlotCapacity(ts *domain.TimeSlot) int {
	if r.Rule != nil && r.Rule.OverridesCapacity() {
		return r.Rule.MaxCapacityPerSlot
	}
	return ts.MaxCapacity
}

// MaxPeoplePerAppointment returns the seat limit per appointment, 0 if unlimited
func (r *Resolution) MaxPeoplePerAppointment() int {
	if r.Rule == nil {
		return 0
	}
	return r.Rule.MaxPeoplePerAppointment
}
