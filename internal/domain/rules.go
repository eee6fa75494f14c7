package domain

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// ReservationRule carries capacity limits effective from DateOfApply until the next rule
type ReservationRule struct {
	ID                      int64
	FormID                  int64
	Name                    string
	DateOfApply             time.Time
	MaxCapacityPerSlot      int // 0 = keep time slot capacity
	MaxPeoplePerAppointment int // 0 = unlimited
}

// OverridesCapacity returns true if the rule imposes its own per-slot capacity
func (r *ReservationRule) OverridesCapacity() bool {
	return r.MaxCapacityPerSlot > 0
}

// WeekDefinition is a recurring weekly pattern active on [DateOfApply, EndingDateOfApply]
type WeekDefinition struct {
	ID                int64
	FormID            int64
	ReservationRuleID *int64
	DateOfApply       time.Time
	EndingDateOfApply *time.Time // nil = bounded by the next definition
}

// CoversDate returns true if the date is not after the explicit ending date
func (w *WeekDefinition) CoversDate(date time.Time) bool {
	if w.EndingDateOfApply == nil {
		return !DateOnly(date).Before(DateOnly(w.DateOfApply))
	}
	day := DateOnly(date)
	return !day.Before(DateOnly(w.DateOfApply)) && !day.After(DateOnly(*w.EndingDateOfApply))
}

// WorkingDay marks a day of week (1 = Monday ... 7 = Sunday) as open in a week definition
type WorkingDay struct {
	ID               int64
	WeekDefinitionID int64
	DayOfWeek        int
}

// TimeSlot is a recurring bookable segment within a working day
type TimeSlot struct {
	ID           int64
	WorkingDayID int64
	StartingTime types.TimeString
	EndingTime   types.TimeString
	IsOpen       bool
	MaxCapacity  int
}

// HasValidRange returns true if the segment is not zero-width or inverted
func (t *TimeSlot) HasValidRange() bool {
	return t.StartingTime.Validate() == nil &&
		t.EndingTime.Validate() == nil &&
		t.StartingTime.IsBefore(t.EndingTime)
}

// Overlaps returns true if two segments of the same day intersect (touching ends are allowed)
func (t *TimeSlot) Overlaps(other *TimeSlot) bool {
	return t.StartingTime.IsBefore(other.EndingTime) && other.StartingTime.IsBefore(t.EndingTime)
}

// ClosingDay fully closes a calendar date for a form
type ClosingDay struct {
	ID     int64
	FormID int64
	Date   time.Time
}
