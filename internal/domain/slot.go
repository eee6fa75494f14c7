package domain

import (
	"fmt"
	"time"
)

// Slot is a concrete bookable time interval with its seat ledger.
// A slot with ID == 0 is generated from the rule layers and not stored yet.
type Slot struct {
	ID               int64
	FormID           int64
	StartingDateTime time.Time
	EndingDateTime   time.Time
	IsOpen           bool
	IsSpecific       bool // persisted override created or edited by an administrator
	MaxCapacity      int

	NbPlacesTaken              int
	NbRemainingPlaces          int
	NbPotentialRemainingPlaces int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SlotSnapshot is a consistent read of a slot seat ledger
type SlotSnapshot struct {
	SlotID                     int64
	MaxCapacity                int
	NbPlacesTaken              int
	NbRemainingPlaces          int
	NbPotentialRemainingPlaces int
	HeldInFlight               int
	IsOpen                     bool
}

// IsPersisted returns true if the slot is stored
func (s *Slot) IsPersisted() bool {
	return s.ID > 0
}

// Date returns the calendar date of the slot start
func (s *Slot) Date() time.Time {
	return DateOnly(s.StartingDateTime)
}

// HasValidRange returns true if the slot is not zero-width or inverted
func (s *Slot) HasValidRange() bool {
	return s.EndingDateTime.After(s.StartingDateTime)
}

// Overlaps returns true if the two slots intersect (touching ends do not overlap)
func (s *Slot) Overlaps(other *Slot) bool {
	return s.StartingDateTime.Before(other.EndingDateTime) && other.StartingDateTime.Before(s.EndingDateTime)
}

// SameRange returns true if both slots cover exactly the same interval
func (s *Slot) SameRange(start, end time.Time) bool {
	return s.StartingDateTime.Equal(start) && s.EndingDateTime.Equal(end)
}

// RecomputeSeats derives remaining counters from capacity, taken seats and seats held in flight
func (s *Slot) RecomputeSeats(heldInFlight int) {
	s.NbRemainingPlaces = s.MaxCapacity - s.NbPlacesTaken
	s.NbPotentialRemainingPlaces = s.NbRemainingPlaces - heldInFlight
	if s.NbPotentialRemainingPlaces < 0 {
		s.NbPotentialRemainingPlaces = 0
	}
}

// CheckInvariant verifies the seat ledger invariant
func (s *Slot) CheckInvariant() error {
	if s.NbPlacesTaken < 0 || s.NbPlacesTaken > s.MaxCapacity {
		return fmt.Errorf("%w: slot id=%d taken=%d capacity=%d", ErrInvariantViolation, s.ID, s.NbPlacesTaken, s.MaxCapacity)
	}
	if s.NbRemainingPlaces != s.MaxCapacity-s.NbPlacesTaken {
		return fmt.Errorf("%w: slot id=%d remaining=%d, expected %d", ErrInvariantViolation, s.ID, s.NbRemainingPlaces, s.MaxCapacity-s.NbPlacesTaken)
	}
	if s.NbPotentialRemainingPlaces > s.NbRemainingPlaces {
		return fmt.Errorf("%w: slot id=%d potential=%d exceeds remaining=%d", ErrInvariantViolation, s.ID, s.NbPotentialRemainingPlaces, s.NbRemainingPlaces)
	}
	return nil
}

// Snapshot returns a read-only copy of the ledger fields
func (s *Slot) Snapshot(heldInFlight int) SlotSnapshot {
	return SlotSnapshot{
		SlotID:                     s.ID,
		MaxCapacity:                s.MaxCapacity,
		NbPlacesTaken:              s.NbPlacesTaken,
		NbRemainingPlaces:          s.NbRemainingPlaces,
		NbPotentialRemainingPlaces: s.NbPotentialRemainingPlaces,
		HeldInFlight:               heldInFlight,
		IsOpen:                     s.IsOpen,
	}
}

// NewGeneratedSlot builds an empty, not yet persisted slot
func NewGeneratedSlot(formID int64, start, end time.Time, capacity int) *Slot {
	return &Slot{
		FormID:                     formID,
		StartingDateTime:           start,
		EndingDateTime:             end,
		IsOpen:                     true,
		MaxCapacity:                capacity,
		NbRemainingPlaces:          capacity,
		NbPotentialRemainingPlaces: capacity,
	}
}
