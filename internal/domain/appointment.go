package domain

import "time"

// UserInfo identifies the person booking; Email is the identity used by booking limits
type UserInfo struct {
	Email     string
	FirstName string
	LastName  string
	Phone     *string
}

// Appointment is a user's reservation of one or more seats on a slot
type Appointment struct {
	ID               int64
	Reference        string // public opaque reference (UUID)
	SlotID           int64
	FormID           int64
	StartingDateTime time.Time // denormalized from the slot for booking-limit queries
	EndingDateTime   time.Time
	User             UserInfo
	NbBookedSeats    int
	IsCancelled      bool
	CancelledAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the appointment still holds seats
func (a *Appointment) IsActive() bool {
	return !a.IsCancelled
}

// Date returns the calendar date of the appointment
func (a *Appointment) Date() time.Time {
	return DateOnly(a.StartingDateTime)
}

// AppointmentsFilter фильтр для выборки записей пользователя
type AppointmentsFilter struct {
	FormID          *int64
	Email           string
	StartDate       *time.Time
	EndDate         *time.Time
	IncludeInactive bool
}
