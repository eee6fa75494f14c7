package domain

import "time"

// Form represents an appointment-taking activity and its booking policy.
// All rule layers (reservation rules, week definitions, closing days) belong to a form.
type Form struct {
	ID          int64
	Title       string
	Description string
	StartDate   *time.Time // nil = no lower bound
	EndDate     *time.Time // nil = no upper bound
	IsActive    bool

	// Booking policy, 0 disables the corresponding rule
	NbMaxAppointmentsPerUser        int
	NbDaysForMaxAppointmentsPerUser int
	NbDaysBeforeNewAppointment      int
	MinTimeBeforeAppointmentMinutes int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsValidOn returns true if the date lies within the form validity window (inclusive)
func (f *Form) IsValidOn(date time.Time) bool {
	day := DateOnly(date)
	if f.StartDate != nil && day.Before(DateOnly(*f.StartDate)) {
		return false
	}
	if f.EndDate != nil && day.After(DateOnly(*f.EndDate)) {
		return false
	}
	return true
}

// HasMaxAppointmentsRule returns true if the per-user appointment limit is enabled
func (f *Form) HasMaxAppointmentsRule() bool {
	return f.NbMaxAppointmentsPerUser > 0 && f.NbDaysForMaxAppointmentsPerUser > 0
}

// HasDelayBetweenAppointmentsRule returns true if a minimal delay between appointments is enforced
func (f *Form) HasDelayBetweenAppointmentsRule() bool {
	return f.NbDaysBeforeNewAppointment > 0
}
