package domain

// Business validation constants
const (
	MinDayOfWeek            = 1
	MaxDayOfWeek            = 7
	MinSlotCapacity         = 1
	MaxSlotCapacity         = 1000
	MaxSeatsPerAppointment  = 100
	MaxQueryRangeDays       = 92
	DefaultQueryRangeDays   = 7
	DefaultMinRemainingSeat = 1
)

// Time format constants
const (
	TimeFormat     = "15:04"            // HH:MM
	DateFormat     = "2006-01-02"       // YYYY-MM-DD
	DateTimeFormat = "2006-01-02T15:04" // YYYY-MM-DDTHH:MM
)
