package models

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модели

// UpdateAppointmentRequest запрос на перенос записи
// Нулевые поля берутся из текущей записи
type UpdateAppointmentRequest struct {
	SlotID           int64
	StartingDateTime *time.Time
	EndingDateTime   *time.Time
	NbSeats          int
	User             *domain.UserInfo
}

// GetUserAppointmentsRequest запрос на получение записей пользователя
type GetUserAppointmentsRequest struct {
	Email           string
	FormID          *int64
	StartDate       *time.Time
	EndDate         *time.Time
	IncludeInactive bool // Включить отмененные записи
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetUserAppointmentsRequest) ToDomainFilter() domain.AppointmentsFilter {
	return domain.AppointmentsFilter{
		FormID:          r.FormID,
		Email:           r.Email,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		IncludeInactive: r.IncludeInactive,
	}
}

// Response модели

// UserResponse данные пользователя в записи
type UserResponse struct {
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     *string `json:"phone,omitempty"`
}

// AppointmentResponse ответ с данными записи
type AppointmentResponse struct {
	ID               int64        `json:"id"`
	Reference        string       `json:"reference"`
	SlotID           int64        `json:"slotId"`
	FormID           int64        `json:"formId"`
	StartingDateTime string       `json:"startingDateTime"` // "2025-03-03T09:00"
	EndingDateTime   string       `json:"endingDateTime"`
	User             UserResponse `json:"user"`
	NbBookedSeats    int          `json:"nbBookedSeats"`
	IsCancelled      bool         `json:"isCancelled"`
	CancelledAt      *string      `json:"cancelledAt,omitempty"`
	CreatedAt        string       `json:"createdAt"`
	UpdatedAt        string       `json:"updatedAt"`
}

// AppointmentListResponse список записей
type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

// FromDomainUser конвертирует domain.UserInfo
func FromDomainUser(u domain.UserInfo) UserResponse {
	return UserResponse{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

// FromDomainAppointment конвертирует domain.Appointment в AppointmentResponse
func FromDomainAppointment(a *domain.Appointment) *AppointmentResponse {
	resp := &AppointmentResponse{
		ID:               a.ID,
		Reference:        a.Reference,
		SlotID:           a.SlotID,
		FormID:           a.FormID,
		StartingDateTime: a.StartingDateTime.Format(domain.DateTimeFormat),
		EndingDateTime:   a.EndingDateTime.Format(domain.DateTimeFormat),
		User:             FromDomainUser(a.User),
		NbBookedSeats:    a.NbBookedSeats,
		IsCancelled:      a.IsCancelled,
		CreatedAt:        a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        a.UpdatedAt.Format(time.RFC3339),
	}
	if a.CancelledAt != nil {
		cancelledAt := a.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledAt
	}
	return resp
}

// FromDomainAppointmentList конвертирует список записей
func FromDomainAppointmentList(list []*domain.Appointment) *AppointmentListResponse {
	resp := &AppointmentListResponse{
		Appointments: make([]AppointmentResponse, 0, len(list)),
		Total:        len(list),
	}
	for _, a := range list {
		resp.Appointments = append(resp.Appointments, *FromDomainAppointment(a))
	}
	return resp
}
