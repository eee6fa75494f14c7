package add_closing_day

import "github.com/m04kA/SMC-AppointmentService/internal/domain"

// AddClosingDayRequest HTTP request model
type AddClosingDayRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// ClosingDayResponse HTTP response model
type ClosingDayResponse struct {
	ID     int64  `json:"id"`
	FormID int64  `json:"formId"`
	Date   string `json:"date"`
}

// FromDomain конвертирует закрытый день в HTTP ответ
func FromDomain(day *domain.ClosingDay) *ClosingDayResponse {
	return &ClosingDayResponse{
		ID:     day.ID,
		FormID: day.FormID,
		Date:   day.Date.Format(domain.DateFormat),
	}
}
