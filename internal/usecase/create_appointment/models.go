package create_appointment

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модель запроса на создание записи
// Слот задается либо SlotID, либо формой и точным интервалом сгенерированного слота
type Request struct {
	SlotID           int64           // ID сохраненного слота (0 - слот еще не сохранен)
	FormID           int64           // ID формы
	StartingDateTime time.Time       // Начало слота
	EndingDateTime   time.Time       // Конец слота
	User             domain.UserInfo // Данные пользователя
	NbSeats          int             // Количество мест
}

// Response модель ответа с созданной записью
type Response struct {
	ID                int64
	Reference         string
	SlotID            int64
	FormID            int64
	StartingDateTime  time.Time
	EndingDateTime    time.Time
	User              domain.UserInfo
	NbBookedSeats     int
	NbRemainingPlaces int // Свободные места слота после бронирования
	CreatedAt         time.Time
}

func toResponse(a *domain.Appointment, remaining int) *Response {
	return &Response{
		ID:                a.ID,
		Reference:         a.Reference,
		SlotID:            a.SlotID,
		FormID:            a.FormID,
		StartingDateTime:  a.StartingDateTime,
		EndingDateTime:    a.EndingDateTime,
		User:              a.User,
		NbBookedSeats:     a.NbBookedSeats,
		NbRemainingPlaces: remaining,
		CreatedAt:         a.CreatedAt,
	}
}
