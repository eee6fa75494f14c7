package get_available_slots

import (
	"time"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	FormID    int64     // ID формы
	StartDate time.Time // Первая дата диапазона (без времени)
	EndDate   time.Time // Последняя дата диапазона включительно (нулевая - неделя от StartDate)
	MinSeats  int       // Минимум свободных мест в слоте (0 - одно место)
}

// Response модель ответа со списком доступных слотов
type Response struct {
	FormID    int64
	StartDate time.Time
	EndDate   time.Time
	Slots     []Slot // Отсортированы по времени начала
}

// Slot модель доступного слота
// ID == 0 у слота, который еще не сохранен: для записи на него передаются форма и интервал
type Slot struct {
	ID                         int64
	StartingDateTime           time.Time
	EndingDateTime             time.Time
	MaxCapacity                int
	NbRemainingPlaces          int
	NbPotentialRemainingPlaces int
	IsSpecific                 bool
}
