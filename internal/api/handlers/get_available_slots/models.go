package get_available_slots

import (
	"strconv"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

// QueryParams параметры запроса
type QueryParams struct {
	From  string `json:"from" validate:"required,datetime=2006-01-02"`
	To    string `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Seats string `json:"seats" validate:"omitempty,number"`
}

// SlotResponse HTTP response model
type SlotResponse struct {
	ID                         *int64 `json:"id,omitempty"` // отсутствует у еще не сохраненного слота
	StartingDateTime           string `json:"startingDateTime"`
	EndingDateTime             string `json:"endingDateTime"`
	MaxCapacity                int    `json:"maxCapacity"`
	NbRemainingPlaces          int    `json:"nbRemainingPlaces"`
	NbPotentialRemainingPlaces int    `json:"nbPotentialRemainingPlaces"`
	IsSpecific                 bool   `json:"isSpecific"`
}

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	FormID    int64          `json:"formId"`
	StartDate string         `json:"startDate"`
	EndDate   string         `json:"endDate"`
	Slots     []SlotResponse `json:"slots"`
}

// ToUseCaseRequest конвертирует параметры запроса в модель use case
func (q *QueryParams) ToUseCaseRequest(formID int64) (*getAvailableSlots.Request, error) {
	req := &getAvailableSlots.Request{FormID: formID}

	from, err := time.Parse(domain.DateFormat, q.From)
	if err != nil {
		return nil, err
	}
	req.StartDate = from

	if q.To != "" {
		to, err := time.Parse(domain.DateFormat, q.To)
		if err != nil {
			return nil, err
		}
		req.EndDate = to
	}

	if q.Seats != "" {
		seats, err := strconv.Atoi(q.Seats)
		if err != nil {
			return nil, err
		}
		req.MinSeats = seats
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP модель
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	result := &AvailableSlotsResponse{
		FormID:    resp.FormID,
		StartDate: resp.StartDate.Format(domain.DateFormat),
		EndDate:   resp.EndDate.Format(domain.DateFormat),
		Slots:     make([]SlotResponse, 0, len(resp.Slots)),
	}
	for _, sl := range resp.Slots {
		item := SlotResponse{
			StartingDateTime:           sl.StartingDateTime.Format(domain.DateTimeFormat),
			EndingDateTime:             sl.EndingDateTime.Format(domain.DateTimeFormat),
			MaxCapacity:                sl.MaxCapacity,
			NbRemainingPlaces:          sl.NbRemainingPlaces,
			NbPotentialRemainingPlaces: sl.NbPotentialRemainingPlaces,
			IsSpecific:                 sl.IsSpecific,
		}
		if sl.ID > 0 {
			id := sl.ID
			item.ID = &id
		}
		result.Slots = append(result.Slots, item)
	}
	return result
}
