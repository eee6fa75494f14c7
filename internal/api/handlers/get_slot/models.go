package get_slot

import "github.com/m04kA/SMC-AppointmentService/internal/domain"

// SlotSnapshotResponse HTTP response model
type SlotSnapshotResponse struct {
	SlotID                     int64 `json:"slotId"`
	IsOpen                     bool  `json:"isOpen"`
	MaxCapacity                int   `json:"maxCapacity"`
	NbPlacesTaken              int   `json:"nbPlacesTaken"`
	NbRemainingPlaces          int   `json:"nbRemainingPlaces"`
	NbPotentialRemainingPlaces int   `json:"nbPotentialRemainingPlaces"`
}

// FromSnapshot конвертирует состояние мест в HTTP модель
func FromSnapshot(s domain.SlotSnapshot) SlotSnapshotResponse {
	return SlotSnapshotResponse{
		SlotID:                     s.SlotID,
		IsOpen:                     s.IsOpen,
		MaxCapacity:                s.MaxCapacity,
		NbPlacesTaken:              s.NbPlacesTaken,
		NbRemainingPlaces:          s.NbRemainingPlaces,
		NbPotentialRemainingPlaces: s.NbPotentialRemainingPlaces,
	}
}
