package ledger

import "errors"

var (
	// ErrInvalidSeatCount количество мест должно быть положительным
	ErrInvalidSeatCount = errors.New("ledger: seat count must be positive")

	// ErrUnknownReservation резервирование уже подтверждено или отменено
	ErrUnknownReservation = errors.New("ledger: unknown reservation")
)
