package get_available_slots

import "errors"

var (
	// ErrFormNotFound возвращается, когда форма не найдена
	ErrFormNotFound = errors.New("get_available_slots: form not found")

	// ErrRangeTooLarge возвращается, когда диапазон дат превышает допустимый
	ErrRangeTooLarge = errors.New("get_available_slots: date range is too large")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_available_slots: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_available_slots: internal error")
)
