package schedule

import "errors"

var (
	// ErrFormNotFound возвращается, когда форма не найдена
	ErrFormNotFound = errors.New("schedule: form not found")

	// ErrClosingDayNotFound возвращается, когда закрытый день не найден
	ErrClosingDayNotFound = errors.New("schedule: closing day not found")

	// ErrAlreadyExists возвращается при попытке создать дубликат
	ErrAlreadyExists = errors.New("schedule: already exists")

	// ErrCapacityBelowTaken возвращается при уменьшении емкости слота ниже занятых мест
	ErrCapacityBelowTaken = errors.New("schedule: capacity below taken seats")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("schedule: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("schedule: internal error")
)
