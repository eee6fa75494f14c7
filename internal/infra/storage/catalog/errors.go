package catalog

import "errors"

var (
	// ErrFormNotFound возвращается, когда форма не найдена
	ErrFormNotFound = errors.New("catalog.repository: form not found")

	// ErrClosingDayNotFound возвращается, когда закрытый день не найден
	ErrClosingDayNotFound = errors.New("catalog.repository: closing day not found")

	// ErrClosingDayExists возвращается при повторном закрытии той же даты
	ErrClosingDayExists = errors.New("catalog.repository: closing day already exists")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("catalog.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("catalog.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("catalog.repository: failed to scan row")
)
