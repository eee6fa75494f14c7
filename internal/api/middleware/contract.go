package middleware

import "time"

// HTTPMetrics сбор метрик HTTP запросов
type HTTPMetrics interface {
	ObserveHTTPRequest(method, route, status string, duration time.Duration)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
