package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор метрик сервиса
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// База данных
	DBQueryDuration     *prometheus.HistogramVec
	DBOpenConnections   prometheus.Gauge
	DBInUseConnections  prometheus.Gauge
	DBIdleConnections   prometheus.Gauge
	DBWaitCount         prometheus.Gauge
	DBWaitDurationTotal prometheus.Gauge

	// Бизнес-метрики
	LedgerOperationsTotal   *prometheus.CounterVec
	AppointmentsTotal       *prometheus.CounterVec
	SlotsMaterializedTotal  prometheus.Counter
	PersistenceRetriesTotal prometheus.Counter
}

// New создает метрики и регистрирует их в глобальном реестре Prometheus
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer создает метрики и регистрирует их в указанном реестре
// Используется в тестах, чтобы не конфликтовать с глобальным реестром
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),

		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),

		DBOpenConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of established connections to the database",
			ConstLabels: constLabels,
		}),
		DBInUseConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: constLabels,
		}),
		DBIdleConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle connections",
			ConstLabels: constLabels,
		}),
		DBWaitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: constLabels,
		}),
		DBWaitDurationTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_wait_duration_seconds_total",
			Help:        "Total time blocked waiting for a new connection",
			ConstLabels: constLabels,
		}),

		LedgerOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ledger_operations_total",
			Help:        "Seat ledger operations by type and result",
			ConstLabels: constLabels,
		}, []string{"operation", "result"}),

		AppointmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "appointments_total",
			Help:        "Appointment lifecycle events",
			ConstLabels: constLabels,
		}, []string{"event"}),

		SlotsMaterializedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "slots_materialized_total",
			Help:        "Generated slots persisted on first use",
			ConstLabels: constLabels,
		}),

		PersistenceRetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "persistence_retries_total",
			Help:        "Retries of transient persistence failures after a successful seat reservation",
			ConstLabels: constLabels,
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBOpenConnections,
		m.DBInUseConnections,
		m.DBIdleConnections,
		m.DBWaitCount,
		m.DBWaitDurationTotal,
		m.LedgerOperationsTotal,
		m.AppointmentsTotal,
		m.SlotsMaterializedTotal,
		m.PersistenceRetriesTotal,
	)

	return m
}

// ObserveHTTPRequest фиксирует обработанный HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveDBQuery фиксирует длительность запроса к БД
func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// LedgerOperation фиксирует операцию с журналом мест (reserve, release, confirm, rollback)
func (m *Metrics) LedgerOperation(operation, result string) {
	if m == nil {
		return
	}
	m.LedgerOperationsTotal.WithLabelValues(operation, result).Inc()
}

// AppointmentEvent фиксирует событие жизненного цикла записи (booked, cancelled, rescheduled)
func (m *Metrics) AppointmentEvent(event string) {
	if m == nil {
		return
	}
	m.AppointmentsTotal.WithLabelValues(event).Inc()
}

// SlotMaterialized фиксирует сохранение сгенерированного слота
func (m *Metrics) SlotMaterialized() {
	if m == nil {
		return
	}
	m.SlotsMaterializedTotal.Inc()
}

// PersistenceRetry фиксирует повтор записи после временной ошибки хранилища
func (m *Metrics) PersistenceRetry() {
	if m == nil {
		return
	}
	m.PersistenceRetriesTotal.Inc()
}
