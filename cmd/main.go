package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	addClosingDayHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/add_closing_day"
	addReservationRuleHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/add_reservation_rule"
	addWeekDefinitionHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/add_week_definition"
	cancelAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/cancel_appointment"
	createAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_appointment"
	createFormHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_form"
	deleteFormHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/delete_form"
	getAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_appointment"
	getAvailableSlotsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_available_slots"
	getSlotHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_slot"
	getUserAppointmentsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_user_appointments"
	overrideSlotHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/override_slot"
	removeClosingDayHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/remove_closing_day"
	updateAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/update_appointment"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	appointmentsService "github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	ledgerService "github.com/m04kA/SMC-AppointmentService/internal/service/ledger"
	materializerService "github.com/m04kA/SMC-AppointmentService/internal/service/materializer"
	"github.com/m04kA/SMC-AppointmentService/internal/service/resolver"
	scheduleService "github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
	createAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
	getAvailableSlotsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/retry"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

// txManager общий интерфейс менеджеров транзакций memory и postgres
type txManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// repositories репозитории выбранного хранилища
type repositories struct {
	catalog interface {
		resolver.CatalogRepository
		materializerService.ClosingDayRepository
		createAppointmentUC.CatalogRepository
		scheduleService.CatalogRepository
	}
	slots interface {
		ledgerService.SlotRepository
		materializerService.SlotRepository
		createAppointmentUC.SlotRepository
		scheduleService.SlotRepository
	}
	appointments interface {
		createAppointmentUC.AppointmentRepository
		appointmentsService.AppointmentRepository
		scheduleService.AppointmentRepository
	}
	tx txManager
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-AppointmentService...")
	log.Info("Configuration loaded from config.toml (storage=%s)", cfg.Storage.Driver)

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Инициализируем хранилище
	var repos repositories
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Настраиваем connection pool
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

		if err := db.Ping(); err != nil {
			log.Fatal("Failed to ping database: %v", err)
		}
		log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

		if cfg.Metrics.Enabled {
			wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
			log.Info("Database metrics collection started")

			repos = repositories{
				catalog:      catalogRepo.NewRepository(wrappedDB),
				slots:        slotRepo.NewRepository(wrappedDB),
				appointments: appointmentRepo.NewRepository(wrappedDB),
				tx:           txmanager.NewTransactionManager(wrappedDB),
			}
		} else {
			repos = repositories{
				catalog:      catalogRepo.NewRepository(db),
				slots:        slotRepo.NewRepository(db),
				appointments: appointmentRepo.NewRepository(db),
				tx:           txmanager.NewSQLTransactionManager(db),
			}
		}

	default:
		store := memory.NewStore()
		repos = repositories{
			catalog:      memory.NewCatalogRepository(store),
			slots:        memory.NewSlotRepository(store),
			appointments: memory.NewAppointmentRepository(store),
			tx:           memory.NewTxManager(),
		}
		log.Warn("In-memory storage selected: data is lost on restart")
	}

	// Инициализируем сервисы
	ruleResolver := resolver.NewResolver(repos.catalog)
	materializer := materializerService.NewService(ruleResolver, repos.catalog, repos.slots, metricsCollector, log)
	seatLedger := ledgerService.NewService(repos.slots, repos.tx, metricsCollector, log)

	// Инициализируем use cases
	retryConfig := retry.Config{
		MaxAttempts:   cfg.Booking.RetryMaxAttempts,
		InitialDelay:  time.Duration(cfg.Booking.RetryInitialDelayMs) * time.Millisecond,
		MaxDelay:      time.Duration(cfg.Booking.RetryMaxDelayMs) * time.Millisecond,
		BackoffFactor: retry.DefaultConfig().BackoffFactor,
	}
	createAppointmentUseCase := createAppointmentUC.NewUseCase(
		repos.slots,
		materializer,
		repos.catalog,
		ruleResolver,
		repos.appointments,
		seatLedger,
		retryConfig,
		metricsCollector,
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		materializer,
		seatLedger,
		cfg.Booking.MaxQueryRangeDays,
		log,
	)

	appointmentSvc := appointmentsService.NewService(
		repos.appointments,
		seatLedger,
		createAppointmentUseCase,
		repos.tx,
		metricsCollector,
		log,
	)
	scheduleSvc := scheduleService.NewService(
		repos.catalog,
		repos.slots,
		repos.appointments,
		seatLedger,
		repos.tx,
		log,
	)

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	createAppointment := createAppointmentHandler.NewHandler(createAppointmentUseCase, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentSvc, log)
	updateAppointment := updateAppointmentHandler.NewHandler(appointmentSvc, log)
	cancelAppointment := cancelAppointmentHandler.NewHandler(appointmentSvc, log)
	getUserAppointments := getUserAppointmentsHandler.NewHandler(appointmentSvc, log)
	getSlot := getSlotHandler.NewHandler(appointmentSvc, log)

	createForm := createFormHandler.NewHandler(scheduleSvc, log)
	deleteForm := deleteFormHandler.NewHandler(scheduleSvc, log)
	addReservationRule := addReservationRuleHandler.NewHandler(scheduleSvc, log)
	addWeekDefinition := addWeekDefinitionHandler.NewHandler(scheduleSvc, log)
	addClosingDay := addClosingDayHandler.NewHandler(scheduleSvc, log)
	removeClosingDay := removeClosingDayHandler.NewHandler(scheduleSvc, log)
	overrideSlot := overrideSlotHandler.NewHandler(scheduleSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(log))

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// ЗАПИСЬ
	// ============================================================

	// Доступные слоты формы
	api.HandleFunc("/forms/{formId}/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// Состояние мест слота
	api.HandleFunc("/slots/{slotId}", getSlot.Handle).Methods(http.MethodGet)

	// Записи
	api.HandleFunc("/appointments", createAppointment.Handle).Methods(http.MethodPost)
	api.HandleFunc("/appointments", getUserAppointments.Handle).Methods(http.MethodGet)
	api.HandleFunc("/appointments/{id}", getAppointment.Handle).Methods(http.MethodGet)
	api.HandleFunc("/appointments/{id}", updateAppointment.Handle).Methods(http.MethodPut)
	api.HandleFunc("/appointments/{id}/cancel", cancelAppointment.Handle).Methods(http.MethodPatch)

	// ============================================================
	// АДМИНИСТРИРОВАНИЕ РАСПИСАНИЯ
	// ============================================================

	api.HandleFunc("/forms", createForm.Handle).Methods(http.MethodPost)
	api.HandleFunc("/forms/{formId}", deleteForm.Handle).Methods(http.MethodDelete)
	api.HandleFunc("/forms/{formId}/reservation-rules", addReservationRule.Handle).Methods(http.MethodPost)
	api.HandleFunc("/forms/{formId}/week-definitions", addWeekDefinition.Handle).Methods(http.MethodPost)
	api.HandleFunc("/forms/{formId}/closing-days", addClosingDay.Handle).Methods(http.MethodPost)
	api.HandleFunc("/forms/{formId}/closing-days/{date}", removeClosingDay.Handle).Methods(http.MethodDelete)
	api.HandleFunc("/forms/{formId}/slots", overrideSlot.Handle).Methods(http.MethodPut)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
