package create_appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/pkg/keylock"
	"github.com/m04kA/SMC-AppointmentService/pkg/retry"
)

// UseCase use case для создания записи
type UseCase struct {
	slotRepo        SlotRepository
	materializer    SlotMaterializer
	catalogRepo     CatalogRepository
	resolver        RuleResolver
	appointmentRepo AppointmentRepository
	ledger          Ledger
	retryConfig     retry.Config
	userLocks       *keylock.KeyedMutex
	metrics         Metrics
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	slotRepo SlotRepository,
	materializer SlotMaterializer,
	catalogRepo CatalogRepository,
	resolver RuleResolver,
	appointmentRepo AppointmentRepository,
	ledger Ledger,
	retryConfig retry.Config,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		slotRepo:        slotRepo,
		materializer:    materializer,
		catalogRepo:     catalogRepo,
		resolver:        resolver,
		appointmentRepo: appointmentRepo,
		ledger:          ledger,
		retryConfig:     retryConfig,
		userLocks:       keylock.New(),
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания записи
//
// Порядок: проверки правил -> сохранение слота -> резервирование мест -> сохранение записи
// (с повторами) -> подтверждение. Проверки идут по несохраненному слоту, поэтому отказ не
// оставляет следов. Если запись не сохранена, места возвращаются, а созданный слот удаляется.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateAppointment: slot=%d, form=%d, start=%s, email=%s, seats=%d",
		req.SlotID, req.FormID, req.StartingDateTime.Format(domain.DateTimeFormat), req.User.Email, req.NbSeats)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateAppointment: validation failed: %v", err)
		return nil, err
	}
	req.User.Email = strings.ToLower(strings.TrimSpace(req.User.Email))

	// 2. Находим слот по текущему расписанию, ничего не сохраняя
	slot, err := uc.getSlot(ctx, req)
	if err != nil {
		return nil, err
	}

	// 3. Получаем форму
	form, err := uc.catalogRepo.GetFormByID(ctx, slot.FormID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrFormNotFound) {
			uc.logger.Warn("CreateAppointment: form id=%d not found", slot.FormID)
			return nil, ErrFormNotFound
		}
		uc.logger.Error("CreateAppointment: failed to get form id=%d: %v", slot.FormID, err)
		return nil, fmt.Errorf("%w: failed to get form: %v", ErrInternal, err)
	}

	// Записи одного пользователя на форму сериализуются, чтобы лимиты нельзя было обойти параллельными запросами
	unlock := uc.userLocks.Lock(fmt.Sprintf("%d:%s", form.ID, req.User.Email))
	defer unlock()

	// 4. Слот открыт и лежит в периоде действия формы
	if err := uc.checkSlotBookable(ctx, form, slot); err != nil {
		uc.logger.Warn("CreateAppointment: slot id=%d not bookable: %v", slot.ID, err)
		return nil, err
	}

	// 5. Правила бронирования
	if err := validateBookingTime(slot, uc.timeProvider.Now(), form.MinTimeBeforeAppointmentMinutes); err != nil {
		uc.logger.Warn("CreateAppointment: %v", err)
		return nil, err
	}

	rule, err := uc.resolver.ResolveSlotRule(ctx, slot)
	if err != nil {
		if errors.Is(err, domain.ErrNoRuleForDate) || errors.Is(err, domain.ErrAmbiguousRule) {
			uc.logger.Warn("CreateAppointment: rule resolution failed for slot id=%d: %v", slot.ID, err)
			return nil, err
		}
		uc.logger.Error("CreateAppointment: failed to resolve rule for slot id=%d: %v", slot.ID, err)
		return nil, fmt.Errorf("%w: failed to resolve rule: %v", ErrInternal, err)
	}

	if err := validateSeats(rule, req.NbSeats); err != nil {
		uc.logger.Warn("CreateAppointment: %v", err)
		return nil, err
	}

	formID := form.ID
	existing, err := uc.appointmentRepo.GetByFilter(ctx, domain.AppointmentsFilter{
		FormID: &formID,
		Email:  req.User.Email,
	})
	if err != nil {
		uc.logger.Error("CreateAppointment: failed to get user appointments: %v", err)
		return nil, fmt.Errorf("%w: failed to get user appointments: %v", ErrInternal, err)
	}

	if err := validateMaxAppointments(form, slot.Date(), existing); err != nil {
		uc.logger.Warn("CreateAppointment: %v", err)
		return nil, err
	}

	if err := validateDelayBetweenAppointments(form, slot.Date(), existing); err != nil {
		uc.logger.Warn("CreateAppointment: %v", err)
		return nil, err
	}

	if remaining := slot.MaxCapacity - slot.NbPlacesTaken; req.NbSeats > remaining {
		err := &domain.CapacityError{SlotID: slot.ID, Requested: req.NbSeats, Remaining: remaining}
		uc.logger.Warn("CreateAppointment: %v", err)
		return nil, err
	}

	// 6. Сохраняем сгенерированный слот и резервируем места
	generated := !slot.IsPersisted()
	slotCreated := false
	if generated {
		slot, slotCreated, err = uc.materialize(ctx, slot)
		if err != nil {
			return nil, err
		}
	}

	reservation, err := uc.ledger.Reserve(ctx, slot.ID, req.NbSeats)
	if generated && !slotCreated && errors.Is(err, slotRepo.ErrSlotNotFound) {
		// слот удален неудавшимся параллельным бронированием, сохраняем заново
		uc.logger.Warn("CreateAppointment: slot id=%d discarded concurrently, materializing again", slot.ID)
		slot, slotCreated, err = uc.materialize(ctx, slot)
		if err != nil {
			return nil, err
		}
		reservation, err = uc.ledger.Reserve(ctx, slot.ID, req.NbSeats)
	}
	if err != nil {
		uc.discardSlot(ctx, slot.ID, slotCreated)
		if errors.Is(err, domain.ErrCapacityExceeded) || errors.Is(err, domain.ErrSlotClosed) {
			uc.logger.Warn("CreateAppointment: reserve failed: %v", err)
			return nil, err
		}
		uc.logger.Error("CreateAppointment: reserve failed for slot id=%d: %v", slot.ID, err)
		return nil, fmt.Errorf("%w: failed to reserve seats: %v", ErrInternal, err)
	}

	// 7. Сохраняем запись, повторяя временные ошибки хранилища
	appointment := &domain.Appointment{
		Reference:        uuid.NewString(),
		SlotID:           slot.ID,
		FormID:           form.ID,
		StartingDateTime: slot.StartingDateTime,
		EndingDateTime:   slot.EndingDateTime,
		User:             req.User,
		NbBookedSeats:    req.NbSeats,
	}

	var created *domain.Appointment
	err = retry.Do(ctx, uc.retryConfig, isTransient, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			uc.metrics.PersistenceRetry()
			uc.logger.Warn("CreateAppointment: retrying persist, attempt %d", attempt)
		}
		var err error
		created, err = uc.appointmentRepo.Create(ctx, appointment)
		return err
	})
	if err != nil {
		uc.logger.Error("CreateAppointment: failed to persist appointment for slot id=%d: %v", slot.ID, err)
		// компенсация выполняется даже при отмененном контексте запроса
		if rbErr := uc.ledger.Rollback(context.WithoutCancel(ctx), reservation); rbErr != nil {
			uc.logger.Error("CreateAppointment: rollback of reservation %s failed: %v", reservation.ID, rbErr)
		} else {
			uc.discardSlot(ctx, slot.ID, slotCreated)
		}
		uc.metrics.AppointmentEvent("persist_failed")
		return nil, fmt.Errorf("%w: failed to persist appointment: %v", ErrInternal, err)
	}

	// 8. Подтверждаем резервирование
	if err := uc.ledger.Confirm(context.WithoutCancel(ctx), reservation); err != nil {
		uc.logger.Error("CreateAppointment: confirm of reservation %s failed: %v", reservation.ID, err)
	}

	uc.metrics.AppointmentEvent("booked")
	uc.logger.Info("CreateAppointment: appointment id=%d (%s) created on slot id=%d, %d seats, %d remaining",
		created.ID, created.Reference, slot.ID, created.NbBookedSeats, reservation.RemainingAfter)

	return toResponse(created, reservation.RemainingAfter), nil
}

// getSlot возвращает слот запроса по текущему расписанию без сохранения
// Сохраненный слот, который расписание больше не выдает, считается закрытым
func (uc *UseCase) getSlot(ctx context.Context, req *Request) (*domain.Slot, error) {
	formID, start, end := req.FormID, req.StartingDateTime, req.EndingDateTime
	if req.SlotID > 0 {
		stored, err := uc.slotRepo.GetByID(ctx, req.SlotID)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				uc.logger.Warn("CreateAppointment: slot id=%d not found", req.SlotID)
				return nil, ErrSlotNotFound
			}
			uc.logger.Error("CreateAppointment: failed to get slot id=%d: %v", req.SlotID, err)
			return nil, fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
		}
		formID, start, end = stored.FormID, stored.StartingDateTime, stored.EndingDateTime
	}

	slot, err := uc.materializer.Lookup(ctx, formID, start, end)
	if err != nil {
		return nil, uc.slotError(err)
	}
	if req.SlotID > 0 && slot.ID != req.SlotID {
		uc.logger.Warn("CreateAppointment: slot id=%d is no longer in the schedule", req.SlotID)
		return nil, fmt.Errorf("%w: slot id=%d is no longer in the schedule", domain.ErrSlotClosed, req.SlotID)
	}
	return slot, nil
}

// materialize сохраняет сгенерированный слот перед резервированием
func (uc *UseCase) materialize(ctx context.Context, generated *domain.Slot) (*domain.Slot, bool, error) {
	slot, created, err := uc.materializer.Materialize(ctx, generated.FormID, generated.StartingDateTime, generated.EndingDateTime)
	if err != nil {
		return nil, false, uc.slotError(err)
	}
	return slot, created, nil
}

// discardSlot удаляет слот, сохраненный этим запросом, если бронирование не состоялось
func (uc *UseCase) discardSlot(ctx context.Context, slotID int64, created bool) {
	if !created {
		return
	}
	deleted, err := uc.ledger.Discard(context.WithoutCancel(ctx), slotID)
	if err != nil {
		uc.logger.Error("CreateAppointment: failed to discard slot id=%d: %v", slotID, err)
		return
	}
	if deleted {
		uc.logger.Info("CreateAppointment: unused slot id=%d discarded", slotID)
	}
}

// slotError приводит ошибки поиска слота к ошибкам use case
func (uc *UseCase) slotError(err error) error {
	switch {
	case errors.Is(err, catalogRepo.ErrFormNotFound):
		uc.logger.Warn("CreateAppointment: form not found: %v", err)
		return ErrFormNotFound
	case errors.Is(err, domain.ErrSlotClosed),
		errors.Is(err, domain.ErrInvalidTimeRange),
		errors.Is(err, domain.ErrNoRuleForDate),
		errors.Is(err, domain.ErrAmbiguousRule):
		uc.logger.Warn("CreateAppointment: slot not available: %v", err)
		return err
	}
	uc.logger.Error("CreateAppointment: failed to find slot: %v", err)
	return fmt.Errorf("%w: failed to find slot: %v", ErrInternal, err)
}

// checkSlotBookable проверяет, что слот открыт, форма активна, а дата не закрыта
func (uc *UseCase) checkSlotBookable(ctx context.Context, form *domain.Form, slot *domain.Slot) error {
	if !form.IsActive {
		return fmt.Errorf("%w: form id=%d is inactive", domain.ErrSlotClosed, form.ID)
	}
	if !slot.IsOpen {
		return fmt.Errorf("%w: slot id=%d is closed", domain.ErrSlotClosed, slot.ID)
	}
	if !form.IsValidOn(slot.Date()) {
		return fmt.Errorf("%w: slot id=%d is outside form validity", domain.ErrSlotClosed, slot.ID)
	}

	closing, err := uc.catalogRepo.GetClosingDaysByForm(ctx, form.ID, slot.Date(), slot.Date())
	if err != nil {
		return fmt.Errorf("%w: failed to get closing days: %v", ErrInternal, err)
	}
	if len(closing) > 0 {
		return fmt.Errorf("%w: %s is a closing day", domain.ErrSlotClosed, slot.Date().Format(domain.DateFormat))
	}
	return nil
}

// isTransient возвращает true для ошибок хранилища, которые имеет смысл повторить
func isTransient(err error) bool {
	return errors.Is(err, appointmentRepo.ErrExecQuery)
}
