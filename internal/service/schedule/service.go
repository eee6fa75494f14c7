package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	catalogRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/internal/service/resolver"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
)

// openEnd верхняя граница поиска слотов для шаблона без даты окончания
var openEnd = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// Service администрирование расписания формы
//
// Изменения, после которых слоты с действующими записями перестали бы
// существовать, отклоняются с domain.ConflictError.
type Service struct {
	catalogRepo     CatalogRepository
	slotRepo        SlotRepository
	appointmentRepo AppointmentRepository
	ledger          Ledger
	txManager       TransactionManager
	logger          Logger
}

// NewService создает новый экземпляр сервиса расписания
func NewService(
	catalogRepo CatalogRepository,
	slotRepo SlotRepository,
	appointmentRepo AppointmentRepository,
	ledger Ledger,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		catalogRepo:     catalogRepo,
		slotRepo:        slotRepo,
		appointmentRepo: appointmentRepo,
		ledger:          ledger,
		txManager:       txManager,
		logger:          logger,
	}
}

// CreateForm создает форму
func (s *Service) CreateForm(ctx context.Context, req *models.CreateFormRequest) (*domain.Form, error) {
	s.logger.Info("CreateForm: creating form %q", req.Title)

	if err := validateForm(req); err != nil {
		s.logger.Warn("CreateForm: validation failed: %v", err)
		return nil, err
	}

	form, err := s.catalogRepo.CreateForm(ctx, req.ToDomainForm())
	if err != nil {
		s.logger.Error("CreateForm: repository error: %v", err)
		return nil, fmt.Errorf("%w: CreateForm - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("CreateForm: successfully created form id=%d", form.ID)
	return form, nil
}

// AddReservationRule добавляет правило бронирования
// Два правила формы с одной датой применения неразличимы, поэтому дубликат отклоняется
func (s *Service) AddReservationRule(ctx context.Context, req *models.AddReservationRuleRequest) (*domain.ReservationRule, error) {
	s.logger.Info("AddReservationRule: form=%d, dateOfApply=%s", req.FormID, req.DateOfApply.Format(domain.DateFormat))

	if err := validateReservationRule(req); err != nil {
		s.logger.Warn("AddReservationRule: validation failed: %v", err)
		return nil, err
	}

	if _, err := s.getForm(ctx, "AddReservationRule", req.FormID); err != nil {
		return nil, err
	}

	rules, err := s.catalogRepo.GetReservationRulesByForm(ctx, req.FormID)
	if err != nil {
		s.logger.Error("AddReservationRule: failed to get rules: %v", err)
		return nil, fmt.Errorf("%w: AddReservationRule - get rules: %v", ErrInternal, err)
	}
	apply := domain.DateOnly(req.DateOfApply)
	for _, rule := range rules {
		if domain.DateOnly(rule.DateOfApply).Equal(apply) {
			s.logger.Warn("AddReservationRule: rule id=%d already applies from %s", rule.ID, apply.Format(domain.DateFormat))
			return nil, fmt.Errorf("%w: rule id=%d already applies from %s",
				domain.ErrAmbiguousRule, rule.ID, apply.Format(domain.DateFormat))
		}
	}

	created, err := s.catalogRepo.CreateReservationRule(ctx, &domain.ReservationRule{
		FormID:                  req.FormID,
		Name:                    req.Name,
		DateOfApply:             apply,
		MaxCapacityPerSlot:      req.MaxCapacityPerSlot,
		MaxPeoplePerAppointment: req.MaxPeoplePerAppointment,
	})
	if err != nil {
		s.logger.Error("AddReservationRule: repository error: %v", err)
		return nil, fmt.Errorf("%w: AddReservationRule - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("AddReservationRule: successfully created rule id=%d", created.ID)
	return created, nil
}

// AddWeekDefinition добавляет недельный шаблон с рабочими днями и сегментами
//
// Перед сохранением расписание строится заново с новым шаблоном. Если какой-либо
// сохраненный слот с записями больше не совпадает с открытым сегментом, изменение
// отклоняется с domain.ConflictError.
func (s *Service) AddWeekDefinition(ctx context.Context, req *models.AddWeekDefinitionRequest) (*models.WeekDefinitionResponse, error) {
	s.logger.Info("AddWeekDefinition: form=%d, dateOfApply=%s, days=%d",
		req.FormID, req.DateOfApply.Format(domain.DateFormat), len(req.Days))

	// 1. Валидация шаблона
	if err := validateWeekDefinition(req); err != nil {
		s.logger.Warn("AddWeekDefinition: validation failed: %v", err)
		return nil, err
	}

	form, err := s.getForm(ctx, "AddWeekDefinition", req.FormID)
	if err != nil {
		return nil, err
	}

	// 2. Текущие слои правил формы
	rules, err := s.catalogRepo.GetReservationRulesByForm(ctx, form.ID)
	if err != nil {
		return nil, s.internal("AddWeekDefinition", "get rules", err)
	}
	weeks, err := s.catalogRepo.GetWeekDefinitionsByForm(ctx, form.ID)
	if err != nil {
		return nil, s.internal("AddWeekDefinition", "get week definitions", err)
	}
	workingDays, err := s.catalogRepo.GetWorkingDaysByForm(ctx, form.ID)
	if err != nil {
		return nil, s.internal("AddWeekDefinition", "get working days", err)
	}
	timeSlots, err := s.catalogRepo.GetTimeSlotsByForm(ctx, form.ID)
	if err != nil {
		return nil, s.internal("AddWeekDefinition", "get time slots", err)
	}

	apply := domain.DateOnly(req.DateOfApply)
	for _, week := range weeks {
		if domain.DateOnly(week.DateOfApply).Equal(apply) {
			s.logger.Warn("AddWeekDefinition: week id=%d already applies from %s", week.ID, apply.Format(domain.DateFormat))
			return nil, fmt.Errorf("%w: week definition id=%d already applies from %s",
				domain.ErrAmbiguousRule, week.ID, apply.Format(domain.DateFormat))
		}
	}

	if req.ReservationRuleID != nil && !hasRule(rules, *req.ReservationRuleID) {
		s.logger.Warn("AddWeekDefinition: rule id=%d not found in form=%d", *req.ReservationRuleID, form.ID)
		return nil, fmt.Errorf("%w: reservation rule id=%d does not belong to form", ErrInvalidInput, *req.ReservationRuleID)
	}

	// 3. Проверяем, что слоты с записями переживут новый шаблон
	week, days, segments := draftWeek(req)
	future := resolver.NewSchedule(form, rules,
		append(weeks, week), append(workingDays, days...), append(timeSlots, segments...))

	until := openEnd
	if req.EndingDateOfApply != nil {
		until = domain.DateOnly(*req.EndingDateOfApply).AddDate(0, 0, 1)
	}
	if err := s.checkBookedSlots(ctx, form.ID, apply, until, func(sl *domain.Slot) bool {
		return matchesSchedule(future, sl)
	}); err != nil {
		s.logger.Warn("AddWeekDefinition: %v", err)
		return nil, err
	}

	// 4. Сохраняем шаблон целиком
	resp := &models.WeekDefinitionResponse{}
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		week.ID = 0
		createdWeek, err := s.catalogRepo.CreateWeekDefinition(ctx, week)
		if err != nil {
			return fmt.Errorf("create week definition: %w", err)
		}
		resp.Week = createdWeek

		for i, dayReq := range req.Days {
			createdDay, err := s.catalogRepo.CreateWorkingDay(ctx, &domain.WorkingDay{
				WeekDefinitionID: createdWeek.ID,
				DayOfWeek:        dayReq.DayOfWeek,
			})
			if err != nil {
				return fmt.Errorf("create working day %d: %w", dayReq.DayOfWeek, err)
			}
			resp.WorkingDays = append(resp.WorkingDays, createdDay)

			for _, ts := range segmentsOf(days[i].ID, segments) {
				ts.ID = 0
				ts.WorkingDayID = createdDay.ID
				createdTS, err := s.catalogRepo.CreateTimeSlot(ctx, ts)
				if err != nil {
					return fmt.Errorf("create time slot: %w", err)
				}
				resp.TimeSlots = append(resp.TimeSlots, createdTS)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.internal("AddWeekDefinition", "save", err)
	}

	s.logger.Info("AddWeekDefinition: successfully created week definition id=%d with %d days and %d segments",
		resp.Week.ID, len(resp.WorkingDays), len(resp.TimeSlots))
	return resp, nil
}

// AddClosingDay закрывает дату формы
// Дата, на которую есть действующие записи, не закрывается
func (s *Service) AddClosingDay(ctx context.Context, formID int64, date time.Time) (*domain.ClosingDay, error) {
	day := domain.DateOnly(date)
	s.logger.Info("AddClosingDay: form=%d, date=%s", formID, day.Format(domain.DateFormat))

	if _, err := s.getForm(ctx, "AddClosingDay", formID); err != nil {
		return nil, err
	}

	if err := s.checkBookedSlots(ctx, formID, day, day.AddDate(0, 0, 1), func(*domain.Slot) bool {
		return false
	}); err != nil {
		s.logger.Warn("AddClosingDay: %v", err)
		return nil, err
	}

	created, err := s.catalogRepo.CreateClosingDay(ctx, &domain.ClosingDay{FormID: formID, Date: day})
	if err != nil {
		if errors.Is(err, catalogRepo.ErrClosingDayExists) {
			s.logger.Warn("AddClosingDay: %s already closed for form=%d", day.Format(domain.DateFormat), formID)
			return nil, ErrAlreadyExists
		}
		return nil, s.internal("AddClosingDay", "create closing day", err)
	}

	s.logger.Info("AddClosingDay: successfully closed %s for form=%d", day.Format(domain.DateFormat), formID)
	return created, nil
}

// RemoveClosingDay снова открывает дату формы
func (s *Service) RemoveClosingDay(ctx context.Context, formID int64, date time.Time) error {
	day := domain.DateOnly(date)
	s.logger.Info("RemoveClosingDay: form=%d, date=%s", formID, day.Format(domain.DateFormat))

	if err := s.catalogRepo.DeleteClosingDay(ctx, formID, day); err != nil {
		if errors.Is(err, catalogRepo.ErrClosingDayNotFound) {
			s.logger.Warn("RemoveClosingDay: %s is not closed for form=%d", day.Format(domain.DateFormat), formID)
			return ErrClosingDayNotFound
		}
		return s.internal("RemoveClosingDay", "delete closing day", err)
	}
	return nil
}

// OverrideSlot вручную открывает, закрывает или меняет емкость слота
//
// Слот с точным интервалом изменяется через ledger. Иначе сохраняется новый
// слот с IsSpecific, который вытесняет пересекающиеся сгенерированные слоты.
func (s *Service) OverrideSlot(ctx context.Context, req *models.OverrideSlotRequest) (*domain.Slot, error) {
	s.logger.Info("OverrideSlot: form=%d, %s - %s", req.FormID,
		req.StartingDateTime.Format(domain.DateTimeFormat), req.EndingDateTime.Format(domain.DateTimeFormat))

	if err := validateOverride(req); err != nil {
		s.logger.Warn("OverrideSlot: validation failed: %v", err)
		return nil, err
	}

	if _, err := s.getForm(ctx, "OverrideSlot", req.FormID); err != nil {
		return nil, err
	}

	existing, err := s.slotRepo.GetByFormAndTime(ctx, req.FormID, req.StartingDateTime, req.EndingDateTime)
	switch {
	case err == nil:
		return s.adjustSlot(ctx, existing.ID, req)
	case !errors.Is(err, slotRepo.ErrSlotNotFound):
		return nil, s.internal("OverrideSlot", "get slot", err)
	}

	if req.MaxCapacity == nil {
		return nil, fmt.Errorf("%w: capacity is required for a new slot", ErrInvalidInput)
	}

	// Новый слот вытеснит пересекающиеся: на них не должно быть записей
	if err := s.checkBookedSlots(ctx, req.FormID, req.StartingDateTime, req.EndingDateTime, func(*domain.Slot) bool {
		return false
	}); err != nil {
		s.logger.Warn("OverrideSlot: %v", err)
		return nil, err
	}

	slot := domain.NewGeneratedSlot(req.FormID, req.StartingDateTime, req.EndingDateTime, *req.MaxCapacity)
	slot.IsSpecific = true
	if req.IsOpen != nil {
		slot.IsOpen = *req.IsOpen
	}

	created, err := s.slotRepo.Create(ctx, slot)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotAlreadyExists) {
			// слот создан параллельно: меняем уже его
			existing, getErr := s.slotRepo.GetByFormAndTime(ctx, req.FormID, req.StartingDateTime, req.EndingDateTime)
			if getErr != nil {
				return nil, s.internal("OverrideSlot", "re-read slot", getErr)
			}
			return s.adjustSlot(ctx, existing.ID, req)
		}
		return nil, s.internal("OverrideSlot", "create slot", err)
	}

	s.logger.Info("OverrideSlot: created specific slot id=%d, capacity=%d, open=%t", created.ID, created.MaxCapacity, created.IsOpen)
	return created, nil
}

// DeleteForm удаляет форму со всеми зависимыми данными
func (s *Service) DeleteForm(ctx context.Context, formID int64) error {
	s.logger.Info("DeleteForm: deleting form id=%d", formID)

	if _, err := s.getForm(ctx, "DeleteForm", formID); err != nil {
		return err
	}

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		steps := []struct {
			name string
			fn   func(ctx context.Context, formID int64) error
		}{
			{"appointments", s.appointmentRepo.DeleteByForm},
			{"slots", s.slotRepo.DeleteByForm},
			{"time slots", s.catalogRepo.DeleteTimeSlotsByForm},
			{"working days", s.catalogRepo.DeleteWorkingDaysByForm},
			{"week definitions", s.catalogRepo.DeleteWeekDefinitionsByForm},
			{"reservation rules", s.catalogRepo.DeleteReservationRulesByForm},
			{"closing days", s.catalogRepo.DeleteClosingDaysByForm},
			{"form", s.catalogRepo.DeleteForm},
		}
		for _, step := range steps {
			if err := step.fn(ctx, formID); err != nil {
				return fmt.Errorf("delete %s: %w", step.name, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, catalogRepo.ErrFormNotFound) {
			return ErrFormNotFound
		}
		return s.internal("DeleteForm", "cascade", err)
	}

	s.logger.Info("DeleteForm: successfully deleted form id=%d", formID)
	return nil
}

// adjustSlot меняет открытость и емкость сохраненного слота
func (s *Service) adjustSlot(ctx context.Context, slotID int64, req *models.OverrideSlotRequest) (*domain.Slot, error) {
	updated, err := s.ledger.Adjust(ctx, slotID, func(slot *domain.Slot) error {
		if req.MaxCapacity != nil {
			if *req.MaxCapacity < slot.NbPlacesTaken {
				return fmt.Errorf("%w: slot id=%d has %d taken seats, capacity %d requested",
					ErrCapacityBelowTaken, slot.ID, slot.NbPlacesTaken, *req.MaxCapacity)
			}
			slot.MaxCapacity = *req.MaxCapacity
		}
		if req.IsOpen != nil {
			slot.IsOpen = *req.IsOpen
		}
		slot.IsSpecific = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCapacityBelowTaken) {
			s.logger.Warn("OverrideSlot: %v", err)
			return nil, err
		}
		return nil, s.internal("OverrideSlot", "adjust slot", err)
	}

	s.logger.Info("OverrideSlot: slot id=%d updated, capacity=%d, open=%t", updated.ID, updated.MaxCapacity, updated.IsOpen)
	return updated, nil
}

// checkBookedSlots ищет сохраненные слоты с записями в [from, to), которые keep не сохраняет
func (s *Service) checkBookedSlots(ctx context.Context, formID int64, from, to time.Time, keep func(*domain.Slot) bool) error {
	slots, err := s.slotRepo.GetByFormAndRange(ctx, formID, from, to)
	if err != nil {
		return fmt.Errorf("%w: get slots: %v", ErrInternal, err)
	}

	var conflicting []int64
	for _, sl := range slots {
		if sl.NbPlacesTaken == 0 || keep(sl) {
			continue
		}
		conflicting = append(conflicting, sl.ID)
	}
	if len(conflicting) > 0 {
		return &domain.ConflictError{SlotIDs: conflicting}
	}
	return nil
}

func (s *Service) getForm(ctx context.Context, op string, formID int64) (*domain.Form, error) {
	form, err := s.catalogRepo.GetFormByID(ctx, formID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrFormNotFound) {
			s.logger.Warn("%s: form id=%d not found", op, formID)
			return nil, ErrFormNotFound
		}
		return nil, s.internal(op, "get form", err)
	}
	return form, nil
}

func (s *Service) internal(op, step string, err error) error {
	s.logger.Error("%s: %s failed: %v", op, step, err)
	return fmt.Errorf("%w: %s - %s: %v", ErrInternal, op, step, err)
}

// matchesSchedule проверяет, что слот по-прежнему совпадает с открытым сегментом расписания
// Слоты, созданные вручную, от шаблона не зависят
func matchesSchedule(schedule *resolver.Schedule, sl *domain.Slot) bool {
	if sl.IsSpecific {
		return true
	}
	resolution, err := schedule.Resolve(sl.Date())
	if err != nil {
		return false
	}
	day := sl.Date()
	for _, ts := range resolution.TimeSlots() {
		if ts.IsOpen && sl.SameRange(ts.StartingTime.OnDate(day), ts.EndingTime.OnDate(day)) {
			return true
		}
	}
	return false
}

// draftWeek строит несохраненный шаблон с временными отрицательными ID
func draftWeek(req *models.AddWeekDefinitionRequest) (*domain.WeekDefinition, []*domain.WorkingDay, []*domain.TimeSlot) {
	week := &domain.WeekDefinition{
		ID:                -1,
		FormID:            req.FormID,
		ReservationRuleID: req.ReservationRuleID,
		DateOfApply:       domain.DateOnly(req.DateOfApply),
	}
	if req.EndingDateOfApply != nil {
		end := domain.DateOnly(*req.EndingDateOfApply)
		week.EndingDateOfApply = &end
	}

	days := make([]*domain.WorkingDay, 0, len(req.Days))
	var segments []*domain.TimeSlot
	for i, dayReq := range req.Days {
		day := &domain.WorkingDay{ID: int64(-1 - i), WeekDefinitionID: week.ID, DayOfWeek: dayReq.DayOfWeek}
		days = append(days, day)
		for _, tsReq := range dayReq.TimeSlots {
			segments = append(segments, &domain.TimeSlot{
				WorkingDayID: day.ID,
				StartingTime: tsReq.StartingTime,
				EndingTime:   tsReq.EndingTime,
				IsOpen:       tsReq.IsOpen,
				MaxCapacity:  tsReq.MaxCapacity,
			})
		}
	}
	return week, days, segments
}

func segmentsOf(workingDayID int64, segments []*domain.TimeSlot) []*domain.TimeSlot {
	var result []*domain.TimeSlot
	for _, ts := range segments {
		if ts.WorkingDayID == workingDayID {
			result = append(result, ts)
		}
	}
	return result
}

func hasRule(rules []*domain.ReservationRule, id int64) bool {
	for _, rule := range rules {
		if rule.ID == id {
			return true
		}
	}
	return false
}
