package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	catalogRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
)

// UseCase use case для получения доступных слотов формы
//
// Только чтение: слоты не сохраняются, счетчики не меняются.
// Одинаковые параллельные запросы выполняются один раз.
type UseCase struct {
	builder      SlotBuilder
	ledger       Ledger
	maxRangeDays int
	group        singleflight.Group
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(builder SlotBuilder, ledger Ledger, maxRangeDays int, logger Logger) *UseCase {
	if maxRangeDays <= 0 {
		maxRangeDays = domain.MaxQueryRangeDays
	}
	return &UseCase{
		builder:      builder,
		ledger:       ledger,
		maxRangeDays: maxRangeDays,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req, uc.maxRangeDays); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	uc.logger.Info("GetAvailableSlots: form=%d, period=%s to %s, minSeats=%d",
		req.FormID, req.StartDate.Format(domain.DateFormat), req.EndDate.Format(domain.DateFormat), req.MinSeats)

	// 2. Открытые слоты с актуальными счетчиками
	key := fmt.Sprintf("%d:%s:%s:%d", req.FormID,
		req.StartDate.Format(domain.DateFormat), req.EndDate.Format(domain.DateFormat), req.MinSeats)
	v, err, shared := uc.group.Do(key, func() (interface{}, error) {
		// общий результат не зависит от отмены контекста первого запроса
		return uc.findOpenSlots(context.WithoutCancel(ctx), req)
	})
	if err != nil {
		return nil, uc.mapError(req.FormID, err)
	}
	if shared {
		uc.logger.Info("GetAvailableSlots: result for form=%d shared with a concurrent request", req.FormID)
	}

	// 3. Уже начавшиеся слоты не показываем
	now := uc.timeProvider.Now()
	open := v.([]Slot)
	slots := make([]Slot, 0, len(open))
	for _, sl := range open {
		if sl.StartingDateTime.Before(now) {
			continue
		}
		slots = append(slots, sl)
	}

	uc.logger.Info("GetAvailableSlots: %d open slots for form=%d", len(slots), req.FormID)

	return &Response{
		FormID:    req.FormID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Slots:     slots,
	}, nil
}

// findOpenSlots строит слоты и оставляет открытые, где свободно не меньше minSeats мест
// У сохраненных слотов счетчики читаются из ledger
func (uc *UseCase) findOpenSlots(ctx context.Context, req *Request) ([]Slot, error) {
	built, err := uc.builder.BuildSlots(ctx, req.FormID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	result := make([]Slot, 0, len(built))
	for _, sl := range built {
		if !sl.IsOpen {
			continue
		}

		snap := sl.Snapshot(0)
		if sl.IsPersisted() {
			snap, err = uc.ledger.Snapshot(ctx, sl.ID)
			if err != nil {
				return nil, fmt.Errorf("snapshot slot id=%d: %w", sl.ID, err)
			}
			if !snap.IsOpen {
				continue
			}
		}

		if snap.NbRemainingPlaces < req.MinSeats {
			continue
		}

		result = append(result, Slot{
			ID:                         sl.ID,
			StartingDateTime:           sl.StartingDateTime,
			EndingDateTime:             sl.EndingDateTime,
			MaxCapacity:                snap.MaxCapacity,
			NbRemainingPlaces:          snap.NbRemainingPlaces,
			NbPotentialRemainingPlaces: snap.NbPotentialRemainingPlaces,
			IsSpecific:                 sl.IsSpecific,
		})
	}
	return result, nil
}

func (uc *UseCase) mapError(formID int64, err error) error {
	switch {
	case errors.Is(err, catalogRepo.ErrFormNotFound):
		uc.logger.Warn("GetAvailableSlots: form id=%d not found", formID)
		return ErrFormNotFound
	case errors.Is(err, domain.ErrInvalidTimeRange), errors.Is(err, domain.ErrAmbiguousRule):
		uc.logger.Warn("GetAvailableSlots: form id=%d has an invalid schedule: %v", formID, err)
		return err
	}
	uc.logger.Error("GetAvailableSlots: failed to build slots for form id=%d: %v", formID, err)
	return fmt.Errorf("%w: failed to build slots: %v", ErrInternal, err)
}
