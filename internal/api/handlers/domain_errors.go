package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const (
	msgSlotClosed         = "слот закрыт для записи"
	msgCapacityExceeded   = "недостаточно свободных мест в слоте"
	msgBusinessRule       = "запись нарушает правила формы"
	msgNoRuleForDate      = "на эту дату нет действующего расписания"
	msgAmbiguousRule      = "на эту дату действует несколько правил"
	msgInvalidTimeRange   = "некорректный временной интервал"
	msgConflicting        = "изменение затрагивает слоты с действующими записями"
	msgInvariantViolation = "нарушена согласованность счетчиков мест"
)

// RespondDomainError отвечает на ошибку из domain и возвращает true, если ошибка распознана
func RespondDomainError(w http.ResponseWriter, err error) bool {
	var capErr *domain.CapacityError
	var ruleErr *domain.BusinessRuleError
	var conflictErr *domain.ConflictError

	switch {
	case errors.As(err, &capErr):
		RespondJSON(w, http.StatusConflict, ErrorResponse{
			Code:    http.StatusConflict,
			Message: msgCapacityExceeded,
			Details: map[string]string{
				"requested": strconv.Itoa(capErr.Requested),
				"remaining": strconv.Itoa(capErr.Remaining),
			},
		})

	case errors.Is(err, domain.ErrCapacityExceeded):
		RespondConflict(w, msgCapacityExceeded)

	case errors.As(err, &ruleErr):
		RespondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: msgBusinessRule,
			Details: map[string]string{"reason": string(ruleErr.Reason)},
		})

	case errors.Is(err, domain.ErrSlotClosed):
		RespondConflict(w, msgSlotClosed)

	case errors.As(err, &conflictErr):
		ids := make([]string, 0, len(conflictErr.SlotIDs))
		for _, id := range conflictErr.SlotIDs {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		RespondJSON(w, http.StatusConflict, ErrorResponse{
			Code:    http.StatusConflict,
			Message: msgConflicting,
			Details: map[string]string{"slotIds": strings.Join(ids, ",")},
		})

	case errors.Is(err, domain.ErrNoRuleForDate):
		RespondUnprocessable(w, msgNoRuleForDate)

	case errors.Is(err, domain.ErrAmbiguousRule):
		RespondConflict(w, msgAmbiguousRule)

	case errors.Is(err, domain.ErrInvalidTimeRange):
		RespondBadRequest(w, msgInvalidTimeRange)

	case errors.Is(err, domain.ErrInvariantViolation):
		RespondError(w, http.StatusInternalServerError, msgInvariantViolation)

	default:
		return false
	}
	return true
}
