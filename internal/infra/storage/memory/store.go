// Package memory хранит формы, слоты и записи в памяти процесса.
// Сущности лежат в map по id и ссылаются друг на друга только через id;
// наружу всегда отдаются копии.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type slotKey struct {
	formID int64
	start  int64
	end    int64
}

func newSlotKey(formID int64, start, end time.Time) slotKey {
	return slotKey{formID: formID, start: start.UnixNano(), end: end.UnixNano()}
}

type closingKey struct {
	formID int64
	date   string
}

// Store общее хранилище для всех репозиториев
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	seq int64

	forms        map[int64]*domain.Form
	rules        map[int64]*domain.ReservationRule
	weeks        map[int64]*domain.WeekDefinition
	workingDays  map[int64]*domain.WorkingDay
	timeSlots    map[int64]*domain.TimeSlot
	closingDays  map[int64]*domain.ClosingDay
	closingIndex map[closingKey]int64
	slots        map[int64]*domain.Slot
	slotIndex    map[slotKey]int64
	appointments map[int64]*domain.Appointment
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		now:          time.Now,
		forms:        make(map[int64]*domain.Form),
		rules:        make(map[int64]*domain.ReservationRule),
		weeks:        make(map[int64]*domain.WeekDefinition),
		workingDays:  make(map[int64]*domain.WorkingDay),
		timeSlots:    make(map[int64]*domain.TimeSlot),
		closingDays:  make(map[int64]*domain.ClosingDay),
		closingIndex: make(map[closingKey]int64),
		slots:        make(map[int64]*domain.Slot),
		slotIndex:    make(map[slotKey]int64),
		appointments: make(map[int64]*domain.Appointment),
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// TxManager выполняет функцию без транзакции.
// Атомарность операций над местами обеспечивают блокировки в ledger.
type TxManager struct{}

// NewTxManager создает TxManager для хранилища в памяти
func NewTxManager() *TxManager {
	return &TxManager{}
}

// Do выполняет fn
func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
