package ledger

// Reservation места, списанные со слота, но еще не закрепленные сохраненной записью
type Reservation struct {
	ID             string
	SlotID         int64
	Seats          int
	RemainingAfter int
}

const (
	opReserve  = "reserve"
	opConfirm  = "confirm"
	opRollback = "rollback"
	opRelease  = "release"
	opAdjust   = "adjust"
	opDiscard  = "discard"

	resultOK               = "ok"
	resultSlotClosed       = "slot_closed"
	resultCapacityExceeded = "capacity_exceeded"
	resultInvariant        = "invariant_violation"
	resultError            = "error"
)
