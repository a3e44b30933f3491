package reconcile

import (
	"errors"
	"fmt"
)

// ErrMissingReceipt rejects a collection attempt with no captured receipt
// photo. Raised locally, before any write is attempted.
var ErrMissingReceipt = errors.New("a receipt photo is required to collect a payment")

// ErrDuplicatePayment rejects a collection attempt for a seller-week that
// already has a durable payment record.
var ErrDuplicatePayment = errors.New("a payment was already collected for this seller this week")

// PersistenceError wraps a failed durable write. The overlay is never touched
// when one of these is returned, so the seller stays Pending and the operator
// can retry with the same receipt.
type PersistenceError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
