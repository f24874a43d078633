package common

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure kinds every caller can act on. Typed
// errors below wrap these so callers match with errors.Is and still get
// the product/stage context out of the message.
var (
	// ErrNotFound means the id did not resolve to a live document (bad or
	// stale QR payload, retired product, unknown invoice number).
	ErrNotFound = errors.New("not found")

	// ErrConflict is a version mismatch on a conditional update. It is
	// absorbed by the stock ledger's retry loop and only escapes when the
	// retry bound is exhausted.
	ErrConflict = errors.New("version conflict")

	// ErrInvalidQuantity rejects a draft edit (negative quantity, bad
	// index, raising an out-of-stock row). The draft is left unchanged.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInvalidInvoice rejects a draft before any side effect: empty
	// customer name, no line items, or a zero-quantity line.
	ErrInvalidInvoice = errors.New("invalid invoice")
)

// InsufficientStockError is the business rejection from a single decrement:
// the requested quantity exceeds what is available right now.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}

// OutOfStockError rejects a whole invoice during validation; no stock has
// been touched when it is returned.
type OutOfStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %s is out of stock: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}

// RolledBackError means the commit failed partway and the engine restored
// every decrement it had made. Cause carries the first failure; ProductID
// names the line item that failed.
type RolledBackError struct {
	ProductID      string
	Cause          error
	ReleaseFailure error // non-nil when a compensating release also failed; operator reconciliation case
}

func (e *RolledBackError) Error() string {
	if e.ReleaseFailure != nil {
		return fmt.Sprintf("invoice rolled back at product %s: %v (release also failed: %v)", e.ProductID, e.Cause, e.ReleaseFailure)
	}
	return fmt.Sprintf("invoice rolled back at product %s: %v", e.ProductID, e.Cause)
}

func (e *RolledBackError) Unwrap() error { return e.Cause }

// PersistenceError means the sales ledger append failed after stock was
// already decremented. It is surfaced for manual reconciliation and never
// retried automatically: a blind retry could double-append.
type PersistenceError struct {
	InvoiceNumber string
	Cause         error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("sales record %s not persisted, stock already decremented: %v", e.InvoiceNumber, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }
