/*
errors.go - Centralized error types for the stock chain

ERROR CATEGORIES:
  1. Not-found errors - missing purchase/item references
  2. Sorting rejections - mismatch and double-sort, batch-atomic
  3. Sale/wastage rejections - itemized shortfalls, whole-submission

All rejections here are recoverable, user-facing outcomes surfaced
inline near the relevant form field; none is fatal.
*/
package stock

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPurchaseNotFound is returned when a referenced purchase
	// doesn't exist.
	ErrPurchaseNotFound = errors.New("purchase not found")

	// ErrAlreadySorted is returned when sorting a purchase whose
	// Sorted state is terminal. Re-sorting is never allowed.
	ErrAlreadySorted = errors.New("purchase already sorted")

	// ErrQuantityMismatch is returned when allocations don't conserve
	// the purchased quantity.
	ErrQuantityMismatch = errors.New("allocation quantity mismatch")

	// ErrInvalidAllocation is returned for an allocation row with a
	// missing item or non-positive quantity.
	ErrInvalidAllocation = errors.New("invalid allocation row")

	// ErrInsufficientStock is returned when a sale or wastage requests
	// more than the current available quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrEmptySubmission is returned for a sale or sort with no rows.
	ErrEmptySubmission = errors.New("submission has no rows")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// QuantityMismatchError reports an allocation sum that diverges from
// the purchased quantity. Nothing is persisted when this is returned.
type QuantityMismatchError struct {
	PurchaseID PurchaseID
	Purchased  decimal.Decimal
	Allocated  decimal.Decimal
}

func (e *QuantityMismatchError) Error() string {
	return fmt.Sprintf("allocation quantity mismatch for purchase %s: purchased %s, allocated %s",
		e.PurchaseID, e.Purchased, e.Allocated)
}

func (e *QuantityMismatchError) Unwrap() error { return ErrQuantityMismatch }

// Shortfall is one item's deficit in a rejected sale or wastage.
type Shortfall struct {
	ItemID    ItemID
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (s Shortfall) String() string {
	return fmt.Sprintf("insufficient stock for %s: available %s, requested %s",
		s.ItemID, s.Available, s.Requested)
}

// InsufficientStockError rejects a whole submission, listing every
// offending item, not just the first.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		parts[i] = s.String()
	}
	return strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is a user-correctable
// rejection rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrQuantityMismatch) ||
		errors.Is(err, ErrInvalidAllocation) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrEmptySubmission)
}
