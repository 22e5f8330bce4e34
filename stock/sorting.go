/*
sorting.go - Stock allocation ledger

PURPOSE:
  Sorting allocates a purchased lot's quantity into one or more catalog
  items. It is the gate between purchasing and selling: unsorted stock
  is not sellable.

STATE MACHINE:
  Unsorted -> Sorted, terminal. No Sorted -> Unsorted transition is
  exposed anywhere.

ATOMICITY:
  Validation happens entirely before any write. The flip of IsSorted
  and the insertion of the allocation rows run inside one store
  transaction, with the flip implemented as a conditional update
  (is_sorted must still be false at commit time). Two concurrent sorts
  of the same purchase resolve to exactly one winner.
*/
package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SORT RESULT
// =============================================================================

// SortResult reports a successful sort.
type SortResult struct {
	Purchase    Purchase
	Allocations []Allocation
}

// =============================================================================
// LEDGER
// =============================================================================

// Ledger performs sorting against a Store.
type Ledger struct {
	Store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{Store: store}
}

// Sort allocates the purchase's full quantity into the given rows.
//
// Preconditions: the purchase exists and is unsorted; every row names
// an item and carries a positive quantity. The conservation check
// (sum of row quantities equals the purchased quantity, exactly) runs
// before any write; a mismatch rejects the whole batch and the
// purchase remains unsorted.
func (l *Ledger) Sort(ctx context.Context, purchaseID PurchaseID, rows []AllocationInput) (*SortResult, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySubmission
	}

	purchase, err := l.Store.GetPurchase(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, ErrPurchaseNotFound
	}
	if purchase.IsSorted {
		return nil, ErrAlreadySorted
	}

	total := decimal.Zero
	for _, row := range rows {
		if row.ItemID == "" || !row.Quantity.IsPositive() {
			return nil, ErrInvalidAllocation
		}
		total = total.Add(row.Quantity)
	}
	if !total.Equal(purchase.TotalQuantity) {
		return nil, &QuantityMismatchError{
			PurchaseID: purchaseID,
			Purchased:  purchase.TotalQuantity,
			Allocated:  total,
		}
	}

	now := time.Now().UTC()
	allocs := make([]Allocation, len(rows))
	for i, row := range rows {
		allocs[i] = Allocation{
			ID:          uuid.NewString(),
			PurchaseID:  purchaseID,
			ItemID:      row.ItemID,
			Quantity:    row.Quantity,
			Amount:      row.Amount,
			Notes:       row.Notes,
			VendorID:    purchase.VendorID,
			PaymentType: purchase.PaymentType,
			BankRef:     purchase.BankRef,
			CreatedAt:   now,
		}
	}

	// Flip and insert in one transaction. The conditional flip rechecks
	// the unsorted precondition at commit time.
	err = l.Store.WithTx(ctx, func(tx Store) error {
		flipped, err := tx.MarkSorted(ctx, purchaseID)
		if err != nil {
			return err
		}
		if !flipped {
			return ErrAlreadySorted
		}
		return tx.InsertAllocations(ctx, allocs)
	})
	if err != nil {
		return nil, err
	}

	sorted := *purchase
	sorted.IsSorted = true
	return &SortResult{Purchase: sorted, Allocations: allocs}, nil
}
