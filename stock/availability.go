/*
availability.go - Available-quantity tracking and sale validation

PURPOSE:
  Derives current sellable quantity per item from the sorting ledger
  minus prior sales and wastage, and gates sale and wastage submission
  on it. Availability is always recomputed from current ledger state -
  never cached across a session - and the check is repeated inside the
  commit transaction so a concurrent consumer cannot slip between
  validation and write.

WHOLE-SUBMISSION REJECTION:
  A single short line rejects the entire sale, with every offending
  item listed ("insufficient stock for X: available N, requested M").
  No partial sale is ever persisted.

WASTAGE SYMMETRY:
  Wastage decreases available quantity exactly like a sale and is
  validated with the same non-negativity check. Letting wastage drive
  availability negative was never intended behavior.
*/
package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// TRACKER
// =============================================================================

// Tracker derives availability and validates consuming submissions.
type Tracker struct {
	Store Store
}

func NewTracker(store Store) *Tracker {
	return &Tracker{Store: store}
}

// AvailableQuantity returns sorted-in minus sold minus wasted for the
// item, recomputed from current ledger state on every call.
func (t *Tracker) AvailableQuantity(ctx context.Context, itemID ItemID) (decimal.Decimal, error) {
	return availableQuantity(ctx, t.Store, itemID)
}

func availableQuantity(ctx context.Context, s Store, itemID ItemID) (decimal.Decimal, error) {
	allocated, err := s.AllocatedQuantity(ctx, itemID)
	if err != nil {
		return decimal.Zero, err
	}
	sold, err := s.SoldQuantity(ctx, itemID)
	if err != nil {
		return decimal.Zero, err
	}
	wasted, err := s.WastedQuantity(ctx, itemID)
	if err != nil {
		return decimal.Zero, err
	}
	return allocated.Sub(sold).Sub(wasted), nil
}

// =============================================================================
// SALE SUBMISSION
// =============================================================================

// SaleRequest is a proposed sale from the intake form.
type SaleRequest struct {
	CustomerRef string
	SaleDate    time.Time
	Lines       []SaleLine
}

// SubmitSale validates every line against current availability and
// persists the sale. The validation runs again inside the commit
// transaction against the lines' combined demand per item, so two
// sales depleting the same stock cannot both commit past the pool.
func (t *Tracker) SubmitSale(ctx context.Context, req SaleRequest) (*Sale, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptySubmission
	}

	sale := Sale{
		ID:          SaleID(uuid.NewString()),
		CustomerRef: req.CustomerRef,
		SaleDate:    req.SaleDate,
		Lines:       make([]SaleLine, len(req.Lines)),
	}
	if sale.SaleDate.IsZero() {
		sale.SaleDate = time.Now().UTC()
	}
	for i, line := range req.Lines {
		line.Amount = line.Quantity.Mul(line.UnitPrice)
		sale.Lines[i] = line
	}

	err := t.Store.WithTx(ctx, func(tx Store) error {
		if err := checkLines(ctx, tx, sale.Lines); err != nil {
			return err
		}
		return tx.InsertSale(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// checkLines verifies requested <= available per item, aggregating
// lines that name the same item. Every shortfall is collected so the
// rejection lists all offending items.
func checkLines(ctx context.Context, s Store, lines []SaleLine) error {
	demand := make(map[ItemID]decimal.Decimal)
	order := make([]ItemID, 0, len(lines))
	for _, line := range lines {
		if _, seen := demand[line.ItemID]; !seen {
			order = append(order, line.ItemID)
		}
		demand[line.ItemID] = demand[line.ItemID].Add(line.Quantity)
	}

	var shortfalls []Shortfall
	for _, itemID := range order {
		available, err := availableQuantity(ctx, s, itemID)
		if err != nil {
			return err
		}
		if demand[itemID].GreaterThan(available) {
			shortfalls = append(shortfalls, Shortfall{
				ItemID:    itemID,
				Available: available,
				Requested: demand[itemID],
			})
		}
	}
	if len(shortfalls) > 0 {
		return &InsufficientStockError{Shortfalls: shortfalls}
	}
	return nil
}

// =============================================================================
// WASTAGE SUBMISSION
// =============================================================================

// WastageRequest is a proposed wastage entry.
type WastageRequest struct {
	ItemID   ItemID
	Quantity decimal.Decimal
	NetPrice decimal.Decimal
	Date     time.Time
	Notes    string
}

// SubmitWastage records a wastage entry with the same availability
// check a sale gets.
func (t *Tracker) SubmitWastage(ctx context.Context, req WastageRequest) (*Wastage, error) {
	if req.ItemID == "" || !req.Quantity.IsPositive() {
		return nil, ErrInvalidAllocation
	}

	w := Wastage{
		ID:       uuid.NewString(),
		ItemID:   req.ItemID,
		Quantity: req.Quantity,
		NetPrice: req.NetPrice,
		Date:     req.Date,
		Notes:    req.Notes,
	}
	if w.Date.IsZero() {
		w.Date = time.Now().UTC()
	}

	err := t.Store.WithTx(ctx, func(tx Store) error {
		available, err := availableQuantity(ctx, tx, req.ItemID)
		if err != nil {
			return err
		}
		if req.Quantity.GreaterThan(available) {
			return &InsufficientStockError{Shortfalls: []Shortfall{{
				ItemID:    req.ItemID,
				Available: available,
				Requested: req.Quantity,
			}}}
		}
		return tx.InsertWastage(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}
