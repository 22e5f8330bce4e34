/*
Package stock implements the purchase -> sorting -> sale stock chain.

PURPOSE:
  Purchased lots must be fully and unambiguously allocated ("sorted")
  into catalog items before they can be sold. This package tracks the
  allocation ledger and derives current sellable quantity per item,
  consulted before any sale or wastage commits.

KEY CONCEPTS IN THIS FILE (types.go):
  - Purchase: A lot of one item from one vendor, Unsorted -> Sorted
  - Allocation: One row assigning a sub-quantity to a catalog item
  - Sale/SaleLine: Consumption of the item pool
  - Wastage: Non-sale consumption, symmetric to a sale

INVARIANTS:
  1. sum(allocation.Quantity) == purchase.TotalQuantity, exactly
  2. A purchase is sorted at most once; Sorted is terminal
  3. availableQuantity(item) never goes negative through accepted
     operations

QUANTITIES:
  Quantities are decimal.Decimal, matching the currency math in the
  entitlement core. Exact equality checks on the conservation invariant
  are safe because decimal arithmetic is exact.

SEE ALSO:
  - sorting.go: The allocation ledger
  - availability.go: Derived sellable quantity and sale validation
*/
package stock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PurchaseID string
type ItemID string
type VendorID string
type SaleID string

// =============================================================================
// PURCHASE - Unsorted -> Sorted (terminal)
// =============================================================================

type Purchase struct {
	ID            PurchaseID
	VendorID      VendorID
	ItemID        ItemID // item as purchased; sorting may reassign
	TotalQuantity decimal.Decimal
	Rate          decimal.Decimal
	PaymentType   string
	BankRef       string
	PurchaseDate  time.Time
	IsSorted      bool
}

// =============================================================================
// ALLOCATION - One sorting row
// =============================================================================

// Allocation assigns a sub-quantity of a purchase to a catalog item.
// Vendor, payment type, and bank reference are copied from the
// purchase at sort time so each ledger row stands alone.
type Allocation struct {
	ID          string
	PurchaseID  PurchaseID
	ItemID      ItemID
	Quantity    decimal.Decimal
	Amount      decimal.Decimal
	Notes       string
	VendorID    VendorID
	PaymentType string
	BankRef     string
	CreatedAt   time.Time
}

// AllocationInput is one requested allocation row in a sort call.
type AllocationInput struct {
	ItemID   ItemID
	Quantity decimal.Decimal
	Amount   decimal.Decimal
	Notes    string
}

// =============================================================================
// SALE / WASTAGE - Consumption of the item pool
// =============================================================================

type SaleLine struct {
	ItemID    ItemID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Amount    decimal.Decimal // Quantity x UnitPrice
}

type Sale struct {
	ID          SaleID
	CustomerRef string
	SaleDate    time.Time
	Lines       []SaleLine
}

type Wastage struct {
	ID       string
	ItemID   ItemID
	Quantity decimal.Decimal
	NetPrice decimal.Decimal
	Date     time.Time
	Notes    string
}

// =============================================================================
// STORE INTERFACE - Implemented by store/memory and store/sqlite
// =============================================================================

// Store persists the stock chain. WithTx runs fn inside one atomic
// transaction; both the sort-and-flip and the sale check-and-commit
// depend on it.
type Store interface {
	// GetPurchase returns the purchase, or nil if not found.
	GetPurchase(ctx context.Context, id PurchaseID) (*Purchase, error)
	CreatePurchase(ctx context.Context, p Purchase) error
	ListPurchases(ctx context.Context) ([]Purchase, error)

	// MarkSorted flips IsSorted only when it is currently false.
	// Returns false when the purchase was already sorted (or missing),
	// which is what closes the double-sort race.
	MarkSorted(ctx context.Context, id PurchaseID) (bool, error)

	// InsertAllocations writes the sorting rows for one purchase.
	InsertAllocations(ctx context.Context, allocs []Allocation) error
	AllocationsForPurchase(ctx context.Context, id PurchaseID) ([]Allocation, error)

	// Quantity aggregates, always against current ledger state.
	AllocatedQuantity(ctx context.Context, itemID ItemID) (decimal.Decimal, error)
	SoldQuantity(ctx context.Context, itemID ItemID) (decimal.Decimal, error)
	WastedQuantity(ctx context.Context, itemID ItemID) (decimal.Decimal, error)

	InsertSale(ctx context.Context, sale Sale) error
	InsertWastage(ctx context.Context, w Wastage) error

	// WithTx executes fn within a transaction; rollback on error.
	WithTx(ctx context.Context, fn func(Store) error) error
}
