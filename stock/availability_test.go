package stock_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrops/backoffice-core/stock"
	"github.com/hrops/backoffice-core/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newStockedTracker sorts one purchase so grade-a holds 60 and grade-b
// holds 40 available units.
func newStockedTracker(t *testing.T) (*stock.Tracker, *memory.Stock) {
	t.Helper()
	store := memory.NewStock()
	ctx := context.Background()

	require.NoError(t, store.CreatePurchase(ctx, lot("p-1", 100)))
	_, err := stock.NewLedger(store).Sort(ctx, "p-1", []stock.AllocationInput{
		alloc("grade-a", 60),
		alloc("grade-b", 40),
	})
	require.NoError(t, err)

	return stock.NewTracker(store), store
}

func saleLine(item string, quantity int64) stock.SaleLine {
	return stock.SaleLine{
		ItemID:    stock.ItemID(item),
		Quantity:  decimal.NewFromInt(quantity),
		UnitPrice: decimal.RequireFromString("30.00"),
	}
}

// =============================================================================
// AVAILABILITY DERIVATION
// =============================================================================

func TestAvailableQuantity_AllocatedMinusSoldMinusWasted(t *testing.T) {
	// GIVEN: 60 sorted in, 25 sold, 5 wasted
	// WHEN: Querying availability
	// THEN: 30 remains

	tracker, _ := newStockedTracker(t)
	ctx := context.Background()

	_, err := tracker.SubmitSale(ctx, stock.SaleRequest{
		CustomerRef: "cust-1",
		Lines:       []stock.SaleLine{saleLine("grade-a", 25)},
	})
	require.NoError(t, err)

	_, err = tracker.SubmitWastage(ctx, stock.WastageRequest{
		ItemID:   "grade-a",
		Quantity: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	available, err := tracker.AvailableQuantity(ctx, "grade-a")
	require.NoError(t, err)
	assert.True(t, available.Equal(decimal.NewFromInt(30)), "available: %s", available)
}

func TestAvailableQuantity_UnsortedPurchase_NotSellable(t *testing.T) {
	// An unsorted lot contributes nothing to availability.
	store := memory.NewStock()
	ctx := context.Background()
	require.NoError(t, store.CreatePurchase(ctx, lot("p-1", 100)))

	available, err := stock.NewTracker(store).AvailableQuantity(ctx, "raw-lot")

	require.NoError(t, err)
	assert.True(t, available.IsZero())
}

func TestAvailableQuantity_UnknownItem_Zero(t *testing.T) {
	tracker, _ := newStockedTracker(t)

	available, err := tracker.AvailableQuantity(context.Background(), "ghost-item")

	require.NoError(t, err)
	assert.True(t, available.IsZero())
}

// =============================================================================
// SALE VALIDATION
// =============================================================================

func TestSubmitSale_WithinAvailability_Persisted(t *testing.T) {
	tracker, _ := newStockedTracker(t)
	ctx := context.Background()

	sale, err := tracker.SubmitSale(ctx, stock.SaleRequest{
		CustomerRef: "cust-1",
		Lines:       []stock.SaleLine{saleLine("grade-a", 60)},
	})

	require.NoError(t, err)
	require.Len(t, sale.Lines, 1)
	assert.True(t, sale.Lines[0].Amount.Equal(decimal.RequireFromString("1800.00")), "amount: %s", sale.Lines[0].Amount)

	available, _ := tracker.AvailableQuantity(ctx, "grade-a")
	assert.True(t, available.IsZero())
}

func TestSubmitSale_OneShortLine_WholeSaleRejected(t *testing.T) {
	// GIVEN: grade-a has 60, grade-b has 40
	// WHEN: Selling 30 grade-a and 50 grade-b in one submission
	// THEN: Nothing persists; the error names only the short item

	tracker, _ := newStockedTracker(t)
	ctx := context.Background()

	_, err := tracker.SubmitSale(ctx, stock.SaleRequest{
		CustomerRef: "cust-1",
		Lines: []stock.SaleLine{
			saleLine("grade-a", 30),
			saleLine("grade-b", 50),
		},
	})

	require.Error(t, err)
	var short *stock.InsufficientStockError
	require.ErrorAs(t, err, &short)
	require.Len(t, short.Shortfalls, 1)
	assert.Equal(t, stock.ItemID("grade-b"), short.Shortfalls[0].ItemID)
	assert.True(t, short.Shortfalls[0].Available.Equal(decimal.NewFromInt(40)))
	assert.True(t, short.Shortfalls[0].Requested.Equal(decimal.NewFromInt(50)))

	// The in-bounds line must not have consumed anything either.
	available, _ := tracker.AvailableQuantity(ctx, "grade-a")
	assert.True(t, available.Equal(decimal.NewFromInt(60)))
}

func TestSubmitSale_AllShortfallsListed(t *testing.T) {
	tracker, _ := newStockedTracker(t)

	_, err := tracker.SubmitSale(context.Background(), stock.SaleRequest{
		Lines: []stock.SaleLine{
			saleLine("grade-a", 70),
			saleLine("grade-b", 50),
		},
	})

	var short *stock.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Len(t, short.Shortfalls, 2)
	assert.Contains(t, short.Error(), "grade-a")
	assert.Contains(t, short.Error(), "grade-b")
}

func TestSubmitSale_RepeatedItemLines_DemandAggregated(t *testing.T) {
	// Two 35-unit lines of the same 60-unit item must be judged as a
	// combined 70-unit demand.
	tracker, _ := newStockedTracker(t)

	_, err := tracker.SubmitSale(context.Background(), stock.SaleRequest{
		Lines: []stock.SaleLine{
			saleLine("grade-a", 35),
			saleLine("grade-a", 35),
		},
	})

	var short *stock.InsufficientStockError
	require.ErrorAs(t, err, &short)
	require.Len(t, short.Shortfalls, 1)
	assert.True(t, short.Shortfalls[0].Requested.Equal(decimal.NewFromInt(70)))
}

func TestSubmitSale_EmptyLines_Rejected(t *testing.T) {
	tracker, _ := newStockedTracker(t)

	_, err := tracker.SubmitSale(context.Background(), stock.SaleRequest{CustomerRef: "cust-1"})

	assert.ErrorIs(t, err, stock.ErrEmptySubmission)
}

// =============================================================================
// WASTAGE SYMMETRY
// =============================================================================

func TestSubmitWastage_WithinAvailability_Persisted(t *testing.T) {
	tracker, _ := newStockedTracker(t)
	ctx := context.Background()

	w, err := tracker.SubmitWastage(ctx, stock.WastageRequest{
		ItemID:   "grade-b",
		Quantity: decimal.NewFromInt(10),
		Notes:    "crushed in transit",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, w.ID)

	available, _ := tracker.AvailableQuantity(ctx, "grade-b")
	assert.True(t, available.Equal(decimal.NewFromInt(30)))
}

func TestSubmitWastage_ExceedsAvailability_Rejected(t *testing.T) {
	// Wastage gets the same non-negativity gate as a sale: it can never
	// drive availability below zero.
	tracker, _ := newStockedTracker(t)
	ctx := context.Background()

	_, err := tracker.SubmitWastage(ctx, stock.WastageRequest{
		ItemID:   "grade-b",
		Quantity: decimal.NewFromInt(45),
	})

	var short *stock.InsufficientStockError
	require.ErrorAs(t, err, &short)
	require.Len(t, short.Shortfalls, 1)
	assert.True(t, short.Shortfalls[0].Available.Equal(decimal.NewFromInt(40)))

	available, _ := tracker.AvailableQuantity(ctx, "grade-b")
	assert.True(t, available.Equal(decimal.NewFromInt(40)))
}

func TestSubmitWastage_InvalidInput_Rejected(t *testing.T) {
	tracker, _ := newStockedTracker(t)
	ctx := context.Background()

	_, err := tracker.SubmitWastage(ctx, stock.WastageRequest{ItemID: "", Quantity: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, stock.ErrInvalidAllocation)

	_, err = tracker.SubmitWastage(ctx, stock.WastageRequest{ItemID: "grade-a", Quantity: decimal.Zero})
	assert.ErrorIs(t, err, stock.ErrInvalidAllocation)
}
