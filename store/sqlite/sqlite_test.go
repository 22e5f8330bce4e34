package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrops/backoffice-core/entitlement"
	"github.com/hrops/backoffice-core/stock"
	"github.com/hrops/backoffice-core/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployee_SaveAndGet_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := entitlement.Employee{
		ID:            "emp-1",
		Name:          "Nadia Rahman",
		DesignationID: "officer",
		DepartmentID:  "finance",
		BasicSalary:   entitlement.MustParseMoney("42000"),
		GrossSalary:   entitlement.MustParseMoney("55000"),
		IsSalesRole:   true,
		JoinDate:      time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveEmployee(ctx, emp))

	got, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, emp.Name, got.Name)
	assert.Equal(t, emp.DesignationID, got.DesignationID)
	assert.True(t, emp.BasicSalary.Equal(got.BasicSalary))
	assert.True(t, got.IsSalesRole)
	assert.True(t, emp.JoinDate.Equal(got.JoinDate))
}

func TestEmployee_Get_Missing_ReturnsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetEmployee(context.Background(), "ghost")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEmployee_Save_Upserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := entitlement.Employee{ID: "emp-1", Name: "Before", DesignationID: "officer",
		BasicSalary: entitlement.MustParseMoney("40000"), GrossSalary: entitlement.MustParseMoney("50000")}
	require.NoError(t, store.SaveEmployee(ctx, emp))

	emp.Name = "After"
	require.NoError(t, store.SaveEmployee(ctx, emp))

	got, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)

	all, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// =============================================================================
// POLICIES - key-column lookups over JSON config
// =============================================================================

func TestPolicy_MedicalLookup_ByDesignationAndKind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	policy := entitlement.Policy{
		ID:            "pol-med",
		Name:          "Officer Medical",
		DesignationID: "officer",
		Kind:          entitlement.ClaimMedicine,
		FixedAmount:   entitlement.MustParseMoney("5000"),
		AmountType:    entitlement.AmountFixed,
	}
	require.NoError(t, store.SavePolicy(ctx, policy))

	got, err := store.MedicalPolicy(ctx, "officer", entitlement.ClaimMedicine)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, policy.ID, got.ID)
	assert.True(t, policy.FixedAmount.Equal(got.FixedAmount))

	miss, err := store.MedicalPolicy(ctx, "manager", entitlement.ClaimMedicine)
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestPolicy_HandsetLookup_SalesIsPartOfKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sales := entitlement.Policy{
		ID: "pol-h-sales", DesignationID: "officer", Kind: entitlement.ClaimMobileHandset,
		FixedAmount: entitlement.MustParseMoney("30000"), IsSales: true,
	}
	require.NoError(t, store.SavePolicy(ctx, sales))

	got, err := store.HandsetPolicy(ctx, "officer", true)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sales.ID, got.ID)

	// The non-sales key misses; the fallback lives in the lookup layer,
	// not the store.
	miss, err := store.HandsetPolicy(ctx, "officer", false)
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestPolicy_TravelLookup_CityCaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	policy := entitlement.Policy{
		ID: "pol-dhaka", DesignationID: "officer", Kind: entitlement.ClaimTravel,
		City: "Dhaka", DailyAllowance: entitlement.MustParseMoney("1200"),
	}
	require.NoError(t, store.SavePolicy(ctx, policy))

	got, err := store.TravelPolicy(ctx, "officer", "DHAKA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, policy.ID, got.ID)
}

// =============================================================================
// CLAIMS - window queries
// =============================================================================

func testClaim(id string, date time.Time, amount string) entitlement.Claim {
	return entitlement.Claim{
		ID:         entitlement.ClaimID(id),
		EmployeeID: "emp-1",
		Type:       entitlement.ClaimMedicine,
		ClaimDate:  date,
		Amount:     entitlement.MustParseMoney(amount),
		Approved:   true,
		CreatedAt:  date,
	}
}

func TestClaims_WindowQuery_BoundsInclusive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	jan := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	dec25 := time.Date(2025, time.December, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateClaim(ctx, testClaim("c-1", jan, "1000")))
	require.NoError(t, store.CreateClaim(ctx, testClaim("c-2", jun, "2000")))
	require.NoError(t, store.CreateClaim(ctx, testClaim("c-old", dec25, "3000")))

	claims, err := store.ClaimsInWindow(ctx, "emp-1", entitlement.ClaimMedicine,
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, entitlement.ClaimID("c-1"), claims[0].ID)
	assert.Equal(t, entitlement.ClaimID("c-2"), claims[1].ID)
}

func TestClaims_LastClaim_MostRecentByDate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := testClaim("c-1", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), "1000")
	newer := testClaim("c-2", time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), "2000")
	require.NoError(t, store.CreateClaim(ctx, older))
	require.NoError(t, store.CreateClaim(ctx, newer))

	last, err := store.LastClaim(ctx, "emp-1", entitlement.ClaimMedicine)

	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, entitlement.ClaimID("c-2"), last.ID)
}

func TestClaims_Update_MissingClaim_Error(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateClaim(context.Background(), testClaim("ghost", time.Now().UTC(), "100"))

	assert.ErrorIs(t, err, entitlement.ErrClaimNotFound)
}

func TestClaims_RoundTrip_PreservesSnapshots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	claim := testClaim("c-1", time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), "3000")
	claim.BalanceAtClaim = entitlement.MustParseMoney("5000")
	claim.PostClaimBalance = entitlement.MustParseMoney("2000")
	claim.AppliedFor = "spouse"
	claim.Notes = "pharmacy receipts attached"
	require.NoError(t, store.CreateClaim(ctx, claim))

	got, err := store.GetClaim(ctx, "c-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.BalanceAtClaim.Equal(claim.BalanceAtClaim))
	assert.True(t, got.PostClaimBalance.Equal(claim.PostClaimBalance))
	assert.Equal(t, "spouse", got.AppliedFor)
	assert.Equal(t, "pharmacy receipts attached", got.Notes)
}

// =============================================================================
// STOCK - conditional flip and transactional writes
// =============================================================================

func testPurchase(id string, qty int64) stock.Purchase {
	return stock.Purchase{
		ID:            stock.PurchaseID(id),
		VendorID:      "vendor-1",
		ItemID:        "raw-lot",
		TotalQuantity: decimal.NewFromInt(qty),
		Rate:          decimal.RequireFromString("18.50"),
		PaymentType:   "bank",
		PurchaseDate:  time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestMarkSorted_SecondFlipReportsFalse(t *testing.T) {
	// The conditional UPDATE is the double-sort defense: the first call
	// flips, the second reports no row touched.
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreatePurchase(ctx, testPurchase("p-1", 100)))

	flipped, err := store.MarkSorted(ctx, "p-1")
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = store.MarkSorted(ctx, "p-1")
	require.NoError(t, err)
	assert.False(t, flipped)
}

func TestMarkSorted_MissingPurchase_ReportsFalse(t *testing.T) {
	store := newTestStore(t)

	flipped, err := store.MarkSorted(context.Background(), "ghost")

	require.NoError(t, err)
	assert.False(t, flipped)
}

func TestWithTx_ErrorRollsBackAllWrites(t *testing.T) {
	// GIVEN: A transaction that flips a purchase and then fails
	// WHEN: The callback returns an error
	// THEN: Neither the flip nor the allocation survives

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreatePurchase(ctx, testPurchase("p-1", 100)))

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx stock.Store) error {
		flipped, err := tx.MarkSorted(ctx, "p-1")
		require.NoError(t, err)
		require.True(t, flipped)
		require.NoError(t, tx.InsertAllocations(ctx, []stock.Allocation{{
			ID: "a-1", PurchaseID: "p-1", ItemID: "grade-a",
			Quantity: decimal.NewFromInt(100), VendorID: "vendor-1",
			CreatedAt: time.Now().UTC(),
		}}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := store.GetPurchase(ctx, "p-1")
	require.NoError(t, err)
	assert.False(t, p.IsSorted)

	allocated, err := store.AllocatedQuantity(ctx, "grade-a")
	require.NoError(t, err)
	assert.True(t, allocated.IsZero())
}

func TestQuantityAggregates_SumDecimalStrings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreatePurchase(ctx, testPurchase("p-1", 100)))

	err := store.WithTx(ctx, func(tx stock.Store) error {
		return tx.InsertAllocations(ctx, []stock.Allocation{
			{ID: "a-1", PurchaseID: "p-1", ItemID: "grade-a", Quantity: decimal.RequireFromString("33.3"), VendorID: "vendor-1", CreatedAt: time.Now().UTC()},
			{ID: "a-2", PurchaseID: "p-1", ItemID: "grade-a", Quantity: decimal.RequireFromString("66.7"), VendorID: "vendor-1", CreatedAt: time.Now().UTC()},
		})
	})
	require.NoError(t, err)

	allocated, err := store.AllocatedQuantity(ctx, "grade-a")
	require.NoError(t, err)
	assert.True(t, allocated.Equal(decimal.NewFromInt(100)), "allocated: %s", allocated)
}

func TestSale_LinesPersistPerItem(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sale := stock.Sale{
		ID:          "s-1",
		CustomerRef: "cust-1",
		SaleDate:    time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		Lines: []stock.SaleLine{
			{ItemID: "grade-a", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.RequireFromString("32.00"), Amount: decimal.RequireFromString("320.00")},
			{ItemID: "grade-b", Quantity: decimal.NewFromInt(5), UnitPrice: decimal.RequireFromString("25.00"), Amount: decimal.RequireFromString("125.00")},
		},
	}
	require.NoError(t, store.InsertSale(ctx, sale))

	soldA, err := store.SoldQuantity(ctx, "grade-a")
	require.NoError(t, err)
	assert.True(t, soldA.Equal(decimal.NewFromInt(10)))

	soldB, err := store.SoldQuantity(ctx, "grade-b")
	require.NoError(t, err)
	assert.True(t, soldB.Equal(decimal.NewFromInt(5)))
}
