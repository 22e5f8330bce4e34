package entitlement_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrops/backoffice-core/entitlement"
	"github.com/hrops/backoffice-core/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) (*entitlement.ClaimService, *memory.Entitlement) {
	t.Helper()
	store := memory.NewEntitlement()
	lookup := entitlement.NewLookup(store)
	balance := entitlement.NewBalanceCalculator(lookup, store)
	engine := entitlement.NewEngine(entitlement.NewClaimGapEligibility(lookup, store))
	return entitlement.NewClaimService(store, store, balance, engine), store
}

// =============================================================================
// SUBMISSION FLOW
// =============================================================================

func TestSubmitClaim_Admitted_PersistsWithSnapshots(t *testing.T) {
	// GIVEN: A 5000 medicine policy and an employee with no history
	// WHEN: Submitting a 3000 claim
	// THEN: The claim is persisted approved, with balance snapshots

	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.SavePolicy(ctx, medicinePolicy("5000", 0)))
	require.NoError(t, store.SaveEmployee(ctx, officer("emp-1")))

	claimDate := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.SubmitClaim(ctx, entitlement.ClaimRequest{
		EmployeeID: "emp-1",
		Type:       entitlement.ClaimMedicine,
		Amount:     entitlement.MustParseMoney("3000"),
		ClaimDate:  claimDate,
		AppliedFor: "self",
	})

	require.NoError(t, err)
	assert.True(t, result.Decision.Admit)
	require.NotNil(t, result.Claim)
	assert.True(t, result.Claim.Approved)
	assert.True(t, result.Claim.BalanceAtClaim.Equal(entitlement.MustParseMoney("5000")))
	assert.True(t, result.Claim.PostClaimBalance.Equal(entitlement.MustParseMoney("2000")))

	persisted, err := store.GetClaim(ctx, result.Claim.ID)
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.True(t, persisted.Amount.Equal(entitlement.MustParseMoney("3000")))
}

func TestSubmitClaim_Rejected_NothingPersisted(t *testing.T) {
	// GIVEN: Balance 5000
	// WHEN: Submitting a 6000 claim
	// THEN: Rejection with the exceeds message, no claim written

	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.SavePolicy(ctx, medicinePolicy("5000", 0)))
	require.NoError(t, store.SaveEmployee(ctx, officer("emp-1")))

	result, err := svc.SubmitClaim(ctx, entitlement.ClaimRequest{
		EmployeeID: "emp-1",
		Type:       entitlement.ClaimMedicine,
		Amount:     entitlement.MustParseMoney("6000"),
		ClaimDate:  time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.False(t, result.Decision.Admit)
	assert.Equal(t, "exceeds available balance", result.Decision.Reason)
	assert.Nil(t, result.Claim)

	claims, err := store.ClaimsInWindow(ctx, "emp-1", entitlement.ClaimMedicine,
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestSubmitClaim_ConsumesBalance_AcrossSubmissions(t *testing.T) {
	// Two sequential claims: the second sees the balance the first
	// left behind.
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.SavePolicy(ctx, medicinePolicy("5000", 0)))
	require.NoError(t, store.SaveEmployee(ctx, officer("emp-1")))

	claimDate := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	first, err := svc.SubmitClaim(ctx, entitlement.ClaimRequest{
		EmployeeID: "emp-1", Type: entitlement.ClaimMedicine,
		Amount: entitlement.MustParseMoney("4000"), ClaimDate: claimDate,
	})
	require.NoError(t, err)
	require.True(t, first.Decision.Admit)

	second, err := svc.SubmitClaim(ctx, entitlement.ClaimRequest{
		EmployeeID: "emp-1", Type: entitlement.ClaimMedicine,
		Amount: entitlement.MustParseMoney("2000"), ClaimDate: claimDate.AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	assert.False(t, second.Decision.Admit)
	assert.True(t, second.Balance.Balance.Equal(entitlement.MustParseMoney("1000")))
}

func TestSubmitClaim_UnknownEmployee_Error(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SubmitClaim(context.Background(), entitlement.ClaimRequest{
		EmployeeID: "ghost",
		Type:       entitlement.ClaimMedicine,
		Amount:     entitlement.MustParseMoney("100"),
	})

	assert.ErrorIs(t, err, entitlement.ErrEmployeeNotFound)
}

// =============================================================================
// EDIT FLOW
// =============================================================================

func TestEditClaim_OwnAmountBackedOut(t *testing.T) {
	// GIVEN: A 4000 claim against a 5000 entitlement (balance 1000)
	// WHEN: Editing that claim up to 4500
	// THEN: Admitted, because its own 4000 does not compete with itself

	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.SavePolicy(ctx, medicinePolicy("5000", 0)))
	require.NoError(t, store.SaveEmployee(ctx, officer("emp-1")))

	claimDate := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	submitted, err := svc.SubmitClaim(ctx, entitlement.ClaimRequest{
		EmployeeID: "emp-1", Type: entitlement.ClaimMedicine,
		Amount: entitlement.MustParseMoney("4000"), ClaimDate: claimDate,
	})
	require.NoError(t, err)
	require.NotNil(t, submitted.Claim)

	edited, err := svc.EditClaim(ctx, *submitted.Claim, entitlement.MustParseMoney("4500"), "corrected receipt total")

	require.NoError(t, err)
	assert.True(t, edited.Decision.Admit)
	require.NotNil(t, edited.Claim)
	assert.True(t, edited.Claim.Amount.Equal(entitlement.MustParseMoney("4500")))
	assert.Equal(t, "corrected receipt total", edited.Claim.Notes)

	persisted, err := store.GetClaim(ctx, submitted.Claim.ID)
	require.NoError(t, err)
	assert.True(t, persisted.Amount.Equal(entitlement.MustParseMoney("4500")))
}

func TestEditClaim_BeyondEntitlement_Rejected(t *testing.T) {
	// The edit path still enforces the window: raising the claim past
	// the full entitlement rejects and leaves the stored amount alone.
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.SavePolicy(ctx, medicinePolicy("5000", 0)))
	require.NoError(t, store.SaveEmployee(ctx, officer("emp-1")))

	claimDate := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	submitted, err := svc.SubmitClaim(ctx, entitlement.ClaimRequest{
		EmployeeID: "emp-1", Type: entitlement.ClaimMedicine,
		Amount: entitlement.MustParseMoney("4000"), ClaimDate: claimDate,
	})
	require.NoError(t, err)

	edited, err := svc.EditClaim(ctx, *submitted.Claim, entitlement.MustParseMoney("5500"), "")

	require.NoError(t, err)
	assert.False(t, edited.Decision.Admit)

	persisted, err := store.GetClaim(ctx, submitted.Claim.ID)
	require.NoError(t, err)
	assert.True(t, persisted.Amount.Equal(entitlement.MustParseMoney("4000")))
}
