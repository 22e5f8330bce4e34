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

// stubEligibility lets a test pin the handset verdict without a store.
type stubEligibility struct {
	eligible bool
	reason   string
}

func (s stubEligibility) IsNewClaimPossible(context.Context, entitlement.Employee, entitlement.Money) (entitlement.Eligibility, error) {
	return entitlement.Eligibility{Eligible: s.eligible, Reason: s.reason}, nil
}

func submission(claimType entitlement.ClaimType, amount, balance string) entitlement.Submission {
	return entitlement.Submission{
		Employee: officer("emp-1"),
		Type:     claimType,
		Amount:   entitlement.MustParseMoney(amount),
		Balance:  entitlement.MustParseMoney(balance),
	}
}

// =============================================================================
// ENTITLEMENT-BOUNDED TYPES (medicine, hospital)
// =============================================================================

func TestCanSubmit_Medicine_WithinBalance_Admitted(t *testing.T) {
	engine := entitlement.NewEngine(nil)

	d, err := engine.CanSubmit(context.Background(), submission(entitlement.ClaimMedicine, "5000", "5000"))

	require.NoError(t, err)
	assert.True(t, d.Admit)
	assert.Empty(t, d.Reason)
}

func TestCanSubmit_Medicine_ExceedsBalance_Rejected(t *testing.T) {
	// GIVEN: Balance 5000
	// WHEN: Claiming 6000
	// THEN: Rejected with "exceeds available balance"

	engine := entitlement.NewEngine(nil)

	d, err := engine.CanSubmit(context.Background(), submission(entitlement.ClaimMedicine, "6000", "5000"))

	require.NoError(t, err)
	assert.False(t, d.Admit)
	assert.Equal(t, entitlement.RejectExceedsEntitlement, d.Code)
	assert.Equal(t, "exceeds available balance", d.Reason)
}

func TestCanSubmit_Hospital_BalanceExhausted_Rejected(t *testing.T) {
	// GIVEN: Balance already at zero
	// WHEN: Claiming any amount
	// THEN: The exhaustion message wins over the exceeds message

	engine := entitlement.NewEngine(nil)

	d, err := engine.CanSubmit(context.Background(), submission(entitlement.ClaimHospital, "100", "0"))

	require.NoError(t, err)
	assert.False(t, d.Admit)
	assert.Equal(t, entitlement.RejectBalanceExhausted, d.Code)
	assert.Equal(t, "balance exhausted", d.Reason)
}

func TestCanSubmit_Medicine_ExactBalance_Admitted(t *testing.T) {
	// Boundary: amount equal to balance admits.
	engine := entitlement.NewEngine(nil)

	d, err := engine.CanSubmit(context.Background(), submission(entitlement.ClaimMedicine, "3000", "3000"))

	require.NoError(t, err)
	assert.True(t, d.Admit)
}

// =============================================================================
// MOBILE HANDSET
// =============================================================================

func TestCanSubmit_Handset_WouldGoNegative_Rejected(t *testing.T) {
	engine := entitlement.NewEngine(stubEligibility{eligible: true})

	d, err := engine.CanSubmit(context.Background(), submission(entitlement.ClaimMobileHandset, "35000", "30000"))

	require.NoError(t, err)
	assert.False(t, d.Admit)
	assert.Equal(t, entitlement.RejectWouldGoNegative, d.Code)
	assert.Equal(t, "would make balance negative", d.Reason)
}

func TestCanSubmit_Handset_EligibleWithinBalance_Admitted(t *testing.T) {
	engine := entitlement.NewEngine(stubEligibility{eligible: true})

	d, err := engine.CanSubmit(context.Background(), submission(entitlement.ClaimMobileHandset, "25000", "30000"))

	require.NoError(t, err)
	assert.True(t, d.Admit)
}

func TestCanSubmit_Handset_IneligibleReason_Surfaces(t *testing.T) {
	// GIVEN: The eligibility predicate rejects with its own reason
	// WHEN: Submitting a handset claim that passes the balance gates
	// THEN: That reason surfaces verbatim

	engine := entitlement.NewEngine(stubEligibility{eligible: false, reason: "must wait 24 months"})

	d, err := engine.CanSubmit(context.Background(), submission(entitlement.ClaimMobileHandset, "25000", "30000"))

	require.NoError(t, err)
	assert.False(t, d.Admit)
	assert.Equal(t, entitlement.RejectIneligible, d.Code)
	assert.Equal(t, "must wait 24 months", d.Reason)
}

func TestCanSubmit_Handset_BalanceGateBeforeEligibility(t *testing.T) {
	// Rule order: an exhausted balance rejects before the eligibility
	// delegate ever runs.
	engine := entitlement.NewEngine(stubEligibility{eligible: false, reason: "should not surface"})

	d, err := engine.CanSubmit(context.Background(), submission(entitlement.ClaimMobileHandset, "1000", "0"))

	require.NoError(t, err)
	assert.Equal(t, entitlement.RejectBalanceExhausted, d.Code)
	assert.Equal(t, "balance exhausted", d.Reason)
}

// =============================================================================
// TRAVEL
// =============================================================================

func TestCanSubmit_Travel_NoBalanceGate_Admitted(t *testing.T) {
	// Travel claims are allowance-based, not balance-bounded: a zero
	// balance does not block them.
	engine := entitlement.NewEngine(nil)

	d, err := engine.CanSubmit(context.Background(), submission(entitlement.ClaimTravel, "9000", "0"))

	require.NoError(t, err)
	assert.True(t, d.Admit)
}

// =============================================================================
// UNKNOWN TYPE
// =============================================================================

func TestCanSubmit_UnknownType_Error(t *testing.T) {
	engine := entitlement.NewEngine(nil)

	_, err := engine.CanSubmit(context.Background(), submission("dental", "100", "100"))

	assert.ErrorIs(t, err, entitlement.ErrUnknownClaimType)
}

// =============================================================================
// CLAIM GAP ELIGIBILITY (waiting period)
// =============================================================================

func TestClaimGapEligibility_FirstClaim_Eligible(t *testing.T) {
	store := memory.NewEntitlement()
	ctx := context.Background()
	require.NoError(t, store.SavePolicy(ctx, handsetPolicy(24)))

	gap := entitlement.NewClaimGapEligibility(entitlement.NewLookup(store), store)

	elig, err := gap.IsNewClaimPossible(ctx, officer("emp-1"), entitlement.MustParseMoney("20000"))

	require.NoError(t, err)
	assert.True(t, elig.Eligible)
}

func TestClaimGapEligibility_WithinWaitingPeriod_Ineligible(t *testing.T) {
	// GIVEN: A handset claim 12 months ago under a 24-month policy
	// WHEN: Checking eligibility today
	// THEN: Ineligible with the waiting period named

	store := memory.NewEntitlement()
	ctx := context.Background()
	require.NoError(t, store.SavePolicy(ctx, handsetPolicy(24)))

	now := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	lastClaim := approvedClaim("c-h", "emp-1", entitlement.ClaimMobileHandset, "20000", now.AddDate(0, -12, 0))
	require.NoError(t, store.CreateClaim(ctx, lastClaim))

	gap := entitlement.NewClaimGapEligibility(entitlement.NewLookup(store), store)
	gap.Now = func() time.Time { return now }

	elig, err := gap.IsNewClaimPossible(ctx, officer("emp-1"), entitlement.MustParseMoney("20000"))

	require.NoError(t, err)
	assert.False(t, elig.Eligible)
	assert.Equal(t, "must wait 24 months", elig.Reason)
}

func TestClaimGapEligibility_AfterWaitingPeriod_Eligible(t *testing.T) {
	store := memory.NewEntitlement()
	ctx := context.Background()
	require.NoError(t, store.SavePolicy(ctx, handsetPolicy(24)))

	now := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	oldClaim := approvedClaim("c-h", "emp-1", entitlement.ClaimMobileHandset, "20000", now.AddDate(0, -25, 0))
	require.NoError(t, store.CreateClaim(ctx, oldClaim))

	gap := entitlement.NewClaimGapEligibility(entitlement.NewLookup(store), store)
	gap.Now = func() time.Time { return now }

	elig, err := gap.IsNewClaimPossible(ctx, officer("emp-1"), entitlement.MustParseMoney("20000"))

	require.NoError(t, err)
	assert.True(t, elig.Eligible)
}

func TestClaimGapEligibility_NoPolicy_IneligibleNotError(t *testing.T) {
	store := memory.NewEntitlement()
	gap := entitlement.NewClaimGapEligibility(entitlement.NewLookup(store), store)

	elig, err := gap.IsNewClaimPossible(context.Background(), officer("emp-1"), entitlement.MustParseMoney("20000"))

	require.NoError(t, err)
	assert.False(t, elig.Eligible)
	assert.Equal(t, "no handset policy configured", elig.Reason)
}

func handsetPolicy(minMonths int) entitlement.Policy {
	return entitlement.Policy{
		ID:                     "pol-handset",
		DesignationID:          "officer",
		Kind:                   entitlement.ClaimMobileHandset,
		FixedAmount:            entitlement.MustParseMoney("30000"),
		AmountType:             entitlement.AmountFixed,
		MinMonthsBetweenClaims: minMonths,
	}
}
