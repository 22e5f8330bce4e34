/*
balance.go - Entitlement balance calculation

PURPOSE:
  Computes how much of a recurring entitlement remains available to an
  employee. This is the central calculation behind the claim form's
  read-only "Balance" field.

KEY INSIGHT:
  The calculator is pure over its inputs: (employee, claim type, as-of
  date) plus whatever the stores currently hold. There is no cached
  balance anywhere. The claim flow calls ComputeBalance immediately
  before submission - a balance rendered earlier in the session is
  advisory only and is never trusted at commit time.

ALGORITHM:
  1. Resolve the policy (missing policy -> balance 0, reason "no policy")
  2. Base amount: FixedAmount, or SalaryPercent of basic/gross salary
  3. UseWhicheverIsHigher -> max(fixed, salary-derived)
  4. Entitlement = base x (AccumulableYears + 1); the accumulation
     window covers the current fiscal year plus that many prior years
  5. Balance = entitlement - sum of same-type claims in the window

EDGE CASES:
  - Negative salary-derived amount clamps to 0
  - AccumulableYears 0 means this fiscal year only
  - Recomputing twice with no intervening claim is identical

SEE ALSO:
  - period.go: The accumulation window
  - admissibility.go: Consumes BalanceResult
*/
package entitlement

import (
	"context"
	"errors"
	"time"
)

// =============================================================================
// BALANCE RESULT
// =============================================================================

// ReasonNoPolicy is set on a BalanceResult when no policy is
// configured, so the caller can warn distinctly from "exhausted".
const ReasonNoPolicy = "no policy"

// BalanceResult is the outcome of a balance computation.
type BalanceResult struct {
	// Balance is the remaining claimable amount. Never negative when
	// prior claims were admitted through the engine, but the field is
	// reported as computed either way.
	Balance Money

	// Entitlement is the full window entitlement before consumption.
	Entitlement Money

	// UsedThisPeriod is the sum of same-type claims inside the window.
	UsedThisPeriod Money

	// Window is the accumulation window the claims were counted in.
	Window Period

	// Reason is non-empty when Balance is 0 for a structural reason
	// (currently only "no policy").
	Reason string

	// Policy is the resolved policy, nil when Reason is "no policy".
	Policy *Policy
}

// =============================================================================
// BALANCE CALCULATOR
// =============================================================================

// BalanceCalculator computes remaining entitlement from the policy
// tables and the employee's prior claims. Stateless; safe to share.
type BalanceCalculator struct {
	Lookup   *Lookup
	Claims   ClaimStore
	Calendar FiscalCalendar
}

func NewBalanceCalculator(lookup *Lookup, claims ClaimStore) *BalanceCalculator {
	return &BalanceCalculator{Lookup: lookup, Claims: claims, Calendar: DefaultCalendar}
}

// ComputeBalance returns the remaining balance for (employee, claim
// type) as of the given date. A missing policy is not an error: the
// result carries balance 0 with reason "no policy". Only store
// failures and an unrecognized claim type return an error.
func (bc *BalanceCalculator) ComputeBalance(ctx context.Context, emp Employee, claimType ClaimType, asOf time.Time) (BalanceResult, error) {
	if !claimType.Known() {
		return BalanceResult{}, ErrUnknownClaimType
	}

	policy, err := bc.Lookup.ResolveForClaim(ctx, emp, claimType, "")
	if err != nil {
		if errors.Is(err, ErrPolicyNotFound) {
			return BalanceResult{
				Balance: ZeroMoney(),
				Reason:  ReasonNoPolicy,
				Window:  bc.Calendar.YearFor(asOf),
			}, nil
		}
		return BalanceResult{}, err
	}

	base := bc.baseAmount(emp, *policy)
	entitlement := base.MulInt(policy.AccumulableYears + 1)
	window := bc.Calendar.WindowFor(asOf, policy.AccumulableYears)

	claims, err := bc.Claims.ClaimsInWindow(ctx, emp.ID, claimType, window.Start, window.End)
	if err != nil {
		return BalanceResult{}, err
	}

	used := ZeroMoney()
	for _, c := range claims {
		used = used.Add(c.Amount)
	}

	return BalanceResult{
		Balance:        entitlement.Sub(used),
		Entitlement:    entitlement,
		UsedThisPeriod: used,
		Window:         window,
		Policy:         policy,
	}, nil
}

// baseAmount applies steps 2 and 3 of the algorithm: derive the base
// from salary when the policy says so, then take the higher of fixed
// and salary-derived when the flag is set.
func (bc *BalanceCalculator) baseAmount(emp Employee, policy Policy) Money {
	fixed := policy.FixedAmount.ClampNonNegative()
	if policy.AmountType == AmountFixed || policy.AmountType == "" {
		return fixed
	}

	derived := emp.SalaryFor(policy.AmountType).Percent(policy.SalaryPercent).ClampNonNegative()
	if policy.UseWhicheverIsHigher {
		return fixed.Max(derived)
	}
	return derived
}
