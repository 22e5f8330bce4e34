/*
handset.go - Mobile handset eligibility rules

PURPOSE:
  Mobile handset claims are allowance-gated rather than purely
  balance-gated: an employee must wait a minimum number of months
  between handset claims, configured on the handset policy (sales
  roles may carry their own row). This file is the default
  HandsetEligibility implementation the engine delegates to.
*/
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// defaultMinMonthsBetweenClaims applies when the policy doesn't
// configure a waiting period.
const defaultMinMonthsBetweenClaims = 24

// ClaimGapEligibility admits a new handset claim only when the
// configured waiting period since the last handset claim has elapsed.
type ClaimGapEligibility struct {
	Lookup *Lookup
	Claims ClaimStore

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewClaimGapEligibility(lookup *Lookup, claims ClaimStore) *ClaimGapEligibility {
	return &ClaimGapEligibility{Lookup: lookup, Claims: claims, Now: time.Now}
}

var _ HandsetEligibility = (*ClaimGapEligibility)(nil)

// IsNewClaimPossible checks the waiting period. A missing handset
// policy makes the employee ineligible with an explicit reason rather
// than an error, matching how the balance path reports "no policy".
func (g *ClaimGapEligibility) IsNewClaimPossible(ctx context.Context, emp Employee, amount Money) (Eligibility, error) {
	policy, err := g.Lookup.ResolveHandset(ctx, emp.DesignationID, emp.IsSalesRole)
	if err != nil {
		if errors.Is(err, ErrPolicyNotFound) {
			return Eligibility{Eligible: false, Reason: "no handset policy configured"}, nil
		}
		return Eligibility{}, err
	}

	minMonths := policy.MinMonthsBetweenClaims
	if minMonths <= 0 {
		minMonths = defaultMinMonthsBetweenClaims
	}

	last, err := g.Claims.LastClaim(ctx, emp.ID, ClaimMobileHandset)
	if err != nil {
		return Eligibility{}, err
	}
	if last == nil {
		return Eligibility{Eligible: true}, nil
	}

	now := time.Now()
	if g.Now != nil {
		now = g.Now()
	}
	eligibleFrom := last.ClaimDate.AddDate(0, minMonths, 0)
	if now.Before(eligibleFrom) {
		return Eligibility{
			Eligible: false,
			Reason:   fmt.Sprintf("must wait %d months", minMonths),
		}, nil
	}
	return Eligibility{Eligible: true}, nil
}
