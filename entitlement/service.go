/*
service.go - Claim intake orchestration

PURPOSE:
  Runs the full claim flow: recompute the balance against current
  persisted state, evaluate admissibility, and on admit persist the
  claim with its balance snapshots. The same staleness discipline
  applies to the administrative edit path: the balance is recomputed
  with the edited claim excluded from its own window usage.

ORDERING GUARANTEE:
  Balance is resolved immediately before the admissibility check, and
  the two happen in the same request. A balance value rendered earlier
  in the user's session never reaches this code.
*/
package entitlement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SUBMISSION RESULT
// =============================================================================

// SubmitResult reports the outcome of a claim submission. Rejections
// are carried in Decision; the claim is only populated on admit.
type SubmitResult struct {
	Decision Decision
	Balance  BalanceResult
	Claim    *Claim
}

// =============================================================================
// CLAIM SERVICE
// =============================================================================

// ClaimService orchestrates claim intake.
type ClaimService struct {
	Employees EmployeeStore
	Claims    ClaimStore
	Balance   *BalanceCalculator
	Engine    *Engine
}

func NewClaimService(employees EmployeeStore, claims ClaimStore, balance *BalanceCalculator, engine *Engine) *ClaimService {
	return &ClaimService{Employees: employees, Claims: claims, Balance: balance, Engine: engine}
}

// ClaimRequest is a proposed claim from the intake form.
type ClaimRequest struct {
	EmployeeID EmployeeID
	Type       ClaimType
	Amount     Money
	ClaimDate  time.Time
	AppliedFor string
	Notes      string
}

// SubmitClaim recomputes balance, evaluates admissibility, and on
// admit persists the claim. A rejection is a normal outcome: the
// result's Decision carries the reason and no claim is written.
func (s *ClaimService) SubmitClaim(ctx context.Context, req ClaimRequest) (*SubmitResult, error) {
	emp, err := s.Employees.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, ErrEmployeeNotFound
	}

	asOf := req.ClaimDate
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	balance, err := s.Balance.ComputeBalance(ctx, *emp, req.Type, asOf)
	if err != nil {
		return nil, err
	}

	decision, err := s.Engine.CanSubmit(ctx, Submission{
		Employee: *emp,
		Type:     req.Type,
		Amount:   req.Amount,
		Balance:  balance.Balance,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Admit {
		return &SubmitResult{Decision: decision, Balance: balance}, nil
	}

	claim := Claim{
		ID:               ClaimID(uuid.NewString()),
		EmployeeID:       emp.ID,
		Type:             req.Type,
		ClaimDate:        asOf,
		Amount:           req.Amount,
		BalanceAtClaim:   balance.Balance,
		PostClaimBalance: balance.Balance.Sub(req.Amount),
		AppliedFor:       req.AppliedFor,
		Approved:         true,
		Notes:            req.Notes,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.Claims.CreateClaim(ctx, claim); err != nil {
		return nil, err
	}

	return &SubmitResult{Decision: decision, Balance: balance, Claim: &claim}, nil
}

// EditClaim replaces an approved claim's amount through the
// administrative correction path. The balance is recomputed fresh;
// the edited claim's own prior amount is added back before the check
// so the claim only competes with the rest of the window.
func (s *ClaimService) EditClaim(ctx context.Context, existing Claim, newAmount Money, notes string) (*SubmitResult, error) {
	emp, err := s.Employees.GetEmployee(ctx, existing.EmployeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, ErrEmployeeNotFound
	}

	balance, err := s.Balance.ComputeBalance(ctx, *emp, existing.Type, existing.ClaimDate)
	if err != nil {
		return nil, err
	}

	// Window usage includes the claim being edited; back it out.
	effective := balance.Balance
	if balance.Window.Contains(existing.ClaimDate) {
		effective = effective.Add(existing.Amount)
	}

	decision, err := s.Engine.CanSubmit(ctx, Submission{
		Employee: *emp,
		Type:     existing.Type,
		Amount:   newAmount,
		Balance:  effective,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Admit {
		return &SubmitResult{Decision: decision, Balance: balance}, nil
	}

	updated := existing
	updated.Amount = newAmount
	updated.BalanceAtClaim = effective
	updated.PostClaimBalance = effective.Sub(newAmount)
	if notes != "" {
		updated.Notes = notes
	}
	if err := s.Claims.UpdateClaim(ctx, updated); err != nil {
		return nil, err
	}

	return &SubmitResult{Decision: decision, Balance: balance, Claim: &updated}, nil
}
