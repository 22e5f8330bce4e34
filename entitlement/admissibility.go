/*
admissibility.go - Claim admissibility decision procedure

PURPOSE:
  Given a proposed claim and a freshly computed balance, decide
  admit/reject with a human-readable reason. Rejections are outcomes
  the caller branches on to keep the form open, never errors.

DESIGN:
  The rules live in an explicit ordered list of guard+check pairs,
  evaluated in sequence with the first failing rule winning. The order
  determines which user-facing message surfaces and must not change.
  Each rule carries a type guard: travel bypasses every balance gate,
  and medicine/hospital reject over-balance claims with "exceeds
  available balance" rather than the handset-path wording.

RULE ORDER:
  1. balance exhausted       (medicine/hospital/handset, balance <= 0)
  2. exceeds entitlement     (medicine/hospital, balance < amount)
  3. would go negative       (handset, balance - amount < 0)
  4. handset eligibility     (delegate to IsNewClaimPossible)
  5. travel                  (admit unconditionally)

  The procedure is total over the four claim types; an unrecognized
  type is a configuration error, not a silent admit.
*/
package entitlement

import "context"

// =============================================================================
// DECISION
// =============================================================================

// RejectCode tags the rule that rejected a claim so tests and callers
// can branch without parsing the reason text.
type RejectCode string

const (
	RejectBalanceExhausted   RejectCode = "balance_exhausted"
	RejectWouldGoNegative    RejectCode = "balance_would_go_negative"
	RejectExceedsEntitlement RejectCode = "entitlement_exceeded"
	RejectIneligible         RejectCode = "ineligible_for_allowance"
)

// Decision is the outcome of the admissibility procedure.
type Decision struct {
	Admit  bool
	Code   RejectCode // empty on admit
	Reason string     // empty on admit
}

func admit() Decision { return Decision{Admit: true} }

func reject(code RejectCode, reason string) Decision {
	return Decision{Admit: false, Code: code, Reason: reason}
}

// =============================================================================
// HANDSET ELIGIBILITY PREDICATE
// =============================================================================

// Eligibility is the verdict of a handset eligibility check.
type Eligibility struct {
	Eligible bool
	Reason   string
}

// HandsetEligibility encodes handset-specific business rules (minimum
// elapsed time since the last handset claim, accumulated-years
// rollover). The engine delegates mobile handset claims to it.
type HandsetEligibility interface {
	IsNewClaimPossible(ctx context.Context, emp Employee, amount Money) (Eligibility, error)
}

// =============================================================================
// SUBMISSION INPUT
// =============================================================================

// Submission is a proposed claim plus the balance computed for it
// immediately beforehand.
type Submission struct {
	Employee Employee
	Type     ClaimType
	Amount   Money
	Balance  Money
}

// =============================================================================
// ENGINE
// =============================================================================

// fallbackIneligibleReason is used when the eligibility predicate
// rejects without supplying a reason.
const fallbackIneligibleReason = "not eligible for a new handset claim"

// rule is one entry in the ordered rule list. applies gates the rule
// by claim type; check returns a non-nil Decision to short-circuit.
type rule struct {
	name    string
	applies func(ClaimType) bool
	check   func(ctx context.Context, e *Engine, s Submission) (*Decision, error)
}

// Engine evaluates the ordered admissibility rules.
type Engine struct {
	Handset HandsetEligibility
	rules   []rule
}

func NewEngine(handset HandsetEligibility) *Engine {
	e := &Engine{Handset: handset}
	e.rules = orderedRules()
	return e
}

// CanSubmit runs the rules in order and returns the first decision.
// Every known claim type resolves to exactly one branch; an unknown
// type returns ErrUnknownClaimType.
func (e *Engine) CanSubmit(ctx context.Context, s Submission) (Decision, error) {
	if !s.Type.Known() {
		return Decision{}, ErrUnknownClaimType
	}

	for _, r := range e.rules {
		if !r.applies(s.Type) {
			continue
		}
		d, err := r.check(ctx, e, s)
		if err != nil {
			return Decision{}, err
		}
		if d != nil {
			return *d, nil
		}
	}

	// Travel and any future balance-free type fall through to here.
	return admit(), nil
}

// orderedRules builds the rule list. The order is load-bearing: it
// decides which rejection message the user sees.
func orderedRules() []rule {
	balanceGated := func(t ClaimType) bool {
		return t.EntitlementBounded() || t == ClaimMobileHandset
	}
	bounded := func(t ClaimType) bool { return t.EntitlementBounded() }
	handset := func(t ClaimType) bool { return t == ClaimMobileHandset }

	return []rule{
		{
			name:    "balance_exhausted",
			applies: balanceGated,
			check: func(_ context.Context, _ *Engine, s Submission) (*Decision, error) {
				if !s.Balance.IsPositive() {
					d := reject(RejectBalanceExhausted, "balance exhausted")
					return &d, nil
				}
				return nil, nil
			},
		},
		{
			name:    "exceeds_entitlement",
			applies: bounded,
			check: func(_ context.Context, _ *Engine, s Submission) (*Decision, error) {
				if s.Balance.GreaterOrEqual(s.Amount) {
					d := admit()
					return &d, nil
				}
				d := reject(RejectExceedsEntitlement, "exceeds available balance")
				return &d, nil
			},
		},
		{
			name:    "would_go_negative",
			applies: handset,
			check: func(_ context.Context, _ *Engine, s Submission) (*Decision, error) {
				if s.Balance.Sub(s.Amount).IsNegative() {
					d := reject(RejectWouldGoNegative, "would make balance negative")
					return &d, nil
				}
				return nil, nil
			},
		},
		{
			name:    "handset_eligibility",
			applies: handset,
			check: func(ctx context.Context, e *Engine, s Submission) (*Decision, error) {
				if e.Handset == nil {
					d := admit()
					return &d, nil
				}
				elig, err := e.Handset.IsNewClaimPossible(ctx, s.Employee, s.Amount)
				if err != nil {
					return nil, err
				}
				if elig.Eligible {
					d := admit()
					return &d, nil
				}
				reason := elig.Reason
				if reason == "" {
					reason = fallbackIneligibleReason
				}
				d := reject(RejectIneligible, reason)
				return &d, nil
			},
		},
	}
}
