/*
policy.go - Entitlement policy model and lookup

PURPOSE:
  A Policy is an administrator-configured rule mapping a designation
  (and sometimes claim kind or travel city) to an entitlement formula.
  Lookup resolves the applicable policy for a claim; it is a pure read
  with no side effects.

KEY SHAPES:
  Medicine/Hospital: keyed by (designation, kind)
  Mobile Handset:    keyed by (designation, isSales) - sales roles may
                     carry a distinct handset allowance
  Travel:            keyed by (designation, city), falling back to a
                     configured "Others" city when the exact city has
                     no row

MISS BEHAVIOR:
  A miss surfaces a typed PolicyNotFoundError rather than silently
  defaulting to zero, so callers can warn "no policy configured"
  distinctly from "entitlement exhausted".

SEE ALSO:
  - balance.go: Consumes resolved policies
  - factory/policy.go: Parses persisted JSON policy configs
*/
package entitlement

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// POLICY
// =============================================================================

// AmountType determines where a policy's base amount comes from.
type AmountType string

const (
	AmountFixed       AmountType = "fixed"
	AmountBasicSalary AmountType = "basic_salary"
	AmountGrossSalary AmountType = "gross_salary"
)

// Relation enumerates who a claim may be filed for.
type Relation string

const (
	RelationSelf     Relation = "self"
	RelationSpouse   Relation = "spouse"
	RelationChildren Relation = "children"
)

// OthersCity is the travel-policy fallback key for cities without an
// explicit row.
const OthersCity = "Others"

// Policy is an entitlement rule. Read-only to the claim flow; created
// and edited only through the administrative policy endpoints.
type Policy struct {
	ID            PolicyID
	Name          string
	DesignationID DesignationID
	Kind          ClaimType

	// Entitlement formula
	FixedAmount          Money
	AmountType           AmountType
	SalaryPercent        decimal.Decimal // used when AmountType is a salary type
	UseWhicheverIsHigher bool
	ApplicableTo         []Relation
	AccumulableYears     int // years of unused entitlement that roll forward; 0 = this fiscal year only

	// Travel only
	City                string
	DailyAllowance      Money
	AccommodationAmount Money

	// Mobile handset only
	IsSales                bool
	MinMonthsBetweenClaims int
}

// AppliesTo reports whether the policy covers claims for the given
// relation. An empty ApplicableTo set means self only.
func (p Policy) AppliesTo(rel Relation) bool {
	if len(p.ApplicableTo) == 0 {
		return rel == RelationSelf
	}
	for _, r := range p.ApplicableTo {
		if r == rel {
			return true
		}
	}
	return false
}

// =============================================================================
// POLICY STORE
// =============================================================================

// PolicyStore reads policy rows by their key shape. Implementations
// return (nil, nil) on a miss; Lookup converts that to a typed error.
type PolicyStore interface {
	MedicalPolicy(ctx context.Context, designationID DesignationID, kind ClaimType) (*Policy, error)
	HandsetPolicy(ctx context.Context, designationID DesignationID, isSales bool) (*Policy, error)
	TravelPolicy(ctx context.Context, designationID DesignationID, city string) (*Policy, error)
	SavePolicy(ctx context.Context, policy Policy) error
	ListPolicies(ctx context.Context) ([]Policy, error)
}

// =============================================================================
// LOOKUP
// =============================================================================

// Lookup resolves the applicable policy for a claim. Pure read.
type Lookup struct {
	Policies PolicyStore
}

func NewLookup(policies PolicyStore) *Lookup {
	return &Lookup{Policies: policies}
}

// ResolveMedical resolves the medicine or hospital policy for a
// designation. kind must be ClaimMedicine or ClaimHospital.
func (l *Lookup) ResolveMedical(ctx context.Context, designationID DesignationID, kind ClaimType) (*Policy, error) {
	if !kind.EntitlementBounded() {
		return nil, &PolicyNotFoundError{DesignationID: designationID, Kind: kind}
	}
	p, err := l.Policies.MedicalPolicy(ctx, designationID, kind)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &PolicyNotFoundError{DesignationID: designationID, Kind: kind}
	}
	return p, nil
}

// ResolveHandset resolves the mobile handset policy for a designation.
// Sales roles may carry a distinct allowance, so isSales is part of
// the key; a sales-specific miss falls back to the non-sales row.
func (l *Lookup) ResolveHandset(ctx context.Context, designationID DesignationID, isSales bool) (*Policy, error) {
	p, err := l.Policies.HandsetPolicy(ctx, designationID, isSales)
	if err != nil {
		return nil, err
	}
	if p == nil && isSales {
		p, err = l.Policies.HandsetPolicy(ctx, designationID, false)
		if err != nil {
			return nil, err
		}
	}
	if p == nil {
		return nil, &PolicyNotFoundError{DesignationID: designationID, Kind: ClaimMobileHandset}
	}
	return p, nil
}

// ResolveTravel resolves the travel policy for a designation and city.
// An unmatched city falls back to the "Others" policy if one is
// configured; otherwise the miss surfaces as PolicyNotFoundError.
func (l *Lookup) ResolveTravel(ctx context.Context, designationID DesignationID, city string) (*Policy, error) {
	p, err := l.Policies.TravelPolicy(ctx, designationID, city)
	if err != nil {
		return nil, err
	}
	if p == nil && !strings.EqualFold(city, OthersCity) {
		p, err = l.Policies.TravelPolicy(ctx, designationID, OthersCity)
		if err != nil {
			return nil, err
		}
	}
	if p == nil {
		return nil, &PolicyNotFoundError{DesignationID: designationID, Kind: ClaimTravel, City: city}
	}
	return p, nil
}

// ResolveForClaim dispatches on claim type. For travel, city selects
// the row; for handset, the employee's role selects it.
func (l *Lookup) ResolveForClaim(ctx context.Context, emp Employee, claimType ClaimType, city string) (*Policy, error) {
	switch claimType {
	case ClaimMedicine, ClaimHospital:
		return l.ResolveMedical(ctx, emp.DesignationID, claimType)
	case ClaimMobileHandset:
		return l.ResolveHandset(ctx, emp.DesignationID, emp.IsSalesRole)
	case ClaimTravel:
		return l.ResolveTravel(ctx, emp.DesignationID, city)
	default:
		return nil, ErrUnknownClaimType
	}
}
