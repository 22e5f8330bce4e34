/*
Package factory provides JSON to Go policy conversion.

PURPOSE:
  Converts JSON policy definitions into entitlement.Policy values.
  Administrators define entitlement rules as JSON (through the policy
  endpoints or seed files); the factory validates the structure, sets
  defaults, and produces the typed policy the claim flow reads.

JSON SCHEMA:
  {
    "id": "med-officer",
    "name": "Officer Medical",
    "designation_id": "officer",
    "kind": "medicine",
    "fixed_amount": "5000",
    "amount_type": "fixed",
    "salary_percent": 0,
    "use_whichever_is_higher": false,
    "applicable_to": ["self", "spouse", "children"],
    "accumulable_years": 0,
    "city": "",
    "daily_allowance": "0",
    "accommodation_amount": "0",
    "is_sales": false,
    "min_months_between_claims": 0
  }

SEE ALSO:
  - entitlement/policy.go: Policy type definition
  - store/sqlite: Persists policies as key columns + this JSON config
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hrops/backoffice-core/entitlement"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of an entitlement policy.
// Monetary fields are strings to keep decimal precision through JSON.
type PolicyJSON struct {
	ID                     string   `json:"id"`
	Name                   string   `json:"name"`
	DesignationID          string   `json:"designation_id"`
	Kind                   string   `json:"kind"`
	FixedAmount            string   `json:"fixed_amount,omitempty"`
	AmountType             string   `json:"amount_type,omitempty"`
	SalaryPercent          float64  `json:"salary_percent,omitempty"`
	UseWhicheverIsHigher   bool     `json:"use_whichever_is_higher,omitempty"`
	ApplicableTo           []string `json:"applicable_to,omitempty"`
	AccumulableYears       int      `json:"accumulable_years,omitempty"`
	City                   string   `json:"city,omitempty"`
	DailyAllowance         string   `json:"daily_allowance,omitempty"`
	AccommodationAmount    string   `json:"accommodation_amount,omitempty"`
	IsSales                bool     `json:"is_sales,omitempty"`
	MinMonthsBetweenClaims int      `json:"min_months_between_claims,omitempty"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

type PolicyFactory struct{}

func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{}
}

// ParsePolicy converts a JSON config into a typed policy.
func (f *PolicyFactory) ParsePolicy(configJSON string) (*entitlement.Policy, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(configJSON), &pj); err != nil {
		return nil, fmt.Errorf("invalid policy JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// FromJSON validates a decoded config and builds the policy.
func (f *PolicyFactory) FromJSON(pj PolicyJSON) (*entitlement.Policy, error) {
	if pj.ID == "" {
		return nil, fmt.Errorf("policy id is required")
	}
	if pj.DesignationID == "" {
		return nil, fmt.Errorf("policy %s: designation_id is required", pj.ID)
	}

	kind := entitlement.ClaimType(pj.Kind)
	if !kind.Known() {
		return nil, fmt.Errorf("policy %s: unknown kind %q", pj.ID, pj.Kind)
	}
	if kind == entitlement.ClaimTravel && pj.City == "" {
		return nil, fmt.Errorf("policy %s: travel policy requires a city", pj.ID)
	}

	amountType := entitlement.AmountType(pj.AmountType)
	switch amountType {
	case "", entitlement.AmountFixed:
		amountType = entitlement.AmountFixed
	case entitlement.AmountBasicSalary, entitlement.AmountGrossSalary:
	default:
		return nil, fmt.Errorf("policy %s: unknown amount_type %q", pj.ID, pj.AmountType)
	}

	relations := make([]entitlement.Relation, 0, len(pj.ApplicableTo))
	for _, r := range pj.ApplicableTo {
		switch rel := entitlement.Relation(r); rel {
		case entitlement.RelationSelf, entitlement.RelationSpouse, entitlement.RelationChildren:
			relations = append(relations, rel)
		default:
			return nil, fmt.Errorf("policy %s: unknown relation %q", pj.ID, r)
		}
	}

	return &entitlement.Policy{
		ID:                     entitlement.PolicyID(pj.ID),
		Name:                   pj.Name,
		DesignationID:          entitlement.DesignationID(pj.DesignationID),
		Kind:                   kind,
		FixedAmount:            parseMoney(pj.FixedAmount),
		AmountType:             amountType,
		SalaryPercent:          decimal.NewFromFloat(pj.SalaryPercent),
		UseWhicheverIsHigher:   pj.UseWhicheverIsHigher,
		ApplicableTo:           relations,
		AccumulableYears:       pj.AccumulableYears,
		City:                   pj.City,
		DailyAllowance:         parseMoney(pj.DailyAllowance),
		AccommodationAmount:    parseMoney(pj.AccommodationAmount),
		IsSales:                pj.IsSales,
		MinMonthsBetweenClaims: pj.MinMonthsBetweenClaims,
	}, nil
}

// ToJSON serializes a policy back to its JSON config for storage.
func (f *PolicyFactory) ToJSON(p entitlement.Policy) (string, error) {
	relations := make([]string, len(p.ApplicableTo))
	for i, r := range p.ApplicableTo {
		relations[i] = string(r)
	}
	percent, _ := p.SalaryPercent.Float64()
	pj := PolicyJSON{
		ID:                     string(p.ID),
		Name:                   p.Name,
		DesignationID:          string(p.DesignationID),
		Kind:                   string(p.Kind),
		FixedAmount:            p.FixedAmount.Value.String(),
		AmountType:             string(p.AmountType),
		SalaryPercent:          percent,
		UseWhicheverIsHigher:   p.UseWhicheverIsHigher,
		ApplicableTo:           relations,
		AccumulableYears:       p.AccumulableYears,
		City:                   p.City,
		DailyAllowance:         p.DailyAllowance.Value.String(),
		AccommodationAmount:    p.AccommodationAmount.Value.String(),
		IsSales:                p.IsSales,
		MinMonthsBetweenClaims: p.MinMonthsBetweenClaims,
	}
	out, err := json.Marshal(pj)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func parseMoney(s string) entitlement.Money {
	if s == "" {
		return entitlement.ZeroMoney()
	}
	return entitlement.MustParseMoney(s)
}
