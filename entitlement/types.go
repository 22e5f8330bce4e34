/*
Package entitlement implements the claim entitlement core: policy
lookup, balance calculation, and claim admissibility.

PURPOSE:
  This package answers two questions for the claim intake flow:
  "how much of this employee's entitlement is left?" and "may this
  claim be submitted against it?". Balance is always recomputed from
  persisted claims at decision time - there is no cached balance field
  anywhere that can go stale between rendering a form and committing it.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A currency amount backed by decimal.Decimal
  - ClaimType: Medicine, Hospital, MobileHandset, Travel
  - Employee: The minimal record the core needs (designation + salary)
  - Claim: A submitted reimbursement claim with its balance snapshot

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all currency math, never float64
  2. Freshness: balance snapshots on Claim are audit data, not inputs
  3. Type Safety: distinct ID types for employees and designations

SEE ALSO:
  - policy.go: Policy model and lookup rules
  - balance.go: Balance calculation from prior claims
  - admissibility.go: Ordered admit/reject rules
*/
package entitlement

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amount backed by decimal
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroMoney()
	}
	return Money{Value: d}
}

func (m Money) Add(b Money) Money              { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money              { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) Mul(s decimal.Decimal) Money    { return Money{Value: m.Value.Mul(s)} }
func (m Money) MulInt(n int) Money             { return Money{Value: m.Value.Mul(decimal.NewFromInt(int64(n)))} }
func (m Money) Neg() Money                     { return Money{Value: m.Value.Neg()} }
func (m Money) IsNegative() bool               { return m.Value.IsNegative() }
func (m Money) IsZero() bool                   { return m.Value.IsZero() }
func (m Money) IsPositive() bool               { return m.Value.IsPositive() }
func (m Money) GreaterThan(b Money) bool       { return m.Value.GreaterThan(b.Value) }
func (m Money) LessThan(b Money) bool          { return m.Value.LessThan(b.Value) }
func (m Money) GreaterOrEqual(b Money) bool    { return m.Value.GreaterThanOrEqual(b.Value) }
func (m Money) Max(b Money) Money              { if m.GreaterThan(b) { return m }; return b }
func (m Money) ClampNonNegative() Money        { if m.IsNegative() { return ZeroMoney() }; return m }
func (m Money) Equal(b Money) bool             { return m.Value.Equal(b.Value) }
func (m Money) String() string                 { return m.Value.StringFixed(2) }

// Percent applies a percentage: m.Percent(25) is a quarter of m.
func (m Money) Percent(pct decimal.Decimal) Money {
	return Money{Value: m.Value.Mul(pct).Div(decimal.NewFromInt(100))}
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type DesignationID string
type PolicyID string
type ClaimID string

// =============================================================================
// CLAIM TYPE
// =============================================================================

type ClaimType string

const (
	ClaimMedicine      ClaimType = "medicine"
	ClaimHospital      ClaimType = "hospital"
	ClaimMobileHandset ClaimType = "mobile_handset"
	ClaimTravel        ClaimType = "travel"
)

// EntitlementBounded reports whether the type is gated by a recurring
// monetary entitlement (medicine/hospital). Handset is allowance-gated
// via an eligibility predicate; travel has no balance gate at all.
func (t ClaimType) EntitlementBounded() bool {
	return t == ClaimMedicine || t == ClaimHospital
}

// Known reports whether the type is one the engine recognizes.
// An unknown type is a configuration error, not a rejection.
func (t ClaimType) Known() bool {
	switch t {
	case ClaimMedicine, ClaimHospital, ClaimMobileHandset, ClaimTravel:
		return true
	}
	return false
}

// =============================================================================
// EMPLOYEE - Minimal record consumed from the HR master data collaborator
// =============================================================================

type Employee struct {
	ID            EmployeeID
	Name          string
	DesignationID DesignationID
	DepartmentID  string
	BasicSalary   Money
	GrossSalary   Money
	IsSalesRole   bool
	JoinDate      time.Time
}

// SalaryFor returns the salary field a policy's AmountType refers to.
func (e Employee) SalaryFor(at AmountType) Money {
	switch at {
	case AmountGrossSalary:
		return e.GrossSalary
	default:
		return e.BasicSalary
	}
}

// =============================================================================
// CLAIM - A reimbursement claim with its balance snapshot
// =============================================================================

// Claim records a submitted claim. BalanceAtClaim and PostClaimBalance
// are snapshots for the audit trail; the admissibility flow never reads
// them back as authoritative balance.
type Claim struct {
	ID               ClaimID
	EmployeeID       EmployeeID
	Type             ClaimType
	ClaimDate        time.Time
	Amount           Money
	BalanceAtClaim   Money
	PostClaimBalance Money
	AppliedFor       string // self, spouse, children
	Approved         bool
	Notes            string
	CreatedAt        time.Time
}

// =============================================================================
// STORE INTERFACES - Implemented by store/memory and store/sqlite
// =============================================================================

// ClaimStore reads and writes claims. Balance calculation issues a
// fresh window query on every call.
type ClaimStore interface {
	// ClaimsInWindow returns an employee's claims of the given type with
	// ClaimDate in [from, to], ordered chronologically.
	ClaimsInWindow(ctx context.Context, employeeID EmployeeID, claimType ClaimType, from, to time.Time) ([]Claim, error)

	// LastClaim returns the employee's most recent claim of the given
	// type, or nil if none exists.
	LastClaim(ctx context.Context, employeeID EmployeeID, claimType ClaimType) (*Claim, error)

	// GetClaim returns a claim by ID, or nil if not found.
	GetClaim(ctx context.Context, id ClaimID) (*Claim, error)

	// CreateClaim persists a new claim.
	CreateClaim(ctx context.Context, claim Claim) error

	// UpdateClaim replaces a claim by ID (administrative correction).
	UpdateClaim(ctx context.Context, claim Claim) error
}

// EmployeeStore reads employee records.
type EmployeeStore interface {
	// GetEmployee returns the employee, or nil if not found.
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)
	SaveEmployee(ctx context.Context, emp Employee) error
	ListEmployees(ctx context.Context) ([]Employee, error)
}
