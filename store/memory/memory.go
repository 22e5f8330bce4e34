// Package memory provides in-memory store implementations for tests
// and development. Semantics mirror store/sqlite, including the
// conditional sorted flip and snapshot-based transaction rollback.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hrops/backoffice-core/entitlement"
)

// =============================================================================
// ENTITLEMENT STORE - employees, policies, claims
// =============================================================================

type Entitlement struct {
	mu        sync.RWMutex
	employees map[entitlement.EmployeeID]entitlement.Employee
	policies  []entitlement.Policy
	claims    map[entitlement.EmployeeID][]entitlement.Claim
}

func NewEntitlement() *Entitlement {
	return &Entitlement{
		employees: make(map[entitlement.EmployeeID]entitlement.Employee),
		claims:    make(map[entitlement.EmployeeID][]entitlement.Claim),
	}
}

var (
	_ entitlement.EmployeeStore = (*Entitlement)(nil)
	_ entitlement.PolicyStore   = (*Entitlement)(nil)
	_ entitlement.ClaimStore    = (*Entitlement)(nil)
)

// --- EmployeeStore ---

func (m *Entitlement) GetEmployee(_ context.Context, id entitlement.EmployeeID) (*entitlement.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	return &emp, nil
}

func (m *Entitlement) SaveEmployee(_ context.Context, emp entitlement.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
	return nil
}

func (m *Entitlement) ListEmployees(_ context.Context) ([]entitlement.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]entitlement.Employee, 0, len(m.employees))
	for _, emp := range m.employees {
		result = append(result, emp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// --- PolicyStore ---

func (m *Entitlement) SavePolicy(_ context.Context, policy entitlement.Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.policies {
		if p.ID == policy.ID {
			m.policies[i] = policy
			return nil
		}
	}
	m.policies = append(m.policies, policy)
	return nil
}

func (m *Entitlement) ListPolicies(_ context.Context) ([]entitlement.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]entitlement.Policy{}, m.policies...), nil
}

func (m *Entitlement) MedicalPolicy(_ context.Context, designationID entitlement.DesignationID, kind entitlement.ClaimType) (*entitlement.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.policies {
		if p.DesignationID == designationID && p.Kind == kind {
			policy := p
			return &policy, nil
		}
	}
	return nil, nil
}

func (m *Entitlement) HandsetPolicy(_ context.Context, designationID entitlement.DesignationID, isSales bool) (*entitlement.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.policies {
		if p.DesignationID == designationID && p.Kind == entitlement.ClaimMobileHandset && p.IsSales == isSales {
			policy := p
			return &policy, nil
		}
	}
	return nil, nil
}

func (m *Entitlement) TravelPolicy(_ context.Context, designationID entitlement.DesignationID, city string) (*entitlement.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.policies {
		if p.DesignationID == designationID && p.Kind == entitlement.ClaimTravel && strings.EqualFold(p.City, city) {
			policy := p
			return &policy, nil
		}
	}
	return nil, nil
}

// --- ClaimStore ---

func (m *Entitlement) ClaimsInWindow(_ context.Context, employeeID entitlement.EmployeeID, claimType entitlement.ClaimType, from, to time.Time) ([]entitlement.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []entitlement.Claim
	for _, c := range m.claims[employeeID] {
		if c.Type != claimType {
			continue
		}
		if c.ClaimDate.Before(from) || c.ClaimDate.After(to) {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClaimDate.Before(result[j].ClaimDate) })
	return result, nil
}

func (m *Entitlement) LastClaim(_ context.Context, employeeID entitlement.EmployeeID, claimType entitlement.ClaimType) (*entitlement.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var last *entitlement.Claim
	for i := range m.claims[employeeID] {
		c := m.claims[employeeID][i]
		if c.Type != claimType {
			continue
		}
		if last == nil || c.ClaimDate.After(last.ClaimDate) {
			claim := c
			last = &claim
		}
	}
	return last, nil
}

func (m *Entitlement) CreateClaim(_ context.Context, claim entitlement.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims[claim.EmployeeID] = append(m.claims[claim.EmployeeID], claim)
	return nil
}

func (m *Entitlement) UpdateClaim(_ context.Context, claim entitlement.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.claims[claim.EmployeeID] {
		if c.ID == claim.ID {
			m.claims[claim.EmployeeID][i] = claim
			return nil
		}
	}
	return entitlement.ErrClaimNotFound
}

// GetClaim returns a claim by ID, or nil. Used by the edit path.
func (m *Entitlement) GetClaim(_ context.Context, id entitlement.ClaimID) (*entitlement.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, claims := range m.claims {
		for _, c := range claims {
			if c.ID == id {
				claim := c
				return &claim, nil
			}
		}
	}
	return nil, nil
}
