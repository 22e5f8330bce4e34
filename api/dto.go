/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract. Monetary amounts
  and quantities travel as strings so decimal precision survives JSON.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/policy.go: PolicyJSON type
*/
package api

import (
	"github.com/hrops/backoffice-core/entitlement"
	"github.com/hrops/backoffice-core/factory"
	"github.com/hrops/backoffice-core/stock"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DesignationID string `json:"designation_id"`
	DepartmentID  string `json:"department_id,omitempty"`
	BasicSalary   string `json:"basic_salary"`
	GrossSalary   string `json:"gross_salary"`
	IsSalesRole   bool   `json:"is_sales_role"`
	JoinDate      string `json:"join_date,omitempty"`
}

type CreateEmployeeRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DesignationID string `json:"designation_id"`
	DepartmentID  string `json:"department_id"`
	BasicSalary   string `json:"basic_salary"`
	GrossSalary   string `json:"gross_salary"`
	IsSalesRole   bool   `json:"is_sales_role"`
	JoinDate      string `json:"join_date"` // YYYY-MM-DD
}

func toEmployeeDTO(emp entitlement.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:            string(emp.ID),
		Name:          emp.Name,
		DesignationID: string(emp.DesignationID),
		DepartmentID:  emp.DepartmentID,
		BasicSalary:   emp.BasicSalary.String(),
		GrossSalary:   emp.GrossSalary.String(),
		IsSalesRole:   emp.IsSalesRole,
	}
	if !emp.JoinDate.IsZero() {
		dto.JoinDate = emp.JoinDate.Format("2006-01-02")
	}
	return dto
}

// =============================================================================
// BALANCE
// =============================================================================

type BalanceDTO struct {
	EmployeeID     string `json:"employee_id"`
	ClaimType      string `json:"claim_type"`
	Balance        string `json:"balance"`
	Entitlement    string `json:"entitlement"`
	UsedThisPeriod string `json:"used_this_period"`
	WindowStart    string `json:"window_start"`
	WindowEnd      string `json:"window_end"`
	Reason         string `json:"reason,omitempty"`
}

func toBalanceDTO(employeeID entitlement.EmployeeID, claimType entitlement.ClaimType, r entitlement.BalanceResult) BalanceDTO {
	return BalanceDTO{
		EmployeeID:     string(employeeID),
		ClaimType:      string(claimType),
		Balance:        r.Balance.String(),
		Entitlement:    r.Entitlement.String(),
		UsedThisPeriod: r.UsedThisPeriod.String(),
		WindowStart:    r.Window.Start.Format("2006-01-02"),
		WindowEnd:      r.Window.End.Format("2006-01-02"),
		Reason:         r.Reason,
	}
}

// =============================================================================
// CLAIMS
// =============================================================================

type SubmitClaimRequest struct {
	Type       string `json:"type"`
	Amount     string `json:"amount"`
	ClaimDate  string `json:"claim_date,omitempty"` // YYYY-MM-DD, defaults to today
	AppliedFor string `json:"applied_for,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type EditClaimRequest struct {
	Amount string `json:"amount"`
	Notes  string `json:"notes,omitempty"`
}

type ClaimDTO struct {
	ID               string `json:"id"`
	EmployeeID       string `json:"employee_id"`
	Type             string `json:"type"`
	ClaimDate        string `json:"claim_date"`
	Amount           string `json:"amount"`
	BalanceAtClaim   string `json:"balance_at_claim"`
	PostClaimBalance string `json:"post_claim_balance"`
	AppliedFor       string `json:"applied_for,omitempty"`
	Approved         bool   `json:"approved"`
	Notes            string `json:"notes,omitempty"`
}

// ClaimOutcomeDTO is the submission response. Rejections come back
// with HTTP 200 and admitted=false: they are outcomes the form
// surfaces inline, not errors.
type ClaimOutcomeDTO struct {
	Admitted bool       `json:"admitted"`
	Code     string     `json:"code,omitempty"`
	Reason   string     `json:"reason,omitempty"`
	Balance  BalanceDTO `json:"balance"`
	Claim    *ClaimDTO  `json:"claim,omitempty"`
}

func toClaimDTO(c entitlement.Claim) ClaimDTO {
	return ClaimDTO{
		ID:               string(c.ID),
		EmployeeID:       string(c.EmployeeID),
		Type:             string(c.Type),
		ClaimDate:        c.ClaimDate.Format("2006-01-02"),
		Amount:           c.Amount.String(),
		BalanceAtClaim:   c.BalanceAtClaim.String(),
		PostClaimBalance: c.PostClaimBalance.String(),
		AppliedFor:       c.AppliedFor,
		Approved:         c.Approved,
		Notes:            c.Notes,
	}
}

// =============================================================================
// POLICIES
// =============================================================================

type CreatePolicyRequest struct {
	Config factory.PolicyJSON `json:"config"`
}

// =============================================================================
// STOCK
// =============================================================================

type CreatePurchaseRequest struct {
	ID            string `json:"id,omitempty"`
	VendorID      string `json:"vendor_id"`
	ItemID        string `json:"item_id"`
	TotalQuantity string `json:"total_quantity"`
	Rate          string `json:"rate,omitempty"`
	PaymentType   string `json:"payment_type,omitempty"`
	BankRef       string `json:"bank_ref,omitempty"`
	PurchaseDate  string `json:"purchase_date,omitempty"` // YYYY-MM-DD
}

type PurchaseDTO struct {
	ID            string `json:"id"`
	VendorID      string `json:"vendor_id"`
	ItemID        string `json:"item_id"`
	TotalQuantity string `json:"total_quantity"`
	Rate          string `json:"rate"`
	PaymentType   string `json:"payment_type,omitempty"`
	BankRef       string `json:"bank_ref,omitempty"`
	PurchaseDate  string `json:"purchase_date"`
	IsSorted      bool   `json:"is_sorted"`
}

func toPurchaseDTO(p stock.Purchase) PurchaseDTO {
	return PurchaseDTO{
		ID:            string(p.ID),
		VendorID:      string(p.VendorID),
		ItemID:        string(p.ItemID),
		TotalQuantity: p.TotalQuantity.String(),
		Rate:          p.Rate.String(),
		PaymentType:   p.PaymentType,
		BankRef:       p.BankRef,
		PurchaseDate:  p.PurchaseDate.Format("2006-01-02"),
		IsSorted:      p.IsSorted,
	}
}

type AllocationRequest struct {
	ItemID   string `json:"item_id"`
	Quantity string `json:"quantity"`
	Amount   string `json:"amount,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type SortRequest struct {
	Allocations []AllocationRequest `json:"allocations"`
}

type AllocationDTO struct {
	ID          string `json:"id"`
	PurchaseID  string `json:"purchase_id"`
	ItemID      string `json:"item_id"`
	Quantity    string `json:"quantity"`
	Amount      string `json:"amount"`
	Notes       string `json:"notes,omitempty"`
	VendorID    string `json:"vendor_id"`
	PaymentType string `json:"payment_type,omitempty"`
	BankRef     string `json:"bank_ref,omitempty"`
}

type SortResultDTO struct {
	Purchase    PurchaseDTO     `json:"purchase"`
	Allocations []AllocationDTO `json:"allocations"`
}

func toSortResultDTO(r stock.SortResult) SortResultDTO {
	allocs := make([]AllocationDTO, len(r.Allocations))
	for i, a := range r.Allocations {
		allocs[i] = AllocationDTO{
			ID:          a.ID,
			PurchaseID:  string(a.PurchaseID),
			ItemID:      string(a.ItemID),
			Quantity:    a.Quantity.String(),
			Amount:      a.Amount.String(),
			Notes:       a.Notes,
			VendorID:    string(a.VendorID),
			PaymentType: a.PaymentType,
			BankRef:     a.BankRef,
		}
	}
	return SortResultDTO{Purchase: toPurchaseDTO(r.Purchase), Allocations: allocs}
}

type AvailabilityDTO struct {
	ItemID            string `json:"item_id"`
	AvailableQuantity string `json:"available_quantity"`
}

type SaleLineRequest struct {
	ItemID    string `json:"item_id"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type CreateSaleRequest struct {
	CustomerRef string            `json:"customer_ref,omitempty"`
	SaleDate    string            `json:"sale_date,omitempty"` // YYYY-MM-DD
	Lines       []SaleLineRequest `json:"lines"`
}

type SaleDTO struct {
	ID          string        `json:"id"`
	CustomerRef string        `json:"customer_ref,omitempty"`
	SaleDate    string        `json:"sale_date"`
	Lines       []SaleLineDTO `json:"lines"`
}

type SaleLineDTO struct {
	ItemID    string `json:"item_id"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Amount    string `json:"amount"`
}

func toSaleDTO(s stock.Sale) SaleDTO {
	lines := make([]SaleLineDTO, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = SaleLineDTO{
			ItemID:    string(l.ItemID),
			Quantity:  l.Quantity.String(),
			UnitPrice: l.UnitPrice.String(),
			Amount:    l.Amount.String(),
		}
	}
	return SaleDTO{
		ID:          string(s.ID),
		CustomerRef: s.CustomerRef,
		SaleDate:    s.SaleDate.Format("2006-01-02"),
		Lines:       lines,
	}
}

type CreateWastageRequest struct {
	ItemID   string `json:"item_id"`
	Quantity string `json:"quantity"`
	NetPrice string `json:"net_price,omitempty"`
	Date     string `json:"date,omitempty"` // YYYY-MM-DD
	Notes    string `json:"notes,omitempty"`
}

type WastageDTO struct {
	ID       string `json:"id"`
	ItemID   string `json:"item_id"`
	Quantity string `json:"quantity"`
	NetPrice string `json:"net_price"`
	Date     string `json:"date"`
	Notes    string `json:"notes,omitempty"`
}

func toWastageDTO(w stock.Wastage) WastageDTO {
	return WastageDTO{
		ID:       w.ID,
		ItemID:   string(w.ItemID),
		Quantity: w.Quantity.String(),
		NetPrice: w.NetPrice.String(),
		Date:     w.Date.Format("2006-01-02"),
		Notes:    w.Notes,
	}
}

// =============================================================================
// SHORTFALLS / ERRORS
// =============================================================================

type ShortfallDTO struct {
	ItemID    string `json:"item_id"`
	Available string `json:"available"`
	Requested string `json:"requested"`
	Message   string `json:"message"`
}

func toShortfallDTOs(shortfalls []stock.Shortfall) []ShortfallDTO {
	dtos := make([]ShortfallDTO, len(shortfalls))
	for i, s := range shortfalls {
		dtos[i] = ShortfallDTO{
			ItemID:    string(s.ItemID),
			Available: s.Available.String(),
			Requested: s.Requested.String(),
			Message:   s.String(),
		}
	}
	return dtos
}

type ErrorResponse struct {
	Error      string         `json:"error"`
	Details    string         `json:"details,omitempty"`
	Shortfalls []ShortfallDTO `json:"shortfalls,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ID string `json:"id"`
}
