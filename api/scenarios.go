/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the stores with realistic
	data for testing and demos. Each scenario creates the policies,
	employees, and stock records that demonstrate specific features.

AVAILABLE SCENARIOS:

	claims-office: Policies for every claim type plus employees with
	               prior claim history (fresh hire, heavy user, sales
	               rep with a recent handset)
	stock-room:    An unsorted purchase lot, a sorted one with live
	               allocations, and a recorded sale

HOW SCENARIOS WORK:
 1. Check an anchor record; if present the scenario is already loaded
 2. Create policies via the factory JSON shapes
 3. Create employees / purchases
 4. Seed claims and allocations directly (bypassing admissibility)

USAGE VIA API:

	POST /api/scenarios/load
	{"id": "claims-office"}

NOTE:

	Scenario claim rows are written straight to the store so the seeded
	history can include whatever the demo needs. Only use in
	development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - factory/policy.go: Policy JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hrops/backoffice-core/entitlement"
	"github.com/hrops/backoffice-core/factory"
	"github.com/hrops/backoffice-core/stock"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "claims-office",
		Name:        "Claims Office",
		Description: "Medical, hospital, handset and travel policies with employees at different balance states",
	},
	{
		ID:          "stock-room",
		Name:        "Stock Room",
		Description: "Purchase lots before and after sorting, with a sale against live stock",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the most recently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	var err error
	switch req.ID {
	case "claims-office":
		err = h.loadClaimsOfficeScenario(ctx)
	case "stock-room":
		err = h.loadStockRoomScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadClaimsOfficeScenario(ctx context.Context) error {
	// Anchor check: loading twice would double the seeded claim history.
	if emp, err := h.Store.GetEmployee(ctx, "emp-demo-001"); err != nil {
		return err
	} else if emp != nil {
		return nil
	}

	// Policies for designation "officer": 5000/yr medicine accumulable
	// over 2 years, hospital at 3 months basic salary, travel per city,
	// handset for sales roles only.
	policyConfigs := []factory.PolicyJSON{
		{
			ID:               "pol-med-officer",
			Name:             "Officer Medical",
			DesignationID:    "officer",
			Kind:             "medicine",
			FixedAmount:      "5000",
			AmountType:       "fixed",
			ApplicableTo:     []string{"self", "spouse", "children"},
			AccumulableYears: 1,
		},
		{
			ID:            "pol-hosp-officer",
			Name:          "Officer Hospitalization",
			DesignationID: "officer",
			Kind:          "hospital",
			AmountType:           "basic_salary",
			SalaryPercent:        300,
			FixedAmount:          "20000",
			UseWhicheverIsHigher: true,
			ApplicableTo:  []string{"self", "spouse", "children"},
		},
		{
			ID:                     "pol-handset-sales",
			Name:                   "Sales Handset",
			DesignationID:          "officer",
			Kind:                   "mobile_handset",
			FixedAmount:            "30000",
			AmountType:             "fixed",
			IsSales:                true,
			MinMonthsBetweenClaims: 24,
		},
		{
			ID:             "pol-travel-dhaka",
			Name:           "Officer Travel Dhaka",
			DesignationID:  "officer",
			Kind:           "travel",
			City:                "Dhaka",
			DailyAllowance:      "1200",
			AccommodationAmount: "3500",
		},
		{
			ID:             "pol-travel-others",
			Name:           "Officer Travel Fallback",
			DesignationID:  "officer",
			Kind:           "travel",
			City:                "Others",
			DailyAllowance:      "800",
			AccommodationAmount: "2000",
		},
	}
	for _, cfg := range policyConfigs {
		policy, err := h.PolicyFactory.FromJSON(cfg)
		if err != nil {
			return err
		}
		if err := h.Store.SavePolicy(ctx, *policy); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	employees := []entitlement.Employee{
		{
			ID:            "emp-demo-001",
			Name:          "Nadia Rahman",
			DesignationID: "officer",
			DepartmentID:  "finance",
			BasicSalary:   entitlement.MustParseMoney("42000"),
			GrossSalary:   entitlement.MustParseMoney("55000"),
			JoinDate:      now.AddDate(-3, 0, 0),
		},
		{
			ID:            "emp-demo-002",
			Name:          "Imran Chowdhury",
			DesignationID: "officer",
			DepartmentID:  "sales",
			BasicSalary:   entitlement.MustParseMoney("38000"),
			GrossSalary:   entitlement.MustParseMoney("50000"),
			IsSalesRole:   true,
			JoinDate:      now.AddDate(-5, 0, 0),
		},
	}
	for _, emp := range employees {
		if err := h.Store.SaveEmployee(ctx, emp); err != nil {
			return err
		}
	}

	// Prior history: Nadia has consumed most of her medicine window,
	// Imran claimed a handset last year and is inside the waiting
	// period.
	claims := []entitlement.Claim{
		{
			ID:               "claim-demo-001",
			EmployeeID:       "emp-demo-001",
			Type:             entitlement.ClaimMedicine,
			ClaimDate:        now.AddDate(0, -4, 0),
			Amount:           entitlement.MustParseMoney("7000"),
			BalanceAtClaim:   entitlement.MustParseMoney("10000"),
			PostClaimBalance: entitlement.MustParseMoney("3000"),
			AppliedFor:       "self",
			Approved:         true,
			CreatedAt:        now.AddDate(0, -4, 0),
		},
		{
			ID:               "claim-demo-002",
			EmployeeID:       "emp-demo-002",
			Type:             entitlement.ClaimMobileHandset,
			ClaimDate:        now.AddDate(-1, 0, 0),
			Amount:           entitlement.MustParseMoney("28000"),
			BalanceAtClaim:   entitlement.MustParseMoney("30000"),
			PostClaimBalance: entitlement.MustParseMoney("2000"),
			AppliedFor:       "self",
			Approved:         true,
			CreatedAt:        now.AddDate(-1, 0, 0),
		},
	}
	for _, c := range claims {
		if err := h.Store.CreateClaim(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadStockRoomScenario(ctx context.Context) error {
	if p, err := h.Stock.GetPurchase(ctx, "purchase-demo-001"); err != nil {
		return err
	} else if p != nil {
		return nil
	}

	now := time.Now().UTC()
	unsorted := stock.Purchase{
		ID:            "purchase-demo-001",
		VendorID:      "vendor-green-farm",
		ItemID:        "raw-lot",
		TotalQuantity: decimal.NewFromInt(500),
		Rate:          decimal.RequireFromString("18.50"),
		PaymentType:   "bank",
		BankRef:       "TRX-88412",
		PurchaseDate:  now.AddDate(0, 0, -1),
	}
	if err := h.Stock.CreatePurchase(ctx, unsorted); err != nil {
		return err
	}

	sorted := stock.Purchase{
		ID:            "purchase-demo-002",
		VendorID:      "vendor-delta-traders",
		ItemID:        "raw-lot",
		TotalQuantity: decimal.NewFromInt(300),
		Rate:          decimal.RequireFromString("21.00"),
		PaymentType:   "cash",
		PurchaseDate:  now.AddDate(0, 0, -3),
	}
	if err := h.Stock.CreatePurchase(ctx, sorted); err != nil {
		return err
	}

	// Sort the second lot through the ledger so the state flip and
	// allocations follow the production path.
	_, err := h.sorting.Sort(ctx, sorted.ID, []stock.AllocationInput{
		{ItemID: "grade-a", Quantity: decimal.NewFromInt(180), Amount: decimal.RequireFromString("4200")},
		{ItemID: "grade-b", Quantity: decimal.NewFromInt(95), Amount: decimal.RequireFromString("1400")},
		{ItemID: "rejects", Quantity: decimal.NewFromInt(25)},
	})
	if err != nil {
		return err
	}

	// One sale against the sorted stock leaves grade-a at 80 available.
	_, err = h.tracker.SubmitSale(ctx, stock.SaleRequest{
		CustomerRef: "cust-metro-foods",
		SaleDate:    now,
		Lines: []stock.SaleLine{
			{ItemID: "grade-a", Quantity: decimal.NewFromInt(100), UnitPrice: decimal.RequireFromString("32.00")},
		},
	})
	return err
}
