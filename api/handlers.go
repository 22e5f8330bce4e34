/*
handlers.go - HTTP API handlers for the back-office core

PURPOSE:
  Exposes claim intake and the stock chain via REST. Handlers parse
  and validate HTTP input, delegate to the domain services, and map
  outcomes back to JSON.

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (balance calculator, admissibility engine,
     sorting ledger, availability tracker)
  4. Serialize response

ERROR HANDLING:
  Admissibility rejections are 200 responses with admitted=false -
  they are user-facing outcomes the form keeps open on, not errors.
  Everything else maps to status codes:
  - 400: Validation errors, quantity mismatch, insufficient stock
  - 404: Missing employee/claim/purchase
  - 409: Purchase already sorted
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scenarios.go: Demo data loaders
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hrops/backoffice-core/entitlement"
	"github.com/hrops/backoffice-core/factory"
	"github.com/hrops/backoffice-core/stock"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// EntitlementStore is the combined persistence surface the claim flow
// needs. Both store/sqlite and store/memory satisfy it.
type EntitlementStore interface {
	entitlement.EmployeeStore
	entitlement.PolicyStore
	entitlement.ClaimStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store         EntitlementStore
	Stock         stock.Store
	PolicyFactory *factory.PolicyFactory
	Log           *logrus.Logger

	lookup  *entitlement.Lookup
	balance *entitlement.BalanceCalculator
	claims  *entitlement.ClaimService
	sorting *stock.Ledger
	tracker *stock.Tracker

	currentScenario string
}

// NewHandler wires the domain services around the given stores.
func NewHandler(store EntitlementStore, stockStore stock.Store, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	lookup := entitlement.NewLookup(store)
	balance := entitlement.NewBalanceCalculator(lookup, store)
	engine := entitlement.NewEngine(entitlement.NewClaimGapEligibility(lookup, store))
	return &Handler{
		Store:         store,
		Stock:         stockStore,
		PolicyFactory: factory.NewPolicyFactory(),
		Log:           log,
		lookup:        lookup,
		balance:       balance,
		claims:        entitlement.NewClaimService(store, store, balance, engine),
		sorting:       stock.NewLedger(stockStore),
		tracker:       stock.NewTracker(stockStore),
	}
}

// =============================================================================
// EMPLOYEE ENDPOINTS
// =============================================================================

// ListEmployees returns all employees.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.internalError(w, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, emp := range employees {
		dtos[i] = toEmployeeDTO(emp)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns one employee.
// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	emp, err := h.Store.GetEmployee(r.Context(), entitlement.EmployeeID(id))
	if err != nil {
		h.internalError(w, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates or updates an employee record.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" || req.DesignationID == "" {
		writeError(w, http.StatusBadRequest, "id, name and designation_id are required", nil)
		return
	}

	emp := entitlement.Employee{
		ID:            entitlement.EmployeeID(req.ID),
		Name:          req.Name,
		DesignationID: entitlement.DesignationID(req.DesignationID),
		DepartmentID:  req.DepartmentID,
		BasicSalary:   entitlement.MustParseMoney(req.BasicSalary),
		GrossSalary:   entitlement.MustParseMoney(req.GrossSalary),
		IsSalesRole:   req.IsSalesRole,
	}
	if req.JoinDate != "" {
		joinDate, err := time.Parse("2006-01-02", req.JoinDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid join_date format (use YYYY-MM-DD)", err)
			return
		}
		emp.JoinDate = joinDate
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.internalError(w, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// BALANCE ENDPOINT
// =============================================================================

// GetBalance computes the current entitlement balance for an employee
// and claim type. The value is advisory for the form; submission
// recomputes it.
// GET /api/employees/{id}/balance?type=medicine&as_of=2026-03-01
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	claimType := entitlement.ClaimType(r.URL.Query().Get("type"))
	if !claimType.Known() {
		writeError(w, http.StatusBadRequest, "Unknown claim type", nil)
		return
	}

	asOf := time.Now().UTC()
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
			return
		}
		asOf = parsed
	}

	emp, err := h.Store.GetEmployee(ctx, entitlement.EmployeeID(id))
	if err != nil {
		h.internalError(w, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	result, err := h.balance.ComputeBalance(ctx, *emp, claimType, asOf)
	if err != nil {
		h.internalError(w, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(emp.ID, claimType, result))
}

// =============================================================================
// CLAIM ENDPOINTS
// =============================================================================

// SubmitClaim runs the full claim flow: fresh balance, admissibility,
// and on admit a persisted claim.
// POST /api/employees/{id}/claims
func (h *Handler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req SubmitClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	claimType := entitlement.ClaimType(req.Type)
	if !claimType.Known() {
		writeError(w, http.StatusBadRequest, "Unknown claim type", nil)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be a positive decimal", err)
		return
	}

	claimReq := entitlement.ClaimRequest{
		EmployeeID: entitlement.EmployeeID(id),
		Type:       claimType,
		Amount:     entitlement.Money{Value: amount},
		AppliedFor: req.AppliedFor,
		Notes:      req.Notes,
	}
	if req.ClaimDate != "" {
		claimDate, err := time.Parse("2006-01-02", req.ClaimDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid claim_date format (use YYYY-MM-DD)", err)
			return
		}
		claimReq.ClaimDate = claimDate
	}

	result, err := h.claims.SubmitClaim(ctx, claimReq)
	if err != nil {
		if errors.Is(err, entitlement.ErrEmployeeNotFound) {
			writeError(w, http.StatusNotFound, "Employee not found", nil)
			return
		}
		h.internalError(w, "Failed to submit claim", err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"employee": id,
		"type":     claimType,
		"admitted": result.Decision.Admit,
		"reason":   result.Decision.Reason,
	}).Info("claim submission")

	writeJSON(w, http.StatusOK, h.toOutcomeDTO(entitlement.EmployeeID(id), claimType, result))
}

// EditClaim replaces a claim's amount through the administrative
// correction path, with the same fresh-balance discipline.
// PUT /api/claims/{id}
func (h *Handler) EditClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req EditClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be a positive decimal", err)
		return
	}

	existing, err := h.Store.GetClaim(ctx, entitlement.ClaimID(id))
	if err != nil {
		h.internalError(w, "Failed to get claim", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Claim not found", nil)
		return
	}

	result, err := h.claims.EditClaim(ctx, *existing, entitlement.Money{Value: amount}, req.Notes)
	if err != nil {
		h.internalError(w, "Failed to edit claim", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toOutcomeDTO(existing.EmployeeID, existing.Type, result))
}

func (h *Handler) toOutcomeDTO(employeeID entitlement.EmployeeID, claimType entitlement.ClaimType, result *entitlement.SubmitResult) ClaimOutcomeDTO {
	dto := ClaimOutcomeDTO{
		Admitted: result.Decision.Admit,
		Code:     string(result.Decision.Code),
		Reason:   result.Decision.Reason,
		Balance:  toBalanceDTO(employeeID, claimType, result.Balance),
	}
	if result.Claim != nil {
		claimDTO := toClaimDTO(*result.Claim)
		dto.Claim = &claimDTO
	}
	return dto
}

// =============================================================================
// POLICY ENDPOINTS
// =============================================================================

// ListPolicies returns all configured policies.
// GET /api/policies
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Store.ListPolicies(r.Context())
	if err != nil {
		h.internalError(w, "Failed to list policies", err)
		return
	}
	dtos := make([]factory.PolicyJSON, 0, len(policies))
	for _, p := range policies {
		configJSON, err := h.PolicyFactory.ToJSON(p)
		if err != nil {
			continue
		}
		var pj factory.PolicyJSON
		if err := json.Unmarshal([]byte(configJSON), &pj); err != nil {
			continue
		}
		dtos = append(dtos, pj)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePolicy creates or updates a policy from its JSON config.
// POST /api/policies
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	policy, err := h.PolicyFactory.FromJSON(req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid policy config", err)
		return
	}
	if err := h.Store.SavePolicy(r.Context(), *policy); err != nil {
		h.internalError(w, "Failed to save policy", err)
		return
	}
	writeJSON(w, http.StatusCreated, req.Config)
}

// =============================================================================
// PURCHASE & SORTING ENDPOINTS
// =============================================================================

// ListPurchases returns all purchases.
// GET /api/purchases
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.Stock.ListPurchases(r.Context())
	if err != nil {
		h.internalError(w, "Failed to list purchases", err)
		return
	}
	dtos := make([]PurchaseDTO, len(purchases))
	for i, p := range purchases {
		dtos[i] = toPurchaseDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePurchase records a purchased lot (unsorted).
// POST /api/purchases
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	qty, err := decimal.NewFromString(req.TotalQuantity)
	if err != nil || !qty.IsPositive() {
		writeError(w, http.StatusBadRequest, "total_quantity must be a positive decimal", err)
		return
	}
	if req.VendorID == "" || req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "vendor_id and item_id are required", nil)
		return
	}

	p := stock.Purchase{
		ID:            stock.PurchaseID(req.ID),
		VendorID:      stock.VendorID(req.VendorID),
		ItemID:        stock.ItemID(req.ItemID),
		TotalQuantity: qty,
		Rate:          parseDecOrZero(req.Rate),
		PaymentType:   req.PaymentType,
		BankRef:       req.BankRef,
		PurchaseDate:  time.Now().UTC(),
	}
	if p.ID == "" {
		p.ID = stock.PurchaseID(uuid.NewString())
	}
	if req.PurchaseDate != "" {
		purchaseDate, err := time.Parse("2006-01-02", req.PurchaseDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid purchase_date format (use YYYY-MM-DD)", err)
			return
		}
		p.PurchaseDate = purchaseDate
	}

	if err := h.Stock.CreatePurchase(r.Context(), p); err != nil {
		h.internalError(w, "Failed to create purchase", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPurchaseDTO(p))
}

// SortPurchase allocates a purchase into items, atomically.
// POST /api/purchases/{id}/sort
func (h *Handler) SortPurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req SortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rows := make([]stock.AllocationInput, len(req.Allocations))
	for i, a := range req.Allocations {
		qty, err := decimal.NewFromString(a.Quantity)
		if err != nil {
			writeError(w, http.StatusBadRequest, "allocation quantity must be a decimal", err)
			return
		}
		rows[i] = stock.AllocationInput{
			ItemID:   stock.ItemID(a.ItemID),
			Quantity: qty,
			Amount:   parseDecOrZero(a.Amount),
			Notes:    a.Notes,
		}
	}

	result, err := h.sorting.Sort(ctx, stock.PurchaseID(id), rows)
	if err != nil {
		h.writeStockError(w, err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"purchase":    id,
		"allocations": len(result.Allocations),
	}).Info("purchase sorted")

	writeJSON(w, http.StatusOK, toSortResultDTO(*result))
}

// =============================================================================
// AVAILABILITY, SALE & WASTAGE ENDPOINTS
// =============================================================================

// GetAvailability returns the current sellable quantity for an item.
// GET /api/items/{id}/availability
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	available, err := h.tracker.AvailableQuantity(r.Context(), stock.ItemID(id))
	if err != nil {
		h.internalError(w, "Failed to compute availability", err)
		return
	}
	writeJSON(w, http.StatusOK, AvailabilityDTO{
		ItemID:            id,
		AvailableQuantity: available.String(),
	})
}

// CreateSale validates every line against current availability and
// persists the sale; any shortfall rejects the whole submission.
// POST /api/sales
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	saleReq := stock.SaleRequest{CustomerRef: req.CustomerRef}
	if req.SaleDate != "" {
		saleDate, err := time.Parse("2006-01-02", req.SaleDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid sale_date format (use YYYY-MM-DD)", err)
			return
		}
		saleReq.SaleDate = saleDate
	}
	for _, l := range req.Lines {
		qty, err := decimal.NewFromString(l.Quantity)
		if err != nil || !qty.IsPositive() {
			writeError(w, http.StatusBadRequest, "line quantity must be a positive decimal", err)
			return
		}
		saleReq.Lines = append(saleReq.Lines, stock.SaleLine{
			ItemID:    stock.ItemID(l.ItemID),
			Quantity:  qty,
			UnitPrice: parseDecOrZero(l.UnitPrice),
		})
	}

	sale, err := h.tracker.SubmitSale(r.Context(), saleReq)
	if err != nil {
		h.writeStockError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleDTO(*sale))
}

// CreateWastage records a wastage entry with the same availability
// check a sale gets.
// POST /api/wastages
func (h *Handler) CreateWastage(w http.ResponseWriter, r *http.Request) {
	var req CreateWastageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil || !qty.IsPositive() {
		writeError(w, http.StatusBadRequest, "quantity must be a positive decimal", err)
		return
	}

	wastageReq := stock.WastageRequest{
		ItemID:   stock.ItemID(req.ItemID),
		Quantity: qty,
		NetPrice: parseDecOrZero(req.NetPrice),
		Notes:    req.Notes,
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		wastageReq.Date = date
	}

	wastage, err := h.tracker.SubmitWastage(r.Context(), wastageReq)
	if err != nil {
		h.writeStockError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWastageDTO(*wastage))
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// writeStockError maps the stock error taxonomy to HTTP statuses.
func (h *Handler) writeStockError(w http.ResponseWriter, err error) {
	var insufficient *stock.InsufficientStockError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:      "Insufficient stock",
			Details:    insufficient.Error(),
			Shortfalls: toShortfallDTOs(insufficient.Shortfalls),
		})
		return
	}

	switch {
	case errors.Is(err, stock.ErrPurchaseNotFound):
		writeError(w, http.StatusNotFound, "Purchase not found", nil)
	case errors.Is(err, stock.ErrAlreadySorted):
		writeError(w, http.StatusConflict, "Purchase already sorted", nil)
	case stock.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid submission", err)
	default:
		h.internalError(w, "Stock operation failed", err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, message string, err error) {
	h.Log.WithError(err).Error(message)
	writeError(w, http.StatusInternalServerError, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func parseDecOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
