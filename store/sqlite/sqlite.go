/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements entitlement.EmployeeStore, entitlement.PolicyStore,
  entitlement.ClaimStore, and stock.Store using database/sql with the
  mattn/go-sqlite3 driver. In production, the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  employees            HR master records the core consumes
  policies             Entitlement rules: key columns + JSON config
  claims               Submitted claims with balance snapshots
  purchases            Purchased lots with the is_sorted flag
  sorting_allocations  The stock allocation ledger
  sales / sale_lines   Sale headers and line items
  wastages             Non-sale stock consumption

CONDITIONAL FLIP:
  MarkSorted is a single conditional UPDATE keyed on is_sorted = 0.
  Zero affected rows means the purchase was already sorted; the sort
  transaction rolls back. This is what makes a concurrent double-sort
  resolve to exactly one winner.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers
  don't block, single writer at a time, better crash recovery. A
  sync.RWMutex guards the connection; with PostgreSQL the database's
  own concurrency control takes over.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

USAGE:
  store, err := sqlite.New("./data/backoffice.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/hrops/backoffice-core/entitlement"
	"github.com/hrops/backoffice-core/factory"
	"github.com/hrops/backoffice-core/stock"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	factory *factory.PolicyFactory

	stockQueries
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, factory: factory.NewPolicyFactory()}
	s.stockQueries = stockQueries{q: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		designation_id TEXT NOT NULL,
		department_id TEXT,
		basic_salary TEXT NOT NULL,
		gross_salary TEXT NOT NULL,
		is_sales INTEGER NOT NULL DEFAULT 0,
		join_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_employees_designation
		ON employees(designation_id);

	-- Policies: typed key columns for lookup, JSON config for the rest
	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		designation_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		is_sales INTEGER NOT NULL DEFAULT 0,
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_policies_lookup
		ON policies(designation_id, kind, city, is_sales);

	CREATE TABLE IF NOT EXISTS claims (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		claim_type TEXT NOT NULL,
		claim_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		balance_at_claim TEXT NOT NULL,
		post_claim_balance TEXT NOT NULL,
		applied_for TEXT,
		approved INTEGER NOT NULL DEFAULT 0,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: window queries for balance calculation
	CREATE INDEX IF NOT EXISTS idx_claims_employee_type_date
		ON claims(employee_id, claim_type, claim_date);

	CREATE TABLE IF NOT EXISTS purchases (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		total_quantity TEXT NOT NULL,
		rate TEXT NOT NULL DEFAULT '0',
		payment_type TEXT,
		bank_ref TEXT,
		purchase_date TEXT NOT NULL,
		is_sorted INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS sorting_allocations (
		id TEXT PRIMARY KEY,
		purchase_id TEXT NOT NULL REFERENCES purchases(id),
		item_id TEXT NOT NULL,
		quantity TEXT NOT NULL,
		amount TEXT NOT NULL DEFAULT '0',
		notes TEXT,
		vendor_id TEXT NOT NULL,
		payment_type TEXT,
		bank_ref TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_item
		ON sorting_allocations(item_id);
	CREATE INDEX IF NOT EXISTS idx_allocations_purchase
		ON sorting_allocations(purchase_id);

	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		customer_ref TEXT,
		sale_date TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sale_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sale_id TEXT NOT NULL REFERENCES sales(id),
		item_id TEXT NOT NULL,
		quantity TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		amount TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sale_lines_item
		ON sale_lines(item_id);

	CREATE TABLE IF NOT EXISTS wastages (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL,
		quantity TEXT NOT NULL,
		net_price TEXT NOT NULL DEFAULT '0',
		date TEXT NOT NULL,
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_wastages_item
		ON wastages(item_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Interface checks.
var (
	_ entitlement.EmployeeStore = (*Store)(nil)
	_ entitlement.PolicyStore   = (*Store)(nil)
	_ entitlement.ClaimStore    = (*Store)(nil)
	_ stock.Store               = (*Store)(nil)
)

// =============================================================================
// EMPLOYEE STORE (entitlement.EmployeeStore)
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, emp entitlement.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, designation_id, department_id, basic_salary, gross_salary, is_sales, join_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			designation_id = excluded.designation_id,
			department_id = excluded.department_id,
			basic_salary = excluded.basic_salary,
			gross_salary = excluded.gross_salary,
			is_sales = excluded.is_sales,
			join_date = excluded.join_date
	`
	_, err := s.db.ExecContext(ctx, query,
		string(emp.ID), emp.Name, string(emp.DesignationID), emp.DepartmentID,
		emp.BasicSalary.Value.String(), emp.GrossSalary.Value.String(),
		boolToInt(emp.IsSalesRole), emp.JoinDate.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id entitlement.EmployeeID) (*entitlement.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, designation_id, department_id, basic_salary, gross_salary, is_sales, join_date FROM employees WHERE id = ?",
		string(id),
	)
	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return emp, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]entitlement.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, designation_id, department_id, basic_salary, gross_salary, is_sales, join_date FROM employees ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []entitlement.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(r rowScanner) (*entitlement.Employee, error) {
	var (
		emp          entitlement.Employee
		id, desig    string
		department   sql.NullString
		basic, gross string
		isSales      int
		joinDate     sql.NullString
	)
	if err := r.Scan(&id, &emp.Name, &desig, &department, &basic, &gross, &isSales, &joinDate); err != nil {
		return nil, err
	}
	emp.ID = entitlement.EmployeeID(id)
	emp.DesignationID = entitlement.DesignationID(desig)
	emp.DepartmentID = department.String
	emp.BasicSalary = entitlement.MustParseMoney(basic)
	emp.GrossSalary = entitlement.MustParseMoney(gross)
	emp.IsSalesRole = isSales != 0
	if joinDate.Valid {
		emp.JoinDate, _ = time.Parse(time.RFC3339, joinDate.String)
	}
	return &emp, nil
}

// =============================================================================
// POLICY STORE (entitlement.PolicyStore)
// =============================================================================

func (s *Store) SavePolicy(ctx context.Context, policy entitlement.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configJSON, err := s.factory.ToJSON(policy)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO policies (id, name, designation_id, kind, city, is_sales, config_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			designation_id = excluded.designation_id,
			kind = excluded.kind,
			city = excluded.city,
			is_sales = excluded.is_sales,
			config_json = excluded.config_json,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query,
		string(policy.ID), policy.Name, string(policy.DesignationID), string(policy.Kind),
		policy.City, boolToInt(policy.IsSales), configJSON, now, now,
	)
	return err
}

func (s *Store) ListPolicies(ctx context.Context) ([]entitlement.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT config_json FROM policies ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []entitlement.Policy
	for rows.Next() {
		var configJSON string
		if err := rows.Scan(&configJSON); err != nil {
			return nil, err
		}
		policy, err := s.factory.ParsePolicy(configJSON)
		if err != nil {
			continue // skip rows that no longer parse
		}
		policies = append(policies, *policy)
	}
	return policies, rows.Err()
}

func (s *Store) MedicalPolicy(ctx context.Context, designationID entitlement.DesignationID, kind entitlement.ClaimType) (*entitlement.Policy, error) {
	return s.policyByKey(ctx,
		"SELECT config_json FROM policies WHERE designation_id = ? AND kind = ? LIMIT 1",
		string(designationID), string(kind),
	)
}

func (s *Store) HandsetPolicy(ctx context.Context, designationID entitlement.DesignationID, isSales bool) (*entitlement.Policy, error) {
	return s.policyByKey(ctx,
		"SELECT config_json FROM policies WHERE designation_id = ? AND kind = ? AND is_sales = ? LIMIT 1",
		string(designationID), string(entitlement.ClaimMobileHandset), boolToInt(isSales),
	)
}

func (s *Store) TravelPolicy(ctx context.Context, designationID entitlement.DesignationID, city string) (*entitlement.Policy, error) {
	return s.policyByKey(ctx,
		"SELECT config_json FROM policies WHERE designation_id = ? AND kind = ? AND city = ? COLLATE NOCASE LIMIT 1",
		string(designationID), string(entitlement.ClaimTravel), city,
	)
}

func (s *Store) policyByKey(ctx context.Context, query string, args ...any) (*entitlement.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var configJSON string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&configJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.factory.ParsePolicy(configJSON)
}

// =============================================================================
// CLAIM STORE (entitlement.ClaimStore)
// =============================================================================

const claimColumns = "id, employee_id, claim_type, claim_date, amount, balance_at_claim, post_claim_balance, applied_for, approved, notes, created_at"

func (s *Store) CreateClaim(ctx context.Context, claim entitlement.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := "INSERT INTO claims (" + claimColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := s.db.ExecContext(ctx, query,
		string(claim.ID), string(claim.EmployeeID), string(claim.Type),
		claim.ClaimDate.UTC().Format(time.RFC3339),
		claim.Amount.Value.String(), claim.BalanceAtClaim.Value.String(), claim.PostClaimBalance.Value.String(),
		claim.AppliedFor, boolToInt(claim.Approved), claim.Notes,
		claim.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) UpdateClaim(ctx context.Context, claim entitlement.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE claims SET amount = ?, balance_at_claim = ?, post_claim_balance = ?,
			applied_for = ?, approved = ?, notes = ?
		WHERE id = ?
	`
	res, err := s.db.ExecContext(ctx, query,
		claim.Amount.Value.String(), claim.BalanceAtClaim.Value.String(), claim.PostClaimBalance.Value.String(),
		claim.AppliedFor, boolToInt(claim.Approved), claim.Notes, string(claim.ID),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entitlement.ErrClaimNotFound
	}
	return nil
}

func (s *Store) ClaimsInWindow(ctx context.Context, employeeID entitlement.EmployeeID, claimType entitlement.ClaimType, from, to time.Time) ([]entitlement.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + claimColumns + ` FROM claims
		WHERE employee_id = ? AND claim_type = ? AND claim_date >= ? AND claim_date <= ?
		ORDER BY claim_date`
	rows, err := s.db.QueryContext(ctx, query,
		string(employeeID), string(claimType),
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []entitlement.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *claim)
	}
	return claims, rows.Err()
}

func (s *Store) LastClaim(ctx context.Context, employeeID entitlement.EmployeeID, claimType entitlement.ClaimType) (*entitlement.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + claimColumns + ` FROM claims
		WHERE employee_id = ? AND claim_type = ?
		ORDER BY claim_date DESC LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, string(employeeID), string(claimType))
	claim, err := scanClaim(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// GetClaim returns a claim by ID, or nil. Used by the edit path.
func (s *Store) GetClaim(ctx context.Context, id entitlement.ClaimID) (*entitlement.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + claimColumns + " FROM claims WHERE id = ?"
	row := s.db.QueryRowContext(ctx, query, string(id))
	claim, err := scanClaim(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func scanClaim(r rowScanner) (*entitlement.Claim, error) {
	var (
		claim                 entitlement.Claim
		id, empID, claimType  string
		claimDate, createdAt  string
		amount, atClaim, post string
		appliedFor, notes     sql.NullString
		approved              int
	)
	err := r.Scan(&id, &empID, &claimType, &claimDate, &amount, &atClaim, &post,
		&appliedFor, &approved, &notes, &createdAt)
	if err != nil {
		return nil, err
	}
	claim.ID = entitlement.ClaimID(id)
	claim.EmployeeID = entitlement.EmployeeID(empID)
	claim.Type = entitlement.ClaimType(claimType)
	claim.ClaimDate, _ = time.Parse(time.RFC3339, claimDate)
	claim.Amount = entitlement.MustParseMoney(amount)
	claim.BalanceAtClaim = entitlement.MustParseMoney(atClaim)
	claim.PostClaimBalance = entitlement.MustParseMoney(post)
	claim.AppliedFor = appliedFor.String
	claim.Approved = approved != 0
	claim.Notes = notes.String
	claim.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &claim, nil
}

// =============================================================================
// STOCK STORE (stock.Store)
// =============================================================================
// Read/write methods live on stockQueries so they run identically
// against *sql.DB and *sql.Tx. The mutex is taken here at the outer
// Store layer.

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type stockQueries struct {
	q dbtx
}

func (sq stockQueries) GetPurchase(ctx context.Context, id stock.PurchaseID) (*stock.Purchase, error) {
	row := sq.q.QueryRowContext(ctx,
		"SELECT id, vendor_id, item_id, total_quantity, rate, payment_type, bank_ref, purchase_date, is_sorted FROM purchases WHERE id = ?",
		string(id),
	)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (sq stockQueries) CreatePurchase(ctx context.Context, p stock.Purchase) error {
	_, err := sq.q.ExecContext(ctx,
		"INSERT INTO purchases (id, vendor_id, item_id, total_quantity, rate, payment_type, bank_ref, purchase_date, is_sorted) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		string(p.ID), string(p.VendorID), string(p.ItemID),
		p.TotalQuantity.String(), p.Rate.String(), p.PaymentType, p.BankRef,
		p.PurchaseDate.UTC().Format(time.RFC3339), boolToInt(p.IsSorted),
	)
	return err
}

func (sq stockQueries) ListPurchases(ctx context.Context) ([]stock.Purchase, error) {
	rows, err := sq.q.QueryContext(ctx,
		"SELECT id, vendor_id, item_id, total_quantity, rate, payment_type, bank_ref, purchase_date, is_sorted FROM purchases ORDER BY purchase_date",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []stock.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, *p)
	}
	return purchases, rows.Err()
}

// MarkSorted flips is_sorted only when it is still 0. The affected-row
// count is the entire double-sort defense.
func (sq stockQueries) MarkSorted(ctx context.Context, id stock.PurchaseID) (bool, error) {
	res, err := sq.q.ExecContext(ctx,
		"UPDATE purchases SET is_sorted = 1 WHERE id = ? AND is_sorted = 0",
		string(id),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (sq stockQueries) InsertAllocations(ctx context.Context, allocs []stock.Allocation) error {
	for _, a := range allocs {
		_, err := sq.q.ExecContext(ctx,
			"INSERT INTO sorting_allocations (id, purchase_id, item_id, quantity, amount, notes, vendor_id, payment_type, bank_ref, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			a.ID, string(a.PurchaseID), string(a.ItemID),
			a.Quantity.String(), a.Amount.String(), a.Notes,
			string(a.VendorID), a.PaymentType, a.BankRef,
			a.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (sq stockQueries) AllocationsForPurchase(ctx context.Context, id stock.PurchaseID) ([]stock.Allocation, error) {
	rows, err := sq.q.QueryContext(ctx,
		"SELECT id, purchase_id, item_id, quantity, amount, notes, vendor_id, payment_type, bank_ref, created_at FROM sorting_allocations WHERE purchase_id = ? ORDER BY created_at",
		string(id),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocs []stock.Allocation
	for rows.Next() {
		var (
			a                   stock.Allocation
			purchase, item      string
			vendor              string
			qty, amount         string
			notes, pay, bankRef sql.NullString
			createdAt           string
		)
		if err := rows.Scan(&a.ID, &purchase, &item, &qty, &amount, &notes, &vendor, &pay, &bankRef, &createdAt); err != nil {
			return nil, err
		}
		a.PurchaseID = stock.PurchaseID(purchase)
		a.ItemID = stock.ItemID(item)
		a.Quantity = mustDec(qty)
		a.Amount = mustDec(amount)
		a.Notes = notes.String
		a.VendorID = stock.VendorID(vendor)
		a.PaymentType = pay.String
		a.BankRef = bankRef.String
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		allocs = append(allocs, a)
	}
	return allocs, rows.Err()
}

func (sq stockQueries) AllocatedQuantity(ctx context.Context, itemID stock.ItemID) (decimal.Decimal, error) {
	return sq.sumQuantities(ctx,
		"SELECT quantity FROM sorting_allocations WHERE item_id = ?", string(itemID))
}

func (sq stockQueries) SoldQuantity(ctx context.Context, itemID stock.ItemID) (decimal.Decimal, error) {
	return sq.sumQuantities(ctx,
		"SELECT quantity FROM sale_lines WHERE item_id = ?", string(itemID))
}

func (sq stockQueries) WastedQuantity(ctx context.Context, itemID stock.ItemID) (decimal.Decimal, error) {
	return sq.sumQuantities(ctx,
		"SELECT quantity FROM wastages WHERE item_id = ?", string(itemID))
}

// sumQuantities adds TEXT quantity columns in Go. Quantities are
// stored as decimal strings, so SQL SUM would go through floats.
func (sq stockQueries) sumQuantities(ctx context.Context, query string, args ...any) (decimal.Decimal, error) {
	rows, err := sq.q.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var qty string
		if err := rows.Scan(&qty); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(mustDec(qty))
	}
	return total, rows.Err()
}

func (sq stockQueries) InsertSale(ctx context.Context, sale stock.Sale) error {
	_, err := sq.q.ExecContext(ctx,
		"INSERT INTO sales (id, customer_ref, sale_date) VALUES (?, ?, ?)",
		string(sale.ID), sale.CustomerRef, sale.SaleDate.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return err
	}
	for _, line := range sale.Lines {
		_, err := sq.q.ExecContext(ctx,
			"INSERT INTO sale_lines (sale_id, item_id, quantity, unit_price, amount) VALUES (?, ?, ?, ?, ?)",
			string(sale.ID), string(line.ItemID),
			line.Quantity.String(), line.UnitPrice.String(), line.Amount.String(),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (sq stockQueries) InsertWastage(ctx context.Context, w stock.Wastage) error {
	_, err := sq.q.ExecContext(ctx,
		"INSERT INTO wastages (id, item_id, quantity, net_price, date, notes) VALUES (?, ?, ?, ?, ?, ?)",
		w.ID, string(w.ItemID), w.Quantity.String(), w.NetPrice.String(),
		w.Date.UTC().Format(time.RFC3339), w.Notes,
	)
	return err
}

// WithTx on the embedded queries is never reached; the Store-level
// override below takes the mutex and opens a real transaction.
func (sq stockQueries) WithTx(ctx context.Context, fn func(stock.Store) error) error {
	return fn(sq)
}

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(stock.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(stockQueries{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func scanPurchase(r rowScanner) (*stock.Purchase, error) {
	var (
		p             stock.Purchase
		id, vendor    string
		item          string
		qty, rate     string
		pay, bankRef  sql.NullString
		purchaseDate  string
		isSorted      int
	)
	if err := r.Scan(&id, &vendor, &item, &qty, &rate, &pay, &bankRef, &purchaseDate, &isSorted); err != nil {
		return nil, err
	}
	p.ID = stock.PurchaseID(id)
	p.VendorID = stock.VendorID(vendor)
	p.ItemID = stock.ItemID(item)
	p.TotalQuantity = mustDec(qty)
	p.Rate = mustDec(rate)
	p.PaymentType = pay.String
	p.BankRef = bankRef.String
	p.PurchaseDate, _ = time.Parse(time.RFC3339, purchaseDate)
	p.IsSorted = isSorted != 0
	return &p, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func mustDec(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
