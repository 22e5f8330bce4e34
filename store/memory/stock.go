package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/hrops/backoffice-core/stock"
)

// =============================================================================
// STOCK STORE - purchases, allocations, sales, wastage
// =============================================================================

type Stock struct {
	mu          sync.Mutex
	purchases   map[stock.PurchaseID]stock.Purchase
	order       []stock.PurchaseID
	allocations []stock.Allocation
	sales       []stock.Sale
	wastages    []stock.Wastage
}

func NewStock() *Stock {
	return &Stock{purchases: make(map[stock.PurchaseID]stock.Purchase)}
}

var _ stock.Store = (*Stock)(nil)

func (m *Stock) GetPurchase(_ context.Context, id stock.PurchaseID) (*stock.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.purchases[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Stock) CreatePurchase(_ context.Context, p stock.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.purchases[p.ID]; !exists {
		m.order = append(m.order, p.ID)
	}
	m.purchases[p.ID] = p
	return nil
}

func (m *Stock) ListPurchases(_ context.Context) ([]stock.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]stock.Purchase, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, m.purchases[id])
	}
	return result, nil
}

// MarkSorted flips IsSorted only when currently false, mirroring the
// conditional UPDATE in store/sqlite.
func (m *Stock) MarkSorted(_ context.Context, id stock.PurchaseID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markSortedLocked(id)
}

func (m *Stock) markSortedLocked(id stock.PurchaseID) (bool, error) {
	p, ok := m.purchases[id]
	if !ok || p.IsSorted {
		return false, nil
	}
	p.IsSorted = true
	m.purchases[id] = p
	return true, nil
}

func (m *Stock) InsertAllocations(_ context.Context, allocs []stock.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allocations = append(m.allocations, allocs...)
	return nil
}

func (m *Stock) AllocationsForPurchase(_ context.Context, id stock.PurchaseID) ([]stock.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []stock.Allocation
	for _, a := range m.allocations {
		if a.PurchaseID == id {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *Stock) AllocatedQuantity(_ context.Context, itemID stock.ItemID) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, a := range m.allocations {
		if a.ItemID == itemID {
			total = total.Add(a.Quantity)
		}
	}
	return total, nil
}

func (m *Stock) SoldQuantity(_ context.Context, itemID stock.ItemID) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, s := range m.sales {
		for _, line := range s.Lines {
			if line.ItemID == itemID {
				total = total.Add(line.Quantity)
			}
		}
	}
	return total, nil
}

func (m *Stock) WastedQuantity(_ context.Context, itemID stock.ItemID) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, w := range m.wastages {
		if w.ItemID == itemID {
			total = total.Add(w.Quantity)
		}
	}
	return total, nil
}

func (m *Stock) InsertSale(_ context.Context, sale stock.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, sale)
	return nil
}

func (m *Stock) InsertWastage(_ context.Context, w stock.Wastage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wastages = append(m.wastages, w)
	return nil
}

// WithTx simulates a transaction with a snapshot restored on error.
// The view reuses the parent's data without re-locking; the parent
// mutex is held for the whole transaction.
func (m *Stock) WithTx(ctx context.Context, fn func(stock.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshotLocked()
	view := &stockTxView{parent: m}
	if err := fn(view); err != nil {
		m.restoreLocked(snap)
		return err
	}
	return nil
}

type stockSnapshot struct {
	purchases   map[stock.PurchaseID]stock.Purchase
	order       []stock.PurchaseID
	allocations []stock.Allocation
	sales       []stock.Sale
	wastages    []stock.Wastage
}

func (m *Stock) snapshotLocked() stockSnapshot {
	purchases := make(map[stock.PurchaseID]stock.Purchase, len(m.purchases))
	for k, v := range m.purchases {
		purchases[k] = v
	}
	return stockSnapshot{
		purchases:   purchases,
		order:       append([]stock.PurchaseID{}, m.order...),
		allocations: append([]stock.Allocation{}, m.allocations...),
		sales:       append([]stock.Sale{}, m.sales...),
		wastages:    append([]stock.Wastage{}, m.wastages...),
	}
}

func (m *Stock) restoreLocked(s stockSnapshot) {
	m.purchases = s.purchases
	m.order = s.order
	m.allocations = s.allocations
	m.sales = s.sales
	m.wastages = s.wastages
}

// stockTxView operates on the parent's state while its mutex is held.
type stockTxView struct {
	parent *Stock
}

var _ stock.Store = (*stockTxView)(nil)

func (v *stockTxView) GetPurchase(_ context.Context, id stock.PurchaseID) (*stock.Purchase, error) {
	p, ok := v.parent.purchases[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (v *stockTxView) CreatePurchase(_ context.Context, p stock.Purchase) error {
	if _, exists := v.parent.purchases[p.ID]; !exists {
		v.parent.order = append(v.parent.order, p.ID)
	}
	v.parent.purchases[p.ID] = p
	return nil
}

func (v *stockTxView) ListPurchases(_ context.Context) ([]stock.Purchase, error) {
	result := make([]stock.Purchase, 0, len(v.parent.order))
	for _, id := range v.parent.order {
		result = append(result, v.parent.purchases[id])
	}
	return result, nil
}

func (v *stockTxView) MarkSorted(_ context.Context, id stock.PurchaseID) (bool, error) {
	return v.parent.markSortedLocked(id)
}

func (v *stockTxView) InsertAllocations(_ context.Context, allocs []stock.Allocation) error {
	v.parent.allocations = append(v.parent.allocations, allocs...)
	return nil
}

func (v *stockTxView) AllocationsForPurchase(_ context.Context, id stock.PurchaseID) ([]stock.Allocation, error) {
	var result []stock.Allocation
	for _, a := range v.parent.allocations {
		if a.PurchaseID == id {
			result = append(result, a)
		}
	}
	return result, nil
}

func (v *stockTxView) AllocatedQuantity(_ context.Context, itemID stock.ItemID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, a := range v.parent.allocations {
		if a.ItemID == itemID {
			total = total.Add(a.Quantity)
		}
	}
	return total, nil
}

func (v *stockTxView) SoldQuantity(_ context.Context, itemID stock.ItemID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, s := range v.parent.sales {
		for _, line := range s.Lines {
			if line.ItemID == itemID {
				total = total.Add(line.Quantity)
			}
		}
	}
	return total, nil
}

func (v *stockTxView) WastedQuantity(_ context.Context, itemID stock.ItemID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, w := range v.parent.wastages {
		if w.ItemID == itemID {
			total = total.Add(w.Quantity)
		}
	}
	return total, nil
}

func (v *stockTxView) InsertSale(_ context.Context, sale stock.Sale) error {
	v.parent.sales = append(v.parent.sales, sale)
	return nil
}

func (v *stockTxView) InsertWastage(_ context.Context, w stock.Wastage) error {
	v.parent.wastages = append(v.parent.wastages, w)
	return nil
}

func (v *stockTxView) WithTx(ctx context.Context, fn func(stock.Store) error) error {
	// Already inside a transaction.
	return fn(v)
}
