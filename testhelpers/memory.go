package testhelpers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"nihaarpos/internal/common"
	"nihaarpos/internal/models"
)

// MemoryCatalog is an in-memory catalog store with the same conditional
// update contract as the Postgres-backed repository: a version mismatch
// surfaces as common.ErrConflict, and every successful update bumps the
// version by one. Safe for concurrent use.
type MemoryCatalog struct {
	mu       sync.Mutex
	products map[string]*models.Product

	// ForceConflicts makes the next N ConditionalUpdate calls fail with
	// common.ErrConflict before touching the document.
	ForceConflicts int
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{products: make(map[string]*models.Product)}
}

// Seed inserts a product directly, bypassing validation.
func (m *MemoryCatalog) Seed(product *models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if product.Status == "" {
		product.Status = models.ProductStatusActive
	}
	m.products[product.ID] = cloneProduct(product)
}

// Get returns the stored document without the active-status filter, for
// asserting on retired products and raw counters.
func (m *MemoryCatalog) Get(id string) *models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		return cloneProduct(p)
	}
	return nil
}

func (m *MemoryCatalog) Lookup(ctx context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.Status != models.ProductStatusActive {
		return nil, common.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (m *MemoryCatalog) Create(ctx context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; ok {
		return fmt.Errorf("product %s already exists: %w", product.ID, common.ErrConflict)
	}
	m.products[product.ID] = cloneProduct(product)
	return nil
}

func (m *MemoryCatalog) ConditionalUpdate(ctx context.Context, id string, expectedVersion int64, mutate func(*models.Product) error) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ForceConflicts > 0 {
		m.ForceConflicts--
		return 0, common.ErrConflict
	}

	p, ok := m.products[id]
	if !ok || p.Status != models.ProductStatusActive {
		return 0, common.ErrNotFound
	}
	if p.Version != expectedVersion {
		return 0, common.ErrConflict
	}

	next := cloneProduct(p)
	if err := mutate(next); err != nil {
		return 0, err
	}
	next.Version = expectedVersion + 1
	next.UpdatedAt = time.Now()
	m.products[id] = next
	return next.Version, nil
}

func (m *MemoryCatalog) Retire(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.Status != models.ProductStatusActive {
		return common.ErrNotFound
	}
	p.Status = models.ProductStatusRetired
	p.Version++
	return nil
}

func (m *MemoryCatalog) ListAll(ctx context.Context, includeRetired bool) ([]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Product
	for _, p := range m.products {
		if !includeRetired && p.Status != models.ProductStatusActive {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryCatalog) ResetDailyCounters(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var reset int64
	for _, p := range m.products {
		if p.SoldToday != 0 {
			p.SoldToday = 0
			p.Version++
			reset++
		}
	}
	return reset, nil
}

func cloneProduct(p *models.Product) *models.Product {
	cp := *p
	if p.ImageURL != nil {
		url := *p.ImageURL
		cp.ImageURL = &url
	}
	return &cp
}

// MemorySales is an in-memory sales ledger, append-only and idempotent on
// invoice number like the Postgres-backed repository.
type MemorySales struct {
	mu      sync.Mutex
	records []*models.SalesRecord

	// AppendErr, when set, is returned by every Append call.
	AppendErr error
}

func NewMemorySales() *MemorySales {
	return &MemorySales{}
}

func (m *MemorySales) Append(ctx context.Context, record *models.SalesRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	for _, existing := range m.records {
		if existing.InvoiceNumber == record.InvoiceNumber {
			return nil
		}
	}
	cp := *record
	cp.Items = append([]models.SoldItem(nil), record.Items...)
	m.records = append(m.records, &cp)
	return nil
}

func (m *MemorySales) GetByInvoiceNumber(ctx context.Context, invoiceNumber string) (*models.SalesRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.InvoiceNumber == invoiceNumber {
			cp := *record
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *MemorySales) ListByDateRange(ctx context.Context, start, end time.Time) ([]*models.SalesRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SalesRecord
	for _, record := range m.records {
		if !record.RecordedAt.Before(start) && record.RecordedAt.Before(end) {
			cp := *record
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemorySales) List(ctx context.Context, limit, offset int) ([]*models.SalesRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := append([]*models.SalesRecord(nil), m.records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RecordedAt.After(sorted[j].RecordedAt) })
	if offset >= len(sorted) {
		return nil, nil
	}
	sorted = sorted[offset:]
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// Count returns the number of stored records.
func (m *MemorySales) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// MemorySequence hands out invoice numbers from an in-memory counter in
// the same INV-YYYY-MM-NNNNNN shape as the database sequence.
type MemorySequence struct {
	mu   sync.Mutex
	next map[string]int64

	// Err, when set, is returned by every NextInvoiceNumber call.
	Err error
}

func NewMemorySequence() *MemorySequence {
	return &MemorySequence{next: make(map[string]int64)}
}

func (m *MemorySequence) NextInvoiceNumber(ctx context.Context, issuedAt time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	yearMonth := issuedAt.Format("2006-01")
	m.next[yearMonth]++
	return fmt.Sprintf("INV-%s-%06d", yearMonth, m.next[yearMonth]), nil
}
