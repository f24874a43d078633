package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"nihaarpos/internal/common"
	"nihaarpos/internal/models"
	"nihaarpos/internal/repositories"
)

// InvoiceServiceInterface is the invoice engine boundary.
type InvoiceServiceInterface interface {
	// GenerateInvoice runs a draft through Validating and Committing and
	// returns the persisted sales record. On any failure the catalog is
	// left either untouched or fully restored, with one exception: a
	// sales-ledger append failure after the decrements is returned as a
	// *common.PersistenceError for manual reconciliation.
	GenerateInvoice(ctx context.Context, draft models.InvoiceDraft) (*models.SalesRecord, error)
	GetByInvoiceNumber(ctx context.Context, invoiceNumber string) (*models.SalesRecord, error)
	ListSales(ctx context.Context, limit, offset int) ([]*models.SalesRecord, error)
}

type invoiceService struct {
	catalogRepo  repositories.CatalogRepository
	salesRepo    repositories.SalesRepository
	sequenceRepo repositories.SequenceRepository
	stockSvc     StockService
	now          func() time.Time
}

func NewInvoiceService(catalogRepo repositories.CatalogRepository, salesRepo repositories.SalesRepository, sequenceRepo repositories.SequenceRepository, stockSvc StockService) InvoiceServiceInterface {
	return &invoiceService{
		catalogRepo:  catalogRepo,
		salesRepo:    salesRepo,
		sequenceRepo: sequenceRepo,
		stockSvc:     stockSvc,
		now:          time.Now,
	}
}

func (s *invoiceService) GenerateInvoice(ctx context.Context, draft models.InvoiceDraft) (*models.SalesRecord, error) {
	// Validating: no side effects past this block until the first decrement.
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	items, err := s.revalidateStock(ctx, draft.Items)
	if err != nil {
		return nil, err
	}

	// Last cancellation point. Once Committing starts, cancellation is
	// handled through the rollback path, never by abandoning the invoice.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	issuedAt := s.now()
	invoiceNumber := s.assignInvoiceNumber(ctx, issuedAt)

	// Committing: decrement in ascending product order so every engine
	// instance touches contended products in the same sequence.
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	for idx, item := range items {
		if err := s.stockSvc.ReserveAndDecrement(ctx, item.ProductID, item.Quantity); err != nil {
			releaseErr := s.rollback(ctx, items[:idx])
			return nil, &common.RolledBackError{
				ProductID:      item.ProductID,
				Cause:          err,
				ReleaseFailure: releaseErr,
			}
		}
	}

	record := &models.SalesRecord{
		InvoiceNumber:   invoiceNumber,
		RecordedAt:      issuedAt,
		CustomerName:    draft.CustomerName,
		CustomerMobile:  draft.CustomerMobile,
		CustomerAddress: draft.CustomerAddress,
		Items:           items,
	}
	record.TotalAmount = record.Total()

	// Committed. The append is idempotent on invoice number, but a failure
	// here is not rolled back and not retried: stock is already gone, and a
	// blind retry could double-append. The operator reconciles by hand.
	if err := s.salesRepo.Append(ctx, record); err != nil {
		return nil, &common.PersistenceError{InvoiceNumber: invoiceNumber, Cause: err}
	}

	return record, nil
}

func validateDraft(draft models.InvoiceDraft) error {
	if strings.TrimSpace(draft.CustomerName) == "" {
		return fmt.Errorf("%w: customer name is required", common.ErrInvalidInvoice)
	}
	if len(draft.Items) == 0 {
		return fmt.Errorf("%w: no line items", common.ErrInvalidInvoice)
	}
	for _, item := range draft.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: product %s has quantity %d", common.ErrInvalidInvoice, item.ProductID, item.Quantity)
		}
	}
	return nil
}

// revalidateStock re-reads every product and freezes the sold line items
// from the current document, not from the possibly stale draft. The checks
// here cannot reserve anything; the decrement loop re-verifies under its
// version guard.
func (s *invoiceService) revalidateStock(ctx context.Context, lineItems []models.LineItem) ([]models.SoldItem, error) {
	items := make([]models.SoldItem, 0, len(lineItems))
	for _, li := range lineItems {
		product, err := s.catalogRepo.Lookup(ctx, li.ProductID)
		if err != nil {
			return nil, fmt.Errorf("validate product %s: %w", li.ProductID, err)
		}
		if product.Quantity < li.Quantity {
			return nil, &common.OutOfStockError{
				ProductID: li.ProductID,
				Available: product.Quantity,
				Requested: li.Quantity,
			}
		}
		items = append(items, models.SoldItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.UnitPrice,
			Quantity:  li.Quantity,
			Supplier:  product.Supplier,
		})
	}
	return items, nil
}

// assignInvoiceNumber draws from the monotonic sequence, falling back to a
// collision-resistant token when the counter is unreachable. A sale is
// never failed over numbering alone.
func (s *invoiceService) assignInvoiceNumber(ctx context.Context, issuedAt time.Time) string {
	number, err := s.sequenceRepo.NextInvoiceNumber(ctx, issuedAt)
	if err != nil {
		log.Printf("Invoice sequence unavailable, using random token: %v", err)
		return fmt.Sprintf("INV-%s", uuid.NewString())
	}
	return number
}

// rollback releases every already-decremented line item, most recent
// first. It runs on a context detached from the request so a client
// timeout cannot strand a half-committed invoice.
func (s *invoiceService) rollback(ctx context.Context, decremented []models.SoldItem) error {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	var firstErr error
	for i := len(decremented) - 1; i >= 0; i-- {
		item := decremented[i]
		if err := s.stockSvc.Release(releaseCtx, item.ProductID, item.Quantity); err != nil {
			log.Printf("Compensating release failed for product %s (qty %d): %v", item.ProductID, item.Quantity, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("release product %s: %w", item.ProductID, err)
			}
		}
	}
	return firstErr
}

func (s *invoiceService) GetByInvoiceNumber(ctx context.Context, invoiceNumber string) (*models.SalesRecord, error) {
	return s.salesRepo.GetByInvoiceNumber(ctx, invoiceNumber)
}

func (s *invoiceService) ListSales(ctx context.Context, limit, offset int) ([]*models.SalesRecord, error) {
	return s.salesRepo.List(ctx, limit, offset)
}
