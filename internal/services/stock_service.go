package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"nihaarpos/internal/caching"
	"nihaarpos/internal/common"
	"nihaarpos/internal/models"
	"nihaarpos/internal/repositories"
)

// maxDecrementRetries bounds the read-check-write cycle. Contention here is
// a handful of devices on one product key, so a lost race resolves within a
// retry or two; exhausting the bound surfaces as a retryable conflict.
const maxDecrementRetries = 5

// StockService is the only code path allowed to change availableQuantity.
// Every mutation is a conditional update against the product's version, so
// two concurrent decrements can never both succeed past the available
// stock no matter how stale their initial reads were.
type StockService interface {
	// ReserveAndDecrement takes qty units of a product, failing without any
	// partial effect when stock is short.
	ReserveAndDecrement(ctx context.Context, productID string, qty int) error
	// Release is the compensating increment, used when a multi-product
	// commit fails after some line items were already decremented.
	Release(ctx context.Context, productID string, qty int) error
}

type stockService struct {
	catalogRepo repositories.CatalogRepository
	cacheSvc    caching.CacheService
}

func NewStockService(catalogRepo repositories.CatalogRepository, cacheSvc caching.CacheService) StockService {
	return &stockService{
		catalogRepo: catalogRepo,
		cacheSvc:    cacheSvc,
	}
}

func (s *stockService) ReserveAndDecrement(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: decrement quantity must be positive", common.ErrInvalidQuantity)
	}

	for attempt := 0; attempt < maxDecrementRetries; attempt++ {
		product, err := s.catalogRepo.Lookup(ctx, productID)
		if err != nil {
			return err
		}
		if product.Quantity < qty {
			return &common.InsufficientStockError{
				ProductID: productID,
				Available: product.Quantity,
				Requested: qty,
			}
		}

		_, err = s.catalogRepo.ConditionalUpdate(ctx, productID, product.Version, func(p *models.Product) error {
			if p.Quantity < qty {
				return &common.InsufficientStockError{
					ProductID: productID,
					Available: p.Quantity,
					Requested: qty,
				}
			}
			p.Quantity -= qty
			p.SoldToday += qty
			return nil
		})
		if errors.Is(err, common.ErrConflict) {
			// Another commit raced ahead; re-read and try again.
			continue
		}
		if err != nil {
			return err
		}

		s.invalidate(ctx, productID)
		return nil
	}

	return fmt.Errorf("decrement of product %s exceeded %d attempts: %w", productID, maxDecrementRetries, common.ErrConflict)
}

func (s *stockService) Release(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: release quantity must be positive", common.ErrInvalidQuantity)
	}

	for attempt := 0; attempt < maxDecrementRetries; attempt++ {
		product, err := s.catalogRepo.Lookup(ctx, productID)
		if err != nil {
			return err
		}

		_, err = s.catalogRepo.ConditionalUpdate(ctx, productID, product.Version, func(p *models.Product) error {
			p.Quantity += qty
			p.SoldToday -= qty
			if p.SoldToday < 0 {
				p.SoldToday = 0
			}
			return nil
		})
		if errors.Is(err, common.ErrConflict) {
			continue
		}
		if err != nil {
			return err
		}

		s.invalidate(ctx, productID)
		return nil
	}

	return fmt.Errorf("release of product %s exceeded %d attempts: %w", productID, maxDecrementRetries, common.ErrConflict)
}

func (s *stockService) invalidate(ctx context.Context, productID string) {
	if s.cacheSvc == nil {
		return
	}
	invalidateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.cacheSvc.DeleteProduct(invalidateCtx, productID); err != nil {
		log.Printf("Failed to invalidate cache for product %s: %v", productID, err)
	}
}
