package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"nihaarpos/internal/caching"
	"nihaarpos/internal/common"
	"nihaarpos/internal/models"
	"nihaarpos/internal/repositories"
)

const (
	productCacheTTL    = 10 * time.Minute
	productImageBucket = "product-images"
	presignedURLExpiry = 24 * time.Hour
)

// ProductUpdate carries an admin edit. Nil fields are left unchanged.
// Quantity edits here are admin restocks/corrections; sale decrements go
// through the stock ledger only.
type ProductUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	Commission  *float64 `json:"commission,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
	Supplier    *string  `json:"supplier,omitempty"`
}

// ProductService is the admin-facing catalog surface: create, edit,
// retire, list and the point lookup behind a scanned QR payload.
type ProductService interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, update ProductUpdate) (*models.Product, error)
	RetireProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, includeRetired bool) ([]*models.Product, error)
	AttachImage(ctx context.Context, id string, reader io.Reader, size int64, contentType string) (string, error)
}

type productService struct {
	catalogRepo repositories.CatalogRepository
	cacheSvc    caching.CacheService
	minioSvc    MinioService
}

func NewProductService(catalogRepo repositories.CatalogRepository, cacheSvc caching.CacheService, minioSvc MinioService) ProductService {
	return &productService{
		catalogRepo: catalogRepo,
		cacheSvc:    cacheSvc,
		minioSvc:    minioSvc,
	}
}

func (s *productService) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := common.ValidateRequiredString(product.Name, "name"); err != nil {
		return err
	}
	if err := common.ValidateNonNegativeFloat(product.UnitPrice, "unit price", 10000000); err != nil {
		return err
	}
	if err := common.ValidateNonNegativeFloat(product.Commission, "commission", 10000000); err != nil {
		return err
	}
	if product.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative")
	}

	if product.ID == "" {
		// The id becomes the QR payload printed on the tag.
		product.ID = uuid.NewString()
	}
	product.Status = models.ProductStatusActive
	product.SoldToday = 0

	if err := s.catalogRepo.Create(ctx, product); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	s.invalidateList(ctx)
	return nil
}

// GetProduct reads through the cache. The cached quantity is a browsing
// hint; invoice validation and decrements always hit the store.
func (s *productService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if cached, err := s.cacheSvc.GetProduct(ctx, id); cached != nil {
		return cached, nil
	} else if err != nil {
		log.Printf("Cache error for product %s: %v", id, err)
	}

	product, err := s.catalogRepo.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cacheSvc.SetProduct(ctx, product, productCacheTTL); err != nil {
		log.Printf("Failed to cache product %s: %v", id, err)
	}
	return product, nil
}

// UpdateProduct applies an admin edit through the same conditional-update
// primitive as the stock ledger, so an edit racing a sale loses cleanly
// and retries instead of clobbering the decrement.
func (s *productService) UpdateProduct(ctx context.Context, id string, update ProductUpdate) (*models.Product, error) {
	for attempt := 0; attempt < maxDecrementRetries; attempt++ {
		current, err := s.catalogRepo.Lookup(ctx, id)
		if err != nil {
			return nil, err
		}

		_, err = s.catalogRepo.ConditionalUpdate(ctx, id, current.Version, func(p *models.Product) error {
			return applyUpdate(p, update)
		})
		if errors.Is(err, common.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if err := s.cacheSvc.DeleteProduct(ctx, id); err != nil {
			log.Printf("Failed to invalidate cache for product %s: %v", id, err)
		}
		return s.catalogRepo.Lookup(ctx, id)
	}
	return nil, fmt.Errorf("update of product %s exceeded %d attempts: %w", id, maxDecrementRetries, common.ErrConflict)
}

func applyUpdate(p *models.Product, update ProductUpdate) error {
	if update.Name != nil {
		if err := common.ValidateRequiredString(*update.Name, "name"); err != nil {
			return err
		}
		p.Name = *update.Name
	}
	if update.Description != nil {
		p.Description = *update.Description
	}
	if update.UnitPrice != nil {
		if err := common.ValidateNonNegativeFloat(*update.UnitPrice, "unit price", 10000000); err != nil {
			return err
		}
		p.UnitPrice = *update.UnitPrice
	}
	if update.Commission != nil {
		if err := common.ValidateNonNegativeFloat(*update.Commission, "commission", 10000000); err != nil {
			return err
		}
		p.Commission = *update.Commission
	}
	if update.Quantity != nil {
		if *update.Quantity < 0 {
			return fmt.Errorf("quantity cannot be negative")
		}
		p.Quantity = *update.Quantity
	}
	if update.Supplier != nil {
		p.Supplier = *update.Supplier
	}
	return nil
}

// RetireProduct soft-deletes: the row stays so historical sales records
// keep resolving, but the product disappears from lookups and can no
// longer be sold.
func (s *productService) RetireProduct(ctx context.Context, id string) error {
	if err := s.catalogRepo.Retire(ctx, id); err != nil {
		return err
	}
	if err := s.cacheSvc.DeleteProduct(ctx, id); err != nil {
		log.Printf("Failed to invalidate cache for retired product %s: %v", id, err)
	}
	return nil
}

func (s *productService) ListProducts(ctx context.Context, includeRetired bool) ([]*models.Product, error) {
	if !includeRetired {
		if cached, err := s.cacheSvc.GetProductList(ctx); cached != nil {
			return cached, nil
		} else if err != nil {
			log.Printf("Cache error for product list: %v", err)
		}
	}

	products, err := s.catalogRepo.ListAll(ctx, includeRetired)
	if err != nil {
		return nil, err
	}

	if !includeRetired {
		if err := s.cacheSvc.SetProductList(ctx, products, productCacheTTL); err != nil {
			log.Printf("Failed to cache product list: %v", err)
		}
	}
	return products, nil
}

// AttachImage uploads the image to object storage and records its URL on
// the product.
func (s *productService) AttachImage(ctx context.Context, id string, reader io.Reader, size int64, contentType string) (string, error) {
	if _, err := s.catalogRepo.Lookup(ctx, id); err != nil {
		return "", err
	}

	if err := s.minioSvc.EnsureBucketExists(ctx, productImageBucket); err != nil {
		return "", fmt.Errorf("ensure image bucket: %w", err)
	}

	objectName := fmt.Sprintf("%s-%d", id, time.Now().UnixNano())
	if err := s.minioSvc.Upload(ctx, productImageBucket, objectName, contentType, reader, size); err != nil {
		return "", fmt.Errorf("upload product image: %w", err)
	}

	url, err := s.minioSvc.GetPresignedURL(productImageBucket, objectName, presignedURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign product image: %w", err)
	}

	for attempt := 0; attempt < maxDecrementRetries; attempt++ {
		current, err := s.catalogRepo.Lookup(ctx, id)
		if err != nil {
			return "", err
		}
		_, err = s.catalogRepo.ConditionalUpdate(ctx, id, current.Version, func(p *models.Product) error {
			p.ImageURL = &url
			return nil
		})
		if errors.Is(err, common.ErrConflict) {
			continue
		}
		if err != nil {
			return "", err
		}
		if err := s.cacheSvc.DeleteProduct(ctx, id); err != nil {
			log.Printf("Failed to invalidate cache for product %s: %v", id, err)
		}
		return url, nil
	}
	return "", fmt.Errorf("attach image to product %s exceeded %d attempts: %w", id, maxDecrementRetries, common.ErrConflict)
}

func (s *productService) invalidateList(ctx context.Context) {
	if err := s.cacheSvc.DeleteProductList(ctx); err != nil {
		log.Printf("Failed to invalidate product list cache: %v", err)
	}
}
