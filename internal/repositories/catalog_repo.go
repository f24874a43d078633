package repositories

import (
	"context"
	"errors"
	"fmt"

	"nihaarpos/internal/common"
	"nihaarpos/internal/models"

	"github.com/jackc/pgx/v5"
)

// CatalogRepository is the catalog store boundary: point lookup, versioned
// conditional update, create, soft delete and full scan. The conditional
// update is the single primitive all stock mutation is built on.
type CatalogRepository interface {
	Lookup(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// ConditionalUpdate applies mutate to the stored product only if its
	// current version equals expectedVersion, returning the new version.
	// A concurrent writer surfaces as common.ErrConflict so the caller can
	// re-read and retry.
	ConditionalUpdate(ctx context.Context, id string, expectedVersion int64, mutate func(*models.Product) error) (int64, error)
	Retire(ctx context.Context, id string) error
	ListAll(ctx context.Context, includeRetired bool) ([]*models.Product, error)
	// ResetDailyCounters zeroes sold_today across the catalog. Run once per
	// local calendar day by the scheduler.
	ResetDailyCounters(ctx context.Context) (int64, error)
}

type catalogRepo struct {
	db DB
}

func NewCatalogRepo(db DB) CatalogRepository {
	return &catalogRepo{db: db}
}

const productColumns = `id, name, description, unit_price, commission, quantity, sold_today, supplier, image_url, status, version, created_at, updated_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	product := &models.Product{}
	err := row.Scan(&product.ID, &product.Name, &product.Description, &product.UnitPrice, &product.Commission, &product.Quantity, &product.SoldToday, &product.Supplier, &product.ImageURL, &product.Status, &product.Version, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

func (r *catalogRepo) Lookup(ctx context.Context, id string) (*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1 AND status = $2
	`
	return scanProduct(r.db.QueryRow(ctx, query, id, models.ProductStatusActive))
}

func (r *catalogRepo) Create(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (id, name, description, unit_price, commission, quantity, sold_today, supplier, image_url, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, product.ID, product.Name, product.Description, product.UnitPrice, product.Commission, product.Quantity, product.SoldToday, product.Supplier, product.ImageURL, models.ProductStatusActive)
	return err
}

func (r *catalogRepo) ConditionalUpdate(ctx context.Context, id string, expectedVersion int64, mutate func(*models.Product) error) (int64, error) {
	current, err := r.Lookup(ctx, id)
	if err != nil {
		return 0, err
	}
	if current.Version != expectedVersion {
		return 0, common.ErrConflict
	}
	if err := mutate(current); err != nil {
		return 0, err
	}

	query := `
		UPDATE products
		SET name = $1, description = $2, unit_price = $3, commission = $4, quantity = $5, sold_today = $6, supplier = $7, image_url = $8, status = $9, version = version + 1, updated_at = NOW()
		WHERE id = $10 AND version = $11
	`
	tag, err := r.db.Exec(ctx, query, current.Name, current.Description, current.UnitPrice, current.Commission, current.Quantity, current.SoldToday, current.Supplier, current.ImageURL, current.Status, id, expectedVersion)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		// Lost the race between our read and the write.
		return 0, common.ErrConflict
	}
	return expectedVersion + 1, nil
}

func (r *catalogRepo) Retire(ctx context.Context, id string) error {
	query := `
		UPDATE products
		SET status = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	tag, err := r.db.Exec(ctx, query, models.ProductStatusRetired, id, models.ProductStatusActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *catalogRepo) ListAll(ctx context.Context, includeRetired bool) ([]*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE status = $1
		ORDER BY created_at DESC
	`
	args := []any{models.ProductStatusActive}
	if includeRetired {
		query = `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC
	`
		args = nil
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product := &models.Product{}
		if err := rows.Scan(&product.ID, &product.Name, &product.Description, &product.UnitPrice, &product.Commission, &product.Quantity, &product.SoldToday, &product.Supplier, &product.ImageURL, &product.Status, &product.Version, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *catalogRepo) ResetDailyCounters(ctx context.Context) (int64, error) {
	query := `
		UPDATE products
		SET sold_today = 0, version = version + 1, updated_at = NOW()
		WHERE sold_today <> 0
	`
	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("reset daily counters: %w", err)
	}
	return tag.RowsAffected(), nil
}
