package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nihaarpos/internal/common"
	"nihaarpos/internal/models"
	"nihaarpos/testhelpers"
)

func seedCatalog(products ...*models.Product) *testhelpers.MemoryCatalog {
	catalog := testhelpers.NewMemoryCatalog()
	for _, p := range products {
		if p.Version == 0 {
			p.Version = 1
		}
		catalog.Seed(p)
	}
	return catalog
}

func TestReserveAndDecrement_Success(t *testing.T) {
	catalog := seedCatalog(&models.Product{ID: "p1", Name: "Soap", Quantity: 10})
	svc := NewStockService(catalog, nil)

	err := svc.ReserveAndDecrement(context.Background(), "p1", 3)
	require.NoError(t, err)

	stored := catalog.Get("p1")
	assert.Equal(t, 7, stored.Quantity)
	assert.Equal(t, 3, stored.SoldToday)
}

func TestReserveAndDecrement_InsufficientStock(t *testing.T) {
	catalog := seedCatalog(&models.Product{ID: "p1", Quantity: 2})
	svc := NewStockService(catalog, nil)

	err := svc.ReserveAndDecrement(context.Background(), "p1", 5)

	var insufficient *common.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "p1", insufficient.ProductID)
	assert.Equal(t, 2, insufficient.Available)
	assert.Equal(t, 5, insufficient.Requested)

	// Failure leaves the document untouched.
	stored := catalog.Get("p1")
	assert.Equal(t, 2, stored.Quantity)
	assert.Equal(t, 0, stored.SoldToday)
}

func TestReserveAndDecrement_RejectsNonPositiveQuantity(t *testing.T) {
	svc := NewStockService(seedCatalog(), nil)

	assert.ErrorIs(t, svc.ReserveAndDecrement(context.Background(), "p1", 0), common.ErrInvalidQuantity)
	assert.ErrorIs(t, svc.ReserveAndDecrement(context.Background(), "p1", -2), common.ErrInvalidQuantity)
}

func TestReserveAndDecrement_RetryBoundExhausted(t *testing.T) {
	catalog := seedCatalog(&models.Product{ID: "p1", Quantity: 10})
	catalog.ForceConflicts = maxDecrementRetries
	svc := NewStockService(catalog, nil)

	err := svc.ReserveAndDecrement(context.Background(), "p1", 1)
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, 10, catalog.Get("p1").Quantity)
}

func TestReserveAndDecrement_RecoversFromConflict(t *testing.T) {
	catalog := seedCatalog(&models.Product{ID: "p1", Quantity: 10})
	catalog.ForceConflicts = maxDecrementRetries - 1
	svc := NewStockService(catalog, nil)

	err := svc.ReserveAndDecrement(context.Background(), "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, 9, catalog.Get("p1").Quantity)
}

// Concurrent decrements against ten units can never sell more than ten,
// however the races fall out.
func TestReserveAndDecrement_NeverOversells(t *testing.T) {
	const initialStock = 10
	const workers = 25

	catalog := seedCatalog(&models.Product{ID: "p1", Quantity: initialStock})
	svc := NewStockService(catalog, nil)

	var successes atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.ReserveAndDecrement(context.Background(), "p1", 1); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	stored := catalog.Get("p1")
	sold := int(successes.Load())
	assert.LessOrEqual(t, sold, initialStock)
	assert.Equal(t, initialStock-sold, stored.Quantity)
	assert.Equal(t, sold, stored.SoldToday)
}

func TestRelease_RestoresStock(t *testing.T) {
	catalog := seedCatalog(&models.Product{ID: "p1", Quantity: 7, SoldToday: 3})
	svc := NewStockService(catalog, nil)

	err := svc.Release(context.Background(), "p1", 3)
	require.NoError(t, err)

	stored := catalog.Get("p1")
	assert.Equal(t, 10, stored.Quantity)
	assert.Equal(t, 0, stored.SoldToday)
}

func TestRelease_ClampsSoldTodayAtZero(t *testing.T) {
	// The midnight reset can land between a decrement and its compensating
	// release; the counter must not go negative.
	catalog := seedCatalog(&models.Product{ID: "p1", Quantity: 7, SoldToday: 1})
	svc := NewStockService(catalog, nil)

	err := svc.Release(context.Background(), "p1", 3)
	require.NoError(t, err)

	stored := catalog.Get("p1")
	assert.Equal(t, 10, stored.Quantity)
	assert.Equal(t, 0, stored.SoldToday)
}

func TestRelease_UnknownProduct(t *testing.T) {
	svc := NewStockService(seedCatalog(), nil)

	err := svc.Release(context.Background(), "missing", 1)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}
