package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"nihaarpos/internal/common"
	"nihaarpos/internal/models"
)

type CatalogRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    CatalogRepository
	context context.Context
}

func (suite *CatalogRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewCatalogRepo(mock)
	suite.context = context.Background()
}

func (suite *CatalogRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestCatalogRepoTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogRepoTestSuite))
}

func productRows(p *models.Product) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "description", "unit_price", "commission", "quantity", "sold_today", "supplier", "image_url", "status", "version", "created_at", "updated_at"}).
		AddRow(p.ID, p.Name, p.Description, p.UnitPrice, p.Commission, p.Quantity, p.SoldToday, p.Supplier, p.ImageURL, p.Status, p.Version, p.CreatedAt, p.UpdatedAt)
}

func activeProduct(id string, quantity int, version int64) *models.Product {
	return &models.Product{
		ID:        id,
		Name:      "Soap",
		UnitPrice: 40,
		Quantity:  quantity,
		Supplier:  "Acme",
		Status:    models.ProductStatusActive,
		Version:   version,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (suite *CatalogRepoTestSuite) TestLookup_Success() {
	product := activeProduct("p1", 10, 3)

	suite.mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND status = \$2`).
		WithArgs("p1", models.ProductStatusActive).
		WillReturnRows(productRows(product))

	got, err := suite.repo.Lookup(suite.context, "p1")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "p1", got.ID)
	assert.Equal(suite.T(), int64(3), got.Version)
	assert.Equal(suite.T(), 10, got.Quantity)
}

func (suite *CatalogRepoTestSuite) TestLookup_NotFound() {
	suite.mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND status = \$2`).
		WithArgs("missing", models.ProductStatusActive).
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.Lookup(suite.context, "missing")
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *CatalogRepoTestSuite) TestCreate_Success() {
	product := activeProduct("p1", 10, 0)

	suite.mock.ExpectExec(`INSERT INTO products (.+) VALUES (.+)`).
		WithArgs(product.ID, product.Name, product.Description, product.UnitPrice, product.Commission, product.Quantity, product.SoldToday, product.Supplier, product.ImageURL, models.ProductStatusActive).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, product)
	assert.NoError(suite.T(), err)
}

func (suite *CatalogRepoTestSuite) TestConditionalUpdate_Success() {
	product := activeProduct("p1", 10, 3)

	suite.mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND status = \$2`).
		WithArgs("p1", models.ProductStatusActive).
		WillReturnRows(productRows(product))
	suite.mock.ExpectExec(`UPDATE products SET (.+) WHERE id = \$10 AND version = \$11`).
		WithArgs(product.Name, product.Description, product.UnitPrice, product.Commission, 8, 2, product.Supplier, product.ImageURL, product.Status, "p1", int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	version, err := suite.repo.ConditionalUpdate(suite.context, "p1", 3, func(p *models.Product) error {
		p.Quantity -= 2
		p.SoldToday += 2
		return nil
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(4), version)
}

func (suite *CatalogRepoTestSuite) TestConditionalUpdate_StaleVersion() {
	product := activeProduct("p1", 10, 5)

	suite.mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND status = \$2`).
		WithArgs("p1", models.ProductStatusActive).
		WillReturnRows(productRows(product))

	// Caller read version 3, the store has moved to 5: no write happens.
	_, err := suite.repo.ConditionalUpdate(suite.context, "p1", 3, func(p *models.Product) error {
		p.Quantity--
		return nil
	})
	assert.ErrorIs(suite.T(), err, common.ErrConflict)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *CatalogRepoTestSuite) TestConditionalUpdate_LostRaceOnWrite() {
	product := activeProduct("p1", 10, 3)

	suite.mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND status = \$2`).
		WithArgs("p1", models.ProductStatusActive).
		WillReturnRows(productRows(product))
	suite.mock.ExpectExec(`UPDATE products SET (.+) WHERE id = \$10 AND version = \$11`).
		WithArgs(product.Name, product.Description, product.UnitPrice, product.Commission, 9, 1, product.Supplier, product.ImageURL, product.Status, "p1", int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	_, err := suite.repo.ConditionalUpdate(suite.context, "p1", 3, func(p *models.Product) error {
		p.Quantity--
		p.SoldToday++
		return nil
	})
	assert.ErrorIs(suite.T(), err, common.ErrConflict)
}

func (suite *CatalogRepoTestSuite) TestConditionalUpdate_MutateErrorAborts() {
	product := activeProduct("p1", 0, 3)

	suite.mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND status = \$2`).
		WithArgs("p1", models.ProductStatusActive).
		WillReturnRows(productRows(product))

	wantErr := errors.New("no stock")
	_, err := suite.repo.ConditionalUpdate(suite.context, "p1", 3, func(p *models.Product) error {
		return wantErr
	})
	assert.ErrorIs(suite.T(), err, wantErr)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *CatalogRepoTestSuite) TestRetire_Success() {
	suite.mock.ExpectExec(`UPDATE products SET status = \$1, version = version \+ 1, updated_at = NOW\(\) WHERE id = \$2 AND status = \$3`).
		WithArgs(models.ProductStatusRetired, "p1", models.ProductStatusActive).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.Retire(suite.context, "p1")
	assert.NoError(suite.T(), err)
}

func (suite *CatalogRepoTestSuite) TestRetire_AlreadyRetired() {
	suite.mock.ExpectExec(`UPDATE products SET status = \$1, version = version \+ 1, updated_at = NOW\(\) WHERE id = \$2 AND status = \$3`).
		WithArgs(models.ProductStatusRetired, "p1", models.ProductStatusActive).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.Retire(suite.context, "p1")
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *CatalogRepoTestSuite) TestResetDailyCounters() {
	suite.mock.ExpectExec(`UPDATE products SET sold_today = 0, version = version \+ 1, updated_at = NOW\(\) WHERE sold_today <> 0`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	reset, err := suite.repo.ResetDailyCounters(suite.context)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(4), reset)
}
