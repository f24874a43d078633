package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nihaarpos/internal/common"
	"nihaarpos/internal/models"

	"github.com/jackc/pgx/v5"
)

// SalesRepository owns committed invoices. Records are append-only: there
// is no update or delete, and Append is idempotent on invoice number so a
// retried network call cannot duplicate a sale.
type SalesRepository interface {
	Append(ctx context.Context, record *models.SalesRecord) error
	GetByInvoiceNumber(ctx context.Context, invoiceNumber string) (*models.SalesRecord, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]*models.SalesRecord, error)
	List(ctx context.Context, limit, offset int) ([]*models.SalesRecord, error)
}

type salesRepo struct {
	db DB
}

func NewSalesRepo(db DB) SalesRepository {
	return &salesRepo{db: db}
}

func (r *salesRepo) Append(ctx context.Context, record *models.SalesRecord) error {
	items, err := json.Marshal(record.Items)
	if err != nil {
		return fmt.Errorf("encode line items: %w", err)
	}

	query := `
		INSERT INTO sales_records (invoice_number, recorded_at, customer_name, customer_mobile, customer_address, items, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (invoice_number) DO NOTHING
	`
	_, err = r.db.Exec(ctx, query, record.InvoiceNumber, record.RecordedAt, record.CustomerName, record.CustomerMobile, record.CustomerAddress, items, record.TotalAmount)
	return err
}

func scanSalesRecord(row pgx.Row) (*models.SalesRecord, error) {
	record := &models.SalesRecord{}
	var items []byte
	err := row.Scan(&record.InvoiceNumber, &record.RecordedAt, &record.CustomerName, &record.CustomerMobile, &record.CustomerAddress, &items, &record.TotalAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(items, &record.Items); err != nil {
		return nil, fmt.Errorf("decode line items: %w", err)
	}
	return record, nil
}

func (r *salesRepo) GetByInvoiceNumber(ctx context.Context, invoiceNumber string) (*models.SalesRecord, error) {
	query := `
		SELECT invoice_number, recorded_at, customer_name, customer_mobile, customer_address, items, total_amount
		FROM sales_records
		WHERE invoice_number = $1
	`
	return scanSalesRecord(r.db.QueryRow(ctx, query, invoiceNumber))
}

func (r *salesRepo) ListByDateRange(ctx context.Context, start, end time.Time) ([]*models.SalesRecord, error) {
	query := `
		SELECT invoice_number, recorded_at, customer_name, customer_mobile, customer_address, items, total_amount
		FROM sales_records
		WHERE recorded_at >= $1 AND recorded_at < $2
		ORDER BY recorded_at DESC
	`
	rows, err := r.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSalesRecords(rows)
}

func (r *salesRepo) List(ctx context.Context, limit, offset int) ([]*models.SalesRecord, error) {
	query := `
		SELECT invoice_number, recorded_at, customer_name, customer_mobile, customer_address, items, total_amount
		FROM sales_records
		ORDER BY recorded_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSalesRecords(rows)
}

func collectSalesRecords(rows pgx.Rows) ([]*models.SalesRecord, error) {
	var records []*models.SalesRecord
	for rows.Next() {
		record := &models.SalesRecord{}
		var items []byte
		if err := rows.Scan(&record.InvoiceNumber, &record.RecordedAt, &record.CustomerName, &record.CustomerMobile, &record.CustomerAddress, &items, &record.TotalAmount); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &record.Items); err != nil {
			return nil, fmt.Errorf("decode line items: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
