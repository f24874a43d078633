package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"nihaarpos/internal/models"
	"nihaarpos/internal/repositories"
)

// ReportService builds the sales report model and renders its CSV form.
// Row construction and partitioning are pure over their inputs, so the
// export is deterministic and testable without storage.
type ReportService interface {
	BuildSalesReport(ctx context.Context, now time.Time) (*models.SalesReport, error)
	WriteCSV(w io.Writer, report *models.SalesReport) error
}

type reportService struct {
	catalogRepo repositories.CatalogRepository
	salesRepo   repositories.SalesRepository
}

func NewReportService(catalogRepo repositories.CatalogRepository, salesRepo repositories.SalesRepository) ReportService {
	return &reportService{
		catalogRepo: catalogRepo,
		salesRepo:   salesRepo,
	}
}

func (s *reportService) BuildSalesReport(ctx context.Context, now time.Time) (*models.SalesReport, error) {
	products, err := s.catalogRepo.ListAll(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list products for report: %w", err)
	}

	// All history up to now; the ledger only ever grows forward.
	records, err := s.salesRepo.ListByDateRange(ctx, time.Time{}, now.Add(time.Second))
	if err != nil {
		return nil, fmt.Errorf("list sales for report: %w", err)
	}

	today, historical := PartitionToday(records, now)

	return &models.SalesReport{
		GeneratedAt:      now,
		Products:         buildProductRows(products),
		TodayOrders:      buildOrderRows(today),
		HistoricalOrders: buildOrderRows(historical),
	}, nil
}

// PartitionToday splits records into today's and historical orders using
// the caller's local calendar day, not a UTC-naive 24h window: a record
// from 23:59 yesterday is historical even if it is two minutes old.
func PartitionToday(records []*models.SalesRecord, today time.Time) (todayRecords, historical []*models.SalesRecord) {
	y, m, d := today.Date()
	for _, record := range records {
		ry, rm, rd := record.RecordedAt.In(today.Location()).Date()
		if ry == y && rm == m && rd == d {
			todayRecords = append(todayRecords, record)
		} else {
			historical = append(historical, record)
		}
	}
	return todayRecords, historical
}

func buildProductRows(products []*models.Product) []models.ProductReportRow {
	rows := make([]models.ProductReportRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, models.ProductReportRow{
			Name:            p.Name,
			StockLeft:       p.Quantity,
			SoldToday:       p.SoldToday,
			Supplier:        p.Supplier,
			Commission:      p.Commission,
			TotalCommission: p.Commission * float64(p.SoldToday),
		})
	}
	return rows
}

func buildOrderRows(records []*models.SalesRecord) []models.OrderReportRow {
	var rows []models.OrderReportRow
	for _, record := range records {
		for _, item := range record.Items {
			rows = append(rows, models.OrderReportRow{
				CustomerName:    record.CustomerName,
				CustomerMobile:  record.CustomerMobile,
				CustomerAddress: record.CustomerAddress,
				InvoiceNumber:   record.InvoiceNumber,
				ProductName:     item.Name,
				ProductID:       item.ProductID,
				UnitPrice:       item.UnitPrice,
				Supplier:        item.Supplier,
				Quantity:        item.Quantity,
				TotalAmount:     record.TotalAmount,
				Date:            record.RecordedAt,
			})
		}
	}
	return rows
}

// WriteCSV renders the three report sections. Monetary values are rounded
// to two decimals here and nowhere earlier.
func (s *reportService) WriteCSV(w io.Writer, report *models.SalesReport) error {
	cw := csv.NewWriter(w)

	write := func(row []string) {
		// csv.Writer defers errors to Flush.
		_ = cw.Write(row)
	}

	write([]string{"Product Data"})
	write([]string{"Product Name", "Stock Left", "Sold Today", "Supplier", "Commission", "Total Commission"})
	for _, row := range report.Products {
		write([]string{
			row.Name,
			fmt.Sprintf("%d", row.StockLeft),
			fmt.Sprintf("%d", row.SoldToday),
			row.Supplier,
			fmt.Sprintf("%.2f", row.Commission),
			fmt.Sprintf("%.2f", row.TotalCommission),
		})
	}

	write(nil)
	write([]string{"Today's Orders"})
	writeOrderSection(write, report.TodayOrders)

	write(nil)
	write([]string{"Previous Orders"})
	writeOrderSection(write, report.HistoricalOrders)

	cw.Flush()
	return cw.Error()
}

func writeOrderSection(write func([]string), rows []models.OrderReportRow) {
	write([]string{"Customer Name", "Customer Mobile", "Customer Address", "Invoice No", "Product Name", "Product ID", "Price", "Supplier", "Quantity Sold", "Total Amount", "Date"})
	for _, row := range rows {
		write([]string{
			row.CustomerName,
			row.CustomerMobile,
			row.CustomerAddress,
			row.InvoiceNumber,
			row.ProductName,
			row.ProductID,
			fmt.Sprintf("%.2f", row.UnitPrice),
			row.Supplier,
			fmt.Sprintf("%d", row.Quantity),
			fmt.Sprintf("%.2f", row.TotalAmount),
			row.Date.Format("2006-01-02"),
		})
	}
}
