package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nihaarpos/internal/models"
	"nihaarpos/testhelpers"
)

func TestPartitionToday_CalendarDayBoundary(t *testing.T) {
	today := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
	lateYesterday := &models.SalesRecord{InvoiceNumber: "INV-1", RecordedAt: time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)}
	earlyToday := &models.SalesRecord{InvoiceNumber: "INV-2", RecordedAt: time.Date(2024, 5, 2, 0, 1, 0, 0, time.UTC)}

	todayRecords, historical := PartitionToday([]*models.SalesRecord{lateYesterday, earlyToday}, today)

	require.Len(t, todayRecords, 1)
	assert.Equal(t, "INV-2", todayRecords[0].InvoiceNumber)
	require.Len(t, historical, 1)
	assert.Equal(t, "INV-1", historical[0].InvoiceNumber)
}

func TestPartitionToday_UsesLocalCalendarDay(t *testing.T) {
	// 23:30 UTC on May 1 is already May 2 in UTC+5:30.
	ist := time.FixedZone("IST", 5*3600+1800)
	today := time.Date(2024, 5, 2, 9, 0, 0, 0, ist)
	record := &models.SalesRecord{InvoiceNumber: "INV-1", RecordedAt: time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)}

	todayRecords, historical := PartitionToday([]*models.SalesRecord{record}, today)

	assert.Len(t, todayRecords, 1)
	assert.Empty(t, historical)
}

func TestBuildSalesReport(t *testing.T) {
	now := time.Date(2024, 5, 2, 18, 0, 0, 0, time.UTC)
	catalog := seedCatalog(
		&models.Product{ID: "p1", Name: "Soap", Quantity: 7, SoldToday: 3, Supplier: "Acme", Commission: 5},
		&models.Product{ID: "p2", Name: "Oil", Quantity: 2, SoldToday: 0, Supplier: "Brightways", Commission: 12.5},
	)
	sales := testhelpers.NewMemorySales()
	require.NoError(t, sales.Append(context.Background(), &models.SalesRecord{
		InvoiceNumber: "INV-2024-05-000001",
		RecordedAt:    time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
		CustomerName:  "Asha",
		Items: []models.SoldItem{
			{ProductID: "p1", Name: "Soap", UnitPrice: 40, Quantity: 2, Supplier: "Acme"},
			{ProductID: "p2", Name: "Oil", UnitPrice: 90, Quantity: 1, Supplier: "Brightways"},
		},
		TotalAmount: 170,
	}))
	require.NoError(t, sales.Append(context.Background(), &models.SalesRecord{
		InvoiceNumber: "INV-2024-04-000009",
		RecordedAt:    time.Date(2024, 4, 28, 15, 0, 0, 0, time.UTC),
		CustomerName:  "Ravi",
		Items: []models.SoldItem{
			{ProductID: "p1", Name: "Soap", UnitPrice: 40, Quantity: 1, Supplier: "Acme"},
		},
		TotalAmount: 40,
	}))

	svc := NewReportService(catalog, sales)
	report, err := svc.BuildSalesReport(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, report.Products, 2)
	soap := report.Products[0]
	assert.Equal(t, "Soap", soap.Name)
	assert.Equal(t, 7, soap.StockLeft)
	assert.Equal(t, 3, soap.SoldToday)
	assert.InDelta(t, 15, soap.TotalCommission, 1e-9)

	// One order row per invoice line item.
	require.Len(t, report.TodayOrders, 2)
	require.Len(t, report.HistoricalOrders, 1)
	assert.Equal(t, "INV-2024-04-000009", report.HistoricalOrders[0].InvoiceNumber)
	assert.InDelta(t, 170, report.TodayOrders[0].TotalAmount, 1e-9)
}

func TestWriteCSV_Layout(t *testing.T) {
	report := &models.SalesReport{
		Products: []models.ProductReportRow{
			{Name: "Soap", StockLeft: 7, SoldToday: 3, Supplier: "Acme", Commission: 5, TotalCommission: 15},
		},
		TodayOrders: []models.OrderReportRow{
			{
				CustomerName:  "Asha",
				InvoiceNumber: "INV-2024-05-000001",
				ProductName:   "Soap",
				ProductID:     "p1",
				UnitPrice:     40,
				Supplier:      "Acme",
				Quantity:      2,
				TotalAmount:   170,
				Date:          time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
			},
		},
	}

	var buf bytes.Buffer
	svc := &reportService{}
	require.NoError(t, svc.WriteCSV(&buf, report))

	reader := csv.NewReader(&buf)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"Product Data"}, rows[0])
	assert.Equal(t, []string{"Product Name", "Stock Left", "Sold Today", "Supplier", "Commission", "Total Commission"}, rows[1])
	assert.Equal(t, []string{"Soap", "7", "3", "Acme", "5.00", "15.00"}, rows[2])

	assert.Equal(t, []string{"Today's Orders"}, rows[3])
	require.Len(t, rows[4], 11)
	assert.Equal(t, "Customer Name", rows[4][0])
	assert.Equal(t, []string{"Asha", "", "", "INV-2024-05-000001", "Soap", "p1", "40.00", "Acme", "2", "170.00", "2024-05-02"}, rows[5])

	assert.Equal(t, []string{"Previous Orders"}, rows[6])
	assert.Equal(t, "Customer Name", rows[7][0])
	assert.Len(t, rows, 8)
}
