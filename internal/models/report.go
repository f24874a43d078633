package models

import "time"

// ProductReportRow summarizes one catalog product for the sales report.
type ProductReportRow struct {
	Name            string  `json:"name"`
	StockLeft       int     `json:"stock_left"`
	SoldToday       int     `json:"sold_today"`
	Supplier        string  `json:"supplier"`
	Commission      float64 `json:"commission"`
	TotalCommission float64 `json:"total_commission"` // commission x units sold today
}

// OrderReportRow is one (invoice, line item) pair. An invoice with three
// line items contributes three rows.
type OrderReportRow struct {
	CustomerName    string    `json:"customer_name"`
	CustomerMobile  string    `json:"customer_mobile"`
	CustomerAddress string    `json:"customer_address"`
	InvoiceNumber   string    `json:"invoice_number"`
	ProductName     string    `json:"product_name"`
	ProductID       string    `json:"product_id"`
	UnitPrice       float64   `json:"unit_price"`
	Supplier        string    `json:"supplier"`
	Quantity        int       `json:"quantity"`
	TotalAmount     float64   `json:"total_amount"` // whole-invoice total, repeated per row
	Date            time.Time `json:"date"`
}

// SalesReport is the fully computed report model handed to the export
// collaborator. Building it is deterministic and storage-free.
type SalesReport struct {
	GeneratedAt      time.Time          `json:"generated_at"`
	Products         []ProductReportRow `json:"products"`
	TodayOrders      []OrderReportRow   `json:"today_orders"`
	HistoricalOrders []OrderReportRow   `json:"historical_orders"`
}
