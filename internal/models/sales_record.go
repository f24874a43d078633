package models

import "time"

// SoldItem is a line item frozen at the moment of sale. Name, price and
// supplier are copied from the commit-time read, so later product edits or
// retirement never change a historical record.
type SoldItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Supplier  string  `json:"supplier"`
}

// SalesRecord is a committed invoice. It is written exactly once per
// successful commit, keyed by invoice number, and never mutated or deleted.
type SalesRecord struct {
	InvoiceNumber   string     `json:"invoice_number" db:"invoice_number"`
	RecordedAt      time.Time  `json:"recorded_at" db:"recorded_at"`
	CustomerName    string     `json:"customer_name" db:"customer_name"`
	CustomerMobile  string     `json:"customer_mobile" db:"customer_mobile"`
	CustomerAddress string     `json:"customer_address" db:"customer_address"`
	Items           []SoldItem `json:"items" db:"items"`
	TotalAmount     float64    `json:"total_amount" db:"total_amount"`
}

// Total recomputes the amount from the frozen line items.
func (r *SalesRecord) Total() float64 {
	var total float64
	for _, item := range r.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}
