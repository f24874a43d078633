package models

import (
	"time"
)

// Product statuses. Retired products stay on record so historical sales
// records keep resolving, but they are hidden from catalog screens and
// rejected at invoice validation.
const (
	ProductStatusActive  = "active"
	ProductStatusRetired = "retired"
)

// Product is a catalog document. The ID doubles as the QR payload printed
// on the physical tag. Version is the optimistic-concurrency etag: every
// successful write increments it, and a conditional update only applies
// when the caller's expected version still matches.
type Product struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	Commission  float64   `json:"commission" db:"commission"` // per-unit seller margin, added to the displayed price
	Quantity    int       `json:"quantity" db:"quantity"`
	SoldToday   int       `json:"sold_today" db:"sold_today"`
	Supplier    string    `json:"supplier" db:"supplier"`
	ImageURL    *string   `json:"image_url,omitempty" db:"image_url"`
	Status      string    `json:"status" db:"status"`
	Version     int64     `json:"version" db:"version"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayPrice is the customer-facing unit price. Line-item totals use the
// base UnitPrice; the commission share is reported separately per supplier.
func (p *Product) DisplayPrice() float64 {
	return p.UnitPrice + p.Commission
}

// Active reports whether the product may appear on catalog screens and in
// new invoices.
func (p *Product) Active() bool {
	return p.Status == ProductStatusActive
}
