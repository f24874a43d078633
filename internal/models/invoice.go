package models

import (
	"fmt"

	"nihaarpos/internal/common"
)

func errInvalidQuantity(reason string) error {
	return fmt.Errorf("%w: %s", common.ErrInvalidQuantity, reason)
}

// LineItem is one row of a draft invoice. It carries the product fields the
// cashier sees while building the invoice; the authoritative snapshot is
// re-read at commit time.
type LineItem struct {
	ProductID  string  `json:"product_id"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	OutOfStock bool    `json:"out_of_stock"` // product had zero stock when scanned; quantity is pinned to 0
}

// InvoiceDraft is an in-memory invoice under construction. It is never
// persisted, and all transitions are pure: each returns a new draft and
// leaves the receiver untouched, so a handler can keep the prior state on
// a failed edit.
type InvoiceDraft struct {
	CustomerName    string     `json:"customer_name"`
	CustomerMobile  string     `json:"customer_mobile"`
	CustomerAddress string     `json:"customer_address"`
	Items           []LineItem `json:"items"`
}

func (d InvoiceDraft) clone() InvoiceDraft {
	out := d
	out.Items = make([]LineItem, len(d.Items))
	copy(out.Items, d.Items)
	return out
}

// AddScannedProduct appends a line item for a scanned product. Quantity
// defaults to 1, or to 0 when the product has no stock, which marks the
// row out-of-stock and blocks quantity edits until rescanned.
func (d InvoiceDraft) AddScannedProduct(p *Product) InvoiceDraft {
	out := d.clone()
	item := LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		Quantity:  1,
	}
	if p.Quantity == 0 {
		item.Quantity = 0
		item.OutOfStock = true
	}
	out.Items = append(out.Items, item)
	return out
}

// SetQuantity replaces the requested quantity of one line item. Stock is
// deliberately not checked here; availability is validated against a fresh
// read at commit time.
func (d InvoiceDraft) SetQuantity(index, qty int) (InvoiceDraft, error) {
	if index < 0 || index >= len(d.Items) {
		return d, errInvalidQuantity("line item index out of range")
	}
	if qty < 0 {
		return d, errInvalidQuantity("quantity cannot be negative")
	}
	if d.Items[index].OutOfStock && qty > 0 {
		return d, errInvalidQuantity("product is out of stock")
	}
	out := d.clone()
	out.Items[index].Quantity = qty
	return out, nil
}

// RemoveLineItem drops one line item from the draft.
func (d InvoiceDraft) RemoveLineItem(index int) (InvoiceDraft, error) {
	if index < 0 || index >= len(d.Items) {
		return d, errInvalidQuantity("line item index out of range")
	}
	out := d.clone()
	out.Items = append(out.Items[:index], out.Items[index+1:]...)
	return out, nil
}

// Total is the draft amount at full float64 precision. Rounding to two
// decimals happens only at display and export.
func (d InvoiceDraft) Total() float64 {
	var total float64
	for _, item := range d.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}
