package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nihaarpos/internal/common"
)

func sampleProduct(id string, price float64, qty int) *Product {
	return &Product{
		ID:        id,
		Name:      "Product " + id,
		UnitPrice: price,
		Quantity:  qty,
		Status:    ProductStatusActive,
	}
}

func TestAddScannedProduct_DefaultsQuantityToOne(t *testing.T) {
	draft := InvoiceDraft{CustomerName: "Asha"}

	next := draft.AddScannedProduct(sampleProduct("p1", 120, 10))

	require.Len(t, next.Items, 1)
	assert.Equal(t, "p1", next.Items[0].ProductID)
	assert.Equal(t, 1, next.Items[0].Quantity)
	assert.False(t, next.Items[0].OutOfStock)
	assert.Empty(t, draft.Items, "receiver must not change")
}

func TestAddScannedProduct_ZeroStockPinsQuantity(t *testing.T) {
	draft := InvoiceDraft{}.AddScannedProduct(sampleProduct("p1", 120, 0))

	require.Len(t, draft.Items, 1)
	assert.Equal(t, 0, draft.Items[0].Quantity)
	assert.True(t, draft.Items[0].OutOfStock)

	// Raising quantity on the out-of-stock row is rejected.
	_, err := draft.SetQuantity(0, 2)
	assert.ErrorIs(t, err, common.ErrInvalidQuantity)

	// Dropping it to zero explicitly stays allowed.
	_, err = draft.SetQuantity(0, 0)
	assert.NoError(t, err)
}

func TestSetQuantity_ReplacesAndLeavesReceiverUntouched(t *testing.T) {
	draft := InvoiceDraft{}.AddScannedProduct(sampleProduct("p1", 50, 10))

	next, err := draft.SetQuantity(0, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, next.Items[0].Quantity)
	assert.Equal(t, 1, draft.Items[0].Quantity)
}

func TestSetQuantity_InvalidInputsReturnOriginalDraft(t *testing.T) {
	draft := InvoiceDraft{}.AddScannedProduct(sampleProduct("p1", 50, 10))

	cases := []struct {
		name  string
		index int
		qty   int
	}{
		{"negative quantity", 0, -1},
		{"index below range", -1, 2},
		{"index above range", 1, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := draft.SetQuantity(tc.index, tc.qty)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrInvalidQuantity))
			assert.Equal(t, draft, got)
		})
	}
}

func TestRemoveLineItem(t *testing.T) {
	draft := InvoiceDraft{}.
		AddScannedProduct(sampleProduct("p1", 50, 10)).
		AddScannedProduct(sampleProduct("p2", 80, 10))

	next, err := draft.RemoveLineItem(0)
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, "p2", next.Items[0].ProductID)
	assert.Len(t, draft.Items, 2)

	_, err = draft.RemoveLineItem(5)
	assert.ErrorIs(t, err, common.ErrInvalidQuantity)
}

func TestDraftTotal(t *testing.T) {
	draft := InvoiceDraft{}.
		AddScannedProduct(sampleProduct("p1", 120.50, 10)).
		AddScannedProduct(sampleProduct("p2", 80, 10))
	draft, err := draft.SetQuantity(0, 3)
	require.NoError(t, err)

	assert.InDelta(t, 120.50*3+80, draft.Total(), 1e-9)
}

func TestDisplayPrice(t *testing.T) {
	p := &Product{UnitPrice: 100, Commission: 12.5}
	assert.InDelta(t, 112.5, p.DisplayPrice(), 1e-9)
}
