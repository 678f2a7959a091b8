package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	// FreeShippingThreshold is the subtotal above which shipping is free.
	FreeShippingThreshold = decimal.NewFromInt(3000)
	// FlatShippingFee applies to every other order.
	FlatShippingFee = decimal.NewFromInt(30)
)

type CartTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// CalculateTotals prices a set of cart lines. An empty cart costs nothing,
// shipping included.
func CalculateTotals(lines []CartLine) CartTotals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal())
	}

	shipping := FlatShippingFee
	if len(lines) == 0 || subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	discount := decimal.Zero
	return CartTotals{
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal.Add(shipping).Sub(discount),
	}
}

type CartSnapshotItem struct {
	ProductID string          `json:"product"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
}

// CartSnapshot represents the full cart state at checkout time
type CartSnapshot struct {
	Items      []CartSnapshotItem `json:"items"`
	Totals     CartTotals         `json:"pricing"`
	CapturedAt time.Time          `json:"-"`
}

func NewCartSnapshot(lines []CartLine, capturedAt time.Time) CartSnapshot {
	items := make([]CartSnapshotItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, CartSnapshotItem{
			ProductID: l.ID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     l.Price,
			Image:     l.Image,
		})
	}
	return CartSnapshot{
		Items:      items,
		Totals:     CalculateTotals(lines),
		CapturedAt: capturedAt,
	}
}
