package domain

import "github.com/shopspring/decimal"

// CartLine is a CatalogItem snapshot with a requested quantity
type CartLine struct {
	CatalogItem
	Quantity int `json:"quantity"`
}

// NewCartLine copies item's fields into a new line.
func NewCartLine(item CatalogItem, quantity int) CartLine {
	return CartLine{CatalogItem: item, Quantity: quantity}
}

// Subtotal is the line price multiplied by its quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// FavoriteEntry marks a CatalogItem snapshot as favorite
type FavoriteEntry struct {
	CatalogItem
}

func NewFavoriteEntry(item CatalogItem) FavoriteEntry {
	return FavoriteEntry{CatalogItem: item}
}

// RecentlyViewedEntry is a denormalized snapshot taken at view time.
// It is never refreshed when the underlying product changes.
type RecentlyViewedEntry struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Image string          `json:"image"`
	Price decimal.Decimal `json:"price"`
}

func NewRecentlyViewedEntry(item CatalogItem) RecentlyViewedEntry {
	return RecentlyViewedEntry{
		ID:    item.ID,
		Name:  item.Name,
		Image: item.Image,
		Price: item.Price,
	}
}
