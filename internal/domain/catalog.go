package domain

import "github.com/shopspring/decimal"

const (
	// UntrackedStockLimit is the quantity treated as available when a product
	// does not track inventory.
	UntrackedStockLimit = 999

	// DefaultLowStockThreshold applies when a product carries no threshold of its own.
	DefaultLowStockThreshold = 10
)

// StockInfo is the stock snapshot a client holds for a product
type StockInfo struct {
	Quantity          int  `json:"quantity"`
	TrackInventory    bool `json:"trackInventory"`
	LowStockThreshold int  `json:"lowStockThreshold,omitempty"`
}

// TrackedStock returns a StockInfo that tracks inventory with the given quantity.
func TrackedStock(quantity int) StockInfo {
	return StockInfo{Quantity: quantity, TrackInventory: true, LowStockThreshold: DefaultLowStockThreshold}
}

// Available returns how many units may be put in a cart
func (s StockInfo) Available() int {
	if !s.TrackInventory {
		return UntrackedStockLimit
	}
	if s.Quantity < 0 {
		return 0
	}
	return s.Quantity
}

// IsLow reports whether a tracked, in-stock product is at or below its threshold.
func (s StockInfo) IsLow() bool {
	if !s.TrackInventory || s.Quantity <= 0 {
		return false
	}
	threshold := s.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return s.Quantity <= threshold
}

// CatalogItem is a product as known to the client. The client never writes it back.
type CatalogItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Stock       StockInfo       `json:"stock"`
}
