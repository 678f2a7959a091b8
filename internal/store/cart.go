package store

import (
	"sync"

	"github.com/esdaly/storefront/internal/domain"
	"go.uber.org/zap"
)

// StockSource reports the freshest known availability of a product.
type StockSource interface {
	Available(productID string) (int, bool)
}

// CartStore keeps the ordered cart lines of one shopper session. At most one
// line exists per product and no line exceeds the stock it was checked
// against.
type CartStore struct {
	mu    sync.RWMutex
	lines []domain.CartLine

	stock  StockSource
	logger *zap.Logger
	events *broadcaster[domain.CartLine]
}

// NewCartStore creates an empty cart. stock may be nil, in which case
// quantity updates are checked against each line's own stock snapshot.
func NewCartStore(stock StockSource, logger *zap.Logger) *CartStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartStore{
		stock:  stock,
		logger: logger,
		events: newBroadcaster[domain.CartLine](domain.KeyCart),
	}
}

func (s *CartStore) Key() string {
	return domain.KeyCart
}

func (s *CartStore) Subscribe(fn Listener[domain.CartLine]) func() {
	return s.events.subscribe(fn)
}

// AddItem puts quantity units of item in the cart, merging with an existing
// line. The resulting quantity is checked against item's stock, which also
// becomes the line's stock snapshot. A non-positive quantity adds one unit.
func (s *CartStore) AddItem(item domain.CatalogItem, quantity int) error {
	if item.ID == "" {
		return ErrInvalidItem
	}
	if quantity <= 0 {
		quantity = 1
	}

	s.mu.Lock()

	idx := s.indexLocked(item.ID)
	inCart := 0
	if idx >= 0 {
		inCart = s.lines[idx].Quantity
	}

	available := item.Stock.Available()
	if inCart+quantity > available {
		s.mu.Unlock()
		return &InsufficientStockError{
			ProductID: item.ID,
			Available: available,
			InCart:    inCart,
			Requested: quantity,
		}
	}

	if idx >= 0 {
		s.lines[idx].Quantity += quantity
		s.lines[idx].Stock = item.Stock
	} else {
		s.lines = append(s.lines, domain.NewCartLine(item, quantity))
	}

	s.events.publish(s.mu.Unlock, cloneSlice(s.lines))
	return nil
}

// RemoveItem deletes the line for productID. Unknown ids are ignored.
func (s *CartStore) RemoveItem(productID string) {
	s.mu.Lock()

	idx := s.indexLocked(productID)
	if idx < 0 {
		s.mu.Unlock()
		s.logger.Debug("remove of product not in cart", zap.String("product_id", productID))
		return
	}

	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	s.events.publish(s.mu.Unlock, cloneSlice(s.lines))
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero
// or less removes the line; unknown ids are ignored.
func (s *CartStore) UpdateQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		s.RemoveItem(productID)
		return nil
	}

	s.mu.Lock()

	idx := s.indexLocked(productID)
	if idx < 0 {
		s.mu.Unlock()
		s.logger.Debug("quantity update for product not in cart", zap.String("product_id", productID))
		return nil
	}

	line := s.lines[idx]
	available := s.availableFor(line)

	if quantity > available {
		s.mu.Unlock()
		return &InsufficientStockError{
			ProductID: productID,
			Available: available,
			InCart:    line.Quantity,
			Requested: quantity - line.Quantity,
		}
	}

	if quantity == line.Quantity {
		s.mu.Unlock()
		return nil
	}

	s.lines[idx].Quantity = quantity
	s.events.publish(s.mu.Unlock, cloneSlice(s.lines))
	return nil
}

func (s *CartStore) Clear() {
	s.mu.Lock()
	s.lines = nil
	s.events.publish(s.mu.Unlock, nil)
}

// Replace sets the whole cart, typically from storage. Lines without a
// product id or with a non-positive quantity are dropped and duplicate
// lines are merged. A merged quantity above the available stock is clamped,
// and lines with nothing available are dropped.
func (s *CartStore) Replace(lines []domain.CartLine) {
	cleaned := make([]domain.CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.ID == "" || l.Quantity <= 0 {
			continue
		}
		if i, ok := index[l.ID]; ok {
			cleaned[i].Quantity += l.Quantity
			continue
		}
		index[l.ID] = len(cleaned)
		cleaned = append(cleaned, l)
	}

	kept := cleaned[:0]
	for _, l := range cleaned {
		available := s.availableFor(l)
		if l.Quantity > available {
			s.logger.Warn("cart line exceeds available stock",
				zap.String("product_id", l.ID),
				zap.Int("quantity", l.Quantity),
				zap.Int("available", available))
			if available <= 0 {
				continue
			}
			l.Quantity = available
		}
		kept = append(kept, l)
	}

	s.mu.Lock()
	s.lines = kept
	s.events.publish(s.mu.Unlock, cloneSlice(s.lines))
}

// availableFor prefers live stock over the line's own snapshot.
func (s *CartStore) availableFor(line domain.CartLine) int {
	if s.stock != nil {
		if live, ok := s.stock.Available(line.ID); ok {
			return live
		}
	}
	return line.Stock.Available()
}

func (s *CartStore) Lines() []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.lines)
}

func (s *CartStore) Line(productID string) (domain.CartLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(productID)
	if idx < 0 {
		return domain.CartLine{}, false
	}
	return s.lines[idx], true
}

// Count returns the total number of units in the cart.
func (s *CartStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *CartStore) Totals() domain.CartTotals {
	return domain.CalculateTotals(s.Lines())
}

func (s *CartStore) indexLocked(productID string) int {
	for i := range s.lines {
		if s.lines[i].ID == productID {
			return i
		}
	}
	return -1
}
