package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/esdaly/storefront/internal/domain"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultCatalogCap bounds the number of cached products.
	DefaultCatalogCap = 200

	// DefaultLoadTimeout caps a shared product load.
	DefaultLoadTimeout = 10 * time.Second
)

// Loader fetches one product from the remote catalog.
type Loader func(ctx context.Context, productID string) (domain.CatalogItem, error)

// CatalogCache keeps fetched products in first-seen order. Once the cap is
// reached the oldest products are evicted. It also serves as the cart's
// StockSource.
type CatalogCache struct {
	mu    sync.RWMutex
	items []domain.CatalogItem
	index map[string]int

	capacity    int
	loadTimeout time.Duration

	group  singleflight.Group
	events *broadcaster[domain.CatalogItem]
}

type CatalogOption func(*CatalogCache)

// WithCapacity sets how many products the cache holds. Non-positive values
// keep the default.
func WithCapacity(n int) CatalogOption {
	return func(c *CatalogCache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

func WithLoadTimeout(d time.Duration) CatalogOption {
	return func(c *CatalogCache) {
		if d > 0 {
			c.loadTimeout = d
		}
	}
}

func NewCatalogCache(opts ...CatalogOption) *CatalogCache {
	c := &CatalogCache{
		index:       make(map[string]int),
		capacity:    DefaultCatalogCap,
		loadTimeout: DefaultLoadTimeout,
		events:      newBroadcaster[domain.CatalogItem](domain.KeyProducts),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CatalogCache) Key() string {
	return domain.KeyProducts
}

func (c *CatalogCache) Subscribe(fn Listener[domain.CatalogItem]) func() {
	return c.events.subscribe(fn)
}

// Put inserts item or overwrites the cached copy in place.
func (c *CatalogCache) Put(item domain.CatalogItem) error {
	if item.ID == "" {
		return ErrInvalidItem
	}

	c.mu.Lock()
	c.putLocked(item)
	c.trimLocked()
	c.events.publish(c.mu.Unlock, cloneSlice(c.items))
	return nil
}

// PutAll merges a page of products with a single change notification and
// returns the items that were cached. Items without an id are skipped.
func (c *CatalogCache) PutAll(items []domain.CatalogItem) []domain.CatalogItem {
	accepted := make([]domain.CatalogItem, 0, len(items))
	for _, it := range items {
		if it.ID != "" {
			accepted = append(accepted, it)
		}
	}
	if len(accepted) == 0 {
		return accepted
	}

	c.mu.Lock()
	for _, it := range accepted {
		c.putLocked(it)
	}
	c.trimLocked()
	c.events.publish(c.mu.Unlock, cloneSlice(c.items))
	return accepted
}

// Replace sets the whole cache; later duplicates overwrite earlier ones.
func (c *CatalogCache) Replace(items []domain.CatalogItem) {
	c.mu.Lock()
	c.items = make([]domain.CatalogItem, 0, len(items))
	c.index = make(map[string]int, len(items))
	for _, it := range items {
		if it.ID != "" {
			c.putLocked(it)
		}
	}
	c.trimLocked()
	c.events.publish(c.mu.Unlock, cloneSlice(c.items))
}

func (c *CatalogCache) putLocked(item domain.CatalogItem) {
	if i, ok := c.index[item.ID]; ok {
		c.items[i] = item
		return
	}
	c.index[item.ID] = len(c.items)
	c.items = append(c.items, item)
}

// trimLocked evicts the oldest products beyond the cap.
func (c *CatalogCache) trimLocked() {
	over := len(c.items) - c.capacity
	if over <= 0 {
		return
	}
	c.items = append([]domain.CatalogItem(nil), c.items[over:]...)
	c.index = make(map[string]int, len(c.items))
	for i, it := range c.items {
		c.index[it.ID] = i
	}
}

func (c *CatalogCache) Clear() {
	c.mu.Lock()
	c.items = nil
	c.index = make(map[string]int)
	c.events.publish(c.mu.Unlock, nil)
}

func (c *CatalogCache) Get(productID string) (domain.CatalogItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[productID]
	if !ok {
		return domain.CatalogItem{}, false
	}
	return c.items[i], true
}

func (c *CatalogCache) Items() []domain.CatalogItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneSlice(c.items)
}

// Available implements StockSource.
func (c *CatalogCache) Available(productID string) (int, bool) {
	item, ok := c.Get(productID)
	if !ok {
		return 0, false
	}
	return item.Stock.Available(), true
}

// Fetch returns the cached product, loading it once when missing.
func (c *CatalogCache) Fetch(ctx context.Context, productID string, load Loader) (domain.CatalogItem, error) {
	if item, ok := c.Get(productID); ok {
		return item, nil
	}
	return c.Refresh(ctx, productID, load)
}

// Refresh always reloads the product. Concurrent calls for the same id
// share one load, which runs detached from any single caller's cancellation
// and is bounded by the load timeout instead.
func (c *CatalogCache) Refresh(ctx context.Context, productID string, load Loader) (domain.CatalogItem, error) {
	ch := c.group.DoChan(productID, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		item, err := load(loadCtx, productID)
		if err != nil {
			return domain.CatalogItem{}, err
		}
		if item.ID == "" {
			item.ID = productID
		}
		if err := c.Put(item); err != nil {
			return domain.CatalogItem{}, fmt.Errorf("failed to cache product %s: %w", productID, err)
		}
		return item, nil
	})

	select {
	case <-ctx.Done():
		return domain.CatalogItem{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.CatalogItem{}, res.Err
		}
		return res.Val.(domain.CatalogItem), nil
	}
}
