package store

import (
	"sync"

	"github.com/esdaly/storefront/internal/domain"
)

// RecentlyViewedCap bounds the recently viewed log.
const RecentlyViewedCap = 8

// RecentlyViewed is a most-recent-first log of product views without
// duplicate ids. It is kept locally and never sent to the API.
type RecentlyViewed struct {
	mu      sync.RWMutex
	entries []domain.RecentlyViewedEntry

	events *broadcaster[domain.RecentlyViewedEntry]
}

func NewRecentlyViewed() *RecentlyViewed {
	return &RecentlyViewed{
		events: newBroadcaster[domain.RecentlyViewedEntry](domain.KeyRecentlyViewed),
	}
}

func (r *RecentlyViewed) Key() string {
	return domain.KeyRecentlyViewed
}

func (r *RecentlyViewed) Subscribe(fn Listener[domain.RecentlyViewedEntry]) func() {
	return r.events.subscribe(fn)
}

// RecordView moves item to the front of the log, evicting the oldest entry
// beyond RecentlyViewedCap.
func (r *RecentlyViewed) RecordView(item domain.CatalogItem) {
	if item.ID == "" {
		return
	}

	r.mu.Lock()

	next := make([]domain.RecentlyViewedEntry, 0, RecentlyViewedCap)
	next = append(next, domain.NewRecentlyViewedEntry(item))
	for _, e := range r.entries {
		if len(next) == RecentlyViewedCap {
			break
		}
		if e.ID != item.ID {
			next = append(next, e)
		}
	}
	r.entries = next

	r.events.publish(r.mu.Unlock, cloneSlice(r.entries))
}

func (r *RecentlyViewed) RemoveEntry(productID string) {
	r.mu.Lock()

	for i := range r.entries {
		if r.entries[i].ID == productID {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			r.events.publish(r.mu.Unlock, cloneSlice(r.entries))
			return
		}
	}
	r.mu.Unlock()
}

func (r *RecentlyViewed) Clear() {
	r.mu.Lock()
	r.entries = nil
	r.events.publish(r.mu.Unlock, nil)
}

// Replace sets the log, keeping the first RecentlyViewedCap distinct entries.
func (r *RecentlyViewed) Replace(entries []domain.RecentlyViewedEntry) {
	cleaned := make([]domain.RecentlyViewedEntry, 0, RecentlyViewedCap)
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if len(cleaned) == RecentlyViewedCap {
			break
		}
		if e.ID == "" {
			continue
		}
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		cleaned = append(cleaned, e)
	}

	r.mu.Lock()
	r.entries = cleaned
	r.events.publish(r.mu.Unlock, cloneSlice(r.entries))
}

func (r *RecentlyViewed) Entries() []domain.RecentlyViewedEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSlice(r.entries)
}
