package store

import (
	"sync"

	"github.com/esdaly/storefront/internal/domain"
)

// FavoritesStore is an ordered set of favorite products keyed by product id.
type FavoritesStore struct {
	mu      sync.RWMutex
	entries []domain.FavoriteEntry

	events *broadcaster[domain.FavoriteEntry]
}

func NewFavoritesStore() *FavoritesStore {
	return &FavoritesStore{
		events: newBroadcaster[domain.FavoriteEntry](domain.KeyFavorites),
	}
}

func (s *FavoritesStore) Key() string {
	return domain.KeyFavorites
}

func (s *FavoritesStore) Subscribe(fn Listener[domain.FavoriteEntry]) func() {
	return s.events.subscribe(fn)
}

// Toggle removes item when it is a favorite and adds a snapshot of it
// otherwise. It reports whether the item is a favorite afterwards.
func (s *FavoritesStore) Toggle(item domain.CatalogItem) (bool, error) {
	if item.ID == "" {
		return false, ErrInvalidItem
	}

	s.mu.Lock()

	added := false
	if idx := s.indexLocked(item.ID); idx >= 0 {
		s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	} else {
		s.entries = append(s.entries, domain.NewFavoriteEntry(item))
		added = true
	}

	s.events.publish(s.mu.Unlock, cloneSlice(s.entries))
	return added, nil
}

// Add marks item as favorite; adding an existing favorite changes nothing.
func (s *FavoritesStore) Add(item domain.CatalogItem) error {
	if item.ID == "" {
		return ErrInvalidItem
	}

	s.mu.Lock()
	if s.indexLocked(item.ID) >= 0 {
		s.mu.Unlock()
		return nil
	}

	s.entries = append(s.entries, domain.NewFavoriteEntry(item))
	s.events.publish(s.mu.Unlock, cloneSlice(s.entries))
	return nil
}

func (s *FavoritesStore) Remove(productID string) {
	s.mu.Lock()

	idx := s.indexLocked(productID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	s.events.publish(s.mu.Unlock, cloneSlice(s.entries))
}

func (s *FavoritesStore) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.events.publish(s.mu.Unlock, nil)
}

// Replace sets all favorites; the first entry wins for a duplicated id.
func (s *FavoritesStore) Replace(entries []domain.FavoriteEntry) {
	cleaned := make([]domain.FavoriteEntry, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		cleaned = append(cleaned, e)
	}

	s.mu.Lock()
	s.entries = cleaned
	s.events.publish(s.mu.Unlock, cloneSlice(s.entries))
}

func (s *FavoritesStore) Contains(productID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(productID) >= 0
}

func (s *FavoritesStore) Entries() []domain.FavoriteEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.entries)
}

func (s *FavoritesStore) indexLocked(productID string) int {
	for i := range s.entries {
		if s.entries[i].ID == productID {
			return i
		}
	}
	return -1
}
