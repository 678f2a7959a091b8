package service

import (
	"context"

	"go.uber.org/zap"
)

// ToggleFavorite flips the product's favorite mark and reports whether it
// is now a favorite. Signed-in shoppers also get their server wishlist
// updated; failures there are only logged.
func (s *Storefront) ToggleFavorite(ctx context.Context, productID string) (bool, error) {
	item, err := s.catalog.Fetch(ctx, productID, s.loadProduct)
	if err != nil {
		return false, s.fail(ctx, "toggle_favorite", err)
	}

	added, err := s.favorites.Toggle(item)
	if err != nil {
		return false, s.fail(ctx, "toggle_favorite", err)
	}
	s.metrics.FavoriteToggles.Add(ctx, 1)

	if added {
		s.toasts.Success("Added to favorites")
	} else {
		s.toasts.Success("Removed from favorites")
	}

	s.syncWishlist(ctx, productID, added)
	return added, nil
}

func (s *Storefront) RemoveFavorite(ctx context.Context, productID string) {
	if !s.favorites.Contains(productID) {
		return
	}
	s.favorites.Remove(productID)
	s.toasts.Success("Removed from favorites")
	s.syncWishlist(ctx, productID, false)
}

func (s *Storefront) syncWishlist(ctx context.Context, productID string, add bool) {
	if s.session == nil {
		return
	}
	token, err := s.session.Token(ctx)
	if err != nil || token == "" {
		return
	}

	if add {
		err = s.api.AddToWishlist(ctx, productID)
	} else {
		err = s.api.RemoveFromWishlist(ctx, productID)
	}
	if err != nil {
		s.logger.Warn("failed to sync wishlist", zap.String("product_id", productID), zap.Bool("add", add), zap.Error(err))
	}
}
