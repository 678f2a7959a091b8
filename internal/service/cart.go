package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/esdaly/storefront/internal/api"
	"github.com/esdaly/storefront/internal/domain"
	"go.uber.org/zap"
)

// AddToCart checks the product's current stock and adds quantity units.
// When the API cannot be reached the cached product is used instead.
func (s *Storefront) AddToCart(ctx context.Context, productID string, quantity int) (domain.CartLine, error) {
	item, err := s.freshItem(ctx, productID)
	if err != nil {
		s.metrics.RecordCartMutation(ctx, "add", err)
		return domain.CartLine{}, s.fail(ctx, "add_to_cart", err)
	}

	err = s.cart.AddItem(item, quantity)
	s.metrics.RecordCartMutation(ctx, "add", err)
	if err != nil {
		return domain.CartLine{}, s.fail(ctx, "add_to_cart", err)
	}

	line, _ := s.cart.Line(productID)
	s.toasts.Success(fmt.Sprintf("%s added to cart", item.Name))
	return line, nil
}

func (s *Storefront) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	err := s.cart.UpdateQuantity(productID, quantity)
	s.metrics.RecordCartMutation(ctx, "update", err)
	if err != nil {
		return s.fail(ctx, "update_quantity", err)
	}
	s.toasts.Success("Cart updated")
	return nil
}

func (s *Storefront) RemoveFromCart(ctx context.Context, productID string) {
	s.cart.RemoveItem(productID)
	s.metrics.RecordCartMutation(ctx, "remove", nil)
	s.toasts.Success("Removed from cart")
}

func (s *Storefront) ClearCart(ctx context.Context) {
	s.cart.Clear()
	s.metrics.RecordCartMutation(ctx, "clear", nil)
	s.toasts.Success("Cart cleared")
}

func (s *Storefront) freshItem(ctx context.Context, productID string) (domain.CatalogItem, error) {
	item, err := s.catalog.Refresh(ctx, productID, s.loadProduct)
	if err == nil {
		return item, nil
	}
	if errors.Is(err, api.ErrNotFound) || errors.Is(err, context.Canceled) {
		return domain.CatalogItem{}, err
	}
	if cached, ok := s.catalog.Get(productID); ok {
		s.logger.Warn("using cached product", zap.String("product_id", productID), zap.Error(err))
		return cached, nil
	}
	return domain.CatalogItem{}, err
}
