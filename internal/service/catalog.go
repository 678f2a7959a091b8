package service

import (
	"context"

	"github.com/esdaly/storefront/internal/api"
	"github.com/esdaly/storefront/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ProductPage is one page of a product listing, mapped to catalog items.
type ProductPage struct {
	api.Listing
	Items []domain.CatalogItem `json:"items"`
}

// ViewProduct reloads the product, caches it and records the view.
func (s *Storefront) ViewProduct(ctx context.Context, productID string) (domain.CatalogItem, error) {
	item, err := s.catalog.Refresh(ctx, productID, s.loadProduct)
	if err != nil {
		return domain.CatalogItem{}, s.fail(ctx, "view_product", err)
	}

	s.recent.RecordView(item)
	s.metrics.ProductsViewed.Add(ctx, 1, metric.WithAttributes(attribute.String("product_id", productID)))
	return item, nil
}

// Products lists products and caches the page in one write.
func (s *Storefront) Products(ctx context.Context, q api.ProductQuery) (*ProductPage, error) {
	list, err := s.api.ListProducts(ctx, q)
	if err != nil {
		return nil, s.fail(ctx, "list_products", err)
	}

	items := make([]domain.CatalogItem, 0, len(list.Products))
	for _, p := range list.Products {
		items = append(items, p.CatalogItem(s.resolver))
	}
	return &ProductPage{Listing: list.Listing, Items: s.catalog.PutAll(items)}, nil
}
