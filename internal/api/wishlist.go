package api

import (
	"context"
	"net/http"
	"net/url"
)

type wishlistResponse struct {
	Wishlist struct {
		Products []Product `json:"products"`
	} `json:"wishlist"`
	Products []Product `json:"products"`
}

func (r wishlistResponse) products() []Product {
	if len(r.Wishlist.Products) > 0 {
		return r.Wishlist.Products
	}
	return r.Products
}

// Wishlist returns the signed-in user's server-side wishlist.
func (c *Client) Wishlist(ctx context.Context) ([]Product, error) {
	var resp wishlistResponse
	if err := c.do(ctx, http.MethodGet, "/wishlist", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.products(), nil
}

func (c *Client) AddToWishlist(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodPost, "/wishlist/"+url.PathEscape(productID), nil, nil, nil)
}

func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodDelete, "/wishlist/"+url.PathEscape(productID), nil, nil, nil)
}

func (c *Client) ClearWishlist(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/wishlist", nil, nil, nil)
}

type publicStatsResponse struct {
	Stats PublicStats `json:"stats"`
}

// PublicStats needs no authentication.
func (c *Client) PublicStats(ctx context.Context) (*PublicStats, error) {
	var resp publicStatsResponse
	if err := c.do(ctx, http.MethodGet, "/stats/public", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Stats, nil
}
