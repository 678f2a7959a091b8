package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/esdaly/storefront/internal/domain"
)

type CreateOrderRequest struct {
	Items           []OrderItem    `json:"items" validate:"required,min=1,dive"`
	ShippingAddress domain.Address `json:"shippingAddress"`
	BillingAddress  domain.Address `json:"billingAddress"`
	Pricing         OrderPricing   `json:"pricing"`
	Payment         Payment        `json:"payment"`
	Notes           string         `json:"notes,omitempty"`
}

type OrderStatusUpdate struct {
	Status         string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

type OrderList struct {
	Listing
	Orders []Order `json:"orders"`
}

type orderResponse struct {
	Order Order `json:"order"`
}

func (c *Client) ListOrders(ctx context.Context, p Page) (*OrderList, error) {
	var resp OrderList
	if err := c.do(ctx, http.MethodGet, "/orders", p.values(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*Order, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if err := c.check(ctx, req); err != nil {
		return nil, err
	}
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, req OrderStatusUpdate) (*Order, error) {
	if err := c.check(ctx, req); err != nil {
		return nil, err
	}
	var resp orderResponse
	if err := c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(id)+"/status", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}
