package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/esdaly/storefront/internal/domain"
)

type UserList struct {
	Listing
	Users []domain.User `json:"users"`
}

func (c *Client) ListUsers(ctx context.Context, p Page) (*UserList, error) {
	var resp UserList
	if err := c.do(ctx, http.MethodGet, "/users", p.values(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (domain.User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return domain.User{}, err
	}
	return resp.User, nil
}

// StatsRange limits dashboard figures to a date range (YYYY-MM-DD).
type StatsRange struct {
	StartDate string
	EndDate   string
}

type statsResponse struct {
	Stats DashboardStats `json:"stats"`
}

func (c *Client) DashboardStats(ctx context.Context, r StatsRange) (*DashboardStats, error) {
	q := url.Values{}
	if r.StartDate != "" {
		q.Set("startDate", r.StartDate)
	}
	if r.EndDate != "" {
		q.Set("endDate", r.EndDate)
	}

	var resp statsResponse
	if err := c.do(ctx, http.MethodGet, "/dashboard/stats", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Stats, nil
}

func (c *Client) DashboardProducts(ctx context.Context, p Page) (*ProductList, error) {
	var resp ProductList
	if err := c.do(ctx, http.MethodGet, "/dashboard/products", p.values(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
