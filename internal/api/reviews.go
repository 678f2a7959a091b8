package api

import (
	"context"
	"net/http"
	"net/url"
)

type ReviewRequest struct {
	Product string `json:"product" validate:"required"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Title   string `json:"title,omitempty"`
	Comment string `json:"comment" validate:"required"`
}

type ReviewList struct {
	Listing
	Reviews []Review `json:"reviews"`
}

type reviewResponse struct {
	Review Review `json:"review"`
}

func (c *Client) ListReviews(ctx context.Context, productID string, p Page) (*ReviewList, error) {
	q := p.values()
	q.Set("productId", productID)

	var resp ReviewList
	if err := c.do(ctx, http.MethodGet, "/reviews", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateReview(ctx context.Context, req ReviewRequest) (*Review, error) {
	if err := c.check(ctx, req); err != nil {
		return nil, err
	}
	var resp reviewResponse
	if err := c.do(ctx, http.MethodPost, "/reviews", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Review, nil
}

func (c *Client) MarkReviewHelpful(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/reviews/"+url.PathEscape(id)+"/helpful", nil, nil, nil)
}
