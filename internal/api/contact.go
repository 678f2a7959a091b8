package api

import (
	"context"
	"net/http"
	"net/url"
)

type ContactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message" validate:"required"`
}

// StatusQuery pages through records filtered by status.
type StatusQuery struct {
	Page
	Status string
}

func (q StatusQuery) values() url.Values {
	v := q.Page.values()
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	return v
}

type ContactList struct {
	Listing
	Contacts []Contact `json:"contacts"`
}

type contactResponse struct {
	Contact Contact `json:"contact"`
}

type statusBody struct {
	Status string `json:"status" validate:"required"`
}

func (c *Client) CreateContact(ctx context.Context, req ContactRequest) error {
	if err := c.check(ctx, req); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/contact", nil, req, nil)
}

func (c *Client) ListContacts(ctx context.Context, q StatusQuery) (*ContactList, error) {
	var resp ContactList
	if err := c.do(ctx, http.MethodGet, "/contact", q.values(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetContact(ctx context.Context, id string) (*Contact, error) {
	var resp contactResponse
	if err := c.do(ctx, http.MethodGet, "/contact/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Contact, nil
}

func (c *Client) UpdateContactStatus(ctx context.Context, id, status string) error {
	body := statusBody{Status: status}
	if err := c.check(ctx, body); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, "/contact/"+url.PathEscape(id)+"/status", nil, body, nil)
}

func (c *Client) DeleteContact(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/contact/"+url.PathEscape(id), nil, nil, nil)
}

type SubscribeRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Source string `json:"source,omitempty"`
}

type SubscriberList struct {
	Listing
	Subscribers []Subscriber `json:"subscribers"`
}

func (c *Client) Subscribe(ctx context.Context, req SubscribeRequest) (*Message, error) {
	if err := c.check(ctx, req); err != nil {
		return nil, err
	}
	var resp Message
	if err := c.do(ctx, http.MethodPost, "/newsletter", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Unsubscribe(ctx context.Context, email string) error {
	body := SubscribeRequest{Email: email}
	if err := c.check(ctx, body); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/newsletter/unsubscribe", nil, body, nil)
}

func (c *Client) ListSubscribers(ctx context.Context, q StatusQuery) (*SubscriberList, error) {
	var resp SubscriberList
	if err := c.do(ctx, http.MethodGet, "/newsletter", q.values(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateSubscriberStatus(ctx context.Context, id, status string) error {
	body := statusBody{Status: status}
	if err := c.check(ctx, body); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, "/newsletter/"+url.PathEscape(id)+"/status", nil, body, nil)
}

func (c *Client) DeleteSubscriber(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/newsletter/"+url.PathEscape(id), nil, nil, nil)
}
