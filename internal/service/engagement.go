package service

import (
	"context"

	"github.com/esdaly/storefront/internal/api"
)

// Subscribe signs an email address up for the newsletter.
func (s *Storefront) Subscribe(ctx context.Context, email string) error {
	resp, err := s.api.Subscribe(ctx, api.SubscribeRequest{Email: email, Source: "footer"})
	if err != nil {
		return s.fail(ctx, "subscribe", err)
	}

	msg := "Subscribed to the newsletter"
	if resp != nil && resp.Message != "" {
		msg = resp.Message
	}
	s.toasts.Success(msg)
	return nil
}

func (s *Storefront) Contact(ctx context.Context, req api.ContactRequest) error {
	if err := s.api.CreateContact(ctx, req); err != nil {
		return s.fail(ctx, "contact", err)
	}
	s.toasts.Success("Message sent, we will get back to you soon")
	return nil
}
