package service

import (
	"context"
	"fmt"

	"github.com/esdaly/storefront/internal/api"
	"github.com/esdaly/storefront/internal/domain"
)

func (s *Storefront) Login(ctx context.Context, email, password string) (domain.User, error) {
	resp, err := s.api.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return domain.User{}, s.fail(ctx, "login", err)
	}
	return s.startSession(ctx, resp)
}

func (s *Storefront) GoogleLogin(ctx context.Context, credential string) (domain.User, error) {
	resp, err := s.api.GoogleLogin(ctx, credential)
	if err != nil {
		return domain.User{}, s.fail(ctx, "google_login", err)
	}
	return s.startSession(ctx, resp)
}

func (s *Storefront) startSession(ctx context.Context, resp *api.AuthResponse) (domain.User, error) {
	if err := s.session.Save(ctx, resp.Token, resp.User); err != nil {
		return domain.User{}, s.fail(ctx, "save_session", err)
	}
	s.toasts.Success(fmt.Sprintf("Welcome, %s", resp.User.Name))
	return resp.User, nil
}

func (s *Storefront) Logout(ctx context.Context) error {
	if err := s.session.Clear(ctx); err != nil {
		return s.fail(ctx, "logout", err)
	}
	s.toasts.Success("Signed out")
	return nil
}

// CurrentUser returns the signed-in shopper, or false when signed out.
func (s *Storefront) CurrentUser(ctx context.Context) (domain.User, bool, error) {
	token, err := s.session.Token(ctx)
	if err != nil {
		return domain.User{}, false, err
	}
	if token == "" {
		return domain.User{}, false, nil
	}
	return s.session.User(ctx)
}
