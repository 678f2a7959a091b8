package api

import (
	"context"
	"net/http"

	"github.com/esdaly/storefront/internal/domain"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProfileUpdate struct {
	Name    string          `json:"name,omitempty"`
	Email   string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone   string          `json:"phone,omitempty"`
	Address *domain.Address `json:"address,omitempty" validate:"omitempty"`
}

type PasswordUpdate struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
}

type AuthResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    domain.User `json:"user"`
}

type userResponse struct {
	User domain.User `json:"user"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := c.check(ctx, req); err != nil {
		return nil, err
	}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := c.check(ctx, req); err != nil {
		return nil, err
	}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GoogleLogin exchanges a Google identity credential for a session.
func (c *Client) GoogleLogin(ctx context.Context, credential string) (*AuthResponse, error) {
	body := struct {
		Credential string `json:"credential" validate:"required"`
	}{credential}
	if err := c.check(ctx, body); err != nil {
		return nil, err
	}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/google", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &resp); err != nil {
		return domain.User{}, err
	}
	return resp.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req ProfileUpdate) (domain.User, error) {
	if err := c.check(ctx, req); err != nil {
		return domain.User{}, err
	}
	var resp userResponse
	if err := c.do(ctx, http.MethodPut, "/auth/profile", nil, req, &resp); err != nil {
		return domain.User{}, err
	}
	return resp.User, nil
}

func (c *Client) UpdatePassword(ctx context.Context, req PasswordUpdate) error {
	if err := c.check(ctx, req); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, "/auth/password", nil, req, nil)
}
