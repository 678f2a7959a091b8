// Package session keeps the shopper's bearer token and account in storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/esdaly/storefront/internal/domain"
	"github.com/esdaly/storefront/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type Session struct {
	storage storage.Storage
	logger  *zap.Logger
	now     func() time.Time
	parser  *jwt.Parser
}

func New(st storage.Storage, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		storage: st,
		logger:  logger,
		now:     time.Now,
		parser:  jwt.NewParser(),
	}
}

// Save stores the token and user returned by a login.
func (s *Session) Save(ctx context.Context, token string, user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.storage.Set(ctx, domain.KeyToken, []byte(token)); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if err := s.storage.Set(ctx, domain.KeyUser, data); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// Token returns the bearer token, or "" when signed out. An expired token
// ends the session.
func (s *Session) Token(ctx context.Context) (string, error) {
	raw, err := s.storage.Get(ctx, domain.KeyToken)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	token := string(raw)
	if s.expired(token) {
		s.logger.Info("session token expired")
		if err := s.Clear(ctx); err != nil {
			return "", err
		}
		return "", nil
	}
	return token, nil
}

// User returns the stored account, if any.
func (s *Session) User(ctx context.Context) (domain.User, bool, error) {
	raw, err := s.storage.Get(ctx, domain.KeyUser)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("failed to read user: %w", err)
	}

	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		s.logger.Warn("ignoring malformed stored user", zap.Error(err))
		return domain.User{}, false, nil
	}
	return u, true, nil
}

func (s *Session) Authenticated(ctx context.Context) bool {
	token, err := s.Token(ctx)
	return err == nil && token != ""
}

// Clear signs the shopper out.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.storage.Delete(ctx, domain.KeyToken); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	if err := s.storage.Delete(ctx, domain.KeyUser); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// expired reads exp without verifying the signature; only the API can do
// that. Tokens that are not JWTs never expire here.
func (s *Session) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := s.parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !s.now().Before(exp.Time)
}
