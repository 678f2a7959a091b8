// Package service runs the shopper's actions: every call updates the
// stores, lets persistence follow, and reports the outcome as a toast.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/esdaly/storefront/internal/api"
	"github.com/esdaly/storefront/internal/domain"
	"github.com/esdaly/storefront/internal/imageurl"
	"github.com/esdaly/storefront/internal/metrics"
	"github.com/esdaly/storefront/internal/store"
	"github.com/esdaly/storefront/internal/toast"
	"go.uber.org/zap"
)

// API is the part of the remote API the storefront calls.
type API interface {
	GetProduct(ctx context.Context, id string) (*api.Product, error)
	ListProducts(ctx context.Context, q api.ProductQuery) (*api.ProductList, error)
	CreateOrder(ctx context.Context, req api.CreateOrderRequest) (*api.Order, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error)
	GoogleLogin(ctx context.Context, credential string) (*api.AuthResponse, error)
	AddToWishlist(ctx context.Context, productID string) error
	RemoveFromWishlist(ctx context.Context, productID string) error
	Subscribe(ctx context.Context, req api.SubscribeRequest) (*api.Message, error)
	CreateContact(ctx context.Context, req api.ContactRequest) error
}

// Session holds the signed-in shopper.
type Session interface {
	Save(ctx context.Context, token string, user domain.User) error
	Token(ctx context.Context) (string, error)
	User(ctx context.Context) (domain.User, bool, error)
	Clear(ctx context.Context) error
}

type Deps struct {
	API       API
	Resolver  *imageurl.Resolver
	Cart      *store.CartStore
	Favorites *store.FavoritesStore
	Recent    *store.RecentlyViewed
	Catalog   *store.CatalogCache
	Toasts    *toast.Notifier
	Session   Session
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

type Storefront struct {
	api       API
	resolver  *imageurl.Resolver
	cart      *store.CartStore
	favorites *store.FavoritesStore
	recent    *store.RecentlyViewed
	catalog   *store.CatalogCache
	toasts    *toast.Notifier
	session   Session
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func New(d Deps) *Storefront {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Toasts == nil {
		d.Toasts = toast.NewNotifier()
	}
	return &Storefront{
		api:       d.API,
		resolver:  d.Resolver,
		cart:      d.Cart,
		favorites: d.Favorites,
		recent:    d.Recent,
		catalog:   d.Catalog,
		toasts:    d.Toasts,
		session:   d.Session,
		logger:    d.Logger,
		metrics:   d.Metrics,
		now:       d.Now,
	}
}

func (s *Storefront) Cart() *store.CartStore                { return s.cart }
func (s *Storefront) Favorites() *store.FavoritesStore      { return s.favorites }
func (s *Storefront) RecentlyViewed() *store.RecentlyViewed { return s.recent }
func (s *Storefront) Catalog() *store.CatalogCache          { return s.catalog }
func (s *Storefront) Toasts() *toast.Notifier               { return s.toasts }

// loadProduct is the catalog cache loader.
func (s *Storefront) loadProduct(ctx context.Context, id string) (domain.CatalogItem, error) {
	p, err := s.api.GetProduct(ctx, id)
	if err != nil {
		return domain.CatalogItem{}, err
	}
	return p.CatalogItem(s.resolver), nil
}

// fail reports err to the shopper and returns it unchanged.
func (s *Storefront) fail(ctx context.Context, op string, err error) error {
	s.logger.Warn("storefront action failed", zap.String("op", op), zap.Error(err))
	s.toasts.Error(userMessage(err))
	return err
}

func userMessage(err error) string {
	var stockErr *store.InsufficientStockError
	var apiErr *api.Error
	switch {
	case errors.As(err, &stockErr):
		if stockErr.Available <= 0 {
			return "This product is out of stock"
		}
		return fmt.Sprintf("Only %d available in stock", stockErr.Available)
	case errors.Is(err, ErrEmptyCart):
		return "Your cart is empty"
	case errors.Is(err, ErrNotAuthenticated):
		return "Please sign in first"
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, api.ErrValidation):
		return "Please check the highlighted fields"
	case errors.Is(err, api.ErrUnavailable):
		return "Cannot reach the server, please try again"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The request was cancelled"
	default:
		return "Something went wrong, please try again"
	}
}
