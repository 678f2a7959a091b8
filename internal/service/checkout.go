package service

import (
	"context"

	"github.com/esdaly/storefront/internal/api"
	"github.com/esdaly/storefront/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

type CheckoutRequest struct {
	ShippingAddress domain.Address `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod"`
	TransactionID   string         `json:"transactionId,omitempty"`
	AccountNumber   string         `json:"accountNumber,omitempty"`
	Notes           string         `json:"notes,omitempty"`
}

// Checkout places an order for the whole cart and empties the cart once
// the API accepted it.
func (s *Storefront) Checkout(ctx context.Context, req CheckoutRequest) (*api.Order, error) {
	token, err := s.session.Token(ctx)
	if err != nil {
		return nil, s.fail(ctx, "checkout", err)
	}
	if token == "" {
		return nil, s.fail(ctx, "checkout", ErrNotAuthenticated)
	}

	lines := s.cart.Lines()
	if len(lines) == 0 {
		return nil, s.fail(ctx, "checkout", ErrEmptyCart)
	}

	snapshot := domain.NewCartSnapshot(lines, s.now())
	order, err := s.api.CreateOrder(ctx, buildOrder(snapshot, req))
	if err != nil {
		return nil, s.fail(ctx, "checkout", err)
	}

	s.cart.Clear()
	s.metrics.OrdersCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", req.PaymentMethod)))
	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int("items", len(snapshot.Items)),
		zap.String("total", snapshot.Totals.Total.String()))
	s.toasts.Success("Order placed successfully")
	return order, nil
}

func buildOrder(snapshot domain.CartSnapshot, req CheckoutRequest) api.CreateOrderRequest {
	items := make([]api.OrderItem, 0, len(snapshot.Items))
	for _, it := range snapshot.Items {
		items = append(items, api.OrderItem{
			Product:  it.ProductID,
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
			Image:    it.Image,
		})
	}

	payment := api.Payment{Method: req.PaymentMethod, Status: "pending"}
	if req.PaymentMethod == api.PaymentBankTransfer {
		payment.TransactionID = req.TransactionID
		payment.AccountNumber = req.AccountNumber
	}

	return api.CreateOrderRequest{
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.ShippingAddress,
		Pricing: api.OrderPricing{
			Subtotal: snapshot.Totals.Subtotal,
			Shipping: snapshot.Totals.Shipping,
			Discount: snapshot.Totals.Discount,
			Total:    snapshot.Totals.Total,
		},
		Payment: payment,
		Notes:   req.Notes,
	}
}
