package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/esdaly/storefront/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// Metrics holds the storefront instruments
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Shopper activity
	CartMutations   metric.Int64Counter
	FavoriteToggles metric.Int64Counter
	ProductsViewed  metric.Int64Counter
	OrdersCreated   metric.Int64Counter
	ToastsShown     metric.Int64Counter

	// Persistence
	StorageWrites metric.Int64Counter
	StorageErrors metric.Int64Counter
}

// InitMetrics exports metrics over OTLP/HTTP and registers the provider
// globally. The returned function flushes and stops the exporter.
func InitMetrics(ctx context.Context, cfg *config.Config) (*Metrics, func(context.Context) error, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(cfg.OTELServiceName),
		attribute.String("deployment.environment", cfg.AppEnv),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.OTELExporterOTLPEndpoint),
		otlpmetrichttp.WithURLPath("/v1/metrics"),
	}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))),
	)
	otel.SetMeterProvider(provider)

	m, err := New(provider.Meter(cfg.OTELServiceName))
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, nil, err
	}
	return m, provider.Shutdown, nil
}

// Nop returns instruments that record nothing.
func Nop() *Metrics {
	m, _ := New(noop.NewMeterProvider().Meter("noop"))
	return m
}

// New creates every instrument on meter.
func New(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	buckets := []float64{2, 4, 6, 8, 10, 50, 100, 200, 400, 800, 1000, 2000, 5000, 10000, 30000}

	if m.HTTPRequestsTotal, err = meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create http requests counter: %w", err)
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...)); err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}
	if m.CartMutations, err = meter.Int64Counter("cart_mutations_total",
		metric.WithDescription("Cart operations by outcome"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create cart mutations counter: %w", err)
	}
	if m.FavoriteToggles, err = meter.Int64Counter("favorite_toggles_total",
		metric.WithDescription("Favorite toggles"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create favorite toggles counter: %w", err)
	}
	if m.ProductsViewed, err = meter.Int64Counter("products_viewed_total",
		metric.WithDescription("Total number of product views"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create products viewed counter: %w", err)
	}
	if m.OrdersCreated, err = meter.Int64Counter("orders_created_total",
		metric.WithDescription("Total number of orders created"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create orders counter: %w", err)
	}
	if m.ToastsShown, err = meter.Int64Counter("toasts_shown_total",
		metric.WithDescription("Toast notifications by severity"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create toasts counter: %w", err)
	}
	if m.StorageWrites, err = meter.Int64Counter("storage_writes_total",
		metric.WithDescription("Collections written to storage"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create storage writes counter: %w", err)
	}
	if m.StorageErrors, err = meter.Int64Counter("storage_errors_total",
		metric.WithDescription("Failed storage reads and writes"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create storage errors counter: %w", err)
	}

	return &m, nil
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, start time.Time) {
	attrs := metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.response.status_code", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
}

// RecordCartMutation counts a cart operation and whether it was applied.
func (m *Metrics) RecordCartMutation(ctx context.Context, op string, err error) {
	m.CartMutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("status", status(err)),
	))
}

// RecordStorage counts a storage operation on key.
func (m *Metrics) RecordStorage(ctx context.Context, op, key string, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", op), attribute.String("key", key))
	if err != nil {
		m.StorageErrors.Add(ctx, 1, attrs)
		return
	}
	if op != "read" {
		m.StorageWrites.Add(ctx, 1, attrs)
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
