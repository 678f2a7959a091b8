package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sum(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	s, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "not an int64 sum: %T", data)
	var total int64
	for _, dp := range s.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordCartMutation(ctx, "add", nil)
	m.RecordCartMutation(ctx, "add", errors.New("insufficient stock"))
	m.RecordStorage(ctx, "write", "cart", nil)
	m.RecordStorage(ctx, "read", "cart", nil)
	m.RecordStorage(ctx, "delete", "cart", errors.New("down"))
	m.RecordHTTPRequest(ctx, "GET", "/api/v1/cart", 200, time.Now())

	data := collect(t, reader)
	assert.Equal(t, int64(2), sum(t, data["cart_mutations_total"]))
	assert.Equal(t, int64(1), sum(t, data["storage_writes_total"]))
	assert.Equal(t, int64(1), sum(t, data["storage_errors_total"]))
	assert.Equal(t, int64(1), sum(t, data["http.server.request.count"]))
	assert.Contains(t, data, "http.server.request.duration")
}

func TestNop(t *testing.T) {
	m := Nop()
	require.NotNil(t, m)
	m.RecordCartMutation(context.Background(), "clear", nil)
}
