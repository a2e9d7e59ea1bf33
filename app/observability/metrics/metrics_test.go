package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestAppMetricsRecording(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewAppMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordIntent(ctx, "search_places")
	m.RecordIntent(ctx, "search_places")
	m.RecordUpstreamError(ctx, "maps")
	m.AddEntriesInserted(ctx, 3)
	m.ObserveLLMCall(ctx, "rank", time.Now())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := map[string]metricdata.Metrics{}
	for _, mt := range rm.ScopeMetrics[0].Metrics {
		names[mt.Name] = mt
	}
	require.Contains(t, names, "intent_requests_total")
	sum := names["intent_requests_total"].Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	inserted := names["itinerary_entries_inserted_total"].Data.(metricdata.Sum[int64])
	assert.Equal(t, int64(3), inserted.DataPoints[0].Value)
	assert.Contains(t, names, "llm_call_duration_seconds")
	assert.Contains(t, names, "upstream_errors_total")
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *AppMetrics
	assert.NotPanics(t, func() {
		m.RecordIntent(context.Background(), "just_chat")
		m.ObserveDBQuery(context.Background(), "trip_plans", time.Now())
	})
	assert.NotNil(t, NewNoop())
}
