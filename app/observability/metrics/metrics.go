package metrics

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// AppMetrics holds the application's metric instruments.
// All record methods are safe on a nil receiver.
type AppMetrics struct {
	IntentRequestsTotal           metric.Int64Counter
	UpstreamErrorsTotal           metric.Int64Counter
	LLMCallDurationSeconds        metric.Float64Histogram
	ItineraryEntriesInsertedTotal metric.Int64Counter
	DbQueryDurationSeconds        metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// NewAppMetrics creates every instrument on the given meter.
func NewAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	var err error
	m := &AppMetrics{}

	m.IntentRequestsTotal, err = meter.Int64Counter(
		"intent_requests_total",
		metric.WithDescription("Routed assistant requests by intent"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("intent_requests_total: %w", err)
	}

	m.UpstreamErrorsTotal, err = meter.Int64Counter(
		"upstream_errors_total",
		metric.WithDescription("Failed calls to external services by upstream"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("upstream_errors_total: %w", err)
	}

	m.LLMCallDurationSeconds, err = meter.Float64Histogram(
		"llm_call_duration_seconds",
		metric.WithDescription("Duration of generative model calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("llm_call_duration_seconds: %w", err)
	}

	m.ItineraryEntriesInsertedTotal, err = meter.Int64Counter(
		"itinerary_entries_inserted_total",
		metric.WithDescription("Itinerary entries persisted by the synthesizer"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("itinerary_entries_inserted_total: %w", err)
	}

	m.DbQueryDurationSeconds, err = meter.Float64Histogram(
		"db_query_duration_seconds",
		metric.WithDescription("Duration of database queries in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("db_query_duration_seconds: %w", err)
	}

	return m, nil
}

// InitAppMetrics initializes the global instruments once from the global MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		m, err := NewAppMetrics(otel.GetMeterProvider().Meter("TripAssistant"))
		if err != nil {
			log.Fatalf("Metrics: %v", err)
		}
		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the global instance. Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}

// NewNoop returns instruments that record nothing.
func NewNoop() *AppMetrics {
	m, _ := NewAppMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}

func (m *AppMetrics) RecordIntent(ctx context.Context, intent string) {
	if m == nil {
		return
	}
	m.IntentRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", intent)))
}

func (m *AppMetrics) RecordUpstreamError(ctx context.Context, upstream string) {
	if m == nil {
		return
	}
	m.UpstreamErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("upstream", upstream)))
}

func (m *AppMetrics) ObserveLLMCall(ctx context.Context, operation string, start time.Time) {
	if m == nil {
		return
	}
	m.LLMCallDurationSeconds.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("operation", operation)))
}

func (m *AppMetrics) AddEntriesInserted(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.ItineraryEntriesInsertedTotal.Add(ctx, int64(n))
}

func (m *AppMetrics) ObserveDBQuery(ctx context.Context, table string, start time.Time) {
	if m == nil {
		return
	}
	m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("db.sql.table", table)))
}
