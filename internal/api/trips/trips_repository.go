package trips

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-trip-assistant/app/db"
	"github.com/FACorreiaa/go-trip-assistant/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

var _ Repository = (*PostgresTripsRepo)(nil)

// Repository reads trip records. Trips are created elsewhere.
type Repository interface {
	GetTrip(ctx context.Context, userID, tripID uuid.UUID) (*types.Trip, error)
}

type PostgresTripsRepo struct {
	logger  *slog.Logger
	db      database.DB
	metrics *metrics.AppMetrics
}

func NewPostgresTripsRepo(db database.DB, m *metrics.AppMetrics, logger *slog.Logger) *PostgresTripsRepo {
	return &PostgresTripsRepo{logger: logger, db: db, metrics: m}
}

func (r *PostgresTripsRepo) GetTrip(ctx context.Context, userID, tripID uuid.UUID) (*types.Trip, error) {
	ctx, span := otel.Tracer("TripsRepo").Start(ctx, "GetTrip", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "my_trips"),
		attribute.String("db.trip.id", tripID.String()),
	))
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, "my_trips", time.Now())

	l := r.logger.With(slog.String("method", "GetTrip"), slog.String("tripID", tripID.String()))

	query := `
		SELECT trip_id, user_id, title, country, city,
		       to_char(start_date, 'YYYY-MM-DD'), to_char(end_date, 'YYYY-MM-DD')
		FROM my_trips
		WHERE trip_id = $1 AND user_id = $2`

	var trip types.Trip
	err := r.db.QueryRow(ctx, query, tripID, userID).Scan(
		&trip.TripID, &trip.UserID, &trip.Title, &trip.Country, &trip.City, &trip.StartDate, &trip.EndDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		l.InfoContext(ctx, "Trip not found for user")
		span.SetStatus(codes.Error, "Trip not found")
		return nil, types.ErrTripNotFound
	}
	if err != nil {
		l.ErrorContext(ctx, "Failed to query trip", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching trip: %w", err)
	}

	span.SetStatus(codes.Ok, "Trip fetched")
	return &trip, nil
}
