package profiles

import (
	"context"
	"encoding/json"
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

var _ Repository = (*PostgresProfilesRepo)(nil)

type Repository interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (types.PreferenceProfile, error)
}

type PostgresProfilesRepo struct {
	logger  *slog.Logger
	db      database.DB
	metrics *metrics.AppMetrics
}

func NewPostgresProfilesRepo(db database.DB, m *metrics.AppMetrics, logger *slog.Logger) *PostgresProfilesRepo {
	return &PostgresProfilesRepo{logger: logger, db: db, metrics: m}
}

// GetProfile reads users.personality. A NULL column yields an empty profile.
func (r *PostgresProfilesRepo) GetProfile(ctx context.Context, userID uuid.UUID) (types.PreferenceProfile, error) {
	ctx, span := otel.Tracer("ProfilesRepo").Start(ctx, "GetProfile", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, "users", time.Now())

	l := r.logger.With(slog.String("method", "GetProfile"), slog.String("userID", userID.String()))

	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT personality FROM users WHERE user_id = $1`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		l.InfoContext(ctx, "User has no profile row")
		span.SetStatus(codes.Error, "Profile not found")
		return nil, types.ErrProfileNotFound
	}
	if err != nil {
		l.ErrorContext(ctx, "Failed to query profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching profile: %w", err)
	}

	profile := types.PreferenceProfile{}
	if len(raw) == 0 {
		span.SetStatus(codes.Ok, "Empty profile")
		return profile, nil
	}

	var stored map[string]string
	if err := json.Unmarshal(raw, &stored); err != nil {
		l.ErrorContext(ctx, "Stored personality is not a JSON object", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad personality JSON")
		return nil, fmt.Errorf("%w: %v", types.ErrUnknownTag, err)
	}
	for dim, tag := range stored {
		profile[types.PreferenceDimension(dim)] = types.PreferenceTag(tag)
	}

	span.SetStatus(codes.Ok, "Profile fetched")
	return profile, nil
}
