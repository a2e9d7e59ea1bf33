package itinerary

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

var _ Repository = (*PostgresItineraryRepo)(nil)

// EntryChange holds the complete new values for the editable fields of an entry.
type EntryChange struct {
	Title string
	Date  string
	Time  string
}

type Repository interface {
	InsertEntries(ctx context.Context, entries []types.ItineraryEntry) error
	ListEntries(ctx context.Context, userID, tripID uuid.UUID, date string) ([]types.ItineraryEntry, error)
	FindEntry(ctx context.Context, userID, tripID uuid.UUID, date, title string) (*types.ItineraryEntry, error)
	UpdateEntry(ctx context.Context, userID, tripID uuid.UUID, date, title string, change EntryChange) (before, after *types.ItineraryEntry, err error)
}

type PostgresItineraryRepo struct {
	logger  *slog.Logger
	db      database.DB
	metrics *metrics.AppMetrics
}

func NewPostgresItineraryRepo(db database.DB, m *metrics.AppMetrics, logger *slog.Logger) *PostgresItineraryRepo {
	return &PostgresItineraryRepo{logger: logger, db: db, metrics: m}
}

const entryColumns = `plan_id, user_id, trip_id, title,
	to_char(plan_date, 'YYYY-MM-DD'), to_char(plan_time, 'HH24:MI:SS'),
	place, address, latitude, longitude, description, crew_id`

func scanEntry(row pgx.Row) (types.ItineraryEntry, error) {
	var e types.ItineraryEntry
	err := row.Scan(&e.PlanID, &e.UserID, &e.TripID, &e.Title, &e.Date, &e.Time,
		&e.Place, &e.Address, &e.Latitude, &e.Longitude, &e.Description, &e.CrewID)
	return e, err
}

func dbSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return otel.Tracer("ItineraryRepo").Start(ctx, op, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "trip_plans"),
	))
}

// InsertEntries writes every entry in one transaction. Nothing is written if any row fails.
func (r *PostgresItineraryRepo) InsertEntries(ctx context.Context, entries []types.ItineraryEntry) error {
	ctx, span := dbSpan(ctx, "InsertEntries")
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, "trip_plans", time.Now())

	l := r.logger.With(slog.String("method", "InsertEntries"), slog.Int("count", len(entries)))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction failed")
		return fmt.Errorf("database error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	query := `
		INSERT INTO trip_plans (plan_id, user_id, trip_id, title, plan_date, plan_time,
		                        place, address, latitude, longitude, description, crew_id)
		VALUES ($1, $2, $3, $4, $5::date, $6::time, $7, $8, $9, $10, $11, $12)`

	for i, e := range entries {
		_, err = tx.Exec(ctx, query, e.PlanID, e.UserID, e.TripID, e.Title, e.Date, e.Time,
			e.Place, e.Address, e.Latitude, e.Longitude, e.Description, e.CrewID)
		if err != nil {
			l.ErrorContext(ctx, "Failed to insert plan entry", slog.Int("index", i), slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Insert failed")
			return fmt.Errorf("error inserting plan entry %d: %w", i, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		l.ErrorContext(ctx, "Failed to commit plan entries", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Commit failed")
		return fmt.Errorf("error committing plan entries: %w", err)
	}

	r.metrics.AddEntriesInserted(ctx, len(entries))
	span.SetAttributes(attribute.Int("db.rows_affected", len(entries)))
	span.SetStatus(codes.Ok, "Entries inserted")
	return nil
}

// ListEntries returns the trip's entries in schedule order. An empty date lists every day.
func (r *PostgresItineraryRepo) ListEntries(ctx context.Context, userID, tripID uuid.UUID, date string) ([]types.ItineraryEntry, error) {
	ctx, span := dbSpan(ctx, "ListEntries")
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, "trip_plans", time.Now())

	l := r.logger.With(slog.String("method", "ListEntries"), slog.String("tripID", tripID.String()))

	query := `SELECT ` + entryColumns + `
		FROM trip_plans
		WHERE user_id = $1 AND trip_id = $2 AND ($3::text = '' OR plan_date = NULLIF($3, '')::date)
		ORDER BY plan_date, plan_time, plan_id`

	rows, err := r.db.Query(ctx, query, userID, tripID, date)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query plan entries", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing plan entries: %w", err)
	}
	defer rows.Close()

	entries := []types.ItineraryEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			l.ErrorContext(ctx, "Failed to scan plan entry", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Scan failed")
			return nil, fmt.Errorf("error scanning plan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Rows error")
		return nil, fmt.Errorf("error iterating plan entries: %w", err)
	}

	span.SetAttributes(attribute.Int("results.count", len(entries)))
	span.SetStatus(codes.Ok, "Entries listed")
	return entries, nil
}

// FindEntry looks an entry up by its (date, title) key. Ties go to the earliest time.
func (r *PostgresItineraryRepo) FindEntry(ctx context.Context, userID, tripID uuid.UUID, date, title string) (*types.ItineraryEntry, error) {
	ctx, span := dbSpan(ctx, "FindEntry")
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, "trip_plans", time.Now())

	query := `SELECT ` + entryColumns + `
		FROM trip_plans
		WHERE user_id = $1 AND trip_id = $2 AND plan_date = $3::date AND title = $4
		ORDER BY plan_time, plan_id
		LIMIT 1`

	e, err := scanEntry(r.db.QueryRow(ctx, query, userID, tripID, date, title))
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetStatus(codes.Error, "Entry not found")
		return nil, types.ErrPlanNotFound
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query plan entry", slog.String("method", "FindEntry"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching plan entry: %w", err)
	}
	span.SetStatus(codes.Ok, "Entry found")
	return &e, nil
}

// UpdateEntry locks the entry identified by (date, title), re-checks that it is not
// crew-owned and overwrites its title, date and time.
func (r *PostgresItineraryRepo) UpdateEntry(ctx context.Context, userID, tripID uuid.UUID, date, title string, change EntryChange) (*types.ItineraryEntry, *types.ItineraryEntry, error) {
	ctx, span := dbSpan(ctx, "UpdateEntry")
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, "trip_plans", time.Now())

	l := r.logger.With(slog.String("method", "UpdateEntry"), slog.String("tripID", tripID.String()))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction failed")
		return nil, nil, fmt.Errorf("database error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	selectQuery := `SELECT ` + entryColumns + `
		FROM trip_plans
		WHERE user_id = $1 AND trip_id = $2 AND plan_date = $3::date AND title = $4
		ORDER BY plan_time, plan_id
		LIMIT 1
		FOR UPDATE`

	before, err := scanEntry(tx.QueryRow(ctx, selectQuery, userID, tripID, date, title))
	if errors.Is(err, pgx.ErrNoRows) {
		l.InfoContext(ctx, "Entry to update no longer exists")
		span.SetStatus(codes.Error, "Entry not found")
		return nil, nil, types.ErrPlanNotFound
	}
	if err != nil {
		l.ErrorContext(ctx, "Failed to lock plan entry", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, nil, fmt.Errorf("database error locking plan entry: %w", err)
	}
	if before.Frozen() {
		l.InfoContext(ctx, "Entry belongs to a crew", slog.String("planID", before.PlanID.String()))
		span.SetStatus(codes.Error, "Frozen entry")
		return nil, nil, types.ErrFrozenEntry
	}

	_, err = tx.Exec(ctx,
		`UPDATE trip_plans SET title = $1, plan_date = $2::date, plan_time = $3::time WHERE plan_id = $4`,
		change.Title, change.Date, change.Time, before.PlanID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update plan entry", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Update failed")
		return nil, nil, fmt.Errorf("error updating plan entry: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		l.ErrorContext(ctx, "Failed to commit plan update", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Commit failed")
		return nil, nil, fmt.Errorf("error committing plan update: %w", err)
	}

	after := before
	after.Title, after.Date, after.Time = change.Title, change.Date, change.Time
	span.SetAttributes(attribute.String("plan.id", before.PlanID.String()))
	span.SetStatus(codes.Ok, "Entry updated")
	return &before, &after, nil
}
