package selections

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-assistant/app/docstore"
	"github.com/FACorreiaa/go-trip-assistant/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

var _ Repository = (*MongoSelectionsRepo)(nil)

type Repository interface {
	SaveResults(ctx context.Context, set types.SearchResultSet) error
	GetResults(ctx context.Context, userID, tripID uuid.UUID) (*types.SearchResultSet, error)
	AppendSelections(ctx context.Context, userID, tripID uuid.UUID, places []types.CanonicalPlace) error
	GetSelections(ctx context.Context, userID, tripID uuid.UUID) (*types.SelectionBuffer, error)
	DeleteSelections(ctx context.Context, userID, tripID uuid.UUID) error
}

type MongoSelectionsRepo struct {
	logger  *slog.Logger
	results *mongo.Collection
	saved   *mongo.Collection
	metrics *metrics.AppMetrics
}

func NewMongoSelectionsRepo(db *mongo.Database, m *metrics.AppMetrics, logger *slog.Logger) *MongoSelectionsRepo {
	return &MongoSelectionsRepo{
		logger:  logger,
		results: db.Collection(docstore.SearchResultsCollection),
		saved:   db.Collection(docstore.SavedPlacesCollection),
		metrics: m,
	}
}

func tripFilter(userID, tripID uuid.UUID) bson.M {
	return bson.M{"userId": userID, "tripId": tripID}
}

func startSpan(ctx context.Context, op, collection string, userID, tripID uuid.UUID) (context.Context, trace.Span) {
	return otel.Tracer("SelectionsRepo").Start(ctx, op, trace.WithAttributes(
		semconv.DBSystemMongoDB,
		attribute.String("db.collection.name", collection),
		attribute.String("db.user.id", userID.String()),
		attribute.String("db.trip.id", tripID.String()),
	))
}

// SaveResults replaces the stored result set for the trip wholesale.
func (r *MongoSelectionsRepo) SaveResults(ctx context.Context, set types.SearchResultSet) error {
	ctx, span := startSpan(ctx, "SaveResults", docstore.SearchResultsCollection, set.UserID, set.TripID)
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, docstore.SearchResultsCollection, time.Now())

	if set.Places == nil {
		set.Places = []types.CanonicalPlace{}
	}
	update := bson.M{"$set": bson.M{
		"kind":      set.Kind,
		"data":      set.Places,
		"updatedAt": time.Now().UTC(),
	}}
	_, err := r.results.UpdateOne(ctx, tripFilter(set.UserID, set.TripID), update, options.Update().SetUpsert(true))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to upsert search results",
			slog.String("method", "SaveResults"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Upsert failed")
		return fmt.Errorf("error saving search results: %w", err)
	}
	span.SetStatus(codes.Ok, "Search results saved")
	return nil
}

// GetResults returns nil when the trip has no stored result set.
func (r *MongoSelectionsRepo) GetResults(ctx context.Context, userID, tripID uuid.UUID) (*types.SearchResultSet, error) {
	ctx, span := startSpan(ctx, "GetResults", docstore.SearchResultsCollection, userID, tripID)
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, docstore.SearchResultsCollection, time.Now())

	var set types.SearchResultSet
	err := r.results.FindOne(ctx, tripFilter(userID, tripID)).Decode(&set)
	if errors.Is(err, mongo.ErrNoDocuments) {
		span.SetStatus(codes.Ok, "No results stored")
		return nil, nil
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to load search results",
			slog.String("method", "GetResults"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Find failed")
		return nil, fmt.Errorf("error loading search results: %w", err)
	}
	span.SetStatus(codes.Ok, "Search results loaded")
	return &set, nil
}

// AppendSelections pushes places onto the end of the trip's buffer, creating it if needed.
func (r *MongoSelectionsRepo) AppendSelections(ctx context.Context, userID, tripID uuid.UUID, places []types.CanonicalPlace) error {
	ctx, span := startSpan(ctx, "AppendSelections", docstore.SavedPlacesCollection, userID, tripID)
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, docstore.SavedPlacesCollection, time.Now())

	span.SetAttributes(attribute.Int("places.count", len(places)))
	update := bson.M{"$push": bson.M{"placeData": bson.M{"$each": places}}}
	_, err := r.saved.UpdateOne(ctx, tripFilter(userID, tripID), update, options.Update().SetUpsert(true))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to append selections",
			slog.String("method", "AppendSelections"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Push failed")
		return fmt.Errorf("error appending selections: %w", err)
	}
	span.SetStatus(codes.Ok, "Selections appended")
	return nil
}

// GetSelections returns nil when no buffer exists for the trip.
func (r *MongoSelectionsRepo) GetSelections(ctx context.Context, userID, tripID uuid.UUID) (*types.SelectionBuffer, error) {
	ctx, span := startSpan(ctx, "GetSelections", docstore.SavedPlacesCollection, userID, tripID)
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, docstore.SavedPlacesCollection, time.Now())

	var buf types.SelectionBuffer
	err := r.saved.FindOne(ctx, tripFilter(userID, tripID)).Decode(&buf)
	if errors.Is(err, mongo.ErrNoDocuments) {
		span.SetStatus(codes.Ok, "No buffer")
		return nil, nil
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to load selections",
			slog.String("method", "GetSelections"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Find failed")
		return nil, fmt.Errorf("error loading selections: %w", err)
	}
	span.SetStatus(codes.Ok, "Selections loaded")
	return &buf, nil
}

func (r *MongoSelectionsRepo) DeleteSelections(ctx context.Context, userID, tripID uuid.UUID) error {
	ctx, span := startSpan(ctx, "DeleteSelections", docstore.SavedPlacesCollection, userID, tripID)
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, docstore.SavedPlacesCollection, time.Now())

	res, err := r.saved.DeleteOne(ctx, tripFilter(userID, tripID))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete selections",
			slog.String("method", "DeleteSelections"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Delete failed")
		return fmt.Errorf("error deleting selections: %w", err)
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", res.DeletedCount))
	span.SetStatus(codes.Ok, "Selections deleted")
	return nil
}
