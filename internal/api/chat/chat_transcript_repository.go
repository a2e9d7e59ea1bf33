package chat

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

var _ TranscriptRepository = (*MongoTranscriptRepo)(nil)

// TranscriptRepository persists the full chat log of a trip, one document per user and trip.
type TranscriptRepository interface {
	AppendMessages(ctx context.Context, userID, tripID uuid.UUID, msgs ...types.ChatMessage) error
	Messages(ctx context.Context, userID, tripID uuid.UUID) ([]types.ChatMessage, error)
}

type MongoTranscriptRepo struct {
	logger  *slog.Logger
	logs    *mongo.Collection
	metrics *metrics.AppMetrics
}

func NewMongoTranscriptRepo(db *mongo.Database, m *metrics.AppMetrics, logger *slog.Logger) *MongoTranscriptRepo {
	return &MongoTranscriptRepo{logger: logger, logs: db.Collection(docstore.ChatLogsCollection), metrics: m}
}

func (r *MongoTranscriptRepo) span(ctx context.Context, op string, userID, tripID uuid.UUID) (context.Context, trace.Span) {
	return otel.Tracer("TranscriptRepo").Start(ctx, op, trace.WithAttributes(
		semconv.DBSystemMongoDB,
		attribute.String("db.collection.name", docstore.ChatLogsCollection),
		attribute.String("db.user.id", userID.String()),
		attribute.String("db.trip.id", tripID.String()),
	))
}

func (r *MongoTranscriptRepo) AppendMessages(ctx context.Context, userID, tripID uuid.UUID, msgs ...types.ChatMessage) error {
	ctx, span := r.span(ctx, "AppendMessages", userID, tripID)
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, docstore.ChatLogsCollection, time.Now())

	if len(msgs) == 0 {
		return nil
	}
	update := bson.M{
		"$push":        bson.M{"conversation": bson.M{"$each": msgs}},
		"$setOnInsert": bson.M{"createdAt": time.Now().UTC()},
	}
	_, err := r.logs.UpdateOne(ctx, bson.M{"userId": userID, "tripId": tripID}, update, options.Update().SetUpsert(true))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to append chat messages",
			slog.String("method", "AppendMessages"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Push failed")
		return fmt.Errorf("error appending chat messages: %w", err)
	}
	span.SetStatus(codes.Ok, "Messages appended")
	return nil
}

// Messages returns the transcript in the order it was written, or an empty slice.
func (r *MongoTranscriptRepo) Messages(ctx context.Context, userID, tripID uuid.UUID) ([]types.ChatMessage, error) {
	ctx, span := r.span(ctx, "Messages", userID, tripID)
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, docstore.ChatLogsCollection, time.Now())

	var chatLog types.ChatLog
	err := r.logs.FindOne(ctx, bson.M{"userId": userID, "tripId": tripID}).Decode(&chatLog)
	if errors.Is(err, mongo.ErrNoDocuments) {
		span.SetStatus(codes.Ok, "No transcript")
		return []types.ChatMessage{}, nil
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to load chat messages",
			slog.String("method", "Messages"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Find failed")
		return nil, fmt.Errorf("error loading chat messages: %w", err)
	}
	if chatLog.Conversation == nil {
		chatLog.Conversation = []types.ChatMessage{}
	}
	span.SetAttributes(attribute.Int("messages.count", len(chatLog.Conversation)))
	span.SetStatus(codes.Ok, "Messages loaded")
	return chatLog.Conversation, nil
}
