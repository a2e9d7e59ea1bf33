package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	generativeAI "github.com/FACorreiaa/go-trip-assistant/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-assistant/internal/api/trips"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// SelectionSource is the part of the selection store the synthesizer consumes.
type SelectionSource interface {
	Selections(ctx context.Context, userID, tripID uuid.UUID) ([]types.CanonicalPlace, error)
	ClearSelection(ctx context.Context, userID, tripID uuid.UUID) error
}

type Service interface {
	Synthesize(ctx context.Context, userID, tripID uuid.UUID) (string, error)
	Entries(ctx context.Context, userID, tripID uuid.UUID, date string) ([]types.ItineraryEntry, error)
	ExportCalendar(ctx context.Context, userID, tripID uuid.UUID) (string, error)
}

type ServiceImpl struct {
	repo       Repository
	trips      trips.Repository
	selections SelectionSource
	gen        generativeAI.TextGenerator
	calendar   *CalendarExporter
	logger     *slog.Logger
}

func NewItineraryService(repo Repository, tripsRepo trips.Repository, selections SelectionSource,
	gen generativeAI.TextGenerator, calendar *CalendarExporter, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:       repo,
		trips:      tripsRepo,
		selections: selections,
		gen:        gen,
		calendar:   calendar,
		logger:     logger,
	}
}

// Synthesize promotes the selection buffer into itinerary rows and returns a narrative of the plan.
func (s *ServiceImpl) Synthesize(ctx context.Context, userID, tripID uuid.UUID) (string, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Synthesize", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Synthesize"), slog.String("tripID", tripID.String()))

	places, err := s.selections.Selections(ctx, userID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load selections")
		return "", fmt.Errorf("error loading selections: %w", err)
	}
	if len(places) == 0 {
		l.InfoContext(ctx, "Nothing saved yet")
		span.SetStatus(codes.Error, "No selections")
		return "", types.ErrNoSelections
	}

	trip, err := s.trips.GetTrip(ctx, userID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load trip")
		return "", fmt.Errorf("error loading trip bounds: %w", err)
	}

	prompt, err := planningPrompt(trip, places)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Prompt build failed")
		return "", err
	}

	response, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		l.ErrorContext(ctx, "Planning call failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Planning call failed")
		return "", fmt.Errorf("error generating plan: %w", err)
	}

	entries, err := parsePlan(response, userID, tripID)
	if err != nil {
		l.WarnContext(ctx, "Generated plan rejected", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Plan rejected")
		return "", err
	}

	if err = s.repo.InsertEntries(ctx, entries); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		return "", fmt.Errorf("error saving plan: %w", err)
	}
	span.SetAttributes(attribute.Int("plan.entries", len(entries)))
	l.InfoContext(ctx, "Plan committed", slog.Int("entries", len(entries)))

	if err = s.selections.ClearSelection(ctx, userID, tripID); err != nil {
		l.ErrorContext(ctx, "Failed to clear selection buffer after commit", slog.Any("error", err))
		span.RecordError(err)
	}

	summary, err := s.gen.Generate(ctx, summaryPrompt(trip, entries))
	if err != nil || summary == "" {
		l.WarnContext(ctx, "Summary call failed, using plain schedule", slog.Any("error", err))
		summary = fallbackSummary(trip, entries)
	}

	span.SetStatus(codes.Ok, "Plan synthesized")
	return summary, nil
}

func (s *ServiceImpl) Entries(ctx context.Context, userID, tripID uuid.UUID, date string) ([]types.ItineraryEntry, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Entries", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
		attribute.String("plan.date", date),
	))
	defer span.End()

	if date != "" {
		if _, err := NormalizeDate(date); err != nil {
			span.SetStatus(codes.Error, "Invalid date")
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidArguments, err)
		}
	}
	entries, err := s.repo.ListEntries(ctx, userID, tripID, date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "List failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Entries listed")
	return entries, nil
}

// ExportCalendar renders the trip's itinerary as an iCalendar document.
func (s *ServiceImpl) ExportCalendar(ctx context.Context, userID, tripID uuid.UUID) (string, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "ExportCalendar", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	trip, err := s.trips.GetTrip(ctx, userID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load trip")
		return "", err
	}
	entries, err := s.repo.ListEntries(ctx, userID, tripID, "")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "List failed")
		return "", err
	}
	if s.calendar == nil {
		err = errors.New("calendar export is not configured")
		span.SetStatus(codes.Error, "No exporter")
		return "", err
	}

	doc, err := s.calendar.Export(trip, entries)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Export failed")
		return "", err
	}
	span.SetStatus(codes.Ok, "Calendar exported")
	return doc, nil
}
