package planedit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	generativeAI "github.com/FACorreiaa/go-trip-assistant/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-assistant/internal/api/itinerary"
	"github.com/FACorreiaa/go-trip-assistant/internal/session"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// EntryStore is the slice of the itinerary repository the state machine needs.
type EntryStore interface {
	ListEntries(ctx context.Context, userID, tripID uuid.UUID, date string) ([]types.ItineraryEntry, error)
	FindEntry(ctx context.Context, userID, tripID uuid.UUID, date, title string) (*types.ItineraryEntry, error)
	UpdateEntry(ctx context.Context, userID, tripID uuid.UUID, date, title string, change itinerary.EntryChange) (before, after *types.ItineraryEntry, err error)
}

// Proposal is the entry a pending edit targets together with the stored edit.
type Proposal struct {
	Entry types.ItineraryEntry
	Edit  types.PendingEdit
}

// Applied reports an entry before and after a confirmed edit.
type Applied struct {
	Before types.ItineraryEntry
	After  types.ItineraryEntry
}

// Service drives the per-user edit workflow: NoPending -> Proposed -> Applied | Cancelled.
type Service interface {
	HasPending(ctx context.Context, userID uuid.UUID) (bool, error)
	Propose(ctx context.Context, userID, tripID uuid.UUID, req types.EditRequest) (*Proposal, error)
	Confirm(ctx context.Context, userID uuid.UUID) (*Applied, error)
	Cancel(ctx context.Context, userID uuid.UUID) (bool, error)
}

type ServiceImpl struct {
	store     session.PendingStore
	entries   EntryStore
	embedder  generativeAI.Embedder
	threshold float64
	logger    *slog.Logger
	now       func() time.Time
}

// NewPlanEditService wires the state machine. embedder may be nil, in which case
// only exact (date, title) matches are found.
func NewPlanEditService(store session.PendingStore, entries EntryStore, embedder generativeAI.Embedder, threshold float64, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		store:     store,
		entries:   entries,
		embedder:  embedder,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ServiceImpl) HasPending(ctx context.Context, userID uuid.UUID) (bool, error) {
	edit, err := s.store.GetPending(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("error reading pending edit: %w", err)
	}
	return edit != nil, nil
}

// Propose locates the target entry and stores the edit, replacing any earlier proposal.
// A crew-owned entry is rejected and leaves the store untouched.
func (s *ServiceImpl) Propose(ctx context.Context, userID, tripID uuid.UUID, req types.EditRequest) (*Proposal, error) {
	ctx, span := otel.Tracer("PlanEditService").Start(ctx, "Propose", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Propose"), slog.String("userID", userID.String()))

	entry, err := s.locate(ctx, userID, tripID, req)
	if err != nil {
		if errors.Is(err, types.ErrPlanNotFound) {
			l.InfoContext(ctx, "No plan entry matches the request")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Locate failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("plan.id", entry.PlanID.String()))

	if entry.Frozen() {
		l.InfoContext(ctx, "Refusing to edit a crew entry", slog.String("planID", entry.PlanID.String()))
		span.SetStatus(codes.Error, "Frozen entry")
		return nil, types.ErrFrozenEntry
	}

	edit, err := s.buildEdit(*entry, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid new values")
		return nil, err
	}

	if err = s.store.SetPending(ctx, userID, edit); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Store failed")
		return nil, fmt.Errorf("error storing pending edit: %w", err)
	}

	l.InfoContext(ctx, "Edit proposed", slog.String("planID", entry.PlanID.String()))
	span.SetStatus(codes.Ok, "Proposed")
	return &Proposal{Entry: *entry, Edit: edit}, nil
}

// Confirm applies the pending edit. The pending edit is gone afterwards whatever the outcome.
func (s *ServiceImpl) Confirm(ctx context.Context, userID uuid.UUID) (*Applied, error) {
	ctx, span := otel.Tracer("PlanEditService").Start(ctx, "Confirm", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Confirm"), slog.String("userID", userID.String()))

	edit, err := s.store.TakePending(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Store failed")
		return nil, fmt.Errorf("error taking pending edit: %w", err)
	}
	if edit == nil {
		l.InfoContext(ctx, "Confirm without a pending edit")
		span.SetStatus(codes.Error, "No pending edit")
		return nil, types.ErrNoPendingUpdate
	}

	change := itinerary.EntryChange{Title: edit.NewTitle, Date: edit.NewDate, Time: edit.NewTime}
	before, after, err := s.entries.UpdateEntry(ctx, userID, edit.TripID, edit.Date, edit.Title, change)
	if err != nil {
		if errors.Is(err, types.ErrFrozenEntry) || errors.Is(err, types.ErrPlanNotFound) {
			l.InfoContext(ctx, "Pending edit can no longer be applied", slog.Any("reason", err))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Apply failed")
		return nil, err
	}

	l.InfoContext(ctx, "Edit applied", slog.String("planID", before.PlanID.String()))
	span.SetStatus(codes.Ok, "Applied")
	return &Applied{Before: *before, After: *after}, nil
}

// Cancel discards the pending edit and reports whether there was one.
func (s *ServiceImpl) Cancel(ctx context.Context, userID uuid.UUID) (bool, error) {
	ctx, span := otel.Tracer("PlanEditService").Start(ctx, "Cancel")
	defer span.End()

	edit, err := s.store.TakePending(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Store failed")
		return false, fmt.Errorf("error discarding pending edit: %w", err)
	}
	span.SetStatus(codes.Ok, "Cancelled")
	return edit != nil, nil
}

func (s *ServiceImpl) buildEdit(entry types.ItineraryEntry, req types.EditRequest) (types.PendingEdit, error) {
	edit := types.PendingEdit{
		TripID:     entry.TripID,
		Date:       entry.Date,
		Title:      entry.Title,
		NewTitle:   entry.Title,
		NewDate:    entry.Date,
		NewTime:    entry.Time,
		ProposedAt: s.now().UTC(),
	}
	if t := strings.TrimSpace(req.NewTitle); t != "" {
		edit.NewTitle = t
	}
	if req.NewDate != "" {
		d, err := itinerary.NormalizeDate(req.NewDate)
		if err != nil {
			return types.PendingEdit{}, fmt.Errorf("%w: %v", types.ErrInvalidArguments, err)
		}
		edit.NewDate = d
	}
	if req.NewTime != "" {
		t, err := itinerary.NormalizeTime(req.NewTime)
		if err != nil {
			return types.PendingEdit{}, fmt.Errorf("%w: %v", types.ErrInvalidArguments, err)
		}
		edit.NewTime = t
	}
	return edit, nil
}
