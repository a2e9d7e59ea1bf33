package selections

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service owns the per-trip result set and the selection buffer built from it.
type Service interface {
	StoreResults(ctx context.Context, userID, tripID uuid.UUID, kind types.ResultSetKind, places []types.CanonicalPlace) error
	CurrentResults(ctx context.Context, userID, tripID uuid.UUID) (*types.SearchResultSet, error)
	RecordSelection(ctx context.Context, userID, tripID uuid.UUID, indices []int) ([]types.CanonicalPlace, error)
	RecordSelectionFreeform(ctx context.Context, userID, tripID uuid.UUID) ([]types.CanonicalPlace, error)
	Selections(ctx context.Context, userID, tripID uuid.UUID) ([]types.CanonicalPlace, error)
	ClearSelection(ctx context.Context, userID, tripID uuid.UUID) error
}

type ServiceImpl struct {
	repo   Repository
	dedupe bool
	logger *slog.Logger
}

// NewSelectionsService builds the store. With dedupe set, places already buffered
// (or repeated within one batch) are skipped; identity is title plus address.
func NewSelectionsService(repo Repository, dedupe bool, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{repo: repo, dedupe: dedupe, logger: logger}
}

func (s *ServiceImpl) StoreResults(ctx context.Context, userID, tripID uuid.UUID, kind types.ResultSetKind, places []types.CanonicalPlace) error {
	ctx, span := otel.Tracer("SelectionsService").Start(ctx, "StoreResults", trace.WithAttributes(
		attribute.String("result_set.kind", string(kind)),
		attribute.Int("places.count", len(places)),
	))
	defer span.End()

	err := s.repo.SaveResults(ctx, types.SearchResultSet{UserID: userID, TripID: tripID, Kind: kind, Places: places})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Save failed")
		return err
	}
	span.SetStatus(codes.Ok, "Stored")
	return nil
}

func (s *ServiceImpl) CurrentResults(ctx context.Context, userID, tripID uuid.UUID) (*types.SearchResultSet, error) {
	ctx, span := otel.Tracer("SelectionsService").Start(ctx, "CurrentResults")
	defer span.End()

	set, err := s.repo.GetResults(ctx, userID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Load failed")
		return nil, err
	}
	if set == nil {
		set = &types.SearchResultSet{UserID: userID, TripID: tripID, Kind: types.ResultSetSearch, Places: []types.CanonicalPlace{}}
	}
	return set, nil
}

// RecordSelection appends the 1-indexed picks from the current result set.
// Out-of-range indices are ignored; when none is valid nothing is written.
func (s *ServiceImpl) RecordSelection(ctx context.Context, userID, tripID uuid.UUID, indices []int) ([]types.CanonicalPlace, error) {
	ctx, span := otel.Tracer("SelectionsService").Start(ctx, "RecordSelection", trace.WithAttributes(
		attribute.IntSlice("selection.indices", indices),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "RecordSelection"), slog.String("tripID", tripID.String()))

	set, err := s.repo.GetResults(ctx, userID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Load failed")
		return nil, err
	}
	if set == nil {
		l.InfoContext(ctx, "No result set to select from")
		span.SetStatus(codes.Ok, "Nothing to select")
		return []types.CanonicalPlace{}, nil
	}

	picked := make([]types.CanonicalPlace, 0, len(indices))
	for _, idx := range indices {
		if idx < 1 || idx > len(set.Places) {
			continue
		}
		picked = append(picked, set.Places[idx-1])
	}
	return s.appendPlaces(ctx, span, l, userID, tripID, picked)
}

// RecordSelectionFreeform saves the place shown by the last detail lookup.
// A plain search result set is ambiguous without indices, so it selects nothing.
func (s *ServiceImpl) RecordSelectionFreeform(ctx context.Context, userID, tripID uuid.UUID) ([]types.CanonicalPlace, error) {
	ctx, span := otel.Tracer("SelectionsService").Start(ctx, "RecordSelectionFreeform")
	defer span.End()

	l := s.logger.With(slog.String("method", "RecordSelectionFreeform"), slog.String("tripID", tripID.String()))

	set, err := s.repo.GetResults(ctx, userID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Load failed")
		return nil, err
	}
	if set == nil || set.Kind != types.ResultSetDetail || len(set.Places) == 0 {
		l.InfoContext(ctx, "No detail result to save")
		span.SetStatus(codes.Ok, "Nothing to select")
		return []types.CanonicalPlace{}, nil
	}
	return s.appendPlaces(ctx, span, l, userID, tripID, set.Places[:1])
}

func (s *ServiceImpl) appendPlaces(ctx context.Context, span trace.Span, l *slog.Logger, userID, tripID uuid.UUID, picked []types.CanonicalPlace) ([]types.CanonicalPlace, error) {
	if s.dedupe && len(picked) > 0 {
		existing, err := s.repo.GetSelections(ctx, userID, tripID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Load buffer failed")
			return nil, err
		}
		seen := map[string]struct{}{}
		if existing != nil {
			for _, p := range existing.Places {
				seen[p.Key()] = struct{}{}
			}
		}
		picked = lo.Filter(lo.UniqBy(picked, types.CanonicalPlace.Key), func(p types.CanonicalPlace, _ int) bool {
			_, dup := seen[p.Key()]
			return !dup
		})
	}

	if len(picked) == 0 {
		l.InfoContext(ctx, "No valid selection")
		span.SetStatus(codes.Ok, "Nothing to append")
		return []types.CanonicalPlace{}, nil
	}

	if err := s.repo.AppendSelections(ctx, userID, tripID, picked); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Append failed")
		return nil, err
	}
	l.InfoContext(ctx, "Selections recorded", slog.Int("count", len(picked)))
	span.SetAttributes(attribute.Int("selection.appended", len(picked)))
	span.SetStatus(codes.Ok, "Appended")
	return picked, nil
}

func (s *ServiceImpl) Selections(ctx context.Context, userID, tripID uuid.UUID) ([]types.CanonicalPlace, error) {
	ctx, span := otel.Tracer("SelectionsService").Start(ctx, "Selections")
	defer span.End()

	buf, err := s.repo.GetSelections(ctx, userID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Load failed")
		return nil, err
	}
	if buf == nil || buf.Places == nil {
		return []types.CanonicalPlace{}, nil
	}
	return buf.Places, nil
}

func (s *ServiceImpl) ClearSelection(ctx context.Context, userID, tripID uuid.UUID) error {
	ctx, span := otel.Tracer("SelectionsService").Start(ctx, "ClearSelection")
	defer span.End()

	if err := s.repo.DeleteSelections(ctx, userID, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Delete failed")
		return fmt.Errorf("error clearing selection buffer: %w", err)
	}
	span.SetStatus(codes.Ok, "Cleared")
	return nil
}
