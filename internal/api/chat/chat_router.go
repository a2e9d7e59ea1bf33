package chat

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

	"github.com/FACorreiaa/go-trip-assistant/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/go-trip-assistant/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-assistant/internal/api/places"
	"github.com/FACorreiaa/go-trip-assistant/internal/api/planedit"
	"github.com/FACorreiaa/go-trip-assistant/internal/api/selections"
	"github.com/FACorreiaa/go-trip-assistant/internal/session"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

var _ Router = (*RouterImpl)(nil)

const (
	intentConfirmUpdate = "confirm_update"
	intentCancelUpdate  = "cancel_update"
)

// HintSource turns a user's stored preferences into ranking hints.
type HintSource interface {
	Hints(ctx context.Context, userID uuid.UUID) (string, error)
}

// Planner promotes the selection buffer into an itinerary.
type Planner interface {
	Synthesize(ctx context.Context, userID, tripID uuid.UUID) (string, error)
}

type RouteRequest struct {
	UserID    uuid.UUID
	TripID    uuid.UUID
	Utterance string
	Bias      *types.GeoBias
}

// Router classifies an utterance, runs the matching action and returns a uniform envelope.
// Business outcomes are envelopes; only configuration and storage faults are errors.
type Router interface {
	Route(ctx context.Context, req RouteRequest) (*types.Envelope, error)
}

type Deps struct {
	Classifier  generativeAI.IntentClassifier
	Generator   generativeAI.TextGenerator
	Searcher    places.Searcher
	Ranker      places.Ranker
	Hints       HintSource
	Selections  selections.Service
	Planner     Planner
	Edits       planedit.Service
	History     session.HistoryStore
	Transcripts TranscriptRepository
}

type RouterImpl struct {
	Deps
	confirmKeywords []string
	metrics         *metrics.AppMetrics
	logger          *slog.Logger
}

func NewRouter(deps Deps, confirmKeywords []string, m *metrics.AppMetrics, logger *slog.Logger) *RouterImpl {
	return &RouterImpl{Deps: deps, confirmKeywords: confirmKeywords, metrics: m, logger: logger}
}

func (r *RouterImpl) Route(ctx context.Context, req RouteRequest) (*types.Envelope, error) {
	ctx, span := otel.Tracer("ChatRouter").Start(ctx, "Route", trace.WithAttributes(
		attribute.String("user.id", req.UserID.String()),
		attribute.String("trip.id", req.TripID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Route"), slog.String("userID", req.UserID.String()))

	req.Utterance = strings.TrimSpace(req.Utterance)
	if req.Utterance == "" {
		span.SetStatus(codes.Error, "Empty utterance")
		return nil, fmt.Errorf("%w: message is empty", types.ErrInvalidArguments)
	}

	env, intent, err := r.dispatch(ctx, req)
	if errors.Is(err, types.ErrUpstreamTimeout) {
		// a timed-out turn leaves history and transcript untouched
		l.WarnContext(ctx, "Upstream timed out", slog.String("intent", intent), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Upstream timeout")
		r.metrics.RecordIntent(ctx, intent)
		return upstreamEnvelope(err), nil
	}
	if err != nil {
		l.ErrorContext(ctx, "Routing failed", slog.String("intent", intent), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Routing failed")
		return nil, err
	}

	r.metrics.RecordIntent(ctx, intent)
	r.remember(ctx, req, env)

	span.SetAttributes(attribute.String("intent", intent), attribute.String("result.kind", string(env.ResultKind)))
	span.SetStatus(codes.Ok, "Routed")
	return env, nil
}

func (r *RouterImpl) dispatch(ctx context.Context, req RouteRequest) (*types.Envelope, string, error) {
	pending, err := r.Edits.HasPending(ctx, req.UserID)
	if err != nil {
		return nil, "", err
	}
	confirming := isConfirmation(req.Utterance, r.confirmKeywords)
	switch {
	case pending && confirming:
		env, err := r.confirmEdit(ctx, req)
		return env, intentConfirmUpdate, err
	case pending:
		env, err := r.cancelEdit(ctx, req)
		return env, intentCancelUpdate, err
	case confirming:
		r.logger.InfoContext(ctx, "Confirmation without a pending edit", slog.String("userID", req.UserID.String()))
		return types.NewEnvelope(types.ResultError, msgNoPendingUpdate), intentConfirmUpdate, nil
	}

	history, err := r.History.History(ctx, req.UserID, req.TripID)
	if err != nil {
		r.logger.WarnContext(ctx, "Conversation history unavailable", slog.Any("error", err))
		history = nil
	}

	cls, err := r.Classifier.Classify(ctx, generativeAI.ClassifyRequest{History: history, Utterance: req.Utterance})
	if err != nil {
		env, err := upstreamResult(err)
		return env, "unclassified", err
	}
	if cls.Function == "" {
		return types.NewEnvelope(types.ResultChat, cls.Text), generativeAI.FnJustChat, nil
	}

	query := generativeAI.StringArg(cls.Args, "query")
	if query == "" {
		query = req.Utterance
	}

	switch cls.Function {
	case generativeAI.FnSearchPlaces:
		env, err := r.searchPlaces(ctx, req, query)
		return env, cls.Function, err
	case generativeAI.FnSearchPlaceDetails:
		env, err := r.lookupPlace(ctx, req, query)
		return env, cls.Function, err
	case generativeAI.FnSavePlace:
		env, err := r.savePlace(ctx, req, query)
		return env, cls.Function, err
	case generativeAI.FnSavePlan:
		env, err := r.savePlan(ctx, req)
		return env, cls.Function, err
	case generativeAI.FnUpdateTripPlan:
		env, err := r.proposeEdit(ctx, req, cls.Args)
		return env, cls.Function, err
	default:
		env, err := r.justChat(ctx, query)
		return env, generativeAI.FnJustChat, err
	}
}

func (r *RouterImpl) searchPlaces(ctx context.Context, req RouteRequest, query string) (*types.Envelope, error) {
	found, err := r.Searcher.SearchPlaces(ctx, query, req.Bias)
	if err != nil {
		return upstreamResult(err)
	}

	hints, err := r.Hints.Hints(ctx, req.UserID)
	switch {
	case errors.Is(err, types.ErrUnknownTag):
		return nil, err
	case errors.Is(err, types.ErrProfileNotFound):
		r.logger.InfoContext(ctx, "User has no preference profile, keeping search order")
	case err != nil:
		r.logger.WarnContext(ctx, "Preference hints unavailable, keeping search order", slog.Any("error", err))
	case hints != "":
		found = r.Ranker.RankByPreference(ctx, found, hints)
	}

	if err = r.Selections.StoreResults(ctx, req.UserID, req.TripID, types.ResultSetSearch, found); err != nil {
		return nil, err
	}
	return types.NewEnvelope(types.ResultSearch, places.FormatSearchResults(found), places.Markers(found)...), nil
}

func (r *RouterImpl) lookupPlace(ctx context.Context, req RouteRequest, query string) (*types.Envelope, error) {
	place, err := r.Searcher.LookupPlace(ctx, query, req.Bias)
	if err != nil {
		return upstreamResult(err)
	}
	if place == nil {
		return types.NewEnvelope(types.ResultDetail, msgNoDetail), nil
	}
	one := []types.CanonicalPlace{*place}
	if err = r.Selections.StoreResults(ctx, req.UserID, req.TripID, types.ResultSetDetail, one); err != nil {
		return nil, err
	}
	return types.NewEnvelope(types.ResultDetail, places.FormatDetail(*place), places.Markers(one)...), nil
}

func (r *RouterImpl) savePlace(ctx context.Context, req RouteRequest, query string) (*types.Envelope, error) {
	indices := extractNumbers(query)
	if len(indices) == 0 && query != req.Utterance {
		indices = extractNumbers(req.Utterance)
	}

	var saved []types.CanonicalPlace
	var err error
	if len(indices) > 0 {
		saved, err = r.Selections.RecordSelection(ctx, req.UserID, req.TripID, indices)
	} else {
		saved, err = r.Selections.RecordSelectionFreeform(ctx, req.UserID, req.TripID)
	}
	if err != nil {
		return nil, err
	}
	if len(saved) == 0 {
		return types.NewEnvelope(types.ResultSaved, msgNothingSaved), nil
	}
	return types.NewEnvelope(types.ResultSaved, places.FormatSaved(saved), places.Markers(saved)...), nil
}

func (r *RouterImpl) savePlan(ctx context.Context, req RouteRequest) (*types.Envelope, error) {
	summary, err := r.Planner.Synthesize(ctx, req.UserID, req.TripID)
	switch {
	case err == nil:
		return types.NewEnvelope(types.ResultPlanned, summary), nil
	case errors.Is(err, types.ErrNoSelections):
		return types.NewEnvelope(types.ResultError, msgNoSelections), nil
	case errors.Is(err, types.ErrPlanParse), errors.Is(err, types.ErrEmptyPlan):
		return types.NewEnvelope(types.ResultError, msgPlanUnusable), nil
	case errors.Is(err, types.ErrTripNotFound):
		return types.NewEnvelope(types.ResultError, msgTripNotFound), nil
	default:
		return nil, err
	}
}

func (r *RouterImpl) proposeEdit(ctx context.Context, req RouteRequest, args map[string]any) (*types.Envelope, error) {
	edit := types.EditRequest{
		Date:      generativeAI.StringArg(args, "date"),
		Title:     generativeAI.StringArg(args, "title"),
		NewTitle:  generativeAI.StringArg(args, "newTitle"),
		NewDate:   generativeAI.StringArg(args, "newDate"),
		NewTime:   generativeAI.StringArg(args, "newTime"),
		Utterance: req.Utterance,
	}
	proposal, err := r.Edits.Propose(ctx, req.UserID, req.TripID, edit)
	switch {
	case err == nil:
		return types.NewEnvelope(types.ResultUpdateConfirm,
			planedit.FormatProposal(proposal, r.confirmKeyword()), planedit.Marker(proposal.Entry)), nil
	case errors.Is(err, types.ErrFrozenEntry):
		return types.NewEnvelope(types.ResultError, types.ErrFrozenEntry.Error()), nil
	case errors.Is(err, types.ErrPlanNotFound):
		return types.NewEnvelope(types.ResultError, planedit.MsgPlanNotFound), nil
	case errors.Is(err, types.ErrInvalidArguments):
		return types.NewEnvelope(types.ResultError, msgInvalidEdit), nil
	default:
		return nil, err
	}
}

func (r *RouterImpl) confirmEdit(ctx context.Context, req RouteRequest) (*types.Envelope, error) {
	applied, err := r.Edits.Confirm(ctx, req.UserID)
	switch {
	case err == nil:
		return types.NewEnvelope(types.ResultUpdateApplied, planedit.FormatApplied(applied), planedit.Marker(applied.After)), nil
	case errors.Is(err, types.ErrNoPendingUpdate):
		return types.NewEnvelope(types.ResultError, msgNoPendingUpdate), nil
	case errors.Is(err, types.ErrFrozenEntry):
		return types.NewEnvelope(types.ResultError, types.ErrFrozenEntry.Error()), nil
	case errors.Is(err, types.ErrPlanNotFound):
		return types.NewEnvelope(types.ResultError, planedit.MsgPlanNotFound), nil
	default:
		return nil, err
	}
}

func (r *RouterImpl) cancelEdit(ctx context.Context, req RouteRequest) (*types.Envelope, error) {
	if _, err := r.Edits.Cancel(ctx, req.UserID); err != nil {
		return nil, err
	}
	return types.NewEnvelope(types.ResultUpdateCancelled, planedit.MsgCancelled), nil
}

func (r *RouterImpl) justChat(ctx context.Context, query string) (*types.Envelope, error) {
	text, err := r.Generator.Generate(ctx, query)
	if err != nil {
		return upstreamResult(err)
	}
	return types.NewEnvelope(types.ResultChat, text), nil
}

func (r *RouterImpl) confirmKeyword() string {
	if len(r.confirmKeywords) == 0 {
		return "confirm"
	}
	return r.confirmKeywords[0]
}

// remember appends the exchange to short-term history and the persisted transcript.
// Failures are logged; the reply has already been produced.
func (r *RouterImpl) remember(ctx context.Context, req RouteRequest, env *types.Envelope) {
	now := time.Now().UTC()
	err := r.History.AppendTurns(ctx, req.UserID, req.TripID,
		types.ChatTurn{Role: types.RoleUser, Content: req.Utterance, At: now},
		types.ChatTurn{Role: types.RoleAssistant, Content: env.Text, At: now},
	)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to append conversation history", slog.Any("error", err))
	}

	if r.Transcripts == nil {
		return
	}
	err = r.Transcripts.AppendMessages(ctx, req.UserID, req.TripID,
		types.ChatMessage{Timestamp: now, Sender: string(types.RoleUser), Message: req.Utterance},
		types.ChatMessage{Timestamp: now, Sender: "bot", Message: env.Text, IsSerp: env.ResultKind == types.ResultSearch},
	)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to persist chat transcript", slog.Any("error", err))
	}
}

// upstreamResult passes timeouts through to Route and turns other upstream failures into a reply.
func upstreamResult(err error) (*types.Envelope, error) {
	if errors.Is(err, types.ErrUpstreamTimeout) {
		return nil, err
	}
	return upstreamEnvelope(err), nil
}

func upstreamEnvelope(err error) *types.Envelope {
	switch {
	case errors.Is(err, types.ErrUpstreamSearch):
		return types.NewEnvelope(types.ResultError, msgSearchUnavailable)
	case errors.Is(err, types.ErrUpstreamTimeout):
		return types.NewEnvelope(types.ResultError, msgAssistantTimeout)
	default:
		return types.NewEnvelope(types.ResultError, msgAssistantFailed)
	}
}
