package chat

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	appMiddleware "github.com/FACorreiaa/go-trip-assistant/app/middleware"
	"github.com/FACorreiaa/go-trip-assistant/internal/api"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Chat(w http.ResponseWriter, r *http.Request)
	GetMessages(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	router      Router
	transcripts TranscriptRepository
	logger      *slog.Logger
}

func NewHandler(router Router, transcripts TranscriptRepository, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{router: router, transcripts: transcripts, logger: logger}
}

// Chat godoc
// @Summary      Send Chat Message
// @Description  Routes one user message through the trip assistant and returns the reply envelope.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request body types.ChatRequest true "Message, trip and optional map position"
// @Success      200 {object} types.Envelope "Assistant reply"
// @Failure      400 {object} map[string]interface{} "Invalid Request Body"
// @Failure      401 {object} map[string]interface{} "Unauthorized"
// @Failure      500 {object} map[string]interface{} "Internal Server Error"
// @Security     BearerAuth
// @Router       /chat [post]
func (h *HandlerImpl) Chat(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "Chat", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/chat"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "Chat"))

	userID, ok := appMiddleware.GetUserIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req types.ChatRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid chat request body", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	tripID, err := uuid.Parse(req.TripID)
	if err != nil {
		l.WarnContext(ctx, "Invalid trip ID", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid trip ID")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip ID format")
		return
	}
	span.SetAttributes(attribute.String("user.id", userID.String()), attribute.String("trip.id", tripID.String()))

	env, err := h.router.Route(ctx, RouteRequest{
		UserID:    userID,
		TripID:    tripID,
		Utterance: req.Message,
		Bias:      biasFrom(req),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Route failed")
		if errors.Is(err, types.ErrInvalidArguments) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Message must not be empty")
			return
		}
		l.ErrorContext(ctx, "Failed to route chat message", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to process message")
		return
	}

	span.SetStatus(codes.Ok, "Message routed")
	api.WriteJSONResponse(w, r, http.StatusOK, env)
}

// GetMessages godoc
// @Summary      Get Chat Transcript
// @Description  Returns the stored conversation for a trip, oldest first.
// @Tags         Chat
// @Produce      json
// @Param        tripId query string true "Trip ID"
// @Success      200 {array} types.ChatMessage "Transcript"
// @Failure      400 {object} map[string]interface{} "Invalid Trip ID"
// @Failure      401 {object} map[string]interface{} "Unauthorized"
// @Failure      500 {object} map[string]interface{} "Internal Server Error"
// @Security     BearerAuth
// @Router       /chat/messages [get]
func (h *HandlerImpl) GetMessages(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "GetMessages", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/chat/messages"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetMessages"))

	userID, ok := appMiddleware.GetUserIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	tripID, err := uuid.Parse(r.URL.Query().Get("tripId"))
	if err != nil {
		l.WarnContext(ctx, "Invalid trip ID", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid trip ID")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip ID format")
		return
	}

	msgs, err := h.transcripts.Messages(ctx, userID, tripID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load chat messages", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository error")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load messages")
		return
	}

	span.SetStatus(codes.Ok, "Messages returned")
	api.WriteJSONResponse(w, r, http.StatusOK, msgs)
}

// biasFrom returns nil unless both coordinates were sent.
func biasFrom(req types.ChatRequest) *types.GeoBias {
	if req.Latitude == nil || req.Longitude == nil {
		return nil
	}
	bias := &types.GeoBias{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if req.Zoom != nil {
		bias.Zoom = *req.Zoom
	}
	return bias
}
