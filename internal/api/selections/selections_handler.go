package selections

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	appMiddleware "github.com/FACorreiaa/go-trip-assistant/app/middleware"
	"github.com/FACorreiaa/go-trip-assistant/internal/api"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GetSelections(w http.ResponseWriter, r *http.Request)
	GetSearchResults(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// GetSelections godoc
// @Summary      Get Saved Places
// @Description  Returns the places saved for a trip that have not been planned yet.
// @Tags         Selections
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Success      200 {array} types.CanonicalPlace "Saved places"
// @Failure      400 {object} map[string]interface{} "Invalid Trip ID"
// @Failure      401 {object} map[string]interface{} "Unauthorized"
// @Failure      500 {object} map[string]interface{} "Internal Server Error"
// @Security     BearerAuth
// @Router       /trips/{tripID}/selections [get]
func (h *HandlerImpl) GetSelections(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SelectionsHandler").Start(r.Context(), "GetSelections", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/trips/{tripID}/selections"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetSelections"))

	userID, tripID, ok := tripScope(w, r, span, l)
	if !ok {
		return
	}

	places, err := h.service.Selections(ctx, userID, tripID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load selections", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service error")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load saved places")
		return
	}

	span.SetStatus(codes.Ok, "Selections returned")
	api.WriteJSONResponse(w, r, http.StatusOK, places)
}

// GetSearchResults godoc
// @Summary      Get Latest Search Results
// @Description  Returns the most recent search or detail result set for a trip.
// @Tags         Selections
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Success      200 {object} types.SearchResultSet "Result set"
// @Failure      400 {object} map[string]interface{} "Invalid Trip ID"
// @Failure      401 {object} map[string]interface{} "Unauthorized"
// @Failure      500 {object} map[string]interface{} "Internal Server Error"
// @Security     BearerAuth
// @Router       /trips/{tripID}/search-results [get]
func (h *HandlerImpl) GetSearchResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SelectionsHandler").Start(r.Context(), "GetSearchResults", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/trips/{tripID}/search-results"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetSearchResults"))

	userID, tripID, ok := tripScope(w, r, span, l)
	if !ok {
		return
	}

	set, err := h.service.CurrentResults(ctx, userID, tripID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load search results", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service error")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load search results")
		return
	}

	span.SetStatus(codes.Ok, "Search results returned")
	api.WriteJSONResponse(w, r, http.StatusOK, set)
}

func tripScope(w http.ResponseWriter, r *http.Request, span trace.Span, l *slog.Logger) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := appMiddleware.GetUserIDFromContext(r.Context())
	if !ok {
		l.ErrorContext(r.Context(), "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	tripID, err := uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		l.WarnContext(r.Context(), "Invalid trip ID", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid trip ID")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip ID format")
		return uuid.Nil, uuid.Nil, false
	}
	span.SetAttributes(attribute.String("user.id", userID.String()), attribute.String("trip.id", tripID.String()))
	return userID, tripID, true
}
