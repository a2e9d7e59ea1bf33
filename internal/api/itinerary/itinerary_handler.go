package itinerary

import (
	"errors"
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
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	ListPlans(w http.ResponseWriter, r *http.Request)
	ExportPlans(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// ListPlans godoc
// @Summary      List Itinerary Entries
// @Description  Returns a trip's itinerary in schedule order, optionally for one day.
// @Tags         Itinerary
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Param        date query string false "Day (YYYY-MM-DD)"
// @Success      200 {array} types.ItineraryEntry "Entries"
// @Failure      400 {object} map[string]interface{} "Invalid Trip ID or Date"
// @Failure      401 {object} map[string]interface{} "Unauthorized"
// @Failure      500 {object} map[string]interface{} "Internal Server Error"
// @Security     BearerAuth
// @Router       /trips/{tripID}/plans [get]
func (h *HandlerImpl) ListPlans(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "ListPlans", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/trips/{tripID}/plans"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ListPlans"))

	userID, tripID, ok := h.tripScope(w, r, span, l)
	if !ok {
		return
	}

	entries, err := h.service.Entries(ctx, userID, tripID, r.URL.Query().Get("date"))
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, types.ErrInvalidArguments) {
			span.SetStatus(codes.Error, "Invalid date")
			api.ErrorResponse(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		l.ErrorContext(ctx, "Failed to list plans", slog.Any("error", err))
		span.SetStatus(codes.Error, "Service error")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load plans")
		return
	}

	span.SetAttributes(attribute.Int("results.count", len(entries)))
	span.SetStatus(codes.Ok, "Plans returned")
	api.WriteJSONResponse(w, r, http.StatusOK, entries)
}

// ExportPlans godoc
// @Summary      Export Itinerary Calendar
// @Description  Returns the trip's itinerary as an iCalendar file.
// @Tags         Itinerary
// @Produce      text/calendar
// @Param        tripID path string true "Trip ID"
// @Success      200 {string} string "iCalendar document"
// @Failure      400 {object} map[string]interface{} "Invalid Trip ID"
// @Failure      401 {object} map[string]interface{} "Unauthorized"
// @Failure      404 {object} map[string]interface{} "Trip Not Found"
// @Failure      500 {object} map[string]interface{} "Internal Server Error"
// @Security     BearerAuth
// @Router       /trips/{tripID}/plans.ics [get]
func (h *HandlerImpl) ExportPlans(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "ExportPlans", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/trips/{tripID}/plans.ics"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ExportPlans"))

	userID, tripID, ok := h.tripScope(w, r, span, l)
	if !ok {
		return
	}

	doc, err := h.service.ExportCalendar(ctx, userID, tripID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, types.ErrTripNotFound) {
			span.SetStatus(codes.Error, "Trip not found")
			api.ErrorResponse(w, r, http.StatusNotFound, "Trip not found")
			return
		}
		l.ErrorContext(ctx, "Failed to export calendar", slog.Any("error", err))
		span.SetStatus(codes.Error, "Service error")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to export calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="trip-`+tripID.String()+`.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write([]byte(doc)); err != nil {
		l.ErrorContext(ctx, "Failed to write calendar", slog.Any("error", err))
	}
	span.SetStatus(codes.Ok, "Calendar exported")
}

func (h *HandlerImpl) tripScope(w http.ResponseWriter, r *http.Request, span trace.Span, l *slog.Logger) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := appMiddleware.GetUserIDFromContext(r.Context())
	if !ok {
		l.ErrorContext(r.Context(), "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	tripID, err := uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid trip ID")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip ID format")
		return uuid.Nil, uuid.Nil, false
	}
	span.SetAttributes(attribute.String("user.id", userID.String()), attribute.String("trip.id", tripID.String()))
	return userID, tripID, true
}
