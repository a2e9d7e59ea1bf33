package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"googlemaps.github.io/maps"

	"github.com/FACorreiaa/go-trip-assistant/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/go-trip-assistant/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

const (
	earthCircumferenceMeters = 40_075_000
	minRadiusMeters          = 500
	maxRadiusMeters          = 50_000
)

// Searcher finds places through an external search backend.
type Searcher interface {
	SearchPlaces(ctx context.Context, query string, bias *types.GeoBias) ([]types.CanonicalPlace, error)
	LookupPlace(ctx context.Context, query string, bias *types.GeoBias) (*types.CanonicalPlace, error)
}

// TextSearcher is the part of *maps.Client the adapter uses.
type TextSearcher interface {
	TextSearch(ctx context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error)
}

var (
	_ Searcher     = (*MapsSearcher)(nil)
	_ TextSearcher = (*maps.Client)(nil)
)

type SearchOptions struct {
	Language    string
	Timeout     time.Duration
	Concurrency int
	// TranslateResults also translates every search result description, not only detail lookups.
	TranslateResults bool
}

// MapsSearcher adapts Google Places text search to CanonicalPlace.
type MapsSearcher struct {
	client     TextSearcher
	translator generativeAI.Translator
	opts       SearchOptions
	metrics    *metrics.AppMetrics
	logger     *slog.Logger
}

func NewMapsClient(apiKey string) (*maps.Client, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return client, nil
}

// NewMapsSearcher builds the adapter. translator may be nil.
func NewMapsSearcher(client TextSearcher, translator generativeAI.Translator, opts SearchOptions, m *metrics.AppMetrics, logger *slog.Logger) *MapsSearcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &MapsSearcher{client: client, translator: translator, opts: opts, metrics: m, logger: logger}
}

// SearchPlaces runs one text search and drops results without an address or coordinates.
func (s *MapsSearcher) SearchPlaces(ctx context.Context, query string, bias *types.GeoBias) ([]types.CanonicalPlace, error) {
	ctx, span := otel.Tracer("PlacesSearch").Start(ctx, "SearchPlaces", trace.WithAttributes(
		attribute.String("query", query),
		attribute.Bool("bias", bias != nil),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "SearchPlaces"), slog.String("query", query))

	results, err := s.textSearch(ctx, query, bias)
	if err != nil {
		l.ErrorContext(ctx, "Place search failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Search failed")
		return nil, err
	}

	places := make([]types.CanonicalPlace, 0, len(results))
	for _, r := range results {
		if p, ok := toCanonical(r); ok {
			places = append(places, p)
		}
	}

	if s.opts.TranslateResults {
		s.translateDescriptions(ctx, places)
	}

	l.InfoContext(ctx, "Place search completed", slog.Int("raw", len(results)), slog.Int("kept", len(places)))
	span.SetAttributes(attribute.Int("results.kept", len(places)))
	span.SetStatus(codes.Ok, "Search completed")
	return places, nil
}

// LookupPlace returns the best schedulable match for a named place, or nil when none.
// The description is translated when a translator is configured; failures keep the original.
func (s *MapsSearcher) LookupPlace(ctx context.Context, query string, bias *types.GeoBias) (*types.CanonicalPlace, error) {
	ctx, span := otel.Tracer("PlacesSearch").Start(ctx, "LookupPlace", trace.WithAttributes(
		attribute.String("query", query),
	))
	defer span.End()

	results, err := s.textSearch(ctx, query, bias)
	if err != nil {
		s.logger.ErrorContext(ctx, "Place lookup failed", slog.String("query", query), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Lookup failed")
		return nil, err
	}

	for _, r := range results {
		p, ok := toCanonical(r)
		if !ok {
			continue
		}
		one := []types.CanonicalPlace{p}
		s.translateDescriptions(ctx, one)
		span.SetStatus(codes.Ok, "Place found")
		return &one[0], nil
	}

	span.SetStatus(codes.Ok, "No schedulable place")
	return nil, nil
}

func (s *MapsSearcher) textSearch(ctx context.Context, query string, bias *types.GeoBias) ([]maps.PlacesSearchResult, error) {
	req := &maps.TextSearchRequest{
		Query:    query,
		Language: s.opts.Language,
	}
	if bias != nil {
		req.Location = &maps.LatLng{Lat: bias.Latitude, Lng: bias.Longitude}
		req.Radius = RadiusForZoom(bias.Zoom)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	resp, err := s.client.TextSearch(callCtx, req)
	if err != nil {
		s.metrics.RecordUpstreamError(ctx, "maps")
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", types.ErrUpstreamSearch, types.ErrUpstreamTimeout)
		}
		return nil, fmt.Errorf("%w: %v", types.ErrUpstreamSearch, err)
	}
	return resp.Results, nil
}

// translateDescriptions rewrites descriptions in place, at most opts.Concurrency at a time.
func (s *MapsSearcher) translateDescriptions(ctx context.Context, places []types.CanonicalPlace) {
	if s.translator == nil || len(places) == 0 {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i := range places {
		g.Go(func() error {
			translated, err := s.translator.Translate(gctx, places[i].Description)
			if err != nil {
				s.logger.DebugContext(ctx, "Keeping untranslated description", slog.String("title", places[i].Title), slog.Any("error", err))
				return nil
			}
			places[i].Description = translated
			return nil
		})
	}
	_ = g.Wait()
}

// RadiusForZoom approximates the visible radius of a web map at zoom, in meters.
func RadiusForZoom(zoom int) uint {
	if zoom < 0 {
		zoom = 0
	}
	r := earthCircumferenceMeters / math.Pow(2, float64(zoom))
	r = math.Max(minRadiusMeters, math.Min(maxRadiusMeters, r))
	return uint(r)
}

var genericPlaceTypes = map[string]bool{"point_of_interest": true, "establishment": true}

func toCanonical(r maps.PlacesSearchResult) (types.CanonicalPlace, bool) {
	loc := r.Geometry.Location
	if strings.TrimSpace(r.FormattedAddress) == "" || (loc.Lat == 0 && loc.Lng == 0) {
		return types.CanonicalPlace{}, false
	}

	p := types.CanonicalPlace{
		Title:       r.Name,
		Address:     r.FormattedAddress,
		Latitude:    loc.Lat,
		Longitude:   loc.Lng,
		Description: describe(r),
	}
	if r.Rating > 0 {
		rating := math.Round(float64(r.Rating)*10) / 10
		p.Rating = &rating
	}
	if r.PriceLevel > 0 {
		price := strings.Repeat("$", r.PriceLevel)
		p.Price = &price
	}
	return p, true
}

func describe(r maps.PlacesSearchResult) string {
	caser := cases.Title(language.English)
	var kinds []string
	for _, t := range r.Types {
		if genericPlaceTypes[t] {
			continue
		}
		kinds = append(kinds, caser.String(strings.ReplaceAll(t, "_", " ")))
	}
	desc := strings.Join(kinds, ", ")
	if r.UserRatingsTotal > 0 {
		if desc != "" {
			desc += " "
		}
		desc += fmt.Sprintf("(%d reviews)", r.UserRatingsTotal)
	}
	if desc == "" {
		return "No description available."
	}
	return desc
}
