package places

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	generativeAI "github.com/FACorreiaa/go-trip-assistant/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

// Ranker re-orders places by how well they fit a user's preference hints. It never fails.
type Ranker interface {
	RankByPreference(ctx context.Context, places []types.CanonicalPlace, hints string) []types.CanonicalPlace
}

var _ Ranker = (*LLMRanker)(nil)

type LLMRanker struct {
	gen    generativeAI.TextGenerator
	logger *slog.Logger
}

func NewLLMRanker(gen generativeAI.TextGenerator, logger *slog.Logger) *LLMRanker {
	return &LLMRanker{gen: gen, logger: logger}
}

func (r *LLMRanker) RankByPreference(ctx context.Context, places []types.CanonicalPlace, hints string) []types.CanonicalPlace {
	ctx, span := otel.Tracer("Ranking").Start(ctx, "RankByPreference", trace.WithAttributes(
		attribute.Int("places.count", len(places)),
	))
	defer span.End()

	if len(places) < 2 {
		return places
	}

	l := r.logger.With(slog.String("method", "RankByPreference"))

	response, err := r.gen.Generate(ctx, rankingPrompt(places, hints))
	if err != nil {
		l.WarnContext(ctx, "Ranking backend failed, keeping search order", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Backend failed")
		return places
	}

	ranked := ReorderByResponse(places, response)
	if len(ranked) == 0 {
		l.WarnContext(ctx, "Ranking response matched no place, keeping search order")
		span.SetStatus(codes.Error, "Unusable response")
		return places
	}
	if dropped := len(places) - len(ranked); dropped > 0 {
		l.InfoContext(ctx, "Ranking dropped places the response did not mention", slog.Int("dropped", dropped))
	}

	span.SetAttributes(attribute.Int("places.ranked", len(ranked)))
	span.SetStatus(codes.Ok, "Ranked")
	return ranked
}

func rankingPrompt(places []types.CanonicalPlace, hints string) string {
	var b strings.Builder
	b.WriteString(hints)
	b.WriteString("\nPlaces:\n")
	for i, p := range places {
		fmt.Fprintf(&b, "%d. Name: %s\n    Rating: %s\n    Address: %s\n    Description: %s\n    Price: %s\n",
			i+1, p.Title, ratingText(p.Rating), p.Address, p.Description, priceText(p.Price, "none"))
	}
	b.WriteString("\nReorder the places above so the ones that best fit these preferences come first. " +
		"Use every place exactly once, one per line, keeping each name exactly as written. " +
		"Do not add any place that is not in the list.")
	return b.String()
}

// ReorderByResponse walks the response line by line and, for each line, takes the first
// not-yet-taken place (in input order) whose title appears verbatim in it.
// Places never mentioned are dropped.
func ReorderByResponse(places []types.CanonicalPlace, response string) []types.CanonicalPlace {
	taken := make([]bool, len(places))
	var out []types.CanonicalPlace
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		for i, p := range places {
			if taken[i] || p.Title == "" || !strings.Contains(line, p.Title) {
				continue
			}
			taken[i] = true
			out = append(out, p)
			break
		}
	}
	return out
}
