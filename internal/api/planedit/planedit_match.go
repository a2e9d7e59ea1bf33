package planedit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	generativeAI "github.com/FACorreiaa/go-trip-assistant/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-assistant/internal/api/itinerary"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

// locate resolves the entry an edit request talks about. In order: exact
// (date, title) key, case-insensitive title among the candidates, then the
// candidate whose text embedding is closest to the request. Candidates are in
// schedule order, so ties go to the earliest entry.
func (s *ServiceImpl) locate(ctx context.Context, userID, tripID uuid.UUID, req types.EditRequest) (*types.ItineraryEntry, error) {
	title := strings.TrimSpace(req.Title)
	date, dateErr := itinerary.NormalizeDate(req.Date)
	hasDate := req.Date != "" && dateErr == nil

	if hasDate && title != "" {
		entry, err := s.entries.FindEntry(ctx, userID, tripID, date, title)
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, types.ErrPlanNotFound) {
			return nil, err
		}
	}

	candidates, err := s.entries.ListEntries(ctx, userID, tripID, "")
	if err != nil {
		return nil, err
	}
	if hasDate {
		onDay := lo.Filter(candidates, func(e types.ItineraryEntry, _ int) bool { return e.Date == date })
		if len(onDay) > 0 {
			candidates = onDay
		}
	}
	if len(candidates) == 0 {
		return nil, types.ErrPlanNotFound
	}

	if title != "" {
		if entry, ok := lo.Find(candidates, func(e types.ItineraryEntry) bool { return strings.EqualFold(e.Title, title) }); ok {
			return &entry, nil
		}
	}

	query := editQuery(req)
	if s.embedder == nil || query == "" {
		return nil, types.ErrPlanNotFound
	}

	texts := append([]string{query}, lo.Map(candidates, func(e types.ItineraryEntry, _ int) string { return entryText(e) })...)
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("error embedding edit request: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding backend returned %d vectors for %d texts", len(vectors), len(texts))
	}

	best, bestScore := -1, -1.0
	for i := range candidates {
		if score := generativeAI.CosineSimilarity(vectors[0], vectors[i+1]); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < s.threshold {
		return nil, types.ErrPlanNotFound
	}
	return &candidates[best], nil
}

func editQuery(req types.EditRequest) string {
	parts := lo.Compact([]string{
		strings.TrimSpace(req.Title),
		strings.TrimSpace(req.Date),
		strings.TrimSpace(req.Utterance),
	})
	return strings.Join(parts, " ")
}

func entryText(e types.ItineraryEntry) string {
	return strings.Join([]string{e.Title, e.Date, e.Time, e.Place, e.Address}, " ")
}
