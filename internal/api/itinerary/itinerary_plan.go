package itinerary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	generativeAI "github.com/FACorreiaa/go-trip-assistant/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

// planRecord is one scheduled activity as emitted by the planning model.
type planRecord struct {
	Title       string     `json:"title"`
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	Place       string     `json:"place"`
	Address     string     `json:"address"`
	Latitude    *flexFloat `json:"latitude"`
	Longitude   *flexFloat `json:"longitude"`
	Description string     `json:"description"`
}

// flexFloat accepts both 37.5 and "37.5"; models emit either.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("coordinate %q is not a number", s)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

func planningPrompt(trip *types.Trip, places []types.CanonicalPlace) (string, error) {
	payload, err := json.Marshal(places)
	if err != nil {
		return "", fmt.Errorf("error encoding saved places: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Create a detailed travel itinerary for %s, %s from %s to %s.\n",
		trip.City, trip.Country, trip.StartDate, trip.EndDate)
	fmt.Fprintf(&b, "Use only these places and use all of them: %s\n", payload)
	b.WriteString(`Rules:
- Do not invent any place that is not in the list above.
- Spread the places over every day of the trip and balance sights, restaurants and cafes on each day.
- Group places whose latitude and longitude are close on the same day and do not overload any day.
- Never schedule the same place twice.
- Around 12:00 and 18:00 prefer a restaurant or cafe.
- The title says what to do at the place, for example "Eiffel Tower sightseeing".
- Always include the description.
Return a JSON array only. Each element has exactly these fields:
{"title": string, "date": "YYYY-MM-DD", "time": "HH:MM:SS", "place": string, "address": string, "latitude": number, "longitude": number, "description": string}`)
	return b.String(), nil
}

// parsePlan turns the model response into fresh, unfrozen entries for the trip.
// Any invalid record fails the whole plan.
func parsePlan(response string, userID, tripID uuid.UUID) ([]types.ItineraryEntry, error) {
	cleaned := generativeAI.CleanJSONResponse(response)
	if !strings.HasPrefix(cleaned, "[") {
		return nil, fmt.Errorf("%w: response is not a JSON array", types.ErrPlanParse)
	}

	var records []planRecord
	if err := json.Unmarshal([]byte(cleaned), &records); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrPlanParse, err)
	}
	if len(records) == 0 {
		return nil, types.ErrEmptyPlan
	}

	entries := make([]types.ItineraryEntry, 0, len(records))
	for i, rec := range records {
		entry, err := rec.toEntry(userID, tripID)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", types.ErrPlanParse, i+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (rec planRecord) toEntry(userID, tripID uuid.UUID) (types.ItineraryEntry, error) {
	title, place := strings.TrimSpace(rec.Title), strings.TrimSpace(rec.Place)
	if title == "" || place == "" {
		return types.ItineraryEntry{}, fmt.Errorf("title and place are required")
	}
	date, err := NormalizeDate(rec.Date)
	if err != nil {
		return types.ItineraryEntry{}, err
	}
	clock, err := NormalizeTime(rec.Time)
	if err != nil {
		return types.ItineraryEntry{}, err
	}
	if rec.Latitude == nil || rec.Longitude == nil {
		return types.ItineraryEntry{}, fmt.Errorf("coordinates are required")
	}
	return types.ItineraryEntry{
		PlanID:      uuid.New(),
		UserID:      userID,
		TripID:      tripID,
		Title:       title,
		Date:        date,
		Time:        clock,
		Place:       place,
		Address:     strings.TrimSpace(rec.Address),
		Latitude:    float64(*rec.Latitude),
		Longitude:   float64(*rec.Longitude),
		Description: strings.TrimSpace(rec.Description),
	}, nil
}

// NormalizeDate trims s and checks it is YYYY-MM-DD.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(types.DateLayout, s); err != nil {
		return "", fmt.Errorf("date %q is not YYYY-MM-DD", s)
	}
	return s, nil
}

// NormalizeTime accepts HH:MM:SS and HH:MM and always returns HH:MM:SS.
func NormalizeTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{types.TimeLayout, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(types.TimeLayout), nil
		}
	}
	return "", fmt.Errorf("time %q is not HH:MM:SS", s)
}

func sortEntries(entries []types.ItineraryEntry) []types.ItineraryEntry {
	sorted := append([]types.ItineraryEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].Time < sorted[j].Time
	})
	return sorted
}

func summaryPrompt(trip *types.Trip, entries []types.ItineraryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You just finished planning a trip to %s. Here is the schedule:\n", trip.City)
	for _, e := range sortEntries(entries) {
		fmt.Fprintf(&b, "- %s %s %s at %s\n", e.Date, e.Time[:5], e.Title, e.Place)
	}
	b.WriteString("Describe this itinerary to the traveller in a friendly, concise way, " +
		"the way a travel assistant announces a finished plan (for example: \"Your Barcelona itinerary is ready! Day 1 - ...\"). " +
		"Go day by day and do not add places that are not listed.")
	return b.String()
}

// fallbackSummary renders the committed schedule without a model call.
func fallbackSummary(trip *types.Trip, entries []types.ItineraryEntry) string {
	sorted := sortEntries(entries)
	days := lo.Uniq(lo.Map(sorted, func(e types.ItineraryEntry, _ int) string { return e.Date }))

	var b strings.Builder
	fmt.Fprintf(&b, "Your %s itinerary is ready!\n", trip.City)
	for i, day := range days {
		fmt.Fprintf(&b, "\nDay %d - %s\n", i+1, day)
		for _, e := range sorted {
			if e.Date == day {
				fmt.Fprintf(&b, "  %s %s (%s)\n", e.Time[:5], e.Title, e.Place)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
