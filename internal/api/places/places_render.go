package places

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

// FormatSearchResults renders a numbered list the user can pick from by index.
func FormatSearchResults(places []types.CanonicalPlace) string {
	if len(places) == 0 {
		return "No places found. Try a different search."
	}
	blocks := make([]string, 0, len(places))
	for i, p := range places {
		block := fmt.Sprintf("*%d. Name: %s\n    Rating: %s\n    Address: %s\n    Description: %s\n",
			i+1, p.Title, ratingText(p.Rating), p.Address, p.Description)
		if p.Price != nil {
			block += fmt.Sprintf("    Price: %s\n", *p.Price)
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n")
}

// FormatDetail renders a single looked-up place and asks the user to confirm saving it.
func FormatDetail(p types.CanonicalPlace) string {
	text := fmt.Sprintf("Name: %s\nAddress: %s\nDescription: %s\n", p.Title, p.Address, p.Description)
	if p.Price != nil {
		text += fmt.Sprintf("    Price: %s\n", *p.Price)
	}
	return text + "Is this the place you meant? If so, I'll save it for you!"
}

// FormatSaved summarizes places appended to the selection buffer.
func FormatSaved(saved []types.CanonicalPlace) string {
	names := lo.Map(saved, func(p types.CanonicalPlace, _ int) string { return p.Title })
	return fmt.Sprintf("Saved %d place(s): %s", len(saved), strings.Join(names, ", "))
}

// Markers maps places to map pins in the same order.
func Markers(places []types.CanonicalPlace) []types.GeoMarker {
	return lo.Map(places, func(p types.CanonicalPlace, _ int) types.GeoMarker {
		return types.GeoMarker{Latitude: p.Latitude, Longitude: p.Longitude}
	})
}

func ratingText(r *float64) string {
	if r == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*r, 'f', -1, 64)
}

func priceText(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
