package profiles

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

const hintsLabel = "User preferences:"

var hintPhrases = map[types.PreferenceDimension]map[types.PreferenceTag]string{
	types.DimensionMoney: {
		"money1": "Since I am travelling anyway, recommend pricier, high-end places.",
		"money2": "I need to keep travel costs down, recommend inexpensive places.",
	},
	types.DimensionFood: {
		"food1": "I will wait in line for good food, prefer highly rated places.",
		"food2": "I just go wherever feels right, low ratings are fine.",
	},
	types.DimensionTransport: {
		"transport1": "Prefer places whose coordinates are close to each other.",
		"transport2": "Places that are a bit far apart are fine.",
	},
	types.DimensionSchedule: {
		"schedule1": "I want to take it slow and enjoy the trip.",
		"schedule2": "I want a packed schedule with as much as possible.",
	},
	types.DimensionPhoto: {
		"photo1": "Photo spots are not important to me.",
		"photo2": "Focus on good photo spots.",
	},
}

// ResolveHints renders a profile as a single natural-language line in a fixed
// dimension order. Any dimension or tag missing from the phrase table is an error.
// A profile with no dimensions yields no hints.
func ResolveHints(profile types.PreferenceProfile) (string, error) {
	for dim, tag := range profile {
		if _, ok := hintPhrases[dim]; !ok {
			return "", fmt.Errorf("%w: dimension %q (tag %q)", types.ErrUnknownTag, dim, tag)
		}
	}

	parts := []string{hintsLabel}
	for _, dim := range types.PreferenceDimensions {
		tag, ok := profile[dim]
		if !ok {
			continue
		}
		phrase, ok := hintPhrases[dim][tag]
		if !ok {
			return "", fmt.Errorf("%w: %q for %s", types.ErrUnknownTag, tag, dim)
		}
		parts = append(parts, phrase)
	}
	if len(parts) == 1 {
		return "", nil
	}
	return strings.Join(parts, " "), nil
}
