package chat

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	msgSearchUnavailable = "Place search is temporarily unavailable. Please try again in a moment."
	msgAssistantTimeout  = "The assistant did not answer in time. Please try again."
	msgAssistantFailed   = "The assistant could not process that message. Please try again."
	msgNoDetail          = "I couldn't find that place. Try a more specific name."
	msgNothingSaved      = "No places were saved. Pick numbers from the latest search results."
	msgNoSelections      = "You haven't saved any places for this trip yet. Save a few places first."
	msgPlanUnusable      = "I couldn't turn your saved places into a schedule. Please try again."
	msgTripNotFound      = "I couldn't find this trip."
	msgInvalidEdit       = "Dates must look like YYYY-MM-DD and times like HH:MM."
	msgNoPendingUpdate   = "No pending update found for the user."
)

var numberPattern = regexp.MustCompile(`\d+`)

// extractNumbers returns every integer written in s, in order.
func extractNumbers(s string) []int {
	var out []int
	for _, m := range numberPattern.FindAllString(s, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

func isConfirmation(utterance string, keywords []string) bool {
	u := strings.TrimSpace(utterance)
	for _, k := range keywords {
		if strings.EqualFold(u, strings.TrimSpace(k)) {
			return true
		}
	}
	return false
}
