package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// ItineraryEntry is a persisted, schedulable trip activity.
type ItineraryEntry struct {
	PlanID      uuid.UUID  `json:"plan_id"`
	UserID      uuid.UUID  `json:"user_id"`
	TripID      uuid.UUID  `json:"trip_id"`
	Title       string     `json:"title"`
	Date        string     `json:"date"` // YYYY-MM-DD
	Time        string     `json:"time"` // HH:MM:SS
	Place       string     `json:"place"`
	Address     string     `json:"address"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Description string     `json:"description"`
	CrewID      *uuid.UUID `json:"crew_id,omitempty"`
}

// Frozen reports whether the entry is shared with a crew and must not be edited unilaterally.
func (e ItineraryEntry) Frozen() bool {
	return e.CrewID != nil
}

// StartsAt combines date and time in the given location.
func (e ItineraryEntry) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, e.Date+" "+e.Time, loc)
}

// Trip holds the parts of a trip record the assistant reads.
type Trip struct {
	TripID    uuid.UUID `json:"trip_id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Country   string    `json:"country"`
	City      string    `json:"city"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
}

// PendingEdit is a proposed but unconfirmed change to one itinerary entry.
// Date and Title identify the entry as it was when the change was proposed.
type PendingEdit struct {
	TripID     uuid.UUID `json:"trip_id"`
	Date       string    `json:"date"`
	Title      string    `json:"title"`
	NewTitle   string    `json:"new_title"`
	NewDate    string    `json:"new_date"`
	NewTime    string    `json:"new_time"`
	ProposedAt time.Time `json:"proposed_at"`
}

// EditRequest carries whatever the user said about an itinerary change.
// Empty fields mean "not specified".
type EditRequest struct {
	Date      string `json:"date,omitempty"`
	Title     string `json:"title,omitempty"`
	NewTitle  string `json:"new_title,omitempty"`
	NewDate   string `json:"new_date,omitempty"`
	NewTime   string `json:"new_time,omitempty"`
	Utterance string `json:"utterance,omitempty"`
}
