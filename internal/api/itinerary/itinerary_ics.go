package itinerary

import (
	"fmt"
	"time"
	_ "time/tzdata"

	ics "github.com/arran4/golang-ical"
	"github.com/ringsaturn/tzf"

	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

const defaultEventDuration = time.Hour

// TimezoneFinder resolves an IANA zone name from coordinates. tzf.F satisfies it.
type TimezoneFinder interface {
	GetTimezoneName(lng float64, lat float64) string
}

// NewTimezoneFinder loads the embedded tzf polygon set. It is slow, build it once.
func NewTimezoneFinder() (TimezoneFinder, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone data: %w", err)
	}
	return finder, nil
}

// CalendarExporter renders itinerary entries as iCalendar events in the trip's local zone.
type CalendarExporter struct {
	finder TimezoneFinder
}

func NewCalendarExporter(finder TimezoneFinder) *CalendarExporter {
	return &CalendarExporter{finder: finder}
}

// location picks the zone of the first entry with coordinates; UTC when nothing resolves.
func (c *CalendarExporter) location(entries []types.ItineraryEntry) *time.Location {
	if c.finder == nil {
		return time.UTC
	}
	for _, e := range entries {
		if e.Latitude == 0 && e.Longitude == 0 {
			continue
		}
		name := c.finder.GetTimezoneName(e.Longitude, e.Latitude)
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

func (c *CalendarExporter) Export(trip *types.Trip, entries []types.ItineraryEntry) (string, error) {
	loc := c.location(entries)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//go-trip-assistant//itinerary//EN")
	cal.SetXWRCalName(trip.Title)
	cal.SetXWRTimezone(loc.String())

	stamp := time.Now().UTC()
	for _, e := range sortEntries(entries) {
		start, err := e.StartsAt(loc)
		if err != nil {
			return "", fmt.Errorf("entry %s has an invalid start: %w", e.PlanID, err)
		}
		event := cal.AddEvent(e.PlanID.String() + "@go-trip-assistant")
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(start.Add(defaultEventDuration))
		event.SetSummary(e.Title)
		event.SetLocation(fmt.Sprintf("%s, %s", e.Place, e.Address))
		event.SetProperty(ics.ComponentPropertyGeo, fmt.Sprintf("%f;%f", e.Latitude, e.Longitude))
		if e.Description != "" {
			event.SetDescription(e.Description)
		}
	}
	return cal.Serialize(), nil
}
