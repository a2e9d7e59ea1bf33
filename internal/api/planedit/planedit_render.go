package planedit

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

const (
	MsgPlanNotFound = "I couldn't find that plan in your itinerary."
	MsgCancelled    = "The pending plan change was cancelled."
)

// FormatProposal shows the current entry next to the proposed values and asks for the keyword.
func FormatProposal(p *Proposal, confirmKeyword string) string {
	var b strings.Builder
	b.WriteString("Do you want to change this plan as follows?\n\n[Current plan]\n")
	writeEntry(&b, p.Entry.Title, p.Entry.Date, p.Entry.Time)
	fmt.Fprintf(&b, "Place: %s\nAddress: %s\n\n[New plan]\n", p.Entry.Place, p.Entry.Address)
	writeEntry(&b, p.Edit.NewTitle, p.Edit.NewDate, p.Edit.NewTime)
	fmt.Fprintf(&b, "\nType '%s' to apply the change.", confirmKeyword)
	return b.String()
}

// FormatApplied reports an applied edit as a before/after pair.
func FormatApplied(a *Applied) string {
	var b strings.Builder
	b.WriteString("The plan was updated successfully!\n\n[Before]\n")
	writeEntry(&b, a.Before.Title, a.Before.Date, a.Before.Time)
	fmt.Fprintf(&b, "Place: %s\nAddress: %s\n\n[After]\n", a.Before.Place, a.Before.Address)
	writeEntry(&b, a.After.Title, a.After.Date, a.After.Time)
	fmt.Fprintf(&b, "Place: %s\nAddress: %s", a.After.Place, a.After.Address)
	return b.String()
}

func writeEntry(b *strings.Builder, title, date, clock string) {
	fmt.Fprintf(b, "Title: %s\nDate: %s\nTime: %s\n", title, date, clock)
}

// Marker pins the entry an edit is about.
func Marker(e types.ItineraryEntry) types.GeoMarker {
	return types.GeoMarker{Latitude: e.Latitude, Longitude: e.Longitude}
}
