package types

import (
	"time"

	"github.com/google/uuid"
)

// CanonicalPlace is the normalized form of a single place search result.
type CanonicalPlace struct {
	Title       string   `json:"title" bson:"title"`
	Rating      *float64 `json:"rating,omitempty" bson:"rating,omitempty"`
	Address     string   `json:"address" bson:"address"`
	Latitude    float64  `json:"latitude" bson:"latitude"`
	Longitude   float64  `json:"longitude" bson:"longitude"`
	Description string   `json:"description" bson:"description"`
	Price       *string  `json:"price,omitempty" bson:"price,omitempty"`
}

// Key identifies a place for de-duplication purposes.
func (p CanonicalPlace) Key() string {
	return p.Title + "|" + p.Address
}

// GeoMarker is a single map pin returned to the client.
type GeoMarker struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// GeoBias narrows a place search around a point. Zoom follows web map conventions (0-21).
type GeoBias struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      int     `json:"zoom,omitempty"`
}

type ResultSetKind string

const (
	ResultSetSearch ResultSetKind = "search"
	ResultSetDetail ResultSetKind = "detail"
)

// SearchResultSet is the latest search, rank or detail output for a user and trip.
type SearchResultSet struct {
	UserID    uuid.UUID        `json:"user_id" bson:"userId"`
	TripID    uuid.UUID        `json:"trip_id" bson:"tripId"`
	Kind      ResultSetKind    `json:"kind" bson:"kind"`
	Places    []CanonicalPlace `json:"places" bson:"data"`
	UpdatedAt time.Time        `json:"updated_at" bson:"updatedAt"`
}

// SelectionBuffer accumulates the places a user decided to keep for a trip.
type SelectionBuffer struct {
	UserID uuid.UUID        `json:"user_id" bson:"userId"`
	TripID uuid.UUID        `json:"trip_id" bson:"tripId"`
	Places []CanonicalPlace `json:"places" bson:"placeData"`
}
