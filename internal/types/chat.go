package types

import (
	"time"

	"github.com/google/uuid"
)

// ResultKind tells the client how to render an Envelope.
type ResultKind string

const (
	ResultSearch          ResultKind = "search"
	ResultDetail          ResultKind = "detail"
	ResultChat            ResultKind = "chat"
	ResultSaved           ResultKind = "saved"
	ResultPlanned         ResultKind = "planned"
	ResultUpdateConfirm   ResultKind = "updateConfirm"
	ResultUpdateApplied   ResultKind = "updateApplied"
	ResultUpdateCancelled ResultKind = "updateCancelled"
	ResultError           ResultKind = "error"
)

// Envelope is the uniform reply of the assistant.
type Envelope struct {
	Text       string      `json:"text"`
	GeoMarkers []GeoMarker `json:"geoMarkers"`
	ResultKind ResultKind  `json:"resultKind"`
}

// NewEnvelope builds an envelope that always carries a non-nil marker list.
func NewEnvelope(kind ResultKind, text string, markers ...GeoMarker) *Envelope {
	if markers == nil {
		markers = []GeoMarker{}
	}
	return &Envelope{Text: text, GeoMarkers: markers, ResultKind: kind}
}

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	TripID    string   `json:"tripId"`
	Message   string   `json:"message"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Zoom      *int     `json:"zoom,omitempty"`
}

// ChatRole identifies who produced a conversation turn.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatTurn is one entry of the short-term conversation memory.
type ChatTurn struct {
	Role    ChatRole  `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ChatMessage is one persisted transcript line.
type ChatMessage struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Sender    string    `json:"sender" bson:"sender"`
	Message   string    `json:"message" bson:"message"`
	IsSerp    bool      `json:"isSerp" bson:"isSerp"`
}

// ChatLog is the full transcript of a user's conversation about one trip.
type ChatLog struct {
	UserID       uuid.UUID     `json:"user_id" bson:"userId"`
	TripID       uuid.UUID     `json:"trip_id" bson:"tripId"`
	CreatedAt    time.Time     `json:"created_at" bson:"createdAt"`
	Conversation []ChatMessage `json:"conversation" bson:"conversation"`
}
