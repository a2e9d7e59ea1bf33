package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

// PendingStore keeps at most one PendingEdit per user. Set overwrites any
// previous edit (last write wins). Take reads and deletes in one atomic step.
type PendingStore interface {
	GetPending(ctx context.Context, userID uuid.UUID) (*types.PendingEdit, error)
	SetPending(ctx context.Context, userID uuid.UUID, edit types.PendingEdit) error
	TakePending(ctx context.Context, userID uuid.UUID) (*types.PendingEdit, error)
	DeletePending(ctx context.Context, userID uuid.UUID) error
}

// HistoryStore keeps the most recent conversation turns per user and trip.
type HistoryStore interface {
	AppendTurns(ctx context.Context, userID, tripID uuid.UUID, turns ...types.ChatTurn) error
	History(ctx context.Context, userID, tripID uuid.UUID) ([]types.ChatTurn, error)
}

type Store interface {
	PendingStore
	HistoryStore
}

func pendingKey(userID uuid.UUID) string {
	return fmt.Sprintf("pending:%s", userID)
}

func historyKey(userID, tripID uuid.UUID) string {
	return fmt.Sprintf("history:%s:%s", userID, tripID)
}
