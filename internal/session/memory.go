package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a single-process Store backed by go-cache.
type MemoryStore struct {
	mu           sync.Mutex
	cache        *cache.Cache
	pendingTTL   time.Duration
	historyLimit int
}

func NewMemoryStore(pendingTTL time.Duration, historyLimit int) *MemoryStore {
	return &MemoryStore{
		cache:        cache.New(pendingTTL, 10*time.Minute),
		pendingTTL:   pendingTTL,
		historyLimit: historyLimit,
	}
}

func (s *MemoryStore) GetPending(_ context.Context, userID uuid.UUID) (*types.PendingEdit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked(userID), nil
}

func (s *MemoryStore) SetPending(_ context.Context, userID uuid.UUID, edit types.PendingEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(pendingKey(userID), edit, s.pendingTTL)
	return nil
}

func (s *MemoryStore) TakePending(_ context.Context, userID uuid.UUID) (*types.PendingEdit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	edit := s.pendingLocked(userID)
	s.cache.Delete(pendingKey(userID))
	return edit, nil
}

func (s *MemoryStore) DeletePending(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(pendingKey(userID))
	return nil
}

func (s *MemoryStore) pendingLocked(userID uuid.UUID) *types.PendingEdit {
	v, ok := s.cache.Get(pendingKey(userID))
	if !ok {
		return nil
	}
	edit := v.(types.PendingEdit)
	return &edit
}

func (s *MemoryStore) AppendTurns(_ context.Context, userID, tripID uuid.UUID, turns ...types.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := historyKey(userID, tripID)
	var history []types.ChatTurn
	if v, ok := s.cache.Get(key); ok {
		history = v.([]types.ChatTurn)
	}
	history = append(append([]types.ChatTurn{}, history...), turns...)
	if s.historyLimit > 0 && len(history) > s.historyLimit {
		history = history[len(history)-s.historyLimit:]
	}
	s.cache.Set(key, history, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) History(_ context.Context, userID, tripID uuid.UUID) ([]types.ChatTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(historyKey(userID, tripID))
	if !ok {
		return nil, nil
	}
	history := v.([]types.ChatTurn)
	return append([]types.ChatTurn{}, history...), nil
}
