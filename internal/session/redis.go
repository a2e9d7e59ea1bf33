package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

var _ Store = (*RedisStore)(nil)

// RedisStore shares pending edits and history across instances.
type RedisStore struct {
	rdb          *redis.Client
	pendingTTL   time.Duration
	historyLimit int
}

func NewRedisStore(rdb *redis.Client, pendingTTL time.Duration, historyLimit int) *RedisStore {
	return &RedisStore{rdb: rdb, pendingTTL: pendingTTL, historyLimit: historyLimit}
}

func (s *RedisStore) GetPending(ctx context.Context, userID uuid.UUID) (*types.PendingEdit, error) {
	raw, err := s.rdb.Get(ctx, pendingKey(userID)).Bytes()
	return decodePending(raw, err)
}

func (s *RedisStore) SetPending(ctx context.Context, userID uuid.UUID, edit types.PendingEdit) error {
	raw, err := json.Marshal(edit)
	if err != nil {
		return fmt.Errorf("failed to encode pending edit: %w", err)
	}
	if err := s.rdb.Set(ctx, pendingKey(userID), raw, s.pendingTTL).Err(); err != nil {
		return fmt.Errorf("failed to store pending edit: %w", err)
	}
	return nil
}

func (s *RedisStore) TakePending(ctx context.Context, userID uuid.UUID) (*types.PendingEdit, error) {
	raw, err := s.rdb.GetDel(ctx, pendingKey(userID)).Bytes()
	return decodePending(raw, err)
}

func (s *RedisStore) DeletePending(ctx context.Context, userID uuid.UUID) error {
	if err := s.rdb.Del(ctx, pendingKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete pending edit: %w", err)
	}
	return nil
}

func decodePending(raw []byte, err error) (*types.PendingEdit, error) {
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pending edit: %w", err)
	}
	var edit types.PendingEdit
	if err := json.Unmarshal(raw, &edit); err != nil {
		return nil, fmt.Errorf("failed to decode pending edit: %w", err)
	}
	return &edit, nil
}

func (s *RedisStore) AppendTurns(ctx context.Context, userID, tripID uuid.UUID, turns ...types.ChatTurn) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([]any, 0, len(turns))
	for _, t := range turns {
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to encode chat turn: %w", err)
		}
		values = append(values, raw)
	}

	key := historyKey(userID, tripID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if s.historyLimit > 0 {
		pipe.LTrim(ctx, key, int64(-s.historyLimit), -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append chat history: %w", err)
	}
	return nil
}

func (s *RedisStore) History(ctx context.Context, userID, tripID uuid.UUID) ([]types.ChatTurn, error) {
	raws, err := s.rdb.LRange(ctx, historyKey(userID, tripID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}
	turns := make([]types.ChatTurn, 0, len(raws))
	for _, raw := range raws {
		var t types.ChatTurn
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("failed to decode chat turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}
