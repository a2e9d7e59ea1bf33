package session

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-assistant/internal/types"
)

func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("no pending edit", func(t *testing.T) {
		edit, err := store.GetPending(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, edit)
	})

	t.Run("last write wins", func(t *testing.T) {
		userID := uuid.New()
		tripID := uuid.New()
		require.NoError(t, store.SetPending(ctx, userID, types.PendingEdit{TripID: tripID, Title: "Louvre", NewTime: "10:00:00"}))
		require.NoError(t, store.SetPending(ctx, userID, types.PendingEdit{TripID: tripID, Title: "Orsay", NewTime: "15:00:00"}))

		edit, err := store.GetPending(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, edit)
		assert.Equal(t, "Orsay", edit.Title)
		assert.Equal(t, "15:00:00", edit.NewTime)
	})

	t.Run("take removes the edit", func(t *testing.T) {
		userID := uuid.New()
		require.NoError(t, store.SetPending(ctx, userID, types.PendingEdit{Title: "Louvre"}))

		edit, err := store.TakePending(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, edit)
		assert.Equal(t, "Louvre", edit.Title)

		edit, err = store.TakePending(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, edit)
	})

	t.Run("delete", func(t *testing.T) {
		userID := uuid.New()
		require.NoError(t, store.SetPending(ctx, userID, types.PendingEdit{Title: "Louvre"}))
		require.NoError(t, store.DeletePending(ctx, userID))

		edit, err := store.GetPending(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, edit)
	})

	t.Run("history keeps the newest turns", func(t *testing.T) {
		userID, tripID := uuid.New(), uuid.New()
		for i := 0; i < 3; i++ {
			require.NoError(t, store.AppendTurns(ctx, userID, tripID,
				types.ChatTurn{Role: types.RoleUser, Content: "q" + string(rune('0'+i))},
				types.ChatTurn{Role: types.RoleAssistant, Content: "a" + string(rune('0'+i))},
			))
		}

		history, err := store.History(ctx, userID, tripID)
		require.NoError(t, err)
		require.Len(t, history, 4)
		assert.Equal(t, "q1", history[0].Content)
		assert.Equal(t, "a2", history[3].Content)

		other, err := store.History(ctx, userID, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, other)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore(time.Hour, 4))
}

func TestMemoryStore_ConcurrentTake(t *testing.T) {
	store := NewMemoryStore(time.Hour, 4)
	ctx := context.Background()
	userID := uuid.New()
	require.NoError(t, store.SetPending(ctx, userID, types.PendingEdit{Title: "Louvre"}))

	var wg sync.WaitGroup
	var mu sync.Mutex
	taken := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			edit, err := store.TakePending(ctx, userID)
			if err == nil && edit != nil {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, taken)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TRIP_REDIS_ADDR")
	if addr == "" {
		t.Skip("TRIP_REDIS_ADDR not set; skipping integration test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	runStoreContract(t, NewRedisStore(rdb, time.Hour, 4))
}
