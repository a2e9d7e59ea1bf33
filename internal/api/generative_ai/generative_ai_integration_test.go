//go:build integration

package generativeAI

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-assistant/app/observability/metrics"
)

func newIntegrationClient(t *testing.T) *AIClient {
	t.Helper()
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: GOOGLE_GEMINI_API_KEY not set")
	}
	client, err := NewAIClient(context.Background(), Options{
		APIKey:      apiKey,
		Temperature: 0.1,
		Timeout:     30 * time.Second,
	}, metrics.NewNoop(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client
}

func TestAIClient_Generate_Integration(t *testing.T) {
	client := newIntegrationClient(t)

	out, err := client.Generate(context.Background(), "What is the capital of Portugal? Answer with one word.")
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(out), "lisbon")
}

func TestAIClient_Classify_Integration(t *testing.T) {
	client := newIntegrationClient(t)

	t.Run("search intent", func(t *testing.T) {
		c, err := client.Classify(context.Background(), ClassifyRequest{Utterance: "Find popular cafes in Barcelona"})
		require.NoError(t, err)
		assert.Equal(t, FnSearchPlaces, c.Function)
		assert.NotEmpty(t, StringArg(c.Args, "query"))
	})

	t.Run("save intent", func(t *testing.T) {
		c, err := client.Classify(context.Background(), ClassifyRequest{Utterance: "Save number 1 and 3 please"})
		require.NoError(t, err)
		assert.Equal(t, FnSavePlace, c.Function)
	})
}

func TestAIClient_Embed_Integration(t *testing.T) {
	client := newIntegrationClient(t)

	vecs, err := client.Embed(context.Background(), []string{"Eiffel Tower sightseeing", "Louvre museum visit"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.NotEmpty(t, vecs[0])
	assert.Greater(t, CosineSimilarity(vecs[0], vecs[0]), 0.99)
}

func TestAIClient_Timeout_Integration(t *testing.T) {
	client := newIntegrationClient(t)
	client.timeout = time.Millisecond

	_, err := client.Generate(context.Background(), "Write a long essay about travel.")
	assert.Error(t, err)
}
