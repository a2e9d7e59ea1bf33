package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "maps-key")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")

	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.HTTPPort)
	assert.Equal(t, "maps-key", cfg.Maps.APIKey)
	assert.Equal(t, "jwt-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 20, cfg.Session.HistoryLimit)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.False(t, cfg.Assistant.DedupeSelections)
	assert.False(t, cfg.Translation.TranslateResults)
	assert.Contains(t, cfg.Assistant.ConfirmKeywords, "confirm")
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	assert.Equal(t, 10*time.Second, cfg.Maps.Timeout)
	assert.Equal(t, 0.75, cfg.Assistant.SimilarityThreshold)
	assert.Equal(t, []string{"confirm", "확인", "yes"}, cfg.Assistant.ConfirmKeywords)
	assert.Equal(t, 4, cfg.Translation.Concurrency)
}

func TestInitConfig_TranslateResultsFromEnv(t *testing.T) {
	t.Setenv("TRANSLATE_RESULTS", "true")

	cfg, err := InitConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Translation.TranslateResults)
}
