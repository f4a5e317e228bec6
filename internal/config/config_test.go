package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, "8002", cfg.ServerPort)
	require.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	require.Equal(t, "anthropic", cfg.DefaultLLM)
	require.Equal(t, 8, cfg.AgentMaxTurns)
	require.Equal(t, 50, cfg.HistoryLimit)
	require.Equal(t, time.Minute, cfg.RateLimitWindow)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MODEL", "gpt-4o")
	t.Setenv("AGENT_MAX_TURNS", "3")
	t.Setenv("TRACING_ENABLED", "true")

	cfg := Load()
	require.Equal(t, "9000", cfg.ServerPort)
	require.Equal(t, "gpt-4o", cfg.Model)
	require.Equal(t, 3, cfg.AgentMaxTurns)
	require.True(t, cfg.TracingEnabled)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.Validate())

	cfg.PocketbaseURL = "http://localhost:8090"
	require.Error(t, cfg.Validate())

	cfg.Model = "gpt-4o"
	require.Error(t, cfg.Validate())

	cfg.OpenAIAPIKey = "sk-test"
	require.NoError(t, cfg.Validate())
}
