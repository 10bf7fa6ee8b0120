package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SAP-F-2025/quizhub-practice/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, "dev-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "HS256", cfg.Auth.JWTAlgorithm)
	assert.Equal(t, 24*time.Hour, cfg.Session.SnapshotTTL)
	assert.Equal(t, "@every 5m", cfg.Session.EvictionSchedule)
	assert.Zero(t, cfg.Archive.Retention)
	assert.Equal(t, "@daily", cfg.Archive.PruneSchedule)
	assert.True(t, cfg.Events.Enabled)
	assert.Equal(t, "channel", cfg.Events.Publisher)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("QUIZ_API_BASE_URL", "https://quizhub.example.com/api")
	t.Setenv("QUIZ_API_TIMEOUT", "3s")
	t.Setenv("SESSION_IDLE_TIMEOUT", "30m")
	t.Setenv("ARCHIVE_RETENTION", "720h")
	t.Setenv("EVENTS_PUBLISHER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "prod-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "https://quizhub.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 720*time.Hour, cfg.Archive.Retention)
	assert.Equal(t, "kafka", cfg.Events.Publisher)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.GetKafkaBrokers())
}

func TestLoadConfig_ProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestEventConfig_CreateEventPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	disabled := EventConfig{Enabled: false}
	publisher, err := disabled.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.MockEventPublisher{}, publisher)

	channel := EventConfig{Enabled: true, Publisher: "channel", Topic: "t"}
	publisher, err = channel.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.ChannelEventPublisher{}, publisher)
	assert.NoError(t, publisher.Close())

	unknown := EventConfig{Enabled: true, Publisher: "carrier-pigeon"}
	publisher, err = unknown.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.MockEventPublisher{}, publisher)
}
