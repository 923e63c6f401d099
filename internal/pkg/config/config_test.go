//go:build unit

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "petcare")
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("BOOKING_NO_SHOW_LIMIT", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int32(20), cfg.DB.MaxConns)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Duration)
	assert.Equal(t, 24*time.Hour, cfg.Business.CancellationLeadTime)
	assert.Equal(t, 90, cfg.Business.NoShowWindowDays)
	assert.Equal(t, 5, cfg.Business.NoShowLimit)
	assert.Equal(t, 5*time.Minute, cfg.Redis.SlotTTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "booking-events", cfg.Kafka.Topic)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	for _, key := range []string{"PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "JWT_SECRET"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestBusinessLocation(t *testing.T) {
	t.Run("valid zone", func(t *testing.T) {
		loc := BusinessConfig{TimeZone: "UTC"}.Location()
		assert.Equal(t, time.UTC, loc)
	})

	t.Run("unknown zone falls back to JST offset", func(t *testing.T) {
		loc := BusinessConfig{TimeZone: "Mars/Olympus"}.Location()
		_, offset := time.Date(2026, 3, 2, 0, 0, 0, 0, loc).Zone()
		assert.Equal(t, 9*60*60, offset)
	})
}

func TestBuildDSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable", TimeZone: "UTC"}
	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=disable&timezone=UTC", c.BuildDSN())
}
