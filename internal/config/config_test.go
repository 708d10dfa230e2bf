package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("VENUE_RETENTION_KEEP", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 5, cfg.VenueRetentionKeep)
	assert.Equal(t, "@every 1h", cfg.VenueSweepSchedule)
	assert.Equal(t, 2*time.Second, cfg.NotifyTimeout)
	assert.Len(t, cfg.CORSOrigins, 2)
	assert.False(t, cfg.Production())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("VENUE_RETENTION_KEEP", "3")
	t.Setenv("ACCESS_TTL", "90m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("PUBLIC_URL", "https://clubs.example/")

	cfg := Load()

	assert.True(t, cfg.Production())
	assert.Equal(t, 3, cfg.VenueRetentionKeep)
	assert.Equal(t, 90*time.Minute, cfg.AccessTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "https://clubs.example", cfg.PublicURL)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MIN", "lots")
	t.Setenv("REFRESH_TTL", "forever")

	cfg := Load()

	assert.Equal(t, 240, cfg.RateLimitPerMin)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
}
