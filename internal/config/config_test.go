package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DRAW_COOLDOWN", "")
	t.Setenv("PHOTO_CARD_MONTHLY_LIMIT", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg := Load()

	assert.Equal(t, time.Hour, cfg.DrawCooldown)
	assert.Equal(t, 3, cfg.PhotoCardMonthlyLimit)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DRAW_COOLDOWN", "30m")
	t.Setenv("ENV", "production")
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_ACCESS_KEY_SECRET", "secret")

	cfg := Load()

	assert.Equal(t, 30*time.Minute, cfg.DrawCooldown)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.StorageEnabled())
}
