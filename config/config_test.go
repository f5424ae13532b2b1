package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Contains(t, cfg.DSN(), "dbname=escape_finder")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/rooms")
	t.Setenv("CAPTCHA_DISABLED", "yes")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("AMQP_URL", "amqp://guest:guest@mq:5672/")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://u:p@db:5432/rooms", cfg.DSN())
	assert.True(t, cfg.CaptchaDisabled)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.AMQPURL)
}

func TestEnvHelpersFallBack(t *testing.T) {
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_INT", "ten")
	t.Setenv("X_DUR", "soon")

	assert.True(t, envBool("X_BOOL", true))
	assert.Equal(t, 3, envInt("X_INT", 3))
	assert.Equal(t, time.Second, envDur("X_DUR", time.Second))
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 5*time.Minute, cfg.TTL)
}

func TestNewGoogleConfigDisabled(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	var g *GoogleConfig = NewGoogleConfig()
	assert.Nil(t, g)
	_, err := g.GetUserInfo(t.Context(), "token")
	assert.ErrorIs(t, err, ErrGoogleDisabled)
}
