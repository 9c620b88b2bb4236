package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_EnvOverridesAndDefaults(t *testing.T) {
	t.Setenv("PETIFY_DATABASE_URL", "postgres://localhost/petify")
	t.Setenv("PETIFY_SERVER_PORT", "9090")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
	t.Setenv("PAGE_ACCESS_CODE", "letmein")
	t.Setenv("MAPBOX_TOKEN", "pk.map")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/petify", cfg.Database.URL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sk_test_123", cfg.Stripe.SecretKey)
	assert.True(t, cfg.Stripe.Enabled())
	assert.Equal(t, "letmein", cfg.AccessGate.Code)
	assert.Equal(t, 30*time.Second, cfg.QueryCache.StaleAfter)
	assert.Equal(t, 5*time.Minute, cfg.QueryCache.ExpireAfter)
	assert.Equal(t, 3, cfg.QueryCache.MaxRetries)
	assert.Equal(t, "pk.map", cfg.Map.Token)
	assert.Equal(t, "authenticated", cfg.Backend.JWTAudience)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_RequiresDatabase(t *testing.T) {
	t.Setenv("PETIFY_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url")
}

func TestValidate_StripeNeedsWebhookSecret(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{URL: "postgres://x"},
		Stripe:   StripeConfig{SecretKey: "sk_test"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stripe.webhook_secret")
}

func TestValidateAPI_RequiresJWTSecret(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.ValidateAPI())

	cfg.Backend.JWTSecret = "secret"
	assert.NoError(t, cfg.ValidateAPI())
}
