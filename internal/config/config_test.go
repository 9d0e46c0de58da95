package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"GATEWAY_LISTEN_ADDR", "CF_IMAGES_ACCOUNT_ID", "CF_IMAGES_API_TOKEN",
		"CF_IMAGES_ACCOUNT_HASH", "CF_IMAGES_API_URL", "CF_IMAGES_DELIVERY_URL",
		"ALLOWED_ORIGINS", "GATEWAY_DB_PATH", "GATEWAY_MAX_UPLOAD_BYTES",
		"GATEWAY_UPLOADS_PER_MINUTE", "GATEWAY_VARIANTS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "https://api.cloudflare.com/client/v4", cfg.APIBaseURL)
	assert.Equal(t, "https://imagedelivery.net", cfg.DeliveryURL)
	assert.Equal(t, int64(MaxUploadBytes), cfg.MaxUploadBytes)
	assert.Equal(t, 60, cfg.UploadsPerMin)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.False(t, cfg.PersistenceEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CF_IMAGES_ACCOUNT_ID", "acct")
	t.Setenv("CF_IMAGES_API_TOKEN", "token")
	t.Setenv("CF_IMAGES_ACCOUNT_HASH", "hash")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")
	t.Setenv("GATEWAY_DB_PATH", "/tmp/images.db")
	t.Setenv("GATEWAY_MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("GATEWAY_UPLOADS_PER_MINUTE", "10")

	cfg := Load()

	require.NoError(t, cfg.ValidateProvider())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.PersistenceEnabled())
	assert.Equal(t, int64(1<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 10, cfg.UploadsPerMin)
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("GATEWAY_MAX_UPLOAD_BYTES", "not-a-number")
	t.Setenv("GATEWAY_UPLOADS_PER_MINUTE", "-5")

	cfg := Load()

	assert.Equal(t, int64(MaxUploadBytes), cfg.MaxUploadBytes)
	assert.Equal(t, 60, cfg.UploadsPerMin)
}

func TestValidateProvider(t *testing.T) {
	cfg := &Config{AccountID: "acct", APIToken: "token", AccountHash: "hash"}
	assert.NoError(t, cfg.ValidateProvider())

	cfg.AccountHash = ""
	err := cfg.ValidateProvider()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CF_IMAGES_ACCOUNT_HASH")

	cfg.AccountID = ""
	err = cfg.ValidateProvider()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CF_IMAGES_ACCOUNT_ID")
}
