package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// MaxUploadBytes is the default upload size ceiling (5 MiB).
const MaxUploadBytes = 5 << 20

type Config struct {
	ListenAddr     string
	AccountID      string
	APIToken       string
	AccountHash    string
	APIBaseURL     string
	DeliveryURL    string
	AllowedOrigins []string
	DBPath         string
	MaxUploadBytes int64
	UploadsPerMin  int
	Variants       string
}

// Load reads configuration from the environment. It never fails: missing
// provider settings are reported per request by ValidateProvider so that a
// misconfigured gateway answers 500 instead of refusing to start.
func Load() *Config {
	return &Config{
		ListenAddr:     getEnv("GATEWAY_LISTEN_ADDR", ":8080"),
		AccountID:      os.Getenv("CF_IMAGES_ACCOUNT_ID"),
		APIToken:       os.Getenv("CF_IMAGES_API_TOKEN"),
		AccountHash:    os.Getenv("CF_IMAGES_ACCOUNT_HASH"),
		APIBaseURL:     getEnv("CF_IMAGES_API_URL", "https://api.cloudflare.com/client/v4"),
		DeliveryURL:    getEnv("CF_IMAGES_DELIVERY_URL", "https://imagedelivery.net"),
		AllowedOrigins: splitOrigins(os.Getenv("ALLOWED_ORIGINS")),
		DBPath:         os.Getenv("GATEWAY_DB_PATH"),
		MaxUploadBytes: getEnvInt64("GATEWAY_MAX_UPLOAD_BYTES", MaxUploadBytes),
		UploadsPerMin:  int(getEnvInt64("GATEWAY_UPLOADS_PER_MINUTE", 60)),
		Variants:       os.Getenv("GATEWAY_VARIANTS"),
	}
}

// ValidateProvider reports the first missing provider setting, if any.
func (c *Config) ValidateProvider() error {
	switch {
	case c.AccountID == "":
		return errors.New("CF_IMAGES_ACCOUNT_ID is not set")
	case c.APIToken == "":
		return errors.New("CF_IMAGES_API_TOKEN is not set")
	case c.AccountHash == "":
		return errors.New("CF_IMAGES_ACCOUNT_HASH is not set")
	}
	return nil
}

// PersistenceEnabled reports whether a metadata store is configured.
func (c *Config) PersistenceEnabled() bool {
	return c.DBPath != ""
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
