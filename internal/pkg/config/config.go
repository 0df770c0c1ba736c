package config

import (
	"strconv"
	"time"

	"github.com/chatico/mapper/internal/pkg/env"
)

// Config carries every tunable the service needs. It is built once in main
// and handed to each component's constructor; no package reads the
// environment after startup.
type Config struct {
	App       AppConfig
	Webhook   WebhookConfig
	Instagram InstagramConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Admin     AdminConfig
}

type AppConfig struct {
	Host string
	Port string
	Env  string
}

type WebhookConfig struct {
	// AppSecret is the shared HMAC key the platform signs request bodies with.
	AppSecret string
	// VerifyToken is echoed during the GET subscription handshake.
	VerifyToken string
	// SkipVerification disables signature checks for local development.
	SkipVerification bool
	// ForwardTimeout bounds a single outbound delivery to a worker app.
	ForwardTimeout time.Duration
}

type InstagramConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

type DatabaseConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

type CacheConfig struct {
	Host string
	Port string
	// MediaOwnerTTL bounds staleness of cached media-to-account mappings.
	MediaOwnerTTL time.Duration
	// WorkerAppTTL bounds staleness of cached worker app lookups.
	WorkerAppTTL time.Duration
}

type AdminConfig struct {
	// APIKey guards the worker app administration endpoints.
	APIKey string
	// MetricsUser/MetricsPassword guard the /metrics monitor page.
	MetricsUser     string
	MetricsPassword string
}

// Load builds the configuration from the environment.
func Load() *Config {
	return &Config{
		App: AppConfig{
			Host: env.GetEnv("APP_HOST", "localhost"),
			Port: env.GetEnv("APP_PORT", "4000"),
			Env:  env.GetEnv("APP_ENV", "prod"),
		},
		Webhook: WebhookConfig{
			AppSecret:        env.GetEnv("WEBHOOK_APP_SECRET", ""),
			VerifyToken:      env.GetEnv("WEBHOOK_VERIFY_TOKEN", ""),
			SkipVerification: getBool("WEBHOOK_SKIP_VERIFY", false),
			ForwardTimeout:   getDuration("WEBHOOK_FORWARD_TIMEOUT_SECONDS", 30*time.Second),
		},
		Instagram: InstagramConfig{
			BaseURL:     env.GetEnv("INSTAGRAM_API_BASE_URL", "https://graph.instagram.com/v23.0"),
			AccessToken: env.GetEnv("INSTAGRAM_ACCESS_TOKEN", ""),
			Timeout:     getDuration("INSTAGRAM_API_TIMEOUT_SECONDS", 10*time.Second),
		},
		Database: DatabaseConfig{
			User:     env.GetEnv("DB_USER", ""),
			Password: env.GetEnv("DB_PASSWORD", ""),
			Host:     env.GetEnv("DB_HOST", "127.0.0.1"),
			Port:     env.GetEnv("DB_PORT", "3306"),
			Name:     env.GetEnv("DB_NAME", ""),
		},
		Cache: CacheConfig{
			Host:          env.GetEnv("CACHE_HOST", "localhost"),
			Port:          env.GetEnv("CACHE_PORT", "6379"),
			MediaOwnerTTL: getDuration("CACHE_MEDIA_OWNER_TTL_SECONDS", 24*time.Hour),
			WorkerAppTTL:  getDuration("CACHE_WORKER_APP_TTL_SECONDS", 24*time.Hour),
		},
		Admin: AdminConfig{
			APIKey:          env.GetEnv("ADMIN_API_KEY", ""),
			MetricsUser:     env.GetEnv("METRICS_USER", "admin"),
			MetricsPassword: env.GetEnv("METRICS_PASSWORD", ""),
		},
	}
}

func (c *Config) IsDev() bool {
	return c.App.Env == "dev"
}

func getBool(key string, def bool) bool {
	val := env.GetEnv(key, "")
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return parsed
}

func getDuration(key string, def time.Duration) time.Duration {
	val := env.GetEnv(key, "")
	if val == "" {
		return def
	}
	seconds, err := strconv.Atoi(val)
	if err != nil || seconds <= 0 {
		return def
	}
	return time.Duration(seconds) * time.Second
}
