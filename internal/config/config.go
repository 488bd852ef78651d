package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// FallbackProjectID is used when FIREBASE_PROJECT_ID is not set.
const FallbackProjectID = "ezparkk-e4d3b"

const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
)

// Firebase mirrors the web app's Firebase configuration.
type Firebase struct {
	APIKey            string
	AuthDomain        string
	ProjectID         string
	StorageBucket     string
	MessagingSenderID string
	AppID             string
}

// Config holds application configuration
type Config struct {
	Firebase Firebase

	Port            string
	CredentialsFile string
	DocumentStore   string
	DatabaseURL     string
	AllowedOrigins  []string
	// TrustedProxies may set X-Forwarded-For; empty means the socket peer is the client.
	TrustedProxies []string
	SubmitTimeout   time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
	LogLevel        string
	GinMode         string

	// Warnings collects non-fatal configuration problems for the operator.
	Warnings []string
}

// Load reads configuration from the environment, loading .env first if present.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() *Config {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		DocumentStore:   strings.ToLower(getEnv("DOCUMENT_STORE", StoreFirestore)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),
		TrustedProxies:  splitList(os.Getenv("TRUSTED_PROXIES")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		GinMode:         getEnv("GIN_MODE", "release"),
	}

	cfg.SubmitTimeout = cfg.durationEnv("SUBMIT_TIMEOUT", 30*time.Second)
	cfg.RateLimitRPS = cfg.floatEnv("RATE_LIMIT_RPS", 1)
	cfg.RateLimitBurst = cfg.intEnv("RATE_LIMIT_BURST", 5)

	fb := Firebase{
		APIKey:            os.Getenv("FIREBASE_API_KEY"),
		AuthDomain:        os.Getenv("FIREBASE_AUTH_DOMAIN"),
		ProjectID:         os.Getenv("FIREBASE_PROJECT_ID"),
		StorageBucket:     os.Getenv("FIREBASE_STORAGE_BUCKET"),
		MessagingSenderID: os.Getenv("FIREBASE_MESSAGING_SENDER_ID"),
		AppID:             os.Getenv("FIREBASE_APP_ID"),
	}
	if fb.ProjectID == "" {
		fb.ProjectID = FallbackProjectID
		cfg.warn("FIREBASE_PROJECT_ID not set, using fallback project ID %s", FallbackProjectID)
	}
	if fb.AuthDomain == "" {
		fb.AuthDomain = fb.ProjectID + ".firebaseapp.com"
	}
	fb.StorageBucket = strings.TrimPrefix(fb.StorageBucket, "gs://")
	if fb.StorageBucket == "" {
		fb.StorageBucket = fb.ProjectID + ".firebasestorage.app"
		cfg.warn("FIREBASE_STORAGE_BUCKET not set, trying default bucket %s", fb.StorageBucket)
	}
	if fb.APIKey == "" {
		cfg.warn("FIREBASE_API_KEY not set")
	}
	cfg.Firebase = fb

	switch cfg.DocumentStore {
	case StoreFirestore:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			cfg.warn("DOCUMENT_STORE=postgres but DATABASE_URL is empty")
		}
	default:
		cfg.warn("unknown DOCUMENT_STORE %q, using %s", cfg.DocumentStore, StoreFirestore)
		cfg.DocumentStore = StoreFirestore
	}

	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.warn("unknown GIN_MODE %q, using release", cfg.GinMode)
		cfg.GinMode = "release"
	}

	return cfg
}

// Log writes the effective configuration with secrets masked, then any warnings.
func (c *Config) Log(logger *zap.Logger) {
	logger.Info("configuration loaded",
		zap.String("project_id", c.Firebase.ProjectID),
		zap.String("auth_domain", c.Firebase.AuthDomain),
		zap.String("storage_bucket", c.Firebase.StorageBucket),
		zap.String("api_key", mask(c.Firebase.APIKey)),
		zap.Bool("has_messaging_sender_id", c.Firebase.MessagingSenderID != ""),
		zap.Bool("has_app_id", c.Firebase.AppID != ""),
		zap.String("document_store", c.DocumentStore),
		zap.String("port", c.Port),
		zap.Duration("submit_timeout", c.SubmitTimeout),
		zap.Strings("trusted_proxies", c.TrustedProxies),
	)
	for _, w := range c.Warnings {
		logger.Warn(w)
	}
}

func (c *Config) warn(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func (c *Config) durationEnv(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		c.warn("invalid %s %q, using %s", key, raw, def)
		return def
	}
	return d
}

func (c *Config) floatEnv(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		c.warn("invalid %s %q, using %v", key, raw, def)
		return def
	}
	return f
}

func (c *Config) intEnv(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.warn("invalid %s %q, using %d", key, raw, def)
		return def
	}
	return n
}

// getEnv gets an environment variable or returns the default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 10 {
		return "****"
	}
	return s[:4] + "…" + s[len(s)-4:]
}
