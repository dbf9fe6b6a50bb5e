package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings, read from the environment with
// development defaults.
type Config struct {
	Port         string
	DatabasePath string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	TokenTTL    time.Duration

	UploadDir     string
	UploadBaseURL string

	CommentCacheTTL time.Duration
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Port:            getEnv("PORT", ":8008"),
		DatabasePath:    getEnv("DATABASE_PATH", "dugnadhub.db"),
		JWTSecret:       getEnv("JWT_SECRET", "development-insecure-secret-change-me"),
		JWTIssuer:       getEnv("JWT_ISSUER", "dugnadhub-api"),
		JWTAudience:     getEnv("JWT_AUDIENCE", "dugnadhub-clients"),
		TokenTTL:        getEnvDuration("TOKEN_TTL_HOURS", 24) * time.Hour,
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		UploadBaseURL:   getEnv("UPLOAD_BASE_URL", "/uploads"),
		CommentCacheTTL: getEnvDuration("COMMENT_CACHE_TTL_MINUTES", 5) * time.Minute,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback int64) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return time.Duration(n)
		}
	}
	return time.Duration(fallback)
}
