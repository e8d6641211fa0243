package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime settings loaded from environment variables.
type Config struct {
	HTTPPort     string
	DatabaseURL  string
	PGHost       string
	PGPort       string
	PGDatabase   string
	PGUser       string
	PGPassword   string
	PGSSL        bool
	JWTSecret    string
	TokenTTL     time.Duration
	BcryptCost   int
	ClientOrigin string
	CookieSecure bool
	UploadDir    string
	StaticDir    string
	LogLevel     string
	LogFormat    string
}

// Load builds a Config from the process environment.
func Load() Config {
	ttl := 24 * time.Hour
	if raw := os.Getenv("JWT_TTL"); raw != "" {
		if days, err := strconv.Atoi(raw); err == nil && days > 0 {
			ttl = time.Duration(days) * 24 * time.Hour
		}
	}

	cost := 10
	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			cost = n
		}
	}

	return Config{
		HTTPPort:     firstNonEmpty(os.Getenv("PORT"), "5000"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		PGHost:       firstNonEmpty(os.Getenv("PG_HOST"), "localhost"),
		PGPort:       firstNonEmpty(os.Getenv("PG_PORT"), "5432"),
		PGDatabase:   firstNonEmpty(os.Getenv("PG_DATABASE"), "instaclone"),
		PGUser:       firstNonEmpty(os.Getenv("PG_USER"), "instaclone"),
		PGPassword:   os.Getenv("PG_PASSWORD"),
		PGSSL:        os.Getenv("PG_SSL") == "true",
		JWTSecret:    firstNonEmpty(os.Getenv("JWT_SECRET"), "change-me-in-production"),
		TokenTTL:     ttl,
		BcryptCost:   cost,
		ClientOrigin: firstNonEmpty(os.Getenv("CLIENT_ORIGIN"), "http://localhost:5173"),
		CookieSecure: os.Getenv("COOKIE_SECURE") == "true",
		UploadDir:    firstNonEmpty(os.Getenv("UPLOAD_DIR"), "uploads"),
		StaticDir:    firstNonEmpty(os.Getenv("STATIC_DIR"), "frontend/dist"),
		LogLevel:     strings.ToLower(firstNonEmpty(os.Getenv("LOG_LEVEL"), "info")),
		LogFormat:    strings.ToLower(firstNonEmpty(os.Getenv("LOG_FORMAT"), "text")),
	}
}

// ClientOrigins splits CLIENT_ORIGIN on commas.
func (c Config) ClientOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.ClientOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
