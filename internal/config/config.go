// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env             string // application environment (e.g. "dev", "prod")
	Port            string // HTTP port to listen on
	LogLevel        string // debug, info, warn or error
	StoreDriver     string // mysql or memory
	DBUser          string // database username
	DBPass          string // database password (optional)
	DBHost          string // database host address
	DBPort          string // database port number
	DBName          string // database name
	JWTSecret       string // secret used to sign access tokens
	AccessTTLMin    int    // access token time-to-live in minutes
	BcryptCost      int    // bcrypt cost for password hashing
	CORSAllowOrigin string // value of Access-Control-Allow-Origin
	BodyLimit       string // echo body limit, e.g. "1M"

	Cache     CacheConfig
	RateLimit RateLimitConfig
	Events    EventsConfig
}

// Load reads configuration values from environment variables.  Only
// JWT_SECRET is required; a missing value logs a fatal error and exits.
// Database defaults match a local development install.
func Load() Config {
	return Config{
		Env:             envStr("APP_ENV", "dev"),
		Port:            envStr("APP_PORT", "8080"),
		LogLevel:        strings.ToLower(envStr("LOG_LEVEL", "info")),
		StoreDriver:     strings.ToLower(envStr("STORE_DRIVER", StoreMySQL)),
		DBUser:          envStr("DB_USER", "admin"),
		DBPass:          os.Getenv("DB_PASS"), // empty allowed
		DBHost:          envStr("DB_HOST", "localhost"),
		DBPort:          envStr("DB_PORT", "3306"),
		DBName:          envStr("DB_NAME", "course"),
		JWTSecret:       must("JWT_SECRET"),
		AccessTTLMin:    envInt("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:      envInt("BCRYPT_COST", 12),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),
		BodyLimit:       envStr("BODY_LIMIT", "1M"),
		Cache:           LoadCacheConfig(),
		RateLimit:       LoadRateLimitConfig(),
		Events:          LoadEventsConfig(),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}
