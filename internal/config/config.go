package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	AutoMigrate bool

	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	DefaultRoleName string
	BcryptCost      int

	CORSOrigins  []string
	CookieDomain string

	// TrustProxyHeaders makes X-Forwarded-For and X-Real-IP decide the client IP.
	TrustProxyHeaders bool

	RedisURL         string
	IdentityCacheTTL time.Duration

	AuthRatePerMinute int
	AuthRateBurst     int

	S3Bucket            string
	S3Region            string
	S3Endpoint          string
	S3AccessKey         string
	S3SecretKey         string
	AvatarPublicBaseURL string
	AvatarURLTTL        time.Duration
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:                fallback(os.Getenv("PORT"), "8080"),
		Environment:         strings.ToLower(fallback(os.Getenv("APP_ENV"), EnvDevelopment)),
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AutoMigrate:         parseBool(os.Getenv("DB_AUTO_MIGRATE"), true),
		JWTSecret:           strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:           fallback(os.Getenv("JWT_ISSUER"), "nhadat-auth"),
		DefaultRoleName:     fallback(os.Getenv("DEFAULT_USER_ROLE"), "User"),
		CORSOrigins:         parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		CookieDomain:        strings.TrimSpace(os.Getenv("COOKIE_DOMAIN")),
		TrustProxyHeaders:   parseBool(os.Getenv("TRUST_PROXY_HEADERS"), false),
		RedisURL:            strings.TrimSpace(os.Getenv("REDIS_URL")),
		S3Bucket:            strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:            fallback(os.Getenv("S3_REGION"), "us-east-1"),
		S3Endpoint:          strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		S3AccessKey:         strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
		S3SecretKey:         strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),
		AvatarPublicBaseURL: strings.TrimSpace(os.Getenv("AVATAR_PUBLIC_BASE_URL")),
	}

	var err error
	if cfg.AccessTokenTTL, err = durationEnv("JWT_EXPIRES_IN", "15m"); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = durationEnv("REFRESH_TOKEN_EXPIRES_IN", "7d"); err != nil {
		return Config{}, err
	}
	if cfg.IdentityCacheTTL, err = durationEnv("IDENTITY_CACHE_TTL", "5m"); err != nil {
		return Config{}, err
	}
	if cfg.AvatarURLTTL, err = durationEnv("AVATAR_URL_TTL", "15m"); err != nil {
		return Config{}, err
	}

	cfg.BcryptCost = intEnv("BCRYPT_COST", 12)
	cfg.AuthRatePerMinute = intEnv("AUTH_RATE_LIMIT_PER_MINUTE", 20)
	cfg.AuthRateBurst = intEnv("AUTH_RATE_LIMIT_BURST", 10)

	if cfg.Environment != EnvDevelopment && cfg.Environment != EnvProduction {
		return Config{}, fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, cfg.Environment)
	}
	if cfg.DatabaseURL == "" && cfg.IsProduction() {
		return Config{}, errors.New("DATABASE_URL is required in production")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.IsProduction() && slices.Contains(cfg.CORSOrigins, "*") {
		return Config{}, errors.New("CORS_ALLOWED_ORIGINS must list explicit origins in production")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// IsProduction reports whether cookies and errors should use production settings.
func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func durationEnv(key, def string) (time.Duration, error) {
	raw := fallback(os.Getenv(key), def)
	d, err := ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseBool(value string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return b
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
