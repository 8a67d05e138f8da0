package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        string
}

type MapsConfig struct {
	GoogleAPIKey  string
	GeocodeURL    string
	GeocodeTTL    time.Duration
	DefaultCenter [2]float64
}

type AdminConfig struct {
	// Password is the shared secret for device-mode admin; empty means unset.
	Password string
}

// LikeMode selects the like ledger strategy.
type LikeMode string

const (
	LikeModeAccount LikeMode = "account"
	LikeModeDevice  LikeMode = "device"
)

type LikesConfig struct {
	Mode            LikeMode
	DispatchWorkers int
	DispatchTimeout time.Duration
}

type SessionConfig struct {
	CookieSecret string
	InitTimeout  time.Duration
	SecureCookie bool
}

type DirectoryConfig struct {
	SnapshotTTL time.Duration
	BaseURL     string
}

type Config struct {
	Repositories RepositoriesConfig
	JWT          JWTConfig
	Maps         MapsConfig
	Admin        AdminConfig
	Likes        LikesConfig
	Session      SessionConfig
	Directory    DirectoryConfig
	ServerPort   string
	MetricsAddr  string
	PprofAddr    string
	OTLPEndpoint string
	LogLevel     string
	LogEncoding  string
	CORSOrigins  []string
}

const defaultJWTSecret = "default-secret-key-change-in-production-min-32-chars"

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5454"),
				DB:       getEnvOrDefault("POSTGRES_DB", "tekuteku"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: int32(getIntOrDefault("POSTGRES_MAX_CONNS", 30)),
				MinConns: int32(getIntOrDefault("POSTGRES_MIN_CONNS", 5)),
			},
			Redis: RedisConfig{
				Host:     getEnvOrDefault("REDIS_HOST", ""),
				Port:     getEnvOrDefault("REDIS_PORT", "6379"),
				Password: getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:       getIntOrDefault("REDIS_DB", 0),
			},
		},
		JWT: JWTConfig{
			SecretKey:       getEnvOrDefault("JWT_SECRET_KEY", defaultJWTSecret),
			AccessTokenTTL:  getDurationOrDefault("JWT_ACCESS_TTL", 15*time.Minute),
			RefreshTokenTTL: getDurationOrDefault("JWT_REFRESH_TTL", 7*24*time.Hour),
			Issuer:          getEnvOrDefault("JWT_ISSUER", "tekuteku"),
			Audience:        getEnvOrDefault("JWT_AUDIENCE", "tekuteku-web"),
		},
		Maps: MapsConfig{
			GoogleAPIKey:  getEnvOrDefault("GOOGLE_MAPS_API_KEY", ""),
			GeocodeURL:    getEnvOrDefault("GOOGLE_GEOCODE_URL", "https://maps.googleapis.com/maps/api/geocode/json"),
			GeocodeTTL:    getDurationOrDefault("GEOCODE_CACHE_TTL", 30*24*time.Hour),
			DefaultCenter: [2]float64{38.2554, 140.3396},
		},
		Admin: AdminConfig{
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		Likes: LikesConfig{
			Mode:            LikeMode(getEnvOrDefault("LIKE_MODE", string(LikeModeAccount))),
			DispatchWorkers: getIntOrDefault("LIKE_DISPATCH_WORKERS", 8),
			DispatchTimeout: getDurationOrDefault("LIKE_DISPATCH_TIMEOUT", 5*time.Second),
		},
		Session: SessionConfig{
			CookieSecret: getEnvOrDefault("SESSION_SECRET", "tekuteku-session-secret"),
			InitTimeout:  getDurationOrDefault("SESSION_INIT_TIMEOUT", 5*time.Second),
			SecureCookie: getEnvOrDefault("SESSION_SECURE_COOKIE", "false") == "true",
		},
		Directory: DirectoryConfig{
			SnapshotTTL: getDurationOrDefault("DIRECTORY_SNAPSHOT_TTL", 30*time.Second),
			BaseURL:     getEnvOrDefault("PUBLIC_BASE_URL", "https://yamagata-tekuteku-map.jp"),
		},
		ServerPort:   getEnvOrDefault("SERVER_PORT", "8091"),
		MetricsAddr:  getEnvOrDefault("METRICS_ADDR", ":9092"),
		PprofAddr:    getEnvOrDefault("PPROF_ADDR", ":6060"),
		OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4318"),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		LogEncoding:  getEnvOrDefault("LOG_ENCODING", "console"),
		CORSOrigins:  getListOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8091"}),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}

	switch cfg.Likes.Mode {
	case LikeModeAccount, LikeModeDevice:
	default:
		return nil, fmt.Errorf("LIKE_MODE must be %q or %q, got %q", LikeModeAccount, LikeModeDevice, cfg.Likes.Mode)
	}

	return cfg, nil
}

// UsesDefaultJWTSecret reports whether JWT_SECRET_KEY was left unset.
func (c *Config) UsesDefaultJWTSecret() bool {
	return c.JWT.SecretKey == defaultJWTSecret
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
