// Package config loads process configuration from the environment, with
// sensible defaults for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// HoldersMode selects how aggressively the indexed-holder GraphQL provider
// probes for a populated day (spec §4.1 item 5).
type HoldersMode string

const (
	HoldersModeFast HoldersMode = "fast"
	HoldersModeFull HoldersMode = "full"
	HoldersModeOff  HoldersMode = "off"
)

// DBConfig holds Postgres connection pool configuration.
type DBConfig struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// OTelConfig holds OpenTelemetry exporter configuration.
type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

// Enabled reports whether an OTLP endpoint has been configured.
func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

// Config holds all process configuration, shared by cmd/server and cmd/worker.
type Config struct {
	Env  string
	Port string
	DB   DBConfig
	OTel OTelConfig

	ChainRPCURL string

	// Conditional features. Empty/zero means "not configured", and the
	// pipeline plan merge and tool registry must treat the tool as unavailable.
	LLMAPIKey        string
	LLMBaseURL       string
	LLMModel         string
	LLMFallbackModel string

	ExplorerAPIKey  string
	ExplorerBaseURL string

	HoneypotAPIKey  string
	HoneypotBaseURL string

	HoldersToken    string
	HoldersBaseURL  string
	HoldersMode     HoldersMode
	HoldersArchiveN int
	HoldersMinRows  int

	DexBaseURL string

	ScanCacheTTL time.Duration

	TraceHeaderName string
}

// Load reads configuration from the environment, first loading a local .env
// file if present (silently ignored in deployed environments where one
// doesn't exist — real environment variables always take precedence).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:  getEnv("SCANGUARD_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		DB: DBConfig{
			DSN:      buildDSN(),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "scanguard"),
			ServiceVersion: getEnv("SCANGUARD_VERSION", "dev"),
		},

		ChainRPCURL: getEnv("CHAIN_RPC_URL", ""),

		LLMAPIKey:        getEnv("LLM_API_KEY", ""),
		LLMBaseURL:       getEnv("LLM_BASE_URL", ""),
		LLMModel:         getEnv("LLM_MODEL", "llama-3.3-70b"),
		LLMFallbackModel: getEnv("LLM_FALLBACK_MODEL", "llama-3.1-8b"),

		ExplorerAPIKey:  getEnv("EXPLORER_API_KEY", ""),
		ExplorerBaseURL: getEnv("EXPLORER_BASE_URL", "https://api.basescan.org/v2/api"),

		HoneypotAPIKey:  getEnv("HONEYPOT_API_KEY", ""),
		HoneypotBaseURL: getEnv("HONEYPOT_BASE_URL", "https://api.honeypot.is/v2"),

		HoldersToken:    getEnv("HOLDERS_TOKEN", ""),
		HoldersBaseURL:  getEnv("HOLDERS_BASE_URL", "https://streaming.bitquery.io/graphql"),
		HoldersMode:     HoldersMode(getEnv("HOLDERS_MODE", string(HoldersModeFast))),
		HoldersArchiveN: getEnvInt("HOLDERS_ARCHIVE_PROBE_CAP", 30),
		HoldersMinRows:  getEnvInt("HOLDERS_MIN_ROWS", 3),

		DexBaseURL: getEnv("DEX_BASE_URL", "https://api.dexscreener.com"),

		ScanCacheTTL: time.Duration(getEnvInt("SCAN_CACHE_TTL_SECONDS", 900)) * time.Second,

		TraceHeaderName: getEnv("TRACE_HEADER_NAME", "X-Trace-ID"),
	}

	if cfg.DB.DSN == "" {
		return Config{}, fmt.Errorf("database connection string is required (DATABASE_URL or DATABASE_HOST/...)")
	}
	if cfg.ChainRPCURL == "" {
		return Config{}, fmt.Errorf("CHAIN_RPC_URL is required")
	}

	return cfg, nil
}

func buildDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	host, ok := os.LookupEnv("DATABASE_HOST")
	if !ok {
		return ""
	}
	port := getEnv("DATABASE_PORT", "5432")
	user := getEnv("DATABASE_USER", "postgres")
	password := getEnv("DATABASE_PASSWORD", "postgres")
	name := getEnv("DATABASE_NAME", "scanguard")
	sslMode := getEnv("DATABASE_SSLMODE", "disable")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, name, sslMode,
	)
}

// IsProduction returns true if running in production environment.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// IsDevelopment returns true if running in development environment.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ExplorerConfigured reports whether a block-explorer API key is present.
func (c Config) ExplorerConfigured() bool {
	return c.ExplorerAPIKey != ""
}

// HoneypotConfigured reports whether a honeypot simulator API key is present.
func (c Config) HoneypotConfigured() bool {
	return c.HoneypotAPIKey != ""
}

// HoldersConfigured reports whether the indexed-holder provider is usable.
func (c Config) HoldersConfigured() bool {
	return c.HoldersToken != "" && c.HoldersMode != HoldersModeOff
}

// LLMConfigured reports whether the planner/assessor bridge has credentials.
func (c Config) LLMConfigured() bool {
	return c.LLMAPIKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
