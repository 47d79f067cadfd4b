// Package config holds the runtime settings shared by the creditd entry point.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Store drivers.
const (
	StoreDriverGorm = "gorm"
	StoreDriverPGX  = "pgx"
)

const (
	defaultListenAddr          = ":8080"
	defaultGRPCListenAddr      = ":7000"
	defaultDatabaseURL         = "sqlite:///tmp/pixelcredits.db"
	defaultSessionIssuer       = "pixelcredits"
	defaultSessionTTL          = 24 * time.Hour
	defaultGatewayTimeout      = 60 * time.Second
	defaultDailyGrantSchedule  = "5 0 * * *"
	defaultInitialCredits      = 10
	defaultAdminInitialCredits = 9999
	defaultCreditsPerImage     = 1
)

// Config aggregates runtime settings for creditd.
type Config struct {
	ListenAddr          string
	GRPCListenAddr      string
	DatabaseURL         string
	StoreDriver         string
	AllowedOrigins      []string
	SessionSigningKey   string
	SessionIssuer       string
	SessionTTL          time.Duration
	AdminEmail          string
	InitialCredits      int64
	AdminInitialCredits int64
	CreditsPerImage     int64
	GatewayAPIKey       string
	GatewayBaseURL      string
	GenerateModel       string
	EditModel           string
	GatewayTimeout      time.Duration
	DailyGrantSchedule  string // empty disables the sweep
	SeedDefaults        bool
	LogDevelopment      bool
}

// Defaults returns a Config with every optional setting filled in.
func Defaults() Config {
	return Config{
		ListenAddr:          defaultListenAddr,
		GRPCListenAddr:      defaultGRPCListenAddr,
		DatabaseURL:         defaultDatabaseURL,
		StoreDriver:         StoreDriverGorm,
		SessionIssuer:       defaultSessionIssuer,
		SessionTTL:          defaultSessionTTL,
		InitialCredits:      defaultInitialCredits,
		AdminInitialCredits: defaultAdminInitialCredits,
		CreditsPerImage:     defaultCreditsPerImage,
		GatewayTimeout:      defaultGatewayTimeout,
		DailyGrantSchedule:  defaultDailyGrantSchedule,
		SeedDefaults:        true,
	}
}

// Validate fills blanks with defaults and ensures the configuration contains sane values.
func (cfg *Config) Validate() error {
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	cfg.GRPCListenAddr = defaultIfEmpty(cfg.GRPCListenAddr, defaultGRPCListenAddr)
	cfg.DatabaseURL = defaultIfEmpty(cfg.DatabaseURL, defaultDatabaseURL)
	cfg.StoreDriver = strings.ToLower(defaultIfEmpty(cfg.StoreDriver, StoreDriverGorm))
	cfg.SessionIssuer = defaultIfEmpty(cfg.SessionIssuer, defaultSessionIssuer)
	cfg.DailyGrantSchedule = strings.TrimSpace(cfg.DailyGrantSchedule)
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = defaultGatewayTimeout
	}
	if len(cfg.SessionSigningKey) == 0 {
		return fmt.Errorf("session signing key is required")
	}
	switch cfg.StoreDriver {
	case StoreDriverGorm:
	case StoreDriverPGX:
		if !IsPostgresURL(cfg.DatabaseURL) {
			return fmt.Errorf("store driver %q requires a postgres database url", StoreDriverPGX)
		}
	default:
		return fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
	if cfg.InitialCredits < 0 {
		return fmt.Errorf("initial credits must be non-negative")
	}
	if cfg.AdminInitialCredits < 0 {
		return fmt.Errorf("admin initial credits must be non-negative")
	}
	if cfg.CreditsPerImage <= 0 {
		return fmt.Errorf("credits per image must be positive")
	}
	if cfg.DailyGrantSchedule != "" {
		if _, err := cron.ParseStandard(cfg.DailyGrantSchedule); err != nil {
			return fmt.Errorf("daily grant schedule %q: %w", cfg.DailyGrantSchedule, err)
		}
	}
	return nil
}

// GenerationEnabled reports whether an image gateway key is configured.
func (cfg Config) GenerationEnabled() bool {
	return strings.TrimSpace(cfg.GatewayAPIKey) != ""
}

// IsPostgresURL reports whether dsn names a PostgreSQL database.
func IsPostgresURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

// ParseAllowedOrigins splits comma-delimited origins into a slice.
func ParseAllowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}
