package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestValidateAppliesDefaults(test *testing.T) {
	test.Parallel()
	cfg := Config{SessionSigningKey: "secret"}
	if err := cfg.Validate(); err != nil {
		test.Fatalf("Validate: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.GRPCListenAddr != ":7000" {
		test.Fatalf("unexpected listen addresses %q %q", cfg.ListenAddr, cfg.GRPCListenAddr)
	}
	if cfg.StoreDriver != StoreDriverGorm || cfg.SessionIssuer != "pixelcredits" {
		test.Fatalf("unexpected driver or issuer %q %q", cfg.StoreDriver, cfg.SessionIssuer)
	}
	if cfg.SessionTTL != 24*time.Hour || cfg.GatewayTimeout != time.Minute {
		test.Fatalf("unexpected durations %v %v", cfg.SessionTTL, cfg.GatewayTimeout)
	}
	if cfg.GenerationEnabled() {
		test.Fatalf("generation should be disabled without an api key")
	}
	if cfg.DailyGrantSchedule != "" {
		test.Fatalf("a zero Config should leave the sweep disabled, got %q", cfg.DailyGrantSchedule)
	}
	defaults := Defaults()
	defaults.SessionSigningKey = "secret"
	if err := defaults.Validate(); err != nil || defaults.DailyGrantSchedule != "5 0 * * *" {
		test.Fatalf("defaults: schedule %q, err %v", defaults.DailyGrantSchedule, err)
	}
}

func TestValidateRejectsBadSettings(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{name: "missing signing key", mutate: func(cfg *Config) { cfg.SessionSigningKey = "" }, message: "signing key"},
		{name: "unknown driver", mutate: func(cfg *Config) { cfg.StoreDriver = "bolt" }, message: "unsupported store driver"},
		{name: "pgx with sqlite", mutate: func(cfg *Config) { cfg.StoreDriver = StoreDriverPGX }, message: "requires a postgres"},
		{name: "negative signup", mutate: func(cfg *Config) { cfg.InitialCredits = -1 }, message: "initial credits"},
		{name: "zero image price", mutate: func(cfg *Config) { cfg.CreditsPerImage = 0 }, message: "credits per image"},
		{name: "bad schedule", mutate: func(cfg *Config) { cfg.DailyGrantSchedule = "every day" }, message: "daily grant schedule"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			cfg := Defaults()
			cfg.SessionSigningKey = "secret"
			testCase.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), testCase.message) {
				test.Fatalf("expected error containing %q, got %v", testCase.message, err)
			}
		})
	}
}

func TestValidateAcceptsPGXWithPostgres(test *testing.T) {
	test.Parallel()
	cfg := Defaults()
	cfg.SessionSigningKey = "secret"
	cfg.StoreDriver = "PGX"
	cfg.DatabaseURL = "postgres://credits@localhost/credits"
	if err := cfg.Validate(); err != nil {
		test.Fatalf("Validate: %v", err)
	}
	if cfg.StoreDriver != StoreDriverPGX {
		test.Fatalf("driver not normalized: %q", cfg.StoreDriver)
	}
}

func TestParseAllowedOrigins(test *testing.T) {
	test.Parallel()
	got := ParseAllowedOrigins(" http://a.test, ,http://b.test ")
	want := []string{"http://a.test", "http://b.test"}
	if !reflect.DeepEqual(got, want) {
		test.Fatalf("got %v, want %v", got, want)
	}
	if len(ParseAllowedOrigins("  ")) != 0 {
		test.Fatalf("expected empty origins")
	}
}
