package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MarkoPoloResearchLab/pixelcredits/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagListenAddr          = "listen-addr"
	flagGRPCListenAddr      = "grpc-listen-addr"
	flagDatabaseURL         = "database-url"
	flagStoreDriver         = "store-driver"
	flagAllowedOrigins      = "allowed-origins"
	flagSessionSigningKey   = "session-signing-key"
	flagSessionIssuer       = "session-issuer"
	flagSessionTTL          = "session-ttl"
	flagAdminEmail          = "admin-email"
	flagInitialCredits      = "initial-credits"
	flagAdminInitialCredits = "admin-initial-credits"
	flagCreditsPerImage     = "credits-per-image"
	flagGatewayAPIKey       = "gateway-api-key"
	flagGatewayBaseURL      = "gateway-base-url"
	flagGenerateModel       = "generate-model"
	flagEditModel           = "edit-model"
	flagGatewayTimeout      = "gateway-timeout"
	flagDailyGrantSchedule  = "daily-grant-schedule"
	flagSeedDefaults        = "seed-defaults"
	flagLogDevelopment      = "log-dev"
	envPrefix               = "PIXELCREDITS"
)

var boundFlags = []string{
	flagListenAddr, flagGRPCListenAddr, flagDatabaseURL, flagStoreDriver, flagAllowedOrigins,
	flagSessionSigningKey, flagSessionIssuer, flagSessionTTL, flagAdminEmail, flagInitialCredits,
	flagAdminInitialCredits, flagCreditsPerImage, flagGatewayAPIKey, flagGatewayBaseURL,
	flagGenerateModel, flagEditModel, flagGatewayTimeout, flagDailyGrantSchedule,
	flagSeedDefaults, flagLogDevelopment,
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "creditd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := config.Defaults()
	cmd := &cobra.Command{
		Use:           "creditd",
		Short:         "Pay-per-use image generation credit server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, &cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	defaults := config.Defaults()
	flags := cmd.Flags()
	flags.String(flagListenAddr, defaults.ListenAddr, "HTTP listen address")
	flags.String(flagGRPCListenAddr, defaults.GRPCListenAddr, "gRPC admin listen address")
	flags.String(flagDatabaseURL, defaults.DatabaseURL, "postgres:// or sqlite:// connection string")
	flags.String(flagStoreDriver, defaults.StoreDriver, "store implementation: gorm or pgx (pgx needs postgres)")
	flags.String(flagAllowedOrigins, "", "comma-separated list of allowed CORS origins")
	flags.String(flagSessionSigningKey, "", "HS256 session signing key (required)")
	flags.String(flagSessionIssuer, defaults.SessionIssuer, "session token issuer")
	flags.Duration(flagSessionTTL, defaults.SessionTTL, "session lifetime")
	flags.String(flagAdminEmail, "", "email that registers as the administrator")
	flags.Int64(flagInitialCredits, defaults.InitialCredits, "credits granted on registration")
	flags.Int64(flagAdminInitialCredits, defaults.AdminInitialCredits, "credits granted to the administrator on registration")
	flags.Int64(flagCreditsPerImage, defaults.CreditsPerImage, "credits charged per generated or edited image")
	flags.String(flagGatewayAPIKey, "", "image generation API key (empty disables generation)")
	flags.String(flagGatewayBaseURL, "", "image generation API base URL")
	flags.String(flagGenerateModel, "", "text-to-image model")
	flags.String(flagEditModel, "", "image edit model")
	flags.Duration(flagGatewayTimeout, defaults.GatewayTimeout, "upper bound for one billed generation")
	flags.String(flagDailyGrantSchedule, defaults.DailyGrantSchedule, "cron schedule (UTC) for the daily grant sweep (empty disables it)")
	flags.Bool(flagSeedDefaults, defaults.SeedDefaults, "install default plans and payment methods into an empty catalog")
	flags.Bool(flagLogDevelopment, false, "human-readable development logging")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *config.Config) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, flagName := range boundFlags {
		if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}
	if err := v.BindEnv(flagDatabaseURL, envPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return err
	}

	cfg.ListenAddr = strings.TrimSpace(v.GetString(flagListenAddr))
	cfg.GRPCListenAddr = strings.TrimSpace(v.GetString(flagGRPCListenAddr))
	cfg.DatabaseURL = strings.TrimSpace(v.GetString(flagDatabaseURL))
	cfg.StoreDriver = strings.TrimSpace(v.GetString(flagStoreDriver))
	cfg.AllowedOrigins = config.ParseAllowedOrigins(v.GetString(flagAllowedOrigins))
	cfg.SessionSigningKey = v.GetString(flagSessionSigningKey)
	cfg.SessionIssuer = strings.TrimSpace(v.GetString(flagSessionIssuer))
	cfg.SessionTTL = v.GetDuration(flagSessionTTL)
	cfg.AdminEmail = strings.TrimSpace(v.GetString(flagAdminEmail))
	cfg.InitialCredits = v.GetInt64(flagInitialCredits)
	cfg.AdminInitialCredits = v.GetInt64(flagAdminInitialCredits)
	cfg.CreditsPerImage = v.GetInt64(flagCreditsPerImage)
	cfg.GatewayAPIKey = strings.TrimSpace(v.GetString(flagGatewayAPIKey))
	cfg.GatewayBaseURL = strings.TrimSpace(v.GetString(flagGatewayBaseURL))
	cfg.GenerateModel = strings.TrimSpace(v.GetString(flagGenerateModel))
	cfg.EditModel = strings.TrimSpace(v.GetString(flagEditModel))
	cfg.GatewayTimeout = v.GetDuration(flagGatewayTimeout)
	cfg.DailyGrantSchedule = strings.TrimSpace(v.GetString(flagDailyGrantSchedule))
	cfg.SeedDefaults = v.GetBool(flagSeedDefaults)
	cfg.LogDevelopment = v.GetBool(flagLogDevelopment)

	return cfg.Validate()
}
