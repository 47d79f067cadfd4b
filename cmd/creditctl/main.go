package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	creditv1 "github.com/MarkoPoloResearchLab/pixelcredits/api/credit/v1"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	flagAddr    = "addr"
	flagTimeout = "timeout"
	envPrefix   = "PIXELCREDITS"

	defaultAddr    = "localhost:7000"
	defaultTimeout = 5 * time.Second
)

// clientFactory opens a CreditAdmin client and returns a function that releases it.
type clientFactory func(addr string) (creditv1.CreditAdminClient, func() error, error)

func main() {
	cmd := newRootCommand(dialCreditAdmin)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "creditctl: %v\n", err)
		os.Exit(1)
	}
}

func dialCreditAdmin(addr string) (creditv1.CreditAdminClient, func() error, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	return creditv1.NewCreditAdminClient(conn), conn.Close, nil
}

type cli struct {
	settings *viper.Viper
	factory  clientFactory
}

func newRootCommand(factory clientFactory) *cobra.Command {
	settings := viper.New()
	settings.SetEnvPrefix(envPrefix)
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
	app := &cli{settings: settings, factory: factory}

	root := &cobra.Command{
		Use:           "creditctl",
		Short:         "Administer a creditd server over gRPC",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Root().PersistentFlags()
			if err := settings.BindPFlag(flagAddr, flags.Lookup(flagAddr)); err != nil {
				return err
			}
			return settings.BindPFlag(flagTimeout, flags.Lookup(flagTimeout))
		},
	}
	root.PersistentFlags().String(flagAddr, defaultAddr, "creditd gRPC address")
	root.PersistentFlags().Duration(flagTimeout, defaultTimeout, "per-call timeout")

	root.AddCommand(app.accountCommand(), app.requestCommand(), app.planCommand())
	return root
}

// call dials, runs fn with a bounded context and prints its response as JSON.
func (app *cli) call(cmd *cobra.Command, fn func(ctx context.Context, client creditv1.CreditAdminClient) (any, error)) error {
	client, release, err := app.factory(strings.TrimSpace(app.settings.GetString(flagAddr)))
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = release() }()

	timeout := app.settings.GetDuration(flagTimeout)
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	response, err := fn(ctx, client)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), response)
}

func printJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
