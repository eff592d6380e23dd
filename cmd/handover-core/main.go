package main

// @title           Handover Core API
// @version         1.0
// @description     Aggregates document and email search results into confidence tiers and pre-fills engineering handover forms.

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

// rootOptions are the flags shared by every command
type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "handover-core",
		Short: "Search aggregation and handover service",
		Long: "handover-core merges document and email search results into confidence tiers\n" +
			"and keeps one engineering handover per user, solution and yacht.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: handover.yaml in ., ./config or /etc/handover-core)")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newAggregateCmd(opts),
		newTokenCmd(opts),
	)
	return cmd
}
