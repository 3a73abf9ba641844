// Package cmd provides the CLI commands of tax2go-search.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaond/tax2go-search/internal/config"
	"github.com/shaond/tax2go-search/internal/version"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	env        string
	configPath string
}

// load reads the configuration selected by the flags. An explicit path wins over the env name.
func (o *rootOptions) load() (config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}
	return config.Load(o.env)
}

// NewRootCmd creates the root command. Without a subcommand it runs the HTTP server.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "tax2go-search",
		Short: "Multi-tenant full-text search service",
		Long: `tax2go-search keeps one full-text index per user on local disk
and serves indexing, BM25-ranked search and browsing over HTTP.`,
		Version:       version.Version,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.SetVersionTemplate("tax2go-search version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "Environment name selecting config/<env>.yaml")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a config file (overrides --env)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command until it finishes or SIGINT/SIGTERM arrives.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
