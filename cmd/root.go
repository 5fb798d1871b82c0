package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/autoagenda/internal/config"
	"github.com/teemow/autoagenda/internal/logging"
	"github.com/teemow/autoagenda/internal/server"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI and the MCP server
func SetVersion(v string) {
	version = v
}

// newRootCmd builds the command tree. base is passed to every server
// context the commands create, so tests can inject a calendar.
func newRootCmd(base server.Options) *cobra.Command {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "autoagenda",
		Short: "Books workshop appointments on a shared Google Calendar",
		Long: `autoagenda finds free appointment slots inside the business hours of a
car workshop and books them on a shared Google Calendar, keeping a log of
every booking with the customer and vehicle details.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (serve)
  - A command-line tool (slots, book, history)

Configuration is read from the environment and can be overridden with
the flags below.`,
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate(`{{printf "autoagenda version %s\n" .Version}}`)

	cfg.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newServeCmd(cfg, base))
	rootCmd.AddCommand(newSlotsCmd(cfg, base))
	rootCmd.AddCommand(newBookCmd(cfg, base))
	rootCmd.AddCommand(newHistoryCmd(cfg, base))
	rootCmd.AddCommand(newGenerateDocsCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute is the main entry point for the CLI application
func Execute() {
	if err := newRootCmd(server.Options{}).Execute(); err != nil {
		os.Exit(1)
	}
}

// openServerContext builds the scheduling components for a one-shot
// command. Logs go to stderr so stdout only carries the result.
func openServerContext(ctx context.Context, cfg *config.Config, base server.Options) (*server.ServerContext, error) {
	opts := base
	opts.Config = cfg
	if opts.Logger == nil {
		opts.Logger = logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	}
	return server.NewServerContext(ctx, opts)
}
