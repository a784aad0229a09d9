package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"itrack-report/internal/config"
	"itrack-report/internal/logging"

	"github.com/natefinch/atomic"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "itrack",
	Short: "itrack queries the iTrack REST API and builds issue reports",
	Long: `itrack runs JQL searches against an iTrack (Jira) server, normalizes every issue
into typed columns with business-day age and idle metrics, and exports the result as
CSV, JSON, a terminal table, a Markdown report or MCP tools.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(verbose); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("server", cfg.Jira.Server.String()).
			Str("schema", cfg.SchemaFile).
			Msg("itrack starting")
		return nil
	},
}

// Execute runs the command tree. An interrupt cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// writeOutput writes r to path atomically, or to stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, r io.Reader) error {
	if path == "" {
		_, err := io.Copy(cmd.OutOrStdout(), r)
		return err
	}
	if err := atomic.WriteFile(path, r); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("Output written")
	return nil
}
