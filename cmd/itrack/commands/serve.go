package commands

import (
	"itrack-report/internal/mcp"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search_issues and summarize_issues MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		server := mcp.NewServer(cfg.NewClient(), mcp.Options{
			Table:   cfg.Schema.TableOptions(),
			Columns: cfg.Schema.StatsColumns(),
			PQMs:    cfg.Schema.PQMs,
		}, Version)
		return server.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
