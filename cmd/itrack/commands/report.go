package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"itrack-report/internal/jira"
	"itrack-report/internal/stats"
	"itrack-report/internal/table"
	"itrack-report/internal/visuals"

	"github.com/spf13/cobra"
)

var reportOpts struct {
	histFilter   string
	activeFilter string
	since        string
	title        string
	out          string
	dataDir      string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the Markdown trend and backlog report of two saved filters",
	Long: `report loads the history filter (issues created or closed since --since) and the
active filter concurrently, adds PQM metadata and the FRT_10/TRT_20 responsiveness
measures, and renders a Markdown report with Mermaid charts.`,
	Example: `  itrack report --hist-filter 26769 --active-filter 27347 --out report.md --data-dir ./data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		today := time.Now()
		var since time.Time
		if reportOpts.since != "" {
			var err error
			since, err = time.Parse(jira.DateLayout, reportOpts.since)
			if err != nil {
				return fmt.Errorf("--since must be YYYY-MM-DD: %w", err)
			}
		}

		report, err := stats.LoadReport(cmd.Context(), cfg.NewClient(), stats.ReportRequest{
			HistFilter:   reportOpts.histFilter,
			ActiveFilter: reportOpts.activeFilter,
			Since:        since,
			Today:        today,
			Options:      cfg.Schema.TableOptions(),
			Columns:      cfg.Schema.StatsColumns(),
			PQMs:         cfg.Schema.PQMs,
		})
		if err != nil {
			return err
		}

		if reportOpts.dataDir != "" {
			if err := writeTables(cmd, reportOpts.dataDir, map[string]*table.Table{
				"hist":   report.Hist,
				"active": report.Active,
			}); err != nil {
				return err
			}
		}

		md := visuals.RenderReport(reportOpts.title, report)
		return writeOutput(cmd, reportOpts.out, strings.NewReader(md))
	},
}

func writeTables(cmd *cobra.Command, dir string, tables map[string]*table.Table) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	for name, t := range tables {
		var buf bytes.Buffer
		if err := t.WriteCSV(&buf); err != nil {
			return fmt.Errorf("%s table: %w", name, err)
		}
		if err := writeOutput(cmd, filepath.Join(dir, name+".csv"), &buf); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	reportCmd.Flags().StringVar(&reportOpts.histFilter, "hist-filter", "", "saved filter id of the history view (required)")
	reportCmd.Flags().StringVar(&reportOpts.activeFilter, "active-filter", "", "saved filter id of the active view (required)")
	reportCmd.Flags().StringVar(&reportOpts.since, "since", "", "start of the history window, YYYY-MM-DD (default 356 days ago)")
	reportCmd.Flags().StringVar(&reportOpts.title, "title", "iTrack report", "report title")
	reportCmd.Flags().StringVarP(&reportOpts.out, "out", "o", "", "report file (default stdout)")
	reportCmd.Flags().StringVar(&reportOpts.dataDir, "data-dir", "", "also write hist.csv and active.csv to this directory")
	_ = reportCmd.MarkFlagRequired("hist-filter")
	_ = reportCmd.MarkFlagRequired("active-filter")
	rootCmd.AddCommand(reportCmd)
}
