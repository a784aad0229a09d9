package commands

import (
	"bytes"
	"fmt"
	"os"

	"itrack-report/internal/table"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Output formats of the search command.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatTable = "table"
)

var searchOpts struct {
	format  string
	out     string
	limit   int
	columns []string
}

var searchCmd = &cobra.Command{
	Use:   "search <jql>",
	Short: "Run a JQL search and export the normalized issues",
	Example: `  itrack search 'filter=27347' --format table --columns status,age,idle
  itrack search 'project = IT AND status = Open' --out open.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		switch searchOpts.format {
		case FormatCSV, FormatJSON, FormatTable:
		default:
			return fmt.Errorf("unknown format %q (want csv, json or table)", searchOpts.format)
		}

		jql := args[0]
		res := cfg.NewClient().Search(cmd.Context(), jql)
		t := table.Assemble(res.First(searchOpts.limit), cfg.Schema.TableOptions())
		if err := res.Err(); err != nil {
			return fmt.Errorf("search stopped after %d issues: %w", res.Retrieved(), err)
		}

		log.Info().Str("jql", jql).Int("issues", t.Len()).Int("total", res.Total()).Int("pages", res.Pages()).Msg("Search finished")

		var buf bytes.Buffer
		switch searchOpts.format {
		case FormatCSV:
			if err := t.WriteCSV(&buf); err != nil {
				return err
			}
		case FormatJSON:
			if err := t.WriteJSON(&buf); err != nil {
				return err
			}
		case FormatTable:
			styled := searchOpts.out == "" && isatty.IsTerminal(os.Stdout.Fd())
			buf.WriteString(t.Render(searchOpts.columns, styled))
			buf.WriteString("\n")
		}

		return writeOutput(cmd, searchOpts.out, &buf)
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchOpts.format, "format", "f", FormatCSV, "output format: csv, json or table")
	searchCmd.Flags().StringVarP(&searchOpts.out, "out", "o", "", "output file (default stdout)")
	searchCmd.Flags().IntVarP(&searchOpts.limit, "limit", "n", 0, "maximum number of issues, 0 for all")
	searchCmd.Flags().StringSliceVar(&searchOpts.columns, "columns", nil, "columns shown by the table format (default all)")
	rootCmd.AddCommand(searchCmd)
}
