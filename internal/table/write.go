package table

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"

	"itrack-report/internal/jira"
)

// KeyColumn is the header of the index column in every output format.
const KeyColumn = "key"

// FormatValue renders a cell for text output. nil renders empty; dates use
// the iTrack day layout.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(jira.DateLayout)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Records returns the rows as JSON-friendly maps, dates rendered as days.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.rows))
	for _, row := range t.rows {
		rec := make(map[string]any, len(t.columns)+1)
		rec[KeyColumn] = row.Key
		for _, col := range t.columns {
			v := row.Values[col]
			if d, ok := v.(time.Time); ok {
				v = d.Format(jira.DateLayout)
			}
			rec[col] = v
		}
		out = append(out, rec)
	}
	return out
}

// WriteCSV writes a header row followed by one line per row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{KeyColumn}, t.columns...)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range t.rows {
		if err := cw.Write(t.cells(row)); err != nil {
			return fmt.Errorf("write csv row %s: %w", row.Key, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the rows as an indented JSON array.
func (t *Table) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t.Records()); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// Render draws the table for a terminal. columns selects and orders the
// displayed columns (all when empty); styled enables borders and header color.
func (t *Table) Render(columns []string, styled bool) string {
	if len(columns) == 0 {
		columns = t.columns
	}

	rows := make([][]string, 0, len(t.rows))
	for _, row := range t.rows {
		cells := []string{row.Key}
		for _, col := range columns {
			cells = append(cells, FormatValue(row.Values[col]))
		}
		rows = append(rows, cells)
	}

	tbl := lgtable.New().
		Headers(append([]string{KeyColumn}, columns...)...).
		Rows(rows...)

	if !styled {
		return tbl.Border(lipgloss.ASCIIBorder()).String()
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return tbl.
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return header
			}
			return cell
		}).
		String()
}

func (t *Table) cells(row Row) []string {
	out := make([]string, 0, len(t.columns)+1)
	out = append(out, row.Key)
	for _, col := range t.columns {
		out = append(out, FormatValue(row.Values[col]))
	}
	return out
}
