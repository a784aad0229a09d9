package visuals

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"itrack-report/internal/jira"
	"itrack-report/internal/stats"
)

// RenderReport assembles the Markdown report: headline figures, the trend
// charts over the history window and the breakdown of the active issues.
func RenderReport(title string, r *stats.Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "_%s to %s_\n\n",
		r.Totals.Since.Format(jira.DateLayout), r.Totals.Until.Format(jira.DateLayout))

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- Trend: %d created and %d resolved\n", r.Totals.Created, r.Totals.Resolved)
	fmt.Fprintf(&sb, "- Active: %d total and %d %s/%s\n",
		r.Summary.Total, r.Summary.HighSeverity, stats.HighPriority, stats.HighSeverity)
	fmt.Fprintf(&sb, "- Median age %.1f BD, median idle %.1f BD\n\n", r.Summary.MedianAge, r.Summary.MedianIdle)

	sb.WriteString("## Trend\n\n")
	section(&sb,
		GenerateCreatedResolvedChart(r.Trend),
		GenerateUnresolvedChart(r.Trend),
		GenerateRollingChart(r.Trend),
		GenerateResponsivenessChart(r.Trend),
	)

	sb.WriteString("## Active\n\n")
	section(&sb,
		GeneratePie("Status (active)", r.Summary.Status),
		GeneratePie("PQM (active)", r.Summary.PQM),
		PrioritySeverityTable(r.Summary.PrioritySeverity),
		GenerateAgingChart(r.Summary.Oldest(AgingLimit)),
	)

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// PrioritySeverityTable renders the priority x severity counts as a Markdown table.
func PrioritySeverityTable(matrix map[string]map[string]int) string {
	if len(matrix) == 0 {
		return ""
	}

	sevSet := make(map[string]bool)
	for _, row := range matrix {
		for sev := range row {
			sevSet[sev] = true
		}
	}
	severities := slices.Sorted(maps.Keys(sevSet))

	var sb strings.Builder
	sb.WriteString("| priority | " + strings.Join(severities, " | ") + " |\n")
	sb.WriteString("|---" + strings.Repeat("|---:", len(severities)) + "|\n")
	for _, priority := range slices.Sorted(maps.Keys(matrix)) {
		cells := make([]string, len(severities))
		for i, sev := range severities {
			cells[i] = fmt.Sprintf("%d", matrix[priority][sev])
		}
		sb.WriteString("| " + priority + " | " + strings.Join(cells, " | ") + " |\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func section(sb *strings.Builder, blocks ...string) {
	for _, b := range blocks {
		if b == "" {
			continue
		}
		sb.WriteString(b)
		sb.WriteString("\n\n")
	}
}
