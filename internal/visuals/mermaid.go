package visuals

import (
	"fmt"
	"math"
	"strings"
	"time"

	"itrack-report/internal/stats"
)

// maxPoints is where Mermaid's xychart layout starts overlapping labels.
const maxPoints = 60

// RollingWindow is the business-day window of the moving-average charts.
const RollingWindow = 7

// AgingLimit caps the bars of the aging chart.
const AgingLimit = 20

// GeneratePie creates a Mermaid pie chart of labelled counts.
func GeneratePie(title string, counts []stats.Count) string {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	if total == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString(fmt.Sprintf("pie title %s\n", title))
	for _, c := range counts {
		sb.WriteString(fmt.Sprintf("    %s : %d\n", quote(c.Label), c.Count))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateCreatedResolvedChart plots cumulative created against cumulative resolved.
func GenerateCreatedResolvedChart(trend stats.Trend) string {
	created := toFloats(stats.Cumulative(trend.Created()))
	resolved := toFloats(stats.Cumulative(trend.Resolved()))
	return lineChart("Created vs. Resolved (cumulative)", "Tickets", trend.Dates(), created, resolved)
}

// GenerateUnresolvedChart plots the cumulative created minus resolved delta.
func GenerateUnresolvedChart(trend stats.Trend) string {
	return lineChart("Unresolved (cumulative)", "Tickets", trend.Dates(), toFloats(trend.Unresolved()))
}

// GenerateRollingChart plots the created and resolved moving averages.
func GenerateRollingChart(trend stats.Trend) string {
	created := stats.Rolling(trend.Created(), RollingWindow)
	resolved := stats.Rolling(trend.Resolved(), RollingWindow)
	return lineChart(fmt.Sprintf("Created vs. Resolved (%dMA)", RollingWindow), "Tickets", trend.Dates(), created, resolved)
}

// GenerateResponsivenessChart plots the share of issues investigated within
// 10 and resolved within 20 business days.
func GenerateResponsivenessChart(trend stats.Trend) string {
	frt, trt := trend.Responsiveness(RollingWindow)
	return lineChartRange(fmt.Sprintf("Responsiveness (%dMA)", RollingWindow), "Percentage", trend.Dates(), 100, frt, trt)
}

// GenerateAgingChart creates a bar chart of the oldest active issues.
func GenerateAgingChart(points []stats.AgePoint) string {
	if len(points) == 0 {
		return ""
	}
	points = points[:min(len(points), AgingLimit)]

	labels := make([]string, 0, len(points))
	values := make([]string, 0, len(points))
	maxVal := 0
	for _, p := range points {
		labels = append(labels, quote(p.Key))
		values = append(values, fmt.Sprintf("%d", p.Age))
		maxVal = max(maxVal, p.Age)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Age (top %d active)\"\n", len(points)))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Age (BD)\" 0 --> %d\n", headroom(float64(maxVal))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

func lineChart(title, yLabel string, dates []time.Time, series ...[]float64) string {
	maxVal := 0.0
	for _, s := range series {
		for _, v := range s {
			maxVal = math.Max(maxVal, v)
		}
	}
	return lineChartRange(title, yLabel, dates, headroom(maxVal), series...)
}

func lineChartRange(title, yLabel string, dates []time.Time, maxY int, series ...[]float64) string {
	if len(dates) == 0 {
		return ""
	}

	// Subsample wide series, always keeping the last point.
	rate := 1
	if len(dates) > maxPoints {
		rate = int(math.Ceil(float64(len(dates)) / maxPoints))
	}
	var keep []int
	for i := range dates {
		if i%rate == 0 || i == len(dates)-1 {
			keep = append(keep, i)
		}
	}

	labels := make([]string, 0, len(keep))
	for _, i := range keep {
		labels = append(labels, quote(dates[i].Format("Jan02")))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title %s\n", quote(title)))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis %s 0 --> %d\n", quote(yLabel), maxY))
	for _, s := range series {
		values := make([]string, 0, len(keep))
		for _, i := range keep {
			values = append(values, fmt.Sprintf("%.1f", s[i]))
		}
		sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(values, ", ")))
	}
	sb.WriteString("```")
	return sb.String()
}

// headroom returns an axis maximum 10% above v, at least 1.
func headroom(v float64) int {
	return max(1, int(math.Ceil(v*11/10)))
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "'") + `"`
}

func toFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
