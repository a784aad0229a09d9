package stats

import (
	"cmp"
	"slices"

	"itrack-report/internal/table"
)

// High-severity markers.
const (
	HighSeverity = "S1"
	HighPriority = "P1"
)

// NoneLabel stands for an empty value in counts.
const NoneLabel = "(none)"

// Count is one labelled frequency.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AgePoint places one active issue on the age/idle plane.
type AgePoint struct {
	Key    string `json:"key"`
	Status string `json:"status"`
	Age    int    `json:"age"`
	Idle   int    `json:"idle"`
}

// ActiveSummary describes the currently open issues.
type ActiveSummary struct {
	Total            int                       `json:"total"`
	HighSeverity     int                       `json:"high_severity"`
	Status           []Count                   `json:"status"`
	PQM              []Count                   `json:"pqm,omitempty"`
	PrioritySeverity map[string]map[string]int `json:"priority_severity"`
	MedianAge        float64                   `json:"median_age"`
	MedianIdle       float64                   `json:"median_idle"`
	Points           []AgePoint                `json:"points"`
}

// Summarize computes the active view of t. Status and PQM keep the topN most
// frequent labels and fold the rest into "Other". PQM is empty unless
// AddMetadata ran.
func Summarize(t *table.Table, cols Columns, topN int) ActiveSummary {
	s := ActiveSummary{
		Total:            t.Len(),
		PrioritySeverity: make(map[string]map[string]int),
		Points:           make([]AgePoint, 0, t.Len()),
	}

	var statuses, pqms []string
	var ages, idles []int
	for _, r := range t.Rows() {
		priority, severity := r.Text(cols.Priority), r.Text(cols.Severity)
		if severity == HighSeverity || priority == HighPriority {
			s.HighSeverity++
		}

		statuses = append(statuses, r.Text(cols.Status))
		if t.HasColumn(ColPQM) {
			pqms = append(pqms, r.Text(ColPQM))
		}

		pk, sk := labelOf(priority), labelOf(severity)
		if s.PrioritySeverity[pk] == nil {
			s.PrioritySeverity[pk] = make(map[string]int)
		}
		s.PrioritySeverity[pk][sk]++

		age, _ := r.Int(cols.Age)
		idle, _ := r.Int(cols.Idle)
		ages, idles = append(ages, age), append(idles, idle)
		s.Points = append(s.Points, AgePoint{Key: r.Key, Status: r.Text(cols.Status), Age: age, Idle: idle})
	}

	s.Status = TopCounts(statuses, topN)
	if len(pqms) > 0 {
		s.PQM = TopCounts(pqms, topN)
	}
	s.MedianAge = Median(ages)
	s.MedianIdle = Median(idles)
	return s
}

// Oldest returns up to n points ordered by descending age, then key.
func (s ActiveSummary) Oldest(n int) []AgePoint {
	points := slices.Clone(s.Points)
	slices.SortFunc(points, func(a, b AgePoint) int {
		if c := cmp.Compare(b.Age, a.Age); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if len(points) > n {
		points = points[:n]
	}
	return points
}

// TopCounts tallies values and returns the n most frequent, ties broken by
// label, followed by an "Other" entry for the remainder when it is non-zero.
// n <= 0 keeps every label.
func TopCounts(values []string, n int) []Count {
	tally := make(map[string]int)
	for _, v := range values {
		tally[labelOf(v)]++
	}

	counts := make([]Count, 0, len(tally))
	for label, c := range tally {
		counts = append(counts, Count{Label: label, Count: c})
	}
	slices.SortFunc(counts, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})

	if n <= 0 || len(counts) <= n {
		return counts
	}
	other := 0
	for _, c := range counts[n:] {
		other += c.Count
	}
	return append(counts[:n:n], Count{Label: OtherLabel, Count: other})
}

func labelOf(v string) string {
	if v == "" {
		return NoneLabel
	}
	return v
}
