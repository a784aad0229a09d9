// Package stats derives the reporting measures of an iTrack report from
// assembled issue tables.
package stats

import (
	"strings"
	"time"

	"itrack-report/internal/calendar"
	"itrack-report/internal/table"
)

// Columns added by AddMetadata and AddMeasures.
const (
	ColPQM        = "PQM"
	ColExperience = "Experience"
	ColN          = "N"
	ColFRT        = "FRT_10"
	ColTRT        = "TRT_20"
)

// OtherLabel groups unmapped projects and the tail of top-N counts.
const OtherLabel = "Other"

// Response targets in business days.
const (
	FirstResponseDays = 10
	ResolutionDays    = 20
)

// Columns names the table columns the measures read.
type Columns struct {
	Project      string
	Status       string
	Priority     string
	Severity     string
	Created      string
	Investigated string
	Closed       string
	Age          string
	Idle         string
}

// DefaultColumns returns the display names produced by the default schema.
func DefaultColumns() Columns {
	return Columns{
		Project:      "project",
		Status:       "status",
		Priority:     "priority",
		Severity:     "severity",
		Created:      "created",
		Investigated: "investigated",
		Closed:       "closuredate",
		Age:          "age",
		Idle:         "idle",
	}
}

// AddMetadata adds the PQM owning each row's project and the experience
// prefix of that PQM ("Display-Alice" -> "Display").
func AddMetadata(t *table.Table, cols Columns, pqms map[string]string) {
	t.AddColumn(ColPQM, func(r table.Row) any {
		if pqm, ok := pqms[r.Text(cols.Project)]; ok {
			return pqm
		}
		return OtherLabel
	})
	t.AddColumn(ColExperience, func(r table.Row) any {
		pqm, ok := pqms[r.Text(cols.Project)]
		if !ok {
			return OtherLabel
		}
		experience, _, _ := strings.Cut(pqm, "-")
		return experience
	})
}

// AddMeasures adds N, FRT_10 and TRT_20. FRT_10 is 1 when the issue was
// investigated within 10 business days of creation, TRT_20 when it was closed
// within 20; a missing end date counts as today. A measure is nil for rows
// created too recently to judge it and for rows without a creation date.
func AddMeasures(t *table.Table, cols Columns, today time.Time) {
	today = calendar.Day(today)

	t.AddColumn(ColN, func(table.Row) any { return 1 })
	t.AddColumn(ColFRT, func(r table.Row) any {
		return withinTarget(r, cols.Created, cols.Investigated, FirstResponseDays, today)
	})
	t.AddColumn(ColTRT, func(r table.Row) any {
		return withinTarget(r, cols.Created, cols.Closed, ResolutionDays, today)
	})
}

func withinTarget(r table.Row, startCol, endCol string, days int, today time.Time) any {
	created, ok := r.Date(startCol)
	if !ok {
		return nil
	}
	if !created.Before(calendar.AddBusinessDays(today, -days)) {
		return nil
	}
	end, ok := r.Date(endCol)
	if !ok {
		end = today
	}
	if calendar.AddBusinessDays(created, days).Before(end) {
		return 0
	}
	return 1
}

// measure reads a 0/1 measure; ok is false for nil.
func measure(r table.Row, col string) (hit, ok bool) {
	v, ok := r.Int(col)
	return v == 1, ok
}
