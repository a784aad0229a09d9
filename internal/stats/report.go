package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"itrack-report/internal/calendar"
	"itrack-report/internal/jira"
	"itrack-report/internal/table"
)

// DefaultLookback is the default history window of a report.
const DefaultLookback = 356 * 24 * time.Hour

// DefaultTopN bounds the status and PQM breakdowns.
const DefaultTopN = 4

// ReportRequest configures LoadReport.
type ReportRequest struct {
	// HistFilter and ActiveFilter are saved iTrack filter ids.
	HistFilter   string
	ActiveFilter string
	Since        time.Time
	Today        time.Time

	Options table.Options
	Columns Columns
	PQMs    map[string]string
	TopN    int
}

// TrendSummary totals the history window.
type TrendSummary struct {
	Since    time.Time `json:"since"`
	Until    time.Time `json:"until"`
	Created  int       `json:"created"`
	Resolved int       `json:"resolved"`
}

// Report is the loaded and measured report data.
type Report struct {
	Active  *table.Table
	Hist    *table.Table
	Trend   Trend
	Summary ActiveSummary
	Totals  TrendSummary
}

// HistoryJQL selects the issues of filter created or closed after since.
func HistoryJQL(filter string, since time.Time) string {
	d := since.Format(jira.DateLayout)
	return fmt.Sprintf("filter=%s and (created > %s or closed > %s)", filter, d, d)
}

// ActiveJQL selects the issues of filter.
func ActiveJQL(filter string) string {
	return "filter=" + filter
}

// LoadReport runs the history and active searches concurrently and derives
// the report measures. A failed page in either search fails the report.
func LoadReport(ctx context.Context, searcher jira.Searcher, req ReportRequest) (*Report, error) {
	today := calendar.Day(req.Today)
	if req.Today.IsZero() {
		today = calendar.Day(time.Now())
	}
	since := calendar.Day(req.Since)
	if req.Since.IsZero() {
		since = today.Add(-DefaultLookback)
	}
	topN := req.TopN
	if topN == 0 {
		topN = DefaultTopN
	}

	var hist, active *table.Table
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := fetchTable(gctx, searcher, HistoryJQL(req.HistFilter, since), req.Options)
		if err != nil {
			return fmt.Errorf("history search: %w", err)
		}
		hist = t
		return nil
	})
	g.Go(func() error {
		t, err := fetchTable(gctx, searcher, ActiveJQL(req.ActiveFilter), req.Options)
		if err != nil {
			return fmt.Errorf("active search: %w", err)
		}
		active = t
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	AddMetadata(hist, req.Columns, req.PQMs)
	AddMeasures(hist, req.Columns, today)
	AddMetadata(active, req.Columns, req.PQMs)

	trend := CalculateTrend(hist, req.Columns, since, today)
	created, resolved := trend.Totals()

	log.Info().
		Int("active", active.Len()).
		Int("hist", hist.Len()).
		Int("created", created).
		Int("resolved", resolved).
		Msg("Report loaded")

	return &Report{
		Active:  active,
		Hist:    hist,
		Trend:   trend,
		Summary: Summarize(active, req.Columns, topN),
		Totals:  TrendSummary{Since: since, Until: today, Created: created, Resolved: resolved},
	}, nil
}

func fetchTable(ctx context.Context, searcher jira.Searcher, jql string, opts table.Options) (*table.Table, error) {
	res := searcher.Search(ctx, jql)
	t := table.Assemble(res.All(), opts)
	if err := res.Err(); err != nil {
		return nil, err
	}
	log.Debug().Str("jql", jql).Int("issues", t.Len()).Int("pages", res.Pages()).Msg("Search finished")
	return t, nil
}
