package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itrack-report/internal/jira"
)

// jqlFetcher serves canned result sets keyed by JQL.
type jqlFetcher struct {
	results map[string][]jira.Issue
	fail    map[string]error

	mu   sync.Mutex
	seen []string
}

func (f *jqlFetcher) FetchPage(_ context.Context, jql string, startAt, maxResults int) (jira.Page, error) {
	f.mu.Lock()
	f.seen = append(f.seen, jql)
	f.mu.Unlock()

	if err := f.fail[jql]; err != nil {
		return jira.Page{}, err
	}
	issues, ok := f.results[jql]
	if !ok {
		return jira.Page{}, fmt.Errorf("%w: unexpected jql %q", jira.ErrStatus, jql)
	}
	end := min(startAt+maxResults, len(issues))
	return jira.Page{Issues: issues[startAt:end], Total: len(issues)}, nil
}

func TestHistoryJQL(t *testing.T) {
	got := HistoryJQL("26769", time.Date(2023, 3, 28, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, "filter=26769 and (created > 2023-03-28 or closed > 2023-03-28)", got)
	assert.Equal(t, "filter=27347", ActiveJQL("27347"))
}

func TestLoadReport(t *testing.T) {
	since := day(2024, 3, 11)
	fetcher := &jqlFetcher{results: map[string][]jira.Issue{
		HistoryJQL("100", since): {
			issue("IT-1", map[string]any{"project": "IT", "created": day(2024, 3, 12)}),
			issue("IT-2", map[string]any{"project": "MED", "created": day(2024, 1, 2), "resolutiondate": day(2024, 3, 13)}),
			issue("IT-3", map[string]any{"project": "IT", "created": day(2024, 3, 14)}),
		},
		ActiveJQL("200"): {
			{Key: "IT-1", Fields: map[string]any{"project": "IT", "status": "open", "priority": "P1"}, Age: 4},
			{Key: "IT-3", Fields: map[string]any{"project": "IT", "status": "review"}, Age: 2},
		},
	}}

	report, err := LoadReport(context.Background(), &jira.Paginator{Fetcher: fetcher, PageSize: 2}, ReportRequest{
		HistFilter:   "100",
		ActiveFilter: "200",
		Since:        since,
		Today:        today,
		Options:      testOptions(),
		Columns:      DefaultColumns(),
		PQMs:         map[string]string{"IT": "Display-Alice"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Hist.Len())
	assert.Equal(t, 2, report.Active.Len())

	row, ok := report.Hist.Row("IT-2")
	require.True(t, ok)
	assert.Equal(t, "Other", row.Value(ColPQM))
	assert.Equal(t, 0, row.Value(ColTRT))
	assert.True(t, report.Hist.HasColumn(ColFRT))
	assert.False(t, report.Active.HasColumn(ColFRT), "measures are for history only")

	assert.Equal(t, 2, report.Totals.Created)
	assert.Equal(t, 1, report.Totals.Resolved)
	assert.True(t, report.Totals.Since.Equal(since))
	assert.True(t, report.Totals.Until.Equal(today))
	assert.Len(t, report.Trend, 6)

	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.HighSeverity)
	assert.Equal(t, []Count{{"Display-Alice", 2}}, report.Summary.PQM)

	// Two history pages, one active page.
	assert.Len(t, fetcher.seen, 3)
}

func TestLoadReport_PageFailure(t *testing.T) {
	since := day(2024, 3, 11)
	fetcher := &jqlFetcher{
		results: map[string][]jira.Issue{HistoryJQL("100", since): {}},
		fail:    map[string]error{ActiveJQL("200"): fmt.Errorf("%w: status 500", jira.ErrServer)},
	}

	report, err := LoadReport(context.Background(), &jira.Paginator{Fetcher: fetcher}, ReportRequest{
		HistFilter:   "100",
		ActiveFilter: "200",
		Since:        since,
		Today:        today,
		Options:      testOptions(),
		Columns:      DefaultColumns(),
	})

	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, jira.ErrServer), "got %v", err)
	assert.Contains(t, err.Error(), "active search")
}

func TestLoadReport_DefaultWindow(t *testing.T) {
	expected := HistoryJQL("1", today.Add(-DefaultLookback))
	fetcher := &jqlFetcher{results: map[string][]jira.Issue{expected: nil, ActiveJQL("2"): nil}}

	report, err := LoadReport(context.Background(), &jira.Paginator{Fetcher: fetcher}, ReportRequest{
		HistFilter:   "1",
		ActiveFilter: "2",
		Today:        today,
		Options:      testOptions(),
		Columns:      DefaultColumns(),
	})
	require.NoError(t, err)

	assert.Contains(t, fetcher.seen, expected)
	assert.Zero(t, report.Hist.Len())
	assert.True(t, report.Totals.Since.Equal(today.Add(-DefaultLookback)))
}
