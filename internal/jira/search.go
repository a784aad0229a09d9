package jira

import (
	"context"
	"errors"
	"iter"

	"github.com/rs/zerolog/log"
)

// ErrStalled reports a successful page that returned no issues while the
// server still claimed more were pending.
var ErrStalled = errors.New("iTrack search stalled: empty page before reported total")

// Paginator drives a PageFetcher until the server-reported total is reached.
type Paginator struct {
	Fetcher  PageFetcher
	PageSize int
}

// Search prepares a lazy search. No request is made until the results are iterated.
func (p *Paginator) Search(ctx context.Context, jql string) *Results {
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Results{ctx: ctx, fetcher: p.Fetcher, jql: jql, pageSize: pageSize}
}

// cursor tracks pagination progress. total starts at 1 so the first page is
// always requested, and is replaced by the server's figure after every page.
type cursor struct {
	retrieved int
	total     int
}

// Results is a lazily paginated search.
//
// A failed page ends the iteration early; the sequence itself never fails.
// Callers that need to tell "no more issues" apart from "a page failed" check
// Err once iteration is over.
type Results struct {
	ctx      context.Context
	fetcher  PageFetcher
	jql      string
	pageSize int

	err       error
	pages     int
	retrieved int
	total     int
}

// All yields normalized issues in server order, fetching one page at a time.
// Each call starts a fresh search.
func (r *Results) All() iter.Seq[Issue] {
	return func(yield func(Issue) bool) {
		r.err, r.pages, r.retrieved, r.total = nil, 0, 0, 0

		cur := cursor{retrieved: 0, total: 1}
		for cur.retrieved < cur.total {
			if err := r.ctx.Err(); err != nil {
				r.err = err
				return
			}

			page, err := r.fetcher.FetchPage(r.ctx, r.jql, cur.retrieved, r.pageSize)
			r.pages++
			if err != nil {
				// A failed page counts as total 0: pagination ends here.
				log.Warn().Err(err).Int("retrieved", cur.retrieved).Msg("Search stopped after page failure")
				r.err = err
				return
			}
			cur.total = page.Total
			r.total = page.Total

			if len(page.Issues) == 0 && cur.retrieved < cur.total {
				log.Warn().Int("retrieved", cur.retrieved).Int("total", cur.total).Msg("Search stalled on empty page")
				r.err = ErrStalled
				return
			}

			for _, issue := range page.Issues {
				r.retrieved++
				if !yield(issue) {
					return
				}
			}
			cur.retrieved += len(page.Issues)
		}
	}
}

// First yields at most n issues of All. Pages past the n-th issue are never
// requested. n <= 0 means no limit.
func (r *Results) First(n int) iter.Seq[Issue] {
	if n <= 0 {
		return r.All()
	}
	return func(yield func(Issue) bool) {
		taken := 0
		for issue := range r.All() {
			if !yield(issue) {
				return
			}
			taken++
			if taken == n {
				return
			}
		}
	}
}

// Collect drains All into a slice.
func (r *Results) Collect() []Issue {
	var issues []Issue
	for issue := range r.All() {
		issues = append(issues, issue)
	}
	return issues
}

// Err returns the failure that ended the last iteration early, if any.
func (r *Results) Err() error {
	return r.err
}

// Pages returns the number of page requests made by the last iteration.
func (r *Results) Pages() int {
	return r.pages
}

// Total returns the server-reported total of the last page fetched.
func (r *Results) Total() int {
	return r.total
}

// Retrieved returns the number of issues yielded by the last iteration.
func (r *Results) Retrieved() int {
	return r.retrieved
}
