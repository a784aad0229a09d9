package jira

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
)

// fakeFetcher serves a dataset of total issues, optionally failing one call
// or overriding the reported total per call.
type fakeFetcher struct {
	total   int
	failOn  int // 1-based call index, 0 = never
	failErr error
	totals  map[int]int // call index -> reported total
	empty   bool        // always return no issues

	calls  int
	starts []int
}

func (f *fakeFetcher) FetchPage(_ context.Context, _ string, startAt, maxResults int) (Page, error) {
	f.calls++
	f.starts = append(f.starts, startAt)

	if f.failOn == f.calls {
		return Page{}, f.failErr
	}

	total := f.total
	if t, ok := f.totals[f.calls]; ok {
		total = t
	}

	if f.empty {
		return Page{Total: total}, nil
	}

	n := min(maxResults, total-startAt)
	issues := make([]Issue, 0, max(n, 0))
	for i := 0; i < n; i++ {
		issues = append(issues, Issue{Key: fmt.Sprintf("IT-%d", startAt+i+1)})
	}
	return Page{Issues: issues, Total: total}, nil
}

func TestSearch_Termination(t *testing.T) {
	tests := []struct {
		total    int
		pageSize int
	}{
		{1, 500},
		{3, 2},
		{500, 500},
		{501, 500},
		{1234, 100},
		{10, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("T%d_P%d", tt.total, tt.pageSize), func(t *testing.T) {
			f := &fakeFetcher{total: tt.total}
			p := &Paginator{Fetcher: f, PageSize: tt.pageSize}

			res := p.Search(context.Background(), "filter=1")
			issues := res.Collect()

			if len(issues) != tt.total {
				t.Fatalf("got %d issues, want %d", len(issues), tt.total)
			}
			wantCalls := (tt.total + tt.pageSize - 1) / tt.pageSize
			if f.calls != wantCalls || res.Pages() != wantCalls {
				t.Errorf("calls = %d (Pages %d), want %d", f.calls, res.Pages(), wantCalls)
			}
			for i, start := range f.starts {
				if start != i*tt.pageSize {
					t.Errorf("call %d startAt = %d, want %d", i+1, start, i*tt.pageSize)
				}
			}
			for i, issue := range issues {
				if want := fmt.Sprintf("IT-%d", i+1); issue.Key != want {
					t.Fatalf("issue %d = %s, want %s", i, issue.Key, want)
				}
			}
			if res.Err() != nil {
				t.Errorf("Err() = %v, want nil", res.Err())
			}
		})
	}
}

func TestSearch_EmptyResultMakesOneCall(t *testing.T) {
	f := &fakeFetcher{total: 0}
	res := (&Paginator{Fetcher: f, PageSize: 50}).Search(context.Background(), "filter=1")

	if n := len(res.Collect()); n != 0 {
		t.Errorf("got %d issues, want 0", n)
	}
	if f.calls != 1 {
		t.Errorf("calls = %d, want 1", f.calls)
	}
	if res.Err() != nil {
		t.Errorf("Err() = %v, want nil", res.Err())
	}
}

func TestSearch_FailFast(t *testing.T) {
	for _, failErr := range []error{ErrTransport, ErrServer, ErrStatus, ErrMalformed} {
		for k := 1; k <= 3; k++ {
			t.Run(fmt.Sprintf("%v_call%d", failErr, k), func(t *testing.T) {
				f := &fakeFetcher{total: 10, failOn: k, failErr: fmt.Errorf("%w: boom", failErr)}
				res := (&Paginator{Fetcher: f, PageSize: 2}).Search(context.Background(), "filter=1")

				issues := res.Collect()

				if want := (k - 1) * 2; len(issues) != want {
					t.Errorf("got %d issues, want %d", len(issues), want)
				}
				if f.calls != k {
					t.Errorf("calls = %d, want %d", f.calls, k)
				}
				if !errors.Is(res.Err(), failErr) {
					t.Errorf("Err() = %v, want %v", res.Err(), failErr)
				}
			})
		}
	}
}

func TestSearch_TotalRereadEveryPage(t *testing.T) {
	t.Run("Grows", func(t *testing.T) {
		f := &fakeFetcher{total: 5, totals: map[int]int{1: 3}}
		res := (&Paginator{Fetcher: f, PageSize: 2}).Search(context.Background(), "q")

		if n := len(res.Collect()); n != 5 {
			t.Errorf("got %d issues, want 5", n)
		}
		if f.calls != 3 {
			t.Errorf("calls = %d, want 3", f.calls)
		}
	})

	t.Run("Shrinks", func(t *testing.T) {
		f := &fakeFetcher{total: 2, totals: map[int]int{1: 6}}
		res := (&Paginator{Fetcher: f, PageSize: 2}).Search(context.Background(), "q")

		if n := len(res.Collect()); n != 2 {
			t.Errorf("got %d issues, want 2", n)
		}
		if f.calls != 2 {
			t.Errorf("calls = %d, want 2", f.calls)
		}
		if res.Err() != nil {
			t.Errorf("Err() = %v, want nil", res.Err())
		}
	})
}

func TestSearch_StalledPageStops(t *testing.T) {
	f := &fakeFetcher{total: 10, empty: true}
	res := (&Paginator{Fetcher: f, PageSize: 5}).Search(context.Background(), "q")

	if n := len(res.Collect()); n != 0 {
		t.Errorf("got %d issues, want 0", n)
	}
	if f.calls != 1 {
		t.Errorf("calls = %d, want 1", f.calls)
	}
	if !errors.Is(res.Err(), ErrStalled) {
		t.Errorf("Err() = %v, want ErrStalled", res.Err())
	}
}

func TestSearch_IsLazy(t *testing.T) {
	f := &fakeFetcher{total: 10}
	res := (&Paginator{Fetcher: f, PageSize: 4}).Search(context.Background(), "q")

	if f.calls != 0 {
		t.Fatalf("calls before iteration = %d, want 0", f.calls)
	}

	seen := 0
	for range res.All() {
		seen++
		if seen == 5 {
			break
		}
	}

	if f.calls != 2 {
		t.Errorf("calls = %d, want 2 (one per consumed page)", f.calls)
	}
	if res.Retrieved() != 5 {
		t.Errorf("Retrieved() = %d, want 5", res.Retrieved())
	}
}

func TestSearch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeFetcher{total: 10}
	res := (&Paginator{Fetcher: f, PageSize: 4}).Search(ctx, "q")

	if n := len(res.Collect()); n != 0 {
		t.Errorf("got %d issues, want 0", n)
	}
	if f.calls != 0 {
		t.Errorf("calls = %d, want 0", f.calls)
	}
	if !errors.Is(res.Err(), context.Canceled) {
		t.Errorf("Err() = %v, want context.Canceled", res.Err())
	}
}

func TestSearch_RestartsOnEachIteration(t *testing.T) {
	f := &fakeFetcher{total: 3, failOn: 2, failErr: ErrTransport}
	res := (&Paginator{Fetcher: f, PageSize: 2}).Search(context.Background(), "q")

	if n := len(res.Collect()); n != 2 {
		t.Fatalf("first run: %d issues, want 2", n)
	}
	if res.Err() == nil {
		t.Fatal("first run: expected error")
	}

	// Second run succeeds: call 2 already happened, so failOn no longer matches.
	if n := len(res.Collect()); n != 3 {
		t.Errorf("second run: %d issues, want 3", n)
	}
	if res.Err() != nil || res.Pages() != 2 {
		t.Errorf("second run: Err=%v Pages=%d", res.Err(), res.Pages())
	}
}

func TestPaginator_DefaultPageSize(t *testing.T) {
	f := &fakeFetcher{total: 600}
	res := (&Paginator{Fetcher: f}).Search(context.Background(), "q")
	res.Collect()

	if len(f.starts) != 2 || f.starts[1] != DefaultPageSize {
		t.Errorf("starts = %v, want [0 %d]", f.starts, DefaultPageSize)
	}
}

func TestResults_First(t *testing.T) {
	f := &fakeFetcher{total: 10}
	res := (&Paginator{Fetcher: f, PageSize: 3}).Search(context.Background(), "q")

	var keys []string
	for issue := range res.First(4) {
		keys = append(keys, issue.Key)
	}

	if len(keys) != 4 || keys[3] != "IT-4" {
		t.Errorf("keys = %v, want IT-1..IT-4", keys)
	}
	if f.calls != 2 {
		t.Errorf("calls = %d, want 2", f.calls)
	}
	if res.Total() != 10 {
		t.Errorf("Total() = %d, want 10", res.Total())
	}

	f.calls = 0
	if n := len(slices.Collect(res.First(0))); n != 10 {
		t.Errorf("First(0) yielded %d, want 10", n)
	}
}
