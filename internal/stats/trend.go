package stats

import (
	"time"

	"itrack-report/internal/calendar"
	"itrack-report/internal/table"
)

// TrendPoint aggregates one business day.
type TrendPoint struct {
	Date       time.Time `json:"date"`
	Created    int       `json:"created"`
	Resolved   int       `json:"resolved"`
	FRTHits    int       `json:"frt_hits"`
	FRTSamples int       `json:"frt_samples"`
	TRTHits    int       `json:"trt_hits"`
	TRTSamples int       `json:"trt_samples"`
}

// FRT returns the share of the day's measured issues that met the first response target.
func (p TrendPoint) FRT() (float64, bool) {
	return Percent(p.FRTHits, p.FRTSamples)
}

// TRT returns the share of the day's measured issues that met the resolution target.
func (p TrendPoint) TRT() (float64, bool) {
	return Percent(p.TRTHits, p.TRTSamples)
}

// Trend is a business-day series in date order.
type Trend []TrendPoint

// CalculateTrend buckets t by business day from start to today. Rows are
// counted as created on their creation date and as resolved on their closure
// date; weekend dates roll back to Friday. Responsiveness samples are counted
// on the creation date. Rows must carry the AddMeasures columns for FRT/TRT.
func CalculateTrend(t *table.Table, cols Columns, start, today time.Time) Trend {
	first := calendar.RollForward(start)
	last := calendar.RollBack(today)
	if last.Before(first) {
		return Trend{}
	}

	trend := make(Trend, 0, calendar.BusinessDays(first, last)+1)
	index := make(map[time.Time]int)
	for d := first; !d.After(last); d = calendar.AddBusinessDays(d, 1) {
		index[d] = len(trend)
		trend = append(trend, TrendPoint{Date: d})
	}

	bucket := func(r table.Row, col string) *TrendPoint {
		d, ok := r.Date(col)
		if !ok {
			return nil
		}
		i, ok := index[calendar.RollBack(d)]
		if !ok {
			return nil
		}
		return &trend[i]
	}

	for _, r := range t.Rows() {
		if p := bucket(r, cols.Created); p != nil {
			p.Created++
			if hit, ok := measure(r, ColFRT); ok {
				p.FRTSamples++
				if hit {
					p.FRTHits++
				}
			}
			if hit, ok := measure(r, ColTRT); ok {
				p.TRTSamples++
				if hit {
					p.TRTHits++
				}
			}
		}
		if p := bucket(r, cols.Closed); p != nil {
			p.Resolved++
		}
	}

	return trend
}

// Dates returns the business days of the series.
func (tr Trend) Dates() []time.Time {
	out := make([]time.Time, len(tr))
	for i, p := range tr {
		out[i] = p.Date
	}
	return out
}

// Created returns the daily created counts.
func (tr Trend) Created() []int {
	out := make([]int, len(tr))
	for i, p := range tr {
		out[i] = p.Created
	}
	return out
}

// Resolved returns the daily resolved counts.
func (tr Trend) Resolved() []int {
	out := make([]int, len(tr))
	for i, p := range tr {
		out[i] = p.Resolved
	}
	return out
}

// Unresolved returns cumulative created minus cumulative resolved.
func (tr Trend) Unresolved() []int {
	created, resolved := Cumulative(tr.Created()), Cumulative(tr.Resolved())
	out := make([]int, len(tr))
	for i := range tr {
		out[i] = created[i] - resolved[i]
	}
	return out
}

// Totals returns the created and resolved sums over the series.
func (tr Trend) Totals() (created, resolved int) {
	for _, p := range tr {
		created += p.Created
		resolved += p.Resolved
	}
	return created, resolved
}

// Responsiveness returns the FRT and TRT percentages over a trailing window
// of n business days. A window without samples repeats the previous value.
func (tr Trend) Responsiveness(n int) (frt, trt []float64) {
	if n < 1 {
		n = 1
	}
	frt = make([]float64, len(tr))
	trt = make([]float64, len(tr))

	var fh, fs, th, ts int
	for i, p := range tr {
		fh, fs, th, ts = fh+p.FRTHits, fs+p.FRTSamples, th+p.TRTHits, ts+p.TRTSamples
		if i >= n {
			old := tr[i-n]
			fh, fs, th, ts = fh-old.FRTHits, fs-old.FRTSamples, th-old.TRTHits, ts-old.TRTSamples
		}
		frt[i] = carry(frt, i, fh, fs)
		trt[i] = carry(trt, i, th, ts)
	}
	return frt, trt
}

func carry(series []float64, i, hits, samples int) float64 {
	if v, ok := Percent(hits, samples); ok {
		return v
	}
	if i > 0 {
		return series[i-1]
	}
	return 0
}
