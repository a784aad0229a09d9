package jira

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// RawIssue is one entry of the search response's "issues" array.
type RawIssue struct {
	Key    string
	Fields map[string]any
}

// Page is the normalized result of a single search request.
// Total is the server's current count of all matching issues.
type Page struct {
	Issues []Issue
	Total  int
}

// DateLayout is the layout of the calendar date part of Jira timestamps.
const DateLayout = "2006-01-02"

// looseDateLayout also accepts unpadded months and days ("2024-1-5").
const looseDateLayout = "2006-1-2"

// ParseDate extracts the calendar date from an ISO-8601-like Jira timestamp
// ("2024-01-10T08:00:00.000+0000"). Anything else yields false.
func ParseDate(raw any) (time.Time, bool) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, false
	}
	day, _, _ := strings.Cut(s, "T")
	t, err := time.Parse(DateLayout, day)
	if err != nil {
		if t, err = time.Parse(looseDateLayout, day); err != nil {
			return time.Time{}, false
		}
	}
	return t, true
}

// decodeSearchResponse reads a search response body into raw issues and the
// reported total. The body must be exactly one JSON object.
func decodeSearchResponse(r io.Reader) ([]RawIssue, int, error) {
	dec := json.NewDecoder(r)
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, 0, fmt.Errorf("%w: trailing data after the response object", ErrMalformed)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, 0, fmt.Errorf("%w: body is %T, not an object", ErrMalformed, doc)
	}

	entries, _ := obj["issues"].([]any)
	issues := make([]RawIssue, 0, len(entries))
	for i, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			log.Warn().Int("index", i).Msg("Skipping non-object entry in search response")
			continue
		}
		issues = append(issues, rawIssueFromMap(m))
	}

	return issues, coerceTotal(obj["total"]), nil
}

func rawIssueFromMap(m map[string]any) RawIssue {
	key, _ := m["key"].(string)
	fields, _ := m["fields"].(map[string]any)
	return RawIssue{Key: key, Fields: fields}
}

// coerceTotal accepts the numeric or string forms servers report totals in.
// Out-of-range values clamp to [0, math.MaxInt].
func coerceTotal(v any) int {
	switch t := v.(type) {
	case float64:
		return clampTotal(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return max(int(n), 0)
		}
		if f, err := t.Float64(); err == nil {
			return clampTotal(f)
		}
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.Atoi(s); err == nil {
			return max(n, 0)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return clampTotal(f)
		}
	case int:
		return max(t, 0)
	}
	return 0
}

func clampTotal(f float64) int {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= math.MaxInt:
		return math.MaxInt
	}
	return int(f)
}
