package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"itrack-report/internal/jira"
	"itrack-report/internal/stats"
	"itrack-report/internal/table"
)

// Row limits of search_issues.
const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

// ErrEmptyJQL rejects a tool call without a query.
var ErrEmptyJQL = errors.New("jql is required")

// SearchInput is the input schema for the search_issues tool.
type SearchInput struct {
	JQL   string `json:"jql" jsonschema:"the JQL query, e.g. filter=27347 or project = IT AND status = Open"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of issues to return (default 50, max 1000)"`
}

// SearchOutput is the output schema for the search_issues tool.
type SearchOutput struct {
	Count     int              `json:"count"`
	Total     int              `json:"total"`
	Truncated bool             `json:"truncated"`
	Columns   []string         `json:"columns"`
	Issues    []map[string]any `json:"issues"`
}

// SummarizeInput is the input schema for the summarize_issues tool.
type SummarizeInput struct {
	JQL  string `json:"jql" jsonschema:"the JQL query selecting the active issues to summarize"`
	TopN int    `json:"top_n,omitempty" jsonschema:"number of status and PQM labels kept before folding into Other (default 4)"`
}

// SummarizeOutput is the output schema for the summarize_issues tool.
type SummarizeOutput struct {
	Summary stats.ActiveSummary `json:"summary"`
	Oldest  []stats.AgePoint    `json:"oldest"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_issues",
		Description: "Run a JQL search against iTrack and return the normalized issues with their age and idle business days",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "summarize_issues",
		Description: "Summarize the issues matched by a JQL query: status, PQM and priority x severity breakdowns, high-severity count, age and idle medians",
	}, s.handleSummarize)
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if input.JQL == "" {
		return nil, SearchOutput{}, ErrEmptyJQL
	}
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	res := s.searcher.Search(ctx, input.JQL)
	t := table.Assemble(res.First(limit), s.opts.Table)
	if err := res.Err(); err != nil {
		return nil, SearchOutput{}, fmt.Errorf("search %q: %w", input.JQL, err)
	}

	log.Debug().Str("tool", "search_issues").Str("jql", input.JQL).Int("issues", t.Len()).Msg("Tool call finished")

	return nil, SearchOutput{
		Count:     t.Len(),
		Total:     res.Total(),
		Truncated: res.Total() > t.Len(),
		Columns:   t.Columns(),
		Issues:    t.Records(),
	}, nil
}

func (s *Server) handleSummarize(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SummarizeInput,
) (*mcp.CallToolResult, SummarizeOutput, error) {
	if input.JQL == "" {
		return nil, SummarizeOutput{}, ErrEmptyJQL
	}
	topN := input.TopN
	if topN <= 0 {
		topN = stats.DefaultTopN
	}

	res := s.searcher.Search(ctx, input.JQL)
	t := table.Assemble(res.All(), s.opts.Table)
	if err := res.Err(); err != nil {
		return nil, SummarizeOutput{}, fmt.Errorf("search %q: %w", input.JQL, err)
	}
	stats.AddMetadata(t, s.opts.Columns, s.opts.PQMs)

	summary := stats.Summarize(t, s.opts.Columns, topN)
	log.Debug().Str("tool", "summarize_issues").Str("jql", input.JQL).Int("issues", summary.Total).Msg("Tool call finished")

	return nil, SummarizeOutput{
		Summary: summary,
		Oldest:  summary.Oldest(10),
	}, nil
}
