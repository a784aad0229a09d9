// Package mcp exposes iTrack search and summaries as Model Context Protocol tools.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"itrack-report/internal/jira"
	"itrack-report/internal/stats"
	"itrack-report/internal/table"
)

// ServerName identifies the server to MCP clients.
const ServerName = "itrack-report"

// Options carries the schema-derived settings the tools need.
type Options struct {
	Table   table.Options
	Columns stats.Columns
	PQMs    map[string]string
}

// Server is the MCP server over an iTrack searcher.
type Server struct {
	searcher jira.Searcher
	opts     Options
	server   *mcp.Server
}

// NewServer creates a server and registers its tools.
func NewServer(searcher jira.Searcher, opts Options, version string) *Server {
	s := &Server{
		searcher: searcher,
		opts:     opts,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    ServerName,
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Str("transport", "stdio").Msg("MCP server starting")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
