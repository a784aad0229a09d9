package jira

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultPageSize is the maxResults requested per search page.
const DefaultPageSize = 500

// DefaultTimeout bounds a single search request.
const DefaultTimeout = 90 * time.Second

// Page failures. FetchPage wraps one of these; the returned Page is always empty.
var (
	ErrTransport = errors.New("iTrack transport error")
	ErrServer    = errors.New("iTrack server error")
	ErrStatus    = errors.New("iTrack unexpected status")
	ErrMalformed = errors.New("iTrack malformed response")
)

// Address is the TCP address of the REST API server.
type Address struct {
	Host string
	Port int
}

func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Config holds connection and authentication settings.
type Config struct {
	Server   Address
	Username string
	Password string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
	// RequestDelay is the minimum spacing between requests. Zero disables throttling.
	RequestDelay time.Duration
	// PageSize is the maxResults sent per request. Zero means DefaultPageSize.
	PageSize int

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// PageFetcher retrieves one page of normalized issues.
type PageFetcher interface {
	FetchPage(ctx context.Context, jql string, startAt, maxResults int) (Page, error)
}

// Searcher runs a paginated search.
type Searcher interface {
	Search(ctx context.Context, jql string) *Results
}

// Client talks to the iTrack search endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	normalizer *Normalizer
}

// NewClient creates a client that normalizes every fetched issue with normalizer.
func NewClient(cfg Config, normalizer *Normalizer) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if normalizer == nil {
		normalizer = NewNormalizer(DefaultSchema(), nil)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay)
	}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		normalizer: normalizer,
	}
}

// Search paginates jql with the configured page size.
func (c *Client) Search(ctx context.Context, jql string) *Results {
	p := &Paginator{Fetcher: c, PageSize: c.cfg.PageSize}
	return p.Search(ctx, jql)
}

func (c *Client) searchURL(jql string, startAt, maxResults int) string {
	return fmt.Sprintf("https://%s/rest/api/2/search?jql=%s&startAt=%d&maxResults=%d",
		c.cfg.Server, url.QueryEscape(jql), startAt, maxResults)
}

// FetchPage performs one search request. Any failure yields an empty page with
// a zero total together with an error wrapping ErrTransport, ErrServer,
// ErrStatus or ErrMalformed.
func (c *Client) FetchPage(ctx context.Context, jql string, startAt, maxResults int) (Page, error) {
	log.Debug().Str("jql", jql).Int("startAt", startAt).Int("maxResults", maxResults).Msg("search()")

	if err := c.limiter.Wait(ctx); err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	searchURL := c.searchURL(jql, startAt, maxResults)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("%w: build request: %w", ErrTransport, err)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("Accept", "application/json")

	log.Debug().Str("url", searchURL).Msg("GET")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("server", c.cfg.Server.String()).Msg("Failed to connect to iTrack API server")
		return Page{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusInternalServerError:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		payload := strings.TrimSpace(string(body))
		log.Error().Str("error", payload).Msg("JQL search failed")
		return Page{}, fmt.Errorf("%w: %s", ErrServer, payload)
	default:
		log.Error().Int("code", resp.StatusCode).Msg("JQL search failed")
		return Page{}, fmt.Errorf("%w: status %d", ErrStatus, resp.StatusCode)
	}

	raws, total, err := decodeSearchResponse(resp.Body)
	if err != nil {
		log.Error().Err(err).Msg("JQL search returned an unreadable body")
		return Page{}, err
	}

	issues := make([]Issue, 0, len(raws))
	for _, raw := range raws {
		if raw.Key == "" {
			log.Warn().Int("startAt", startAt).Msg("Search result without key")
		}
		issues = append(issues, c.normalizer.Normalize(raw))
	}

	return Page{Issues: issues, Total: total}, nil
}
