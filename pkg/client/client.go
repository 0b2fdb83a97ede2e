// Package client provides the company registry HTTP client: one GET per
// listing page, typed upstream errors and request metrics.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/registry-dashboard/pkg/auth"
	"github.com/Sternrassler/registry-dashboard/pkg/company"
	"github.com/Sternrassler/registry-dashboard/pkg/logging"
	"github.com/Sternrassler/registry-dashboard/pkg/query"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for registry client operations.
var (
	registryRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_requests_total",
		Help: "Total registry requests by endpoint and status",
	}, []string{"endpoint", "status"})

	registryRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "registry_request_duration_seconds",
		Help:    "Registry request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	registryErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_errors_total",
		Help: "Total registry errors by class",
	}, []string{"class"})
)

// CompaniesEndpoint is the path of the paged listing endpoint.
const CompaniesEndpoint = "/companies"

// maxErrorBody bounds how much of a failed response is kept in UpstreamError.
const maxErrorBody = 64 << 10

// Client fetches listing pages from the registry.
type Client struct {
	httpClient *http.Client
	endpoint   string
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the registry, e.g. "https://connect.palturai.com".
	BaseURL string

	// User-Agent header sent with every request.
	UserAgent string

	// Timeout for a single page request; 0 means no client-side timeout.
	Timeout time.Duration

	// HTTPClient overrides the client built from Timeout (for testing).
	HTTPClient *http.Client
}

// DefaultConfig returns a default configuration for baseURL.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
	}
}

// New creates a new registry client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + CompaniesEndpoint,
		config:     cfg,
		logger:     logging.NewLogger(logging.ComponentClient),
	}, nil
}

// Page is one decoded listing page.
type Page struct {
	// Index is the zero-based page index that was requested.
	Index int

	// Entities are the raw items of the page's "content" array, in order.
	Entities []company.RawEntity
}

// Empty reports whether the page signals upstream exhaustion.
func (p Page) Empty() bool {
	return len(p.Entities) == 0
}

// listingResponse is the envelope of the listing endpoint.
type listingResponse struct {
	Content []company.RawEntity `json:"content"`
}

// FetchPage performs exactly one listing request. Any status other than
// 200 yields an *UpstreamError; nothing is retried. A 401 invalidates cred
// when it supports it, so the next acquisition fetches a fresh token.
func (c *Client) FetchPage(ctx context.Context, cred auth.Credential, req query.PageRequest) (Page, error) {
	if err := req.Validate(); err != nil {
		return Page{}, fmt.Errorf("invalid page request: %w", err)
	}
	if cred == nil {
		return Page{}, fmt.Errorf("credential is required")
	}

	startTime := time.Now()
	defer func() {
		registryRequestDuration.WithLabelValues(CompaniesEndpoint).Observe(time.Since(startTime).Seconds())
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+req.Values().Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	httpReq.Header.Set("Authorization", cred.Authorization())

	c.logger.Debug().
		Str("country", req.Country).
		Int("page", req.Page).
		Int("size", req.Size).
		Msg("Fetching registry page")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Int("page", req.Page).Msg("HTTP request failed")
		registryErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		registryRequestsTotal.WithLabelValues(CompaniesEndpoint, "network_error").Inc()
		return Page{}, fmt.Errorf("fetch page %d: %w", req.Page, err)
	}
	defer resp.Body.Close()

	registryRequestsTotal.WithLabelValues(CompaniesEndpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		upstreamErr := &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Page:       req.Page,
			ErrorClass: classifyStatus(resp.StatusCode),
		}
		registryErrorsTotal.WithLabelValues(string(upstreamErr.ErrorClass)).Inc()

		c.logger.Warn().
			Int("page", req.Page).
			Int("status", resp.StatusCode).
			Str("error_class", string(upstreamErr.ErrorClass)).
			Msg("Registry request error")

		if resp.StatusCode == http.StatusUnauthorized {
			if inv, ok := cred.(auth.Invalidator); ok {
				inv.Invalidate(ctx)
			}
		}
		return Page{}, upstreamErr
	}

	var listing listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		registryErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return Page{}, fmt.Errorf("decode page %d: %w", req.Page, err)
	}

	c.logger.Debug().
		Int("page", req.Page).
		Int("items", len(listing.Content)).
		Dur("duration", time.Since(startTime)).
		Msg("Fetched registry page")

	return Page{Index: req.Page, Entities: listing.Content}, nil
}
