// Package client provides the HTTP client for the product search endpoint
// with error classification and request metrics.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/product-search/pkg/product"
)

// Prometheus metrics for search client operations.
var (
	searchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "product_search_requests_total",
		Help: "Total product search requests by status",
	}, []string{"status"})

	searchRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "product_search_request_duration_seconds",
		Help:    "Product search request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	searchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "product_search_errors_total",
		Help: "Total product search errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of search failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures and timeouts.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a success status with an unreadable body.
	ErrorClassDecode ErrorClass = "decode"
)

// DefaultSearchPath is the server route for product search.
const DefaultSearchPath = "/products/search"

// Client queries the product search endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the scheme and host of the server, e.g. "http://localhost:8080".
	BaseURL string

	// SearchPath is the route of the search endpoint.
	SearchPath string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout bounds a single request.
	Timeout time.Duration
}

// DefaultConfig returns a configuration for the given server.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		SearchPath: DefaultSearchPath,
		UserAgent:  "product-search/0.1.0",
		Timeout:    10 * time.Second,
	}
}

// New creates a new search client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse base url: %v", ErrInvalidConfig, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base url must be absolute (got %q)", ErrInvalidConfig, cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be > 0 (got %s)", ErrInvalidConfig, cfg.Timeout)
	}

	if cfg.SearchPath == "" {
		cfg.SearchPath = DefaultSearchPath
	}

	logger := log.With().Str("component", "search-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		config:  cfg,
		logger:  logger,
	}, nil
}

// SearchURL builds the request URL for a query and page index.
func (c *Client) SearchURL(q string, page int) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + c.config.SearchPath
	u.RawQuery = "q=" + encodeQueryComponent(q) + "&page=" + strconv.Itoa(page)
	return u.String()
}

// encodeQueryComponent escapes spaces as %20 rather than '+'.
func encodeQueryComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Search fetches one page of results for q.
// A non-2xx status yields a *SearchError; the page is never partially returned.
func (c *Client) Search(ctx context.Context, q string, page int) (*product.Page, error) {
	startTime := time.Now()
	defer func() {
		searchRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SearchURL(q, page), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("query", q).
		Int("page", page).
		Msg("Executing search request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		class := classifyError(nil, err)
		searchErrorsTotal.WithLabelValues(string(class)).Inc()
		searchRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, &SearchError{
			ErrorClass: class,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	searchRequestsTotal.WithLabelValues(status).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		class := classifyError(resp, nil)
		searchErrorsTotal.WithLabelValues(string(class)).Inc()
		// Drain so the connection can be reused.
		io.Copy(io.Discard, resp.Body)
		return nil, &SearchError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    resp.Status,
		}
	}

	var result product.Page
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		searchErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &SearchError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "decode response",
			Err:        err,
		}
	}
	result.Normalize()

	c.logger.Debug().
		Str("query", q).
		Int("page", result.Number).
		Int("total_pages", result.TotalPages).
		Int("items", len(result.Content)).
		Dur("duration", time.Since(startTime)).
		Msg("Search request complete")

	return &result, nil
}

// FetchPage satisfies pagination.PageFetcher.
func (c *Client) FetchPage(ctx context.Context, q string, page int) (*product.Page, error) {
	return c.Search(ctx, q, page)
}

// classifyError categorizes a failure for observability.
func classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp == nil:
		return ""
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		// 1xx and 3xx that reached us unfollowed.
		return ErrorClassClient
	default:
		return ""
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.config
}
