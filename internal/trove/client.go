package trove

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/deusflow/trovebot/internal/logger"
	"github.com/deusflow/trovebot/internal/metrics"
	"github.com/deusflow/trovebot/internal/retry"
)

const DefaultBaseURL = "http://api.trove.nla.gov.au/v2/result"

var (
	// ErrTransientUpstream means retryable failures outlasted the retry policy.
	ErrTransientUpstream = errors.New("transient upstream failure")
	// ErrMalformedResponse means the body was not the expected JSON shape.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrUpstreamStatus is a non-retryable non-2xx status.
	ErrUpstreamStatus = errors.New("unexpected upstream status")
)

// RetryPolicy controls how transient failures are retried.
type RetryPolicy struct {
	MaxAttempts       int
	Backoff           time.Duration
	Multiplier        float64
	MaxBackoff        time.Duration
	TransientStatuses []int
}

// DefaultRetryPolicy makes one call plus five retries on 502/503/504.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       6,
		Backoff:           time.Second,
		Multiplier:        2,
		MaxBackoff:        30 * time.Second,
		TransientStatuses: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
	}
}

type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	Retry      RetryPolicy
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the Trove result endpoint. It keeps no per-query state and
// one Client is shared by every invocation in the process.
type Client struct {
	baseURL   string
	apiKey    string
	http      *http.Client
	retry     retry.RetryConfig
	transient map[int]bool
	log       *slog.Logger
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	transient := make(map[int]bool, len(opts.Retry.TransientStatuses))
	for _, code := range opts.Retry.TransientStatuses {
		transient[code] = true
	}

	return &Client{
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		http:    hc,
		retry: retry.RetryConfig{
			MaxAttempts: opts.Retry.MaxAttempts,
			Delay:       opts.Retry.Backoff,
			Backoff:     true,
			Multiplier:  opts.Retry.Multiplier,
			MaxDelay:    opts.Retry.MaxBackoff,
		},
		transient: transient,
		log:       logger.OrDefault(opts.Logger),
	}
}

// Count returns the number of matches for q, or zero when the API cannot be
// reached or answers with something unreadable.
func (c *Client) Count(ctx context.Context, q Query) int {
	resp, err := c.Search(ctx, c.params(q, 0))
	if err != nil {
		c.absorb(ctx, "count", q, err)
		return 0
	}
	metrics.SearchRequests.WithLabelValues("count", "ok").Inc()
	return resp.Total()
}

// Fetch returns up to pageSize articles for q. Failures yield an empty result.
func (c *Client) Fetch(ctx context.Context, q Query, pageSize int) SearchResult {
	if pageSize <= 0 {
		return SearchResult{}
	}
	resp, err := c.Search(ctx, c.params(q, pageSize))
	if err != nil {
		c.absorb(ctx, "fetch", q, err)
		return SearchResult{}
	}
	metrics.SearchRequests.WithLabelValues("fetch", "ok").Inc()

	articles := resp.Articles()
	if len(articles) > pageSize {
		articles = articles[:pageSize]
	}
	return SearchResult{Total: resp.Total(), Articles: articles}
}

// FacetValues lists the values facet can take under q. An empty slice means
// the facet does not apply or the lookup failed.
func (c *Client) FacetValues(ctx context.Context, q Query, facet string) []string {
	params := c.params(q, 0)
	params.Set("facet", facet)
	resp, err := c.Search(ctx, params)
	if err != nil {
		c.absorb(ctx, "facet", q, err)
		return nil
	}
	metrics.SearchRequests.WithLabelValues("facet", "ok").Inc()
	return resp.FacetTerms(facet)
}

// Search performs one logical GET, retrying transient failures. The returned
// error wraps ErrTransientUpstream, ErrUpstreamStatus or ErrMalformedResponse.
func (c *Client) Search(ctx context.Context, params url.Values) (*Response, error) {
	cfg := c.retry
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		metrics.SearchRetries.Inc()
		logger.FromContext(ctx, c.log).Debug("retrying search", "attempt", attempt, "delay", delay, "error", err)
	}

	var out *Response
	err := retry.WithRetry(ctx, cfg, func() error {
		resp, err := c.once(ctx, params)
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrUpstreamStatus) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransientUpstream, ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrTransientUpstream, err)
	}
	return out, nil
}

func (c *Client) once(ctx context.Context, params url.Values) (*Response, error) {
	reqURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, retry.Permanent(err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("failed to close response body", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		if c.transient[resp.StatusCode] {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil, retry.Permanent(fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, retry.Permanent(fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	return &out, nil
}

func (c *Client) params(q Query, n int) url.Values {
	v := q.Values()
	v.Set("encoding", "json")
	v.Set("n", strconv.Itoa(n))
	if c.apiKey != "" {
		v.Set("key", c.apiKey)
	}
	return v
}

func (c *Client) absorb(ctx context.Context, kind string, q Query, err error) {
	outcome := "transient"
	switch {
	case errors.Is(err, ErrMalformedResponse):
		outcome = "malformed"
	case errors.Is(err, ErrUpstreamStatus):
		outcome = "status"
	}
	metrics.SearchRequests.WithLabelValues(kind, outcome).Inc()
	logger.FromContext(ctx, c.log).Warn("search call failed, treating as empty",
		"kind", kind,
		"term", q.Term(),
		"facets", q.AppliedFacets(),
		"error", err,
	)
}
