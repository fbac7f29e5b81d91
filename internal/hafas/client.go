// Package hafas implements the client for the upstream HAFAS-style transit
// REST API, together with the resilience primitives every call goes through:
// retry with exponential backoff, a bounded TTL response cache, and
// transient/permanent error classification.
package hafas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"zugfinder.bahnradar.org/internal/clock"
	"zugfinder.bahnradar.org/internal/logging"
	"zugfinder.bahnradar.org/internal/metrics"
)

// upstreamHTTPClient is a dedicated HTTP client for transit API calls,
// configured with explicit timeouts and transport limits to avoid the
// pitfalls of http.DefaultClient (no timeout, shared global state).
// The transport is cloned from http.DefaultTransport to preserve important
// defaults (ProxyFromEnvironment, DialContext, HTTP/2, keepalives).
func newUpstreamHTTPClient() *http.Client {
	var transport *http.Transport
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		transport = t.Clone()
	} else {
		transport = &http.Transport{}
	}
	transport.MaxIdleConns = 50
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = 90 * time.Second
	transport.TLSHandshakeTimeout = 10 * time.Second
	transport.ExpectContinueTimeout = 1 * time.Second

	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// Config holds the client-side settings for the upstream API.
type Config struct {
	BaseURL         string
	CacheTTL        time.Duration
	CacheMaxEntries int
	Retry           RetryPolicy
}

// DefaultConfig returns the settings used against the public transport API.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:         baseURL,
		CacheTTL:        2 * time.Minute,
		CacheMaxEntries: 500,
		Retry:           DefaultRetryPolicy(),
	}
}

// Client issues calls against the upstream transit API. All requests are
// retried on transient failures and cached by call shape.
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *ResponseCache
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a Client. Metrics may be nil.
func NewClient(config Config, logger *slog.Logger, m *metrics.Metrics, clk clock.Clock) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if m != nil && config.Retry.OnRetry == nil {
		config.Retry.OnRetry = m.UpstreamRetriesTotal.Inc
	}
	return &Client{
		config:     config,
		httpClient: newUpstreamHTTPClient(),
		cache:      NewResponseCache(config.CacheTTL, config.CacheMaxEntries, clk),
		logger:     logger.With(slog.String("component", "hafas_client")),
		metrics:    m,
	}
}

// BoardOptions narrows a departures or arrivals board request.
type BoardOptions struct {
	When     time.Time
	Duration time.Duration
	Results  int
}

func (o BoardOptions) params() map[string]string {
	params := map[string]string{}
	if !o.When.IsZero() {
		params["when"] = o.When.UTC().Format(time.RFC3339)
	}
	if o.Duration > 0 {
		params["duration"] = strconv.Itoa(int(o.Duration.Minutes()))
	}
	if o.Results > 0 {
		params["results"] = strconv.Itoa(o.Results)
	}
	return params
}

// Departures fetches the departure board for a station.
func (c *Client) Departures(ctx context.Context, stationID string, opts BoardOptions) ([]ScheduleRecord, error) {
	var payload struct {
		Departures []ScheduleRecord `json:"departures"`
	}
	path := "/stops/" + url.PathEscape(stationID) + "/departures"
	if err := c.getJSON(ctx, "departures", path, opts.params(), &payload); err != nil {
		return nil, err
	}
	return payload.Departures, nil
}

// Arrivals fetches the arrival board for a station.
func (c *Client) Arrivals(ctx context.Context, stationID string, opts BoardOptions) ([]ScheduleRecord, error) {
	var payload struct {
		Arrivals []ScheduleRecord `json:"arrivals"`
	}
	path := "/stops/" + url.PathEscape(stationID) + "/arrivals"
	if err := c.getJSON(ctx, "arrivals", path, opts.params(), &payload); err != nil {
		return nil, err
	}
	return payload.Arrivals, nil
}

// Trip fetches the full itinerary of one service run.
func (c *Client) Trip(ctx context.Context, tripID string, includeStops bool) (*Trip, error) {
	var payload struct {
		Trip *Trip `json:"trip"`
	}
	params := map[string]string{
		"stopovers": strconv.FormatBool(includeStops),
	}
	path := "/trips/" + url.PathEscape(tripID)
	if err := c.getJSON(ctx, "trip", path, params, &payload); err != nil {
		return nil, err
	}
	if payload.Trip == nil {
		return nil, fmt.Errorf("upstream trip response for %q carried no trip", tripID)
	}
	return payload.Trip, nil
}

// JourneyOptions narrows a journey search.
type JourneyOptions struct {
	Results int
}

// Journeys searches multi-leg itineraries between two stations.
func (c *Client) Journeys(ctx context.Context, fromStationID, toStationID string, opts JourneyOptions) ([]Journey, error) {
	var payload struct {
		Journeys []Journey `json:"journeys"`
	}
	params := map[string]string{
		"from": fromStationID,
		"to":   toStationID,
	}
	if opts.Results > 0 {
		params["results"] = strconv.Itoa(opts.Results)
	}
	if err := c.getJSON(ctx, "journeys", "/journeys", params, &payload); err != nil {
		return nil, err
	}
	return payload.Journeys, nil
}

// getJSON performs a cached, retried GET against the upstream API and
// decodes the JSON payload into out.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, params map[string]string, out any) error {
	cacheParams := make(map[string]string, len(params)+1)
	for k, v := range params {
		cacheParams[k] = v
	}
	cacheParams["path"] = path
	key := CacheKey(endpoint, cacheParams)

	if body, ok := c.cache.Get(key); ok {
		if c.metrics != nil {
			c.metrics.CacheHitsTotal.Inc()
		}
		return json.Unmarshal(body, out)
	}
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}

	body, err := FetchWithRetry(ctx, c.logger, c.config.Retry, func(ctx context.Context) ([]byte, error) {
		return c.doGet(ctx, endpoint, path, params)
	})
	if err != nil {
		return err
	}

	c.cache.Put(key, body)
	return json.Unmarshal(body, out)
}

func (c *Client) doGet(ctx context.Context, endpoint, path string, params map[string]string) ([]byte, error) {
	requestURL, err := url.Parse(c.config.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL for %s: %w", endpoint, err)
	}
	query := requestURL.Query()
	for name, value := range params {
		query.Set(name, value)
	}
	requestURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.countRequest(endpoint, "error")
		return nil, fmt.Errorf("executing %s request: %w", endpoint, err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "http_response_body")

	if resp.StatusCode != http.StatusOK {
		c.countRequest(endpoint, "http_"+strconv.Itoa(resp.StatusCode))
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			URL:        requestURL.String(),
		}
	}

	const maxBodySize = 10 * 1024 * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		c.countRequest(endpoint, "error")
		return nil, fmt.Errorf("reading %s response body: %w", endpoint, err)
	}
	if int64(len(body)) > maxBodySize {
		c.countRequest(endpoint, "error")
		return nil, fmt.Errorf("%s response exceeds size limit of %d bytes", endpoint, maxBodySize)
	}

	c.countRequest(endpoint, "success")
	return body, nil
}

func (c *Client) countRequest(endpoint, outcome string) {
	if c.metrics != nil {
		c.metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	}
}
