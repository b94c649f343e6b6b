// Package bridgedb is a small client for the BridgeDb identifier mapping REST
// service: batch and single-key cross-reference lookups plus the service
// properties that describe its data sources.
package bridgedb

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

const (
	// Version is reported in the default User-Agent.
	Version = "0.1.0"

	// DefaultBaseURL is the public human mapping endpoint.
	DefaultBaseURL = "https://webservice.bridgedb.org/Human/"

	notAvailable = "N/A"
)

// Endpoint names used for logging and request observation.
const (
	EndpointBatch      = "xrefsBatch"
	EndpointXrefs      = "xrefs"
	EndpointProperties = "properties"
)

// Observer receives one call per HTTP attempt.
type Observer interface {
	ObserveMappingRequest(endpoint, outcome string, d time.Duration)
}

// Pair is one raw mapping: a system code (batch responses) or a database
// name (single-key responses) and the mapped value.
type Pair struct {
	System string
	Value  string
}

// Client talks to one BridgeDb base URL.  It is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	log          logging.Logger
	limiter      *rate.Limiter
	observer     Observer
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
	RequestID  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bridgedb: HTTP %d: %s [request_id=%s]", e.StatusCode, e.Body, e.RequestID)
}

func (e *StatusError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// NewClient creates a client for baseURL; a trailing slash is added when
// missing.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New(errors.CodeInvalidParam, "bridgedb base URL is empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "invalid bridgedb base URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New(errors.CodeInvalidParam, "bridgedb base URL scheme must be http or https").
			WithDetail("url=" + baseURL)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	c := &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    "aopwiki-graph/" + Version,
		log:          logging.NewNopLogger(),
		limiter:      rate.NewLimiter(rate.Inf, 1),
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// XrefsBatch maps keys of systemCode ("Ca" or "H") in one request.  Every
// key present in the response appears in the result; keys answered with N/A
// map to an empty slice.  Transient failures are retried.
func (c *Client) XrefsBatch(ctx context.Context, systemCode string, keys []string) (map[string][]Pair, error) {
	if len(keys) == 0 {
		return map[string][]Pair{}, nil
	}
	body, err := c.do(ctx, EndpointBatch, http.MethodPost, EndpointBatch+"/"+url.PathEscape(systemCode),
		strings.Join(keys, "\n"), c.retryMax)
	if err != nil {
		return nil, err
	}
	return ParseBatch(body)
}

// Xrefs maps a single key.  Pairs carry database names.  Single-key calls
// are not retried.
func (c *Client) Xrefs(ctx context.Context, systemCode, key string) ([]Pair, error) {
	body, err := c.do(ctx, EndpointXrefs, http.MethodGet,
		EndpointXrefs+"/"+url.PathEscape(systemCode)+"/"+url.PathEscape(key), "", 0)
	if err != nil {
		return nil, err
	}
	return ParseXrefs(body)
}

// Properties returns the service's key/value metadata (data source names,
// versions, build dates).
func (c *Client) Properties(ctx context.Context) (map[string]string, error) {
	body, err := c.do(ctx, EndpointProperties, http.MethodGet, EndpointProperties, "", c.retryMax)
	if err != nil {
		return nil, err
	}
	props := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		k, v, ok := strings.Cut(sc.Text(), "\t")
		if !ok || k == "" {
			continue
		}
		props[k] = strings.TrimSpace(v)
	}
	return props, nil
}

// ParseBatch decodes a batch response: key, queried system and a comma
// separated list of code:value pairs (or N/A) per line.
func ParseBatch(body string) (map[string][]Pair, error) {
	out := make(map[string][]Pair)
	sc := bufio.NewScanner(strings.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		cols := strings.Split(text, "\t")
		if len(cols) < 3 {
			return nil, errors.New(errors.ErrCodeMappingParseError, "batch response line has fewer than 3 columns").
				WithDetail("line=" + strconv.Itoa(line))
		}
		key := cols[0]
		pairs := out[key]
		if pairs == nil {
			pairs = []Pair{}
		}
		if refs := strings.TrimSpace(cols[2]); refs != notAvailable && refs != "" {
			for _, item := range strings.Split(refs, ",") {
				code, value, ok := strings.Cut(strings.TrimSpace(item), ":")
				if !ok || code == "" || value == "" {
					continue
				}
				pairs = append(pairs, Pair{System: code, Value: value})
			}
		}
		out[key] = pairs
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMappingParseError, "reading batch response")
	}
	return out, nil
}

// ParseXrefs decodes a single-key response: value and database name per
// line.
func ParseXrefs(body string) ([]Pair, error) {
	var out []Pair
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		value, db, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, errors.New(errors.ErrCodeMappingParseError, "xrefs response line has no database column").
				WithDetail("line=" + text)
		}
		out = append(out, Pair{System: strings.TrimSpace(db), Value: value})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMappingParseError, "reading xrefs response")
	}
	return out, nil
}

// do performs a request with up to retries additional attempts.
func (c *Client) do(ctx context.Context, endpoint, method, path, body string, retries int) (string, error) {
	fullURL := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			c.log.Debug("retrying mapping request",
				logging.String("endpoint", endpoint),
				logging.Int("attempt", attempt),
				logging.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeInternal, "building mapping request")
		}
		requestID := uuid.New().String()
		req.Header.Set("Accept", "text/plain")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)
		if body != "" {
			req.Header.Set("Content-Type", "text/plain")
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.observe(endpoint, "error", time.Since(start))
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			c.log.Warn("mapping request failed",
				logging.String("endpoint", endpoint),
				logging.String("request_id", requestID),
				logging.Err(err))
			lastErr = err
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		c.observe(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < retries {
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				c.log.Info("mapping service rate limited", logging.Int("retry_after_s", seconds))
				select {
				case <-time.After(time.Duration(seconds) * time.Second):
				case <-ctx.Done():
					return "", ctx.Err()
				}
			}
			lastErr = &StatusError{StatusCode: resp.StatusCode, Body: string(respBody), RequestID: requestID}
			continue
		}
		if resp.StatusCode >= 400 {
			statusErr := &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 200), RequestID: requestID}
			lastErr = statusErr
			if statusErr.IsServerError() {
				continue
			}
			break
		}
		return string(respBody), nil
	}
	return "", errors.New(errors.ErrCodeMappingUnavailable, "mapping service request failed").
		WithDetail(fmt.Sprintf("endpoint=%s attempts=%d", endpoint, retries+1)).
		WithCause(lastErr)
}

func (c *Client) observe(endpoint, outcome string, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveMappingRequest(endpoint, outcome, d)
	}
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	if backoff < 4 {
		return backoff
	}
	// Jitter of up to 25%.
	return backoff + time.Duration(rand.Int63n(int64(backoff/4)))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
