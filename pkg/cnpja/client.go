// Package cnpja provides a client for the CNPJá commercial registry API.
package cnpja

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/radar-cli/internal/resilience"
)

const defaultBaseURL = "https://api.cnpja.com"

// Sentinel errors for responses the caller must act on.
var (
	ErrInvalidKey       = eris.New("cnpja: invalid or expired api key")
	ErrCreditsExhausted = eris.New("cnpja: credits exhausted")
)

// Client defines the CNPJá operations used by radar.
type Client interface {
	// Search lists offices matching the query.
	Search(ctx context.Context, q SearchQuery) (*SearchResponse, error)
	// Office returns full details for one tax id, or nil when unknown.
	Office(ctx context.Context, taxID string) (*Office, error)
}

// SearchQuery filters the office search.
type SearchQuery struct {
	Municipality string // IBGE code
	FoundedSince time.Time
	Limit        int
	Token        string // pagination cursor from SearchResponse.Next
}

// Option configures the CNPJá client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit throttles calls to perMinute requests. Zero disables it.
func WithRateLimit(perMinute int) Option {
	return func(c *httpClient) {
		if perMinute > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithMaxAge sets the maximum cache age, in days, CNPJá may serve for
// detail lookups.
func WithMaxAge(days int) Option {
	return func(c *httpClient) {
		c.maxAge = days
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	maxAge  int
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a CNPJá client. By default calls are limited to
// 10 per minute and details may be served from a cache up to 15 days old.
func NewClient(apiKey string, opts ...Option) Client {
	retry := resilience.DefaultRetryConfig()
	retry.ShouldRetry = shouldRetry
	retry.OnRetry = resilience.RetryLogger("cnpja", "request")

	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		maxAge:  15,
		http: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Every(6*time.Second), 1),
		retry:   retry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// shouldRetry retries transient failures except 429, which CNPJá uses to
// report an empty credit balance.
func shouldRetry(err error) bool {
	if resilience.StatusCode(err) == http.StatusTooManyRequests {
		return false
	}
	return resilience.IsTransient(err)
}

func (c *httpClient) Search(ctx context.Context, q SearchQuery) (*SearchResponse, error) {
	params := url.Values{}
	if q.Token != "" {
		params.Set("token", q.Token)
	} else {
		if q.Municipality != "" {
			params.Set("address.municipality.in", q.Municipality)
		}
		if !q.FoundedSince.IsZero() {
			params.Set("founded.gte", q.FoundedSince.Format(time.DateOnly))
		}
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	body, status, err := c.get(ctx, "/office?"+params.Encode())
	if err != nil {
		return nil, eris.Wrap(err, "cnpja: search")
	}
	if err := statusError(status, body); err != nil {
		return nil, err
	}

	var out SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "cnpja: unmarshal search response")
	}
	return &out, nil
}

func (c *httpClient) Office(ctx context.Context, taxID string) (*Office, error) {
	digits := Digits(taxID)
	if len(digits) != 14 {
		return nil, eris.Errorf("cnpja: invalid tax id %q", taxID)
	}

	params := url.Values{}
	if c.maxAge > 0 {
		params.Set("maxAge", strconv.Itoa(c.maxAge))
	}
	path := "/office/" + digits
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	body, status, err := c.get(ctx, path)
	if err != nil {
		return nil, eris.Wrapf(err, "cnpja: office %s", digits)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err := statusError(status, body); err != nil {
		return nil, err
	}

	var out Office
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "cnpja: unmarshal office")
	}
	return &out, nil
}

// get performs a rate-limited GET with retries on 5xx and network errors.
// Non-retryable statuses are returned to the caller with their body.
func (c *httpClient) get(ctx context.Context, path string) ([]byte, int, error) {
	type result struct {
		body   []byte
		status int
	}

	res, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (result, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return result{}, eris.Wrap(err, "rate limit")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return result{}, eris.Wrap(err, "create request")
		}
		req.Header.Set("Authorization", c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return result{}, err
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return result{}, eris.Wrap(err, "read response body")
		}

		if resp.StatusCode >= 500 {
			return result{}, resilience.CheckResponse("cnpja", resp, body)
		}
		return result{body: body, status: resp.StatusCode}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return res.body, res.status, nil
}

func statusError(status int, body []byte) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized:
		return ErrInvalidKey
	case status == http.StatusTooManyRequests:
		return ErrCreditsExhausted
	default:
		return eris.Errorf("cnpja: unexpected status %d: %s", status, truncate(string(body), 256))
	}
}

// Digits strips everything but digits from a tax id.
func Digits(taxID string) string {
	var b strings.Builder
	b.Grow(len(taxID))
	for _, r := range taxID {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
