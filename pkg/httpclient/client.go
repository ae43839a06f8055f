package httpclient

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	apperrors "github.com/Eakan-Git/Bookworm/pkg/errors"
)

// Config holds HTTP client configuration.
type Config struct {
	// Timeout bounds the whole request. Requests exceeding it fail as a
	// network error.
	Timeout time.Duration

	// MaxRetries is the number of automatic retries on network and 5xx
	// failures. The storefront keeps this at 0: the only replay it performs
	// is the single token-refresh retry in the API transport.
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	MaxConnsPerHost int
}

// DefaultConfig returns the storefront defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:         5 * time.Second,
		MaxRetries:      0,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 20,
	}
}

// Client wraps http.Client with a fixed timeout, optional retries, a cookie
// jar (the refresh credential is cookie-borne) and trace-context injection.
type Client struct {
	httpClient *http.Client
	config     Config
}

// New creates a new HTTP client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	// Session refresh tokens arrive as HTTP-only cookies; the jar plays the
	// part of the browser cookie store.
	jar, _ := cookiejar.New(nil)

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			Jar:       jar,
		},
		config: cfg,
	}
}

// Do executes an HTTP request. Transport-level failures (DNS, refused
// connection, timeout) are returned as a network AppError so callers can
// classify them without inspecting the cause chain.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	var resp *http.Response
	var err error

	start := time.Now()
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.config.RetryWaitMin * time.Duration(1<<uint(attempt-1))
			if wait > c.config.RetryWaitMax {
				wait = c.config.RetryWaitMax
			}

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			requestRetriesTotal.Inc()
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			if isRetryableError(err) && attempt < c.config.MaxRetries {
				continue
			}
			observeRequest(req.Method, 0, start)
			return nil, apperrors.Network(err)
		}

		// Retry on 5xx (except 501), when retries are enabled.
		if resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented && attempt < c.config.MaxRetries {
			resp.Body.Close()
			continue
		}

		observeRequest(req.Method, resp.StatusCode, start)
		return resp, nil
	}

	observeRequest(req.Method, 0, start)
	return resp, err
}

// Get performs an HTTP GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, apperrors.Wrap(err, "create GET request")
	}
	return c.Do(ctx, req)
}

// Post performs an HTTP POST request.
func (c *Client) Post(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, apperrors.Wrap(err, "create POST request")
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(ctx, req)
}

// CookieJar exposes the client's cookie store. Tests use it to seed the
// refresh cookie the way a prior login would have.
func (c *Client) CookieJar() http.CookieJar {
	return c.httpClient.Jar
}

func observeRequest(method string, status int, start time.Time) {
	label := "network_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	requestsTotal.WithLabelValues(method, label).Inc()
	requestDuration.WithLabelValues(method, label).Observe(time.Since(start).Seconds())
}

// isRetryableError determines if a transport error is retryable.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if err == context.Canceled || err == context.DeadlineExceeded {
		return false
	}

	if _, ok := err.(net.Error); ok {
		return true
	}

	return false
}
