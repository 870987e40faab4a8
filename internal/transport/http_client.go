package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/time/rate"

	"github.com/jwaldner/litsync/internal/config"
	"github.com/jwaldner/litsync/internal/events"
	"github.com/jwaldner/litsync/internal/models"
)

// defaultBackoff is used when a rate-limit response carries no parseable
// hint.
const defaultBackoff = 5 * time.Second

// HTTPClient handles HTTP communication with the remote library API.
type HTTPClient struct {
	client    *http.Client
	baseURL   string
	userAgent string
	apiKey    string
	limiter   *rate.Limiter
	logger    *events.Logger

	// Retry ceiling for rate-limited requests
	maxRetries int

	// Overridable for tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewHTTPClient creates an HTTP client.
func NewHTTPClient(cfg *config.APIConfig, logger *events.Logger) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			NextProtos: []string{"h2", "http/1.1"},
		},
	}

	if err := http2.ConfigureTransport(transport); err != nil {
		logger.WithError(err).Warn("Failed to configure HTTP/2")
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		maxRetries: cfg.MaxRetries,
		logger:     logger.WithField("component", "http_client"),
		sleep:      sleepContext,
	}
}

// SetAPIKey sets the credential sent with every request.
func (c *HTTPClient) SetAPIKey(key string) {
	c.apiKey = key
}

// GetJSON issues a GET for a JSON resource, retrying rate-limited
// responses up to the retry ceiling.
func (c *HTTPClient) GetJSON(ctx context.Context, path string, query url.Values) (*APIResponse, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	c.logger.WithFields(map[string]interface{}{
		"method": "GET",
		"url":    reqURL,
	}).Debug("Sending request")

	resp, body, err := c.do(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"status": resp.StatusCode,
		"size":   len(body),
	}).Debug("Received response")

	if resp.StatusCode != http.StatusOK {
		return nil, &models.APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return &APIResponse{
		Body:         body,
		StatusCode:   resp.StatusCode,
		Version:      headerInt(resp, HeaderLibraryVer),
		TotalResults: headerInt(resp, HeaderTotalResults),
	}, nil
}

// Download fetches raw bytes for an attachment resource.
func (c *HTTPClient) Download(ctx context.Context, path string) ([]byte, error) {
	reqURL := c.baseURL + path

	c.logger.WithField("url", reqURL).Debug("Downloading")

	resp, body, err := c.do(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &models.APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	c.logger.WithField("size", len(body)).Debug("Downloaded")

	return body, nil
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// do executes one request, sleeping and retrying the same request when
// the response carries a rate-limit signal. Non-rate-limit failures are
// returned immediately.
func (c *HTTPClient) do(ctx context.Context, reqURL string) (*http.Response, []byte, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set(HeaderAPIVersion, APIVersion)
		if c.apiKey != "" {
			req.Header.Set(HeaderAPIKey, c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, nil, fmt.Errorf("execute request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("read response: %w", err)
		}

		delay, limited := rateLimit(resp)
		if !limited {
			return resp, body, nil
		}

		if attempt >= c.maxRetries {
			return nil, nil, fmt.Errorf("max retries exceeded: %w", models.ErrRateLimited)
		}

		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   delay,
			"status":  resp.StatusCode,
		}).Debug("Rate limited, backing off")

		if err := c.sleep(ctx, delay); err != nil {
			return nil, nil, err
		}
	}
}

// rateLimit reports whether the response carries a rate-limit signal and
// how long to back off before retrying.
func rateLimit(resp *http.Response) (time.Duration, bool) {
	limited := resp.StatusCode == http.StatusTooManyRequests ||
		resp.Header.Get(HeaderBackoff) != ""

	if !limited {
		return 0, false
	}

	for _, h := range []string{HeaderBackoff, HeaderRetryAfter} {
		if v := resp.Header.Get(h); v != "" {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second, true
			}
		}
	}

	return defaultBackoff, true
}

func headerInt(resp *http.Response, name string) int {
	v := resp.Header.Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
