package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cparchive/internal/browser"
	"cparchive/internal/logger"
	"cparchive/internal/problem"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// HTTPConfig tunes the plain HTTP client.
type HTTPConfig struct {
	Timeout   time.Duration
	ProxyURL  string
	UserAgent string
}

// HTTPClient fetches pages and API responses without a browser.
type HTTPClient struct {
	client *resty.Client
}

// NewHTTPClient returns a client whose transport mimics a browser TLS and
// header fingerprint.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = browser.DefaultUserAgent
	}

	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", cfg.UserAgent)
	client.SetHeader("accept-language", "en-US,en;q=0.9")
	client.SetTimeout(cfg.Timeout)
	if cfg.ProxyURL != "" {
		client.SetProxy(cfg.ProxyURL)
	}

	return &HTTPClient{client: client}
}

// Get returns the body of url.
func (c *HTTPClient) Get(ctx context.Context, source problem.Source, url string) (string, error) {
	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("accept", "text/html,application/xhtml+xml").
		Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if err := StatusError(source, url, res.StatusCode(), res.String()); err != nil {
		return "", err
	}
	if Blocked(res.String()) {
		return "", problem.NewError(problem.ErrUpstreamBlocked, source, url, fmt.Errorf("challenge page served"))
	}

	logger.For("fetcher").Debug().
		Str("source", source.String()).
		Str("url", url).
		Int("status", res.StatusCode()).
		Dur("took", res.Time()).
		Msg("page fetched")
	return res.String(), nil
}

// PostJSON sends body as JSON to url and decodes the response into out.
func (c *HTTPClient) PostJSON(ctx context.Context, source problem.Source, url string, headers map[string]string, body, out any) error {
	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetHeaders(headers).
		SetBody(body).
		Post(url)
	if err != nil {
		return fmt.Errorf("failed to post to %s: %w", url, err)
	}
	if err := StatusError(source, url, res.StatusCode(), res.String()); err != nil {
		return err
	}
	if err := json.Unmarshal(res.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

// StatusError maps an HTTP status to an error kind. It returns nil for 2xx.
func StatusError(source problem.Source, url string, status int, body string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return problem.NewError(problem.ErrSourceNotFound, source, url, fmt.Errorf("status %d", status))
	case status == http.StatusForbidden, status == http.StatusTooManyRequests:
		return problem.NewError(problem.ErrUpstreamBlocked, source, url, fmt.Errorf("status %d", status))
	case status == http.StatusServiceUnavailable && Blocked(body):
		return problem.NewError(problem.ErrUpstreamBlocked, source, url, fmt.Errorf("status %d", status))
	default:
		return fmt.Errorf("unexpected status %d from %s: %s", status, url, snippet(body))
	}
}

func snippet(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > 200 {
		return body[:200] + "..."
	}
	return body
}
