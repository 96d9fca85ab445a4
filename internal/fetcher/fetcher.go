// Package fetcher acquires the raw HTML of problem pages, either by
// rendering them in the shared browser or with a plain HTTP request.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cparchive/internal/browser"
	"cparchive/internal/logger"
	"cparchive/internal/problem"
)

// Timeouts bound the phases of a browser fetch.
type Timeouts struct {
	// Navigation bounds the page load. Expiry fails the fetch.
	Navigation time.Duration
	// Content bounds the wait for the content selector. Expiry is not an
	// error: whatever has rendered so far is used.
	Content time.Duration
}

// DefaultTimeouts are used for zero fields.
var DefaultTimeouts = Timeouts{
	Navigation: 30 * time.Second,
	Content:    5 * time.Second,
}

// Request describes one page to render.
type Request struct {
	Source problem.Source
	URL    string
	// WaitSelector signals that the content has rendered.
	WaitSelector string
	// Cleanup is an optional script run in the page before the HTML is
	// read, e.g. to expand collapsed sections.
	Cleanup string
}

// Fetcher renders pages in isolated browser contexts.
type Fetcher struct {
	sessions *browser.Manager
	timeouts Timeouts
}

// NewFetcher returns a Fetcher drawing contexts from sessions.
func NewFetcher(sessions *browser.Manager, timeouts Timeouts) *Fetcher {
	if timeouts.Navigation <= 0 {
		timeouts.Navigation = DefaultTimeouts.Navigation
	}
	if timeouts.Content <= 0 {
		timeouts.Content = DefaultTimeouts.Content
	}
	return &Fetcher{sessions: sessions, timeouts: timeouts}
}

// Render navigates to req.URL in a fresh context and returns the rendered
// HTML. Session errors are returned untouched.
func (f *Fetcher) Render(ctx context.Context, req Request) (string, error) {
	start := time.Now()

	c, err := f.sessions.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := c.Release(); err != nil {
			logger.For("fetcher").Debug().Err(err).Msg("failed to release browser context")
		}
	}()

	if err := c.Navigate(ctx, req.URL, f.timeouts.Navigation); err != nil {
		return "", fmt.Errorf("failed to load %s: %w", req.URL, err)
	}

	if req.WaitSelector != "" {
		if err := c.WaitFor(ctx, req.WaitSelector, f.timeouts.Content); err != nil {
			logger.For("fetcher").Debug().
				Err(err).
				Str("source", req.Source.String()).
				Str("selector", req.WaitSelector).
				Msg("content did not appear in time, extracting what rendered")
		}
	}

	if req.Cleanup != "" {
		evalCtx, cancel := context.WithTimeout(ctx, f.timeouts.Content)
		if err := c.Eval(evalCtx, req.Cleanup, nil); err != nil {
			logger.For("fetcher").Debug().Err(err).Str("source", req.Source.String()).Msg("page cleanup script failed")
		}
		cancel()
	}

	html, err := c.HTML(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", req.URL, err)
	}

	if Blocked(html) {
		return "", problem.NewError(problem.ErrUpstreamBlocked, req.Source, req.URL, errors.New("challenge page served"))
	}

	logger.For("fetcher").Debug().
		Str("source", req.Source.String()).
		Str("url", req.URL).
		Int("bytes", len(html)).
		Dur("took", time.Since(start)).
		Msg("page rendered")
	return html, nil
}

// challengeMarkers identify anti-bot interstitials served in place of the
// requested page.
var challengeMarkers = []string{
	"cf-browser-verification",
	"cf-challenge-running",
	"<title>Just a moment...</title>",
	"<title>Attention Required! | Cloudflare</title>",
	"Access denied | ",
}

// Blocked reports whether html is an anti-bot challenge or denial page.
func Blocked(html string) bool {
	for _, marker := range challengeMarkers {
		if strings.Contains(html, marker) {
			return true
		}
	}
	return false
}
