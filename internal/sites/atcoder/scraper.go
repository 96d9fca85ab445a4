// Package atcoder extracts problems from atcoder.jp. Task pages are static
// and served to plain HTTP clients; the statement is bilingual.
package atcoder

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"cparchive/internal/canonical"
	"cparchive/internal/extractor"
	"cparchive/internal/fetcher"
	"cparchive/internal/problem"
	"cparchive/internal/scraper"
)

func init() {
	scraper.Register(problem.AtCoder, func(d scraper.Deps) scraper.Extractor {
		return New(d.HTTP, d.Clock())
	})
}

var taskPath = regexp.MustCompile(`^/contests/([A-Za-z0-9_-]+)/tasks/([A-Za-z0-9_-]+)/?$`)

// Scraper is the AtCoder extractor.
type Scraper struct {
	http *fetcher.HTTPClient
	now  func() time.Time
	// rewrite maps the canonical URL to the one fetched; tests point it at
	// a local server.
	rewrite func(string) string
}

// New returns an AtCoder extractor fetching pages with c.
func New(c *fetcher.HTTPClient, now func() time.Time) *Scraper {
	return &Scraper{http: c, now: now, rewrite: func(u string) string { return u + "?lang=en" }}
}

func (s *Scraper) Source() problem.Source { return problem.AtCoder }

// TaskID returns the task segment of a task URL, e.g. "abc300_a".
func TaskID(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !strings.Contains(strings.ToLower(u.Host), "atcoder.jp") {
		return "", problem.NewError(problem.ErrInvalidURLFormat, problem.AtCoder, rawURL, fmt.Errorf("not an atcoder.jp URL"))
	}
	m := taskPath.FindStringSubmatch(u.Path)
	if m == nil {
		return "", problem.NewError(problem.ErrInvalidURLFormat, problem.AtCoder, rawURL, fmt.Errorf("expected /contests/{contest}/tasks/{task}"))
	}
	return m[2], nil
}

func (s *Scraper) Extract(ctx context.Context, rawURL string) (*problem.Record, error) {
	id, err := TaskID(rawURL)
	if err != nil {
		return nil, err
	}
	canonicalURL := canonical.Canonicalize(rawURL)

	html, err := s.http.Get(ctx, problem.AtCoder, s.rewrite(canonicalURL))
	if err != nil {
		return nil, err
	}

	doc, err := extractor.Document(html)
	if err != nil {
		return nil, problem.NewError(problem.ErrExtractionFailed, problem.AtCoder, canonicalURL, err)
	}
	r := problem.NewRecord(problem.AtCoder, id, canonicalURL, s.now())
	parse(doc.Selection, r)
	if err := extractor.Complete(r); err != nil {
		return nil, err
	}
	return r, nil
}
