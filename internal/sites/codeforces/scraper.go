// Package codeforces extracts problems from codeforces.com. The site
// fingerprints non-browser clients, so pages are rendered in the shared
// browser.
package codeforces

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
	scraper.Register(problem.Codeforces, func(d scraper.Deps) scraper.Extractor {
		return New(d.Browser, d.Clock())
	})
}

// /problemset/problem/158/A, /contest/158/problem/A, /gym/102001/problem/B1
var problemPath = regexp.MustCompile(`^/(?:problemset/problem/(\d+)/([A-Za-z][0-9]?)|(?:contest|gym)/(\d+)/problem/([A-Za-z][0-9]?))/?$`)

// removeCopiers drops the copy buttons rendered inside sample headers.
const removeCopiers = `() => {
	document.querySelectorAll('.input-output-copier').forEach(e => e.remove());
	return true;
}`

// Scraper is the Codeforces extractor.
type Scraper struct {
	fetcher *fetcher.Fetcher
	now     func() time.Time
}

// New returns a Codeforces extractor rendering pages with f.
func New(f *fetcher.Fetcher, now func() time.Time) *Scraper {
	return &Scraper{fetcher: f, now: now}
}

func (s *Scraper) Source() problem.Source { return problem.Codeforces }

// ProblemID returns the contest id and problem index joined, e.g. "158A".
func ProblemID(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !strings.Contains(strings.ToLower(u.Host), "codeforces.com") {
		return "", problem.NewError(problem.ErrInvalidURLFormat, problem.Codeforces, rawURL, fmt.Errorf("not a codeforces.com URL"))
	}
	m := problemPath.FindStringSubmatch(u.Path)
	if m == nil {
		return "", problem.NewError(problem.ErrInvalidURLFormat, problem.Codeforces, rawURL, fmt.Errorf("expected /problemset/problem/{contest}/{index}"))
	}
	contest, index := m[1]+m[3], m[2]+m[4]
	return contest + strings.ToUpper(index), nil
}

func (s *Scraper) Extract(ctx context.Context, rawURL string) (*problem.Record, error) {
	id, err := ProblemID(rawURL)
	if err != nil {
		return nil, err
	}
	canonicalURL := canonical.Canonicalize(rawURL)

	html, err := s.fetcher.Render(ctx, fetcher.Request{
		Source:       problem.Codeforces,
		URL:          canonicalURL,
		WaitSelector: ".problem-statement",
		Cleanup:      removeCopiers,
	})
	if err != nil {
		return nil, err
	}

	return s.parse(html, id, canonicalURL)
}

func (s *Scraper) parse(html, id, canonicalURL string) (*problem.Record, error) {
	doc, err := extractor.Document(html)
	if err != nil {
		return nil, problem.NewError(problem.ErrExtractionFailed, problem.Codeforces, canonicalURL, err)
	}

	r := problem.NewRecord(problem.Codeforces, id, canonicalURL, s.now())
	parse(doc.Selection, r)
	if err := extractor.Complete(r); err != nil {
		return nil, err
	}
	return r, nil
}
