// Package codechef extracts problems from codechef.com. The problem page is
// a client-rendered app behind bot detection, so it is rendered in the
// shared browser.
package codechef

import (
	"context"
	"errors"
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
	scraper.Register(problem.CodeChef, func(d scraper.Deps) scraper.Extractor {
		return New(d.Browser, d.Clock())
	})
}

// /problems/FLOW001, /START100A/problems/ADDTWO, /practice/course/x/y/problems/Z
var problemPath = regexp.MustCompile(`^(?:/[A-Za-z0-9_-]+)*/problems/([A-Za-z0-9_]+)/?$`)

// removeChrome drops copy buttons and the collapsed submission widgets.
const removeChrome = `() => {
	document.querySelectorAll('#problem-statement button, [class*="copy"]').forEach(e => e.remove());
	return true;
}`

// Scraper is the CodeChef extractor.
type Scraper struct {
	fetcher *fetcher.Fetcher
	now     func() time.Time
}

// New returns a CodeChef extractor rendering pages with f.
func New(f *fetcher.Fetcher, now func() time.Time) *Scraper {
	return &Scraper{fetcher: f, now: now}
}

func (s *Scraper) Source() problem.Source { return problem.CodeChef }

// ProblemCode returns the upper-cased problem code of a problem URL.
func ProblemCode(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !strings.Contains(strings.ToLower(u.Host), "codechef.com") {
		return "", problem.NewError(problem.ErrInvalidURLFormat, problem.CodeChef, rawURL, fmt.Errorf("not a codechef.com URL"))
	}
	m := problemPath.FindStringSubmatch(u.Path)
	if m == nil {
		return "", problem.NewError(problem.ErrInvalidURLFormat, problem.CodeChef, rawURL, fmt.Errorf("expected /problems/{code}"))
	}
	return strings.ToUpper(m[1]), nil
}

func (s *Scraper) Extract(ctx context.Context, rawURL string) (*problem.Record, error) {
	code, err := ProblemCode(rawURL)
	if err != nil {
		return nil, err
	}
	canonicalURL := canonical.Canonicalize(rawURL)

	html, err := s.fetcher.Render(ctx, fetcher.Request{
		Source:       problem.CodeChef,
		URL:          canonicalURL,
		WaitSelector: "#problem-statement, .problem-statement",
		Cleanup:      removeChrome,
	})
	if err != nil {
		return nil, err
	}

	doc, err := extractor.Document(html)
	if err != nil {
		return nil, problem.NewError(problem.ErrExtractionFailed, problem.CodeChef, canonicalURL, err)
	}
	if missing(doc.Selection) {
		return nil, problem.NewError(problem.ErrSourceNotFound, problem.CodeChef, canonicalURL, errors.New("page reports no such problem"))
	}

	r := problem.NewRecord(problem.CodeChef, code, canonicalURL, s.now())
	parse(doc.Selection, r)
	if err := extractor.Complete(r); err != nil {
		return nil, err
	}
	return r, nil
}
