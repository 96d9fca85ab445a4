// Package leetcode extracts problems from leetcode.com through its GraphQL
// API; problem pages themselves are rendered client side.
package leetcode

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"cparchive/internal/canonical"
	"cparchive/internal/extractor"
	"cparchive/internal/problem"
	"cparchive/internal/scraper"
)

func init() {
	scraper.Register(problem.LeetCode, func(d scraper.Deps) scraper.Extractor {
		return New(NewClient(d.HTTP, Endpoint), d.Clock())
	})
}

// /problems/two-sum, optionally followed by one of the page's tabs, e.g.
// /problems/two-sum/solutions/123456/hash-map/
var problemPath = regexp.MustCompile(`^/problems/([A-Za-z0-9-]+)(?:/(?:description|editorial|solutions|submissions|discuss)(?:/[^?#]*)?)?/?$`)

// Scraper is the LeetCode extractor.
type Scraper struct {
	client *Client
	now    func() time.Time
}

// New returns a LeetCode extractor querying through client.
func New(client *Client, now func() time.Time) *Scraper {
	return &Scraper{client: client, now: now}
}

func (s *Scraper) Source() problem.Source { return problem.LeetCode }

// Slug returns the title slug of a problem URL, e.g. "two-sum".
func Slug(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !strings.Contains(strings.ToLower(u.Host), "leetcode.com") {
		return "", problem.NewError(problem.ErrInvalidURLFormat, problem.LeetCode, rawURL, fmt.Errorf("not a leetcode.com URL"))
	}
	m := problemPath.FindStringSubmatch(u.Path)
	if m == nil {
		return "", problem.NewError(problem.ErrInvalidURLFormat, problem.LeetCode, rawURL, fmt.Errorf("expected /problems/{slug}"))
	}
	return strings.ToLower(m[1]), nil
}

// problemURL is the canonical URL of the problem itself, whichever tab
// rawURL pointed at.
func problemURL(rawURL, slug string) string {
	u, err := url.Parse(canonical.Canonicalize(rawURL))
	if err != nil {
		return rawURL
	}
	u.Path = "/problems/" + slug
	u.RawPath = ""
	return u.String()
}

func (s *Scraper) Extract(ctx context.Context, rawURL string) (*problem.Record, error) {
	slug, err := Slug(rawURL)
	if err != nil {
		return nil, err
	}
	canonicalURL := problemURL(rawURL, slug)

	q, err := s.client.Question(ctx, slug, canonicalURL)
	if err != nil {
		return nil, err
	}

	r := problem.NewRecord(problem.LeetCode, slug, canonicalURL, s.now())
	if err := parse(q, r); err != nil {
		return nil, problem.NewError(problem.ErrExtractionFailed, problem.LeetCode, canonicalURL, err)
	}
	if err := extractor.Complete(r); err != nil {
		return nil, err
	}
	return r, nil
}
