// Package scraper routes problem URLs to the extractor of the site they
// belong to.
package scraper

import (
	"context"
	"time"

	"cparchive/internal/fetcher"
	"cparchive/internal/problem"
)

// Extractor turns a problem URL of one source into a Record.
type Extractor interface {
	Source() problem.Source
	// Extract validates url against the source's identifier pattern before
	// any network I/O and fails with problem.ErrInvalidURLFormat if it does
	// not match.
	Extract(ctx context.Context, url string) (*problem.Record, error)
}

// Content is a renderable result, see problem.Content.
type Content interface {
	ToHTML() (string, error)
	ToText() (string, error)
	ToMarkdown() (string, error)
	ToJSON() ([]byte, error)
	ToCSV() (string, error)
}

// Deps are the shared collaborators an extractor may need.
type Deps struct {
	// Browser renders JavaScript-heavy or fingerprinting sources.
	Browser *fetcher.Fetcher
	// HTTP serves static pages and APIs.
	HTTP *fetcher.HTTPClient
	// Now stamps records; time.Now when nil.
	Now func() time.Time
}

// Clock returns d.Now or time.Now.
func (d Deps) Clock() func() time.Time {
	if d.Now != nil {
		return d.Now
	}
	return time.Now
}

// Factory builds a source's extractor.
type Factory func(Deps) Extractor
