package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"cparchive/internal/logger"
	"cparchive/internal/problem"
)

// hosts maps each source to the hostname substring that identifies it, in
// detection order.
var hosts = []struct {
	source problem.Source
	host   string
}{
	{problem.Codeforces, "codeforces.com"},
	{problem.AtCoder, "atcoder.jp"},
	{problem.LeetCode, "leetcode.com"},
	{problem.CodeChef, "codechef.com"},
}

var (
	mu        sync.RWMutex
	factories = map[problem.Source]Factory{}
)

// Register makes a source's extractor available to NewDispatcher. Sites
// call it from init.
func Register(source problem.Source, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[source] = f
}

// Registered lists the sources with a registered extractor, in detection
// order.
func Registered() []problem.Source {
	mu.RLock()
	defer mu.RUnlock()
	var out []problem.Source
	for _, h := range hosts {
		if _, ok := factories[h.source]; ok {
			out = append(out, h.source)
		}
	}
	return out
}

// Detect classifies rawURL by hostname. It does no fuzzy matching: a URL
// whose host contains none of the known domains is unsupported.
func Detect(rawURL string) (problem.Source, bool) {
	host := hostname(rawURL)
	if host == "" {
		return "", false
	}
	for _, h := range hosts {
		if strings.Contains(host, h.host) {
			return h.source, true
		}
	}
	return "", false
}

func hostname(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Dispatcher is the single entry point for extraction.
type Dispatcher struct {
	extractors map[problem.Source]Extractor
}

// NewDispatcher builds every registered extractor with deps.
func NewDispatcher(deps Deps) *Dispatcher {
	mu.RLock()
	defer mu.RUnlock()
	d := &Dispatcher{extractors: make(map[problem.Source]Extractor, len(factories))}
	for source, f := range factories {
		d.extractors[source] = f(deps)
	}
	return d
}

// NewDispatcherWith routes to the given extractors only.
func NewDispatcherWith(extractors ...Extractor) *Dispatcher {
	d := &Dispatcher{extractors: make(map[problem.Source]Extractor, len(extractors))}
	for _, e := range extractors {
		d.extractors[e.Source()] = e
	}
	return d
}

// Dispatch extracts the problem at rawURL with the matching extractor.
func (d *Dispatcher) Dispatch(ctx context.Context, rawURL string) (*problem.Record, error) {
	source, ok := Detect(rawURL)
	if !ok {
		return nil, problem.NewError(problem.ErrUnsupportedPlatform, "", rawURL, nil)
	}
	e, ok := d.extractors[source]
	if !ok {
		return nil, problem.NewError(problem.ErrUnsupportedPlatform, source, rawURL, errors.New("no extractor registered"))
	}

	record, err := e.Extract(ctx, strings.TrimSpace(rawURL))
	if err != nil {
		logger.For("scraper").Warn().Err(err).Str("source", source.String()).Str("url", rawURL).Msg("extraction failed")
		return nil, err
	}
	if record == nil {
		return nil, problem.NewError(problem.ErrExtractionFailed, source, rawURL, fmt.Errorf("extractor returned no record"))
	}
	logger.For("scraper").Info().
		Str("source", source.String()).
		Str("id", record.ID).
		Int("samples", len(record.SampleTests)).
		Msg("problem extracted")
	return record, nil
}
