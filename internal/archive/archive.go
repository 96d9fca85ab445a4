// Package archive is the caller side of extraction: it skips problems that
// are already stored under their canonical URL and persists new records.
package archive

import (
	"context"
	"errors"
	"fmt"

	"cparchive/internal/canonical"
	"cparchive/internal/logger"
	"cparchive/internal/problem"
	"cparchive/internal/store"
)

// Parser turns a problem URL into a record. *scraper.Dispatcher is one.
type Parser interface {
	Dispatch(ctx context.Context, rawURL string) (*problem.Record, error)
}

// Result is the outcome of Archive.
type Result struct {
	Record *problem.Record
	// Cached is set when the record came from the store without extracting.
	Cached bool
}

type Service struct {
	parser Parser
	store  store.Store
}

func NewService(parser Parser, s store.Store) *Service {
	return &Service{parser: parser, store: s}
}

// ParseProblem extracts the problem at rawURL. Nothing is stored.
func (s *Service) ParseProblem(ctx context.Context, rawURL string) (*problem.Record, error) {
	return s.parser.Dispatch(ctx, rawURL)
}

// Archive returns the stored record for rawURL's canonical form, or
// extracts and stores it. force skips the lookup.
func (s *Service) Archive(ctx context.Context, rawURL string, force bool) (*Result, error) {
	canonicalURL := canonical.Canonicalize(rawURL)

	if !force {
		existing, err := s.store.FindByCanonicalURL(ctx, canonicalURL)
		switch {
		case err == nil:
			logger.For("archive").Info().Str("id", existing.ID).Str("url", canonicalURL).Msg("problem already archived")
			return &Result{Record: existing, Cached: true}, nil
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("failed to look up %s: %w", canonicalURL, err)
		}
	}

	r, err := s.ParseProblem(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	saved, err := s.store.Upsert(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", r.ID, err)
	}
	return &Result{Record: saved}, nil
}

// Show returns the stored record with the given id.
func (s *Service) Show(ctx context.Context, id string) (*problem.Record, error) {
	return s.store.FindByID(ctx, id)
}
