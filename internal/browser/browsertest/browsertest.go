// Package browsertest provides an in-memory browser backend that serves
// canned HTML, for testing code that renders pages through a Manager.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cparchive/internal/browser"
)

// Backend serves Pages[url] for every navigation. Unknown URLs render an
// empty document.
type Backend struct {
	mu        sync.Mutex
	pages     map[string]string
	navigated []string
	// NavigateErr, when set, fails every navigation.
	NavigateErr error
	// WaitErr, when set, fails every WaitFor.
	WaitErr error
}

// New returns a Backend serving pages keyed by URL.
func New(pages map[string]string) *Backend {
	return &Backend{pages: pages}
}

// Manager returns a browser.Manager whose only launcher yields b.
func (b *Backend) Manager() *browser.Manager {
	return browser.NewManager(browser.Config{}, browser.WithLaunchers(browser.Launcher{
		Name: "browsertest",
		Launch: func(context.Context, browser.Config) (browser.Backend, error) {
			return b, nil
		},
	}))
}

// Navigated lists the URLs navigated to, in order.
func (b *Backend) Navigated() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.navigated...)
}

func (b *Backend) Name() string { return "browsertest" }

func (b *Backend) NewPage(context.Context) (browser.Page, error) {
	return &page{backend: b}, nil
}

func (b *Backend) Alive() bool { return true }

func (b *Backend) Close() error { return nil }

type page struct {
	backend *Backend
	html    string
}

func (p *page) Navigate(_ context.Context, url string, _ time.Duration) error {
	b := p.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	b.navigated = append(b.navigated, url)
	if b.NavigateErr != nil {
		return b.NavigateErr
	}
	html, ok := b.pages[url]
	if !ok {
		html = "<html><head></head><body></body></html>"
	}
	p.html = html
	return nil
}

func (p *page) WaitFor(_ context.Context, selector string, _ time.Duration) error {
	if p.backend.WaitErr != nil {
		return fmt.Errorf("waiting for %s: %w", selector, p.backend.WaitErr)
	}
	return nil
}

func (p *page) Eval(context.Context, string, any) error { return nil }

func (p *page) HTML(context.Context) (string, error) { return p.html, nil }

func (p *page) Close() error { return nil }
