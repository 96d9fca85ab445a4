// Package browser owns the shared headless browser. A Manager launches one
// browser process on first use, hands out isolated contexts (separate
// cookie and storage jars) to concurrent extractions, relaunches after a
// crash and shuts the process down once it has been idle for a while.
package browser

import (
	"context"
	"time"
)

// DefaultUserAgent is presented by every context instead of the headless
// default, which several sources refuse outright.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultIdleTimeout is how long an unused browser process is kept alive.
const DefaultIdleTimeout = 5 * time.Minute

// Config selects and tunes the automation backend.
type Config struct {
	Headless bool
	// NoSandbox is required when running as root inside containers.
	NoSandbox bool
	// Bin overrides the locally installed browser lookup.
	Bin string
	// BundledBin is the minimal browser binary shipped for constrained
	// environments.
	BundledBin string
	// Constrained skips the local automation driver and goes straight to
	// BundledBin.
	Constrained bool
	ProxyURL    string
	UserAgent   string
	IdleTimeout time.Duration
}

func (c Config) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return DefaultUserAgent
}

// Backend is a running browser process.
type Backend interface {
	Name() string
	// NewPage opens a page in a fresh isolated browsing context.
	NewPage(ctx context.Context) (Page, error)
	// Alive reports whether the process still answers.
	Alive() bool
	Close() error
}

// Page is one tab inside an isolated browsing context. Closing it disposes
// of the context as well.
type Page interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// WaitFor blocks until selector matches or timeout expires.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	// Eval runs a JavaScript function expression such as "() => document.title"
	// in the page and decodes its JSON result into out.
	Eval(ctx context.Context, js string, out any) error
	HTML(ctx context.Context) (string, error)
	Close() error
}

// stealthJS hides the most common automation giveaway.
const stealthJS = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`
