package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cparchive/internal/logger"
	"cparchive/internal/problem"

	"golang.org/x/sync/singleflight"
)

// ErrClosed is returned by Acquire once the Manager has been closed.
var ErrClosed = errors.New("browser manager closed")

// Launcher starts a Backend.
type Launcher struct {
	Name   string
	Launch func(ctx context.Context, cfg Config) (Backend, error)
}

// Launchers returns the launch strategies for cfg in order of preference.
// Constrained environments use the bundled binary only; elsewhere the
// local automation driver is tried first.
func Launchers(cfg Config) []Launcher {
	bundled := Launcher{Name: "bundled", Launch: LaunchBundled}
	if cfg.Constrained {
		return []Launcher{bundled}
	}
	local := Launcher{Name: "local", Launch: LaunchLocal}
	if cfg.BundledBin == "" {
		return []Launcher{local}
	}
	return []Launcher{local, bundled}
}

// Manager shares one browser process between concurrent extractions.
type Manager struct {
	cfg       Config
	launchers []Launcher
	group     singleflight.Group

	mu      sync.Mutex
	backend Backend
	active  int
	timer   *time.Timer
	closed  bool
	// generation invalidates idle timers armed before the last reset.
	generation uint64
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLaunchers replaces the launch strategies derived from the config.
func WithLaunchers(launchers ...Launcher) Option {
	return func(m *Manager) {
		m.launchers = launchers
	}
}

// NewManager returns a Manager. Nothing is launched until the first Acquire.
func NewManager(cfg Config, opts ...Option) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	m := &Manager{cfg: cfg}
	m.launchers = Launchers(cfg)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Context is an isolated browsing context checked out of a Manager.
type Context struct {
	Page
	m    *Manager
	once sync.Once
	err  error
}

// Release closes the context and returns it to the manager. Calling it
// more than once is harmless.
func (c *Context) Release() error {
	c.once.Do(func() {
		c.err = c.Page.Close()
		c.m.release()
	})
	return c.err
}

// Acquire returns a fresh isolated context, launching or relaunching the
// browser if needed. It fails with problem.ErrAutomationUnavailable when no
// launch strategy succeeds.
func (m *Manager) Acquire(ctx context.Context) (*Context, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.active++
	m.resetTimerLocked()
	stale := m.backend
	if stale != nil && !stale.Alive() {
		m.backend = nil
	} else {
		stale = nil
	}
	m.mu.Unlock()

	if stale != nil {
		logger.For("browser").Warn().Str("backend", stale.Name()).Msg("browser is not responding, relaunching")
		_ = stale.Close()
	}

	backend, err := m.ensureBackend(ctx)
	if err != nil {
		m.release()
		return nil, err
	}

	page, err := backend.NewPage(ctx)
	if err != nil {
		m.release()
		if !backend.Alive() {
			m.invalidate(backend)
		}
		return nil, fmt.Errorf("failed to open browser context: %w", err)
	}

	return &Context{Page: page, m: m}, nil
}

// ensureBackend returns the live backend, launching one if there is none.
// Concurrent callers share a single in-flight launch.
func (m *Manager) ensureBackend(ctx context.Context) (Backend, error) {
	m.mu.Lock()
	if b := m.backend; b != nil {
		m.mu.Unlock()
		return b, nil
	}
	m.mu.Unlock()

	ch := m.group.DoChan("launch", func() (any, error) {
		m.mu.Lock()
		if b := m.backend; b != nil {
			m.mu.Unlock()
			return b, nil
		}
		m.mu.Unlock()

		b, err := m.launch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		if m.closed {
			// Close ran while the process was starting.
			m.mu.Unlock()
			_ = b.Close()
			return nil, ErrClosed
		}
		m.backend = b
		m.mu.Unlock()
		return b, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Backend), nil
	}
}

func (m *Manager) launch(ctx context.Context) (Backend, error) {
	var errs []error
	for _, l := range m.launchers {
		start := time.Now()
		b, err := l.Launch(ctx, m.cfg)
		if err != nil {
			logger.For("browser").Warn().Err(err).Str("launcher", l.Name).Msg("browser launch failed")
			errs = append(errs, fmt.Errorf("%s: %w", l.Name, err))
			continue
		}
		logger.For("browser").Info().
			Str("launcher", l.Name).
			Str("backend", b.Name()).
			Dur("took", time.Since(start)).
			Msg("browser launched")
		return b, nil
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no launch strategy configured"))
	}
	return nil, problem.NewError(problem.ErrAutomationUnavailable, "", "", errors.Join(errs...))
}

func (m *Manager) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active > 0 {
		m.active--
	}
	m.resetTimerLocked()
}

func (m *Manager) invalidate(b Backend) {
	m.mu.Lock()
	if m.backend != b {
		m.mu.Unlock()
		return
	}
	m.backend = nil
	m.mu.Unlock()

	logger.For("browser").Warn().Str("backend", b.Name()).Msg("browser disconnected, dropping it")
	_ = b.Close()
}

func (m *Manager) resetTimerLocked() {
	if m.closed {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.generation++
	gen := m.generation
	m.timer = time.AfterFunc(m.cfg.IdleTimeout, func() {
		m.idle(gen)
	})
}

// idle tears the browser down unless it was used since the timer was armed
// or a context is still checked out.
func (m *Manager) idle(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || m.backend == nil {
		m.mu.Unlock()
		return
	}
	if m.active > 0 {
		m.resetTimerLocked()
		m.mu.Unlock()
		return
	}
	b := m.backend
	m.backend = nil
	m.timer = nil
	m.mu.Unlock()

	logger.For("browser").Info().Str("backend", b.Name()).Dur("idle", m.cfg.IdleTimeout).Msg("closing idle browser")
	if err := b.Close(); err != nil {
		logger.For("browser").Warn().Err(err).Msg("failed to close idle browser")
	}
}

// Running reports whether a browser process is currently held.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backend != nil
}

// Close shuts the browser down immediately. A launch still in flight is
// shut down when it completes, and later Acquire calls fail with ErrClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.generation++
	b := m.backend
	m.backend = nil
	m.mu.Unlock()

	if b == nil {
		return nil
	}
	return b.Close()
}
