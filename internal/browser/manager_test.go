package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cparchive/internal/problem"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	name   string
	dead   atomic.Bool
	closed atomic.Bool
	pages  atomic.Int32
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) NewPage(context.Context) (Page, error) {
	if b.dead.Load() {
		return nil, errors.New("connection closed")
	}
	n := b.pages.Add(1)
	return &fakePage{id: int(n)}, nil
}

func (b *fakeBackend) Alive() bool { return !b.dead.Load() }

func (b *fakeBackend) Close() error {
	b.closed.Store(true)
	return nil
}

type fakePage struct {
	id     int
	closed atomic.Int32
}

func (p *fakePage) Navigate(context.Context, string, time.Duration) error { return nil }
func (p *fakePage) WaitFor(context.Context, string, time.Duration) error  { return nil }
func (p *fakePage) Eval(context.Context, string, any) error               { return nil }
func (p *fakePage) HTML(context.Context) (string, error)                  { return "<html></html>", nil }
func (p *fakePage) Close() error {
	p.closed.Add(1)
	return nil
}

// countingLauncher records launches and returns a new fakeBackend each time.
type countingLauncher struct {
	mu       sync.Mutex
	launches int
	backends []*fakeBackend
	delay    time.Duration
}

func (l *countingLauncher) launcher() Launcher {
	return Launcher{Name: "fake", Launch: func(context.Context, Config) (Backend, error) {
		time.Sleep(l.delay)
		l.mu.Lock()
		defer l.mu.Unlock()
		l.launches++
		b := &fakeBackend{name: fmt.Sprintf("fake-%d", l.launches)}
		l.backends = append(l.backends, b)
		return b, nil
	}}
}

func (l *countingLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

func (l *countingLauncher) last() *fakeBackend {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backends[len(l.backends)-1]
}

func failing(name string) Launcher {
	return Launcher{Name: name, Launch: func(context.Context, Config) (Backend, error) {
		return nil, fmt.Errorf("%s not installed", name)
	}}
}

func TestConcurrentAcquireLaunchesOnce(t *testing.T) {
	l := &countingLauncher{delay: 50 * time.Millisecond}
	m := NewManager(Config{}, WithLaunchers(l.launcher()))
	defer m.Close()

	const n = 8
	var wg sync.WaitGroup
	pages := make([]*Context, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pages[i], errs[i] = m.Acquire(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, l.count())
	seen := map[int]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		id := pages[i].Page.(*fakePage).id
		assert.False(t, seen[id], "context %d handed out twice", id)
		seen[id] = true
		require.NoError(t, pages[i].Release())
	}
}

func TestIdleTeardownAndRelaunch(t *testing.T) {
	l := &countingLauncher{}
	m := NewManager(Config{IdleTimeout: 50 * time.Millisecond}, WithLaunchers(l.launcher()))
	defer m.Close()

	c, err := m.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Release())
	first := l.last()

	require.Eventually(t, func() bool { return !m.Running() }, time.Second, 10*time.Millisecond)
	assert.True(t, first.closed.Load())

	c, err = m.Acquire(context.Background())
	require.NoError(t, err)
	defer c.Release()
	assert.Equal(t, 2, l.count())
	assert.True(t, m.Running())
}

func TestIdleTeardownWaitsForActiveContexts(t *testing.T) {
	l := &countingLauncher{}
	m := NewManager(Config{IdleTimeout: 20 * time.Millisecond}, WithLaunchers(l.launcher()))
	defer m.Close()

	c, err := m.Acquire(context.Background())
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	assert.True(t, m.Running())
	assert.False(t, l.last().closed.Load())

	require.NoError(t, c.Release())
	require.Eventually(t, func() bool { return !m.Running() }, time.Second, 10*time.Millisecond)
}

func TestDeadBackendIsRelaunched(t *testing.T) {
	l := &countingLauncher{}
	m := NewManager(Config{}, WithLaunchers(l.launcher()))
	defer m.Close()

	c, err := m.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Release())

	crashed := l.last()
	crashed.dead.Store(true)

	c, err = m.Acquire(context.Background())
	require.NoError(t, err)
	defer c.Release()

	assert.Equal(t, 2, l.count())
	assert.True(t, crashed.closed.Load())
	assert.NotSame(t, crashed, l.last())
}

func TestAllLaunchersFail(t *testing.T) {
	m := NewManager(Config{}, WithLaunchers(failing("local"), failing("bundled")))
	defer m.Close()

	_, err := m.Acquire(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, problem.ErrAutomationUnavailable)
	assert.Contains(t, err.Error(), "local not installed")
	assert.Contains(t, err.Error(), "bundled not installed")
	assert.False(t, m.Running())
}

func TestLaunchFallsBackToNextStrategy(t *testing.T) {
	l := &countingLauncher{}
	m := NewManager(Config{}, WithLaunchers(failing("local"), l.launcher()))
	defer m.Close()

	c, err := m.Acquire(context.Background())
	require.NoError(t, err)
	defer c.Release()
	assert.Equal(t, 1, l.count())
}

func TestReleaseIsIdempotent(t *testing.T) {
	l := &countingLauncher{}
	m := NewManager(Config{}, WithLaunchers(l.launcher()))
	defer m.Close()

	c, err := m.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Release())
	require.NoError(t, c.Release())

	assert.Equal(t, int32(1), c.Page.(*fakePage).closed.Load())
	m.mu.Lock()
	assert.Equal(t, 0, m.active)
	m.mu.Unlock()
}

func TestAcquireHonorsContextWhileLaunching(t *testing.T) {
	unblock := make(chan struct{})
	slow := Launcher{Name: "slow", Launch: func(context.Context, Config) (Backend, error) {
		<-unblock
		return &fakeBackend{name: "slow"}, nil
	}}
	m := NewManager(Config{}, WithLaunchers(slow))
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(unblock)
	c, err := m.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Release())
}

func TestCloseDuringLaunchShutsDownBrowser(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	launched := &fakeBackend{name: "slow"}
	slow := Launcher{Name: "slow", Launch: func(context.Context, Config) (Backend, error) {
		close(started)
		<-unblock
		return launched, nil
	}}
	m := NewManager(Config{}, WithLaunchers(slow))

	errc := make(chan error, 1)
	go func() {
		_, err := m.Acquire(context.Background())
		errc <- err
	}()

	<-started
	require.NoError(t, m.Close())
	close(unblock)

	assert.ErrorIs(t, <-errc, ErrClosed)
	assert.True(t, launched.closed.Load())
	assert.False(t, m.Running())

	_, err := m.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestLaunchers(t *testing.T) {
	names := func(ls []Launcher) []string {
		var out []string
		for _, l := range ls {
			out = append(out, l.Name)
		}
		return out
	}
	assert.Equal(t, []string{"local"}, names(Launchers(Config{})))
	assert.Equal(t, []string{"local", "bundled"}, names(Launchers(Config{BundledBin: "/opt/chromium"})))
	assert.Equal(t, []string{"bundled"}, names(Launchers(Config{Constrained: true, BundledBin: "/opt/chromium"})))
}
