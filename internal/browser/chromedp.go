package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// chromedpBackend drives the minimal browser binary bundled for constrained
// environments, where no automation driver can be installed.
type chromedpBackend struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// LaunchBundled starts cfg.BundledBin through chromedp.
func LaunchBundled(ctx context.Context, cfg Config) (Backend, error) {
	if cfg.BundledBin == "" {
		return nil, errors.New("no bundled browser binary configured")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(cfg.BundledBin),
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(cfg.userAgent()),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.ProxyURL))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Run with no actions starts the process; stop it if the launching
	// request goes away first.
	stop := context.AfterFunc(ctx, cancelBrowser)
	err := chromedp.Run(browserCtx)
	stop()
	if err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start bundled browser: %w", err)
	}

	return &chromedpBackend{
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}

func (b *chromedpBackend) Name() string { return "chromedp" }

func (b *chromedpBackend) NewPage(ctx context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx, chromedp.WithNewBrowserContext())
	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(tabCtx)
	stop()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	return &chromedpPage{ctx: tabCtx, cancel: cancel}, nil
}

func (b *chromedpBackend) Alive() bool {
	return b.browserCtx.Err() == nil
}

func (b *chromedpBackend) Close() error {
	b.cancelBrowser()
	b.cancelAlloc()
	return nil
}

type chromedpPage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// run executes actions on the tab, bounded by timeout and by ctx.
func (p *chromedpPage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx := p.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}
	runCtx, cancel := context.WithCancel(runCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (p *chromedpPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := p.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	return nil
}

func (p *chromedpPage) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if err := p.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to wait for %s: %w", selector, err)
	}
	return nil
}

func (p *chromedpPage) Eval(ctx context.Context, js string, out any) error {
	var raw []byte
	if err := p.run(ctx, 0, chromedp.Evaluate("("+js+")()", &raw)); err != nil {
		return fmt.Errorf("failed to evaluate script: %w", err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode script result: %w", err)
	}
	return nil
}

func (p *chromedpPage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to get page HTML: %w", err)
	}
	return html, nil
}

func (p *chromedpPage) Close() error {
	p.cancel()
	return nil
}
