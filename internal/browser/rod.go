package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// rodBackend drives a locally installed Chrome through rod.
type rodBackend struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      Config
}

// LaunchLocal starts the locally installed browser. It fails fast when no
// browser binary can be found so the caller can fall back.
func LaunchLocal(_ context.Context, cfg Config) (Backend, error) {
	bin := cfg.Bin
	if bin == "" {
		path, ok := launcher.LookPath()
		if !ok {
			return nil, errors.New("no local browser installation found")
		}
		bin = path
	}

	l := launcher.New().
		Bin(bin).
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Set("disable-blink-features", "AutomationControlled")
	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	// The browser outlives the request that launched it, so it is not bound
	// to ctx.
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &rodBackend{browser: b, launcher: l, cfg: cfg}, nil
}

func (b *rodBackend) Name() string { return "rod" }

func (b *rodBackend) NewPage(ctx context.Context) (Page, error) {
	incognito, err := b.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := incognito.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page = page.Context(context.Background())

	_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.cfg.userAgent()})
	_, _ = page.EvalOnNewDocument(stealthJS)

	return &rodPage{page: page, incognito: incognito}, nil
}

func (b *rodBackend) Alive() bool {
	_, err := b.browser.Version()
	return err == nil
}

func (b *rodBackend) Close() error {
	err := b.browser.Close()
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return err
}

type rodPage struct {
	page      *rod.Page
	incognito *rod.Browser
}

func (p *rodPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page := p.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for page load: %w", err)
	}
	return nil
}

func (p *rodPage) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := p.page.Context(ctx).Element(selector); err != nil {
		return fmt.Errorf("failed to wait for %s: %w", selector, err)
	}
	return nil
}

func (p *rodPage) Eval(ctx context.Context, js string, out any) error {
	res, err := p.page.Context(ctx).Eval(js)
	if err != nil {
		return fmt.Errorf("failed to evaluate script: %w", err)
	}
	if out == nil {
		return nil
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to read script result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode script result: %w", err)
	}
	return nil
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get page HTML: %w", err)
	}
	return html, nil
}

func (p *rodPage) Close() error {
	pageErr := p.page.Close()
	// Closing an incognito browser disposes of its context only.
	return errors.Join(pageErr, p.incognito.Close())
}
