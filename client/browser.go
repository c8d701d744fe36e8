package client

import (
	"fmt"
	"net/url"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// BrowserOptions configures the persistent Chromium session.
type BrowserOptions struct {
	// ProfileDir keeps cookies and local storage between runs, so a
	// manual login survives.
	ProfileDir string
	Headless   bool
	SlowMo     time.Duration
	// ProxyURL is scheme://[user:pass@]host:port; empty means direct.
	ProxyURL  string
	UserAgent string
	// Timeout is the default for every playwright action.
	Timeout time.Duration
	// Install downloads the browser driver if it is missing.
	Install bool
}

// Browser owns the playwright driver and the persistent context for one
// run. The booking flow only borrows its page.
type Browser struct {
	pw      *playwright.Playwright
	Context playwright.BrowserContext
	Page    playwright.Page
	log     *zap.Logger
}

// LaunchBrowser starts Chromium with a persistent profile and returns its
// first page. Close must be called on the result.
func LaunchBrowser(opts BrowserOptions, log *zap.Logger) (*Browser, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:   playwright.Bool(opts.Headless),
		SlowMo:     playwright.Float(float64(opts.SlowMo.Milliseconds())),
		Args:       []string{"--start-maximized"},
		NoViewport: playwright.Bool(!opts.Headless),
	}
	if opts.UserAgent != "" {
		launch.UserAgent = playwright.String(opts.UserAgent)
	}
	if opts.ProxyURL != "" {
		p, err := playwrightProxy(opts.ProxyURL)
		if err != nil {
			_ = pw.Stop()
			return nil, err
		}
		launch.Proxy = p
	}

	log.Info("launching browser",
		zap.String("profile", opts.ProfileDir),
		zap.Bool("headless", opts.Headless),
		zap.Duration("slow_mo", opts.SlowMo),
		zap.String("proxy", MaskProxy(opts.ProxyURL)))

	bctx, err := pw.Chromium.LaunchPersistentContext(opts.ProfileDir, launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch persistent context: %w", err)
	}
	if opts.Timeout > 0 {
		bctx.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))
	}

	b := &Browser{pw: pw, Context: bctx, log: log}
	if pages := bctx.Pages(); len(pages) > 0 {
		b.Page = pages[0]
		log.Debug("using existing page")
	} else {
		page, err := bctx.NewPage()
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("new page: %w", err)
		}
		b.Page = page
		log.Debug("created new page")
	}
	return b, nil
}

// Close releases the context and stops the driver. Safe to call twice.
func (b *Browser) Close() {
	if b.Context != nil {
		if err := b.Context.Close(); err != nil {
			b.log.Warn("close browser context", zap.Error(err))
		}
		b.Context = nil
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			b.log.Warn("stop playwright", zap.Error(err))
		}
		b.pw = nil
	}
	b.log.Info("browser closed")
}

// playwrightProxy converts a proxy URL into the form playwright expects:
// credentials travel separately from the server address.
func playwrightProxy(raw string) (*playwright.Proxy, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy %q: %w", MaskProxy(raw), err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("proxy %q has no host", MaskProxy(raw))
	}
	p := &playwright.Proxy{Server: u.Scheme + "://" + u.Host}
	if u.User != nil {
		p.Username = playwright.String(u.User.Username())
		if pass, ok := u.User.Password(); ok {
			p.Password = playwright.String(pass)
		}
	}
	return p, nil
}
