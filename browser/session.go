// Package browser wraps a chromedp-driven Chrome context behind a small
// navigation surface. One Session is owned per area scan and must be closed
// on every exit path.
package browser

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"market-scanner/config"
)

// Browser is the navigation surface the extractors depend on.
type Browser interface {
	Navigate(url string, timeout time.Duration) error
	WaitForAny(selectors []string, perCandidate time.Duration) (string, bool)
	Evaluate(js string, out interface{}) error
	HTML() (string, error)
	ScrollToBottom(steps int, pause time.Duration) error
	Screenshot(tag string) error
	NewTab() (Browser, error)
	Close()
}

// Session owns one automated-browser context with anti-detection overrides.
type Session struct {
	ctx           context.Context
	cancel        context.CancelFunc
	cancelAlloc   context.CancelFunc
	screenshotDir string
	log           zerolog.Logger
}

// stealthScript runs on every new document before site scripts, hiding the
// usual automation tells.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'platform', { get: () => 'MacIntel' });
Object.defineProperty(navigator, 'vendor', { get: () => 'Google Inc.' });
Object.defineProperty(navigator, 'plugins', {
	get: () => [{ name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer', length: 1 }]
});
window.chrome = window.chrome || { runtime: {}, webstore: {}, app: { isInstalled: false } };
`

var extraHeaders = network.Headers{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
}

// NewSession launches a browser context derived from parent. Cancelling
// parent tears the browser down.
func NewSession(parent context.Context, cfg *config.Config, log zerolog.Logger) (*Session, error) {
	userAgent := cfg.Scan.UserAgents[rand.Intn(len(cfg.Scan.UserAgents))]

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	if bin := findChromeBinary(cfg.ChromeBin); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	s := &Session{
		ctx:           ctx,
		cancel:        cancel,
		cancelAlloc:   cancelAlloc,
		screenshotDir: cfg.ScreenshotDir,
		log:           log,
	}

	if err := s.bootstrap(); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: start: %w", err)
	}

	s.log.Debug().Str("user_agent", userAgent).Msg("browser session ready")
	return s, nil
}

// bootstrap starts the browser process and installs the fingerprint
// overrides before the first navigation.
func (s *Session) bootstrap() error {
	ctx, cancelTimeout := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancelTimeout()

	return chromedp.Run(ctx,
		network.Enable(),
		network.SetExtraHTTPHeaders(extraHeaders),
		chromedp.EmulateViewport(1920, 1080),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	)
}

// Navigate loads url, bounded by timeout.
func (s *Session) Navigate(url string, timeout time.Duration) error {
	ctx, cancelTimeout := context.WithTimeout(s.ctx, timeout)
	defer cancelTimeout()

	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// WaitForAny tries each candidate selector in order with a short timeout and
// returns the first one that becomes ready. A miss on every candidate is
// reported, not an error: some interstitials are simply absent.
func (s *Session) WaitForAny(selectors []string, perCandidate time.Duration) (string, bool) {
	for _, sel := range selectors {
		ctx, cancelTimeout := context.WithTimeout(s.ctx, perCandidate)
		err := chromedp.Run(ctx, chromedp.WaitReady(sel, chromedp.ByQuery))
		cancelTimeout()
		if err == nil {
			return sel, true
		}
		if s.ctx.Err() != nil {
			return "", false
		}
	}
	return "", false
}

// Evaluate runs js in the page and unmarshals the result into out.
// Pass a nil out for fire-and-forget scripts.
func (s *Session) Evaluate(js string, out interface{}) error {
	ctx, cancelTimeout := context.WithTimeout(s.ctx, 15*time.Second)
	defer cancelTimeout()
	return chromedp.Run(ctx, chromedp.Evaluate(js, out))
}

// HTML returns the rendered DOM of the current page.
func (s *Session) HTML() (string, error) {
	var html string
	ctx, cancelTimeout := context.WithTimeout(s.ctx, 15*time.Second)
	defer cancelTimeout()
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("capture dom: %w", err)
	}
	return html, nil
}

// ScrollToBottom scrolls in increments, pausing so lazy-loaded cards render.
func (s *Session) ScrollToBottom(steps int, pause time.Duration) error {
	for i := 0; i < steps; i++ {
		err := s.Evaluate(`window.scrollBy(0, document.body.scrollHeight / `+fmt.Sprint(steps)+`)`, nil)
		if err != nil {
			return err
		}
		if err := sleepCtx(s.ctx, pause); err != nil {
			return err
		}
	}
	return nil
}

// Screenshot saves a full-page capture for diagnostics. Failures are logged
// and swallowed: losing a screenshot never fails a scan.
func (s *Session) Screenshot(tag string) error {
	var buf []byte
	ctx, cancelTimeout := context.WithTimeout(s.ctx, 15*time.Second)
	defer cancelTimeout()

	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		s.log.Warn().Err(err).Str("tag", tag).Msg("screenshot capture failed")
		return err
	}

	if err := os.MkdirAll(s.screenshotDir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("%s-%s.png", tag, time.Now().Format("20060102-150405"))
	path := filepath.Join(s.screenshotDir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("screenshot write failed")
		return err
	}
	s.log.Debug().Str("path", path).Msg("saved screenshot")
	return nil
}

// NewTab opens a secondary tab in the same browser, used for detail-page
// enrichment. The caller must Close it immediately after use.
func (s *Session) NewTab() (Browser, error) {
	ctx, cancel := chromedp.NewContext(s.ctx)
	tab := &Session{
		ctx:           ctx,
		cancel:        cancel,
		screenshotDir: s.screenshotDir,
		log:           s.log,
	}
	// Spin the tab up so fingerprint overrides apply before navigation.
	if err := tab.bootstrap(); err != nil {
		tab.Close()
		return nil, fmt.Errorf("browser: open tab: %w", err)
	}
	return tab, nil
}

// Close releases the tab and, for the primary session, the browser process.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
