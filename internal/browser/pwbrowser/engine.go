package pwbrowser

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BearBump/RebookBox/internal/browser"
	"github.com/pkg/errors"
	"github.com/playwright-community/playwright-go"
)

type Options struct {
	Headless          bool
	Install           bool
	UserAgent         string
	Locale            string
	TimezoneID        string
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
}

func DefaultOptions() Options {
	return Options{
		Headless:          true,
		UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		Locale:            "en-US",
		TimezoneID:        "America/Chicago",
		ViewportWidth:     1280,
		ViewportHeight:    800,
		NavigationTimeout: 30 * time.Second,
		ActionTimeout:     10 * time.Second,
	}
}

// Engine is the playwright driver process. It is started once per process
// and launches a fresh browser for every session.
type Engine struct {
	pw   *playwright.Playwright
	opts Options
}

func Start(opts Options) (*Engine, error) {
	if opts.Install {
		slog.Info("installing playwright driver and chromium")
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, errors.Wrap(err, "install playwright")
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, errors.Wrap(err, "start playwright")
	}
	return &Engine{pw: pw, opts: opts}, nil
}

func (e *Engine) Stop() error {
	return e.pw.Stop()
}

func (e *Engine) Open(ctx context.Context) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := e.pw.Chromium.Launch(launchOptions(e.opts))
	if err != nil {
		return nil, errors.Wrap(err, "launch chromium")
	}
	bc, err := b.NewContext(contextOptions(e.opts))
	if err != nil {
		_ = b.Close()
		return nil, errors.Wrap(err, "new browser context")
	}
	p, err := bc.NewPage()
	if err != nil {
		_ = bc.Close()
		_ = b.Close()
		return nil, errors.Wrap(err, "new page")
	}
	p.SetDefaultTimeout(millis(e.opts.ActionTimeout))
	p.SetDefaultNavigationTimeout(millis(e.opts.NavigationTimeout))

	return &session{browser: b, context: bc, page: p, opts: e.opts}, nil
}

func launchOptions(o Options) playwright.BrowserTypeLaunchOptions {
	return playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(o.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--no-sandbox",
		},
	}
}

func contextOptions(o Options) playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{}
	if o.UserAgent != "" {
		opts.UserAgent = playwright.String(o.UserAgent)
	}
	if o.Locale != "" {
		opts.Locale = playwright.String(o.Locale)
	}
	if o.TimezoneID != "" {
		opts.TimezoneId = playwright.String(o.TimezoneID)
	}
	if o.ViewportWidth > 0 && o.ViewportHeight > 0 {
		opts.Viewport = &playwright.Size{Width: o.ViewportWidth, Height: o.ViewportHeight}
	}
	return opts
}

func millis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d.Milliseconds())
}

type session struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	opts    Options

	closeOnce sync.Once
	closeErr  error
}

func (s *session) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(millis(s.opts.NavigationTimeout)),
	})
	return errors.Wrap(err, "goto")
}

func (s *session) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Wrapf(s.page.Locator(selector).First().Fill(value), "fill %s", selector)
}

// SelectOption tries the option value first, then the visible label.
func (s *session) SelectOption(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loc := s.page.Locator(selector).First()
	if _, err := loc.SelectOption(playwright.SelectOptionValues{Values: &[]string{value}}); err == nil {
		return nil
	}
	_, err := loc.SelectOption(playwright.SelectOptionValues{Labels: &[]string{value}})
	return errors.Wrapf(err, "select %s", selector)
}

func (s *session) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Wrapf(s.page.Locator(selector).First().Click(), "click %s", selector)
}

func (s *session) Query(ctx context.Context, selector string) ([]browser.Element, error) {
	return queryAll(ctx, s.page.Locator(selector), s.opts.ActionTimeout)
}

func (s *session) URL() string {
	return s.page.URL()
}

func (s *session) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := s.page.Content()
	return html, errors.Wrap(err, "page content")
}

// Close releases page, context and browser in that order. Later calls return
// the first result.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		if err := s.page.Close(); err != nil {
			s.closeErr = errors.Wrap(err, "close page")
		}
		if err := s.context.Close(); err != nil && s.closeErr == nil {
			s.closeErr = errors.Wrap(err, "close context")
		}
		if err := s.browser.Close(); err != nil && s.closeErr == nil {
			s.closeErr = errors.Wrap(err, "close browser")
		}
	})
	return s.closeErr
}

type element struct {
	loc         playwright.Locator
	readTimeout time.Duration
}

func (e element) Query(ctx context.Context, selector string) ([]browser.Element, error) {
	return queryAll(ctx, e.loc.Locator(selector), e.readTimeout)
}

func (e element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: playwright.Float(millis(e.readTimeout))})
}

func (e element) Visible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v, err := e.loc.IsVisible()
	return v, errors.Wrap(err, "is visible")
}

func queryAll(ctx context.Context, loc playwright.Locator, readTimeout time.Duration) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := loc.Count()
	if err != nil {
		return nil, errors.Wrap(err, "count")
	}
	out := make([]browser.Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, element{loc: loc.Nth(i), readTimeout: readTimeout})
	}
	return out, nil
}
