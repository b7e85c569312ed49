package snapshot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BearBump/RebookBox/internal/browser"
	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

const blankHTML = "<html><head></head><body></body></html>"

// Options describe a two-document site: Goto serves FormHTML, any successful
// Click serves ResultHTML. Until ResultDelay has passed after the click the
// page is blank, like a document that is still loading.
type Options struct {
	FormHTML    string
	ResultHTML  string
	ResultURL   string
	ResultDelay time.Duration

	// GotoErr makes Goto fail.
	GotoErr error
}

// Page is a browser.Session over static HTML. Form actions are recorded, not
// executed.
type Page struct {
	opts Options

	mu          sync.Mutex
	doc         *goquery.Document
	html        string
	url         string
	submittedAt time.Time
	filled      map[string]string
	selected    map[string]string
	clicked     []string
	closes      int
}

func New(opts Options) *Page {
	return &Page{
		opts:     opts,
		filled:   map[string]string{},
		selected: map[string]string{},
	}
}

// Load returns a page that already shows html, as if it had been navigated to
// url.
func Load(url, html string) (*Page, error) {
	p := New(Options{})
	if err := p.setDocument(url, html); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Page) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.opts.GotoErr != nil {
		return p.opts.GotoErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submittedAt = time.Time{}
	return p.setDocument(url, p.opts.FormHTML)
}

func (p *Page) Fill(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.mustFind(selector); err != nil {
		return err
	}
	p.filled[selector] = value
	return nil
}

// SelectOption accepts an option matched by value or by label.
func (p *Page) SelectOption(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	sel, err := p.mustFind(selector)
	if err != nil {
		return err
	}
	found := false
	sel.First().Find("option").EachWithBreak(func(_ int, o *goquery.Selection) bool {
		v, ok := o.Attr("value")
		if (ok && v == value) || strings.TrimSpace(o.Text()) == value {
			found = true
			return false
		}
		return true
	})
	if !found {
		return fmt.Errorf("no option %q in %s", value, selector)
	}
	p.selected[selector] = value
	return nil
}

func (p *Page) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.mustFind(selector); err != nil {
		return err
	}
	p.clicked = append(p.clicked, selector)
	if p.opts.ResultHTML == "" {
		return nil
	}
	url := p.opts.ResultURL
	if url == "" {
		url = p.url
	}
	p.submittedAt = time.Now()
	return p.setDocument(url, p.opts.ResultHTML)
}

func (p *Page) Query(ctx context.Context, selector string) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc == nil || p.loading() {
		return []browser.Element{}, nil
	}
	return wrap(p.doc.Find(selector)), nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc == nil || p.loading() {
		return blankHTML, nil
	}
	return p.html, nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	return nil
}

// Closes reports how many times Close was called.
func (p *Page) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

func (p *Page) Filled() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyMap(p.filled)
}

func (p *Page) Selected() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyMap(p.selected)
}

func (p *Page) Clicked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicked...)
}

func (p *Page) setDocument(url, html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return errors.Wrap(err, "parse html")
	}
	p.doc, p.html, p.url = doc, html, url
	return nil
}

func (p *Page) loading() bool {
	return !p.submittedAt.IsZero() && time.Since(p.submittedAt) < p.opts.ResultDelay
}

func (p *Page) mustFind(selector string) (*goquery.Selection, error) {
	if p.doc == nil || p.loading() {
		return nil, fmt.Errorf("no document loaded")
	}
	sel := p.doc.Find(selector)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("no element matches %s", selector)
	}
	return sel, nil
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type element struct {
	sel *goquery.Selection
}

func (e element) Query(ctx context.Context, selector string) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return wrap(e.sel.Find(selector)), nil
}

func (e element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.sel.Text(), nil
}

// Visible reports false when the node or an ancestor carries the hidden
// attribute or an inline display:none / visibility:hidden style.
func (e element) Visible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for s := e.sel; s.Length() > 0; s = s.Parent() {
		if _, ok := s.Attr("hidden"); ok {
			return false, nil
		}
		style := strings.ToLower(strings.Join(strings.Fields(s.AttrOr("style", "")), ""))
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false, nil
		}
	}
	return true, nil
}

func wrap(sel *goquery.Selection) []browser.Element {
	out := make([]browser.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, element{sel: s})
	})
	return out
}

// Launcher opens a new Page for every session and remembers it.
type Launcher struct {
	Options Options
	OpenErr error

	mu     sync.Mutex
	opened []*Page
}

func (l *Launcher) Open(ctx context.Context) (browser.Session, error) {
	if l.OpenErr != nil {
		return nil, l.OpenErr
	}
	p := New(l.Options)
	l.mu.Lock()
	l.opened = append(l.opened, p)
	l.mu.Unlock()
	return p, nil
}

func (l *Launcher) Opened() []*Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Page(nil), l.opened...)
}
