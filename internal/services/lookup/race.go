package lookup

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/RebookBox/internal/browser"
	"github.com/pkg/errors"
)

const (
	DefaultOutcomeTimeout = 22 * time.Second
	DefaultPollInterval   = 250 * time.Millisecond

	// DefaultNotFoundMessage is used when the error marker has no text.
	DefaultNotFoundMessage = "Reservation not found or inputs invalid"

	previewLimit = 1200
)

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeError
	OutcomeTimeout
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeError:
		return "error"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Outcome is what the page showed after submission. Message is set for
// OutcomeError; the page fields are set for OutcomeTimeout.
type Outcome struct {
	Kind     OutcomeKind
	Selector string
	Message  string

	URL         string
	HTMLLength  int
	HTMLPreview string
}

// Race polls a page until one of its outcome markers shows up. Success
// markers are checked before error markers on every tick.
type Race struct {
	Success      []string
	Error        []string
	Timeout      time.Duration
	PollInterval time.Duration
}

func (r Race) Wait(ctx context.Context, page browser.Page) (Outcome, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultOutcomeTimeout
	}
	interval := r.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		if out, ok := r.check(ctx, page); ok {
			return out, nil
		}
		select {
		case <-ctx.Done():
			return Outcome{}, errors.Wrap(ctx.Err(), "wait for outcome")
		case <-deadline.C:
			// a marker present at the bound still counts
			if out, ok := r.check(ctx, page); ok {
				return out, nil
			}
			return timeoutOutcome(ctx, page), nil
		case <-tick.C:
		}
	}
}

func (r Race) check(ctx context.Context, page browser.Page) (Outcome, bool) {
	for _, s := range r.Success {
		if firstVisible(ctx, page, s) != nil {
			return Outcome{Kind: OutcomeSuccess, Selector: s}, true
		}
	}
	for _, s := range r.Error {
		el := firstVisible(ctx, page, s)
		if el == nil {
			continue
		}
		msg := ""
		if text, err := el.Text(ctx); err == nil {
			msg = strings.TrimSpace(text)
		}
		if msg == "" {
			msg = DefaultNotFoundMessage
		}
		return Outcome{Kind: OutcomeError, Selector: s, Message: msg}, true
	}
	return Outcome{}, false
}

// firstVisible returns the first rendered match of selector. Hidden
// placeholders and query errors count as no match.
func firstVisible(ctx context.Context, page browser.Page, selector string) browser.Element {
	els, err := page.Query(ctx, selector)
	if err != nil {
		return nil
	}
	for _, el := range els {
		if ok, err := el.Visible(ctx); err == nil && ok {
			return el
		}
	}
	return nil
}

func timeoutOutcome(ctx context.Context, page browser.Page) Outcome {
	out := Outcome{Kind: OutcomeTimeout, URL: page.URL()}
	if html, err := page.Content(ctx); err == nil {
		out.HTMLLength = len(html)
		out.HTMLPreview = preview(html)
	}
	return out
}

// preview returns at most previewLimit characters of html.
func preview(html string) string {
	r := []rune(html)
	if len(r) <= previewLimit {
		return html
	}
	return string(r[:previewLimit])
}
