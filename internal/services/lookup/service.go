package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/RebookBox/internal/browser"
	"github.com/BearBump/RebookBox/internal/models"
)

const DefaultLookupURL = "https://www.aa.com/reservation/viewReservationsAccess.do?anchorEvent=false&from=comp_nav"

// Service runs one browser session per lookup: submit the form, wait for the
// outcome, extract segments, release the session.
type Service struct {
	launcher  browser.Launcher
	lookupURL string
	sel       Selectors

	outcomeTimeout time.Duration
	pollInterval   time.Duration

	stats counters
}

func New(launcher browser.Launcher, lookupURL string, sel Selectors) *Service {
	if lookupURL == "" {
		lookupURL = DefaultLookupURL
	}
	return &Service{
		launcher:       launcher,
		lookupURL:      lookupURL,
		sel:            sel,
		outcomeTimeout: DefaultOutcomeTimeout,
		pollInterval:   DefaultPollInterval,
		stats:          counters{startedAtUnixNano: time.Now().UTC().UnixNano()},
	}
}

func (s *Service) WithTiming(outcomeTimeout, pollInterval time.Duration) *Service {
	if outcomeTimeout > 0 {
		s.outcomeTimeout = outcomeTimeout
	}
	if pollInterval > 0 {
		s.pollInterval = pollInterval
	}
	return s
}

func (s *Service) Stats() Stats {
	return s.stats.snapshot()
}

// Lookup fetches the itinerary for req. Every failure is an *Error.
func (s *Service) Lookup(ctx context.Context, req models.LookupRequest, debug bool) (res *models.LookupResult, err error) {
	start := time.Now()
	s.stats.begin()
	defer func() {
		s.stats.end(err)
		if err != nil {
			slog.Warn("lookup failed", "kind", KindOf(err), "error", err.Error(), "duration_ms", time.Since(start).Milliseconds())
			return
		}
		slog.Info("lookup done", "segments", len(res.Segments), "warnings", len(res.Warnings), "duration_ms", time.Since(start).Milliseconds())
	}()

	sess, err := s.launcher.Open(ctx)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "open browser session", Err: err}
	}
	return s.run(ctx, sess, req, debug)
}

func (s *Service) run(ctx context.Context, sess browser.Session, req models.LookupRequest, debug bool) (res *models.LookupResult, err error) {
	defer func() {
		r := recover()
		if cerr := sess.Close(); cerr != nil {
			slog.Warn("close browser session", "error", cerr.Error())
		}
		if r != nil {
			res, err = nil, &Error{Kind: KindInternal, Message: fmt.Sprintf("lookup aborted: %v", r)}
		}
	}()

	if err := submitForm(ctx, sess, s.lookupURL, s.sel, req); err != nil {
		return nil, err
	}
	return s.Inspect(ctx, sess, req, debug)
}

// Inspect is the part of a lookup that runs after the form was submitted:
// wait for the outcome, then extract and normalize. It does not close page.
func (s *Service) Inspect(ctx context.Context, page browser.Page, req models.LookupRequest, debug bool) (*models.LookupResult, error) {
	race := Race{
		Success:      s.sel.Success,
		Error:        s.sel.Error,
		Timeout:      s.outcomeTimeout,
		PollInterval: s.pollInterval,
	}
	out, err := race.Wait(ctx, page)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "lookup canceled", URL: page.URL(), Err: err}
	}

	switch out.Kind {
	case OutcomeError:
		return nil, &Error{Kind: KindNotFound, Message: out.Message, URL: page.URL()}
	case OutcomeTimeout:
		return nil, &Error{
			Kind:        KindTimeout,
			Message:     "Timed out waiting for reservation page",
			URL:         out.URL,
			HTMLLength:  out.HTMLLength,
			HTMLPreview: out.HTMLPreview,
		}
	}

	rows, strategy := findRows(ctx, page, s.sel.Rows)
	slog.Debug("segment rows", "strategy", strategy, "count", len(rows))
	segments := make([]models.Segment, 0, len(rows))
	for _, row := range rows {
		segments = append(segments, extractSegment(ctx, row, s.sel))
	}

	var dbg *models.Debug
	if debug {
		html, err := page.Content(ctx)
		if err != nil {
			html = ""
		}
		dbg = debugPayload(page.URL(), html)
	}
	return normalize(req, segments, dbg), nil
}
