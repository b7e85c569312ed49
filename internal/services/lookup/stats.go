package lookup

import (
	"sync"
	"sync/atomic"
	"time"
)

type Stats struct {
	StartedAt  time.Time  `json:"startedAt"`
	LastLookup *time.Time `json:"lastLookupAt,omitempty"`
	Started    int64      `json:"started"`
	Succeeded  int64      `json:"succeeded"`
	NotFound   int64      `json:"notFound"`
	TimedOut   int64      `json:"timedOut"`
	Failed     int64      `json:"failed"`
	InFlight   int64      `json:"inFlight"`

	// LastErrorKind is the kind of the most recent failure. Messages and URLs
	// stay in the logs since they come from the reservation page.
	LastErrorKind Kind `json:"lastErrorKind,omitempty"`
}

type counters struct {
	startedAtUnixNano  int64
	lastLookupUnixNano atomic.Int64
	started            atomic.Int64
	succeeded          atomic.Int64
	notFound           atomic.Int64
	timedOut           atomic.Int64
	failed             atomic.Int64
	inFlight           atomic.Int64
	lastErrorMu        sync.Mutex
	lastErrorKind      Kind
}

func (c *counters) begin() {
	c.started.Add(1)
	c.inFlight.Add(1)
	c.lastLookupUnixNano.Store(time.Now().UTC().UnixNano())
}

func (c *counters) end(err error) {
	c.inFlight.Add(-1)
	if err == nil {
		c.succeeded.Add(1)
		return
	}
	switch KindOf(err) {
	case KindNotFound:
		c.notFound.Add(1)
	case KindTimeout:
		c.timedOut.Add(1)
	default:
		c.failed.Add(1)
	}
	c.lastErrorMu.Lock()
	c.lastErrorKind = KindOf(err)
	if c.lastErrorKind == "" {
		c.lastErrorKind = KindInternal
	}
	c.lastErrorMu.Unlock()
}

func (c *counters) snapshot() Stats {
	st := Stats{
		StartedAt: time.Unix(0, c.startedAtUnixNano).UTC(),
		Started:   c.started.Load(),
		Succeeded: c.succeeded.Load(),
		NotFound:  c.notFound.Load(),
		TimedOut:  c.timedOut.Load(),
		Failed:    c.failed.Load(),
		InFlight:  c.inFlight.Load(),
	}
	if n := c.lastLookupUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastLookup = &t
	}
	c.lastErrorMu.Lock()
	st.LastErrorKind = c.lastErrorKind
	c.lastErrorMu.Unlock()
	return st
}
