package lookup

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind string

const (
	KindNavigation Kind = "navigation"
	KindNotFound   Kind = "not_found"
	KindTimeout    Kind = "timeout"
	KindInternal   Kind = "internal"
)

// Error is returned by every failed lookup. URL and the HTML fields are set
// for timeouts and, when known, for other kinds.
type Error struct {
	Kind        Kind
	Message     string
	URL         string
	HTMLLength  int
	HTMLPreview string
	Err         error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("%s (url=%s, htmlLength=%d)", e.Message, e.URL, e.HTMLLength)
	case KindNotFound:
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain, or "" when
// there is none.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
