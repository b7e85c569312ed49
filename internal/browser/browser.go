package browser

import "context"

// Element is a node of the live document. Query is scoped to the element.
// Query results include hidden nodes; Visible tells them apart.
type Element interface {
	Query(ctx context.Context, selector string) ([]Element, error)
	Text(ctx context.Context) (string, error)
	Visible(ctx context.Context) (bool, error)
}

// Page is the live document of one browser tab. Query never fails because
// nothing matched: it returns an empty slice.
type Page interface {
	Goto(ctx context.Context, url string) error
	Fill(ctx context.Context, selector, value string) error
	SelectOption(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	Query(ctx context.Context, selector string) ([]Element, error)
	URL() string
	Content(ctx context.Context) (string, error)
}

// Session owns one browser, one context and one page. Close releases all of
// them.
type Session interface {
	Page
	Close() error
}

type Launcher interface {
	Open(ctx context.Context) (Session, error)
}
