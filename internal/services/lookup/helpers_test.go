package lookup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/BearBump/RebookBox/internal/browser"
	"github.com/BearBump/RebookBox/internal/browser/snapshot"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

func loaded(t *testing.T, name string) *snapshot.Page {
	t.Helper()
	p, err := snapshot.Load("https://example.test/"+name, fixture(t, name))
	require.NoError(t, err)
	return p
}

type sessionLauncher struct {
	sess browser.Session
}

func (l sessionLauncher) Open(context.Context) (browser.Session, error) {
	return l.sess, nil
}

// panickySession answers rowSelector with an element that panics on use.
type panickySession struct {
	*snapshot.Page
	rowSelector string
}

func (p *panickySession) Query(ctx context.Context, selector string) ([]browser.Element, error) {
	if selector == p.rowSelector {
		return []browser.Element{explodingElement{}}, nil
	}
	return p.Page.Query(ctx, selector)
}

type explodingElement struct{}

func (explodingElement) Query(context.Context, string) ([]browser.Element, error) {
	panic("element is detached from the document")
}

func (explodingElement) Text(context.Context) (string, error) {
	panic("element is detached from the document")
}

func (explodingElement) Visible(context.Context) (bool, error) {
	panic("element is detached from the document")
}

// stubElement returns fixed children and text.
type stubElement struct {
	children map[string][]browser.Element
	text     string
	textErr  error
	queryErr error
}

func (e stubElement) Query(_ context.Context, selector string) ([]browser.Element, error) {
	if e.queryErr != nil {
		return nil, e.queryErr
	}
	return e.children[selector], nil
}

func (e stubElement) Text(context.Context) (string, error) {
	return e.text, e.textErr
}

func (e stubElement) Visible(context.Context) (bool, error) {
	return true, nil
}
