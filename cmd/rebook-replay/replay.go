package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BearBump/RebookBox/config"
	"github.com/BearBump/RebookBox/internal/browser/snapshot"
	"github.com/BearBump/RebookBox/internal/models"
	"github.com/BearBump/RebookBox/internal/services/lookup"
	"github.com/pkg/errors"
)

var errLookupFailed = errors.New("lookup failed")

type replayOpts struct {
	configPath string
	htmlPath   string
	url        string
	firstName  string
	lastName   string
	debug      bool
	timeout    time.Duration
}

type replayFailure struct {
	Kind        lookup.Kind `json:"kind"`
	Detail      string      `json:"detail"`
	URL         string      `json:"url,omitempty"`
	HTMLLength  int         `json:"htmlLength,omitempty"`
	HTMLPreview string      `json:"htmlPreview,omitempty"`
}

// runReplay writes the LookupResult, or a replayFailure, to out as JSON. A
// failed lookup returns errLookupFailed after writing.
func runReplay(ctx context.Context, opts replayOpts, out io.Writer) error {
	sel := lookup.DefaultSelectors()
	if opts.configPath != "" {
		cfg, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}
		sel = sel.WithOverrides(lookup.Selectors(cfg.Selectors))
	}

	html, err := os.ReadFile(opts.htmlPath)
	if err != nil {
		return errors.Wrap(err, "read saved page")
	}
	url := opts.url
	if url == "" {
		abs, err := filepath.Abs(opts.htmlPath)
		if err != nil {
			return errors.Wrap(err, "resolve saved page path")
		}
		url = "file://" + filepath.ToSlash(abs)
	}
	page, err := snapshot.Load(url, string(html))
	if err != nil {
		return err
	}
	defer page.Close()

	svc := lookup.New(nil, "", sel).WithTiming(opts.timeout, 50*time.Millisecond)
	req := models.NewLookupRequest("", opts.firstName, opts.lastName, "", "", "")
	res, lerr := svc.Inspect(ctx, page, req, opts.debug)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if lerr != nil {
		f := replayFailure{Kind: lookup.KindOf(lerr), Detail: lerr.Error()}
		var le *lookup.Error
		if errors.As(lerr, &le) {
			f.Detail, f.URL, f.HTMLLength, f.HTMLPreview = le.Message, le.URL, le.HTMLLength, le.HTMLPreview
		}
		if err := enc.Encode(f); err != nil {
			return errors.Wrap(err, "write failure")
		}
		return errLookupFailed
	}
	return errors.Wrap(enc.Encode(res), "write result")
}
