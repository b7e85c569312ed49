package lookup

import (
	"context"
	"strings"

	"github.com/BearBump/RebookBox/internal/browser"
	"github.com/BearBump/RebookBox/internal/models"
	"github.com/pkg/errors"
)

// submitForm navigates to url and submits the lookup form for req.
func submitForm(ctx context.Context, page browser.Page, url string, sel Selectors, req models.LookupRequest) error {
	if err := page.Goto(ctx, url); err != nil {
		return navigationError("open lookup page", err)
	}

	fills := []struct {
		field string
		chain []string
		value string
	}{
		{"record locator", sel.RecordLocator, req.RecordLocator},
		{"first name", sel.FirstName, req.FirstName},
		{"last name", sel.LastName, req.LastName},
	}
	for _, f := range fills {
		s, err := firstPresent(ctx, page, f.chain, f.field)
		if err != nil {
			return err
		}
		if err := page.Fill(ctx, s, f.value); err != nil {
			return navigationError("fill "+f.field, err)
		}
	}

	selects := []struct {
		field string
		chain []string
		value string
	}{
		{"birth month", sel.DOBMonth, req.DOBMonth},
		{"birth day", sel.DOBDay, req.DOBDay},
		{"birth year", sel.DOBYear, req.DOBYear},
	}
	for _, f := range selects {
		s, err := firstPresent(ctx, page, f.chain, f.field)
		if err != nil {
			return err
		}
		if err := page.SelectOption(ctx, s, f.value); err != nil {
			return navigationError("select "+f.field, err)
		}
	}

	s, err := firstPresent(ctx, page, sel.Submit, "submit control")
	if err != nil {
		return err
	}
	if err := page.Click(ctx, s); err != nil {
		return navigationError("submit form", err)
	}
	return nil
}

// firstPresent returns the first selector in chain that matches an element.
func firstPresent(ctx context.Context, page browser.Page, chain []string, field string) (string, error) {
	for _, s := range chain {
		els, err := page.Query(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				return "", navigationError("locate "+field, ctx.Err())
			}
			continue
		}
		if len(els) > 0 {
			return s, nil
		}
	}
	return "", &Error{
		Kind:    KindNavigation,
		Message: "form control not found: " + field + " (tried " + strings.Join(chain, ", ") + ")",
	}
}

func navigationError(msg string, err error) *Error {
	return &Error{Kind: KindNavigation, Message: msg, Err: errors.WithStack(err)}
}
