package lookup

import (
	"context"
	"strings"

	"github.com/BearBump/RebookBox/internal/browser"
	"github.com/BearBump/RebookBox/internal/models"
)

// findRows returns the rows of the first strategy that matches anything.
func findRows(ctx context.Context, page browser.Page, strategies []string) ([]browser.Element, string) {
	for _, s := range strategies {
		rows, err := page.Query(ctx, s)
		if err != nil {
			continue
		}
		if len(rows) > 0 {
			return rows, s
		}
	}
	return nil, ""
}

func extractSegment(ctx context.Context, row browser.Element, sel Selectors) models.Segment {
	return models.Segment{
		FlightNumber:       readField(ctx, row, sel.FlightNumber),
		DateLocal:          readField(ctx, row, sel.Date),
		Origin:             readField(ctx, row, sel.Origin),
		Destination:        readField(ctx, row, sel.Destination),
		ScheduledDeparture: readField(ctx, row, sel.ScheduledDeparture),
		ScheduledArrival:   readField(ctx, row, sel.ScheduledArrival),
		Status:             readField(ctx, row, sel.Status),
	}
}

// readField returns the normalized text of the first selector in chain that
// yields non-empty text inside row, or nil.
func readField(ctx context.Context, row browser.Element, chain []string) *string {
	for _, s := range chain {
		els, err := row.Query(ctx, s)
		if err != nil || len(els) == 0 {
			continue
		}
		text, err := els[0].Text(ctx)
		if err != nil {
			continue
		}
		if v := collapseSpace(text); v != "" {
			return &v
		}
	}
	return nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
