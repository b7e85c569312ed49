package lookup

import (
	"github.com/BearBump/RebookBox/internal/models"
)

const WarningNoRows = "Could not find segment rows with current selectors"

func normalize(req models.LookupRequest, segments []models.Segment, debug *models.Debug) *models.LookupResult {
	res := &models.LookupResult{
		PassengerName: req.PassengerName(),
		Segments:      segments,
	}
	if res.Segments == nil {
		res.Segments = []models.Segment{}
	}
	if len(res.Segments) == 0 {
		res.Warnings = append(res.Warnings, WarningNoRows)
	}
	res.Debug = debug
	return res
}

func debugPayload(url, html string) *models.Debug {
	return &models.Debug{
		URL:         url,
		HTMLLength:  len(html),
		HTMLPreview: preview(html),
	}
}
