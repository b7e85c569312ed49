package rebook_api

import (
	"strconv"
	"strings"

	"github.com/BearBump/RebookBox/internal/models"
	"github.com/pkg/errors"
)

type lookupBody struct {
	RecordLocator string `json:"recordLocator"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	DOBMonth      string `json:"dobMonth"`
	DOBDay        string `json:"dobDay"`
	DOBYear       string `json:"dobYear"`
	Debug         bool   `json:"debug"`
}

func (b lookupBody) validate() error {
	required := []struct{ name, value string }{
		{"recordLocator", b.RecordLocator},
		{"firstName", b.FirstName},
		{"lastName", b.LastName},
		{"dobMonth", b.DOBMonth},
		{"dobDay", b.DOBDay},
		{"dobYear", b.DOBYear},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return errors.Errorf("%s is required", f.name)
		}
	}
	if m := strings.TrimSpace(b.DOBMonth); len(m) > 2 || !inRange(m, 1, 12) {
		return errors.New("dobMonth must be a number from 1 to 12")
	}
	if d := strings.TrimSpace(b.DOBDay); len(d) > 2 || !inRange(d, 1, 31) {
		return errors.New("dobDay must be a number from 1 to 31")
	}
	if y := strings.TrimSpace(b.DOBYear); len(y) != 4 || !inRange(y, 1900, 9999) {
		return errors.New("dobYear must be a four digit year")
	}
	return nil
}

func (b lookupBody) request() models.LookupRequest {
	return models.NewLookupRequest(b.RecordLocator, b.FirstName, b.LastName, b.DOBMonth, b.DOBDay, b.DOBYear)
}

// inRange accepts plain decimal digits only; signs and spaces are rejected.
func inRange(s string, min, max int) bool {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return false
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= min && n <= max
}
