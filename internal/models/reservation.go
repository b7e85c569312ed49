package models

import (
	"fmt"
	"strconv"
	"strings"
)

// LookupRequest is the identity a passenger types into the reservation
// lookup form. Month and day are always two digits.
type LookupRequest struct {
	RecordLocator string
	FirstName     string
	LastName      string
	DOBMonth      string
	DOBDay        string
	DOBYear       string
}

func NewLookupRequest(recordLocator, firstName, lastName, month, day, year string) LookupRequest {
	return LookupRequest{
		RecordLocator: recordLocator,
		FirstName:     firstName,
		LastName:      lastName,
		DOBMonth:      PadTwoDigits(month),
		DOBDay:        PadTwoDigits(day),
		DOBYear:       year,
	}
}

// PassengerName is first and last name joined by a single space, as given.
func (r LookupRequest) PassengerName() string {
	return r.FirstName + " " + r.LastName
}

// PadTwoDigits renders a non-negative decimal as at least two digits
// ("9", "009" and "+9" all become "09"). Anything else is returned trimmed.
func PadTwoDigits(s string) string {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return s
	}
	return fmt.Sprintf("%02d", n)
}

// Segment is one flight leg. A nil field could not be located on the page.
type Segment struct {
	FlightNumber       *string `json:"flightNumber"`
	DateLocal          *string `json:"dateLocal"`
	Origin             *string `json:"origin"`
	Destination        *string `json:"destination"`
	ScheduledDeparture *string `json:"scheduledDeparture"`
	ScheduledArrival   *string `json:"scheduledArrival"`
	Status             *string `json:"status"`
}

type LookupResult struct {
	PassengerName string    `json:"passengerName"`
	Segments      []Segment `json:"segments"`
	Warnings      []string  `json:"warnings,omitempty"`
	Debug         *Debug    `json:"debug,omitempty"`
}

// Debug is diagnostic only.
type Debug struct {
	URL         string `json:"url"`
	HTMLLength  int    `json:"htmlLength"`
	HTMLPreview string `json:"htmlPreview"`
}
