package lookup

// Selectors holds every fallback chain the pipeline uses. Each chain is tried
// in order and the first selector that matches wins; order is significant.
type Selectors struct {
	RecordLocator []string
	FirstName     []string
	LastName      []string
	DOBMonth      []string
	DOBDay        []string
	DOBYear       []string
	Submit        []string

	Success []string
	Error   []string

	Rows []string

	FlightNumber       []string
	Date               []string
	Origin             []string
	Destination        []string
	ScheduledDeparture []string
	ScheduledArrival   []string
	Status             []string
}

func DefaultSelectors() Selectors {
	return Selectors{
		RecordLocator: []string{`input[name="recordLocator"]`, `#recordLocator`, `input[id*="recordLocator"]`},
		FirstName:     []string{`input[name="firstName"]`, `#firstName`, `input[id*="firstName"]`},
		LastName:      []string{`input[name="lastName"]`, `#lastName`, `input[id*="lastName"]`},
		DOBMonth:      []string{`select[name="dobMonth"]`, `#dobMonth`, `select[id*="Month"]`},
		DOBDay:        []string{`select[name="dobDay"]`, `#dobDay`, `select[id*="Day"]`},
		DOBYear:       []string{`select[name="dobYear"]`, `#dobYear`, `select[id*="Year"]`},
		Submit: []string{
			`input[type="submit"]`,
			`button[type="submit"]`,
			`#findReservationForm button`,
		},

		Success: []string{
			`.trip-summary`,
			`[data-testid="trip-summary"]`,
			`.itinerary-details`,
			`#tripDetails`,
		},
		Error: []string{
			`.message-error`,
			`.alert-error`,
			`[role="alert"]`,
			`#errorMessage`,
		},

		Rows: []string{
			`[data-testid="segment"]`,
			`.segment-row`,
			`.flight-segment`,
			`table.itinerary tbody tr`,
		},

		FlightNumber:       []string{`[data-testid="flight-number"]`, `.flight-number`, `.flightNumber`},
		Date:               []string{`[data-testid="segment-date"]`, `.segment-date`, `.flight-date`},
		Origin:             []string{`[data-testid="origin"]`, `.origin .airport-code`, `.origin`},
		Destination:        []string{`[data-testid="destination"]`, `.destination .airport-code`, `.destination`},
		ScheduledDeparture: []string{`[data-testid="departure-time"]`, `.departure-time`, `.depart-time`},
		ScheduledArrival:   []string{`[data-testid="arrival-time"]`, `.arrival-time`, `.arrive-time`},
		Status:             []string{`[data-testid="flight-status"]`, `.flight-status`, `.status`},
	}
}

// WithOverrides returns s with every non-empty chain of o replacing the
// corresponding chain of s.
func (s Selectors) WithOverrides(o Selectors) Selectors {
	pick := func(base, over []string) []string {
		if len(over) > 0 {
			return over
		}
		return base
	}
	return Selectors{
		RecordLocator:      pick(s.RecordLocator, o.RecordLocator),
		FirstName:          pick(s.FirstName, o.FirstName),
		LastName:           pick(s.LastName, o.LastName),
		DOBMonth:           pick(s.DOBMonth, o.DOBMonth),
		DOBDay:             pick(s.DOBDay, o.DOBDay),
		DOBYear:            pick(s.DOBYear, o.DOBYear),
		Submit:             pick(s.Submit, o.Submit),
		Success:            pick(s.Success, o.Success),
		Error:              pick(s.Error, o.Error),
		Rows:               pick(s.Rows, o.Rows),
		FlightNumber:       pick(s.FlightNumber, o.FlightNumber),
		Date:               pick(s.Date, o.Date),
		Origin:             pick(s.Origin, o.Origin),
		Destination:        pick(s.Destination, o.Destination),
		ScheduledDeparture: pick(s.ScheduledDeparture, o.ScheduledDeparture),
		ScheduledArrival:   pick(s.ScheduledArrival, o.ScheduledArrival),
		Status:             pick(s.Status, o.Status),
	}
}
