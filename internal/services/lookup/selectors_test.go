package lookup

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectors_WithOverrides(t *testing.T) {
	def := DefaultSelectors()
	got := def.WithOverrides(Selectors{
		Rows:  []string{".leg"},
		Error: []string{".oops", ".message-error"},
	})

	require.Equal(t, []string{".leg"}, got.Rows)
	require.Equal(t, []string{".oops", ".message-error"}, got.Error)
	require.Equal(t, def.Success, got.Success)
	require.Equal(t, def.FlightNumber, got.FlightNumber)
	require.Equal(t, def.Submit, got.Submit)
}

func TestDefaultSelectors_NoEmptyChain(t *testing.T) {
	s := DefaultSelectors()
	for name, chain := range map[string][]string{
		"record_locator": s.RecordLocator, "first_name": s.FirstName, "last_name": s.LastName,
		"dob_month": s.DOBMonth, "dob_day": s.DOBDay, "dob_year": s.DOBYear, "submit": s.Submit,
		"success": s.Success, "error": s.Error, "rows": s.Rows,
		"flight_number": s.FlightNumber, "date": s.Date, "origin": s.Origin, "destination": s.Destination,
		"scheduled_departure": s.ScheduledDeparture, "scheduled_arrival": s.ScheduledArrival, "status": s.Status,
	} {
		require.NotEmpty(t, chain, name)
	}
}
