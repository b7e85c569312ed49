package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLookupRequest_PadsMonthAndDay(t *testing.T) {
	r := NewLookupRequest("ABC123", "Pedro", "Feitosa", "9", "16", "2002")
	require.Equal(t, "09", r.DOBMonth)
	require.Equal(t, "16", r.DOBDay)
	require.Equal(t, "2002", r.DOBYear)
	require.Equal(t, "ABC123", r.RecordLocator)
}

func TestPadTwoDigits(t *testing.T) {
	require.Equal(t, "01", PadTwoDigits("1"))
	require.Equal(t, "01", PadTwoDigits(" 1 "))
	require.Equal(t, "12", PadTwoDigits("12"))
	require.Equal(t, "", PadTwoDigits(""))
	require.Equal(t, "09", PadTwoDigits("009"))
	require.Equal(t, "09", PadTwoDigits("+9"))
	require.Equal(t, "00", PadTwoDigits("0"))
	require.Equal(t, "x", PadTwoDigits(" x"))
	require.Equal(t, "-1", PadTwoDigits("-1"))
}

func TestPassengerName_NotReformatted(t *testing.T) {
	r := NewLookupRequest("X", " pedro", "FEITOSA ", "1", "1", "2000")
	require.Equal(t, " pedro FEITOSA ", r.PassengerName())
}

func TestLookupResult_JSON_WarningsOmittedWhenEmpty(t *testing.T) {
	b, err := json.Marshal(LookupResult{PassengerName: "A B", Segments: []Segment{}})
	require.NoError(t, err)
	require.JSONEq(t, `{"passengerName":"A B","segments":[]}`, string(b))

	b, err = json.Marshal(LookupResult{PassengerName: "A B", Segments: []Segment{{}}, Warnings: []string{"w"}})
	require.NoError(t, err)
	require.Contains(t, string(b), `"warnings":["w"]`)
	require.Contains(t, string(b), `"flightNumber":null`)
}
