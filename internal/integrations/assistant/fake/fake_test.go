package fake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_Ask(t *testing.T) {
	c := New()

	out, err := c.Ask(context.Background(), `{"passengerName":"Pedro Feitosa","segments":[{},{}]}`)
	require.NoError(t, err)
	require.Equal(t, "1. Confirm identity of Pedro Feitosa.\n"+
		"2. Review 2 segment(s) for irregular operations.\n"+
		"3. Offer the next available flight on the affected segment.", out)

	out, err = c.Ask(context.Background(), `{"passengerName":"Ana Silva","segments":[]}`)
	require.NoError(t, err)
	require.Contains(t, out, "2. No segments were found")

	_, err = c.Ask(context.Background(), `not json`)
	require.Error(t, err)
}
