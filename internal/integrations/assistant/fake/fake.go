package fake

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Client answers without calling any API. The reply is derived from the
// segment count so local runs of /rebook are deterministic.
type Client struct{}

func New() *Client { return &Client{} }

func (c *Client) Ask(ctx context.Context, reservationJSON string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var res struct {
		PassengerName string            `json:"passengerName"`
		Segments      []json.RawMessage `json:"segments"`
	}
	if err := json.Unmarshal([]byte(reservationJSON), &res); err != nil {
		return "", fmt.Errorf("decode reservation: %w", err)
	}

	steps := []string{
		fmt.Sprintf("Confirm identity of %s.", strings.TrimSpace(res.PassengerName)),
	}
	if len(res.Segments) == 0 {
		steps = append(steps, "No segments were found; open the reservation manually.")
	} else {
		steps = append(steps, fmt.Sprintf("Review %d segment(s) for irregular operations.", len(res.Segments)))
		steps = append(steps, "Offer the next available flight on the affected segment.")
	}

	var b strings.Builder
	for i, s := range steps {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, s)
	}
	return b.String(), nil
}
