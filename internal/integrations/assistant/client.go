package assistant

import "context"

// DefaultPrompt precedes the reservation JSON in the message sent to the
// assistant.
const DefaultPrompt = "Analyze the following live reservation data and return a short, " +
	"numbered list of QIK steps to rebook or assist the passenger."

// Client returns the assistant's reply to a reservation. A run that does not
// complete is reported as a descriptive reply, not as an error; errors are
// transport failures.
type Client interface {
	Ask(ctx context.Context, reservationJSON string) (string, error)
}
