package messages

import "time"

// LookupCompleted is published after every lookup. It carries no passenger
// data: no names, record locators or birth dates.
type LookupCompleted struct {
	LookupID    string    `json:"lookup_id"`
	Operation   string    `json:"operation"`
	Outcome     string    `json:"outcome"`
	Segments    int       `json:"segments"`
	Warnings    int       `json:"warnings,omitempty"`
	ErrorKind   string    `json:"error_kind,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
	CompletedAt time.Time `json:"completed_at"`
}

const (
	OperationLookup = "lookup"
	OperationRebook = "rebook"
)
