package board

import "time"

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeEmpty   Outcome = "empty"
	OutcomeError   Outcome = "error"
)

// Attempt records one variant probe. It is reported, never persisted on its own.
type Attempt struct {
	Date      string        `json:"date"`
	Category  string        `json:"category"`
	SortField string        `json:"sort_field"`
	Outcome   Outcome       `json:"outcome"`
	Rows      int           `json:"rows"`
	Err       string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}
