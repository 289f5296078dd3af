package model

import "time"

// Outcome is the result of reconciling one lead into the ledger.
type Outcome string

// Reconciliation outcomes.
const (
	OutcomeInserted Outcome = "inserted"
	OutcomeUpdated  Outcome = "updated"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeError    Outcome = "error"
)

// Tally counts reconciliation outcomes over a batch.
type Tally struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// Add records one outcome.
func (t *Tally) Add(o Outcome) {
	switch o {
	case OutcomeInserted:
		t.Inserted++
	case OutcomeUpdated:
		t.Updated++
	case OutcomeSkipped:
		t.Skipped++
	default:
		t.Errors++
	}
}

// Total is the number of outcomes recorded.
func (t Tally) Total() int {
	return t.Inserted + t.Updated + t.Skipped + t.Errors
}

// RunStatus represents the state of a batch run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one batch of registry records pushed through enrichment and
// reconciliation.
type Run struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Status    RunStatus `json:"status"`
	Records   int       `json:"records"`
	Tally     Tally     `json:"tally"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
