package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/radar-cli/internal/company"
	"github.com/sells-group/radar-cli/internal/model"
)

// ErrNotFound is wrapped by updates and lookups that match no row.
var ErrNotFound = eris.New("not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Source string          `json:"source,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`

	// CreatedAfter keeps runs created at or after this instant when non-zero.
	CreatedAfter time.Time `json:"created_after,omitempty"`
}

// Store persists the client ledger and the batch run log.
type Store interface {
	company.Store

	// Runs
	CreateRun(ctx context.Context, source string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, records int, tally model.Tally, runErr error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func runStatusFor(runErr error) (model.RunStatus, string) {
	if runErr != nil {
		return model.RunStatusFailed, runErr.Error()
	}
	return model.RunStatusComplete, ""
}

func listLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}
