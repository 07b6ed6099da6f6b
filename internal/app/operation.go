package app

import (
	"time"

	"lai-go/internal/model"
)

// Operation tracks the CLI command being run. It starts in memory; commands
// that read or write bundles persist it as a run so it shows up in history.
type Operation struct {
	Run       *model.Run
	persisted bool
	err       error
}

// NewOperation creates a new in-memory operation.
func NewOperation(id, name string, started time.Time) *Operation {
	return &Operation{
		Run: &model.Run{
			ID:        id,
			Operation: name,
			Status:    model.RunRunning,
			StartedAt: started,
		},
	}
}

// Persisted returns true if this operation has been saved to the database.
func (op *Operation) Persisted() bool {
	return op.persisted
}

// Fail records err as the outcome. Only the first error is kept.
func (op *Operation) Fail(err error) {
	if err != nil && op.err == nil {
		op.err = err
	}
}

// Finish sets the final status and finish time.
func (op *Operation) Finish(at time.Time) {
	if op.err != nil {
		op.Run.Status = model.RunError
		op.Run.Detail = op.err.Error()
	} else {
		op.Run.Status = model.RunSuccess
	}
	op.Run.FinishedAt = &at
}
