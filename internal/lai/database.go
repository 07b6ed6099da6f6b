package lai

import "lai-go/internal/model"

// Database records the history of CLI operations.
type Database interface {
	// CreateRun inserts a new run in the "running" state.
	CreateRun(run *model.Run) error

	// FinishRun marks a run as finished with its outcome.
	FinishRun(run *model.Run) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*model.Run, error)

	// CheckMigrations returns an error if the schema is not at the latest version.
	CheckMigrations() error

	// Close closes the database connection.
	Close() error
}
