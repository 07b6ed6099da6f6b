package database

import (
	"database/sql"
	"fmt"

	"lai-go/internal/database/migrations"
	"lai-go/internal/lai"
	"lai-go/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the Database interface using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

var _ lai.Database = (*SQLiteDatabase)(nil)

// NewSQLiteDatabase opens the database at path and applies pending migrations.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// newSQLiteDatabaseFromDB wraps an existing connection without migrating it.
func newSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

func (s *SQLiteDatabase) CreateRun(run *model.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if run.Status == "" {
		run.Status = model.RunRunning
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (id, operation, source, bundle_id, status, detail, length, blocks, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Operation, run.Source, run.BundleID, run.Status, run.Detail,
		run.Length, run.Blocks, run.StartedAt.UTC(), nullTime(run),
	)
	if err != nil {
		return fmt.Errorf("creating run: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FinishRun(run *model.Run) error {
	if run.FinishedAt == nil {
		return fmt.Errorf("run %s has no finish time", run.ID)
	}

	res, err := s.db.Exec(`
		UPDATE runs
		SET bundle_id = ?, status = ?, detail = ?, length = ?, blocks = ?, finished_at = ?
		WHERE id = ?`,
		run.BundleID, run.Status, run.Detail, run.Length, run.Blocks, run.FinishedAt.UTC(), run.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run not found: %s", run.ID)
	}
	return nil
}

func (s *SQLiteDatabase) ListRuns(limit int) ([]*model.Run, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.Query(`
		SELECT id, operation, source, bundle_id, status, detail, length, blocks, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		var (
			r        model.Run
			finished sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Operation, &r.Source, &r.BundleID, &r.Status, &r.Detail,
			&r.Length, &r.Blocks, &r.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// CheckMigrations returns an error if the schema is not at the latest version.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}

func nullTime(run *model.Run) sql.NullTime {
	if run.FinishedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}
}
