package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"lai-go/internal/model"
)

// newTestDB creates a new in-memory database with migrations applied.
func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()

	db, err := NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newRun(op string, started time.Time) *model.Run {
	return &model.Run{
		ID:        uuid.New().String(),
		Operation: op,
		Source:    "/tmp/input.bin",
		StartedAt: started,
	}
}

func TestSQLiteDatabase_CreateRun(t *testing.T) {
	t.Run("defaults status to running", func(t *testing.T) {
		db := newTestDB(t)

		run := newRun("seal", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
		if err := db.CreateRun(run); err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}
		if run.Status != model.RunRunning {
			t.Errorf("Status = %q, want %q", run.Status, model.RunRunning)
		}

		runs, err := db.ListRuns(10)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("ListRuns() returned %d runs, want 1", len(runs))
		}

		got := runs[0]
		if got.ID != run.ID || got.Operation != "seal" || got.Source != run.Source {
			t.Errorf("ListRuns()[0] = %+v, want %+v", got, run)
		}
		if !got.StartedAt.Equal(run.StartedAt) {
			t.Errorf("StartedAt = %v, want %v", got.StartedAt, run.StartedAt)
		}
		if got.Finished() {
			t.Errorf("new run reported as finished: %v", got.FinishedAt)
		}
	})

	t.Run("requires id", func(t *testing.T) {
		db := newTestDB(t)

		run := newRun("seal", time.Now())
		run.ID = ""
		if err := db.CreateRun(run); err == nil {
			t.Error("CreateRun() expected error for empty id")
		}
	})

	t.Run("rejects duplicate id", func(t *testing.T) {
		db := newTestDB(t)

		run := newRun("seal", time.Now())
		if err := db.CreateRun(run); err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}
		if err := db.CreateRun(run); err == nil {
			t.Error("CreateRun() expected error for duplicate id")
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		db := newTestDB(t)

		run := newRun("seal", time.Now())
		run.Status = "paused"
		if err := db.CreateRun(run); err == nil {
			t.Error("CreateRun() expected error for unknown status")
		}
	})
}

func TestSQLiteDatabase_FinishRun(t *testing.T) {
	t.Run("records outcome", func(t *testing.T) {
		db := newTestDB(t)

		started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		run := newRun("verify", started)
		if err := db.CreateRun(run); err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}

		finished := started.Add(1500 * time.Millisecond)
		run.Status = model.RunSuccess
		run.BundleID = "bundle-1"
		run.Length = 1024
		run.Blocks = 1024
		run.FinishedAt = &finished
		if err := db.FinishRun(run); err != nil {
			t.Fatalf("FinishRun() error = %v", err)
		}

		runs, err := db.ListRuns(1)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		got := runs[0]
		if got.Status != model.RunSuccess || got.BundleID != "bundle-1" {
			t.Errorf("run = %+v, want success for bundle-1", got)
		}
		if got.Length != 1024 || got.Blocks != 1024 {
			t.Errorf("Length/Blocks = %d/%d, want 1024/1024", got.Length, got.Blocks)
		}
		if !got.Finished() || !got.FinishedAt.Equal(finished) {
			t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, finished)
		}
	})

	t.Run("records error detail", func(t *testing.T) {
		db := newTestDB(t)

		run := newRun("open", time.Now())
		if err := db.CreateRun(run); err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}

		now := time.Now()
		run.Status = model.RunError
		run.Detail = "checksum mismatch"
		run.FinishedAt = &now
		if err := db.FinishRun(run); err != nil {
			t.Fatalf("FinishRun() error = %v", err)
		}

		runs, err := db.ListRuns(1)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if runs[0].Status != model.RunError || runs[0].Detail != "checksum mismatch" {
			t.Errorf("run = %+v, want error with detail", runs[0])
		}
	})

	t.Run("requires finish time", func(t *testing.T) {
		db := newTestDB(t)

		run := newRun("seal", time.Now())
		if err := db.CreateRun(run); err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}
		if err := db.FinishRun(run); err == nil {
			t.Error("FinishRun() expected error without FinishedAt")
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		db := newTestDB(t)

		now := time.Now()
		run := newRun("seal", now)
		run.Status = model.RunSuccess
		run.FinishedAt = &now
		if err := db.FinishRun(run); err == nil {
			t.Error("FinishRun() expected error for unknown run")
		}
	})
}

func TestSQLiteDatabase_ListRuns(t *testing.T) {
	t.Run("newest first with limit", func(t *testing.T) {
		db := newTestDB(t)

		base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		var ids []string
		for i := range 5 {
			run := newRun("seal", base.Add(time.Duration(i)*time.Minute))
			if err := db.CreateRun(run); err != nil {
				t.Fatalf("CreateRun() error = %v", err)
			}
			ids = append(ids, run.ID)
		}

		runs, err := db.ListRuns(3)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("ListRuns(3) returned %d runs", len(runs))
		}
		for i, want := range []string{ids[4], ids[3], ids[2]} {
			if runs[i].ID != want {
				t.Errorf("runs[%d].ID = %s, want %s", i, runs[i].ID, want)
			}
		}
	})

	t.Run("same start time falls back to insertion order", func(t *testing.T) {
		db := newTestDB(t)

		started := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		first := newRun("seal", started)
		second := newRun("open", started)
		for _, r := range []*model.Run{first, second} {
			if err := db.CreateRun(r); err != nil {
				t.Fatalf("CreateRun() error = %v", err)
			}
		}

		runs, err := db.ListRuns(2)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if runs[0].ID != second.ID || runs[1].ID != first.ID {
			t.Errorf("order = [%s %s], want [%s %s]", runs[0].ID, runs[1].ID, second.ID, first.ID)
		}
	})

	t.Run("empty database", func(t *testing.T) {
		db := newTestDB(t)

		runs, err := db.ListRuns(10)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 0 {
			t.Errorf("ListRuns() = %d runs, want 0", len(runs))
		}
	})

	t.Run("non-positive limit", func(t *testing.T) {
		db := newTestDB(t)

		if err := db.CreateRun(newRun("seal", time.Now())); err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}
		runs, err := db.ListRuns(0)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 0 {
			t.Errorf("ListRuns(0) = %d runs, want 0", len(runs))
		}
	})
}

func TestSQLiteDatabase_CheckMigrations(t *testing.T) {
	t.Run("migrated database is current", func(t *testing.T) {
		db := newTestDB(t)

		if err := db.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
	})

	t.Run("unmigrated database is reported", func(t *testing.T) {
		conn, err := OpenConnection(":memory:")
		if err != nil {
			t.Fatalf("OpenConnection() error = %v", err)
		}
		db := newSQLiteDatabaseFromDB(conn)
		t.Cleanup(func() { db.Close() })

		if err := db.CheckMigrations(); err == nil {
			t.Error("CheckMigrations() expected error for empty database")
		}
	})
}

func TestSQLiteDatabase_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lai.db")

	db, err := NewSQLiteDatabase(path)
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	run := newRun("seal", time.Now().UTC())
	if err := db.CreateRun(run); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteDatabase(path)
	if err != nil {
		t.Fatalf("reopening database: %v", err)
	}
	defer reopened.Close()

	runs, err := reopened.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID {
		t.Errorf("ListRuns() after reopen = %v, want run %s", runs, run.ID)
	}
}
