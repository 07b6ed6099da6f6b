package app

import (
	"errors"
	"testing"
	"time"

	"lai-go/internal/model"
)

func TestNewOperation(t *testing.T) {
	started := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	op := NewOperation("run-1", "seal", started)

	if op.Run.ID != "run-1" || op.Run.Operation != "seal" {
		t.Errorf("Run = %+v", op.Run)
	}
	if op.Run.Status != model.RunRunning {
		t.Errorf("Status = %q, want %q", op.Run.Status, model.RunRunning)
	}
	if !op.Run.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", op.Run.StartedAt, started)
	}
	if op.Persisted() {
		t.Error("new operation reported as persisted")
	}
	if op.Run.Finished() {
		t.Error("new operation reported as finished")
	}
}

func TestOperation_Finish(t *testing.T) {
	finished := time.Date(2026, 4, 1, 9, 0, 5, 0, time.UTC)

	tests := []struct {
		name       string
		errs       []error
		wantStatus string
		wantDetail string
	}{
		{name: "success", wantStatus: model.RunSuccess},
		{name: "nil error is ignored", errs: []error{nil}, wantStatus: model.RunSuccess},
		{name: "error", errs: []error{errors.New("boom")}, wantStatus: model.RunError, wantDetail: "boom"},
		{name: "first error wins", errs: []error{errors.New("first"), errors.New("second")}, wantStatus: model.RunError, wantDetail: "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation("run-1", "verify", finished.Add(-time.Second))
			for _, err := range tt.errs {
				op.Fail(err)
			}
			op.Finish(finished)

			if op.Run.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", op.Run.Status, tt.wantStatus)
			}
			if op.Run.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", op.Run.Detail, tt.wantDetail)
			}
			if !op.Run.Finished() || !op.Run.FinishedAt.Equal(finished) {
				t.Errorf("FinishedAt = %v, want %v", op.Run.FinishedAt, finished)
			}
		})
	}
}
