package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()

	log, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestRecordAndRecent(t *testing.T) {
	log := openTestLog(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	entries := []Entry{
		{
			RunID:             "run-1",
			StartedAt:         base,
			Preview:           true,
			Outcome:           "preview",
		},
		{
			RunID:             "run-2",
			StartedAt:         base.Add(time.Hour),
			AllowDestructive:  true,
			StatementsApplied: 3,
			StatementsSkipped: 1,
			FunctionsDeployed: 2,
			FunctionsFailed:   1,
			Outcome:           "success",
			BackupPath:        "backups/20260801_110000_sync/prod_full.sql",
		},
	}
	for _, e := range entries {
		if err := log.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := log.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}

	// Newest first
	if got[0].RunID != "run-2" || got[1].RunID != "run-1" {
		t.Errorf("expected newest-first ordering, got %s then %s", got[0].RunID, got[1].RunID)
	}

	second := got[0]
	if !second.AllowDestructive || second.Preview {
		t.Errorf("flags not round-tripped: %+v", second)
	}
	if second.StatementsApplied != 3 || second.StatementsSkipped != 1 {
		t.Errorf("statement counts not round-tripped: %+v", second)
	}
	if second.FunctionsDeployed != 2 || second.FunctionsFailed != 1 {
		t.Errorf("function tally not round-tripped: %+v", second)
	}
	if !second.StartedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("timestamp not round-tripped: %v", second.StartedAt)
	}
}

func TestRecent_RespectsLimit(t *testing.T) {
	log := openTestLog(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := log.Record(ctx, Entry{
			RunID:     string(rune('a' + i)),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Outcome:   "success",
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := log.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected limit of 2, got %d entries", len(got))
	}
}

func TestRecord_DuplicateRunID(t *testing.T) {
	log := openTestLog(t)
	ctx := context.Background()

	e := Entry{RunID: "run-1", StartedAt: time.Now(), Outcome: "success"}
	if err := log.Record(ctx, e); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := log.Record(ctx, e); err == nil {
		t.Error("expected duplicate run id to be rejected")
	}
}

func TestRecent_EmptyLedger(t *testing.T) {
	log := openTestLog(t)

	got, err := log.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty ledger, got %d entries", len(got))
	}
}
