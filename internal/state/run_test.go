package state

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ShayCichocki/tracecheck/internal/validation"
)

func sampleRun(id, source string, at time.Time, passed bool) *Run {
	return &Run{
		ID:        id,
		Source:    source,
		CheckedAt: at,
		Records:   12,
		AllPassed: passed,
		Mode:      "strict",
		Duration:  3 * time.Millisecond,
		Layers: []Layer{
			{Name: "Nesting", Passed: true},
			{Name: "Grammar", Passed: passed, Output: "false\nroot/1: subStatement not allowed under controlFlow (node x)"},
		},
	}
}

func TestCreateAndGetRun(t *testing.T) {
	db := setupTestDB(t)
	at := time.Date(2026, 10, 14, 9, 30, 0, 123, time.UTC)

	want := sampleRun("run-1", "trace.json", at, false)
	if err := db.CreateRun(want); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	got, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("run mismatch (-want +got):\n%s", diff)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetRun("missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestCreateRun_DuplicateID(t *testing.T) {
	db := setupTestDB(t)
	run := sampleRun("dup", "a.json", time.Now(), true)

	if err := db.CreateRun(run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := db.CreateRun(run); err == nil {
		t.Error("expected error inserting duplicate run id")
	}
}

func TestListRuns(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	for i, src := range []string{"a.json", "b.json", "a.json"} {
		run := sampleRun(string(rune('x'+i)), src, base.Add(time.Duration(i)*time.Second), i%2 == 0)
		if err := db.CreateRun(run); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
	}

	all, err := db.ListRuns(RunFilter{})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	var ids []string
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"z", "y", "x"}, ids); diff != "" {
		t.Errorf("expected newest first (-want +got):\n%s", diff)
	}
	if all[0].Layers != nil {
		t.Error("expected ListRuns to omit layers")
	}

	onlyA, err := db.ListRuns(RunFilter{Source: "a.json", Limit: 1})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(onlyA) != 1 || onlyA[0].ID != "z" {
		t.Errorf("expected latest a.json run z, got %+v", onlyA)
	}
}

func TestPurgeOldRuns(t *testing.T) {
	db := setupTestDB(t)

	if err := db.CreateRun(sampleRun("old", "a.json", time.Now().Add(-48*time.Hour), true)); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := db.CreateRun(sampleRun("new", "a.json", time.Now(), true)); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	n, err := db.PurgeOldRuns(24 * time.Hour)
	if err != nil {
		t.Fatalf("PurgeOldRuns failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged run, got %d", n)
	}

	if _, err := db.GetRun("old"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected old run to be gone, got %v", err)
	}

	var layers int
	if err := db.QueryRow("SELECT COUNT(*) FROM layers WHERE run_id = 'old'").Scan(&layers); err != nil {
		t.Fatalf("count layers failed: %v", err)
	}
	if layers != 0 {
		t.Errorf("expected layers to cascade, got %d", layers)
	}
}

func TestRunFromResult(t *testing.T) {
	result := &validation.Result{
		RunID:     "abc",
		Source:    "t.json",
		CheckedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Records:   4,
		AllPassed: false,
		Layers: validation.Layers{
			Nesting: &validation.LayerResult{Name: "Nesting", Passed: true},
			Grammar: &validation.LayerResult{Name: "Grammar", ErrorText: "malformed root at group record 0"},
		},
	}

	run := RunFromResult(result, "first-child")

	want := []Layer{
		{Name: "Nesting", Passed: true},
		{Name: "Grammar", Error: "malformed root at group record 0"},
	}
	if diff := cmp.Diff(want, run.Layers); diff != "" {
		t.Errorf("layers mismatch (-want +got):\n%s", diff)
	}
	if run.ID != "abc" || run.Mode != "first-child" || run.Records != 4 {
		t.Errorf("unexpected run %+v", run)
	}
}
