package nesting

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ShayCichocki/tracecheck/pkg/models"
)

func start(id string) models.Record {
	return models.Record{Position: models.PositionStart, NodeID: id}
}

func end(id string) models.Record {
	return models.Record{Position: models.PositionEnd, NodeID: id}
}

func TestCheck_Balanced(t *testing.T) {
	tests := []struct {
		name    string
		records []models.Record
	}{
		{"empty trace", nil},
		{"single event", []models.Record{start("A"), end("A")}},
		{"nested", []models.Record{start("A"), start("B"), end("B"), end("A")}},
		{"siblings", []models.Record{start("A"), start("B"), end("B"), start("C"), end("C"), end("A")}},
		{"repeated id", []models.Record{start("L"), end("L"), start("L"), end("L")}},
		{"non-nesting records ignored", []models.Record{
			start("A"),
			{Position: models.PositionUpdate, NodeID: "x"},
			{Position: models.PositionCall, NodeID: "A"},
			end("A"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Check(tt.records)
			if !report.OK() {
				t.Errorf("expected no violations, got %v", report.Lines())
			}
			if len(report.Unclosed) != 0 {
				t.Errorf("expected empty residual stack, got %v", report.Unclosed)
			}
		})
	}
}

func TestCheck_CrossedEvents(t *testing.T) {
	report := Check([]models.Record{start("A"), start("B"), end("A"), end("B")})

	want := []Violation{
		{Kind: UnmatchedEnd, Index: 2, Expected: "B", Got: "A"},
		{Kind: UnmatchedEnd, Index: 3, Expected: "A", Got: "B"},
	}
	if diff := cmp.Diff(want, report.Violations); diff != "" {
		t.Errorf("violations mismatch (-want +got):\n%s", diff)
	}

	if got := report.Violations[0].String(); got != "error event B should be closed but event A is closed" {
		t.Errorf("unexpected diagnostic: %q", got)
	}
}

func TestCheck_TrailingUnclosed(t *testing.T) {
	report := Check([]models.Record{start("A"), start("B"), end("B")})

	if diff := cmp.Diff([]string{"A"}, report.Unclosed); diff != "" {
		t.Errorf("unclosed mismatch (-want +got):\n%s", diff)
	}
	if len(report.Violations) != 1 || report.Violations[0].Kind != UnclosedStart {
		t.Fatalf("expected a single unclosed violation, got %+v", report.Violations)
	}
	if got := report.Violations[0].String(); got != "following [A] events should be closed" {
		t.Errorf("unexpected diagnostic: %q", got)
	}
}

func TestCheck_UnclosedOutermostFirst(t *testing.T) {
	report := Check([]models.Record{start("A"), start("B"), start("C")})

	if diff := cmp.Diff([]string{"A", "B", "C"}, report.Unclosed); diff != "" {
		t.Errorf("unclosed mismatch (-want +got):\n%s", diff)
	}
	if report.Violations[0].Index != 3 {
		t.Errorf("expected index to be trace length 3, got %d", report.Violations[0].Index)
	}
}

func TestCheck_EndWithNothingOpen(t *testing.T) {
	report := Check([]models.Record{end("Z"), start("A"), end("A")})

	want := []Violation{{Kind: UnmatchedEnd, Index: 0, Got: "Z"}}
	if diff := cmp.Diff(want, report.Violations); diff != "" {
		t.Errorf("violations mismatch (-want +got):\n%s", diff)
	}
	if got := report.Violations[0].String(); got != "error event Z is closed but no event is open" {
		t.Errorf("unexpected diagnostic: %q", got)
	}
}

func TestCheck_ContinuesAfterMismatch(t *testing.T) {
	report := Check([]models.Record{
		// B is popped by end(A), then A closes cleanly.
		start("A"), start("B"), end("A"), end("A"),
		// C is popped by end(D).
		start("C"), end("D"),
		start("E"),
	})

	if len(report.Violations) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(report.Violations), report.Lines())
	}
	if report.Violations[2].Kind != UnclosedStart {
		t.Errorf("expected unclosed violation last, got %s", report.Violations[2].Kind)
	}
	if report.Checked != 7 {
		t.Errorf("expected 7 checked records, got %d", report.Checked)
	}
}

func TestCheck_Idempotent(t *testing.T) {
	records := []models.Record{start("A"), start("B"), end("A"), start("C")}

	first := Check(records)
	second := Check(records)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("reports differ between runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Lines(), second.Lines()); diff != "" {
		t.Errorf("diagnostics differ between runs:\n%s", diff)
	}
}
