package trace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ShayCichocki/tracecheck/pkg/models"
)

func TestDecode_PositionalRecords(t *testing.T) {
	doc := `{"trace": [
		["start", 1, "A", "simple", "flow"],
		["update", 2, "A.x", "simple", "update", {"dataType": "write"}],
		["end", 1, "A", "simple", "flow", {"dataType": "result", "result": 3}]
	]}`

	got, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	want := []models.Record{
		{Position: models.PositionStart, EventID: 1, NodeID: "A", Kind: "simple", Type: "flow"},
		{Position: models.PositionUpdate, EventID: 2, NodeID: "A.x", Kind: "simple", Type: "update"},
		{Position: models.PositionEnd, EventID: 1, NodeID: "A", Kind: "simple", Type: "flow"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_ObjectRecords(t *testing.T) {
	doc := `{"trace": [
		{"pos": "start", "nodeId": "n1", "eventType": "controlFlow", "type": "GroupEvent"},
		{"pos": "end", "nodeId": "n1", "eventType": "controlFlow", "type": "GroupEvent", "eventId": 9}
	]}`

	got, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	want := []models.Record{
		{Position: models.PositionStart, NodeID: "n1", Kind: "controlFlow", Type: "GroupEvent"},
		{Position: models.PositionEnd, EventID: 9, NodeID: "n1", Kind: "controlFlow", Type: "GroupEvent"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_NumericNodeID(t *testing.T) {
	doc := `{"trace": [["start", 0, 42], {"pos": "end", "nodeId": 42}]}`

	got, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].NodeID != "42" || got[1].NodeID != "42" {
		t.Errorf("expected node id 42 on both records, got %q and %q", got[0].NodeID, got[1].NodeID)
	}
}

func TestDecode_CustomField(t *testing.T) {
	doc := `{"events": [["start", 1, "A"], ["end", 1, "A"]]}`

	got, err := NewLoader("events").Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 records, got %d", len(got))
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"not json", `nope`, "parse document"},
		{"missing field", `{"other": []}`, `no "trace" field`},
		{"field not array", `{"trace": {}}`, "not an array"},
		{"short positional", `{"trace": [["start", 1]]}`, "record 0"},
		{"scalar record", `{"trace": [1]}`, "array or object"},
		{"missing pos", `{"trace": [{"nodeId": "A"}]}`, "missing pos"},
		{"missing node", `{"trace": [{"pos": "start"}]}`, "missing nodeId"},
		{"unknown position", `{"trace": [["enter", 1, "A"]]}`, "unknown position"},
		{"bad node type", `{"trace": [["start", 1, true]]}`, "nodeId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eventTrace.json")
	if err := os.WriteFile(path, []byte(`{"trace": [["start", 1, "A"], ["end", 1, "A"]]}`), 0644); err != nil {
		t.Fatalf("failed to write trace: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 records, got %d", len(got))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "open trace") {
		t.Errorf("unexpected error: %v", err)
	}
}
