package validation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ShayCichocki/tracecheck/internal/grammar"
	"github.com/ShayCichocki/tracecheck/internal/trace"
	"github.com/ShayCichocki/tracecheck/pkg/models"
)

func group(pos models.Position, id string, kind models.GroupKind) models.Record {
	rec := models.Record{Position: pos, NodeID: id, Type: models.GroupEventType}
	if pos == models.PositionEnd {
		rec.Kind = kind.String()
	}
	return rec
}

func wellFormedTrace() []models.Record {
	return []models.Record{
		group(models.PositionStart, "main", 0),
		{Position: models.PositionStart, NodeID: "expr", Type: "SimpleEvent"},
		{Position: models.PositionEnd, NodeID: "expr", Type: "SimpleEvent"},
		group(models.PositionStart, "stmt", 0),
		group(models.PositionEnd, "stmt", models.Statement),
		group(models.PositionEnd, "main", models.ControlFlow),
	}
}

func TestValidate_AllPassed(t *testing.T) {
	v := NewValidator(Options{}, nil)

	result, err := v.Validate(context.Background(), Input{Source: "ok.json", Records: wellFormedTrace()})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if !result.AllPassed {
		t.Errorf("expected all layers to pass, got:\n%s", result.Summary)
	}
	if result.Layers.Nesting == nil || result.Layers.Grammar == nil {
		t.Fatal("expected both layers to run")
	}
	if result.Tree == nil || result.Tree.Root.Kind != models.ControlFlow {
		t.Errorf("expected control-flow root, got %+v", result.Tree)
	}
	if result.Records != 6 {
		t.Errorf("expected 6 records, got %d", result.Records)
	}
	if len(result.RunID) != 36 {
		t.Errorf("expected a uuid run id, got %q", result.RunID)
	}
	if !strings.Contains(result.Summary, "All checks passed") {
		t.Errorf("unexpected summary:\n%s", result.Summary)
	}
}

func TestValidate_BothLayersRunOnFailure(t *testing.T) {
	records := []models.Record{
		group(models.PositionStart, "main", 0),
		group(models.PositionStart, "sub", 0),
		group(models.PositionEnd, "sub", models.SubStatement),
		group(models.PositionEnd, "main", models.ControlFlow),
		{Position: models.PositionStart, NodeID: "dangling"},
	}

	v := NewValidator(Options{}, nil)
	result, err := v.Validate(context.Background(), Input{Source: "bad.json", Records: records})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if result.AllPassed {
		t.Fatal("expected failure")
	}
	if result.Layers.Nesting.Passed {
		t.Error("expected nesting layer to fail on dangling start")
	}
	if result.Layers.Grammar.Passed {
		t.Error("expected grammar layer to fail on sub-statement under control flow")
	}
	if result.FailureReason != "Nesting, Grammar failed" {
		t.Errorf("unexpected failure reason %q", result.FailureReason)
	}
	if !strings.Contains(result.Layers.Nesting.Output, "following [dangling] events should be closed") {
		t.Errorf("unexpected nesting output %q", result.Layers.Nesting.Output)
	}
	if !strings.HasPrefix(result.Layers.Grammar.Output, "false") {
		t.Errorf("expected grammar output to start with verdict, got %q", result.Layers.Grammar.Output)
	}
}

func TestValidate_BuildErrorFailsGrammarLayer(t *testing.T) {
	records := []models.Record{group(models.PositionEnd, "x", models.ControlFlow)}

	result, err := NewValidator(Options{SkipNesting: true}, nil).Validate(context.Background(), Input{Records: records})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if result.Layers.Nesting != nil {
		t.Error("expected nesting layer to be skipped")
	}
	layer := result.Layers.Grammar
	if layer.Passed {
		t.Fatal("expected grammar layer to fail")
	}
	if !errors.Is(layer.Error, grammar.ErrMalformedRoot) {
		t.Errorf("expected ErrMalformedRoot, got %v", layer.Error)
	}
	if layer.ErrorText == "" {
		t.Error("expected error text to be set")
	}
	if result.Grammar != nil || result.Tree != nil {
		t.Error("expected no verdict or tree after build error")
	}
}

func TestValidate_StrictMode(t *testing.T) {
	records := []models.Record{
		group(models.PositionStart, "main", 0),
		group(models.PositionStart, "ok", 0),
		group(models.PositionEnd, "ok", models.Statement),
		group(models.PositionStart, "bad", 0),
		group(models.PositionEnd, "bad", models.SubStatement),
		group(models.PositionEnd, "main", models.ControlFlow),
	}

	lenient, _ := NewValidator(Options{}, nil).Validate(context.Background(), Input{Records: records})
	if !lenient.AllPassed {
		t.Errorf("expected first-child mode to pass, got:\n%s", lenient.Summary)
	}

	strict, _ := NewValidator(Options{Mode: grammar.ModeStrict}, nil).Validate(context.Background(), Input{Records: records})
	if strict.AllPassed {
		t.Fatal("expected strict mode to fail")
	}
	if len(strict.Grammar.Violations) != 1 || strict.Grammar.Violations[0].Path != "root/1" {
		t.Errorf("unexpected violations %v", strict.Grammar.Violations)
	}
}

func TestValidate_WarnsOnTrailingGroupRecords(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	v := NewValidator(Options{SkipNesting: true}, zap.New(core))

	records := append(wellFormedTrace(),
		group(models.PositionStart, "extra", 0),
		group(models.PositionEnd, "extra", models.ControlFlow))

	result, err := v.Validate(context.Background(), Input{Records: records})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.Tree.Trailing != 2 {
		t.Errorf("expected 2 trailing records, got %d", result.Tree.Trailing)
	}
	if logs.FilterMessageSnippet("ignored").Len() != 1 {
		t.Errorf("expected one trailing-records warning, got %d entries", logs.Len())
	}
}

func TestValidate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewValidator(Options{}, nil).Validate(ctx, Input{Records: wellFormedTrace()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestValidateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eventTrace.json")
	doc := `{"trace": [
		{"pos": "start", "nodeId": "m", "type": "GroupEvent"},
		{"pos": "end", "nodeId": "m", "eventType": "controlFlow", "type": "GroupEvent"}
	]}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("failed to write trace: %v", err)
	}

	result, err := NewValidator(Options{}, nil).ValidateFile(context.Background(), trace.NewLoader(""), path)
	if err != nil {
		t.Fatalf("ValidateFile failed: %v", err)
	}
	if !result.AllPassed {
		t.Errorf("expected pass, got:\n%s", result.Summary)
	}
	if result.Source != path {
		t.Errorf("expected source %q, got %q", path, result.Source)
	}

	if _, err := NewValidator(Options{}, nil).ValidateFile(context.Background(), trace.NewLoader(""), path+".missing"); err == nil {
		t.Error("expected error for missing file")
	}
}
