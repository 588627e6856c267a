package validation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/tracecheck/internal/grammar"
	"github.com/ShayCichocki/tracecheck/internal/nesting"
	"github.com/ShayCichocki/tracecheck/internal/trace"
	"github.com/ShayCichocki/tracecheck/pkg/models"
)

// Layer names as they appear in summaries and the history store.
const (
	LayerNesting = "Nesting"
	LayerGrammar = "Grammar"
)

// Options configures which layers run and how.
type Options struct {
	// GroupType is the record type kept for tree construction.
	// Empty means models.GroupEventType.
	GroupType string
	// Mode is the grammar verification mode. Empty means first-child.
	Mode grammar.Mode
	// SkipNesting disables the nesting layer.
	SkipNesting bool
	// SkipGrammar disables the grammar layer.
	SkipGrammar bool
}

// Validator runs the nesting and grammar layers over a decoded trace.
// It holds no per-run state and is safe for concurrent use.
type Validator struct {
	opts   Options
	logger *zap.Logger
}

// NewValidator creates a validator. A nil logger discards output.
func NewValidator(opts Options, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Mode == "" {
		opts.Mode = grammar.ModeFirstChild
	}
	return &Validator{opts: opts, logger: logger}
}

// Options returns the validator's effective options.
func (v *Validator) Options() Options {
	return v.opts
}

// Input is a decoded trace to validate.
type Input struct {
	// Source names the trace, usually its file path.
	Source string
	// Records is the full ordered record sequence.
	Records []models.Record
}

// Result holds the outcome of all layers for one trace.
type Result struct {
	RunID     string    `json:"runId" yaml:"run_id"`
	Source    string    `json:"source" yaml:"source"`
	CheckedAt time.Time `json:"checkedAt" yaml:"checked_at"`
	Records   int       `json:"records" yaml:"records"`
	// AllPassed is true when every enabled layer passed.
	AllPassed bool   `json:"allPassed" yaml:"all_passed"`
	Layers    Layers `json:"layers" yaml:"layers"`
	// Nesting is the nesting report, nil when the layer was skipped.
	Nesting *nesting.Report `json:"nesting,omitempty" yaml:"nesting,omitempty"`
	// Grammar is the grammar verdict, nil when skipped or when the
	// tree could not be built.
	Grammar *grammar.Verdict `json:"grammar,omitempty" yaml:"grammar,omitempty"`
	// Tree is the rebuilt group tree, nil when skipped or unbuildable.
	Tree          *grammar.Tree `json:"-" yaml:"-"`
	Summary       string        `json:"summary" yaml:"summary"`
	FailureReason string        `json:"failureReason,omitempty" yaml:"failure_reason,omitempty"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
}

// Layers contains results from each layer.
type Layers struct {
	Nesting *LayerResult `json:"nesting,omitempty" yaml:"nesting,omitempty"`
	Grammar *LayerResult `json:"grammar,omitempty" yaml:"grammar,omitempty"`
}

// All returns the layers that ran, in order.
func (l Layers) All() []*LayerResult {
	var out []*LayerResult
	for _, layer := range []*LayerResult{l.Nesting, l.Grammar} {
		if layer != nil {
			out = append(out, layer)
		}
	}
	return out
}

// LayerResult contains the result from a single layer.
type LayerResult struct {
	Name   string `json:"name" yaml:"name"`
	Passed bool   `json:"passed" yaml:"passed"`
	// Output is the layer's diagnostic lines joined by newlines.
	Output   string        `json:"output,omitempty" yaml:"output,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	// Error is set when the layer could not run to a verdict.
	Error error `json:"-" yaml:"-"`
	// ErrorText mirrors Error for encoded output.
	ErrorText string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ValidateFile loads the trace at path and validates it.
func (v *Validator) ValidateFile(ctx context.Context, loader *trace.Loader, path string) (*Result, error) {
	records, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	return v.Validate(ctx, Input{Source: path, Records: records})
}

// Validate runs every enabled layer over the input.
func (v *Validator) Validate(ctx context.Context, input Input) (*Result, error) {
	startTime := time.Now()

	result := &Result{
		RunID:     uuid.New().String(),
		Source:    input.Source,
		CheckedAt: startTime.UTC(),
		Records:   len(input.Records),
		AllPassed: true,
	}
	log := v.logger.With(zap.String("run", result.RunID[:8]), zap.String("source", input.Source))
	log.Debug("Validating trace", zap.Int("records", len(input.Records)))

	var failed []string

	if !v.opts.SkipNesting {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		layer, report := v.runNesting(input)
		result.Layers.Nesting = layer
		result.Nesting = report
		if !layer.Passed {
			failed = append(failed, LayerNesting)
		}
		log.Debug("Nesting layer done",
			zap.Bool("passed", layer.Passed),
			zap.Int("violations", len(report.Violations)),
			zap.Duration("took", layer.Duration))
	}

	if !v.opts.SkipGrammar {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		layer, tree, verdict := v.runGrammar(input)
		result.Layers.Grammar = layer
		result.Tree = tree
		result.Grammar = verdict
		if !layer.Passed {
			failed = append(failed, LayerGrammar)
		}
		if tree != nil && tree.Trailing > 0 {
			log.Warn("Group records after the root closed were ignored", zap.Int("trailing", tree.Trailing))
		}
		log.Debug("Grammar layer done",
			zap.Bool("passed", layer.Passed),
			zap.Duration("took", layer.Duration))
	}

	if len(failed) > 0 {
		result.AllPassed = false
		result.FailureReason = strings.Join(failed, ", ") + " failed"
	}
	result.Duration = time.Since(startTime)
	result.Summary = buildSummary(result)

	return result, nil
}

func (v *Validator) runNesting(input Input) (*LayerResult, *nesting.Report) {
	startTime := time.Now()
	report := nesting.Check(input.Records)

	layer := &LayerResult{
		Name:     LayerNesting,
		Passed:   report.OK(),
		Output:   strings.Join(report.Lines(), "\n"),
		Duration: time.Since(startTime),
	}
	return layer, report
}

func (v *Validator) runGrammar(input Input) (*LayerResult, *grammar.Tree, *grammar.Verdict) {
	startTime := time.Now()
	layer := &LayerResult{Name: LayerGrammar}

	tree, err := grammar.BuildFromTrace(input.Records, v.opts.GroupType)
	if err != nil {
		layer.Error = err
		layer.ErrorText = err.Error()
		layer.Output = fmt.Sprintf("Error building group tree: %v", err)
		layer.Duration = time.Since(startTime)
		return layer, nil, nil
	}

	verdict := grammar.Verify(tree.Root, v.opts.Mode)
	layer.Passed = verdict.WellFormed

	lines := make([]string, 0, len(verdict.Violations)+1)
	lines = append(lines, fmt.Sprintf("%t", verdict.WellFormed))
	for _, viol := range verdict.Violations {
		lines = append(lines, viol.String())
	}
	layer.Output = strings.Join(lines, "\n")
	layer.Duration = time.Since(startTime)

	return layer, tree, verdict
}

// buildSummary creates a human-readable summary of the results.
func buildSummary(result *Result) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Trace %s (%d records):\n", result.Source, result.Records))

	for _, layer := range result.Layers.All() {
		status := "✗ FAIL"
		if layer.Passed {
			status = "✓ PASS"
		}
		sb.WriteString(fmt.Sprintf("\n%s: %s [%v]\n", layer.Name, status, layer.Duration))
		if !layer.Passed && layer.Output != "" {
			for _, line := range strings.Split(layer.Output, "\n") {
				sb.WriteString("  " + line + "\n")
			}
		}
	}

	if result.AllPassed {
		sb.WriteString("\n✓ All checks passed\n")
	} else {
		sb.WriteString(fmt.Sprintf("\n✗ Validation failed: %s\n", result.FailureReason))
	}

	return sb.String()
}
