// Package nesting checks that the start and end markers of an event trace
// balance in last-opened-first-closed order.
//
// The check is diagnostic: it never stops at the first problem. Every
// mismatched end is recorded, and whatever is still open when the trace ends
// is reported once as unclosed.
package nesting

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/tracecheck/pkg/models"
)

// ViolationKind classifies a nesting violation.
type ViolationKind string

const (
	// UnmatchedEnd is an end marker whose node id is not the innermost open
	// event, or an end marker with nothing open.
	UnmatchedEnd ViolationKind = "unmatched_end"
	// UnclosedStart means events were still open at the end of the trace.
	UnclosedStart ViolationKind = "unclosed_start"
)

// Violation describes a single nesting problem.
type Violation struct {
	Kind ViolationKind `json:"kind" yaml:"kind"`
	// Index is the position of the offending record in the trace.
	// For UnclosedStart it is the trace length.
	Index int `json:"index" yaml:"index"`
	// Expected is the node id that should have been closed. Empty when the
	// end marker had nothing open to close.
	Expected string `json:"expected,omitempty" yaml:"expected,omitempty"`
	// Got is the node id the end marker actually closed.
	Got string `json:"got,omitempty" yaml:"got,omitempty"`
	// Open lists the unclosed node ids for UnclosedStart, outermost first.
	Open []string `json:"open,omitempty" yaml:"open,omitempty"`
}

// String renders the violation in the agent tooling's diagnostic wording.
func (v Violation) String() string {
	switch v.Kind {
	case UnclosedStart:
		return fmt.Sprintf("following [%s] events should be closed", strings.Join(v.Open, " "))
	case UnmatchedEnd:
		if v.Expected == "" {
			return fmt.Sprintf("error event %s is closed but no event is open", v.Got)
		}
		return fmt.Sprintf("error event %s should be closed but event %s is closed", v.Expected, v.Got)
	default:
		return string(v.Kind)
	}
}

// Report is the outcome of a nesting check.
type Report struct {
	// Violations lists every problem in trace order. An UnclosedStart
	// violation, if any, is always last.
	Violations []Violation `json:"violations" yaml:"violations"`
	// Unclosed holds the node ids still open at the end, outermost first.
	Unclosed []string `json:"unclosed" yaml:"unclosed"`
	// Checked counts the start and end records examined.
	Checked int `json:"checked" yaml:"checked"`
}

// OK reports whether the trace is balanced.
func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

// Lines renders every violation as a diagnostic line.
func (r *Report) Lines() []string {
	lines := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		lines = append(lines, v.String())
	}
	return lines
}

// Check scans records once with a stack of open node ids.
// Records that neither start nor end an event are skipped.
func Check(records []models.Record) *Report {
	report := &Report{
		Violations: []Violation{},
		Unclosed:   []string{},
	}
	var stack []string

	for i, rec := range records {
		switch rec.Position {
		case models.PositionStart:
			report.Checked++
			stack = append(stack, rec.NodeID)
		case models.PositionEnd:
			report.Checked++
			if len(stack) == 0 {
				report.Violations = append(report.Violations, Violation{
					Kind:  UnmatchedEnd,
					Index: i,
					Got:   rec.NodeID,
				})
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top != rec.NodeID {
				report.Violations = append(report.Violations, Violation{
					Kind:     UnmatchedEnd,
					Index:    i,
					Expected: top,
					Got:      rec.NodeID,
				})
			}
		}
	}

	if len(stack) > 0 {
		report.Unclosed = append(report.Unclosed, stack...)
		report.Violations = append(report.Violations, Violation{
			Kind:  UnclosedStart,
			Index: len(records),
			Open:  append([]string(nil), stack...),
		})
	}

	return report
}
