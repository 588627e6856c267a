// Package report renders validation results for people and for programs.
package report

import (
	"fmt"
	"io"

	"github.com/ShayCichocki/tracecheck/internal/validation"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a format name to a Format. Empty means FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// Renderer writes results in a chosen format.
type Renderer struct {
	color bool
}

// New creates a renderer. Color only affects the text format.
func New(color bool) *Renderer {
	return &Renderer{color: color}
}

// Write renders result to w in the given format.
func (r *Renderer) Write(w io.Writer, result *validation.Result, format Format) error {
	switch format {
	case FormatText, "":
		return r.Text(w, result)
	case FormatJSON:
		return JSON(w, result)
	case FormatYAML:
		return YAML(w, result)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
