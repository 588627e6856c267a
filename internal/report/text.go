package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ShayCichocki/tracecheck/internal/validation"
)

// Text writes a human-readable report: one status line per layer followed
// by its diagnostic lines, then the overall outcome.
func (r *Renderer) Text(w io.Writer, result *validation.Result) error {
	bold := r.paint(color.Bold)

	var sb strings.Builder
	sb.WriteString(bold.Sprintf("Trace %s", result.Source))
	sb.WriteString(fmt.Sprintf(" (%d records)\n", result.Records))

	for _, layer := range result.Layers.All() {
		sb.WriteString(r.status(layer.Passed, fmt.Sprintf("%s [%v]", layer.Name, layer.Duration.Round(time.Microsecond))))
		for _, line := range outputLines(layer) {
			sb.WriteString("    " + line + "\n")
		}
	}

	if result.AllPassed {
		sb.WriteString(r.status(true, "All checks passed"))
	} else {
		sb.WriteString(r.status(false, "Validation failed: "+result.FailureReason))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// outputLines returns the lines worth showing for a layer. The grammar layer
// always shows its verdict; the nesting layer only has lines on failure.
func outputLines(layer *validation.LayerResult) []string {
	if layer.Output == "" {
		return nil
	}
	return strings.Split(layer.Output, "\n")
}

func (r *Renderer) status(passed bool, msg string) string {
	if passed {
		return fmt.Sprintf("%s %s\n", r.paint(color.FgGreen).Sprint("✓"), msg)
	}
	return fmt.Sprintf("%s %s\n", r.paint(color.FgRed).Sprint("✗"), msg)
}

func (r *Renderer) paint(attr color.Attribute) *color.Color {
	c := color.New(attr)
	if r.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}
