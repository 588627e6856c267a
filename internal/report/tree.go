package report

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/tracecheck/internal/grammar"
	"github.com/ShayCichocki/tracecheck/pkg/models"
)

// Tree writes the group tree with box-drawing connectors. Nodes named by a
// violation in verdict (which may be nil) are marked. Rows are written as
// they are laid out.
func (r *Renderer) Tree(w io.Writer, tree *grammar.Tree, verdict *grammar.Verdict) error {
	if tree == nil || tree.Root == nil {
		_, err := io.WriteString(w, "(empty tree)\n")
		return err
	}

	styles := r.treeStyles(w)
	flagged := Flagged(tree.Root, verdict)

	bw := bufio.NewWriter(w)
	for _, row := range TreeRows(tree.Root) {
		bw.WriteString(styles.branch.Render(row.Prefix))
		bw.WriteString(styles.kind(row.Node.Kind).Render(row.Node.Kind.String()))
		if row.Node.NodeID != "" {
			bw.WriteString(" " + styles.id.Render(row.Node.NodeID))
		}
		if _, ok := flagged[row.Node]; ok {
			bw.WriteString(" " + styles.bad.Render("✗"))
		}
		bw.WriteString("\n")
	}
	if tree.Trailing > 0 {
		bw.WriteString(styles.id.Render("(" + strconv.Itoa(tree.Trailing) + " trailing group records ignored)"))
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// Flagged maps each node named by a violation in verdict to the violation's
// text. verdict may be nil.
func Flagged(root *grammar.Node, verdict *grammar.Verdict) map[*grammar.Node]string {
	flagged := make(map[*grammar.Node]string)
	if verdict == nil {
		return flagged
	}
	for _, v := range verdict.Violations {
		if n := grammar.Lookup(root, v.Path); n != nil {
			flagged[n] = v.String()
		}
	}
	return flagged
}

// MaxIndent is the number of connector columns drawn before a node. Rows
// deeper than that fold their outer levels into a "┆+N " marker, so a row's
// width does not grow with trace depth.
const MaxIndent = 32

// TreeRow is one printed line of a tree.
type TreeRow struct {
	grammar.Entry
	// Prefix holds the connector glyphs drawn before the node.
	Prefix string
}

// TreeRows lays out the subtree rooted at root in pre-order with connector
// prefixes such as "├── " and "│   └── ". Row i corresponds to entry i of
// grammar.Flatten(root).
func TreeRows(root *grammar.Node) []TreeRow {
	entries := grammar.Flatten(root)
	rows := make([]TreeRow, 0, len(entries))

	// ancestors[d] is whether the ancestor at depth d was its parent's last
	// child, for the path to the current entry.
	var ancestors []bool
	for _, e := range entries {
		ancestors = append(ancestors[:e.Depth], e.Last)

		var prefix strings.Builder
		first := 1
		if skipped := e.Depth - MaxIndent; skipped > 0 {
			prefix.WriteString("┆+" + strconv.Itoa(skipped) + " ")
			first += skipped
		}
		for d := first; d < e.Depth; d++ {
			if ancestors[d] {
				prefix.WriteString("    ")
			} else {
				prefix.WriteString("│   ")
			}
		}
		if e.Depth > 0 {
			if e.Last {
				prefix.WriteString("└── ")
			} else {
				prefix.WriteString("├── ")
			}
		}
		rows = append(rows, TreeRow{Entry: e, Prefix: prefix.String()})
	}
	return rows
}

type treeStyles struct {
	branch lipgloss.Style
	id     lipgloss.Style
	bad    lipgloss.Style
	flow   lipgloss.Style
	stmt   lipgloss.Style
	sub    lipgloss.Style
}

func (s treeStyles) kind(k models.GroupKind) lipgloss.Style {
	switch k {
	case models.ControlFlow:
		return s.flow
	case models.Statement:
		return s.stmt
	case models.SubStatement:
		return s.sub
	default:
		return s.bad
	}
}

func (r *Renderer) treeStyles(w io.Writer) treeStyles {
	if !r.color {
		plain := lipgloss.NewStyle()
		return treeStyles{branch: plain, id: plain, bad: plain, flow: plain, stmt: plain, sub: plain}
	}
	lr := lipgloss.NewRenderer(w)
	return treeStyles{
		branch: lr.NewStyle().Foreground(lipgloss.Color("240")),
		id:     lr.NewStyle().Foreground(lipgloss.Color("245")), // Gray
		bad:    lr.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		flow:   lr.NewStyle().Foreground(lipgloss.Color("12")), // Blue
		stmt:   lr.NewStyle().Foreground(lipgloss.Color("10")), // Green
		sub:    lr.NewStyle().Foreground(lipgloss.Color("11")), // Yellow
	}
}
