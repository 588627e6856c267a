package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/tracecheck/internal/grammar"
	"github.com/ShayCichocki/tracecheck/internal/report"
	"github.com/ShayCichocki/tracecheck/pkg/models"
)

// chromeLines is the number of lines used by the header and footer.
const chromeLines = 4

// Viewer is a bubbletea model for browsing a group tree.
type Viewer struct {
	source  string
	tree    *grammar.Tree
	verdict *grammar.Verdict

	// all holds every row of the tree and entries the matching
	// grammar.Flatten result. visible lists the indices of rows not hidden
	// under a collapsed node, in ascending order.
	all     []report.TreeRow
	entries []grammar.Entry
	visible []int
	// collapsed is keyed by row index.
	collapsed map[int]bool
	// flagged maps a node to its violation text.
	flagged map[*grammar.Node]string
	cursor  int
	// offset is the first visible row in the viewport.
	offset int

	viewport viewport.Model
	width    int
	height   int
	quitting bool

	// Styles
	titleStyle  lipgloss.Style
	cursorStyle lipgloss.Style
	branchStyle lipgloss.Style
	idStyle     lipgloss.Style
	badStyle    lipgloss.Style
	okStyle     lipgloss.Style
	footerStyle lipgloss.Style
	markerStyle lipgloss.Style
	kindStyles  map[models.GroupKind]lipgloss.Style
}

// NewViewer creates a viewer for tree. verdict may be nil.
func NewViewer(source string, tree *grammar.Tree, verdict *grammar.Verdict) *Viewer {
	v := &Viewer{
		source:    source,
		tree:      tree,
		verdict:   verdict,
		collapsed: make(map[int]bool),
		width:     80,
		height:    24,
		viewport:  viewport.New(80, 24-chromeLines),

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Background(lipgloss.Color("236")).
			Padding(0, 2),
		cursorStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("237")).
			Bold(true),
		branchStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		idStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")), // Gray
		badStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")). // Red
			Bold(true),
		okStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")). // Green
			Bold(true),
		footerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		markerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")), // Yellow
		kindStyles: map[models.GroupKind]lipgloss.Style{
			models.ControlFlow:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
			models.Statement:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
			models.SubStatement: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		},
	}

	if tree != nil && tree.Root != nil {
		v.all = report.TreeRows(tree.Root)
		v.entries = make([]grammar.Entry, len(v.all))
		for i, row := range v.all {
			v.entries[i] = row.Entry
		}
		v.flagged = report.Flagged(tree.Root, verdict)
	}
	v.refresh()
	return v
}

// NewViewerProgram creates a full-screen program running a new viewer.
func NewViewerProgram(source string, tree *grammar.Tree, verdict *grammar.Verdict) (*tea.Program, *Viewer) {
	viewer := NewViewer(source, tree, verdict)
	p := tea.NewProgram(viewer, tea.WithAltScreen())
	return p, viewer
}

// Init implements tea.Model.
func (v *Viewer) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (v *Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			v.quitting = true
			return v, tea.Quit
		case "up", "k":
			v.moveTo(v.cursor - 1)
		case "down", "j":
			v.moveTo(v.cursor + 1)
		case "pgup", "b":
			v.moveTo(v.cursor - v.viewport.Height)
		case "pgdown", "f":
			v.moveTo(v.cursor + v.viewport.Height)
		case "home", "g":
			v.moveTo(0)
		case "end", "G":
			v.moveTo(len(v.visible) - 1)
		case "enter", " ", "tab":
			v.toggle()
		case "left", "h":
			v.collapseOrParent()
		case "right", "l":
			v.expand()
		case "E":
			v.collapsed = make(map[int]bool)
			v.refresh()
		case "C":
			v.collapseAll()
		case "n":
			v.nextViolation()
		}

	case tea.WindowSizeMsg:
		v.SetSize(msg.Width, msg.Height)
	}

	return v, nil
}

// SetSize updates the viewer dimensions.
func (v *Viewer) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = max(1, height-chromeLines)
	v.render()
}

// View implements tea.Model.
func (v *Viewer) View() string {
	if v.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(v.titleStyle.Render(" " + v.source + " "))
	sb.WriteString(" ")
	sb.WriteString(v.status())
	sb.WriteString("\n\n")
	sb.WriteString(v.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(v.footer())
	return sb.String()
}

// Cursor returns the index of the selected visible row.
func (v *Viewer) Cursor() int {
	return v.cursor
}

// Visible returns the number of rows currently shown.
func (v *Viewer) Visible() int {
	return len(v.visible)
}

// Selected returns the path of the selected node, or "" for an empty tree.
func (v *Viewer) Selected() string {
	if len(v.visible) == 0 {
		return ""
	}
	return grammar.Path(v.entries, v.visible[v.cursor])
}

func (v *Viewer) status() string {
	switch {
	case v.verdict == nil:
		return ""
	case v.verdict.WellFormed:
		return v.okStyle.Render("well-formed")
	default:
		return v.badStyle.Render(fmt.Sprintf("%d violation(s)", len(v.verdict.Violations)))
	}
}

func (v *Viewer) footer() string {
	var info string
	if len(v.visible) > 0 {
		row := v.all[v.visible[v.cursor]]
		info = fmt.Sprintf("%s %s  depth %d  %d children  %s",
			row.Node.Kind, row.Node.NodeID, row.Depth, len(row.Node.Children), abbrevPath(v.Selected(), pathWidth))
		if text, ok := v.flagged[row.Node]; ok {
			info += "  " + v.badStyle.Render("✗ "+text)
		}
	}
	help := "j/k move  enter toggle  h/l fold  E/C all  n next violation  q quit"
	style := v.footerStyle.MaxWidth(max(1, v.width))
	return style.Render(info) + "\n" + style.Render(help)
}

// pathWidth is the widest node path shown in the footer.
const pathWidth = 40

// abbrevPath keeps the last n bytes of path.
func abbrevPath(path string, n int) string {
	if len(path) <= n {
		return path
	}
	return "…" + path[len(path)-n+1:]
}

func (v *Viewer) moveTo(i int) {
	if len(v.visible) == 0 {
		return
	}
	v.cursor = min(max(i, 0), len(v.visible)-1)
	v.render()
}

// position returns the visible position of row idx, or -1 when it is hidden.
func (v *Viewer) position(idx int) int {
	i := sort.SearchInts(v.visible, idx)
	if i < len(v.visible) && v.visible[i] == idx {
		return i
	}
	return -1
}

func (v *Viewer) toggle() {
	if len(v.visible) == 0 {
		return
	}
	idx := v.visible[v.cursor]
	if len(v.all[idx].Node.Children) == 0 {
		return
	}
	if v.collapsed[idx] {
		delete(v.collapsed, idx)
	} else {
		v.collapsed[idx] = true
	}
	v.refresh()
}

func (v *Viewer) expand() {
	if len(v.visible) == 0 {
		return
	}
	delete(v.collapsed, v.visible[v.cursor])
	v.refresh()
}

// collapseOrParent folds the selected node, or moves to its parent when it
// is already folded or has no children.
func (v *Viewer) collapseOrParent() {
	if len(v.visible) == 0 {
		return
	}
	idx := v.visible[v.cursor]
	if len(v.all[idx].Node.Children) > 0 && !v.collapsed[idx] {
		v.collapsed[idx] = true
		v.refresh()
		return
	}
	if parent := v.all[idx].Parent; parent >= 0 {
		if i := v.position(parent); i >= 0 {
			v.moveTo(i)
		}
	}
}

func (v *Viewer) collapseAll() {
	for i, row := range v.all {
		if row.Depth > 0 && len(row.Node.Children) > 0 {
			v.collapsed[i] = true
		}
	}
	v.refresh()
}

// nextViolation expands the ancestors of the next flagged node after the
// cursor and selects it.
func (v *Viewer) nextViolation() {
	if len(v.flagged) == 0 || len(v.visible) == 0 {
		return
	}
	start := v.visible[v.cursor] + 1
	for k := 0; k < len(v.all); k++ {
		idx := (start + k) % len(v.all)
		if _, ok := v.flagged[v.all[idx].Node]; !ok {
			continue
		}
		for p := v.all[idx].Parent; p >= 0; p = v.all[p].Parent {
			delete(v.collapsed, p)
		}
		v.refresh()
		v.moveTo(v.position(idx))
		return
	}
}

// refresh recomputes the visible rows after a fold change. The selection
// stays on the same node, or moves to its nearest shown ancestor.
func (v *Viewer) refresh() {
	selected := -1
	if len(v.visible) > 0 {
		selected = v.visible[v.cursor]
	}

	v.visible = v.visible[:0]
	hideBelow := -1
	for i, row := range v.all {
		if hideBelow >= 0 {
			if row.Depth > hideBelow {
				continue
			}
			hideBelow = -1
		}
		v.visible = append(v.visible, i)
		if v.collapsed[i] {
			hideBelow = row.Depth
		}
	}

	v.cursor = 0
	for idx := selected; idx >= 0; idx = v.all[idx].Parent {
		if i := v.position(idx); i >= 0 {
			v.cursor = i
			break
		}
	}
	v.render()
}

// render keeps the cursor in view and draws the rows inside the viewport
// window only.
func (v *Viewer) render() {
	if len(v.visible) == 0 {
		v.viewport.SetContent(v.idStyle.Render("(empty tree)"))
		return
	}

	height := max(1, v.viewport.Height)
	if v.cursor < v.offset {
		v.offset = v.cursor
	} else if v.cursor >= v.offset+height {
		v.offset = v.cursor - height + 1
	}
	v.offset = min(v.offset, max(0, len(v.visible)-height))

	end := min(v.offset+height, len(v.visible))
	lines := make([]string, 0, end-v.offset)
	for i := v.offset; i < end; i++ {
		lines = append(lines, v.renderRow(v.visible[i], i == v.cursor))
	}
	v.viewport.SetContent(strings.Join(lines, "\n"))
	v.viewport.GotoTop()
}

func (v *Viewer) renderRow(idx int, selected bool) string {
	row := v.all[idx]
	marker := "  "
	if len(row.Node.Children) > 0 {
		if v.collapsed[idx] {
			marker = "▸ "
		} else {
			marker = "▾ "
		}
	}

	kind := row.Node.Kind.String()
	if style, ok := v.kindStyles[row.Node.Kind]; ok {
		kind = style.Render(kind)
	} else {
		kind = v.badStyle.Render(kind)
	}

	line := v.branchStyle.Render(row.Prefix) + v.markerStyle.Render(marker) + kind
	if row.Node.NodeID != "" {
		line += " " + v.idStyle.Render(row.Node.NodeID)
	}
	if _, ok := v.flagged[row.Node]; ok {
		line += " " + v.badStyle.Render("✗")
	}
	if selected {
		return v.cursorStyle.Render(line)
	}
	return line
}
