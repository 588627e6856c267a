package grammar

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/tracecheck/pkg/models"
)

// Mode selects how thoroughly Verify inspects children.
type Mode string

const (
	// ModeFirstChild decides each node by its first child only.
	ModeFirstChild Mode = "first-child"
	// ModeStrict checks all children and collects every violation.
	ModeStrict Mode = "strict"
)

// ParseMode maps a mode name to a Mode. Empty means ModeFirstChild.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeFirstChild:
		return ModeFirstChild, nil
	case ModeStrict:
		return ModeStrict, nil
	default:
		return "", fmt.Errorf("unknown grammar mode %q (want %q or %q)", s, ModeFirstChild, ModeStrict)
	}
}

// rules maps a parent kind to the child kinds it may contain.
var rules = map[models.GroupKind][]models.GroupKind{
	models.ControlFlow:  {models.ControlFlow, models.Statement},
	models.Statement:    {models.ControlFlow, models.SubStatement},
	models.SubStatement: {models.ControlFlow},
}

// Allowed reports whether a child kind may appear under a parent kind.
func Allowed(parent, child models.GroupKind) bool {
	for _, k := range rules[parent] {
		if k == child {
			return true
		}
	}
	return false
}

// Violation is a node whose kind is not permitted where it appears.
type Violation struct {
	// Path locates the node, e.g. "root/0/2" for the third child of the
	// root's first child.
	Path   string           `json:"path" yaml:"path"`
	NodeID string           `json:"nodeId" yaml:"node_id"`
	Parent models.GroupKind `json:"parent" yaml:"parent"`
	Kind   models.GroupKind `json:"kind" yaml:"kind"`
}

func (v Violation) String() string {
	if v.Path == rootPath {
		return fmt.Sprintf("%s: root must be %s, got %s (node %s)", v.Path, models.ControlFlow, v.Kind, v.NodeID)
	}
	return fmt.Sprintf("%s: %s not allowed under %s (node %s)", v.Path, v.Kind, v.Parent, v.NodeID)
}

// Verdict is the outcome of Verify.
type Verdict struct {
	WellFormed bool        `json:"wellFormed" yaml:"well_formed"`
	Mode       Mode        `json:"mode" yaml:"mode"`
	Violations []Violation `json:"violations" yaml:"violations"`
	// Visited counts the nodes whose children were inspected.
	Visited int `json:"visited" yaml:"visited"`
}

// Verify checks the tree rooted at root. A nil root is ill-formed.
func Verify(root *Node, mode Mode) *Verdict {
	if mode == "" {
		mode = ModeFirstChild
	}
	v := &Verdict{Mode: mode, Violations: []Violation{}}

	if root == nil {
		return v
	}
	if root.Kind != models.ControlFlow {
		v.Violations = append(v.Violations, Violation{Path: rootPath, NodeID: root.NodeID, Kind: root.Kind})
		v.WellFormed = false
		if mode == ModeFirstChild {
			return v
		}
	}

	switch mode {
	case ModeStrict:
		verifyAll(root, v)
	default:
		verifyFirst(root, v)
	}
	v.WellFormed = len(v.Violations) == 0
	return v
}

// verifyFirst follows first children down the tree. The first child that is
// not allowed under its parent ends the walk; later siblings are never seen.
// The walk only ever takes child 0, so the path is built once, on failure.
func verifyFirst(root *Node, v *Verdict) {
	node, depth := root, 0
	for {
		v.Visited++
		if len(node.Children) == 0 {
			return
		}
		child := node.Children[0]
		depth++
		if !Allowed(node.Kind, child.Kind) {
			v.Violations = append(v.Violations, Violation{
				Path:   rootPath + strings.Repeat("/0", depth),
				NodeID: child.NodeID,
				Parent: node.Kind,
				Kind:   child.Kind,
			})
			return
		}
		node = child
	}
}

// verifyAll checks every parent/child edge, visiting parents in pre-order.
// Disallowed children are still descended into. Paths are spelled out only
// for violations.
func verifyAll(root *Node, v *Verdict) {
	entries := Flatten(root)
	for idx, e := range entries {
		v.Visited++
		for i, child := range e.Node.Children {
			if Allowed(e.Node.Kind, child.Kind) {
				continue
			}
			v.Violations = append(v.Violations, Violation{
				Path:   childPath(Path(entries, idx), i),
				NodeID: child.NodeID,
				Parent: e.Node.Kind,
				Kind:   child.Kind,
			})
		}
	}
}
