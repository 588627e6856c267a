package grammar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ShayCichocki/tracecheck/pkg/models"
)

// Node is one group event in the tree.
type Node struct {
	Kind models.GroupKind `json:"kind" yaml:"kind"`
	// NodeID is the id on the closing record.
	NodeID   string  `json:"nodeId" yaml:"node_id"`
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// Tree is the result of Build.
type Tree struct {
	Root *Node `json:"root" yaml:"root"`
	// Trailing counts group records left after the root closed.
	// They are not part of the tree.
	Trailing int `json:"trailing" yaml:"trailing"`
}

// FilterGroup returns the records whose type is groupType, in order.
// An empty groupType means models.GroupEventType.
func FilterGroup(records []models.Record, groupType string) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if r.IsGroupEvent(groupType) {
			out = append(out, r)
		}
	}
	return out
}

// Build reconstructs the tree rooted at the first record of a group-only
// record stream. Open nodes are kept on an explicit stack, so trace depth is
// bounded by memory rather than by call depth.
func Build(records []models.Record) (*Tree, error) {
	if len(records) == 0 {
		return nil, &StructuralError{Kind: ErrMalformedRoot, Index: 0, Msg: "no group records"}
	}
	if records[0].Position != models.PositionStart {
		return nil, &StructuralError{
			Kind:  ErrMalformedRoot,
			Index: 0,
			Msg:   fmt.Sprintf("first record is %q, want %q", records[0].Position, models.PositionStart),
		}
	}

	stack := []*Node{{}}
	for i := 1; i < len(records); i++ {
		rec := records[i]
		switch rec.Position {
		case models.PositionStart:
			stack = append(stack, &Node{})

		case models.PositionEnd:
			kind, err := models.ParseGroupKind(rec.Kind)
			if err != nil {
				return nil, &StructuralError{Kind: ErrUnknownKind, Index: i, Msg: strconv.Quote(rec.Kind)}
			}
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			node.Kind = kind
			node.NodeID = rec.NodeID

			if len(stack) == 0 {
				return &Tree{Root: node, Trailing: len(records) - i - 1}, nil
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)

		default:
			return nil, &StructuralError{
				Kind:  ErrUnexpectedPosition,
				Index: i,
				Msg:   fmt.Sprintf("%q in group stream", rec.Position),
			}
		}
	}

	return nil, &StructuralError{
		Kind:  ErrUnclosed,
		Index: len(records),
		Msg:   fmt.Sprintf("%d event(s) still open", len(stack)),
	}
}

// BuildFromTrace filters records to groupType and builds the tree.
func BuildFromTrace(records []models.Record, groupType string) (*Tree, error) {
	return Build(FilterGroup(records, groupType))
}

// Entry is a node visited by Flatten. Locations are kept as indices into the
// Flatten result; use Path to spell one out.
type Entry struct {
	Node  *Node
	Depth int
	// Parent is the index of the parent's entry, -1 for the root.
	Parent int
	// Child is the node's position among its parent's children.
	Child int
	// Last reports whether the node is its parent's last child. The root is
	// always last.
	Last bool
}

// Flatten lists the subtree rooted at n in pre-order, left to right.
func Flatten(n *Node) []Entry {
	if n == nil {
		return nil
	}
	var out []Entry
	stack := []Entry{{Node: n, Parent: -1, Last: true}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		idx := len(out)
		out = append(out, e)

		last := len(e.Node.Children) - 1
		for i := last; i >= 0; i-- {
			stack = append(stack, Entry{
				Node:   e.Node.Children[i],
				Depth:  e.Depth + 1,
				Parent: idx,
				Child:  i,
				Last:   i == last,
			})
		}
	}
	return out
}

// Path returns the location of entries[i], such as "root/0/2". The cost is
// proportional to the entry's depth.
func Path(entries []Entry, i int) string {
	var steps []int
	for ; entries[i].Parent >= 0; i = entries[i].Parent {
		steps = append(steps, entries[i].Child)
	}
	var sb strings.Builder
	sb.WriteString(rootPath)
	for j := len(steps) - 1; j >= 0; j-- {
		sb.WriteByte('/')
		sb.WriteString(strconv.Itoa(steps[j]))
	}
	return sb.String()
}

// Lookup returns the node at path under root, or nil when the path does not
// name a node.
func Lookup(root *Node, path string) *Node {
	if root == nil {
		return nil
	}
	rest, ok := strings.CutPrefix(path, rootPath)
	if !ok {
		return nil
	}
	if rest == "" {
		return root
	}
	if rest[0] != '/' {
		return nil
	}
	n := root
	for _, step := range strings.Split(rest[1:], "/") {
		i, err := strconv.Atoi(step)
		if err != nil || i < 0 || i >= len(n.Children) {
			return nil
		}
		n = n.Children[i]
	}
	return n
}

// Size returns the number of nodes in the subtree rooted at n.
func Size(n *Node) int {
	if n == nil {
		return 0
	}
	count := 0
	stack := []*Node{n}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		stack = append(stack, top.Children...)
	}
	return count
}

const rootPath = "root"

func childPath(parent string, i int) string {
	return parent + "/" + strconv.Itoa(i)
}
