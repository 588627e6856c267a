package models

import "fmt"

// GroupKind is the structural role of a group event.
type GroupKind int

const (
	// KindUnknown is the zero value and never appears in a valid tree.
	KindUnknown GroupKind = iota
	// ControlFlow is a block of control flow: method body, loop, branch.
	ControlFlow
	// Statement is a single statement.
	Statement
	// SubStatement is part of a statement, e.g. an argument evaluation.
	SubStatement
)

var groupKindNames = map[GroupKind]string{
	ControlFlow:  "controlFlow",
	Statement:    "statement",
	SubStatement: "subStatement",
}

// String returns the trace spelling of the kind.
func (k GroupKind) String() string {
	if name, ok := groupKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("GroupKind(%d)", int(k))
}

// Valid returns true if the kind is one of the three group kinds.
func (k GroupKind) Valid() bool {
	_, ok := groupKindNames[k]
	return ok
}

// ParseGroupKind maps a trace kind string to a GroupKind.
// Matching is exact, as the agent writes these names verbatim.
func ParseGroupKind(s string) (GroupKind, error) {
	for k, name := range groupKindNames {
		if name == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown group kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k GroupKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
