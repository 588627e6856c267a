package grammar

import (
	"errors"
	"fmt"
)

// Structural error kinds. Match them with errors.Is.
var (
	// ErrMalformedRoot means the group stream is empty or does not open
	// with a start record.
	ErrMalformedRoot = errors.New("malformed root")
	// ErrUnclosed means the stream ended while events were still open.
	ErrUnclosed = errors.New("unclosed group event")
	// ErrUnexpectedPosition means a group record was neither start nor end.
	ErrUnexpectedPosition = errors.New("unexpected position")
	// ErrUnknownKind means a closing record named no known group kind.
	ErrUnknownKind = errors.New("unknown group kind")
)

// StructuralError reports why a tree could not be built.
type StructuralError struct {
	// Kind is one of the Err* sentinels above.
	Kind error
	// Index is the offending record's position in the group stream.
	Index int
	// Msg adds detail.
	Msg string
}

func (e *StructuralError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%v at group record %d", e.Kind, e.Index)
	}
	return fmt.Sprintf("%v at group record %d: %s", e.Kind, e.Index, e.Msg)
}

func (e *StructuralError) Unwrap() error {
	return e.Kind
}
