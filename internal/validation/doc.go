// Package validation runs the trace checks as an ordered set of layers.
//
// # Layers
//
//  1. Nesting - every start marker is closed by an end marker for the same
//     node, innermost first. See package nesting.
//  2. Grammar - the group-event tree is rebuilt and checked against the
//     structural grammar. See package grammar.
//
// Both enabled layers always run. A nesting failure does not skip the
// grammar layer.
//
// # Usage
//
//	v := validation.NewValidator(validation.Options{Mode: grammar.ModeStrict}, logger)
//	result, err := v.ValidateFile(ctx, trace.NewLoader(""), "eventTrace.json")
//	if err != nil {
//	    return err // the file could not be read or decoded
//	}
//	if !result.AllPassed {
//	    fmt.Print(result.Summary)
//	}
//
// # Errors
//
// Validate only returns an error when the context is cancelled. A tree that
// cannot be built fails the grammar layer; the StructuralError is kept on
// the layer result.
package validation
