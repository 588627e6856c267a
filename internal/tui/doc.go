// Package tui provides the interactive terminal viewer for tracecheck's view
// command.
//
// The viewer shows the group tree rebuilt from a trace with one node per
// line. Nodes with children can be folded, and nodes named by a grammar
// violation are marked. It is read-only.
//
// Usage:
//
//	program, _ := tui.NewViewerProgram(path, tree, verdict)
//	if _, err := program.Run(); err != nil {
//	    return err
//	}
//
// Keys: j/k or arrows move, enter toggles a fold, h/l fold and unfold, E and C
// unfold or fold everything, n jumps to the next violation, q quits.
package tui
