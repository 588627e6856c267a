// Package grammar rebuilds the group-event tree of a trace and checks it
// against the structural grammar of the instrumentation agent.
//
// Only records typed as group events take part. Each group event is a
// start/end pair and becomes one tree node; its kind is read from the
// closing record, since the agent settles an event's kind when it exits.
//
// The grammar allows these parent/child kinds:
//
//	controlFlow   -> controlFlow | statement
//	statement     -> controlFlow | subStatement
//	subStatement  -> controlFlow
//
// The root must be a controlFlow node. A node without children is always
// well-formed.
//
// Verification runs in one of two modes. ModeFirstChild reproduces the
// agent tooling's check, where a node's verdict is decided by its first
// child alone. ModeStrict checks every child of every node and reports each
// offending node path.
package grammar
