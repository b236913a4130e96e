// Package sequence tracks multi-message conversations.
//
// A Sequence expects one correlated message per Step. Steps complete when
// triggered and are skipped when passed over or expired. Missing a required
// step aborts the sequence; so does completing a step flagged
// AbortsExecution. An abort is a terminal state, not an error: callers read
// ExecutionState.Aborted.
package sequence
