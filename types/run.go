package types

import (
	"time"
)

// Change records one key's value before and after a step.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Diff is a shallow state diff: only top-level keys that were added, removed
// or replaced appear. Mutations inside an unchanged top-level value are not
// detected.
type Diff map[string]Change

// TraceEntry is one record of the execution trace, appended after every
// executed step. Error is set only on the entry of a failing step.
type TraceEntry struct {
	Node        string    `json:"node"`
	Kind        NodeKind  `json:"kind"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Diff        Diff      `json:"diff"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Run is one end-to-end execution of a graph. A failed run has the same shape
// as a completed one apart from Status and a populated Error, so pollers deal
// with a single response form for all terminal states.
type Run struct {
	ID     string       `json:"id"`
	Status Status       `json:"status"`
	State  State        `json:"state"`
	Trace  []TraceEntry `json:"trace"`
	Error  string       `json:"error,omitempty"`
}

// Clone returns a snapshot safe to hand to another goroutine: the state map
// and trace slice are copied, trace entries and state values are shared.
func (r *Run) Clone() *Run {
	clone := *r
	clone.State = r.State.Clone()
	clone.Trace = append([]TraceEntry(nil), r.Trace...)
	return &clone
}
