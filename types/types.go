package types

import (
	"context"
)

// Status is the lifecycle state of a run. A run is created in Running and
// moves to exactly one terminal status.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status will never change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Context is handed to every step implementation. It carries the standard
// context of the run plus the identity of the step being executed.
type Context interface {
	context.Context

	GetRunID() string
	GetNode() string
}

// StepFunc is the uniform contract for computation and tool steps: it receives
// the current state and returns either a replacement state or nil, in which
// case in-place mutations stand. Blocking implementations simply block; each
// run executes on its own goroutine so no separate async signature exists.
type StepFunc func(ctx Context, state State) (State, error)
