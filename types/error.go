package types

import (
	"github.com/juju/errors"
)

var (
	_ error = &UnknownStepError{}
	_ error = &GraphValidationError{}
	_ error = &StepLimitError{}
	_ error = &StepExecutionError{}
	_ error = &RunNotFoundError{}
)

// UnknownStepError reports a registry lookup miss for a (kind, name) pair.
type UnknownStepError struct {
	Kind NodeKind
	Name string
}

func NewUnknownStepError(kind NodeKind, name string) error {
	return &UnknownStepError{Kind: kind, Name: name}
}

func (e *UnknownStepError) Error() string {
	return "unknown " + string(e.Kind) + " step: " + e.Name
}

// GraphValidationError reports a malformed graph at build time.
type GraphValidationError struct {
	Reason string
}

func NewGraphValidationErrorf(format string, args ...interface{}) error {
	return &GraphValidationError{Reason: errors.Errorf(format, args...).Error()}
}

func (e *GraphValidationError) Error() string {
	return "invalid graph: " + e.Reason
}

// StepLimitError reports a run that hit the configured step ceiling, the only
// bound on graphs whose back-edge conditions never turn false.
type StepLimitError struct {
	Limit int
}

func NewStepLimitError(limit int) error {
	return &StepLimitError{Limit: limit}
}

func (e *StepLimitError) Error() string {
	return errors.Errorf("step limit exceeded: %d", e.Limit).Error()
}

// StepExecutionError reports a step or edge condition that failed during a
// run. Node names the step that was executing.
type StepExecutionError struct {
	Node string
	Err  error
}

func NewStepExecutionError(node string, err error) error {
	return &StepExecutionError{Node: node, Err: err}
}

func (e *StepExecutionError) Error() string {
	return "step " + e.Node + " failed: " + e.Err.Error()
}

func (e *StepExecutionError) Unwrap() error {
	return e.Err
}

// RunNotFoundError reports a lookup of an unknown run identifier.
type RunNotFoundError struct {
	RunID string
}

func NewRunNotFoundError(runID string) error {
	return &RunNotFoundError{RunID: runID}
}

func (e *RunNotFoundError) Error() string {
	return "run not found: " + e.RunID
}

func IsUnknownStep(err error) bool {
	var target *UnknownStepError
	return errors.As(err, &target)
}

func IsGraphValidation(err error) bool {
	var target *GraphValidationError
	return errors.As(err, &target)
}

func IsStepLimit(err error) bool {
	var target *StepLimitError
	return errors.As(err, &target)
}

func IsStepExecution(err error) bool {
	var target *StepExecutionError
	return errors.As(err, &target)
}

func IsRunNotFound(err error) bool {
	var target *RunNotFoundError
	return errors.As(err, &target)
}
