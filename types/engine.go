package types

import "context"

// Engine executes graphs. One engine serves many concurrent runs; each run
// gets its own executor and never touches another run's state or trace.
type Engine interface {
	// RegisterComputation binds a computation step implementation to a name.
	// Re-registration under the same name overwrites: built-in workflows can
	// be redefined by callers.
	RegisterComputation(name string, fn StepFunc)
	// RegisterTool binds a tool step implementation to a name, in a namespace
	// independent from computations.
	RegisterTool(name string, fn StepFunc)

	/**
	 * RunSync executes the graph to completion on the calling goroutine and
	 * returns the terminal run record. On a runtime failure both the failed
	 * record (with its partial trace) and the error are returned.
	 * The initial state is mutated in place; callers that need the original
	 * must copy it first.
	 */
	RunSync(ctx context.Context, graph *Graph, initial State) (*Run, error)
	/**
	 * RunAsync registers the run, schedules it on a background worker and
	 * returns its identifier immediately. Progress is observed by polling
	 * GetRun.
	 */
	RunAsync(ctx context.Context, graph *Graph, initial State) (string, error)

	// GetRun returns a snapshot of the run. It fails with RunNotFoundError
	// for an unknown identifier.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// Close stops the background workers, waiting for scheduled runs.
	Close(ctx context.Context) error
}
