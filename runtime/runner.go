package runtime

import (
	"context"
	"time"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"

	"github.com/flowforge/flowforge/types"
)

var (
	_ types.Context = &stepContext{}
)

// stepContext is what a step implementation sees: the run's context plus the
// identity of the step being executed.
type stepContext struct {
	context.Context

	runID string
	node  string
}

func (c *stepContext) GetRunID() string {
	return c.runID
}

func (c *stepContext) GetNode() string {
	return c.node
}

// stepObserver is invoked after every executed step, including a failing one,
// with the appended trace entry and the state as of that step.
type stepObserver func(entry types.TraceEntry, state types.State)

/**
 * runner is the transition loop for a single run. It owns nothing shared:
 * one runner instance per run, fed by the engine.
 */
type runner struct {
	reg      *registry
	maxSteps int
}

func newRunner(reg *registry, maxSteps int) *runner {
	return &runner{reg: reg, maxSteps: maxSteps}
}

/**
 * execute walks the graph from its start node: resolve the step, snapshot the
 * state, run the step, diff, report the trace entry, then pick the first
 * outgoing edge whose condition holds. No matching edge terminates the run
 * at the current node. The returned state is final whether or not err is nil;
 * on error the trace reported through observe includes the failing step.
 */
func (r *runner) execute(ctx context.Context, g *types.Graph, runID string,
	state types.State, observe stepObserver) (types.State, error) {
	if state == nil {
		state = types.State{}
	}

	current := g.Start
	for steps := 0; ; steps++ {
		if steps >= r.maxSteps {
			return state, types.NewStepLimitError(r.maxSteps)
		}
		if err := ctx.Err(); err != nil {
			return state, types.NewStepExecutionError(current, err)
		}

		node, exists := g.Node(current)
		if !exists {
			// NewGraph guarantees edge targets; guards a hand-built Graph
			return state, types.NewStepExecutionError(current, errors.NotFoundf("node %q", current))
		}
		fn, err := r.reg.resolve(node.Kind, node.Impl())
		if err != nil {
			return state, errors.Trace(err)
		}

		log.Debugf("%s running %s step %s", runID, node.Kind, current)
		before := state.Clone()
		sc := &stepContext{Context: ctx, runID: runID, node: current}

		started := time.Now().UTC()
		next, err := runStep(fn, sc, state)
		finished := time.Now().UTC()

		if next != nil {
			state = next
		}
		entry := types.TraceEntry{
			Node:        current,
			Kind:        node.Kind,
			StartTime:   started,
			EndTime:     finished,
			Diff:        types.ComputeDiff(before, state),
			Description: node.Description,
		}
		if err != nil {
			entry.Error = err.Error()
			observe(entry, state)
			return state, types.NewStepExecutionError(current, err)
		}
		observe(entry, state)

		target, err := nextNode(g, current, state)
		if err != nil {
			// a condition failure aborts the run, it is not a non-match
			return state, types.NewStepExecutionError(current, err)
		}
		if target == "" {
			return state, nil
		}
		current = target
	}
}

func runStep(fn types.StepFunc, sc *stepContext, state types.State) (next types.State, retErr error) {
	defer func() {
		if rec := recover(); rec != nil {
			retErr = errors.Errorf("panic in step %s: %v", sc.node, rec)
		}
	}()
	return fn(sc, state)
}

// nextNode selects the target of the first matching outgoing edge, in the
// fixed evaluation order. An empty result means the run is terminal here.
func nextNode(g *types.Graph, current string, state types.State) (string, error) {
	for _, edge := range g.Outgoing(current) {
		matched, err := edge.Condition.Eval(state)
		if err != nil {
			return "", errors.Trace(err)
		}
		if !matched {
			continue
		}
		if edge.Target == types.EndTarget {
			return "", nil
		}
		return edge.Target, nil
	}
	return "", nil
}
