package runtime

import (
	"context"
	"sync"

	"github.com/juju/errors"

	"github.com/flowforge/flowforge/store"
	"github.com/flowforge/flowforge/types"
)

var (
	_ types.Engine = &engine{}
)

// NewEngine creates an engine on the given store. Most callers use the
// flowforge.NewEngine facade, which also selects the store backend.
func NewEngine(s store.Store, opts *types.Options) types.Engine {
	ctx, cancel := context.WithCancel(opts.Ctx)
	return &engine{
		ctx:      ctx,
		cancel:   cancel,
		running:  true,
		maxSteps: opts.MaxSteps,
		reg:      newRegistry(),
		tracker:  newRunTracker(s, opts.MaxConcurrentRuns),
		store:    s,
	}
}

type engine struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool

	maxSteps int
	reg      *registry
	tracker  *runTracker
	store    store.Store
}

func (e *engine) RegisterComputation(name string, fn types.StepFunc) {
	e.reg.registerComputation(name, fn)
}

func (e *engine) RegisterTool(name string, fn types.StepFunc) {
	e.reg.registerTool(name, fn)
}

func (e *engine) RunSync(ctx context.Context, graph *types.Graph, initial types.State) (*types.Run, error) {
	if err := e.prepare(graph); err != nil {
		return nil, errors.Trace(err)
	}

	entry := e.tracker.create(initial)
	state, runErr := e.newRunner().execute(ctx, graph, entry.id(), initial, entry.observe)
	entry.finish(ctx, e.store, state, runErr)

	return entry.snapshot(), errors.Trace(runErr)
}

func (e *engine) RunAsync(ctx context.Context, graph *types.Graph, initial types.State) (string, error) {
	if err := e.prepare(graph); err != nil {
		return "", errors.Trace(err)
	}

	entry := e.tracker.create(initial)
	runID := entry.id()
	r := e.newRunner()
	e.tracker.submit(func() {
		// detached from the caller's context: the engine bounds the run
		state, runErr := r.execute(e.ctx, graph, runID, initial, entry.observe)
		entry.finish(e.ctx, e.store, state, runErr)
	})
	return runID, nil
}

func (e *engine) GetRun(ctx context.Context, runID string) (*types.Run, error) {
	return e.tracker.get(ctx, runID)
}

func (e *engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil
	}
	e.running = false

	e.tracker.stopWait()
	e.cancel()
	return nil
}

// prepare rejects a run before it is registered: the engine never starts a
// run against a closed engine or a graph whose steps do not all resolve.
func (e *engine) prepare(graph *types.Graph) error {
	e.mu.Lock()
	running := e.running
	e.mu.Unlock()
	if !running {
		return errors.MethodNotAllowedf("engine closed")
	}

	if graph == nil {
		return types.NewGraphValidationErrorf("graph is nil")
	}
	for _, node := range graph.Nodes {
		if _, err := e.reg.resolve(node.Kind, node.Impl()); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// one runner instance per run, nothing shared between runs
func (e *engine) newRunner() *runner {
	return newRunner(e.reg, e.maxSteps)
}
