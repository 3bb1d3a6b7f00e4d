package runtime

import (
	"sync"

	"github.com/flowforge/flowforge/types"
)

/**
 * registry holds the two independent name->implementation tables steps are
 * resolved from. It is populated before runs start; the mutex only covers
 * the map access itself.
 */
type registry struct {
	mu sync.Mutex

	computations map[string]types.StepFunc
	tools        map[string]types.StepFunc
}

func newRegistry() *registry {
	return &registry{
		computations: make(map[string]types.StepFunc),
		tools:        make(map[string]types.StepFunc),
	}
}

// last writer wins, re-registration overwrites
func (r *registry) registerComputation(name string, fn types.StepFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.computations[name] = fn
}

func (r *registry) registerTool(name string, fn types.StepFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools[name] = fn
}

func (r *registry) resolve(kind types.NodeKind, name string) (types.StepFunc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table := r.computations
	if kind == types.KindTool {
		table = r.tools
	}
	fn, exists := table[name]
	if !exists {
		return nil, types.NewUnknownStepError(kind, name)
	}
	return fn, nil
}
