// Package flowforge is a small graph-based workflow engine: a directed graph
// of named steps through which one shared state record flows until a terminal
// node is reached. Graphs may branch on state conditions and loop through
// back-edges; every run produces a step-by-step trace with shallow state
// diffs, and runs execute synchronously or on background workers.
package flowforge

import (
	"github.com/juju/errors"

	"github.com/flowforge/flowforge/runtime"
	"github.com/flowforge/flowforge/store"
	"github.com/flowforge/flowforge/store/mem"
	"github.com/flowforge/flowforge/store/postgres"
	"github.com/flowforge/flowforge/types"
)

// NewEngine creates an execution engine with the given options.
func NewEngine(opts ...types.Option) (types.Engine, error) {
	options := types.NewOptions()
	for _, opt := range opts {
		opt(options)
	}

	var s store.Store
	var err error

	// PostgresConfig takes precedence over MemStore
	if options.PostgresConfig != nil {
		pgConfig := &postgres.Config{
			Host:     options.PostgresConfig.Host,
			Port:     options.PostgresConfig.Port,
			User:     options.PostgresConfig.User,
			Password: options.PostgresConfig.Password,
			Database: options.PostgresConfig.Database,
			SSLMode:  options.PostgresConfig.SSLMode,
		}

		s, err = postgres.NewPostgresStore(pgConfig)
		if err != nil {
			return nil, errors.Annotatef(err, "failed to create PostgreSQL store")
		}
	} else {
		// MemStore or nothing specified: keep run records in memory only
		s = mem.NewMemStore()
	}

	return runtime.NewEngine(s, options), nil
}
