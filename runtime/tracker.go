package runtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"

	"github.com/flowforge/flowforge/store"
	"github.com/flowforge/flowforge/types"
)

const (
	RunPath = "/runs/"
)

/**
 * runTracker is the process-wide run registry. The id->entry map is the only
 * structure shared across runs and is serialized by its own mutex; each entry
 * then guards its record so a poller never observes a half-applied update.
 * Terminal records are additionally flushed to the store, which is where a
 * Postgres-backed engine keeps them across restarts.
 */
type runTracker struct {
	mu   sync.Mutex
	runs map[string]*runEntry

	wp    *workerpool.WorkerPool
	store store.Store
}

func newRunTracker(s store.Store, concurrency int) *runTracker {
	return &runTracker{
		runs:  make(map[string]*runEntry),
		wp:    workerpool.New(concurrency),
		store: s,
	}
}

// runEntry owns one run record. The engine goroutine of the run is the only
// writer; pollers take snapshots under the entry mutex.
type runEntry struct {
	mu  sync.Mutex
	run *types.Run
}

func (t *runTracker) create(initial types.State) *runEntry {
	entry := &runEntry{
		run: &types.Run{
			ID:     uuid.NewString(),
			Status: types.StatusRunning,
			State:  initial.Clone(),
			Trace:  []types.TraceEntry{},
		},
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[entry.run.ID] = entry
	return entry
}

func (t *runTracker) get(ctx context.Context, runID string) (*types.Run, error) {
	t.mu.Lock()
	entry, exists := t.runs[runID]
	t.mu.Unlock()

	if exists {
		return entry.snapshot(), nil
	}

	// terminal runs flushed by an earlier process live only in the store
	b, err := t.store.Get(ctx, RunPath, runID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if b == nil {
		return nil, types.NewRunNotFoundError(runID)
	}
	run := &types.Run{}
	if err := json.Unmarshal(b, run); err != nil {
		return nil, errors.Annotatef(err, "corrupt run record %s", runID)
	}
	return run, nil
}

func (t *runTracker) submit(task func()) {
	t.wp.Submit(task)
}

func (t *runTracker) stopWait() {
	t.wp.StopWait()
}

func (e *runEntry) id() string {
	return e.run.ID
}

// observe applies one completed step to the record: state snapshot plus the
// appended trace entry, atomically with respect to snapshot().
func (e *runEntry) observe(entry types.TraceEntry, state types.State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.run.State = state.Clone()
	e.run.Trace = append(e.run.Trace, entry)
}

// finish moves the record to its terminal status and flushes it. After this
// the record is read-only.
func (e *runEntry) finish(ctx context.Context, s store.Store, state types.State, runErr error) {
	e.mu.Lock()
	e.run.State = state.Clone()
	if runErr != nil {
		e.run.Status = types.StatusFailed
		e.run.Error = runErr.Error()
	} else {
		e.run.Status = types.StatusCompleted
	}
	snapshot := e.run.Clone()
	e.mu.Unlock()

	b, err := json.Marshal(snapshot)
	if err != nil {
		log.Errorf("%s failed to serialize run record: %v", snapshot.ID, err)
		return
	}
	if err := s.Set(ctx, RunPath, snapshot.ID, b); err != nil {
		log.Errorf("%s failed to save run record: %v", snapshot.ID, err)
	}
}

func (e *runEntry) snapshot() *types.Run {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.run.Clone()
}
