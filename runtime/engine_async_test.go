package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowforge/store/mem"
	"github.com/flowforge/flowforge/types"
)

func waitForTerminal(t *testing.T, e types.Engine, runID string) *types.Run {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		run, err := e.GetRun(context.Background(), runID)
		require.NoError(t, err)
		if run.Status.Terminal() {
			return run
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s did not finish in time", runID)
	return nil
}

func TestRunAsyncCompletes(t *testing.T) {
	e := newTestEngine(t, newTestOptions())

	steps := &counterSteps{}
	e.RegisterComputation("A", steps.setX)
	e.RegisterComputation("B", steps.incX)

	runID, err := e.RunAsync(context.Background(), loopGraph(t), types.State{})
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	run := waitForTerminal(t, e, runID)
	assert.Equal(t, types.StatusCompleted, run.Status)
	x, _ := run.State.GetInt("x")
	assert.Equal(t, 3, x)
	assert.Len(t, run.Trace, 4)
}

// a blocking step and a pure one behave identically through sync and async
// execution: same final state, same trace content (timestamps aside).
func TestAsyncSyncEquivalence(t *testing.T) {
	e := newTestEngine(t, newTestOptions())

	e.RegisterComputation("pure", func(ctx types.Context, state types.State) (types.State, error) {
		state.Set("doubled", 21*2)
		return state, nil
	})
	e.RegisterTool("slow", func(ctx types.Context, state types.State) (types.State, error) {
		// stands in for an external wait
		select {
		case <-time.After(10 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		state.Set("waited", true)
		return state, nil
	})

	g, err := types.NewGraph("mixed",
		[]types.Node{
			{Name: "pure", Kind: types.KindComputation},
			{Name: "slow", Kind: types.KindTool},
		},
		[]types.Edge{{Source: "pure", Target: "slow"}},
		"pure")
	require.NoError(t, err)

	syncRun, err := e.RunSync(context.Background(), g, types.State{})
	require.NoError(t, err)

	runID, err := e.RunAsync(context.Background(), g, types.State{})
	require.NoError(t, err)
	asyncRun := waitForTerminal(t, e, runID)

	assert.Equal(t, syncRun.Status, asyncRun.Status)
	assert.Equal(t, syncRun.State, asyncRun.State)
	require.Equal(t, len(syncRun.Trace), len(asyncRun.Trace))
	for i := range syncRun.Trace {
		assert.Equal(t, syncRun.Trace[i].Node, asyncRun.Trace[i].Node)
		assert.Equal(t, syncRun.Trace[i].Kind, asyncRun.Trace[i].Kind)
		assert.Equal(t, syncRun.Trace[i].Diff, asyncRun.Trace[i].Diff)
	}
}

func TestConcurrentRunsAreIsolated(t *testing.T) {
	e := newTestEngine(t, newTestOptions())

	e.RegisterComputation("stamp", func(ctx types.Context, state types.State) (types.State, error) {
		seed, _ := state.GetInt("seed")
		state.Set("result", seed*10)
		return state, nil
	})

	g, err := types.NewGraph("stamped",
		[]types.Node{{Name: "stamp"}},
		nil,
		"stamp")
	require.NoError(t, err)

	const runs = 20
	ids := make([]string, 0, runs)
	for i := 0; i < runs; i++ {
		runID, err := e.RunAsync(context.Background(), g, types.State{"seed": i})
		require.NoError(t, err)
		ids = append(ids, runID)
	}

	for i, runID := range ids {
		run := waitForTerminal(t, e, runID)
		assert.Equal(t, types.StatusCompleted, run.Status)
		result, _ := run.State.GetInt("result")
		assert.Equal(t, i*10, result)
	}
}

func TestAsyncFailureIsContained(t *testing.T) {
	e := newTestEngine(t, newTestOptions())

	e.RegisterComputation("ok", func(ctx types.Context, state types.State) (types.State, error) {
		return state, nil
	})
	e.RegisterComputation("boom", func(ctx types.Context, state types.State) (types.State, error) {
		return state, fmt.Errorf("external call refused")
	})

	good, err := types.NewGraph("good", []types.Node{{Name: "ok"}}, nil, "ok")
	require.NoError(t, err)
	bad, err := types.NewGraph("bad", []types.Node{{Name: "boom"}}, nil, "boom")
	require.NoError(t, err)

	badID, err := e.RunAsync(context.Background(), bad, nil)
	require.NoError(t, err)
	goodID, err := e.RunAsync(context.Background(), good, nil)
	require.NoError(t, err)

	badRun := waitForTerminal(t, e, badID)
	assert.Equal(t, types.StatusFailed, badRun.Status)
	assert.Contains(t, badRun.Error, "external call refused")

	goodRun := waitForTerminal(t, e, goodID)
	assert.Equal(t, types.StatusCompleted, goodRun.Status)
	assert.Empty(t, goodRun.Error)
}

func TestGetRunNotFound(t *testing.T) {
	e := newTestEngine(t, newTestOptions())

	_, err := e.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.True(t, types.IsRunNotFound(err))
}

func TestGetRunFallsBackToStore(t *testing.T) {
	s := mem.NewMemStore()
	e := NewEngine(s, newTestOptions())
	t.Cleanup(func() {
		assert.Nil(t, e.Close(context.Background()))
	})

	// a terminal record flushed by an earlier process
	stored := &types.Run{
		ID:     "from-disk",
		Status: types.StatusCompleted,
		State:  types.State{"x": float64(3)},
		Trace:  []types.TraceEntry{},
	}
	b, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), RunPath, stored.ID, b))

	run, err := e.GetRun(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, run.Status)
	x, _ := run.State.GetInt("x")
	assert.Equal(t, 3, x)
}

func TestRunRecordFlushedToStore(t *testing.T) {
	s := mem.NewMemStore()
	e := NewEngine(s, newTestOptions())
	t.Cleanup(func() {
		assert.Nil(t, e.Close(context.Background()))
	})

	e.RegisterComputation("n", func(ctx types.Context, state types.State) (types.State, error) {
		return state, nil
	})
	g, err := types.NewGraph("flushed", []types.Node{{Name: "n"}}, nil, "n")
	require.NoError(t, err)

	run, err := e.RunSync(context.Background(), g, nil)
	require.NoError(t, err)

	b, err := s.Get(context.Background(), RunPath, run.ID)
	require.NoError(t, err)
	require.NotNil(t, b)

	restored := &types.Run{}
	require.NoError(t, json.Unmarshal(b, restored))
	assert.Equal(t, types.StatusCompleted, restored.Status)
	assert.Equal(t, run.ID, restored.ID)
}

func TestBrokenStoreDoesNotFailRuns(t *testing.T) {
	s := mem.NewMemStoreWithErrHandler(func() error {
		return fmt.Errorf("backend unavailable")
	})
	e := NewEngine(s, newTestOptions())
	t.Cleanup(func() {
		assert.Nil(t, e.Close(context.Background()))
	})

	e.RegisterComputation("n", func(ctx types.Context, state types.State) (types.State, error) {
		state.Set("done", true)
		return state, nil
	})
	g, err := types.NewGraph("unflushed", []types.Node{{Name: "n"}}, nil, "n")
	require.NoError(t, err)

	// the flush failure is logged, not surfaced
	run, err := e.RunSync(context.Background(), g, nil)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, run.Status)

	// live lookup still served from memory
	got, err := e.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.Status)
}
