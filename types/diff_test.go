package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowforge/flowforge/types"
)

func TestComputeDiff(t *testing.T) {
	before := types.State{"kept": 1, "changed": "old", "removed": true}
	after := types.State{"kept": 1, "changed": "new", "added": 42}

	diff := types.ComputeDiff(before, after)

	assert.Len(t, diff, 3)
	assert.Equal(t, types.Change{Old: "old", New: "new"}, diff["changed"])
	assert.Equal(t, types.Change{Old: true, New: nil}, diff["removed"])
	assert.Equal(t, types.Change{Old: nil, New: 42}, diff["added"])
	_, kept := diff["kept"]
	assert.False(t, kept)
}

func TestComputeDiffIdenticalSnapshots(t *testing.T) {
	state := types.State{"a": 1, "b": map[string]any{"c": 2}}

	assert.Empty(t, types.ComputeDiff(state, state))
	assert.Empty(t, types.ComputeDiff(state.Clone(), state.Clone()))
}

// the diff is shallow: a mutation inside a shared nested value is invisible
// because both snapshots hold the same map.
func TestComputeDiffIsShallow(t *testing.T) {
	nested := map[string]any{"score": 0.5}
	state := types.State{"metrics": nested}

	snapshot := state.Clone()
	nested["score"] = 0.9

	assert.Empty(t, types.ComputeDiff(snapshot, state))
}

func TestComputeDiffEqualButDistinctNested(t *testing.T) {
	before := types.State{"metrics": map[string]any{"score": 0.5}}
	after := types.State{"metrics": map[string]any{"score": 0.5}}

	// deep-equal replacement does not register as a change
	assert.Empty(t, types.ComputeDiff(before, after))

	after["metrics"] = map[string]any{"score": 0.6}
	diff := types.ComputeDiff(before, after)
	assert.Len(t, diff, 1)
}
