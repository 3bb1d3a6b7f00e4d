package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowforge/types"
)

func TestRegistryNamespacesAreIndependent(t *testing.T) {
	reg := newRegistry()

	reg.registerComputation("shared", func(ctx types.Context, state types.State) (types.State, error) {
		state.Set("via", "computation")
		return state, nil
	})

	_, err := reg.resolve(types.KindTool, "shared")
	require.Error(t, err)
	assert.True(t, types.IsUnknownStep(err))

	reg.registerTool("shared", func(ctx types.Context, state types.State) (types.State, error) {
		state.Set("via", "tool")
		return state, nil
	})

	fn, err := reg.resolve(types.KindTool, "shared")
	require.NoError(t, err)
	state := types.State{}
	_, err = fn(nil, state)
	require.NoError(t, err)
	via, _ := state.GetString("via")
	assert.Equal(t, "tool", via)
}

func TestRegistryLastWriterWins(t *testing.T) {
	reg := newRegistry()

	reg.registerComputation("step", func(ctx types.Context, state types.State) (types.State, error) {
		state.Set("version", 1)
		return state, nil
	})
	reg.registerComputation("step", func(ctx types.Context, state types.State) (types.State, error) {
		state.Set("version", 2)
		return state, nil
	})

	fn, err := reg.resolve(types.KindComputation, "step")
	require.NoError(t, err)
	state := types.State{}
	_, err = fn(nil, state)
	require.NoError(t, err)
	version, _ := state.GetInt("version")
	assert.Equal(t, 2, version)
}

func TestRegistryMiss(t *testing.T) {
	reg := newRegistry()

	_, err := reg.resolve(types.KindComputation, "ghost")
	require.Error(t, err)
	assert.True(t, types.IsUnknownStep(err))
	assert.Contains(t, err.Error(), "ghost")
}
