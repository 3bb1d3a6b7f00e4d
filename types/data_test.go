package types_test

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowforge/flowforge/types"
)

type reviewRequest struct {
	Repo      string
	Revision  int
	AutoMerge bool
}

func TestStateAccessors(t *testing.T) {
	state := types.State{}

	state.Set("req1", reviewRequest{"core", 4, false})
	state.Set("req2", reviewRequest{"infra", 5, true})

	first := &reviewRequest{}
	second := &reviewRequest{}
	assert.Nil(t, state.GetStruct("req1", first))
	assert.Nil(t, state.GetStruct("req2", second))

	assert.Equal(t, "core", first.Repo)
	assert.Equal(t, 4, first.Revision)
	assert.Equal(t, false, first.AutoMerge)

	assert.Equal(t, "infra", second.Repo)
	assert.Equal(t, 5, second.Revision)
	assert.Equal(t, true, second.AutoMerge)

	assert.NotNil(t, state.GetStruct("req0", first))

	state.Set("s1", 1)
	state.Set("s2", "2")
	state.Set("s3", math.Pi)
	state.Set("s4", true)

	_, exists := state.Get("s0")
	assert.False(t, exists)

	s, exists := state.GetString("s1")
	assert.True(t, exists)
	assert.Equal(t, "1", s)
	s, exists = state.GetString("s2")
	assert.True(t, exists)
	assert.Equal(t, "2", s)
	s, exists = state.GetString("s3")
	assert.True(t, exists)
	assert.Equal(t, strconv.FormatFloat(math.Pi, 'f', -1, 64), s)
	s, exists = state.GetString("s4")
	assert.True(t, exists)
	assert.Equal(t, "true", s)

	n, exists := state.GetInt("s1")
	assert.True(t, exists)
	assert.Equal(t, 1, n)
	f, exists := state.GetFloat64("s3")
	assert.True(t, exists)
	assert.Equal(t, math.Pi, f)
	b, exists := state.GetBool("s4")
	assert.True(t, exists)
	assert.True(t, b)
}

func TestStateLookup(t *testing.T) {
	state := types.State{
		"metrics": map[string]any{
			"quality_score": 0.75,
			"inner":         map[string]any{"depth": 3},
		},
		"plain": "top",
	}

	v, ok := state.Lookup("metrics.quality_score")
	assert.True(t, ok)
	assert.Equal(t, 0.75, v)

	v, ok = state.Lookup("metrics.inner.depth")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	v, ok = state.Lookup("plain")
	assert.True(t, ok)
	assert.Equal(t, "top", v)

	_, ok = state.Lookup("metrics.absent")
	assert.False(t, ok)

	// descending through a non-mapping is a miss, not a panic
	_, ok = state.Lookup("plain.deeper")
	assert.False(t, ok)
}

func TestStateCloneIsShallow(t *testing.T) {
	nested := map[string]any{"k": "v"}
	state := types.State{"top": 1, "nested": nested}

	clone := state.Clone()
	clone.Set("top", 2)

	top, _ := state.GetInt("top")
	assert.Equal(t, 1, top)

	// nested values are shared between clones
	nested["k"] = "changed"
	got, ok := clone.Lookup("nested.k")
	assert.True(t, ok)
	assert.Equal(t, "changed", got)

	var nilState types.State
	assert.NotNil(t, nilState.Clone())
}
