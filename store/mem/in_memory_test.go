package mem_test

import (
	"context"
	"sort"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowforge/store/mem"
)

func TestMemStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := mem.NewMemStore()

	v, err := s.Get(ctx, "/runs/", "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Set(ctx, "/runs/", "r1", []byte("one")))
	require.NoError(t, s.Set(ctx, "/runs/", "r2", []byte("two")))
	require.NoError(t, s.Set(ctx, "/graphs/", "r1", []byte("other prefix")))

	v, err = s.Get(ctx, "/runs/", "r1")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), v)

	require.NoError(t, s.Remove(ctx, "/runs/", "r1"))
	v, err = s.Get(ctx, "/runs/", "r1")
	require.NoError(t, err)
	assert.Nil(t, v)

	// prefixes do not leak into each other
	v, err = s.Get(ctx, "/graphs/", "r1")
	require.NoError(t, err)
	assert.Equal(t, []byte("other prefix"), v)
}

func TestMemStoreList(t *testing.T) {
	ctx := context.Background()
	s := mem.NewMemStore()

	require.NoError(t, s.Set(ctx, "/runs/", "a", nil))
	require.NoError(t, s.Set(ctx, "/runs/", "b", nil))
	require.NoError(t, s.Set(ctx, "/graphs/", "c", nil))

	keys := make([]string, 0)
	require.NoError(t, s.List(ctx, "/runs/", func(key string) bool {
		keys = append(keys, key)
		return true
	}))
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b"}, keys)

	// the iterator can stop early
	count := 0
	require.NoError(t, s.List(ctx, "/runs/", func(key string) bool {
		count++
		return false
	}))
	assert.Equal(t, 1, count)
}

func TestMemStoreErrHandler(t *testing.T) {
	ctx := context.Background()
	s := mem.NewMemStoreWithErrHandler(func() error {
		return errors.Errorf("backend down")
	})

	assert.Error(t, s.Set(ctx, "/runs/", "k", []byte("v")))
	_, err := s.Get(ctx, "/runs/", "k")
	assert.Error(t, err)
	assert.Error(t, s.Remove(ctx, "/runs/", "k"))
	assert.Error(t, s.List(ctx, "/runs/", func(string) bool { return true }))
}
