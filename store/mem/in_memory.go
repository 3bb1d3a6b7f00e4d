package mem

import (
	"context"
	"strings"
	"sync"

	"github.com/flowforge/flowforge/store"
)

var (
	_ store.Store = &memStore{}
)

// NewMemStore returns a store backed by process memory. Run records kept in
// it vanish with the process; it is the default backend and the one tests use.
func NewMemStore() store.Store {
	return &memStore{
		m:          make(map[string][]byte),
		errHandler: func() error { return nil },
	}
}

// NewMemStoreWithErrHandler injects a failure on every operation, for testing
// how callers behave against a broken backend.
func NewMemStoreWithErrHandler(errHandler func() error) store.Store {
	return &memStore{
		m:          make(map[string][]byte),
		errHandler: errHandler,
	}
}

type memStore struct {
	mu sync.Mutex

	errHandler func() error

	m map[string][]byte
}

func (m *memStore) Get(ctx context.Context, prefix, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.m[prefix+"|"+key], m.errHandler()
}

func (m *memStore) Set(ctx context.Context, prefix, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.m[prefix+"|"+key] = value
	return m.errHandler()
}

func (m *memStore) Remove(ctx context.Context, prefix, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.m, prefix+"|"+key)
	return m.errHandler()
}

func (m *memStore) List(ctx context.Context, prefix string, iterator func(key string) bool) error {
	m.mu.Lock()
	prefix += "|"
	matched := make([]string, 0)
	for key := range m.m {
		if strings.HasPrefix(key, prefix) {
			matched = append(matched, strings.TrimPrefix(key, prefix))
		}
	}
	m.mu.Unlock()

	for _, key := range matched {
		if !iterator(key) {
			break
		}
	}
	return m.errHandler()
}
