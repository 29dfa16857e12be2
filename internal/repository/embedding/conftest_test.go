package embedding

import (
	"context"
	"testing"

	"github.com/kailas-cloud/prodex/internal/db"
)

// mockStore is an in-memory hash store for tests.
type mockStore struct {
	hashes  map[string]map[string]string
	failErr error
}

func newMockStore() *mockStore {
	return &mockStore{hashes: make(map[string]map[string]string)}
}

func (m *mockStore) HReplace(_ context.Context, key string, fields map[string]string) error {
	if m.failErr != nil {
		return m.failErr
	}
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	m.hashes[key] = cp
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	h, ok := m.hashes[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return h, nil
}

func (m *mockStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		if h, ok := m.hashes[k]; ok {
			out[i] = h
		} else {
			out[i] = map[string]string{}
		}
	}
	return out, nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	if m.failErr != nil {
		return m.failErr
	}
	delete(m.hashes, key)
	return nil
}

// ScanEach returns every key with the requested prefix as a single page.
func (m *mockStore) ScanEach(_ context.Context, pattern string, fn func(keys []string) error) error {
	if m.failErr != nil {
		return m.failErr
	}
	prefix := pattern[:len(pattern)-1]
	var keys []string
	for k := range m.hashes {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return fn(keys)
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := newMockStore()
	return New(ms, "prodex:"), ms
}
