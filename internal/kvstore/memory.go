package kvstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Memory keeps values in process. A positive quota bounds the total size
// of keys plus values in bytes.
type Memory struct {
	mu    sync.RWMutex
	data  map[string]string
	used  int
	quota int
}

func NewMemory(quotaBytes int) *Memory {
	return &Memory{data: make(map[string]string), quota: quotaBytes}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used + len(value)
	if old, ok := m.data[key]; ok {
		used -= len(old)
	} else {
		used += len(key)
	}
	if m.quota > 0 && used > m.quota {
		return fmt.Errorf("%w: setting %q needs %d of %d bytes", ErrQuotaExceeded, key, used, m.quota)
	}

	m.data[key] = value
	m.used = used
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.data[key]; ok {
		m.used -= len(key) + len(old)
		delete(m.data, key)
	}
	return nil
}

func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Used reports the bytes currently accounted against the quota.
func (m *Memory) Used() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}
