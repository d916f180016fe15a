package blob

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dohyunkim/moneytree/internal/domain"
)

// Memory is an in-memory Store for tests and single-instance local runs.
// Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Put(ctx context.Context, ownerID int64, fileName string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectName(ownerID, fileName)] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Get(ctx context.Context, ownerID int64, fileName string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[objectName(ownerID, fileName)]
	if !ok {
		return nil, domain.DependencyErr("receipt object not found", nil)
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Delete(ctx context.Context, ownerID int64, fileName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := objectName(ownerID, fileName)
	if _, ok := m.objects[key]; !ok {
		return domain.DependencyErr("receipt object not found", nil)
	}
	delete(m.objects, key)
	return nil
}

func (m *Memory) DeleteAll(ctx context.Context, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := fmt.Sprintf("%d/", ownerID)
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			delete(m.objects, key)
		}
	}
	return nil
}

// Len reports the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
