package store

import (
	"context"
	"sync"
)

type MemoryStore struct {
	data map[Key]string
	mu   sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[Key]string),
	}
}

func (ms *MemoryStore) Get(ctx context.Context, key Key) (string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	value, exists := ms.data[key]
	if !exists {
		return "", ErrNotFound
	}

	return value, nil
}

func (ms *MemoryStore) Set(ctx context.Context, key Key, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.data[key] = value
	return nil
}

func (ms *MemoryStore) Delete(ctx context.Context, key Key) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.data, key)
	return nil
}

func (ms *MemoryStore) Clear(ctx context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.data = make(map[Key]string)
	return nil
}

func (ms *MemoryStore) Close() error {
	return nil
}
