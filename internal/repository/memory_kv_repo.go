package repository

import (
	"context"
	"sync"
)

type memoryKVRepo struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKVRepo 创建进程内 KVRepository
func NewMemoryKVRepo() KVRepository {
	return &memoryKVRepo{data: make(map[string]string)}
}

func (r *memoryKVRepo) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.data[key]
	return v, ok, nil
}

func (r *memoryKVRepo) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = value
	return nil
}

func (r *memoryKVRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
	return nil
}
