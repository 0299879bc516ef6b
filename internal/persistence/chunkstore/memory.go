package chunkstore

import (
	"context"
	"sync"

	"voxelmine.ai/internal/sim/world/chunk"
)

type Memory struct {
	mu   sync.Mutex
	data map[chunk.Key][]byte
}

func NewMemory() *Memory { return &Memory{data: map[chunk.Key][]byte{}} }

func (m *Memory) Get(_ context.Context, key chunk.Key) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *Memory) Put(_ context.Context, key chunk.Key, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.mu.Lock()
	m.data[key] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Keys(_ context.Context) ([]chunk.Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]chunk.Key, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *Memory) Close() error { return nil }
