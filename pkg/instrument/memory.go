package instrument

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore 进程内标的存储
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Instrument
}

// NewMemoryStore 创建内存标的存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]Instrument),
	}
}

// Put 批量写入标的信息，同代码覆盖
func (m *MemoryStore) Put(ctx context.Context, instruments []Instrument) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, inst := range instruments {
		m.items[inst.Symbol] = inst
	}
	return nil
}

// Get 按代码精确查找
func (m *MemoryStore) Get(ctx context.Context, symbol string) (Instrument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inst, ok := m.items[symbol]
	if !ok {
		return Instrument{}, ErrNotFound
	}
	return inst, nil
}

// All 返回全部标的，按代码排序
func (m *MemoryStore) All(ctx context.Context) ([]Instrument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Instrument, 0, len(m.items))
	for _, inst := range m.items {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Symbol < out[j].Symbol
	})
	return out, nil
}

// Len 当前存储的标的数量
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
