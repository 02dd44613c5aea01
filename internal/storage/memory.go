package storage

import (
	"context"
	"sync"
	"time"
)

// Memory keeps everything in process. Contents vanish on restart.
type Memory struct {
	mu      sync.RWMutex
	owners  map[string]map[string]string
	touched map[string]time.Time
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		owners:  make(map[string]map[string]string),
		touched: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *Memory) Scope(owner string) (KV, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	return &memoryKV{m: m, owner: owner}, nil
}

func (m *Memory) Close() error {
	return nil
}

// Sweep drops owners not written since cutoff.
func (m *Memory) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for owner, at := range m.touched {
		if at.Before(cutoff) {
			delete(m.owners, owner)
			delete(m.touched, owner)
			removed++
		}
	}
	return removed, nil
}

type memoryKV struct {
	m     *Memory
	owner string
}

func (kv *memoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	kv.m.mu.RLock()
	defer kv.m.mu.RUnlock()
	v, ok := kv.m.owners[kv.owner][key]
	return v, ok, nil
}

func (kv *memoryKV) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}
	kv.m.mu.Lock()
	defer kv.m.mu.Unlock()
	values, ok := kv.m.owners[kv.owner]
	if !ok {
		values = make(map[string]string)
		kv.m.owners[kv.owner] = values
	}
	values[key] = value
	kv.m.touched[kv.owner] = kv.m.now()
	return nil
}

func (kv *memoryKV) Clear(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kv.m.mu.Lock()
	defer kv.m.mu.Unlock()
	delete(kv.m.owners[kv.owner], key)
	kv.m.touched[kv.owner] = kv.m.now()
	return nil
}
