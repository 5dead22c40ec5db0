package storage

import (
	"context"
	"sync"
)

type memorySlot struct {
	value   []byte
	version int64
	present bool
}

// Memory is an in-process backend. Every Storage view sharing one Memory sees
// the same slots, the way tabs share one browser profile.
type Memory struct {
	mu     sync.Mutex
	slots  map[string]*memorySlot
	subs   map[string]map[*feed]struct{}
	closed bool
}

// NewMemory constructs an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		slots: make(map[string]*memorySlot),
		subs:  make(map[string]map[*feed]struct{}),
	}
}

func (m *Memory) Get(ctx context.Context, key string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Entry{}, ErrClosed
	}
	slot, ok := m.slots[key]
	if !ok || !slot.present {
		return Entry{}, ErrNotFound
	}
	return Entry{Value: cloneBytes(slot.value), Version: slot.version}, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) (int64, error) {
	return m.write(ctx, key, cloneBytes(value), true)
}

func (m *Memory) Delete(ctx context.Context, key string) (int64, error) {
	return m.write(ctx, key, nil, false)
}

func (m *Memory) write(ctx context.Context, key string, value []byte, present bool) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	slot, ok := m.slots[key]
	if !ok {
		slot = &memorySlot{}
		m.slots[key] = slot
	}
	slot.version++
	slot.value = value
	slot.present = present

	change := Change{Key: key, Value: value, Deleted: !present, Version: slot.version}
	for f := range m.subs[key] {
		change.Value = cloneBytes(value)
		f.offer(change)
	}
	return slot.version, nil
}

func (m *Memory) Subscribe(ctx context.Context, key string) (<-chan Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	f := newFeed()
	if m.subs[key] == nil {
		m.subs[key] = make(map[*feed]struct{})
	}
	m.subs[key][f] = struct{}{}

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs[key], f)
		m.mu.Unlock()
		f.close()
	}()
	return f.ch, nil
}

// Close ends every subscription. Slots are discarded.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, feeds := range m.subs {
		for f := range feeds {
			f.close()
		}
	}
	m.subs = nil
	return nil
}
