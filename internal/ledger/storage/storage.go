// Package storage provides the learner's durable slots: small named values
// with a per-key version and change notification. Several views of the same
// backend (CLI processes, ledger instances) observe each other's writes
// through Subscribe.
package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get for keys that were never set or were deleted.
var ErrNotFound = errors.New("storage: slot not found")

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("storage: closed")

// Entry is a slot's current value. Version increases on every write to the key.
type Entry struct {
	Value   []byte
	Version int64
}

// Change describes one write observed on a subscribed key.
type Change struct {
	Key     string
	Value   []byte
	Deleted bool
	Version int64
}

// Storage is a versioned key/value store with change notification.
//
// Error Contract:
// - Get returns ErrNotFound when the slot is absent
// - Set and Delete return the version assigned to the write
// - Subscribe delivers changes made after it returns, by any writer including
//   the caller; a slow reader only sees the latest change. The channel is
//   closed when ctx is done or the backend is closed.
type Storage interface {
	Get(ctx context.Context, key string) (Entry, error)
	Set(ctx context.Context, key string, value []byte) (int64, error)
	Delete(ctx context.Context, key string) (int64, error)
	Subscribe(ctx context.Context, key string) (<-chan Change, error)
	Close() error
}

// feed is a single-slot, latest-wins change channel.
type feed struct {
	mu     sync.Mutex
	ch     chan Change
	closed bool
}

func newFeed() *feed {
	return &feed{ch: make(chan Change, 1)}
}

// offer replaces any undelivered change with c. Never blocks.
func (f *feed) offer(c Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case <-f.ch:
	default:
	}
	f.ch <- c
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.ch)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
