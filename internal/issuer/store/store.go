package store

import (
	"context"
	"errors"
	"sync"

	"entangledu/internal/issuer/models"
)

// ErrEmptyID is returned when appending a certificate without an identifier.
var ErrEmptyID = errors.New("certificate id is required")

// InMemoryStore is the issuer's mint log: append-only, in issuance order.
//
// Error Contract:
// - Append returns ErrEmptyID for certificates without an ID, or the context error
// - List and Count never fail
type InMemoryStore struct {
	mu    sync.RWMutex
	certs []models.Certificate
}

// New constructs an empty mint log.
func New() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(ctx context.Context, cert models.Certificate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cert.ID == "" {
		return ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certs = append(s.certs, cert)
	return nil
}

// List returns a copy of the log so callers cannot reorder or mutate entries.
func (s *InMemoryStore) List(_ context.Context) []models.Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Certificate, len(s.certs))
	copy(out, s.certs)
	return out
}

func (s *InMemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.certs)
}
