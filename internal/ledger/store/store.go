// Package store is the learner's credential ledger: an insertion-ordered set
// of credentials keyed by id, persisted to a durable slot and kept in step
// with other views of the same slot.
//
// Cross-view sync is last-writer-wins on the slot version. Two views
// inserting at the same time can lose one of the inserts; there is no merge.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"entangledu/internal/ledger/models"
	"entangledu/internal/ledger/storage"
	dErrors "entangledu/pkg/domain-errors"
)

// DefaultKey is the slot holding the credential array.
const DefaultKey = "entangledu-tokens"

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithKey overrides the slot name.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithOnChange registers fn to receive a snapshot after every external change is applied.
func WithOnChange(fn func([]models.Credential)) Option {
	return func(s *Store) {
		s.onChange = fn
	}
}

type Store struct {
	storage  storage.Storage
	key      string
	logger   *slog.Logger
	onChange func([]models.Credential)

	mu      sync.RWMutex
	creds   []models.Credential
	index   map[string]int
	version int64

	cancel context.CancelFunc
	done   chan struct{}
}

// Open loads the ledger from st and starts following external changes.
// A missing or unreadable slot loads as an empty ledger.
func Open(ctx context.Context, st storage.Storage, opts ...Option) (*Store, error) {
	s := &Store{
		storage: st,
		key:     DefaultKey,
		logger:  slog.Default(),
		index:   make(map[string]int),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	changes, err := st.Subscribe(subCtx, s.key)
	if err != nil {
		cancel()
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to subscribe to ledger slot")
	}
	s.cancel = cancel

	entry, err := st.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		cancel()
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ledger")
	default:
		s.version = entry.Version
		s.replace(s.decode(ctx, entry.Value))
	}

	go s.follow(changes)
	return s, nil
}

func (s *Store) decode(ctx context.Context, data []byte) []models.Credential {
	creds, skipped, err := models.DecodeLedger(data)
	if err != nil {
		s.logger.WarnContext(ctx, "ledger slot is corrupt; treating as empty",
			"slot", s.key,
			"error", err,
		)
		return nil
	}
	for _, reason := range skipped {
		s.logger.WarnContext(ctx, "skipping unreadable ledger entry",
			"slot", s.key,
			"error", reason,
		)
	}
	return creds
}

// replace swaps the in-memory ledger. Caller holds mu or has exclusive access.
func (s *Store) replace(creds []models.Credential) {
	s.creds = creds
	s.index = make(map[string]int, len(creds))
	for i, c := range creds {
		s.index[c.ID] = i
	}
}

func (s *Store) follow(changes <-chan storage.Change) {
	defer close(s.done)
	ctx := context.Background()
	for change := range changes {
		s.mu.Lock()
		if change.Version <= s.version {
			s.mu.Unlock()
			continue
		}
		s.version = change.Version
		if change.Deleted {
			s.replace(nil)
		} else {
			s.replace(s.decode(ctx, change.Value))
		}
		snapshot := s.snapshotLocked()
		s.mu.Unlock()

		s.logger.DebugContext(ctx, "applied external ledger change",
			"slot", s.key,
			"version", change.Version,
			"credentials", len(snapshot),
		)
		if s.onChange != nil {
			s.onChange(snapshot)
		}
	}
}

// Insert adds c and flushes before returning. An existing id fails with
// CodeConflict and leaves the ledger unchanged.
func (s *Store) Insert(ctx context.Context, c models.Credential) error {
	if err := c.Validate(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "invalid credential")
	}
	c = c.Clone()
	c.Timestamp = models.Truncate(c.Timestamp)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[c.ID]; exists {
		return dErrors.Newf(dErrors.CodeConflict, "credential %s already exists", c.ID)
	}

	next := make([]models.Credential, len(s.creds), len(s.creds)+1)
	copy(next, s.creds)
	next = append(next, c)

	if err := s.flushLocked(ctx, next); err != nil {
		return err
	}
	s.creds = next
	s.index[c.ID] = len(next) - 1
	return nil
}

// Clear empties the ledger and flushes before returning.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flushLocked(ctx, nil); err != nil {
		return err
	}
	s.replace(nil)
	return nil
}

// flushLocked persists creds. The in-memory ledger is only updated by the caller on success.
func (s *Store) flushLocked(ctx context.Context, creds []models.Credential) error {
	data, err := models.EncodeLedger(creds)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode ledger")
	}
	version, err := s.storage.Set(ctx, s.key, data)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist ledger",
			"slot", s.key,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist ledger")
	}
	if version > s.version {
		s.version = version
	}
	return nil
}

func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

func (s *Store) Get(id string) (models.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return models.Credential{}, false
	}
	return s.creds[i].Clone(), true
}

// Snapshot returns a copy of the ledger in insertion order.
func (s *Store) Snapshot() []models.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() []models.Credential {
	out := make([]models.Credential, len(s.creds))
	for i, c := range s.creds {
		out[i] = c.Clone()
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.creds)
}

// Close stops following external changes. The storage backend stays open.
func (s *Store) Close() error {
	s.cancel()
	<-s.done
	return nil
}
