package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"entangledu/migrations"
)

const defaultPollInterval = 500 * time.Millisecond

// SQLite persists slots in a database file. Separate processes opening the
// same file observe each other's writes by polling slot versions.
type SQLite struct {
	db           *sql.DB
	pollInterval time.Duration

	mu     sync.Mutex
	feeds  map[*feed]struct{}
	closed bool
}

type SQLiteOption func(*SQLite)

// WithPollInterval sets how often subscribers check for new versions.
func WithPollInterval(d time.Duration) SQLiteOption {
	return func(s *SQLite) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// OpenSQLite opens (creating if needed) the slot database at path.
func OpenSQLite(path string, opts ...SQLiteOption) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	s := &SQLite{
		db:           db,
		pollInterval: defaultPollInterval,
		feeds:        make(map[*feed]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func applyMigrations(db *sql.DB, migrationFS fs.FS) error {
	files, err := fs.Glob(migrationFS, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, name := range files {
		stmt, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := db.Exec(string(stmt)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, key string) (Entry, error) {
	value, version, err := s.read(ctx, key)
	if err != nil {
		return Entry{}, err
	}
	if value == nil {
		return Entry{}, ErrNotFound
	}
	return Entry{Value: value, Version: version}, nil
}

// read returns the raw row. A missing row is ErrNotFound; a tombstone is a nil value.
func (s *SQLite) read(ctx context.Context, key string) ([]byte, int64, error) {
	var (
		value   []byte
		version int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT value, version FROM slots WHERE key = ?`, key).Scan(&value, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read slot %s: %w", key, err)
	}
	return value, version, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte) (int64, error) {
	if value == nil {
		value = []byte{}
	}
	var version int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO slots (key, value, version) VALUES (?, ?, 1)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = slots.version + 1
		 RETURNING version`,
		key, value,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("write slot %s: %w", key, err)
	}
	return version, nil
}

// Delete leaves a NULL tombstone so the version keeps increasing.
func (s *SQLite) Delete(ctx context.Context, key string) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO slots (key, value, version) VALUES (?, NULL, 1)
		 ON CONFLICT(key) DO UPDATE SET value = NULL, version = slots.version + 1
		 RETURNING version`,
		key,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("delete slot %s: %w", key, err)
	}
	return version, nil
}

func (s *SQLite) Subscribe(ctx context.Context, key string) (<-chan Change, error) {
	_, since, err := s.read(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	f := newFeed()
	s.feeds[f] = struct{}{}
	s.mu.Unlock()

	go s.poll(ctx, key, since, f)
	return f.ch, nil
}

func (s *SQLite) poll(ctx context.Context, key string, since int64, f *feed) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	defer func() {
		s.mu.Lock()
		delete(s.feeds, f)
		s.mu.Unlock()
		f.close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		value, version, err := s.read(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			if s.isClosed() {
				return
			}
			continue
		}
		if version <= since {
			continue
		}
		since = version
		f.offer(Change{Key: key, Value: value, Deleted: value == nil, Version: version})
	}
}

func (s *SQLite) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close ends every subscription and closes the database handle.
func (s *SQLite) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for f := range s.feeds {
		f.close()
	}
	s.mu.Unlock()
	return s.db.Close()
}
