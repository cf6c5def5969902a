package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yndnr/webstore-go/internal/storage"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS entries (
	key   TEXT PRIMARY KEY NOT NULL,
	value TEXT NOT NULL
) WITHOUT ROWID`

// DefaultPollInterval is how often subscribers check for foreign commits.
const DefaultPollInterval = 250 * time.Millisecond

// Store is a SQLite-backed storage.Store.
type Store struct {
	db           *sql.DB
	logger       *slog.Logger
	pollInterval time.Duration

	// mu serializes writes with change detection so our own writes are
	// folded into seen before the next poll compares against it.
	mu          sync.Mutex
	seen        map[string]string
	dataVersion int64
	subs        map[*storage.Queue]struct{}
	polling     bool
	closed      bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// Option configures the Store.
type Option func(*Store)

// WithPollInterval sets how often subscribers check for foreign commits.
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens (or creates) the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	// data_version is per connection; one pinned connection keeps our own
	// commits invisible to it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping db: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	s := &Store{
		db:           db,
		logger:       slog.Default(),
		pollInterval: DefaultPollInterval,
		subs:         make(map[*storage.Queue]struct{}),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get retrieves a value by key.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite: get %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores a key-value pair.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}

	_, err := s.db.Exec(`INSERT INTO entries (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("sqlite: set %q: %w", key, err)
	}
	if s.seen != nil {
		s.seen[key] = value
	}
	return nil
}

// Remove deletes a key.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}

	if _, err := s.db.Exec(`DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: remove %q: %w", key, err)
	}
	if s.seen != nil {
		delete(s.seen, key)
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count: %w", err)
	}
	return n, nil
}

// Key returns the i-th key in key order.
func (s *Store) Key(i int) (string, bool, error) {
	if i < 0 {
		return "", false, nil
	}
	var key string
	err := s.db.QueryRow(`SELECT key FROM entries ORDER BY key LIMIT 1 OFFSET ?`, i).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite: key %d: %w", i, err)
	}
	return key, true, nil
}

// Scan iterates over keys with a given prefix in key order.
func (s *Store) Scan(prefix string, fn func(key, value string) bool) error {
	rows, err := s.db.Query(`SELECT key, value FROM entries WHERE instr(key, ?) = 1 ORDER BY key`, prefix)
	if err != nil {
		return fmt.Errorf("sqlite: scan: %w", err)
	}

	// Drain before calling fn: the single connection is busy while rows
	// are open and fn may write.
	type kv struct{ key, value string }
	var entries []kv
	for rows.Next() {
		var e kv
		if err := rows.Scan(&e.key, &e.value); err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: scan row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("sqlite: scan rows: %w", err)
	}
	rows.Close()

	for _, e := range entries {
		if !fn(e.key, e.value) {
			break
		}
	}
	return nil
}

// Subscribe returns a subscription to commits made by other connections.
// The first subscription starts the background poller.
func (s *Store) Subscribe() storage.Subscription {
	var q *storage.Queue
	q = storage.NewQueue(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, q)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return q
	}
	if s.seen == nil {
		if err := s.resetBaselineLocked(); err != nil {
			s.logger.Error("sqlite change baseline failed", "error", err)
		}
	}
	s.subs[q] = struct{}{}
	if !s.polling {
		s.polling = true
		go s.pollLoop()
	}
	return q
}

// Poll checks once for foreign commits and publishes the resulting events.
func (s *Store) Poll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	if s.seen == nil {
		return s.resetBaselineLocked()
	}

	version, err := s.readDataVersion()
	if err != nil {
		return err
	}
	if version == s.dataVersion {
		return nil
	}

	current, err := s.readAll()
	if err != nil {
		return err
	}
	events := diffEntries(s.seen, current)
	s.seen = current
	s.dataVersion = version

	for q := range s.subs {
		for _, ev := range events {
			q.Push(ev)
		}
	}
	if len(events) > 0 {
		s.logger.Debug("sqlite foreign commit detected", "events", len(events))
	}
	return nil
}

// Close stops the poller and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	polling := s.polling
	subs := s.subs
	s.subs = make(map[*storage.Queue]struct{})
	s.mu.Unlock()

	close(s.stopCh)
	if polling {
		<-s.doneCh
	}
	for q := range subs {
		q.Close()
	}
	return s.db.Close()
}

func (s *Store) pollLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Poll(); err != nil && !errors.Is(err, storage.ErrClosed) {
				s.logger.Warn("sqlite poll failed", "error", err)
			}
		case <-s.stopCh:
			return
		}
	}
}

func (s *Store) resetBaselineLocked() error {
	version, err := s.readDataVersion()
	if err != nil {
		return err
	}
	current, err := s.readAll()
	if err != nil {
		return err
	}
	s.seen = current
	s.dataVersion = version
	return nil
}

func (s *Store) readDataVersion() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var v int64
	if err := s.db.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("sqlite: data_version: %w", err)
	}
	return v, nil
}

func (s *Store) readAll() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: read all: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("sqlite: read row: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// diffEntries returns the events that turn before into after.
func diffEntries(before, after map[string]string) []storage.Event {
	var events []storage.Event
	for k, v := range after {
		old, ok := before[k]
		if ok && old == v {
			continue
		}
		ev := storage.Event{Key: k, NewValue: &v}
		if ok {
			ev.OldValue = &old
		}
		events = append(events, ev)
	}
	for k, old := range before {
		if _, ok := after[k]; !ok {
			events = append(events, storage.Event{Key: k, OldValue: &old})
		}
	}
	return events
}
