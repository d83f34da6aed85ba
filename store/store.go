// Package store persists generation attempts ("meetings") in a local SQLite file.
// One Store is opened per process and shared; writes are serialized, reads run concurrently.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Load when no record has the requested identity.
var ErrNotFound = errors.New("no such record")

// ErrNotObject is returned by Insert when a payload or result is not a JSON object.
var ErrNotObject = errors.New("value must encode to a JSON object")

const (
	// CreatedAtLayout is the fixed created_at format.
	CreatedAtLayout = "2006-01-02 15:04:05"

	defaultSearchLimit = 30
)

// Store manages the meetings database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the created_at clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open creates or opens the database at dbPath and ensures the schema.
func Open(dbPath string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:     db,
		dbPath: dbPath,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Init(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	s.logger.Info("record store opened", zap.String("path", dbPath))
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// DB exposes the shared handle for sibling repositories on the same file.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Init creates the meetings table. Safe to call on every start.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schema := `
	CREATE TABLE IF NOT EXISTS meetings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		meeting_date TEXT NOT NULL,
		meeting_time TEXT NOT NULL,
		meeting_title TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		result_json TEXT,
		locked INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_meetings_date_time ON meetings(meeting_date, meeting_time, id);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}
