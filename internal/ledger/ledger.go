// Package ledger persists the keys of uploads that were already reported.
//
// The ledger is append-only: keys are written once and never removed.
// Loading returns a set, so a key appended twice shows up once.
package ledger

import (
	"context"
	"errors"
	"fmt"
)

// ErrPersistence wraps every store failure so callers can tell a lost
// write or unreadable ledger apart from other errors.
var ErrPersistence = errors.New("ledger persistence failure")

// Store is a durable line store.
type Store interface {
	// ReadAll returns every line ever appended. A store that does not
	// exist yet reads as empty, not as an error.
	ReadAll(ctx context.Context) (Set, error)
	// AppendLine durably adds one line, creating the store if needed.
	// It never rewrites earlier lines.
	AppendLine(ctx context.Context, line string) error
	Close() error
}

// Ledger is the dedup record shared by all passes of one watcher.
// Calls are expected from a single goroutine.
type Ledger struct {
	store Store
}

// New wraps a store.
func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Load reads the full ledger.
func (l *Ledger) Load(ctx context.Context) (Set, error) {
	s, err := l.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %w", ErrPersistence, err)
	}
	if s == nil {
		s = make(Set)
	}
	return s, nil
}

// Append records key. No dedup happens here; callers check the snapshot.
func (l *Ledger) Append(ctx context.Context, key string) error {
	if err := l.store.AppendLine(ctx, key); err != nil {
		return fmt.Errorf("%w: append: %w", ErrPersistence, err)
	}
	return nil
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}

// Open builds the store named by backend: "file" and "sqlite" use path,
// "postgres" uses dsn.
func Open(ctx context.Context, backend, path, dsn string) (*Ledger, error) {
	var (
		s   Store
		err error
	)
	switch backend {
	case "", "file":
		s = NewFileStore(path)
	case "sqlite":
		s, err = OpenSQLite(ctx, path)
	case "postgres":
		s, err = OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("ledger: unknown backend %q (valid: file, sqlite, postgres)", backend)
	}
	if err != nil {
		return nil, err
	}
	return New(s), nil
}
