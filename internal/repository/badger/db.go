package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// DB wraps BadgerDB, the local store for content records and attachments
type DB struct {
	*badger.DB
}

// New opens (or creates) the database at dbPath
func New(dbPath string) (*DB, error) {
	return open(badger.DefaultOptions(dbPath))
}

// NewInMemory opens a database that lives only as long as the process
func NewInMemory() (*DB, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*DB, error) {
	opts.Logger = nil // badger's own logger is too chatty

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &DB{DB: db}, nil
}

// Close closes the database. Closing twice is a no-op.
func (db *DB) Close() error {
	if db.IsClosed() {
		return nil
	}
	return db.DB.Close()
}

// HealthCheck checks if the database is healthy
func (db *DB) HealthCheck() error {
	if db.IsClosed() {
		return fmt.Errorf("badger db is closed")
	}
	return db.View(func(txn *badger.Txn) error {
		return nil
	})
}

// gcDiscardRatio is the share of stale data a value log file needs before
// it is rewritten
const gcDiscardRatio = 0.5

// RunGC reclaims value log space left by expired uploads and replaced
// records, every interval until ctx is done. Each tick rewrites files until
// badger reports nothing left to collect.
func (db *DB) RunGC(ctx context.Context, interval time.Duration, onError func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := db.collect(); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}

func (db *DB) collect() error {
	for {
		if db.IsClosed() {
			return nil
		}
		err := db.RunValueLogGC(gcDiscardRatio)
		switch {
		case err == nil:
			continue
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrRejected), errors.Is(err, badger.ErrGCInMemoryMode):
			return nil
		default:
			return fmt.Errorf("value log gc: %w", err)
		}
	}
}
