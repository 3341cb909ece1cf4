package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
)

const (
	contentIDPrefix   = "content:id:"
	contentTimePrefix = "content:time:"
)

func contentIDKey(id string) []byte {
	return []byte(contentIDPrefix + id)
}

// Time index for newest-first scans.
// Format: content:time:<published, UTC, sortable>:<id>
func contentTimeKey(rec *domain.ContentRecord) []byte {
	return []byte(contentTimePrefix + rec.PublishedDate.UTC().Format(sortableTime) + ":" + rec.ID)
}

const sortableTime = "20060102T150405.000000000"

// ContentRepo implements ContentRepository using BadgerDB
type ContentRepo struct {
	db *DB
}

// NewContentRepo creates a new BadgerDB-based content repository
func NewContentRepo(db *DB) *ContentRepo {
	return &ContentRepo{db: db}
}

// Create stores a new record
func (r *ContentRepo) Create(ctx context.Context, rec *domain.ContentRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(contentIDKey(rec.ID))
		if err == nil {
			return domain.ErrContentExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return putContent(txn, rec)
	})
}

// Save creates or replaces a record, moving its index entries if needed
func (r *ContentRepo) Save(ctx context.Context, rec *domain.ContentRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		old, err := getContent(txn, rec.ID)
		switch {
		case err == nil:
			if err := txn.Delete(contentTimeKey(old)); err != nil {
				return err
			}
		case !errors.Is(err, domain.ErrContentNotFound):
			return err
		}
		return putContent(txn, rec)
	})
}

func putContent(txn *badger.Txn, rec *domain.ContentRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal content: %w", err)
	}
	if err := txn.Set(contentIDKey(rec.ID), data); err != nil {
		return err
	}
	return txn.Set(contentTimeKey(rec), []byte(rec.ID))
}

func getContent(txn *badger.Txn, id string) (*domain.ContentRecord, error) {
	item, err := txn.Get(contentIDKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrContentNotFound
		}
		return nil, err
	}

	var rec domain.ContentRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("failed to decode content %s: %w", id, err)
	}
	return &rec, nil
}

// GetByID retrieves a record by ID
func (r *ContentRepo) GetByID(ctx context.Context, id string) (*domain.ContentRecord, error) {
	var rec *domain.ContentRecord
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getContent(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByIDs retrieves records in the given order, skipping missing ones
func (r *ContentRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.ContentRecord, error) {
	records := make([]*domain.ContentRecord, 0, len(ids))
	err := r.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			rec, err := getContent(txn, id)
			if errors.Is(err, domain.ErrContentNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Delete deletes a record by ID
func (r *ContentRepo) Delete(ctx context.Context, id string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		rec, err := getContent(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(contentTimeKey(rec)); err != nil {
			return err
		}
		return txn.Delete(contentIDKey(id))
	})
}

// List scans the time index newest first and filters in memory.
// Full text queries go through the search index instead.
func (r *ContentRepo) List(ctx context.Context, q *domain.ContentQuery) ([]*domain.ContentRecord, int, error) {
	var records []*domain.ContentRecord

	err := r.scan(ctx, func(rec *domain.ContentRecord) error {
		if matches(rec, q) {
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	total := len(records)
	start, end := pageBounds(q.Page, q.Limit, total)
	return records[start:end], total, nil
}

// Each calls fn for every record, newest first
func (r *ContentRepo) Each(ctx context.Context, fn func(*domain.ContentRecord) error) error {
	return r.scan(ctx, fn)
}

func (r *ContentRepo) scan(ctx context.Context, fn func(*domain.ContentRecord) error) error {
	return r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 100
		opts.Reverse = true // newest first
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(contentTimePrefix)
		for it.Seek(append(prefix, 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			rec, err := getContent(txn, string(id))
			if errors.Is(err, domain.ErrContentNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func matches(rec *domain.ContentRecord, q *domain.ContentQuery) bool {
	if q == nil {
		return true
	}
	if q.Category != "" && !strings.EqualFold(rec.Category, q.Category) {
		return false
	}
	if q.Type != "" && rec.Type != q.Type {
		return false
	}
	for _, want := range q.Tags {
		found := false
		for _, tag := range rec.Tags {
			if strings.EqualFold(tag, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func pageBounds(page, limit, total int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return 0, total
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return start, end
}
