package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
)

func attachmentKey(id string) []byte {
	return []byte("attachment:" + id)
}

// AttachmentRepo stores uploads. Uploads expire unless a published record
// references them, at which point they are promoted.
type AttachmentRepo struct {
	db *DB
}

// NewAttachmentRepo creates a new BadgerDB-based attachment repository
func NewAttachmentRepo(db *DB) *AttachmentRepo {
	return &AttachmentRepo{db: db}
}

// Save stores an attachment. A zero ttl keeps it forever.
func (r *AttachmentRepo) Save(ctx context.Context, att *domain.Attachment, ttl time.Duration) error {
	if att.ID == "" {
		return domain.ErrInvalidAttachment
	}
	att.Permanent = ttl == 0
	return r.db.Update(func(txn *badger.Txn) error {
		return putAttachment(txn, att, ttl)
	})
}

func putAttachment(txn *badger.Txn, att *domain.Attachment, ttl time.Duration) error {
	data, err := json.Marshal(att)
	if err != nil {
		return fmt.Errorf("failed to marshal attachment: %w", err)
	}
	entry := badger.NewEntry(attachmentKey(att.ID), data)
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}
	return txn.SetEntry(entry)
}

func getAttachment(txn *badger.Txn, id string) (*domain.Attachment, error) {
	item, err := txn.Get(attachmentKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, err
	}

	var att domain.Attachment
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &att)
	}); err != nil {
		return nil, fmt.Errorf("failed to decode attachment %s: %w", id, err)
	}
	return &att, nil
}

// Get retrieves an attachment
func (r *AttachmentRepo) Get(ctx context.Context, id string) (*domain.Attachment, error) {
	var att *domain.Attachment
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		att, err = getAttachment(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return att, nil
}

// Promote rewrites the attachment without an expiry
func (r *AttachmentRepo) Promote(ctx context.Context, id string) (*domain.Attachment, error) {
	var att *domain.Attachment
	err := r.db.Update(func(txn *badger.Txn) error {
		var err error
		att, err = getAttachment(txn, id)
		if err != nil {
			return err
		}
		if att.Permanent {
			return nil
		}
		att.Permanent = true
		return putAttachment(txn, att, 0)
	})
	if err != nil {
		return nil, err
	}
	return att, nil
}

// Delete removes an attachment
func (r *AttachmentRepo) Delete(ctx context.Context, id string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(attachmentKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrAttachmentNotFound
			}
			return err
		}
		return txn.Delete(attachmentKey(id))
	})
}
