package repository

import (
	"context"
	"time"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
)

// ContentRepository defines the interface for published content persistence
type ContentRepository interface {
	// Create stores a new record; it fails with domain.ErrContentExists if the id is taken
	Create(ctx context.Context, rec *domain.ContentRecord) error

	// Save creates or replaces a record
	Save(ctx context.Context, rec *domain.ContentRecord) error

	// GetByID retrieves a record by ID
	GetByID(ctx context.Context, id string) (*domain.ContentRecord, error)

	// GetByIDs retrieves records in the given order, skipping missing ones
	GetByIDs(ctx context.Context, ids []string) ([]*domain.ContentRecord, error)

	// Delete deletes a record by ID
	Delete(ctx context.Context, id string) error

	// List returns records newest first, filtered by category, type and tags.
	// The text field of the query is ignored.
	List(ctx context.Context, q *domain.ContentQuery) ([]*domain.ContentRecord, int, error)

	// Each calls fn for every record until fn returns an error
	Each(ctx context.Context, fn func(*domain.ContentRecord) error) error
}

// AttachmentRepository stores uploaded files
type AttachmentRepository interface {
	// Save stores an attachment. A zero ttl keeps it forever.
	Save(ctx context.Context, att *domain.Attachment, ttl time.Duration) error

	// Get retrieves an attachment, including its bytes
	Get(ctx context.Context, id string) (*domain.Attachment, error)

	// Promote makes an attachment permanent
	Promote(ctx context.Context, id string) (*domain.Attachment, error)

	// Delete removes an attachment
	Delete(ctx context.Context, id string) error
}
