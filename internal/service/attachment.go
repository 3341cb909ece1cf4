package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/repository"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

// AttachmentService accepts image uploads for covers and sections
type AttachmentService struct {
	repo     repository.AttachmentRepository
	maxBytes int64
	ttl      time.Duration
	now      func() time.Time
	logger   *logger.Logger
}

// NewAttachmentService creates a new attachment service. Uploads larger
// than maxBytes are refused; unused uploads expire after ttl.
func NewAttachmentService(
	repo repository.AttachmentRepository,
	maxBytes int64,
	ttl time.Duration,
	logger *logger.Logger,
) *AttachmentService {
	return &AttachmentService{
		repo:     repo,
		maxBytes: maxBytes,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.WithComponent("attachment-service"),
	}
}

// MaxBytes is the upload size limit
func (s *AttachmentService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores an image. The content type is sniffed from the bytes, never
// taken from the filename.
func (s *AttachmentService) Upload(ctx context.Context, filename string, data []byte) (*domain.Attachment, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrInvalidAttachment)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, domain.ErrAttachmentTooLarge
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: %s is not an image", domain.ErrInvalidAttachment, mtype.String())
	}

	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		name = "upload" + mtype.Extension()
	}

	att := &domain.Attachment{
		FileRef: domain.FileRef{
			ID:          uuid.NewString(),
			Filename:    name,
			ContentType: mtype.String(),
			Size:        int64(len(data)),
		},
		Data:      data,
		CreatedAt: s.now(),
	}

	if err := s.repo.Save(ctx, att, s.ttl); err != nil {
		s.logger.Error("Failed to store upload", "filename", name, "error", err)
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	s.logger.Debug("Stored upload",
		"attachment_id", att.ID,
		"content_type", att.ContentType,
		"size", att.Size,
	)
	return att, nil
}

// UploadFrom reads at most the size limit from r and uploads it
func (s *AttachmentService) UploadFrom(ctx context.Context, filename string, r io.Reader) (*domain.Attachment, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return s.Upload(ctx, filename, data)
}

// Get returns an attachment with its bytes
func (s *AttachmentService) Get(ctx context.Context, id string) (*domain.Attachment, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes an upload that has not been published
func (s *AttachmentService) Delete(ctx context.Context, id string) error {
	att, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if att.Permanent {
		return fmt.Errorf("%w: attachment is referenced by published content", domain.ErrInvalidAttachment)
	}
	return s.repo.Delete(ctx, id)
}
