package service

import (
	"context"
	"errors"
	"strings"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/repository"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

// ContentService reads published content. It is the loader behind the
// detail viewer.
type ContentService struct {
	contentRepo repository.ContentRepository
	logger      *logger.Logger
}

// NewContentService creates a new content service
func NewContentService(contentRepo repository.ContentRepository, logger *logger.Logger) *ContentService {
	return &ContentService{
		contentRepo: contentRepo,
		logger:      logger.WithComponent("content-service"),
	}
}

// GetContent returns the record with the given id, or domain.ErrContentNotFound
func (s *ContentService) GetContent(ctx context.Context, id string) (*domain.ContentRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrContentNotFound
	}

	rec, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrContentNotFound) {
			s.logger.Error("Failed to get content", "content_id", id, "error", err)
		}
		return nil, err
	}
	return rec, nil
}
