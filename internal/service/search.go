package service

import (
	"context"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/repository"
	"github.com/amiyamandal-dev/contentdesk/internal/search"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

// SearchResult is one page of hydrated search hits
type SearchResult struct {
	Items      []*domain.ContentRecord `json:"items"`
	Total      int                     `json:"total"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	TotalPages int                     `json:"total_pages"`
	QueryTime  int64                   `json:"query_time_ms"`
}

// SearchService handles search-related operations
type SearchService struct {
	index       search.Index
	contentRepo repository.ContentRepository
	logger      *logger.Logger
}

// NewSearchService creates a new search service
func NewSearchService(
	index search.Index,
	contentRepo repository.ContentRepository,
	logger *logger.Logger,
) *SearchService {
	return &SearchService{
		index:       index,
		contentRepo: contentRepo,
		logger:      logger.WithComponent("search-service"),
	}
}

// Search runs the query against the index and loads the matching records.
// Hits whose record has since been deleted are dropped.
func (s *SearchService) Search(ctx context.Context, q *domain.ContentQuery) (*SearchResult, error) {
	res, err := s.index.Search(ctx, q)
	if err != nil {
		s.logger.Error("Search failed", "error", err)
		return nil, err
	}

	items, err := s.contentRepo.GetByIDs(ctx, res.IDs)
	if err != nil {
		s.logger.Error("Failed to load search hits", "error", err)
		return nil, err
	}

	if len(items) != len(res.IDs) {
		s.logger.Warn("Search index references missing content",
			"hits", len(res.IDs),
			"loaded", len(items),
		)
	}

	return &SearchResult{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
		QueryTime:  res.QueryTime,
	}, nil
}

// IndexContent indexes a record for search
func (s *SearchService) IndexContent(ctx context.Context, rec *domain.ContentRecord) error {
	return s.index.IndexContent(ctx, rec)
}

// Reindex rebuilds the index from the content store and returns the number
// of records indexed
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	count := 0
	err := s.contentRepo.Each(ctx, func(rec *domain.ContentRecord) error {
		if err := s.index.IndexContent(ctx, rec); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		s.logger.Error("Reindex failed", "indexed", count, "error", err)
		return count, err
	}

	s.logger.Info("Reindex completed", "indexed", count)
	return count, nil
}

// GetIndexStats returns statistics about the search index
func (s *SearchService) GetIndexStats(ctx context.Context) (map[string]interface{}, error) {
	count, err := s.index.Count()
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"total_documents": count,
	}, nil
}
