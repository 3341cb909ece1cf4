package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/repository"
	"github.com/amiyamandal-dev/contentdesk/internal/search"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

// IndexSyncService keeps the search index in step with the content store.
// Records written outside the ingest path (seeding, restores) are picked up
// on the next check.
type IndexSyncService struct {
	searchService *SearchService
	index         search.Index
	contentRepo   repository.ContentRepository
	logger        *logger.Logger
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewIndexSyncService creates a new index sync service
func NewIndexSyncService(
	searchService *SearchService,
	index search.Index,
	contentRepo repository.ContentRepository,
	logger *logger.Logger,
) *IndexSyncService {
	return &IndexSyncService{
		searchService: searchService,
		index:         index,
		contentRepo:   contentRepo,
		logger:        logger.WithComponent("index-sync"),
		stopChan:      make(chan struct{}),
	}
}

// Start checks the index immediately and then every interval until Stop is
// called or ctx is done
func (s *IndexSyncService) Start(ctx context.Context, interval time.Duration) {
	s.logger.Info("Starting index sync service", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run initial sync
	s.check(ctx)

	for {
		select {
		case <-ticker.C:
			s.check(ctx)
		case <-s.stopChan:
			s.logger.Info("Stopping index sync service")
			return
		case <-ctx.Done():
			s.logger.Info("Context cancelled, stopping index sync service")
			return
		}
	}
}

// Stop stops the background sync. It is safe to call more than once.
func (s *IndexSyncService) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *IndexSyncService) check(ctx context.Context) {
	if _, err := s.Sync(ctx); err != nil {
		s.logger.Error("Index sync failed", "error", err)
	}
}

// Sync rebuilds the index when it holds fewer documents than the store has
// records, and reports whether it did. Surplus documents are left alone;
// search drops hits whose record is gone.
func (s *IndexSyncService) Sync(ctx context.Context) (bool, error) {
	_, stored, err := s.contentRepo.List(ctx, &domain.ContentQuery{Page: 1, Limit: 1})
	if err != nil {
		return false, fmt.Errorf("failed to count records: %w", err)
	}

	indexed, err := s.index.Count()
	if err != nil {
		return false, fmt.Errorf("failed to count index documents: %w", err)
	}

	if indexed >= uint64(stored) {
		return false, nil
	}

	s.logger.Info("Search index behind store", "stored", stored, "indexed", indexed)
	if _, err := s.searchService.Reindex(ctx); err != nil {
		return false, err
	}
	return true, nil
}
