package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	_ "github.com/blevesearch/bleve/v2/analysis/char/html"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/en"
	_ "github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	_ "github.com/blevesearch/bleve/v2/analysis/token/snowball"
	_ "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

const (
	// bodies are stored as HTML; this analyzer strips the markup first
	htmlAnalyzer = "content_html"

	defaultLimit = 20
	maxLimit     = 100
)

// ErrIndexClosed is returned by operations on an index that is not open
var ErrIndexClosed = errors.New("search index is not open")

// BleveIndex implements the Index interface using Bleve
type BleveIndex struct {
	index  bleve.Index
	mu     sync.RWMutex // Protects concurrent access to the index
	logger *logger.Logger
}

// NewBleveIndex creates a new Bleve search index
func NewBleveIndex(logger *logger.Logger) *BleveIndex {
	return &BleveIndex{
		logger: logger.WithComponent("bleve-index"),
	}
}

// Open opens or creates the search index
func (b *BleveIndex) Open(indexPath string) error {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	b.index, err = bleve.Open(indexPath)
	if err == nil {
		b.logger.Info("Opened existing search index", "path", indexPath)
		return nil
	}

	indexMapping, err := buildIndexMapping()
	if err != nil {
		return err
	}
	b.index, err = bleve.New(indexPath, indexMapping)
	if err != nil {
		return fmt.Errorf("failed to create search index: %w", err)
	}

	b.logger.Info("Created new search index", "path", indexPath)
	return nil
}

// OpenMem creates an index that is never written to disk
func (b *BleveIndex) OpenMem() error {
	indexMapping, err := buildIndexMapping()
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.index, err = bleve.NewMemOnly(indexMapping)
	if err != nil {
		return fmt.Errorf("failed to create in-memory index: %w", err)
	}
	return nil
}

// buildIndexMapping builds the index mapping for content documents
func buildIndexMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()
	err := indexMapping.AddCustomAnalyzer(htmlAnalyzer, map[string]interface{}{
		"type":          "custom",
		"char_filters":  []string{"html"},
		"tokenizer":     "unicode",
		"token_filters": []string{"possessive_en", "to_lower", "stop_en", "stemmer_en_snowball"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register analyzer: %w", err)
	}

	contentMapping := bleve.NewDocumentMapping()

	// Title field - analyzed, stored
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = "en"
	titleFieldMapping.Store = true
	contentMapping.AddFieldMappingsAt("title", titleFieldMapping)

	// Body field - markup stripped, not stored
	bodyFieldMapping := bleve.NewTextFieldMapping()
	bodyFieldMapping.Analyzer = htmlAnalyzer
	bodyFieldMapping.Store = false
	contentMapping.AddFieldMappingsAt("body", bodyFieldMapping)

	authorFieldMapping := bleve.NewTextFieldMapping()
	authorFieldMapping.Analyzer = "standard"
	authorFieldMapping.Store = true
	contentMapping.AddFieldMappingsAt("author", authorFieldMapping)

	// Keyword fields used as exact filters
	for _, field := range []string{"category", "type", "tags"} {
		keyword := bleve.NewKeywordFieldMapping()
		keyword.Store = true
		contentMapping.AddFieldMappingsAt(field, keyword)
	}

	publishedFieldMapping := bleve.NewDateTimeFieldMapping()
	publishedFieldMapping.Store = true
	contentMapping.AddFieldMappingsAt("published", publishedFieldMapping)

	idFieldMapping := bleve.NewKeywordFieldMapping()
	idFieldMapping.Index = false
	contentMapping.AddFieldMappingsAt("id", idFieldMapping)

	indexMapping.AddDocumentMapping("content", contentMapping)
	indexMapping.DefaultMapping = contentMapping
	indexMapping.DefaultAnalyzer = "en"

	return indexMapping, nil
}

// Close closes the search index
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.index != nil {
		if err := b.index.Close(); err != nil {
			return fmt.Errorf("failed to close index: %w", err)
		}
		b.index = nil
		b.logger.Info("Closed search index")
	}
	return nil
}

// IndexContent indexes a record, replacing any previous version
func (b *BleveIndex) IndexContent(ctx context.Context, rec *domain.ContentRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.index == nil {
		return ErrIndexClosed
	}

	if err := b.index.Index(rec.ID, RecordToDocument(rec)); err != nil {
		b.logger.Error("Failed to index content", "content_id", rec.ID, "error", err)
		return fmt.Errorf("failed to index content: %w", err)
	}

	b.logger.Debug("Indexed content", "content_id", rec.ID)
	return nil
}

// DeleteContent removes a record from the index
func (b *BleveIndex) DeleteContent(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.index == nil {
		return ErrIndexClosed
	}

	if err := b.index.Delete(id); err != nil {
		b.logger.Error("Failed to delete content from index", "content_id", id, "error", err)
		return fmt.Errorf("failed to delete from index: %w", err)
	}

	b.logger.Debug("Deleted content from index", "content_id", id)
	return nil
}

// Search searches the index
func (b *BleveIndex) Search(ctx context.Context, q *domain.ContentQuery) (*Result, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.index == nil {
		return nil, ErrIndexClosed
	}

	startTime := time.Now()

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(q), limit, (page-1)*limit, false)
	if strings.TrimSpace(q.Text) == "" {
		searchRequest.SortBy([]string{"-published", "_id"})
	}

	searchResults, err := b.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		b.logger.Error("Search failed", "error", err)
		return nil, fmt.Errorf("search failed: %w", err)
	}

	queryTime := time.Since(startTime).Milliseconds()

	ids := make([]string, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		ids = append(ids, hit.ID)
	}

	total := int(searchResults.Total)
	totalPages := total / limit
	if total%limit > 0 {
		totalPages++
	}

	b.logger.Debug("Search completed",
		"query", q.Text,
		"results", total,
		"time_ms", queryTime,
	)

	return &Result{
		IDs:        ids,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		QueryTime:  queryTime,
	}, nil
}

// buildSearchQuery builds a Bleve query from the content query
func buildSearchQuery(q *domain.ContentQuery) query.Query {
	var queries []query.Query

	if text := strings.TrimSpace(q.Text); text != "" {
		title := bleve.NewMatchQuery(text)
		title.SetField("title")
		title.SetBoost(2)
		body := bleve.NewMatchQuery(text)
		body.SetField("body")
		author := bleve.NewMatchQuery(text)
		author.SetField("author")
		queries = append(queries, bleve.NewDisjunctionQuery(title, body, author))
	}

	if q.Category != "" {
		queries = append(queries, termQuery("category", q.Category))
	}
	if q.Type != "" {
		queries = append(queries, termQuery("type", string(q.Type)))
	}
	for _, tag := range q.Tags {
		queries = append(queries, termQuery("tags", tag))
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

func termQuery(field, value string) query.Query {
	tq := bleve.NewTermQuery(strings.ToLower(value))
	tq.SetField(field)
	return tq
}

// Count returns the number of documents in the index
func (b *BleveIndex) Count() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.index == nil {
		return 0, ErrIndexClosed
	}

	count, err := b.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get doc count: %w", err)
	}
	return count, nil
}
