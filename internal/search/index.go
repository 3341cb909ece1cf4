package search

import (
	"context"
	"strings"
	"time"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
)

// Document is what gets indexed for a content record
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	Tags      []string  `json:"tags"`
	Category  string    `json:"category"`
	Type      string    `json:"type"`
	Published time.Time `json:"published"`
}

// Result is one page of matching record IDs
type Result struct {
	IDs        []string
	Total      int
	Page       int
	Limit      int
	TotalPages int
	QueryTime  int64 // milliseconds
}

// Index defines the interface for content search
type Index interface {
	// Open opens or creates the index at indexPath
	Open(indexPath string) error

	// Close closes the index
	Close() error

	// IndexContent adds or replaces a record
	IndexContent(ctx context.Context, rec *domain.ContentRecord) error

	// DeleteContent removes a record
	DeleteContent(ctx context.Context, id string) error

	// Search returns matching IDs, best match first, or newest first when
	// there is no text
	Search(ctx context.Context, q *domain.ContentQuery) (*Result, error)

	// Count returns the number of indexed documents
	Count() (uint64, error)
}

// RecordToDocument converts a record to its search document. Tags and the
// keyword fields are lowercased so filters are case insensitive.
func RecordToDocument(rec *domain.ContentRecord) *Document {
	tags := make([]string, 0, len(rec.Tags))
	for _, t := range rec.Tags {
		tags = append(tags, strings.ToLower(t))
	}
	body := rec.Body
	if rec.Transcript != "" {
		body += "\n" + rec.Transcript
	}
	return &Document{
		ID:        rec.ID,
		Title:     rec.Title,
		Body:      body,
		Author:    rec.Author.DisplayName,
		Tags:      tags,
		Category:  strings.ToLower(rec.Category),
		Type:      strings.ToLower(string(rec.Type)),
		Published: rec.PublishedDate,
	}
}
