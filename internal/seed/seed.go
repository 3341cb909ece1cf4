// Package seed loads sample content records from YAML.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

// ErrInvalidSeed is returned for a seed file that cannot be used
var ErrInvalidSeed = errors.New("invalid seed file")

//go:embed samples.yaml
var samples []byte

// File is the layout of a seed file
type File struct {
	Content []*domain.ContentRecord `yaml:"content"`
}

// Store receives seeded records. Existing records with the same id are
// replaced.
type Store interface {
	Save(ctx context.Context, rec *domain.ContentRecord) error
}

// Indexer makes seeded records searchable
type Indexer interface {
	IndexContent(ctx context.Context, rec *domain.ContentRecord) error
}

// Samples returns the built-in sample article and video
func Samples() ([]*domain.ContentRecord, error) {
	return Load(bytes.NewReader(samples))
}

// Load decodes and checks a seed file. Unknown keys are rejected.
func Load(r io.Reader) ([]*domain.ContentRecord, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrInvalidSeed)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}

	seen := make(map[string]bool, len(f.Content))
	for i, rec := range f.Content {
		if rec == nil {
			return nil, fmt.Errorf("%w: entry %d is empty", ErrInvalidSeed, i)
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d (%q): %w", ErrInvalidSeed, i, rec.ID, err)
		}
		if seen[rec.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidSeed, rec.ID)
		}
		seen[rec.ID] = true
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = rec.PublishedDate
		}
	}

	return f.Content, nil
}

// Apply stores and indexes the records and returns how many were stored
func Apply(ctx context.Context, store Store, indexer Indexer, records []*domain.ContentRecord, log *logger.Logger) (int, error) {
	log = log.WithComponent("seed")

	for i, rec := range records {
		if err := store.Save(ctx, rec); err != nil {
			return i, fmt.Errorf("failed to store %q: %w", rec.ID, err)
		}
		if indexer != nil {
			if err := indexer.IndexContent(ctx, rec); err != nil {
				log.Warn("Failed to index seeded content", "content_id", rec.ID, "error", err)
			}
		}
		log.Debug("Seeded content", "content_id", rec.ID, "type", rec.Type)
	}

	log.Info("Seed applied", "records", len(records))
	return len(records), nil
}
