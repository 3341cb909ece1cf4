package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
)

func setupDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to init badger db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newRecord(id string, day int, typ domain.ContentType, category string, tags ...string) *domain.ContentRecord {
	return &domain.ContentRecord{
		ID:            id,
		Title:         "Record " + id,
		Body:          "<p>body</p>",
		PublishedDate: time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		Category:      category,
		Type:          typ,
		Tags:          tags,
	}
}

func TestContentRepoCreateAndGet(t *testing.T) {
	repo := NewContentRepo(setupDB(t))
	ctx := context.Background()

	rec := newRecord("1", 1, domain.TypeArticle, "Technology", "go")
	rec.Counters = domain.Counters{Views: 10, Likes: 2}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != rec.Title || got.Counters.Views != 10 || !got.PublishedDate.Equal(rec.PublishedDate) {
		t.Errorf("Unexpected record %+v", got)
	}

	if err := repo.Create(ctx, rec); !errors.Is(err, domain.ErrContentExists) {
		t.Errorf("Expected ErrContentExists, got %v", err)
	}
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrContentNotFound) {
		t.Errorf("Expected ErrContentNotFound, got %v", err)
	}
	if err := repo.Create(ctx, &domain.ContentRecord{ID: "bad"}); !errors.Is(err, domain.ErrInvalidContent) {
		t.Errorf("Expected ErrInvalidContent, got %v", err)
	}
}

func TestContentRepoListNewestFirst(t *testing.T) {
	repo := NewContentRepo(setupDB(t))
	ctx := context.Background()

	for i, rec := range []*domain.ContentRecord{
		newRecord("a", 1, domain.TypeArticle, "Technology", "go"),
		newRecord("b", 3, domain.TypeVideo, "Science", "space"),
		newRecord("c", 2, domain.TypeArticle, "Technology", "go", "web"),
	} {
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}

	tests := []struct {
		name      string
		query     domain.ContentQuery
		wantIDs   []string
		wantTotal int
	}{
		{name: "all", query: domain.ContentQuery{}, wantIDs: []string{"b", "c", "a"}, wantTotal: 3},
		{name: "category", query: domain.ContentQuery{Category: "technology"}, wantIDs: []string{"c", "a"}, wantTotal: 2},
		{name: "type", query: domain.ContentQuery{Type: domain.TypeVideo}, wantIDs: []string{"b"}, wantTotal: 1},
		{name: "tags", query: domain.ContentQuery{Tags: []string{"go", "web"}}, wantIDs: []string{"c"}, wantTotal: 1},
		{name: "paged", query: domain.ContentQuery{Page: 2, Limit: 2}, wantIDs: []string{"a"}, wantTotal: 3},
		{name: "past the end", query: domain.ContentQuery{Page: 5, Limit: 2}, wantIDs: []string{}, wantTotal: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.List(ctx, &tt.query)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("Expected total %d, got %d", tt.wantTotal, total)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Expected %d records, got %d", len(tt.wantIDs), len(got))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestContentRepoSaveMovesTimeIndex(t *testing.T) {
	repo := NewContentRepo(setupDB(t))
	ctx := context.Background()

	rec := newRecord("x", 1, domain.TypeArticle, "Technology")
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	rec.PublishedDate = rec.PublishedDate.AddDate(0, 0, 5)
	rec.Title = "Updated"
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	all, total, err := repo.List(ctx, &domain.ContentQuery{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || all[0].Title != "Updated" {
		t.Errorf("Expected one updated record, got %d: %+v", total, all)
	}

	if err := repo.Delete(ctx, "x"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, total, _ := repo.List(ctx, &domain.ContentQuery{}); total != 0 {
		t.Errorf("Expected no records after delete, got %d", total)
	}
	if err := repo.Delete(ctx, "x"); !errors.Is(err, domain.ErrContentNotFound) {
		t.Errorf("Expected ErrContentNotFound, got %v", err)
	}
}

func TestContentRepoGetByIDs(t *testing.T) {
	repo := NewContentRepo(setupDB(t))
	ctx := context.Background()

	repo.Create(ctx, newRecord("1", 1, domain.TypeArticle, "Technology"))
	repo.Create(ctx, newRecord("2", 2, domain.TypeArticle, "Technology"))

	got, err := repo.GetByIDs(ctx, []string{"2", "missing", "1"})
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "1" {
		t.Errorf("Unexpected records %+v", got)
	}
}
