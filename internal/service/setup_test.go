package service

import (
	"testing"
	"time"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/render"
	"github.com/amiyamandal-dev/contentdesk/internal/repository/badger"
	"github.com/amiyamandal-dev/contentdesk/internal/search"
	"github.com/amiyamandal-dev/contentdesk/internal/validator"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func nowFunc() time.Time { return testNow }

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

var defaultAuthor = domain.Author{DisplayName: "Content Desk", Bio: "House account"}

type TestEnv struct {
	DB                *badger.DB
	ContentRepo       *badger.ContentRepo
	AttachmentRepo    *badger.AttachmentRepo
	Index             *search.BleveIndex
	ContentService    *ContentService
	SearchService     *SearchService
	IngestService     *IngestService
	AttachmentService *AttachmentService
}

func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	db, err := badger.New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to init badger db: %v", err)
	}

	idx := search.NewBleveIndex(logger.Nop())
	if err := idx.OpenMem(); err != nil {
		t.Fatalf("Failed to open search index: %v", err)
	}

	t.Cleanup(func() {
		idx.Close()
		db.Close()
	})

	log := logger.Nop()
	contentRepo := badger.NewContentRepo(db)
	attachmentRepo := badger.NewAttachmentRepo(db)

	ingest := NewIngestService(
		contentRepo,
		attachmentRepo,
		validator.New(nil, nowFunc),
		render.New(),
		idx,
		defaultAuthor,
		log,
	)
	ingest.now = nowFunc

	return &TestEnv{
		DB:                db,
		ContentRepo:       contentRepo,
		AttachmentRepo:    attachmentRepo,
		Index:             idx,
		ContentService:    NewContentService(contentRepo, log),
		SearchService:     NewSearchService(idx, contentRepo, log),
		IngestService:     ingest,
		AttachmentService: NewAttachmentService(attachmentRepo, 1<<20, time.Hour, log),
	}
}

func articleDraft() *domain.ContentDraft {
	d := domain.NewDraft(testNow)
	d.Title = "Understanding Badger"
	d.Body = "<p>An embedded key value store.</p><script>alert(1)</script>"
	d.Category = "Programming"
	d.SetTagsInput("go, storage")
	return d
}
