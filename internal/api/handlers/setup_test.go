package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/editor"
	"github.com/amiyamandal-dev/contentdesk/internal/metrics"
	"github.com/amiyamandal-dev/contentdesk/internal/render"
	"github.com/amiyamandal-dev/contentdesk/internal/repository/badger"
	"github.com/amiyamandal-dev/contentdesk/internal/search"
	"github.com/amiyamandal-dev/contentdesk/internal/service"
	"github.com/amiyamandal-dev/contentdesk/internal/validator"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	engine      *gin.Engine
	db          *badger.DB
	contentRepo *badger.ContentRepo
	index       *search.BleveIndex
	attachments *service.AttachmentService
	metrics     *metrics.Metrics
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := badger.NewInMemory()
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	idx := search.NewBleveIndex(logger.Nop())
	if err := idx.OpenMem(); err != nil {
		t.Fatalf("Failed to open index: %v", err)
	}
	t.Cleanup(func() {
		idx.Close()
		db.Close()
	})

	log := logger.Nop()
	contentRepo := badger.NewContentRepo(db)
	attachmentRepo := badger.NewAttachmentRepo(db)
	v := validator.New(nil, nil)
	m := metrics.New(prometheus.NewRegistry())

	attachments := service.NewAttachmentService(attachmentRepo, 1<<10, time.Hour, log)
	ingest := service.NewIngestService(contentRepo, attachmentRepo, v, render.New(), idx,
		domain.Author{DisplayName: "Content Desk"}, log)

	contentHandler := NewContentHandler(
		service.NewContentService(contentRepo, log),
		service.NewSearchService(idx, contentRepo, log),
		m, time.Second, log,
	)
	draftHandler := NewDraftHandler(v, ingest, m, log)
	uploadHandler := NewUploadHandler(attachments, editor.DataURLPreviewer{}, m, log)
	healthHandler := NewHealthHandler(db, idx, log)

	r := gin.New()
	r.GET("/health/ready", healthHandler.Readiness)
	r.GET("/content", contentHandler.List)
	r.GET("/content/:id", contentHandler.Get)
	r.POST("/drafts/validate", draftHandler.Validate)
	r.POST("/content", draftHandler.Submit)
	r.POST("/uploads", uploadHandler.UploadImage)
	r.DELETE("/uploads/:id", uploadHandler.Delete)

	return &testEnv{
		engine:      r,
		db:          db,
		contentRepo: contentRepo,
		index:       idx,
		attachments: attachments,
		metrics:     m,
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) postJSON(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return e.do(t, req)
}

// envelope is the decoded response.Response
type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode %q: %v", w.Body.String(), err)
	}
	return env
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func validRequest() DraftRequest {
	return DraftRequest{
		Title:       "The Future of AI in Web Development",
		Content:     "<p>AI is changing things.</p>",
		Category:    "Technology",
		Type:        "Article",
		PublishDate: today(),
		Tags:        "ai, web development",
		Sections:    []SectionRequest{{Title: "Intro", Content: "<p>Hello</p>"}},
	}
}
