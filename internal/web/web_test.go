package web

import (
	"bytes"
	"context"
	"html"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/editor"
	"github.com/amiyamandal-dev/contentdesk/internal/render"
	"github.com/amiyamandal-dev/contentdesk/internal/repository/badger"
	"github.com/amiyamandal-dev/contentdesk/internal/search"
	"github.com/amiyamandal-dev/contentdesk/internal/service"
	"github.com/amiyamandal-dev/contentdesk/internal/validator"
	"github.com/amiyamandal-dev/contentdesk/internal/viewer"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	engine      *gin.Engine
	handler     *WebHandler
	contentRepo *badger.ContentRepo
	attachments *service.AttachmentService
}

// slowLoader delays every fetch until release is closed
type slowLoader struct {
	release chan struct{}
	rec     *domain.ContentRecord
}

func (l *slowLoader) GetContent(ctx context.Context, id string) (*domain.ContentRecord, error) {
	select {
	case <-l.release:
		return l.rec, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func setupEnv(t *testing.T, loader viewer.Loader) *testEnv {
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
	renderer := render.New()
	attachments := service.NewAttachmentService(attachmentRepo, 1<<20, time.Hour, log)

	if loader == nil {
		loader = service.NewContentService(contentRepo, log)
	}

	h := NewWebHandler(Deps{
		Loader:        loader,
		Renderer:      renderer,
		SearchService: service.NewSearchService(idx, contentRepo, log),
		Validator:     v,
		Submitter: service.NewIngestService(contentRepo, attachmentRepo, v, renderer, idx,
			domain.Author{DisplayName: "Content Desk"}, log),
		Attachments: attachments,
		Previewer:   editor.DataURLPreviewer{},
	}, Timing{FetchTimeout: 2 * time.Second, PlaceholderAfter: 50 * time.Millisecond}, log)

	r := gin.New()
	r.GET("/", h.HomePage)
	r.GET("/content/:id", h.ContentPage)
	r.GET("/content/:id/play", h.PlayVideo)
	r.GET("/media/:id", h.Media)
	r.GET("/editor", h.EditorPage)
	r.POST("/editor", h.EditorSubmit)

	return &testEnv{engine: r, handler: h, contentRepo: contentRepo, attachments: attachments}
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func (e *testEnv) postForm(t *testing.T, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/editor", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func videoRecord() *domain.ContentRecord {
	return &domain.ContentRecord{
		ID:            "2",
		Title:         "Building Scalable Web Applications",
		Body:          "<p>Learn how to build scalable web applications.</p>",
		PublishedDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Duration:      "15:30",
		HeroImageURL:  "/media/poster",
		VideoURL:      "https://example.com/video.mp4",
		Category:      "Web Development",
		Type:          domain.TypeVideo,
		Tags:          []string{"web development", "scalability"},
		Transcript:    "Welcome to **this** video.",
		Counters:      domain.Counters{Views: 12345, Likes: 1000, Bookmarks: 500},
		Author:        domain.Author{DisplayName: "Jane Smith"},
	}
}

func TestContentPageVideo(t *testing.T) {
	e := setupEnv(t, nil)
	if err := e.contentRepo.Create(context.Background(), videoRecord()); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	w := e.get(t, "/content/2")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"Building Scalable Web Applications",
		`href="/content/2/play"`,
		"Duration: 15:30",
		"Views: 12,345",
		"Like 1,000",
		"Bookmark 500",
		"<strong>this</strong>",
		"JS",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Page missing %q", want)
		}
	}
}

func TestContentPageNotFound(t *testing.T) {
	e := setupEnv(t, nil)

	w := e.get(t, "/content/missing")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "Content not found") {
		t.Errorf("Expected the not found page, got %d", w.Code)
	}
}

func TestContentPageShowsSkeletonWhileLoading(t *testing.T) {
	loader := &slowLoader{release: make(chan struct{}), rec: videoRecord()}
	e := setupEnv(t, loader)

	w := e.get(t, "/content/2")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `aria-busy="true"`) || !strings.Contains(body, "/content/2?wait=full") {
		t.Fatalf("Expected the skeleton with a refresh, got %s", body)
	}

	close(loader.release)
	w = e.get(t, "/content/2?wait=full")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Building Scalable Web Applications") {
		t.Errorf("Expected the loaded page on refresh, got %d", w.Code)
	}
}

func TestPlayVideo(t *testing.T) {
	e := setupEnv(t, nil)
	rec := videoRecord()
	if err := e.contentRepo.Create(context.Background(), rec); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	w := e.get(t, "/content/2/play")
	if w.Code != http.StatusFound || w.Header().Get("Location") != rec.VideoURL {
		t.Errorf("Expected a redirect to the video, got %d %q", w.Code, w.Header().Get("Location"))
	}

	if w := e.get(t, "/content/missing/play"); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for a missing video, got %d", w.Code)
	}
}

func TestMedia(t *testing.T) {
	e := setupEnv(t, nil)
	att, err := e.attachments.Upload(context.Background(), "cover.png", pngBytes)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	w := e.get(t, "/media/"+att.ID)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" || !bytes.Equal(w.Body.Bytes(), pngBytes) {
		t.Errorf("Unexpected media response %d %q", w.Code, w.Header().Get("Content-Type"))
	}
}

func articleValues() url.Values {
	return url.Values{
		"type":            {"Article"},
		"title":           {"The Future of AI in Web Development"},
		"content":         {"<p>AI is changing things.</p>"},
		"category":        {"Technology"},
		"publish_date":    {time.Now().Format("2006-01-02")},
		"tags":            {"a, b ,c"},
		"section_id":      {"s1", "s2"},
		"section_title":   {"First", "Second"},
		"section_content": {"one", "two"},
	}
}

func TestEditorPage(t *testing.T) {
	e := setupEnv(t, nil)

	w := e.get(t, "/editor")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`name="type" value="Article"`,
		`name="section_id"`,
		`value="` + time.Now().Format("2006-01-02") + `"`,
		"Web Development",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Editor missing %q", want)
		}
	}
}

func TestEditorActions(t *testing.T) {
	e := setupEnv(t, nil)

	t.Run("switch tab keeps values", func(t *testing.T) {
		values := articleValues()
		values.Set("action", "tab:Video")
		body := e.postForm(t, values).Body.String()
		if !strings.Contains(body, `name="type" value="Video"`) || !strings.Contains(body, `name="video_url"`) {
			t.Error("Expected the video tab")
		}
		if !strings.Contains(body, "The Future of AI in Web Development") || !strings.Contains(body, `value="a, b, c"`) {
			t.Error("Expected shared values to survive the tab switch")
		}
	})

	t.Run("add section", func(t *testing.T) {
		values := articleValues()
		values.Set("action", "add_section")
		body := e.postForm(t, values).Body.String()
		if got := strings.Count(body, `name="section_id"`); got != 3 {
			t.Errorf("Expected 3 sections, got %d", got)
		}
	})

	t.Run("remove section by id", func(t *testing.T) {
		values := articleValues()
		values.Set("action", "remove_section:s1")
		body := e.postForm(t, values).Body.String()
		if strings.Contains(body, `value="s1"`) || !strings.Contains(body, `value="s2"`) || !strings.Contains(body, `value="Second"`) {
			t.Error("Expected only the first section to be removed")
		}
	})
}

func TestEditorSubmit(t *testing.T) {
	e := setupEnv(t, nil)

	values := articleValues()
	values.Set("action", "submit")
	w := e.postForm(t, values)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "Your content has been successfully submitted.") {
		t.Error("Expected the success notice")
	}
	if strings.Contains(body, "The Future of AI in Web Development") {
		t.Error("Expected the form to be reset")
	}

	items, total, err := e.contentRepo.List(context.Background(), &domain.ContentQuery{Page: 1, Limit: 10})
	if err != nil || total != 1 {
		t.Fatalf("Expected one stored record, got %d (%v)", total, err)
	}
	if got := items[0].Tags; len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("Unexpected tags %v", got)
	}
}

func TestEditorSubmitInvalidKeepsValues(t *testing.T) {
	e := setupEnv(t, nil)

	values := articleValues()
	values.Set("tags", " , ")
	values.Set("action", "submit")
	w := e.postForm(t, values)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "At least one tag is required") {
		t.Error("Expected the tags error")
	}
	if !strings.Contains(body, "The Future of AI in Web Development") {
		t.Error("Expected values to be kept")
	}
}

func TestEditorCoverUpload(t *testing.T) {
	e := setupEnv(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, vals := range articleValues() {
		for _, v := range vals {
			mw.WriteField(key, v)
		}
	}
	mw.WriteField("action", "add_section")
	fw, _ := mw.CreateFormFile("cover_image", "cover.png")
	fw.Write(pngBytes)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/editor", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, `src="data:image/png;base64,`) || strings.Contains(body, "ZgotmplZ") {
		t.Fatal("Expected the cover preview")
	}
	if !strings.Contains(body, `name="cover_id"`) {
		t.Fatal("Expected the cover reference to be carried")
	}

	// removing the cover drops the preview and the upload
	start := strings.Index(body, `name="cover_id" value="`) + len(`name="cover_id" value="`)
	coverID := body[start : start+strings.Index(body[start:], `"`)]

	values := articleValues()
	values.Set("cover_id", coverID)
	values.Set("action", "remove_cover")
	body = e.postForm(t, values).Body.String()
	if strings.Contains(body, "data:image/png;base64,") || strings.Contains(body, `name="cover_id"`) {
		t.Error("Expected the cover to be removed")
	}
	if _, err := e.attachments.Get(context.Background(), coverID); err == nil {
		t.Error("Expected the removed upload to be deleted")
	}
}

func TestEditorExpiredCover(t *testing.T) {
	e := setupEnv(t, nil)

	values := articleValues()
	values.Set("cover_id", "expired")
	values.Set("action", "submit")
	w := e.postForm(t, values)
	if w.Code != http.StatusUnprocessableEntity || !strings.Contains(w.Body.String(), "expired") {
		t.Errorf("Expected the expired cover error, got %d", w.Code)
	}
}

var (
	inputRe    = regexp.MustCompile(`<input[^>]*\bname="([^"]+)"[^>]*\bvalue="([^"]*)"`)
	textareaRe = regexp.MustCompile(`<textarea name="([^"]+)"[^>]*>([^<]*)</textarea>`)
	selectedRe = regexp.MustCompile(`<option value="([^"]*)" selected>`)
)

// formValues collects what a browser would post back from a rendered editor
func formValues(body string) url.Values {
	values := url.Values{}
	for _, m := range inputRe.FindAllStringSubmatch(body, -1) {
		values.Add(m[1], html.UnescapeString(m[2]))
	}
	for _, m := range textareaRe.FindAllStringSubmatch(body, -1) {
		values.Add(m[1], html.UnescapeString(m[2]))
	}
	if m := selectedRe.FindStringSubmatch(body); m != nil {
		values.Set("category", html.UnescapeString(m[1]))
	}
	return values
}

func TestEditorTabRoundTrip(t *testing.T) {
	e := setupEnv(t, nil)

	t.Run("article sections survive the video tab", func(t *testing.T) {
		values := articleValues()
		values.Set("section_image_id_s1", "img-1")
		values.Set("action", "tab:Video")
		body := e.postForm(t, values).Body.String()
		if !strings.Contains(body, `name="video_url"`) {
			t.Fatal("Expected the video tab")
		}

		values = formValues(body)
		values.Set("action", "tab:Article")
		body = e.postForm(t, values).Body.String()

		if got := values["section_id"]; len(got) != 2 || got[0] != "s1" || got[1] != "s2" {
			t.Fatalf("Expected hidden sections on the video tab, got %v", got)
		}
		for _, want := range []string{
			`name="section_id" value="s1"`,
			`name="section_id" value="s2"`,
			`name="section_title" value="First"`,
			`name="section_title" value="Second"`,
			`name="section_image_id_s1" value="img-1"`,
			">two</textarea>",
		} {
			if !strings.Contains(body, want) {
				t.Errorf("Article tab missing %q", want)
			}
		}
	})

	t.Run("video fields survive the article tab", func(t *testing.T) {
		values := articleValues()
		values.Set("type", "Video")
		values.Set("video_url", "https://example.com/video.mp4")
		values.Set("duration", "15:30")
		values.Set("transcript", "Welcome back")
		values.Set("action", "tab:Article")
		body := e.postForm(t, values).Body.String()
		if !strings.Contains(body, `name="section_title"`) {
			t.Fatal("Expected the article tab")
		}

		values = formValues(body)
		values.Set("action", "tab:Video")
		body = e.postForm(t, values).Body.String()

		for _, want := range []string{
			`name="type" value="Video"`,
			`name="video_url" value="https://example.com/video.mp4"`,
			`name="duration" value="15:30"`,
			">Welcome back</textarea>",
			"The Future of AI in Web Development",
		} {
			if !strings.Contains(body, want) {
				t.Errorf("Video tab missing %q", want)
			}
		}
	})
}

func TestEditorExpiredSectionImage(t *testing.T) {
	e := setupEnv(t, nil)

	values := articleValues()
	values.Set("section_image_id_s1", "expired")
	values.Set("action", "submit")
	w := e.postForm(t, values)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "The selected image has expired") {
		t.Error("Expected the section image error")
	}
	if strings.Contains(body, "There was an error submitting your content") {
		t.Error("A rejected field is not a failed submission")
	}
	if !strings.Contains(body, `value="First"`) {
		t.Error("Expected values to be kept")
	}
}

func TestPreviewURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"data:image/png;base64,iVBORw0KGgo=", "data:image/png;base64,iVBORw0KGgo="},
		{"data:text/html;base64,PHNjcmlwdD4=", ""},
		{"javascript:alert(1)", ""},
		{"data:image/png;base64,not base64!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := string(previewURL(tt.in)); got != tt.want {
			t.Errorf("previewURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
