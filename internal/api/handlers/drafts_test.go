package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/metrics"
)

func TestDraftRequestToDraft(t *testing.T) {
	req := DraftRequest{
		Title:        "Hello",
		Type:         "Video",
		PublishDate:  "2026-10-20",
		Tags:         " a, ,b ",
		CoverImageID: "cover-1",
		Sections:     []SectionRequest{{Title: "One", ImageID: "img-1"}, {ID: "keep", Title: "Two"}},
		VideoURL:     "https://example.com/v",
	}

	d, errs := req.ToDraft(time.UTC)
	if len(errs) != 0 {
		t.Fatalf("Unexpected parse errors: %v", errs)
	}
	if d.Type != domain.TypeVideo {
		t.Errorf("Expected Video, got %s", d.Type)
	}
	if len(d.Tags) != 2 || d.Tags[0] != "a" || d.Tags[1] != "b" {
		t.Errorf("Unexpected tags %v", d.Tags)
	}
	if d.CoverImage == nil || d.CoverImage.ID != "cover-1" {
		t.Errorf("Cover reference lost: %+v", d.CoverImage)
	}
	if d.Sections[0].ID == "" || d.Sections[0].Image == nil || d.Sections[1].ID != "keep" {
		t.Errorf("Unexpected sections %+v", d.Sections)
	}

	bad := DraftRequest{Type: "Podcast", PublishDate: "tomorrow"}
	_, errs = bad.ToDraft(time.UTC)
	if errs["type"] == "" || errs["publish_date"] != "Invalid date" {
		t.Errorf("Expected type and date errors, got %v", errs)
	}
}

func TestValidateDraftEndpoint(t *testing.T) {
	e := setupEnv(t)

	w := e.postJSON(t, "/drafts/validate", validRequest())
	var data struct {
		Valid  bool              `json:"valid"`
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(decode(t, w).Data, &data); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if !data.Valid || len(data.Errors) != 0 {
		t.Errorf("Expected a valid draft, got %+v", data)
	}

	req := validRequest()
	req.Tags = " , "
	req.PublishDate = "1899-12-31"
	w = e.postJSON(t, "/drafts/validate", req)
	if err := json.Unmarshal(decode(t, w).Data, &data); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if data.Valid || data.Errors["tags"] != "At least one tag is required" || data.Errors["publish_date"] == "" {
		t.Errorf("Unexpected validation result %+v", data)
	}

	bad := httptest.NewRequest(http.MethodPost, "/drafts/validate", strings.NewReader("{"))
	bad.Header.Set("Content-Type", "application/json")
	if w := e.do(t, bad); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a malformed body, got %d", w.Code)
	}
}

func TestSubmitDraft(t *testing.T) {
	e := setupEnv(t)

	w := e.postJSON(t, "/content", validRequest())
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var rec domain.ContentRecord
	if err := json.Unmarshal(decode(t, w).Data, &rec); err != nil {
		t.Fatalf("Failed to decode record: %v", err)
	}
	if rec.ID == "" || rec.Type != domain.TypeArticle || rec.Author.DisplayName != "Content Desk" {
		t.Errorf("Unexpected record %+v", rec)
	}
	if !strings.Contains(rec.Body, "<h2>Intro</h2>") {
		t.Errorf("Section missing from body: %s", rec.Body)
	}
	if w.Header().Get("Location") != "/api/v1/content/"+rec.ID {
		t.Errorf("Unexpected Location %q", w.Header().Get("Location"))
	}

	got := testutil.ToFloat64(e.metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeSuccess, "Article"))
	if got != 1 {
		t.Errorf("Expected one successful submission recorded, got %v", got)
	}
}

func TestSubmitDraftRejected(t *testing.T) {
	e := setupEnv(t)

	tests := []struct {
		name   string
		mutate func(r *DraftRequest)
		field  string
	}{
		{name: "no tags", mutate: func(r *DraftRequest) { r.Tags = "" }, field: "tags"},
		{name: "past date", mutate: func(r *DraftRequest) { r.PublishDate = "2000-01-01" }, field: "publish_date"},
		{name: "bad video url", mutate: func(r *DraftRequest) { r.Type = "Video"; r.VideoURL = "not-a-url" }, field: "video_url"},
		{name: "expired cover", mutate: func(r *DraftRequest) { r.CoverImageID = "gone" }, field: "cover_image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			w := e.postJSON(t, "/content", req)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("Expected 422, got %d: %s", w.Code, w.Body.String())
			}
			if env := decode(t, w); env.Fields[tt.field] == "" {
				t.Errorf("Expected an error for %s, got %v", tt.field, env.Fields)
			}
		})
	}
}

func TestSubmitDraftStoreFailure(t *testing.T) {
	e := setupEnv(t)
	e.db.Close()

	w := e.postJSON(t, "/content", validRequest())
	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d: %s", w.Code, w.Body.String())
	}
}
