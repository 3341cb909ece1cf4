package web

import (
	"embed"
	"encoding/base64"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/contentdesk/internal/auth"
	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/editor"
	"github.com/amiyamandal-dev/contentdesk/internal/metrics"
	"github.com/amiyamandal-dev/contentdesk/internal/service"
	"github.com/amiyamandal-dev/contentdesk/internal/viewer"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

//go:embed templates
var templateFS embed.FS

// FormValidator validates drafts and knows the selectable categories
type FormValidator interface {
	editor.DraftValidator
	Categories() []string
}

// Deps are the collaborators of the web UI
type Deps struct {
	Loader        viewer.Loader
	Observer      viewer.Observer
	Renderer      viewer.Renderer
	SearchService *service.SearchService
	Validator     FormValidator
	Submitter     editor.Submitter
	Attachments   *service.AttachmentService
	Previewer     editor.Previewer
	Metrics       *metrics.Metrics
	JWTManager    *auth.JWTManager // nil when auth is disabled
}

// Timing controls how long the detail page waits before showing the skeleton
type Timing struct {
	FetchTimeout     time.Duration
	PlaceholderAfter time.Duration
}

// WebHandler handles web UI requests
type WebHandler struct {
	deps      Deps
	timing    Timing
	now       func() time.Time
	logger    *logger.Logger
	templates map[string]*template.Template
}

// NewWebHandler creates a new web handler
func NewWebHandler(deps Deps, timing Timing, log *logger.Logger) *WebHandler {
	funcMap := template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("January 2, 2006")
		},
		"dateInput": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"count":      viewer.FormatCount,
		"add":        func(a, b int) int { return a + b },
		"previewURL": previewURL,
	}

	// Create template map - parse each page with base layout
	templates := make(map[string]*template.Template)

	baseLayout := "templates/layouts/base.html"
	pages := map[string]string{
		"home":      "templates/pages/home.html",
		"content":   "templates/pages/content.html",
		"skeleton":  "templates/pages/skeleton.html",
		"not_found": "templates/pages/not_found.html",
		"editor":    "templates/pages/editor.html",
		"login":     "templates/pages/login.html",
	}

	for name, pagePath := range pages {
		tmpl := template.Must(
			template.New(name).Funcs(funcMap).ParseFS(templateFS, baseLayout, pagePath),
		)
		templates[name] = tmpl
	}

	return &WebHandler{
		deps:      deps,
		timing:    timing,
		now:       time.Now,
		logger:    log.WithComponent("web-handler"),
		templates: templates,
	}
}

func (h *WebHandler) render(c *gin.Context, code int, page string, data gin.H) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(code)
	if err := h.templates[page].ExecuteTemplate(c.Writer, "base.html", data); err != nil {
		h.logger.Error("Template error", "page", page, "error", err)
		c.String(http.StatusInternalServerError, "Template error")
	}
}

func (h *WebHandler) notFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "not_found", gin.H{
		"Title":   "Not found",
		"Heading": "Content not found",
		"Message": "The content you're looking for doesn't exist or has been removed.",
	})
}

// HomePage renders the latest content, optionally filtered
func (h *WebHandler) HomePage(c *gin.Context) {
	q := &domain.ContentQuery{
		Text:  c.Query("q"),
		Page:  1,
		Limit: 10,
	}
	if t := domain.ContentType(c.Query("type")); t.Valid() {
		q.Type = t
	}
	if page, ok := positiveInt(c.Query("page")); ok {
		q.Page = page
	}

	data := gin.H{
		"Title":      "Home",
		"Query":      q.Text,
		"Type":       string(q.Type),
		"Items":      []*domain.ContentRecord{},
		"Page":       q.Page,
		"TotalPages": 0,
	}

	res, err := h.deps.SearchService.Search(c.Request.Context(), q)
	if err != nil {
		h.logger.Error("Failed to list content", "error", err)
	} else {
		data["Items"] = res.Items
		data["TotalPages"] = res.TotalPages
	}

	h.render(c, http.StatusOK, "home", data)
}

func positiveInt(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	return n, err == nil && n > 0
}

// previewURL lets a base64 image data URL through the template escaper.
// Anything else renders as an empty src.
func previewURL(s string) template.URL {
	meta, data, ok := strings.Cut(s, ";base64,")
	if !ok || !strings.HasPrefix(meta, "data:image/") || strings.ContainsAny(meta, "\"'<> ") {
		return ""
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return ""
	}
	return template.URL(s)
}
