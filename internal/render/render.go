package render

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// WordsPerMinute is the reading speed used for read time estimates
const WordsPerMinute = 200

// Renderer turns stored markup into HTML that is safe to drop into a page
type Renderer struct {
	ugc    *bluemonday.Policy
	strict *bluemonday.Policy
	md     goldmark.Markdown
}

// New creates a renderer
func New() *Renderer {
	ugc := bluemonday.UGCPolicy()
	ugc.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("pre", "code", "span")
	ugc.RequireNoFollowOnLinks(true)
	ugc.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{
		ugc:    ugc,
		strict: bluemonday.StrictPolicy(),
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			// raw HTML passes through goldmark and is cleaned by the UGC policy
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Body sanitises user supplied HTML
func (r *Renderer) Body(raw string) template.HTML {
	return template.HTML(r.ugc.Sanitize(raw))
}

// Markdown converts markdown to sanitised HTML
func (r *Renderer) Markdown(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(r.ugc.SanitizeBytes(buf.Bytes())), nil
}

// PlainText strips all markup and collapses whitespace
func (r *Renderer) PlainText(raw string) string {
	return strings.Join(strings.Fields(r.strict.Sanitize(raw)), " ")
}

// WordCount counts the words of the visible text
func (r *Renderer) WordCount(raw string) int {
	return len(strings.Fields(r.strict.Sanitize(raw)))
}

// ReadTime estimates how long raw takes to read, e.g. "4 min read"
func (r *Renderer) ReadTime(raw string) string {
	minutes := int(math.Ceil(float64(r.WordCount(raw)) / WordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

// Excerpt returns at most n runes of plain text, cut on a word boundary
func (r *Renderer) Excerpt(raw string, n int) string {
	text := r.PlainText(raw)
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
