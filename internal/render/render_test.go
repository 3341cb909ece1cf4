package render

import (
	"strings"
	"testing"
)

func TestBodyStripsScripts(t *testing.T) {
	r := New()

	got := string(r.Body(`<p onclick="x()">Hello <script>alert(1)</script><strong>world</strong></p>`))
	if strings.Contains(got, "script") || strings.Contains(got, "onclick") {
		t.Errorf("Expected script and handlers to be removed, got %q", got)
	}
	if !strings.Contains(got, "<strong>world</strong>") {
		t.Errorf("Expected formatting to survive, got %q", got)
	}
}

func TestBodyKeepsLinksSafe(t *testing.T) {
	r := New()

	got := string(r.Body(`<a href="javascript:alert(1)">bad</a><a href="https://example.com">ok</a>`))
	if strings.Contains(got, "javascript:") {
		t.Errorf("Expected javascript url to be dropped, got %q", got)
	}
	if !strings.Contains(got, `href="https://example.com"`) || !strings.Contains(got, "nofollow") {
		t.Errorf("Expected external link with nofollow, got %q", got)
	}
}

func TestMarkdown(t *testing.T) {
	r := New()

	got, err := r.Markdown("## Intro\n\nSome *text*.\n\n<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("Markdown failed: %v", err)
	}
	s := string(got)
	if !strings.Contains(s, "<h2") || !strings.Contains(s, "<em>text</em>") {
		t.Errorf("Expected rendered markdown, got %q", s)
	}
	if strings.Contains(s, "<script>") {
		t.Errorf("Expected script to be sanitised, got %q", s)
	}
}

func TestReadTime(t *testing.T) {
	r := New()

	tests := []struct {
		words int
		want  string
	}{
		{0, "1 min read"},
		{1, "1 min read"},
		{200, "1 min read"},
		{201, "2 min read"},
		{1000, "5 min read"},
	}
	for _, tt := range tests {
		body := "<p>" + strings.TrimSpace(strings.Repeat("word ", tt.words)) + "</p>"
		if got := r.ReadTime(body); got != tt.want {
			t.Errorf("ReadTime(%d words) = %q, want %q", tt.words, got, tt.want)
		}
	}
}

func TestPlainTextAndExcerpt(t *testing.T) {
	r := New()

	if got := r.PlainText("<h1>Title</h1>\n<p>one   two</p>"); got != "Title one two" {
		t.Errorf("PlainText = %q", got)
	}
	if got := r.Excerpt("<p>alpha beta gamma</p>", 12); got != "alpha beta…" {
		t.Errorf("Excerpt = %q", got)
	}
	if got := r.Excerpt("<p>short</p>", 12); got != "short" {
		t.Errorf("Excerpt = %q", got)
	}
}
