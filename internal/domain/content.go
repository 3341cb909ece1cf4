package domain

import (
	"strings"
	"time"
)

// ContentType is the kind of a published content record
type ContentType string

const (
	TypeArticle    ContentType = "Article"
	TypeVideo      ContentType = "Video"
	TypeProject    ContentType = "Project"
	TypeRepository ContentType = "Repository"
)

// Valid reports whether t is one of the known content types
func (t ContentType) Valid() bool {
	switch t {
	case TypeArticle, TypeVideo, TypeProject, TypeRepository:
		return true
	}
	return false
}

// Authorable reports whether the authoring form can produce records of type t
func (t ContentType) Authorable() bool {
	return t == TypeArticle || t == TypeVideo
}

func (t ContentType) IsVideo() bool { return t == TypeVideo }

// TimeLabel names what ContentRecord.Duration means for this type
func (t ContentType) TimeLabel() string {
	if t.IsVideo() {
		return "Duration"
	}
	return "Read time"
}

// Author identifies who wrote a piece of content
type Author struct {
	DisplayName string `json:"display_name" yaml:"display_name"`
	AvatarURL   string `json:"avatar_url" yaml:"avatar_url"`
	Bio         string `json:"bio" yaml:"bio"`
}

// Initials returns up to two uppercase initials for avatar fallbacks
func (a Author) Initials() string {
	var out []rune
	start := true
	for _, r := range a.DisplayName {
		if r == ' ' {
			start = true
			continue
		}
		if start {
			out = append(out, r)
			start = false
			if len(out) == 2 {
				break
			}
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return strings.ToUpper(string(out))
}

// Counters are engagement counts. They are displayed, never mutated, by the viewer.
type Counters struct {
	Views     int64 `json:"views" yaml:"views"`
	Likes     int64 `json:"likes" yaml:"likes"`
	Bookmarks int64 `json:"bookmarks" yaml:"bookmarks"`
}

// ContentRecord is the read model of a published article or video
type ContentRecord struct {
	ID            string      `json:"id" yaml:"id"`
	Title         string      `json:"title" yaml:"title"`
	Body          string      `json:"body" yaml:"body"`
	PublishedDate time.Time   `json:"published_date" yaml:"published_date"`
	Duration      string      `json:"duration" yaml:"duration"` // read time for articles, running time for videos
	HeroImageURL  string      `json:"hero_image_url" yaml:"hero_image_url"`
	VideoURL      string      `json:"video_url,omitempty" yaml:"video_url,omitempty"`
	Category      string      `json:"category" yaml:"category"`
	Type          ContentType `json:"type" yaml:"type"`
	Tags          []string    `json:"tags,omitempty" yaml:"tags,omitempty"`
	Transcript    string      `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	Counters      Counters    `json:"counters" yaml:"counters"`
	Author        Author      `json:"author" yaml:"author"`
	CreatedAt     time.Time   `json:"created_at" yaml:"created_at"`
}

// Validate checks the record invariants
func (c *ContentRecord) Validate() error {
	if c.ID == "" || c.Title == "" {
		return ErrInvalidContent
	}
	if !c.Type.Valid() {
		return ErrInvalidContent
	}
	if c.Counters.Views < 0 || c.Counters.Likes < 0 || c.Counters.Bookmarks < 0 {
		return ErrInvalidContent
	}
	return nil
}

// ContentQuery filters and pages content searches
type ContentQuery struct {
	Text     string
	Category string
	Type     ContentType
	Tags     []string
	Page     int
	Limit    int
}
