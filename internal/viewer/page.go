package viewer

import (
	"html/template"

	"github.com/dustin/go-humanize"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
)

// Renderer turns stored markup into safe HTML
type Renderer interface {
	Body(raw string) template.HTML
	Markdown(md string) (template.HTML, error)
	ReadTime(raw string) string
}

// MediaHeader is the top of a detail page. Articles get a static image and
// videos get a playable frame; everything below the header is shared.
type MediaHeader interface {
	Kind() string
}

// StaticImage is the hero image of an article
type StaticImage struct {
	URL string
	Alt string
}

func (StaticImage) Kind() string { return "image" }

// VideoFrame is a fixed aspect-ratio poster with a centered play control.
// PlayURL is the activation hook; it redirects to the video when one is set.
type VideoFrame struct {
	PosterURL string
	PlayURL   string
	VideoURL  string
	Title     string
	Ratio     string
}

func (VideoFrame) Kind() string { return "video" }

// Playable reports whether the play control leads anywhere
func (f VideoFrame) Playable() bool { return f.VideoURL != "" }

// VideoAspectRatio is the frame ratio of the video header
const VideoAspectRatio = "16:9"

// PlayPath is the play hook of the video with the given id
func PlayPath(id string) string {
	return "/content/" + id + "/play"
}

// Badge is a pill shown above the title
type Badge struct {
	Kind  string
	Label string
}

// AuthorBlock is the byline
type AuthorBlock struct {
	Name      string
	AvatarURL string
	Initials  string
	Bio       string
}

// MetaItem is one entry of the metadata row
type MetaItem struct {
	Label string
	Value string
}

// Action is an engagement control. Actions are displayed with their counts
// and do nothing when pressed.
type Action struct {
	Name     string
	Label    string
	Count    int64
	HasCount bool
}

// Page is everything the detail template needs
type Page struct {
	ID         string
	Title      string
	Type       domain.ContentType
	Media      MediaHeader
	Badges     []Badge
	Author     AuthorBlock
	Meta       []MetaItem
	Body       template.HTML
	Transcript template.HTML
	Tags       []string
	Actions    []Action
}

// IsVideo is a template helper
func (p *Page) IsVideo() bool { return p.Type.IsVideo() }

// BuildPage assembles the detail page of a loaded record
func BuildPage(rec *domain.ContentRecord, r Renderer) (*Page, error) {
	page := &Page{
		ID:    rec.ID,
		Title: rec.Title,
		Type:  rec.Type,
		Media: mediaHeader(rec),
		Badges: []Badge{
			{Kind: "category", Label: rec.Category},
			{Kind: "type", Label: string(rec.Type)},
		},
		Author: AuthorBlock{
			Name:      rec.Author.DisplayName,
			AvatarURL: rec.Author.AvatarURL,
			Initials:  rec.Author.Initials(),
			Bio:       rec.Author.Bio,
		},
		Body: r.Body(rec.Body),
		Tags: rec.Tags,
		Actions: []Action{
			{Name: "like", Label: "Like", Count: rec.Counters.Likes, HasCount: true},
			{Name: "bookmark", Label: "Bookmark", Count: rec.Counters.Bookmarks, HasCount: true},
			{Name: "share", Label: "Share"},
		},
	}
	if rec.Category == "" {
		page.Badges = page.Badges[1:]
	}

	timeValue := rec.Duration
	if timeValue == "" && !rec.Type.IsVideo() {
		timeValue = r.ReadTime(rec.Body)
	}

	if !rec.PublishedDate.IsZero() {
		page.Meta = append(page.Meta, MetaItem{Label: "Published", Value: rec.PublishedDate.Format("January 2, 2006")})
	}
	if timeValue != "" {
		page.Meta = append(page.Meta, MetaItem{Label: rec.Type.TimeLabel(), Value: timeValue})
	}
	page.Meta = append(page.Meta, MetaItem{Label: "Views", Value: FormatCount(rec.Counters.Views)})

	if rec.Transcript != "" {
		transcript, err := r.Markdown(rec.Transcript)
		if err != nil {
			return nil, err
		}
		page.Transcript = transcript
	}

	return page, nil
}

func mediaHeader(rec *domain.ContentRecord) MediaHeader {
	if rec.Type.IsVideo() {
		return VideoFrame{
			PosterURL: rec.HeroImageURL,
			PlayURL:   PlayPath(rec.ID),
			VideoURL:  rec.VideoURL,
			Title:     rec.Title,
			Ratio:     VideoAspectRatio,
		}
	}
	return StaticImage{URL: rec.HeroImageURL, Alt: rec.Title}
}

// FormatCount groups digits by thousands, e.g. 12,345
func FormatCount(n int64) string {
	return humanize.Comma(n)
}
