package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EpochFloor is the earliest publish date the authoring form accepts
var EpochFloor = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// SectionID identifies a section independently of its position
type SectionID string

// Section is an Article-only sub-block of the draft
type Section struct {
	ID    SectionID `json:"id"`
	Title string    `json:"title"`
	Body  string    `json:"body"`
	Image *FileRef  `json:"image,omitempty"`
}

// Sections is the ordered section list of an article draft. Sections are
// addressed by ID so removing one never disturbs the others.
type Sections []Section

// NewSectionID returns a fresh section id
func NewSectionID() SectionID {
	return SectionID(uuid.NewString())
}

func newSection() Section {
	return Section{ID: NewSectionID()}
}

// Append adds a blank section at the end and returns its ID
func (s *Sections) Append() SectionID {
	sec := newSection()
	*s = append(*s, sec)
	return sec.ID
}

// Index returns the position of id, or -1
func (s Sections) Index(id SectionID) int {
	for i := range s {
		if s[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns a copy of the section with the given id
func (s Sections) Get(id SectionID) (Section, bool) {
	if i := s.Index(id); i >= 0 {
		return s[i], true
	}
	return Section{}, false
}

// Remove deletes the section with the given id, keeping the order of the rest
func (s *Sections) Remove(id SectionID) error {
	i := s.Index(id)
	if i < 0 {
		return ErrSectionNotFound
	}
	return s.RemoveAt(i)
}

// RemoveAt deletes the section at position i
func (s *Sections) RemoveAt(i int) error {
	cur := *s
	if i < 0 || i >= len(cur) {
		return ErrSectionNotFound
	}
	out := make(Sections, 0, len(cur)-1)
	out = append(out, cur[:i]...)
	out = append(out, cur[i+1:]...)
	*s = out
	return nil
}

// Update applies fn to the section with the given id. fn cannot change the id.
func (s Sections) Update(id SectionID, fn func(*Section)) error {
	i := s.Index(id)
	if i < 0 {
		return ErrSectionNotFound
	}
	fn(&s[i])
	s[i].ID = id
	return nil
}

func (s Sections) IDs() []SectionID {
	ids := make([]SectionID, len(s))
	for i := range s {
		ids[i] = s[i].ID
	}
	return ids
}

func (s Sections) clone() Sections {
	if s == nil {
		return nil
	}
	out := make(Sections, len(s))
	for i, sec := range s {
		if sec.Image != nil {
			img := *sec.Image
			sec.Image = &img
		}
		out[i] = sec
	}
	return out
}

// ContentDraft is the write model edited by the authoring form. Article-only
// and Video-only fields both live here; Type selects which group counts.
type ContentDraft struct {
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	Category    string      `json:"category"`
	Type        ContentType `json:"type"`
	CoverImage  *FileRef    `json:"cover_image,omitempty"`
	PublishDate time.Time   `json:"publish_date"`
	Tags        []string    `json:"tags"`

	// Article only
	Sections Sections `json:"sections,omitempty"`

	// Video only
	VideoURL   string `json:"video_url,omitempty"`
	Duration   string `json:"duration,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// NewDraft returns the empty form default: Article mode, today's date and a
// single blank section
func NewDraft(now time.Time) *ContentDraft {
	d := &ContentDraft{
		Type:        TypeArticle,
		PublishDate: StartOfDay(now),
		Tags:        []string{},
	}
	d.Sections.Append()
	return d
}

// Clone returns a deep copy
func (d *ContentDraft) Clone() *ContentDraft {
	out := *d
	if d.CoverImage != nil {
		img := *d.CoverImage
		out.CoverImage = &img
	}
	out.Tags = append([]string(nil), d.Tags...)
	out.Sections = d.Sections.clone()
	return &out
}

// Payload returns the copy sent for submission: the field group of the
// inactive mode is cleared so exactly one group is populated.
func (d *ContentDraft) Payload() *ContentDraft {
	out := d.Clone()
	switch out.Type {
	case TypeVideo:
		out.Sections = nil
	default:
		out.VideoURL = ""
		out.Duration = ""
		out.Transcript = ""
	}
	return out
}

// SetTagsInput replaces the tags with the parsed comma-delimited input
func (d *ContentDraft) SetTagsInput(raw string) {
	d.Tags = ParseTags(raw)
}

// TagsInput renders the tags back into the comma-delimited form value
func (d *ContentDraft) TagsInput() string {
	return strings.Join(d.Tags, ", ")
}

// ParseTags splits a comma-delimited string into trimmed, non-empty tags,
// keeping their order
func ParseTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParsePublishDate accepts a calendar date (YYYY-MM-DD) in loc, or an
// RFC3339 timestamp
func ParsePublishDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
