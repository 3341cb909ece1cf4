package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amiyamandal-dev/contentdesk/internal/auth"
	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/repository"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

// DraftValidator checks a draft before it is published
type DraftValidator interface {
	ValidateDraft(d *domain.ContentDraft) domain.FieldErrors
}

// Renderer sanitises markup and estimates read time
type Renderer interface {
	Body(raw string) template.HTML
	ReadTime(raw string) string
}

// SearchIndexer defines the interface for search indexing
type SearchIndexer interface {
	IndexContent(ctx context.Context, rec *domain.ContentRecord) error
}

// IngestService turns submitted drafts into published records. It is the
// submission collaborator of the authoring form.
type IngestService struct {
	contentRepo    repository.ContentRepository
	attachmentRepo repository.AttachmentRepository
	validator      DraftValidator
	renderer       Renderer
	indexer        SearchIndexer
	defaultAuthor  domain.Author
	now            func() time.Time
	logger         *logger.Logger
}

// NewIngestService creates a new ingest service. defaultAuthor is used when
// the request carries no authenticated author.
func NewIngestService(
	contentRepo repository.ContentRepository,
	attachmentRepo repository.AttachmentRepository,
	validator DraftValidator,
	renderer Renderer,
	indexer SearchIndexer,
	defaultAuthor domain.Author,
	logger *logger.Logger,
) *IngestService {
	return &IngestService{
		contentRepo:    contentRepo,
		attachmentRepo: attachmentRepo,
		validator:      validator,
		renderer:       renderer,
		indexer:        indexer,
		defaultAuthor:  defaultAuthor,
		now:            time.Now,
		logger:         logger.WithComponent("ingest-service"),
	}
}

// Submit publishes a draft. Invalid drafts return domain.FieldErrors;
// storage problems return an error wrapping domain.ErrSubmissionFailed.
// Referenced uploads are only promoted once the record is stored, so a
// failed submission leaves them expiring.
func (s *IngestService) Submit(ctx context.Context, d *domain.ContentDraft) (*domain.ContentRecord, error) {
	if errs := s.validator.ValidateDraft(d); len(errs) > 0 {
		return nil, errs
	}

	author := s.defaultAuthor
	if a, ok := auth.AuthorFrom(ctx); ok {
		author = a
	}

	rec := &domain.ContentRecord{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(d.Title),
		PublishedDate: d.PublishDate,
		Category:      d.Category,
		Type:          d.Type,
		Tags:          append([]string(nil), d.Tags...),
		Author:        author,
		CreatedAt:     s.now(),
	}
	log := s.logger.WithFields("content_id", rec.ID, "type", rec.Type)

	var uploads []string
	if d.CoverImage != nil {
		att, err := s.resolve(ctx, d.CoverImage.ID, "cover_image")
		if err != nil {
			return nil, err
		}
		rec.HeroImageURL = att.MediaURL()
		uploads = append(uploads, att.ID)
	}

	switch d.Type {
	case domain.TypeVideo:
		rec.Body = string(s.renderer.Body(d.Body))
		rec.VideoURL = strings.TrimSpace(d.VideoURL)
		rec.Duration = strings.TrimSpace(d.Duration)
		rec.Transcript = d.Transcript
	default:
		body, images, err := s.composeArticle(ctx, d)
		if err != nil {
			return nil, err
		}
		rec.Body = body
		rec.Duration = s.renderer.ReadTime(body)
		uploads = append(uploads, images...)
	}

	if err := s.contentRepo.Create(ctx, rec); err != nil {
		log.WithError(err).Error("Failed to store content", "title", rec.Title)
		return nil, fmt.Errorf("%w: %w", domain.ErrSubmissionFailed, err)
	}

	for _, id := range uploads {
		if _, err := s.attachmentRepo.Promote(ctx, id); err != nil {
			// the record is stored; the image expired between lookup and promotion
			log.WithError(err).Error("Failed to promote attachment", "attachment_id", id)
		}
	}

	if s.indexer != nil {
		if err := s.indexer.IndexContent(ctx, rec); err != nil {
			// the record is stored; a reindex picks it up later
			log.WithError(err).Warn("Failed to index content")
		}
	}

	log.Info("Content published", "author", rec.Author.DisplayName)

	return rec, nil
}

// composeArticle renders the body followed by each non-empty section. It
// returns the uploads the sections reference.
func (s *IngestService) composeArticle(ctx context.Context, d *domain.ContentDraft) (string, []string, error) {
	var b strings.Builder
	var images []string
	b.WriteString(string(s.renderer.Body(d.Body)))

	for i, sec := range d.Sections {
		if strings.TrimSpace(sec.Title) == "" && strings.TrimSpace(sec.Body) == "" && sec.Image == nil {
			continue
		}

		b.WriteString("\n<section>")
		if title := strings.TrimSpace(sec.Title); title != "" {
			b.WriteString("<h2>")
			b.WriteString(html.EscapeString(title))
			b.WriteString("</h2>")
		}
		if sec.Body != "" {
			b.WriteString(string(s.renderer.Body(sec.Body)))
		}
		if sec.Image != nil {
			att, err := s.resolve(ctx, sec.Image.ID, fmt.Sprintf("sections.%d.image", i))
			if err != nil {
				return "", nil, err
			}
			images = append(images, att.ID)
			fmt.Fprintf(&b, `<img src="%s" alt="%s">`, html.EscapeString(att.MediaURL()), html.EscapeString(sec.Title))
		}
		b.WriteString("</section>")
	}

	return b.String(), images, nil
}

// resolve looks up a referenced upload. An expired upload is reported
// against the form field that referenced it.
func (s *IngestService) resolve(ctx context.Context, id, field string) (*domain.Attachment, error) {
	att, err := s.attachmentRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAttachmentNotFound) {
			errs := domain.FieldErrors{}
			errs.Add(field, "The selected image has expired, please select it again")
			return nil, errs
		}
		s.logger.WithError(err).Error("Failed to load attachment", "attachment_id", id)
		return nil, fmt.Errorf("%w: %w", domain.ErrSubmissionFailed, err)
	}
	return att, nil
}
