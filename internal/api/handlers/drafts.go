package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/metrics"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
	"github.com/amiyamandal-dev/contentdesk/pkg/response"
)

// DraftValidator checks a draft and reports failures by field
type DraftValidator interface {
	ValidateDraft(d *domain.ContentDraft) domain.FieldErrors
}

// DraftSubmitter publishes a draft
type DraftSubmitter interface {
	Submit(ctx context.Context, d *domain.ContentDraft) (*domain.ContentRecord, error)
}

// SectionRequest is one article section of a draft request
type SectionRequest struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	ImageID string `json:"image_id"`
}

// DraftRequest is the JSON form of the authoring form. Tags use the same
// comma-delimited text the form field holds; publish_date is YYYY-MM-DD.
type DraftRequest struct {
	Title        string           `json:"title"`
	Content      string           `json:"content"`
	Category     string           `json:"category"`
	Type         string           `json:"type"`
	CoverImageID string           `json:"cover_image_id"`
	PublishDate  string           `json:"publish_date"`
	Tags         string           `json:"tags"`
	Sections     []SectionRequest `json:"sections"`
	VideoURL     string           `json:"video_url"`
	Duration     string           `json:"duration"`
	Transcript   string           `json:"transcript"`
}

// ToDraft converts the request into a draft. Values that cannot be parsed
// are reported as field errors; the rest of the draft is still filled in.
func (r *DraftRequest) ToDraft(loc *time.Location) (*domain.ContentDraft, domain.FieldErrors) {
	errs := domain.FieldErrors{}

	d := &domain.ContentDraft{
		Title:      r.Title,
		Body:       r.Content,
		Category:   r.Category,
		Type:       domain.TypeArticle,
		Tags:       domain.ParseTags(r.Tags),
		VideoURL:   r.VideoURL,
		Duration:   r.Duration,
		Transcript: r.Transcript,
	}

	switch t := domain.ContentType(strings.TrimSpace(r.Type)); {
	case t == "":
	case t.Authorable():
		d.Type = t
	default:
		errs.Add("type", "Type must be Article or Video")
	}

	if r.PublishDate != "" {
		date, err := domain.ParsePublishDate(r.PublishDate, loc)
		if err != nil {
			errs.Add("publish_date", "Invalid date")
		} else {
			d.PublishDate = date
		}
	}

	if id := strings.TrimSpace(r.CoverImageID); id != "" {
		d.CoverImage = &domain.FileRef{ID: id}
	}

	for _, s := range r.Sections {
		sec := domain.Section{
			ID:    domain.SectionID(s.ID),
			Title: s.Title,
			Body:  s.Content,
		}
		if sec.ID == "" {
			sec.ID = domain.NewSectionID()
		}
		if id := strings.TrimSpace(s.ImageID); id != "" {
			sec.Image = &domain.FileRef{ID: id}
		}
		d.Sections = append(d.Sections, sec)
	}

	return d, errs
}

// DraftHandler validates and publishes drafts
type DraftHandler struct {
	validator DraftValidator
	submitter DraftSubmitter
	metrics   *metrics.Metrics
	location  *time.Location
	logger    *logger.Logger
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(
	validator DraftValidator,
	submitter DraftSubmitter,
	m *metrics.Metrics,
	logger *logger.Logger,
) *DraftHandler {
	return &DraftHandler{
		validator: validator,
		submitter: submitter,
		metrics:   m,
		location:  time.Local,
		logger:    logger.WithComponent("draft-handler"),
	}
}

func (h *DraftHandler) bind(c *gin.Context) (*domain.ContentDraft, domain.FieldErrors, bool) {
	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return nil, nil, false
	}

	d, parseErrs := req.ToDraft(h.location)
	errs := h.validator.ValidateDraft(d)
	for field, msg := range parseErrs {
		// a parse failure is more specific than the rule it then breaks
		errs[field] = msg
	}
	return d, errs, true
}

// Validate reports field errors without publishing
func (h *DraftHandler) Validate(c *gin.Context) {
	_, errs, ok := h.bind(c)
	if !ok {
		return
	}

	response.Success(c, gin.H{
		"valid":  len(errs) == 0,
		"errors": errs,
	})
}

// Submit publishes a draft
func (h *DraftHandler) Submit(c *gin.Context) {
	d, errs, ok := h.bind(c)
	if !ok {
		return
	}
	if len(errs) > 0 {
		h.observe(metrics.OutcomeValidationFailed, d.Type)
		response.ValidationFailed(c, errs)
		return
	}

	rec, err := h.submitter.Submit(c.Request.Context(), d.Payload())
	if err != nil {
		var fieldErrs domain.FieldErrors
		switch {
		case errors.As(err, &fieldErrs):
			h.observe(metrics.OutcomeValidationFailed, d.Type)
			response.ValidationFailed(c, fieldErrs)
		case errors.Is(err, domain.ErrSubmissionFailed):
			h.observe(metrics.OutcomeSubmissionFailed, d.Type)
			response.BadGateway(c, "There was an error submitting your content. Please try again.")
		default:
			h.observe(metrics.OutcomeSubmissionFailed, d.Type)
			h.logger.Error("Unexpected submission error", "error", err)
			response.InternalServerError(c, "Failed to submit content")
		}
		return
	}

	h.observe(metrics.OutcomeSuccess, rec.Type)
	c.Header("Location", "/api/v1/content/"+rec.ID)
	response.Created(c, rec)
}

func (h *DraftHandler) observe(outcome string, t domain.ContentType) {
	if h.metrics != nil {
		h.metrics.ObserveSubmission(outcome, string(t))
	}
}
