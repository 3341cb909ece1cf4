package web

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/editor"
	"github.com/amiyamandal-dev/contentdesk/internal/metrics"
)

const expiredImageMessage = "The selected image has expired, please select it again"

// postedForm is the browser's copy of the authoring form
type postedForm struct {
	values map[string][]string
	files  map[string][]*multipart.FileHeader
}

func (p postedForm) get(key string) string {
	if v := p.values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (p postedForm) file(key string) *multipart.FileHeader {
	if f := p.files[key]; len(f) > 0 && f[0].Size > 0 {
		return f[0]
	}
	return nil
}

func (h *WebHandler) newForm() *editor.Form {
	return editor.New(h.deps.Validator, h.deps.Submitter, h.deps.Previewer, h.logger, h.now)
}

// EditorPage renders an empty authoring form
func (h *WebHandler) EditorPage(c *gin.Context) {
	form := h.newForm()
	defer form.Close()

	h.renderEditor(c, http.StatusOK, form, nil, nil)
}

// EditorSubmit applies the pressed form action: a tab switch, a section or
// cover change, or the final submission
func (h *WebHandler) EditorSubmit(c *gin.Context) {
	ctx := c.Request.Context()

	posted, err := h.parseForm(c)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid form data")
		return
	}

	form := h.newForm()
	defer form.Close()

	draft, cover, errs := h.restoreDraft(c, posted)
	if err := form.Restore(draft); err != nil {
		c.String(http.StatusBadRequest, "Invalid form data")
		return
	}
	if cover != nil {
		_ = form.AttachCover(cover)
	}

	code := http.StatusOK
	var published *domain.ContentRecord

	action := posted.get("action")
	switch {
	case strings.HasPrefix(action, "tab:"):
		if err := form.SelectTab(domain.ContentType(strings.TrimPrefix(action, "tab:"))); err != nil {
			code = http.StatusBadRequest
		}
	case action == "add_section":
		_, _ = form.AddSection()
	case strings.HasPrefix(action, "remove_section:"):
		id := domain.SectionID(strings.TrimPrefix(action, "remove_section:"))
		if err := form.RemoveSection(id); err != nil {
			h.logger.Debug("Section already removed", "section_id", id)
		}
	case action == "remove_cover":
		if ref := form.Draft().CoverImage; ref != nil {
			if err := h.deps.Attachments.Delete(ctx, ref.ID); err != nil && !errors.Is(err, domain.ErrAttachmentNotFound) {
				h.logger.Warn("Failed to delete removed cover", "attachment_id", ref.ID, "error", err)
			}
		}
		_ = form.RemoveCover()
		delete(errs, "cover_image")
	default:
		published, code = h.submit(c, form, errs)
	}

	form.Settle()
	h.renderEditor(c, code, form, errs, published)
}

// submit publishes the form unless the posted values already failed to parse
func (h *WebHandler) submit(c *gin.Context, form *editor.Form, errs domain.FieldErrors) (*domain.ContentRecord, int) {
	contentType := string(form.Tab())

	if len(errs) > 0 {
		form.Validate()
		h.observe(metrics.OutcomeValidationFailed, contentType)
		return nil, http.StatusUnprocessableEntity
	}

	rec, err := form.Submit(c.Request.Context())
	switch {
	case err == nil:
		h.observe(metrics.OutcomeSuccess, contentType)
		return rec, http.StatusOK
	case errors.Is(err, domain.ErrSubmissionFailed):
		h.observe(metrics.OutcomeSubmissionFailed, contentType)
		return nil, http.StatusBadGateway
	case errors.Is(err, domain.ErrValidationFailed):
		h.observe(metrics.OutcomeValidationFailed, contentType)
		return nil, http.StatusUnprocessableEntity
	default:
		h.logger.Error("Unexpected form error", "error", err)
		return nil, http.StatusInternalServerError
	}
}

func (h *WebHandler) observe(outcome, contentType string) {
	if h.deps.Metrics != nil {
		h.deps.Metrics.ObserveSubmission(outcome, contentType)
	}
}

func (h *WebHandler) parseForm(c *gin.Context) (postedForm, error) {
	mf, err := c.MultipartForm()
	switch {
	case err == nil:
		return postedForm{values: mf.Value, files: mf.File}, nil
	case errors.Is(err, http.ErrNotMultipart):
		if err := c.Request.ParseForm(); err != nil {
			return postedForm{}, err
		}
		return postedForm{values: c.Request.PostForm}, nil
	default:
		return postedForm{}, err
	}
}

// restoreDraft rebuilds the draft from the posted values. Newly chosen
// images are uploaded here. The returned attachment is the cover whose
// preview has to be rebuilt.
func (h *WebHandler) restoreDraft(c *gin.Context, p postedForm) (*domain.ContentDraft, *domain.Attachment, domain.FieldErrors) {
	ctx := c.Request.Context()
	errs := domain.FieldErrors{}

	d := &domain.ContentDraft{
		Title:      p.get("title"),
		Body:       p.get("content"),
		Category:   p.get("category"),
		Type:       domain.TypeArticle,
		Tags:       domain.ParseTags(p.get("tags")),
		VideoURL:   strings.TrimSpace(p.get("video_url")),
		Duration:   p.get("duration"),
		Transcript: p.get("transcript"),
	}
	if t := domain.ContentType(p.get("type")); t.Authorable() {
		d.Type = t
	}

	if raw := p.get("publish_date"); raw != "" {
		date, err := domain.ParsePublishDate(raw, h.now().Location())
		if err != nil {
			errs.Add("publish_date", "Invalid date")
		} else {
			d.PublishDate = date
		}
	}

	var cover *domain.Attachment
	if fh := p.file("cover_image"); fh != nil {
		att, msg := h.upload(c, fh)
		if msg != "" {
			errs.Add("cover_image", msg)
		}
		cover = att
	} else if id := p.get("cover_id"); id != "" {
		att, err := h.deps.Attachments.Get(ctx, id)
		if err != nil {
			errs.Add("cover_image", expiredImageMessage)
		} else {
			cover = att
		}
	}
	if cover != nil {
		ref := cover.FileRef
		d.CoverImage = &ref
	}

	ids := p.values["section_id"]
	titles := p.values["section_title"]
	bodies := p.values["section_content"]
	for i, raw := range ids {
		sec := domain.Section{ID: domain.SectionID(raw)}
		if sec.ID == "" {
			sec.ID = domain.NewSectionID()
		}
		if i < len(titles) {
			sec.Title = titles[i]
		}
		if i < len(bodies) {
			sec.Body = bodies[i]
		}

		if fh := p.file("section_image_" + raw); fh != nil {
			att, msg := h.upload(c, fh)
			if msg != "" {
				errs.Add("sections", msg)
			} else {
				ref := att.FileRef
				sec.Image = &ref
			}
		} else if id := p.get("section_image_id_" + raw); id != "" {
			sec.Image = &domain.FileRef{ID: id}
		}

		d.Sections = append(d.Sections, sec)
	}

	return d, cover, errs
}

// upload stores a chosen image and returns the message to show when it was
// refused
func (h *WebHandler) upload(c *gin.Context, fh *multipart.FileHeader) (*domain.Attachment, string) {
	file, err := fh.Open()
	if err != nil {
		return nil, "Could not read the selected image"
	}
	defer file.Close()

	att, err := h.deps.Attachments.UploadFrom(c.Request.Context(), fh.Filename, file)
	if err != nil {
		outcome, msg := metrics.OutcomeRejected, "Could not store the selected image"
		switch {
		case errors.Is(err, domain.ErrAttachmentTooLarge):
			msg = "The selected image is too large"
		case errors.Is(err, domain.ErrInvalidAttachment):
			msg = "Please select an image file"
		default:
			outcome = metrics.OutcomeSubmissionFailed
			h.logger.Error("Failed to store upload", "error", err)
		}
		if h.deps.Metrics != nil {
			h.deps.Metrics.ObserveUpload(outcome, 0)
		}
		return nil, msg
	}

	if h.deps.Metrics != nil {
		h.deps.Metrics.ObserveUpload(metrics.OutcomeSuccess, int(att.Size))
	}
	return att, ""
}

func (h *WebHandler) renderEditor(c *gin.Context, code int, form *editor.Form, extra domain.FieldErrors, published *domain.ContentRecord) {
	errs := form.Errors()
	for field, msg := range extra {
		errs[field] = msg
	}

	h.render(c, code, "editor", gin.H{
		"Title":      "Create content",
		"Tab":        string(form.Tab()),
		"Draft":      form.Draft(),
		"Errors":     errs,
		"Cover":      form.CoverPreview(),
		"Notices":    form.TakeNotices(),
		"Published":  published,
		"Categories": h.deps.Validator.Categories(),
		"MinDate":    h.now().Format("2006-01-02"),
	})
}
