package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

// ErrSubmitInProgress is returned when Submit is called while a previous
// submission has not finished
var ErrSubmitInProgress = errors.New("submission already in progress")

// DraftValidator checks a draft and reports failures by field
type DraftValidator interface {
	ValidateDraft(d *domain.ContentDraft) domain.FieldErrors
}

// Submitter receives a validated draft
type Submitter interface {
	Submit(ctx context.Context, draft *domain.ContentDraft) (*domain.ContentRecord, error)
}

// Previewer renders an attachment into something an <img> can show
type Previewer interface {
	Preview(ctx context.Context, att *domain.Attachment) (string, error)
}

// NoticeLevel distinguishes success toasts from error toasts
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message shown after a submission
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

var (
	submittedNotice = Notice{
		Level:   NoticeSuccess,
		Title:   "Content submitted",
		Message: "Your content has been successfully submitted.",
	}
	failedNotice = Notice{
		Level:   NoticeError,
		Title:   "Error",
		Message: "There was an error submitting your content. Please try again.",
	}
)

// CoverPreview is the state of the cover image thumbnail
type CoverPreview struct {
	URL     string
	Pending bool
}

// Form is the authoring form: one draft edited through Article and Video
// tabs. Form is safe for concurrent use.
type Form struct {
	validator DraftValidator
	submitter Submitter
	previewer Previewer
	logger    *logger.Logger
	now       func() time.Time

	mu         sync.Mutex
	draft      *domain.ContentDraft
	errors     domain.FieldErrors
	cover      CoverPreview
	previewGen uint64
	notices    []Notice
	submitting bool
	closed     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a form holding the default draft
func New(v DraftValidator, s Submitter, p Previewer, log *logger.Logger, now func() time.Time) *Form {
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Form{
		validator: v,
		submitter: s,
		previewer: p,
		logger:    log.WithComponent("editor"),
		now:       now,
		draft:     domain.NewDraft(now()),
		errors:    domain.FieldErrors{},
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Restore replaces the draft, e.g. with values posted back by a browser.
// The cover preview is kept only if it still belongs to the same file.
func (f *Form) Restore(d *domain.ContentDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return domain.ErrFormClosed
	}
	if !d.Type.Authorable() {
		return domain.ErrInvalidContent
	}

	prev := f.draft.CoverImage
	f.draft = d.Clone()
	if prev == nil || d.CoverImage == nil || prev.ID != d.CoverImage.ID {
		f.previewGen++
		f.cover = CoverPreview{}
	}
	return nil
}

// Tab returns the active tab
func (f *Form) Tab() domain.ContentType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.Type
}

// SelectTab switches between Article and Video. The hidden type field of
// the draft always equals the active tab.
func (f *Form) SelectTab(tab domain.ContentType) error {
	if !tab.Authorable() {
		return fmt.Errorf("%w: cannot author %q", domain.ErrInvalidContent, tab)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return domain.ErrFormClosed
	}
	f.draft.Type = tab
	return nil
}

// Edit applies fn to the draft. The type field cannot be changed this way.
func (f *Form) Edit(fn func(d *domain.ContentDraft)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return domain.ErrFormClosed
	}
	tab := f.draft.Type
	fn(f.draft)
	f.draft.Type = tab
	return nil
}

// SetTagsInput parses the comma-delimited tags field
func (f *Form) SetTagsInput(raw string) error {
	return f.Edit(func(d *domain.ContentDraft) { d.SetTagsInput(raw) })
}

// AttachCover selects a cover image and starts building its preview. A
// preview that finishes after the cover was removed or replaced is dropped.
func (f *Form) AttachCover(att *domain.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return domain.ErrFormClosed
	}

	ref := att.FileRef
	f.draft.CoverImage = &ref
	f.previewGen++
	gen := f.previewGen
	f.cover = CoverPreview{Pending: true}
	delete(f.errors, "cover_image")

	f.wg.Add(1)
	go f.preview(gen, att)

	return nil
}

func (f *Form) preview(gen uint64, att *domain.Attachment) {
	defer f.wg.Done()

	url, err := f.previewer.Preview(f.ctx, att)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || gen != f.previewGen {
		f.logger.Debug("Discarding stale cover preview", "attachment_id", att.ID)
		return
	}

	f.cover.Pending = false
	if err != nil {
		f.logger.Warn("Failed to build cover preview", "attachment_id", att.ID, "error", err)
		f.errors.Add("cover_image", "Could not read the selected image")
		return
	}
	f.cover.URL = url
}

// RemoveCover clears the cover image and its preview
func (f *Form) RemoveCover() error {
	return f.Edit(func(d *domain.ContentDraft) {
		d.CoverImage = nil
		f.previewGen++
		f.cover = CoverPreview{}
		delete(f.errors, "cover_image")
	})
}

// CoverPreview returns the current cover preview
func (f *Form) CoverPreview() CoverPreview {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cover
}

// AddSection appends a blank section and returns its id
func (f *Form) AddSection() (domain.SectionID, error) {
	var id domain.SectionID
	err := f.Edit(func(d *domain.ContentDraft) { id = d.Sections.Append() })
	return id, err
}

// RemoveSection removes the section with the given id. The remaining
// sections keep their ids, order and values.
func (f *Form) RemoveSection(id domain.SectionID) error {
	var err error
	if editErr := f.Edit(func(d *domain.ContentDraft) { err = d.Sections.Remove(id) }); editErr != nil {
		return editErr
	}
	return err
}

// RemoveSectionAt removes the section at position i
func (f *Form) RemoveSectionAt(i int) error {
	var err error
	if editErr := f.Edit(func(d *domain.ContentDraft) { err = d.Sections.RemoveAt(i) }); editErr != nil {
		return editErr
	}
	return err
}

// UpdateSection sets the title and body of a section
func (f *Form) UpdateSection(id domain.SectionID, title, body string) error {
	var err error
	editErr := f.Edit(func(d *domain.ContentDraft) {
		err = d.Sections.Update(id, func(s *domain.Section) {
			s.Title = title
			s.Body = body
		})
	})
	if editErr != nil {
		return editErr
	}
	return err
}

// AttachSectionImage sets or clears (ref == nil) the image of a section
func (f *Form) AttachSectionImage(id domain.SectionID, ref *domain.FileRef) error {
	var err error
	editErr := f.Edit(func(d *domain.ContentDraft) {
		err = d.Sections.Update(id, func(s *domain.Section) {
			if ref == nil {
				s.Image = nil
				return
			}
			img := *ref
			s.Image = &img
		})
	})
	if editErr != nil {
		return editErr
	}
	return err
}

// Draft returns a copy of the current values
func (f *Form) Draft() *domain.ContentDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.Clone()
}

// Errors returns a copy of the field errors from the last validation
func (f *Form) Errors() domain.FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(domain.FieldErrors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// TakeNotices returns and clears the pending notices
func (f *Form) TakeNotices() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.notices
	f.notices = nil
	return out
}

// Validate runs validation without submitting and stores the result
func (f *Form) Validate() domain.FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()

	errs := f.validate()
	f.errors = errs
	return errs
}

func (f *Form) validate() domain.FieldErrors {
	errs := f.validator.ValidateDraft(f.draft)
	if errs == nil {
		errs = domain.FieldErrors{}
	}
	if msg, ok := f.errors["cover_image"]; ok {
		errs.Add("cover_image", msg)
	}
	return errs
}

// Submit validates the draft and hands it to the submitter. Invalid drafts
// never reach the submitter and the returned error is the FieldErrors.
// FieldErrors returned by the submitter are reported the same way. On
// success the form resets to its defaults; on failure every value is kept.
// Nothing is updated if the form is closed before the submitter returns.
func (f *Form) Submit(ctx context.Context) (*domain.ContentRecord, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, domain.ErrFormClosed
	}
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInProgress
	}

	errs := f.validate()
	f.errors = errs
	if len(errs) > 0 {
		f.mu.Unlock()
		f.logger.Debug("Draft failed validation", "fields", len(errs))
		return nil, errs
	}

	payload := f.draft.Payload()
	f.submitting = true
	f.mu.Unlock()

	rec, err := f.submitter.Submit(ctx, payload)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false

	// the submitter may still reject a field, e.g. an upload that expired
	var fieldErrs domain.FieldErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		err = fieldErrs
	} else if err != nil {
		fieldErrs = nil
		err = fmt.Errorf("%w: %w", domain.ErrSubmissionFailed, err)
	}

	if f.closed {
		f.logger.Debug("Form closed during submission", "error", err)
		return rec, err
	}

	if len(fieldErrs) > 0 {
		for field, msg := range fieldErrs {
			f.errors.Add(field, msg)
		}
		f.logger.Debug("Submitter rejected fields", "fields", len(fieldErrs))
		return nil, fieldErrs
	}
	if err != nil {
		f.logger.Error("Failed to submit content", "title", payload.Title, "error", err)
		f.notices = append(f.notices, failedNotice)
		return nil, err
	}

	if rec != nil {
		f.logger.Info("Content submitted", "content_id", rec.ID, "type", payload.Type)
	}
	f.notices = append(f.notices, submittedNotice)
	f.reset()

	return rec, nil
}

// reset restores the defaults. Pending previews become stale.
func (f *Form) reset() {
	f.draft = domain.NewDraft(f.now())
	f.errors = domain.FieldErrors{}
	f.previewGen++
	f.cover = CoverPreview{}
}

// Settle waits for cover previews that are still being built
func (f *Form) Settle() {
	f.wg.Wait()
}

// Close stops the form. Pending previews are cancelled and no later
// result changes its state.
func (f *Form) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.mu.Unlock()

	f.cancel()
	f.wg.Wait()
}
