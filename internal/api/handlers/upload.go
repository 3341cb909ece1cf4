package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/editor"
	"github.com/amiyamandal-dev/contentdesk/internal/metrics"
	"github.com/amiyamandal-dev/contentdesk/internal/service"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
	"github.com/amiyamandal-dev/contentdesk/pkg/response"
)

// uploadResponse describes a stored upload and its inline preview
type uploadResponse struct {
	domain.FileRef
	URL     string `json:"url"`
	Preview string `json:"preview"`
}

// UploadHandler handles cover and section image uploads
type UploadHandler struct {
	attachments *service.AttachmentService
	previewer   editor.Previewer
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(
	attachments *service.AttachmentService,
	previewer editor.Previewer,
	m *metrics.Metrics,
	logger *logger.Logger,
) *UploadHandler {
	return &UploadHandler{
		attachments: attachments,
		previewer:   previewer,
		metrics:     m,
		logger:      logger.WithComponent("upload-handler"),
	}
}

// UploadImage stores the multipart "file" field and returns its preview
func (h *UploadHandler) UploadImage(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.observe(metrics.OutcomeRejected, 0)
		response.BadRequest(c, "Image file is required")
		return
	}
	if header.Size > h.attachments.MaxBytes() {
		h.observe(metrics.OutcomeRejected, 0)
		response.TooLarge(c, "Image too large")
		return
	}

	file, err := header.Open()
	if err != nil {
		h.logger.Error("Failed to open upload", "error", err)
		response.InternalServerError(c, "Failed to process image")
		return
	}
	defer file.Close()

	att, err := h.attachments.UploadFrom(c.Request.Context(), header.Filename, file)
	if err != nil {
		h.observe(metrics.OutcomeRejected, 0)
		switch {
		case errors.Is(err, domain.ErrAttachmentTooLarge):
			response.TooLarge(c, "Image too large")
		case errors.Is(err, domain.ErrInvalidAttachment):
			response.BadRequest(c, "Only image files can be uploaded")
		default:
			response.InternalServerError(c, "Failed to store image")
		}
		return
	}

	preview, err := h.previewer.Preview(c.Request.Context(), att)
	if err != nil {
		// the upload is usable without a thumbnail
		h.logger.Warn("Failed to build preview", "attachment_id", att.ID, "error", err)
	}

	h.observe(metrics.OutcomeSuccess, int(att.Size))
	h.logger.Info("Image uploaded", "attachment_id", att.ID, "size", att.Size, "filename", att.Filename)

	response.Created(c, uploadResponse{
		FileRef: att.FileRef,
		URL:     att.MediaURL(),
		Preview: preview,
	})
}

// Delete removes an unpublished upload, e.g. when the cover is removed
func (h *UploadHandler) Delete(c *gin.Context) {
	err := h.attachments.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		response.SuccessWithMessage(c, "Upload removed", nil)
	case errors.Is(err, domain.ErrAttachmentNotFound):
		response.NotFound(c, "Upload not found")
	case errors.Is(err, domain.ErrInvalidAttachment):
		response.Error(c, http.StatusConflict, "Upload is used by published content")
	default:
		h.logger.Error("Failed to delete upload", "error", err)
		response.InternalServerError(c, "Failed to remove upload")
	}
}

func (h *UploadHandler) observe(outcome string, size int) {
	if h.metrics != nil {
		h.metrics.ObserveUpload(outcome, size)
	}
}
