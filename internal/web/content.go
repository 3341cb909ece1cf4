package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/viewer"
)

// ContentPage renders the detail page of an article or video. If the record
// is not loaded within the placeholder delay the skeleton is shown and the
// browser retries with a full wait.
func (h *WebHandler) ContentPage(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	opts := []viewer.Option{viewer.WithFetchTimeout(h.timing.FetchTimeout)}
	if h.deps.Observer != nil {
		opts = append(opts, viewer.WithObserver(h.deps.Observer))
	}
	v := viewer.New(h.deps.Loader, h.logger, opts...)
	defer v.Close()

	if err := v.Navigate(ctx, id); err != nil {
		c.String(http.StatusInternalServerError, "Failed to load content")
		return
	}

	waitCtx := ctx
	if c.Query("wait") != "full" && h.timing.PlaceholderAfter > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, h.timing.PlaceholderAfter)
		defer cancel()
	}

	snap, err := v.Wait(waitCtx)
	if ctx.Err() != nil {
		return
	}
	if err != nil || snap.State == viewer.Loading {
		h.render(c, http.StatusOK, "skeleton", gin.H{
			"Title":      "Loading",
			"RefreshURL": "/content/" + url.PathEscape(id) + "?wait=full",
		})
		return
	}

	switch {
	case snap.State == viewer.Loaded:
		page, err := viewer.BuildPage(snap.Record, h.deps.Renderer)
		if err != nil {
			h.logger.Error("Failed to build content page", "content_id", id, "error", err)
			c.String(http.StatusInternalServerError, "Failed to render content")
			return
		}
		h.render(c, http.StatusOK, "content", gin.H{
			"Title": page.Title,
			"Page":  page,
		})
	case snap.Missing():
		h.notFound(c)
	default:
		h.render(c, http.StatusBadGateway, "not_found", gin.H{
			"Title":   "Unavailable",
			"Heading": "Content unavailable",
			"Message": "This content could not be loaded right now. Please try again later.",
		})
	}
}

// PlayVideo is the play control of the video header. It sends the browser
// to the video when the record has one.
func (h *WebHandler) PlayVideo(c *gin.Context) {
	rec, err := h.deps.Loader.GetContent(c.Request.Context(), c.Param("id"))
	if err != nil || !rec.Type.IsVideo() || rec.VideoURL == "" {
		if err != nil && !errors.Is(err, domain.ErrContentNotFound) {
			h.logger.Warn("Failed to load video", "content_id", c.Param("id"), "error", err)
		}
		h.notFound(c)
		return
	}

	c.Redirect(http.StatusFound, rec.VideoURL)
}

// Media serves an uploaded image
func (h *WebHandler) Media(c *gin.Context) {
	att, err := h.deps.Attachments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if !errors.Is(err, domain.ErrAttachmentNotFound) {
			h.logger.Error("Failed to load attachment", "attachment_id", c.Param("id"), "error", err)
		}
		c.Status(http.StatusNotFound)
		return
	}

	if att.Permanent {
		c.Header("Cache-Control", "public, max-age=86400")
	} else {
		c.Header("Cache-Control", "private, no-store")
	}
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, att.ContentType, att.Data)
}
