package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/service"
	"github.com/amiyamandal-dev/contentdesk/internal/viewer"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
	"github.com/amiyamandal-dev/contentdesk/pkg/response"
)

// ContentHandler serves published content
type ContentHandler struct {
	loader        viewer.Loader
	searchService *service.SearchService
	observer      viewer.Observer
	fetchTimeout  time.Duration
	logger        *logger.Logger
}

// NewContentHandler creates a new content handler. observer may be nil.
func NewContentHandler(
	loader viewer.Loader,
	searchService *service.SearchService,
	observer viewer.Observer,
	fetchTimeout time.Duration,
	logger *logger.Logger,
) *ContentHandler {
	return &ContentHandler{
		loader:        loader,
		searchService: searchService,
		observer:      observer,
		fetchTimeout:  fetchTimeout,
		logger:        logger.WithComponent("content-handler"),
	}
}

// contentResponse mirrors the viewer state of the requested record
type contentResponse struct {
	State   string                `json:"state"`
	Content *domain.ContentRecord `json:"content,omitempty"`
}

// Get returns a single record by id
func (h *ContentHandler) Get(c *gin.Context) {
	id := c.Param("id")

	opts := []viewer.Option{viewer.WithFetchTimeout(h.fetchTimeout)}
	if h.observer != nil {
		opts = append(opts, viewer.WithObserver(h.observer))
	}
	v := viewer.New(h.loader, h.logger, opts...)
	defer v.Close()

	if err := v.Navigate(c.Request.Context(), id); err != nil {
		response.InternalServerError(c, "Failed to load content")
		return
	}

	snap, err := v.Wait(c.Request.Context())
	if err != nil {
		// client went away
		return
	}

	switch {
	case snap.State == viewer.Loaded:
		response.Success(c, contentResponse{State: snap.State.String(), Content: snap.Record})
	case snap.Missing():
		c.JSON(http.StatusNotFound, response.Response{
			Success: false,
			Error:   "Content not found",
			Data:    contentResponse{State: snap.State.String()},
		})
	default:
		h.logger.Error("Failed to load content", "content_id", id, "error", snap.Err)
		response.BadGateway(c, "Content could not be loaded")
	}
}

// List returns a page of content filtered by text, category, type and tags
func (h *ContentHandler) List(c *gin.Context) {
	parser := NewQueryParamParser(c)
	pagination := parser.Pagination(20)
	q := &domain.ContentQuery{
		Text:     parser.String("q", ""),
		Category: parser.String("category", ""),
		Type:     parser.ContentType("type"),
		Tags:     parser.Tags("tags"),
		Page:     pagination.Page,
		Limit:    pagination.Limit,
	}
	if err := parser.Error(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.searchService.Search(c.Request.Context(), q)
	if err != nil {
		if c.Request.Context().Err() != nil {
			return
		}
		response.InternalServerError(c, "Search failed")
		return
	}

	response.Paginated(c, res.Items, res.Page, res.Limit, res.Total)
}
