// Package app wires the stores, services and HTTP handlers together.
package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/amiyamandal-dev/contentdesk/internal/api"
	"github.com/amiyamandal-dev/contentdesk/internal/api/handlers"
	"github.com/amiyamandal-dev/contentdesk/internal/auth"
	"github.com/amiyamandal-dev/contentdesk/internal/config"
	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/editor"
	"github.com/amiyamandal-dev/contentdesk/internal/metrics"
	"github.com/amiyamandal-dev/contentdesk/internal/render"
	"github.com/amiyamandal-dev/contentdesk/internal/repository/badger"
	"github.com/amiyamandal-dev/contentdesk/internal/search"
	"github.com/amiyamandal-dev/contentdesk/internal/service"
	"github.com/amiyamandal-dev/contentdesk/internal/validator"
	"github.com/amiyamandal-dev/contentdesk/internal/web"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

// App holds the opened stores and the services built on them
type App struct {
	Config *config.Config

	DB          *badger.DB
	Index       *search.BleveIndex
	ContentRepo *badger.ContentRepo

	Validator   *validator.Validator
	Renderer    *render.Renderer
	Content     *service.ContentService
	Search      *service.SearchService
	Attachments *service.AttachmentService
	Ingest      *service.IngestService
	IndexSync   *service.IndexSyncService
	JWT         *auth.JWTManager

	log *logger.Logger
}

// Open opens the badger store and the search index at the configured
// paths and builds the services
func Open(cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := badger.New(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	log.Info("Database opened", "path", cfg.Storage.Path)

	idx := search.NewBleveIndex(log)
	if err := idx.Open(cfg.Search.IndexPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}
	count, _ := idx.Count()
	log.Info("Search index opened", "path", cfg.Search.IndexPath, "document_count", count)

	return build(cfg, db, idx, log), nil
}

// OpenInMemory builds the app on stores that are never written to disk
func OpenInMemory(cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := badger.NewInMemory()
	if err != nil {
		return nil, err
	}
	idx := search.NewBleveIndex(log)
	if err := idx.OpenMem(); err != nil {
		db.Close()
		return nil, err
	}
	return build(cfg, db, idx, log), nil
}

func build(cfg *config.Config, db *badger.DB, idx *search.BleveIndex, log *logger.Logger) *App {
	contentRepo := badger.NewContentRepo(db)
	attachmentRepo := badger.NewAttachmentRepo(db)

	a := &App{
		Config:      cfg,
		DB:          db,
		Index:       idx,
		ContentRepo: contentRepo,
		Validator:   validator.New(cfg.Editor.Categories, nil),
		Renderer:    render.New(),
		log:         log,
	}

	a.Content = service.NewContentService(contentRepo, log)
	a.Search = service.NewSearchService(idx, contentRepo, log)
	a.IndexSync = service.NewIndexSyncService(a.Search, idx, contentRepo, log)
	a.Attachments = service.NewAttachmentService(attachmentRepo, cfg.Editor.MaxUploadBytes, cfg.Storage.AttachmentTTL, log)
	a.Ingest = service.NewIngestService(
		contentRepo,
		attachmentRepo,
		a.Validator,
		a.Renderer,
		idx,
		domain.Author{
			DisplayName: cfg.Authoring.DefaultAuthorName,
			AvatarURL:   cfg.Authoring.DefaultAuthorAvatar,
			Bio:         cfg.Authoring.DefaultAuthorBio,
		},
		log,
	)

	if cfg.Auth.Enabled {
		a.JWT = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	}

	return a
}

// Handler builds the routed HTTP handler. Metrics are registered on reg,
// which also backs the /metrics endpoint.
func (a *App) Handler(reg *prometheus.Registry) http.Handler {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	previewer := editor.DataURLPreviewer{}

	webHandler := web.NewWebHandler(web.Deps{
		Loader:        a.Content,
		Observer:      m,
		Renderer:      a.Renderer,
		SearchService: a.Search,
		Validator:     a.Validator,
		Submitter:     a.Ingest,
		Attachments:   a.Attachments,
		Previewer:     previewer,
		Metrics:       m,
		JWTManager:    a.JWT,
	}, web.Timing{
		FetchTimeout:     a.Config.Viewer.FetchTimeout,
		PlaceholderAfter: a.Config.Viewer.PlaceholderAfter,
	}, a.log)

	router := api.NewRouter(
		handlers.NewAuthHandler(),
		handlers.NewContentHandler(a.Content, a.Search, m, a.Config.Viewer.FetchTimeout, a.log),
		handlers.NewDraftHandler(a.Validator, a.Ingest, m, a.log),
		handlers.NewUploadHandler(a.Attachments, previewer, m, a.log),
		handlers.NewHealthHandler(a.DB, a.Index, a.log),
		webHandler,
		a.JWT,
		m,
		reg,
		a.Config,
		a.log,
	)

	return otelhttp.NewHandler(router.Setup(), "contentdesk")
}

// Close closes the search index and the store
func (a *App) Close() error {
	return errors.Join(a.Index.Close(), a.DB.Close())
}
