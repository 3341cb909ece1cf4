package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amiyamandal-dev/contentdesk/internal/api/handlers"
	"github.com/amiyamandal-dev/contentdesk/internal/api/middleware"
	"github.com/amiyamandal-dev/contentdesk/internal/auth"
	"github.com/amiyamandal-dev/contentdesk/internal/config"
	"github.com/amiyamandal-dev/contentdesk/internal/metrics"
	"github.com/amiyamandal-dev/contentdesk/internal/web"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

// Router sets up the HTTP router with all routes and middleware
type Router struct {
	engine         *gin.Engine
	authHandler    *handlers.AuthHandler
	contentHandler *handlers.ContentHandler
	draftHandler   *handlers.DraftHandler
	uploadHandler  *handlers.UploadHandler
	healthHandler  *handlers.HealthHandler
	webHandler     *web.WebHandler
	jwtManager     *auth.JWTManager
	metrics        *metrics.Metrics
	gatherer       prometheus.Gatherer
	cfg            *config.Config
	logger         *logger.Logger
}

// NewRouter creates a new router. jwtManager is nil when auth is disabled;
// webHandler may be nil to serve the API only.
func NewRouter(
	authHandler *handlers.AuthHandler,
	contentHandler *handlers.ContentHandler,
	draftHandler *handlers.DraftHandler,
	uploadHandler *handlers.UploadHandler,
	healthHandler *handlers.HealthHandler,
	webHandler *web.WebHandler,
	jwtManager *auth.JWTManager,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	cfg *config.Config,
	logger *logger.Logger,
) *Router {
	return &Router{
		authHandler:    authHandler,
		contentHandler: contentHandler,
		draftHandler:   draftHandler,
		uploadHandler:  uploadHandler,
		healthHandler:  healthHandler,
		webHandler:     webHandler,
		jwtManager:     jwtManager,
		metrics:        m,
		gatherer:       gatherer,
		cfg:            cfg,
		logger:         logger,
	}
}

// Setup configures all routes and middleware
func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.cfg.Server.Mode)

	r.engine = gin.New()
	r.engine.MaxMultipartMemory = r.cfg.Editor.MaxUploadBytes * 2

	// Recovery middleware (global)
	r.engine.Use(gin.Recovery())

	// CORS middleware (global)
	r.engine.Use(middleware.CORSMiddleware(r.cfg.CORS.AllowedOrigins))

	// Logger middleware (global)
	r.engine.Use(middleware.LoggerMiddleware(r.logger))

	if r.metrics != nil {
		r.engine.Use(middleware.MetricsMiddleware(r.metrics))
	}

	// Health check endpoints (no rate limiting, no auth)
	r.engine.GET("/health", r.healthHandler.Health)
	r.engine.GET("/health/ready", r.healthHandler.Readiness)
	r.engine.GET("/health/live", r.healthHandler.Liveness)

	if r.gatherer != nil {
		r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	if r.webHandler != nil {
		r.setupWeb()
	}

	// API v1 routes (with rate limiting)
	v1 := r.engine.Group("/api/v1")
	v1.Use(middleware.RateLimitMiddleware(
		r.cfg.RateLimit.RequestsPerMinute,
		r.cfg.RateLimit.Burst,
	))
	{
		// Public content routes
		v1.GET("/content", r.contentHandler.List)
		v1.GET("/content/:id", r.contentHandler.Get)

		// Authoring routes, protected when auth is enabled
		authoring := v1.Group("")
		if r.jwtManager != nil {
			authoring.Use(middleware.AuthMiddleware(r.jwtManager))
			authoring.GET("/auth/me", r.authHandler.GetMe)
		}
		{
			authoring.POST("/drafts/validate", r.draftHandler.Validate)
			authoring.POST("/content", r.draftHandler.Submit)
			authoring.POST("/uploads", r.uploadHandler.UploadImage)
			authoring.DELETE("/uploads/:id", r.uploadHandler.Delete)
		}
	}

	return r.engine
}

func (r *Router) setupWeb() {
	webRoutes := r.engine.Group("")
	if r.jwtManager != nil {
		webRoutes.Use(web.AuthMiddleware(r.jwtManager))
	}
	{
		webRoutes.GET("/", r.webHandler.HomePage)
		webRoutes.GET("/content/:id", r.webHandler.ContentPage)
		webRoutes.GET("/content/:id/play", r.webHandler.PlayVideo)
		webRoutes.GET("/media/:id", r.webHandler.Media)
		webRoutes.GET("/login", r.webHandler.LoginPage)
		webRoutes.POST("/login", r.webHandler.WebLogin)
		webRoutes.GET("/logout", r.webHandler.WebLogout)

		editorRoutes := webRoutes.Group("/editor")
		if r.jwtManager != nil {
			editorRoutes.Use(web.RequireAuth())
		}
		editorRoutes.GET("", r.webHandler.EditorPage)
		editorRoutes.POST("", r.webHandler.EditorSubmit)
	}
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	if r.engine == nil {
		return r.Setup()
	}
	return r.engine
}
