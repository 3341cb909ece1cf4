package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/contentdesk/internal/search"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

// HealthChecker is a store that can report whether it is usable
type HealthChecker interface {
	HealthCheck() error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db          HealthChecker
	searchIndex search.Index
	logger      *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db HealthChecker, searchIndex search.Index, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:          db,
		searchIndex: searchIndex,
		logger:      logger.WithComponent("health-handler"),
	}
}

// Health returns basic health status
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Readiness checks if the service is ready to handle requests
func (h *HealthHandler) Readiness(c *gin.Context) {
	var (
		dbErr         error
		searchHealthy bool
		searchCount   uint64
		wg            sync.WaitGroup
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		dbErr = h.db.HealthCheck()
	}()

	go func() {
		defer wg.Done()
		var err error
		searchCount, err = h.searchIndex.Count()
		searchHealthy = err == nil
	}()

	wg.Wait()

	if dbErr != nil {
		h.logger.Warn("Database health check failed", "error", dbErr)
	}

	checks := map[string]interface{}{
		"database": map[string]interface{}{
			"healthy":  dbErr == nil,
			"required": true,
		},
		"search": map[string]interface{}{
			"healthy":        searchHealthy,
			"required":       false,
			"document_count": searchCount,
		},
	}

	// the detail page and the form only need the store
	ready := dbErr == nil

	status := "ready"
	code := http.StatusOK
	if !ready {
		status = "not ready"
		code = http.StatusServiceUnavailable
	}

	resp := gin.H{
		"status": status,
		"checks": checks,
	}
	if !searchHealthy {
		resp["warnings"] = []string{"Search index not available - listing disabled"}
	}

	c.JSON(code, resp)
}

// Liveness checks if the service is alive
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
