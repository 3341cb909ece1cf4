package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

// LoggerMiddleware creates request logging middleware. Successful health check and
// scrape requests are logged at debug level.
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("http")

	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", route,
			"status", statusCode,
			"duration_ms", time.Since(startTime).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if id := GetAuthorID(c); id != "" {
			fields = append(fields, "author_id", id)
		}

		switch {
		case statusCode >= 500:
			log.Error("HTTP Request", fields...)
		case statusCode >= 400:
			log.Warn("HTTP Request", fields...)
		case quietRoute(route):
			log.Debug("HTTP Request", fields...)
		default:
			log.Info("HTTP Request", fields...)
		}

		if len(c.Errors) > 0 {
			log.Error("Request errors", "route", route, "errors", c.Errors.String())
		}
	}
}

func quietRoute(route string) bool {
	return route == "/metrics" || strings.HasPrefix(route, "/health")
}
