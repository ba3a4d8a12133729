package gin

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggerMiddleware logs one line per request with method, path, status,
// duration and any errors recorded by the handler.
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if query != "" {
			attrs = append(attrs, "query", query)
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", strings.Join(c.Errors.Errors(), "; "))
			logger.Error("HTTP request with errors", attrs...)
			return
		}
		if strings.HasPrefix(path, "/healthz") || path == "/metrics" {
			logger.Debug("HTTP request", attrs...)
			return
		}
		logger.Info("HTTP request", attrs...)
	}
}

// RecoveryMiddleware turns panics into a 500 response without a stack trace.
func RecoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					"err", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error: "Internal error.",
					Stage: StageExtraction,
				})
			}
		}()

		c.Next()
	}
}
