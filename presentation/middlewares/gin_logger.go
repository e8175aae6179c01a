package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/burnchat/infrastructure/logger"
	"go.uber.org/zap"
)

// GinLogger logs every request except the given paths (health checks,
// metric scrapes). Matched requests are logged by route template so path
// parameters such as invite codes never reach the logs.
func GinLogger(logger *logger.Logger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		if skip[path] {
			return
		}
		if route := c.FullPath(); route != "" {
			path = route
		}

		statusCode := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}

		switch {
		case len(c.Errors) > 0 || statusCode >= http.StatusInternalServerError:
			logger.Error("Request error", append(fields, zap.String("errors", c.Errors.String()))...)
		case statusCode >= http.StatusBadRequest:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request", fields...)
		}
	}
}
