package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/burnchat/infrastructure/metrics"
	"go.opentelemetry.io/otel/attribute"
)

func MetricsMiddleware(m metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		labels := []attribute.KeyValue{
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(c.Writer.Status())),
		}

		ctx := c.Request.Context()
		m.IncrementCounter(ctx, "http_requests_total", labels...)
		m.RecordHistogram(ctx, "http_request_duration_seconds", time.Since(start).Seconds(), labels...)
	}
}
