package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"vidfeed/infrastructure/logger"
	"vidfeed/infrastructure/metrics"
)

// RequestLog logs every request and counts it by matched route.
func RequestLog() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := ctx.Writer.Status()
		metrics.RecordHTTPRequest(route, ctx.Request.Method, status)

		entry := logger.GetLogger().WithFields(map[string]interface{}{
			"method":     ctx.Request.Method,
			"route":      route,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  ctx.ClientIP(),
		})
		if len(ctx.Errors) > 0 {
			entry.WithField("error", ctx.Errors.String()).Warn("Request completed with errors")
			return
		}
		if status >= 500 {
			entry.Warn("Request failed")
			return
		}
		entry.Debug("Request completed")
	}
}
