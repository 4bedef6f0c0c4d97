// Package middleware provides HTTP middleware functions.
package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/roguepikachu/reviewsite/pkg"
	"github.com/roguepikachu/reviewsite/pkg/logger"
)

// RequestLogger writes one entry per request. Server errors log at error,
// client errors at warn, and everything else at info. Health checks are
// logged at debug.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		fields := map[string]any{
			"method":     c.Request.Method,
			"path":       path,
			"route":      route,
			"status":     status,
			"latency_ms": latency.Milliseconds(),
			"bytes":      max(c.Writer.Size(), 0),
			"ip":         c.ClientIP(),
		}
		for _, p := range c.Params {
			fields[p.Key] = p.Value
		}
		if loc := c.Writer.Header().Get("Location"); loc != "" {
			fields["redirect"] = loc
		}
		if len(c.Errors) > 0 {
			msgs := make([]string, 0, len(c.Errors))
			for _, e := range c.Errors {
				msgs = append(msgs, e.Error())
			}
			fields["errors"] = strings.Join(msgs, "; ")
		}

		entry := logger.With(c.Request.Context(), fields)
		switch {
		case status >= 500:
			entry.Error("request completed")
		case status >= 400:
			entry.Warn("request completed")
		case strings.HasPrefix(route, pkg.HealthCheckPath):
			entry.Debug("request completed")
		default:
			entry.Info("request completed")
		}
	}
}
