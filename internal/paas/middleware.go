package paas

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserIDFunc extracts the authenticated caller for audit entries.
type UserIDFunc func(c *gin.Context) (uint64, bool)

// AuditMiddleware records every write under /api/ once the handler finished.
func AuditMiddleware(p *Client, userID UserIDFunc, logger *zap.Logger) gin.HandlerFunc {
	if p == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		method := strings.ToUpper(c.Request.Method)
		if !strings.HasPrefix(path, "/api/") || !isWrite(method) {
			return
		}
		status := c.Writer.Status()
		details := map[string]any{
			"method":   method,
			"path":     path,
			"route":    c.FullPath(),
			"status":   status,
			"duration": time.Since(start).String(),
		}
		if rid := c.Writer.Header().Get("X-Request-ID"); rid != "" {
			details["request_id"] = rid
		}
		if userID != nil {
			if id, ok := userID(c); ok {
				details["user_id"] = id
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := p.CreateLog(ctx, CreateLogRequest{
			Action:  "academy_http_write",
			Level:   levelFromStatus(status),
			Details: details,
		})
		if err != nil && logger != nil {
			logger.Debug("paas audit log failed", zap.Error(err))
		}
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

func levelFromStatus(status int) string {
	if status >= 500 {
		return "error"
	}
	if status >= 400 {
		return "warn"
	}
	return "info"
}
