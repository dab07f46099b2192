package relay

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gifrelay/internal/logging"
	"gifrelay/internal/services"
)

const requestIDHeader = "X-Request-ID"

// corsMiddleware allows the configured web origin to call the API.
func corsMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, x-api-key")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestIDMiddleware echoes or assigns X-Request-ID and stores it on the
// request context alongside the matched route.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		ctx := services.WithRequestID(c.Request.Context(), id)
		ctx = services.WithRoute(ctx, c.FullPath())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// accessLogMiddleware writes one line per request once the handler returns.
func accessLogMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		status := c.Writer.Status()
		level, msg := slog.LevelInfo, "request served"
		switch {
		case status >= http.StatusInternalServerError:
			level, msg = slog.LevelWarn, "request failed"
		case c.Request.URL.Path == healthPath:
			level = slog.LevelDebug
		}
		ctx := c.Request.Context()
		logging.WithContext(ctx, logger).LogAttrs(ctx, level, msg,
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Status(status),
			logging.Elapsed(started),
			logging.String("client_ip", c.ClientIP()),
		)
	}
}

// bodyLimitMiddleware caps the request body at limit bytes.
func bodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
