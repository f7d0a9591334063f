package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/recordbook/internal/logger"
)

const (
	// LoggerKey is the context key for the request-scoped logger.
	LoggerKey = "logger"
	// VerboseErrorsKey marks requests whose error responses may carry
	// internal details such as error text or stack traces.
	VerboseErrorsKey = "verbose_errors"
)

// Logger stores a request-scoped child logger in the context and logs one
// line per request once the handler chain has finished.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestLogger := log.WithRequestID(GetRequestID(c))
		c.Set(LoggerKey, requestLogger)

		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if c.Request.URL.RawQuery != "" {
			fields["query"] = c.Request.URL.RawQuery
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= 500:
			requestLogger.Error("Request completed with server error", nil, fields)
		case status >= 400:
			requestLogger.Warn("Request completed with client error", fields)
		default:
			requestLogger.Info("Request completed", fields)
		}
	}
}

// GetLogger retrieves the logger from the Gin context.
// Returns nil if not found.
func GetLogger(c *gin.Context) *logger.Logger {
	if v, exists := c.Get(LoggerKey); exists {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return nil
}

// VerboseErrors sets whether error responses of this server may include
// internal details. It is enabled outside production.
func VerboseErrors(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(VerboseErrorsKey, enabled)
		c.Next()
	}
}

// IsVerbose reports whether the current request may expose internal details.
func IsVerbose(c *gin.Context) bool {
	return c.GetBool(VerboseErrorsKey)
}
