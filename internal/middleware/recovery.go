package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/recordbook/internal/logger"
)

// Recovery creates a middleware that recovers from panics and logs them.
// It answers 500 with the standard error envelope; the panic value and stack
// are included in details only for verbose requests.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			stack := string(debug.Stack())
			requestID := GetRequestID(c)

			requestLogger := GetLogger(c)
			if requestLogger == nil {
				requestLogger = log
			}
			requestLogger.Error("Panic recovered", fmt.Errorf("panic: %v", rec), map[string]interface{}{
				"request_id": requestID,
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"stack":      stack,
			})

			body := gin.H{
				"code":       "INTERNAL_SERVER_ERROR",
				"message":    "Something went wrong on the server",
				"request_id": requestID,
			}
			if IsVerbose(c) {
				body["details"] = gin.H{
					"error": fmt.Sprint(rec),
					"stack": stack,
				}
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": body})
		}()

		c.Next()
	}
}
