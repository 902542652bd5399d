// api/util/http_util.go
package util

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/warden-labs/zerotrust/api/logging"
)

func RespondWithError(c *gin.Context, code int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.JSON(code, gin.H{"error": message})
}

// GetUserIDFromContext returns the subject the auth middleware authenticated,
// or empty on unauthenticated routes.
func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID, exists := c.Get("requestingUserID")
	if !exists {
		return "", nil
	}
	return userID.(string), nil
}
