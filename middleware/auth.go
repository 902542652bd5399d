package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/warden-labs/zerotrust/api/config"
	logger "github.com/warden-labs/zerotrust/api/logging"
)

type adminClaims struct {
	jwt.StandardClaims
	Groups   []string `json:"groups"`
	Username string   `json:"username"`
}

// GroupAuthMiddleware authenticates the caller from a bearer token and
// requires membership in one of the given groups. The authenticated subject
// is placed in the gin context for the handlers.
func GroupAuthMiddleware(requiredGroups []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			logger.Warn("No Authorization token provided", zap.String("path", c.Request.URL.Path))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		claims, err := parseToken(tokenString)
		if err != nil {
			logger.Error("Error parsing token", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if !isUserInGroups(claims, requiredGroups) {
			logger.Warn("User does not have the required groups",
				zap.String("subject", claims.Subject),
				zap.Strings("required", requiredGroups))
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			c.Abort()
			return
		}

		c.Set("requestingUserID", claims.Subject)
		c.Set("requestingUser", claims.Username)

		c.Next()
	}
}

func parseToken(tokenString string) (*adminClaims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.ParseWithClaims(tokenString, &adminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.GetString("auth.jwtSecret")), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*adminClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token or wrong claims type")
}

func isUserInGroups(claims *adminClaims, requiredGroups []string) bool {
	for _, group := range requiredGroups {
		for _, userGroup := range claims.Groups {
			if userGroup == group {
				return true
			}
		}
	}
	return false
}
