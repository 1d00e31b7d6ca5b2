package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cvforge/internal/auth"
)

const userIDKey = "userID"

// TokenValidator 校验指定类型的令牌。
type TokenValidator interface {
	ValidateTokenOfType(token, tokenType string) (*auth.TokenClaims, error)
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// AuthMiddleware 校验访问令牌并将 userID 注入上下文。
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c)
			return
		}

		claims, err := validator.ValidateTokenOfType(rawToken, auth.TokenTypeAccess)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		SetUserID(c, claims.UserID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// SetUserID 将已认证的用户 ID 写入请求上下文。
func SetUserID(c *gin.Context, userID string) {
	c.Set(userIDKey, userID)
}

// UserIDFromContext 返回 AuthMiddleware 注入的用户 ID。
func UserIDFromContext(c *gin.Context) (string, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}
